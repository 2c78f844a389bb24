package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/errs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// openLog sends info (or debug with verbose) to stderr and, when a data
// directory is configured, a full debug JSON log to a timestamped file.
func openLog(dataDir string, verbose bool) (*zap.Logger, error) {
	level := zap.InfoLevel
	if verbose {
		level = zap.DebugLevel
	}

	stderrEncoder := zap.NewDevelopmentEncoderConfig()
	stderrEncoder.EncodeLevel = zapcore.CapitalColorLevelEncoder
	stderrLog, err := (zap.Config{
		Level:         zap.NewAtomicLevelAt(level),
		Encoding:      "console",
		EncoderConfig: stderrEncoder,
		OutputPaths:   []string{"stderr"},
	}).Build()
	if err != nil {
		return nil, errs.Wrap(err)
	}
	if dataDir == "" {
		return stderrLog, nil
	}

	logsDir := filepath.Join(dataDir, "logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, errs.Wrap(err)
	}

	// Name the log based on the current timestamp to millisecond precision
	logName := time.Now().UTC().Format("2006.01.02.15.04.05.000Z") + ".json"

	logsPath, err := filepath.Abs(filepath.Join(logsDir, logName))
	if err != nil {
		return nil, errs.Wrap(err)
	}

	fileEncoder := zap.NewProductionEncoderConfig()
	fileEncoder.EncodeTime = zapcore.ISO8601TimeEncoder
	fileLog, err := (zap.Config{
		Level:         zap.NewAtomicLevelAt(zap.DebugLevel),
		Encoding:      "json",
		EncoderConfig: fileEncoder,
		OutputPaths:   []string{"file://" + logsPath},
	}).Build()
	if err != nil {
		return nil, errs.Wrap(err)
	}

	return zap.New(zapcore.NewTee(stderrLog.Core(), fileLog.Core())), nil
}
