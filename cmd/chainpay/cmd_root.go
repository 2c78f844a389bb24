package main

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

const (
	defaultConfigPath = "~/.chainpay.toml"
)

type rootConfig struct {
	Ctx context.Context

	ConfigPath string
	Verbose    bool
}

func newRootCommand() *cobra.Command {
	config := new(rootConfig)
	cmd := &cobra.Command{
		Use:   "chainpay",
		Short: "Verify and monitor cryptocurrency booking payments",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
			config.Ctx = cmdCtx()
			return nil
		},
		Version: getVersion(),
	}
	cmd.PersistentFlags().StringVarP(
		&config.ConfigPath,
		"config", "",
		defaultConfigPath,
		"Path to the TOML configuration")
	cmd.PersistentFlags().BoolVarP(
		&config.Verbose,
		"verbose", "v",
		false,
		"Enable debug logging on the console")

	cmd.AddCommand(newVerifyCommand(config))
	cmd.AddCommand(newScanCommand(config))
	cmd.AddCommand(newWatchCommand(config))
	return cmd
}

func getVersion() string {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	return fmt.Sprintf("%s (built with %s)\n", buildInfo.Main.Version, runtime.Version())
}
