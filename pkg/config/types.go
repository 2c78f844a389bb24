package config

import (
	"time"

	"github.com/mitchellh/go-homedir"
)

type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

type Path string

func (p *Path) UnmarshalText(b []byte) error {
	*p = ToPath(string(b))
	return nil
}

func ToPath(path string) Path {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return Path(path)
	}
	return Path(expanded)
}
