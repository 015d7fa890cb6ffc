// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

package process

import (
	"github.com/spf13/pflag"
	"github.com/zeebo/errs"
	"go.uber.org/zap"
)

// NewLogger creates a logger for the given disposition, "prod" or "dev".
func NewLogger(disposition string) (*zap.Logger, error) {
	switch disposition {
	case "prod", "":
		return zap.NewProduction()
	case "dev":
		return zap.NewDevelopment()
	}
	return nil, errs.New("unknown log disposition %q, expected prod or dev", disposition)
}

// NewLoggerFromFlags creates a logger configured by the --log flag when the
// flag set carries one.
func NewLoggerFromFlags(flags *pflag.FlagSet) (*zap.Logger, error) {
	disposition := ""
	if flag := flags.Lookup("log"); flag != nil {
		disposition = flag.Value.String()
	}
	return NewLogger(disposition)
}
