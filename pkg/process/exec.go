// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

// Package process sets up process-wide configuration and logging for
// forestdb commands: flags, environment, and a yaml config file are merged
// through viper, and a zap logger is installed globally.
package process

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const envPrefix = "forestgc"

var (
	mu       sync.Mutex
	contexts = map[*cobra.Command]context.Context{}
)

// Exec runs a cobra command with process-wide configuration:
// flag values are filled from the environment and the --config file,
// and a logger is installed before the command runs.
func Exec(cmd *cobra.Command) {
	pflag.CommandLine.AddFlagSet(cmd.Flags())

	cleanup(cmd)
	Must(cmd.Execute())
}

// Ctx returns the context installed for the command. It is canceled on
// SIGINT and SIGTERM so commands can stop cooperatively.
func Ctx(cmd *cobra.Command) context.Context {
	mu.Lock()
	defer mu.Unlock()
	if ctx, ok := contexts[cmd]; ok {
		return ctx
	}
	return context.Background()
}

// Must logs the error and exits when err is set.
func Must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

// cleanup wraps every command's RunE with configuration and logger setup.
func cleanup(cmd *cobra.Command) {
	for _, child := range cmd.Commands() {
		cleanup(child)
	}
	if cmd.RunE == nil {
		return
	}

	internalRun := cmd.RunE
	cmd.RunE = func(cmd *cobra.Command, args []string) (err error) {
		vip := viper.New()
		if err := vip.BindPFlags(cmd.Flags()); err != nil {
			return err
		}
		vip.SetEnvPrefix(envPrefix)
		vip.AutomaticEnv()

		if configPath, err := cmd.Flags().GetString("config"); err == nil && configPath != "" {
			vip.SetConfigFile(os.ExpandEnv(configPath))
			if err := vip.ReadInConfig(); err != nil {
				if _, ok := err.(*os.PathError); !ok {
					return err
				}
				// missing config file is fine, flags and env still apply
			}
		}

		// apply viper values to flags the user did not set explicitly
		var applyErr error
		cmd.Flags().VisitAll(func(flag *pflag.Flag) {
			if flag.Changed || !vip.IsSet(flag.Name) {
				return
			}
			if err := cmd.Flags().Set(flag.Name, vip.GetString(flag.Name)); err != nil && applyErr == nil {
				applyErr = err
			}
		})
		if applyErr != nil {
			return applyErr
		}

		logger, err := NewLoggerFromFlags(cmd.Flags())
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
		defer zap.ReplaceGlobals(logger)()
		defer zap.RedirectStdLog(logger)()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		mu.Lock()
		contexts[cmd] = ctx
		mu.Unlock()
		defer func() {
			mu.Lock()
			delete(contexts, cmd)
			mu.Unlock()
		}()

		return internalRun(cmd, args)
	}
}
