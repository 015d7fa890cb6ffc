// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"forestdb.io/forestgc/gc"
	"forestdb.io/forestgc/pkg/boltforest"
	"forestdb.io/forestgc/pkg/cfgstruct"
	"forestdb.io/forestgc/pkg/process"
)

// Config is the configuration of the forestgc command.
type Config struct {
	Database string    `help:"bolt forest database file" default:"$CONFDIR/forest.db"`
	GC       gc.Config `help:""`
}

var (
	rootCmd = &cobra.Command{
		Use:   "forestgc",
		Short: "Snapshot-retention garbage collector for forestdb block storage",
	}
	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run garbage collection periodically",
		RunE:  cmdRun,
	}
	collectCmd = &cobra.Command{
		Use:   "collect",
		Short: "Run a single garbage collection pass and print the report",
		RunE:  cmdCollect,
	}
	setupCmd = &cobra.Command{
		Use:   "setup",
		Short: "Create config files",
		RunE:  cmdSetup,
	}
	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Populate a local forest with randomized snapshot histories",
		RunE:  cmdSeed,
	}

	runCfg     Config
	collectCfg Config
	seedCfg    struct {
		Database string                `help:"bolt forest database file" default:"$CONFDIR/forest.db"`
		Seed     boltforest.SeedConfig `help:""`
	}
	setupCfg struct {
		Overwrite bool `help:"whether to overwrite pre-existing configuration files" default:"false"`
	}
)

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(seedCmd)
	cfgstruct.Bind(runCmd.Flags(), &runCfg, cfgstruct.ConfDir(confDir()))
	cfgstruct.Bind(collectCmd.Flags(), &collectCfg, cfgstruct.ConfDir(confDir()))
	cfgstruct.Bind(seedCmd.Flags(), &seedCfg, cfgstruct.ConfDir(confDir()))
	cfgstruct.Bind(setupCmd.Flags(), &setupCfg, cfgstruct.ConfDir(confDir()))
}

func confDir() string {
	home, err := homedir.Dir()
	if err != nil {
		return filepath.Join(".forestdb", "forestgc")
	}
	return filepath.Join(home, ".forestdb", "forestgc")
}

func openService(log *zap.Logger, config Config) (*boltforest.DB, *gc.Service, error) {
	db, err := boltforest.Open(log.Named("boltforest"), config.Database)
	if err != nil {
		return nil, nil, err
	}

	service, err := gc.NewService(log.Named("gc"), config.GC, db, db, db, db)
	if err != nil {
		return nil, nil, errs.Combine(err, db.Close())
	}
	return db, service, nil
}

func cmdRun(cmd *cobra.Command, args []string) (err error) {
	log := zap.L()

	db, service, err := openService(log, runCfg)
	if err != nil {
		return err
	}
	defer func() { err = errs.Combine(err, db.Close()) }()

	return service.Run(process.Ctx(cmd))
}

func cmdCollect(cmd *cobra.Command, args []string) (err error) {
	log := zap.L()

	db, service, err := openService(log, collectCfg)
	if err != nil {
		return err
	}
	defer func() { err = errs.Combine(err, db.Close()) }()

	report, err := service.Collect(process.Ctx(cmd))
	if err != nil {
		return err
	}
	fmt.Print(report)
	return nil
}

func cmdSetup(cmd *cobra.Command, args []string) (err error) {
	configFile := filepath.Join(confDir(), "config.yaml")
	if _, err := os.Stat(configFile); err == nil && !setupCfg.Overwrite {
		fmt.Println("A forestgc configuration already exists. Rerun with --overwrite")
		return nil
	}

	if err := os.MkdirAll(confDir(), 0700); err != nil {
		return err
	}
	return process.SaveConfig(runCmd.Flags(), configFile, nil)
}

func cmdSeed(cmd *cobra.Command, args []string) (err error) {
	log := zap.L()

	db, err := boltforest.Open(log.Named("boltforest"), seedCfg.Database)
	if err != nil {
		return err
	}
	defer func() { err = errs.Combine(err, db.Close()) }()

	if err := db.Seed(seedCfg.Seed, time.Now().UTC()); err != nil {
		return err
	}

	paths, err := db.ListPaths(process.Ctx(cmd))
	if err != nil {
		return err
	}
	fmt.Printf("seeded %d paths in %s\n", len(paths), seedCfg.Database)
	return nil
}

func main() {
	rootCmd.PersistentFlags().String("config", filepath.Join(confDir(), "config.yaml"), "path to configuration")
	rootCmd.PersistentFlags().String("log", "prod", "log disposition: prod or dev")
	process.Exec(rootCmd)
}
