package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	log "github.com/sirupsen/logrus"
	"github.com/zulandar/bugboard/internal/bug"
	"github.com/zulandar/bugboard/internal/config"
	"github.com/zulandar/bugboard/internal/db"
	"github.com/zulandar/bugboard/internal/logging"
)

// loadConfig reads the --config file, falling back to defaults when it does
// not exist, and configures logging from it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logging.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, err
	}
	log.StandardLogger().SetOutput(cmd.ErrOrStderr())
	return cfg, nil
}

// connectFromConfig loads config and opens the configured bug store. The
// memory driver starts from the sample bugs when seeding is enabled.
func connectFromConfig(cmd *cobra.Command) (*config.Config, bug.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Storage.Driver == config.DriverMemory {
		if cfg.Storage.Seed() {
			return cfg, bug.NewMemoryStore(bug.SampleBugs(), time.Now), nil
		}
		return cfg, bug.NewMemoryStore(nil, time.Now), nil
	}

	gormDB, err := db.Open(cfg.Storage)
	if err != nil {
		return nil, nil, err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return nil, nil, err
	}
	if cfg.Storage.Seed() {
		n, err := db.SeedSamples(context.Background(), gormDB)
		if err != nil {
			return nil, nil, err
		}
		if n > 0 {
			log.WithField("bugs", n).Info("seeded sample bugs")
		}
	}
	return cfg, bug.NewDBStore(gormDB, time.Now), nil
}
