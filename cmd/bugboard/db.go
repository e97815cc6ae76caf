package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/bugboard/internal/config"
	"github.com/zulandar/bugboard/internal/db"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBInitCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the Bugboard database",
		Long:  "Creates the database (MySQL), migrates all tables and seeds the sample bugs when enabled.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBInit(cmd)
		},
	}
}

func runDBInit(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st := cfg.Storage

	switch st.Driver {
	case config.DriverMemory:
		return fmt.Errorf("storage driver %q keeps nothing on disk; set storage.driver to sqlite or mysql", st.Driver)
	case config.DriverMySQL:
		// Connect without a database selected so it can be created.
		adminDB, err := db.ConnectAdmin(st.MySQL.User, st.MySQL.Host, st.MySQL.Port)
		if err != nil {
			return fmt.Errorf("connect to MySQL at %s:%d: %w", st.MySQL.Host, st.MySQL.Port, err)
		}
		fmt.Fprintf(out, "Connected to MySQL at %s:%d\n", st.MySQL.Host, st.MySQL.Port)
		if err := db.CreateDatabase(adminDB, st.MySQL.Database); err != nil {
			return err
		}
		fmt.Fprintf(out, "Database %s ready\n", st.MySQL.Database)
	case config.DriverSQLite:
		fmt.Fprintf(out, "Using SQLite database %s\n", st.Path)
	}

	gormDB, err := db.Open(st)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))

	if st.Seed() {
		n, err := db.SeedSamples(context.Background(), gormDB)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Seeded %d sample bugs\n", n)
	}

	fmt.Fprintln(out, "Bugboard database initialized successfully.")
	return nil
}
