// Command seed provisions the administrative account. It is safe to run
// repeatedly: an existing account with the seed email is left untouched.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/huangang/tasktracker/internal/config"
	"github.com/huangang/tasktracker/internal/models"
	"github.com/huangang/tasktracker/internal/services"
	"github.com/huangang/tasktracker/pkg/logger"
	"github.com/spf13/cobra"
)

type seedOptions struct {
	configPath string
	dsn        string
	name       string
	email      string
	password   string
}

func newRootCmd() *cobra.Command {
	opts := &seedOptions{}

	cmd := &cobra.Command{
		Use:           "seed",
		Short:         "Create the administrator account if it does not exist",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", os.Getenv("CONFIG_PATH"), "path to config.yaml")
	flags.StringVar(&opts.dsn, "dsn", "", "database DSN, overrides the config file")
	flags.StringVar(&opts.name, "name", "", "administrator display name")
	flags.StringVar(&opts.email, "email", "", "administrator email")
	flags.StringVar(&opts.password, "password", "", "administrator password")
	return cmd
}

func runSeed(cmd *cobra.Command, opts *seedOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Log.Level)

	if opts.dsn != "" {
		cfg.Database.DSN = opts.dsn
	}
	if opts.name != "" {
		cfg.Seed.AdminName = opts.name
	}
	if opts.email != "" {
		cfg.Seed.AdminEmail = opts.email
	}
	if opts.password != "" {
		cfg.Seed.AdminPassword = opts.password
	}

	db, err := models.InitDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = models.Close(db) }()

	if err := models.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	outcome, err := services.NewSeedService(db, &cfg.Seed).EnsureAdmin(ctx)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	switch outcome {
	case services.Seeded:
		fmt.Fprintf(cmd.OutOrStdout(), "created administrator %s\n", cfg.Seed.AdminEmail)
	case services.AlreadySeeded:
		fmt.Fprintf(cmd.OutOrStdout(), "already seeded: %s exists\n", cfg.Seed.AdminEmail)
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "seed:", err)
		os.Exit(1)
	}
}
