// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

// Command adminctl is the operator CLI of the Dripside backend.
//
// It talks to PostgreSQL directly and only needs DATABASE_URL, so it can
// bootstrap a fresh environment before the API server is configured.
package main

import (
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"
)

// cliConfig is the subset of the server environment adminctl reads.
type cliConfig struct {
	DatabaseURL   string `env:"DATABASE_URL,required"`
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`
	MailSender    string `env:"MAIL_SENDER"    envDefault:"no-reply@dripside.in"`
}

// loadConfig is replaced in tests.
var loadConfig = func() (*cliConfig, error) {
	cfg := &cliConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

var logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

var rootCmd = &cobra.Command{
	Use:           "adminctl",
	Short:         "Operate a Dripside backend database",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("command_failed", slog.Any("error", err))
		os.Exit(1)
	}
}
