// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dripside-in/dripside-backend/internal/platform/migration"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, logger); err != nil {
		return err
	}

	cmd.Println("Migrations applied.")
	return nil
}
