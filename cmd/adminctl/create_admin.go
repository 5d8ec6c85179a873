// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dripside-in/dripside-backend/internal/account"
	"github.com/dripside-in/dripside-backend/internal/identity"
	"github.com/dripside-in/dripside-backend/internal/platform/dberr"
	"github.com/dripside-in/dripside-backend/internal/platform/notify"
	pgstore "github.com/dripside-in/dripside-backend/internal/platform/postgres"
	"github.com/dripside-in/dripside-backend/internal/platform/sec"
)

// adminCreator is the part of account.Service create-admin needs.
type adminCreator interface {
	Add(context context.Context, input account.AddInput) (*identity.Principal, error)
}

// adminFactory opens the admin directory. Replaced in tests.
var adminFactory = func(context context.Context, cfg *cliConfig) (adminCreator, func(), error) {
	pool, err := pgstore.NewPool(context, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, nil, err
	}

	notifier := notify.NewLogNotifier(logger, cfg.MailSender, false)
	store := account.NewPostgresStore(pool, identity.KindAdmin)
	service := account.NewService(identity.KindAdmin, store, nil, notifier, false)

	return service, func() {
		notifier.Wait()
		pool.Close()
	}, nil
}

// passwordReader reads a password without echo. Replaced in tests.
var passwordReader = func(out io.Writer) (string, error) {
	fmt.Fprint(out, "Password (empty to generate): ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(raw), nil
}

type createAdminOptions struct {
	name     string
	username string
	email    string
	phone    string
	role     string
	password string
}

func newCreateAdminCmd() *cobra.Command {
	options := &createAdminOptions{}

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account",
		Long:  "Create an admin account and mail its credentials. Prompts for the password when --password is not given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreateAdmin(cmd, options)
		},
	}

	cmd.Flags().StringVar(&options.name, "name", "", "Display name")
	cmd.Flags().StringVar(&options.username, "username", "", "Login username")
	cmd.Flags().StringVar(&options.email, "email", "", "Email address")
	cmd.Flags().StringVar(&options.phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&options.role, "role", string(sec.RoleSuperAdmin), "SuperAdmin, DeveloperAdmin or Admin")
	cmd.Flags().StringVar(&options.password, "password", "", "Password (will prompt if not provided)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func init() {
	rootCmd.AddCommand(newCreateAdminCmd())
}

func runCreateAdmin(cmd *cobra.Command, options *createAdminOptions) error {
	role := sec.Role(options.role)
	if !sec.AdminRoles.Contains(role) {
		return fmt.Errorf("invalid role %q", options.role)
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	password := options.password
	if password == "" {
		if password, err = passwordReader(cmd.OutOrStdout()); err != nil {
			return err
		}
	}

	password = strings.TrimSpace(password)
	generated := password == ""
	if generated {
		if password, err = sec.GeneratePassword(16); err != nil {
			return err
		}
	}

	name := options.name
	if name == "" {
		name = options.username
	}

	admins, closeFn, err := adminFactory(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer closeFn()

	principal, err := admins.Add(cmd.Context(), account.AddInput{
		Name:     name,
		Username: options.username,
		Email:    options.email,
		Phone:    options.phone,
		Password: password,
		Role:     role,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", dberr.ToAppError(err))
	}

	cmd.Printf("Created %s %s (%s)\n", principal.Role, principal.Username, principal.Code)
	if generated {
		cmd.Printf("Generated password: %s\n", password)
	}
	return nil
}
