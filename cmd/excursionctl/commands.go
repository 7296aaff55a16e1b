package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-excursion-backend/internal/repo"
	"github.com/tbourn/go-excursion-backend/internal/services"
)

func migrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := repo.AutoMigrate(a.db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema is up to date (%s)\n", a.cfg.DB.Driver)
			return nil
		},
	}
}

func userCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage staff accounts",
	}

	var login, password string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a staff account",
		Long: `Create a staff account that can sign in to the admin panel.

Examples:
  excursionctl user create --login guide --password 's3cret-pass'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			auth := services.NewAuthService(a.db, userRepo{}, a.cfg.Auth.JWTSecret, a.cfg.Auth.TokenTTL)
			u, err := auth.SignUp(a.ctx(cmd), login, password)
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s)\n", u.ID, u.Login)
			return nil
		},
	}
	create.Flags().StringVar(&login, "login", "", "staff login")
	create.Flags().StringVar(&password, "password", "", "staff password")
	_ = create.MarkFlagRequired("login")
	_ = create.MarkFlagRequired("password")

	cmd.AddCommand(create)
	return cmd
}

func keyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage excursion keys",
	}

	var id uint
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Issue a new key for an excursion, replacing the old one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			keys := services.NewKeyService(a.db, repo.Catalog{}, a.cfg.KeyGen.MaxAttempts)
			key, err := keys.GenerateKey(a.ctx(cmd), id)
			if err != nil {
				return fmt.Errorf("generate key: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
	generate.Flags().UintVar(&id, "id", 0, "excursion id")
	_ = generate.MarkFlagRequired("id")

	cmd.AddCommand(generate)
	return cmd
}

func idempotencyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "idempotency",
		Short: "Maintain stored payment replay records",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete expired Idempotency-Key records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := repo.PurgeExpiredIdempotency(a.ctx(cmd), a.db, time.Now().UTC())
			if err != nil {
				return fmt.Errorf("purge: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d expired records\n", n)
			return nil
		},
	})
	return cmd
}
