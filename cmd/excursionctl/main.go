// Command excursionctl performs operator tasks against the excursion
// database: schema migration, staff account creation, key rotation and
// idempotency record cleanup.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tbourn/go-excursion-backend/internal/config"
	"github.com/tbourn/go-excursion-backend/internal/domain"
	"github.com/tbourn/go-excursion-backend/internal/repo"
	"github.com/tbourn/go-excursion-backend/internal/sysutil"
)

var Version = "dev"

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is the state shared by subcommands, filled in before any of them run.
type app struct {
	cfg config.Config
	db  *gorm.DB
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "excursionctl",
		Short:         "Operator tools for the excursion backend",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}

	root.AddCommand(migrateCmd(a))
	root.AddCommand(userCmd(a))
	root.AddCommand(keyCmd(a))
	root.AddCommand(idempotencyCmd(a))
	return root
}

func (a *app) open(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	a.cfg = cfg
	a.log = sysutil.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, true)

	db, err := repo.Open(cfg.DB, false)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	a.db = db
	return nil
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ctx carries the command logger so service logs reach stderr.
func (a *app) ctx(cmd *cobra.Command) context.Context {
	return a.log.WithContext(cmd.Context())
}

// userRepo adapts the repo user functions to services.UserRepo.
type userRepo struct{}

func (userRepo) CreateUser(ctx context.Context, db *gorm.DB, login, hash string) (*domain.User, error) {
	return repo.CreateUser(ctx, db, login, hash)
}

func (userRepo) GetUserByLogin(ctx context.Context, db *gorm.DB, login string) (*domain.User, error) {
	return repo.GetUserByLogin(ctx, db, login)
}
