// Package main provides catalogctl, the command line tool for administering
// a LocalLibrary catalog: accounts, fixtures and maintenance jobs.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/NickLinnik/LocalLibrary/internal/config"
	"github.com/NickLinnik/LocalLibrary/internal/di"
	"github.com/NickLinnik/LocalLibrary/internal/domain"
	"github.com/NickLinnik/LocalLibrary/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	err := newRootCmd(a).ExecuteContext(ctx)
	a.close()
	if err != nil {
		os.Exit(1)
	}
}

// app holds the lazily built container shared by every subcommand.
type app struct {
	dataDir  string
	envFile  string
	logLevel string

	injector *do.RootScope
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "catalogctl",
		Short:        "Administer a LocalLibrary catalog",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.open()
		},
	}

	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "Directory for database, sessions and search index")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "Path to .env file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newCreateUserCmd(a),
		newSetPasswordCmd(a),
		newSeedCmd(a),
		newUpdateSummariesCmd(a),
		newExportPDFCmd(a),
		newReindexCmd(a),
	)
	return root
}

// open loads configuration the same way the server does, with the global
// flags taking precedence over the environment.
func (a *app) open() error {
	args := []string{"-env-file", a.envFile, "-log-level", a.logLevel}
	if a.dataDir != "" {
		args = append(args, "-data-dir", a.dataDir)
	}
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}
	a.injector = di.NewContainer(cfg)
	return nil
}

func (a *app) close() {
	if a.injector == nil {
		return
	}
	if err := a.injector.Shutdown(); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown: %v\n", err)
	}
}

func (a *app) catalog() (*service.Catalog, error) {
	return do.Invoke[*service.Catalog](a.injector)
}

func (a *app) auth() (*service.AuthService, error) {
	return do.Invoke[*service.AuthService](a.injector)
}

// actor resolves the librarian a command acts as. Audit log rows are
// attributed to this account.
func (a *app) actor(ctx context.Context, username string) (*domain.User, error) {
	if username == "" {
		return nil, errors.New("--as is required")
	}
	svc, err := a.auth()
	if err != nil {
		return nil, err
	}
	u, err := svc.UserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !u.Has(domain.PermManageLoans) {
		return nil, fmt.Errorf("user %q is not a librarian", username)
	}
	return u, nil
}
