package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harborlight/rota/cmd/cli/commands"
	"github.com/harborlight/rota/internal/config"
	"github.com/harborlight/rota/pkg/postgres"
	"github.com/harborlight/rota/pkg/utils/logging"
)

var (
	env string
	app *commands.AppContext
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rota",
		Short: "Volunteer rota CLI - define, allocate and view shift rotas",
		Long:  `A CLI tool for managing volunteer rotas: defining rota periods, importing availability, running the allocation algorithm and viewing results.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil && app.Logger != nil {
				app.Logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.DefineRotaCmd(appRef()))
	rootCmd.AddCommand(commands.ImportAvailabilityCmd(appRef()))
	rootCmd.AddCommand(commands.AllocateRotaCmd(appRef()))
	rootCmd.AddCommand(commands.ViewRotaCmd(appRef()))
	rootCmd.AddCommand(commands.ListVolunteersCmd(appRef()))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// appRef hands commands the shared context before initApp has filled it
// in; PersistentPreRunE populates the fields ahead of any RunE
func appRef() *commands.AppContext {
	if app == nil {
		app = &commands.AppContext{}
	}
	return app
}

// initApp sets up logger, config and database
func initApp() error {
	var err error
	appCtx := appRef()
	appCtx.Ctx = context.Background()

	appCtx.Logger, err = logging.InitLogger(env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	appCtx.Logger.Info("Starting application", zap.String("environment", env))

	appCtx.Logger.Info("Loading configuration")
	appCtx.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	appCtx.Logger.Debug("Configuration loaded successfully")

	appCtx.Logger.Info("Connecting to database")
	database, err := postgres.NewDB(appCtx.Ctx, appCtx.Cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	appCtx.Logger.Info("Running database migrations")
	if err := database.RunMigrations(appCtx.Ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	appCtx.Database = database
	appCtx.Logger.Info("Database initialized successfully")

	return nil
}
