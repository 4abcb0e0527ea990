package main

import (
	"context"
	"dive_center_rental/app"
	"dive_center_rental/config"
	"dive_center_rental/db"
	"dive_center_rental/routes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	config.LoadEnv()
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "divecenter",
		Short:        "Dive center equipment rental API",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "optional YAML config file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configPath)
		},
	}
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context(), configPath)
		},
	}
	root.AddCommand(serveCmd, migrateCmd)
	root.RunE = serveCmd.RunE
	return root
}

func setup(ctx context.Context, configPath string) (*app.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := app.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	conn, rdb, err := app.Connect(ctx, *cfg)
	if err != nil {
		log.Error("connect", zap.Error(err))
		return nil, err
	}
	if rdb == nil {
		log.Info("redis not configured, using random basket numbers")
	}
	return app.New(*cfg, conn, rdb, log), nil
}

func migrate(ctx context.Context, configPath string) error {
	a, err := setup(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := db.Migrate(a.DB, a.Log); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := app.SyncBasketSequence(ctx, a); err != nil {
		return fmt.Errorf("basket sequence: %w", err)
	}
	a.Log.Info("database migrated")
	return nil
}

func serve(ctx context.Context, configPath string) error {
	a, err := setup(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := db.Migrate(a.DB, a.Log); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := app.SyncBasketSequence(ctx, a); err != nil {
		return fmt.Errorf("basket sequence: %w", err)
	}
	if err := app.BootstrapCatalog(ctx, a); err != nil {
		a.Log.Warn("catalog bootstrap failed", zap.Error(err))
	}
	routes.RegisterRoutes(a.Router, a)

	a.Log.Info("listening", zap.String("port", a.Config.Port))
	return a.Router.Run(":" + a.Config.Port)
}
