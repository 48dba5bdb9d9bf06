// @title           HOA Portal API
// @version         1.0
// @description     Homeowners association portal: owner accounts, billing, messaging, announcements, documents and surveys
// @BasePath        /api

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Enter the token with the `Bearer ` prefix
package main

import (
	"fmt"
	"os"

	"hoa-http-service/internal/domain/services"
	"hoa-http-service/internal/infrastructure/config"
	"hoa-http-service/internal/infrastructure/database"
	Logger "hoa-http-service/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "hoa-server",
		Short:   "HOA portal HTTP service",
		Version: Version,
		RunE:    runServe,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "environment file loaded before the config")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(jobsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var envFile string

// loadConfig reads the env file, when present, and returns the config singleton
func loadConfig() *config.Config {
	if err := godotenv.Load(envFile); err != nil {
		Logger.Warning("could not load %s: %v", envFile, err)
	} else {
		Logger.Info("loaded %s", envFile)
	}
	return config.GetConfig()
}

// openDatabase opens the pool and runs the configured migration
func openDatabase(cfg *config.Config) (*database.ConnectionPool, error) {
	pool, err := database.NewConnectionPool(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.Migrate(pool.GetDB(), cfg.DBMigrationMode); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return pool, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run the configured migration mode (auto, alter or drop) and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			pool, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			if _, err := services.NewBoardService(pool.GetDB(), cfg, nil).Bootstrap(cfg.BootstrapEmail, cfg.BootstrapPassword); err != nil {
				return fmt.Errorf("bootstrap board member: %w", err)
			}
			fmt.Printf("migration %q completed\n", cfg.DBMigrationMode)
			return nil
		},
	}
}
