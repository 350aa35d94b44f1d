package cmd

import (
	"fmt"
	"time"

	"skillswap/internal/config"
	"skillswap/internal/infrastructure/database"
	"skillswap/pkg/logger"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration management",
	Long:  "Manage the Postgres schema for users and swap requests",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Run pending migrations",
	Long:  "Execute all pending database migrations",
	RunE:  runMigrateUp,
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	Long:  "Display the status of all migrations",
	RunE:  runMigrateStatus,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

func connectDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.NewConnection(database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.Username,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.Name,
		SSLMode:         cfg.Database.SSLMode,
		LogLevel:        cfg.Database.LogLevel,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	db, err := connectDatabase(config.Get())
	if err != nil {
		return err
	}
	defer database.Close(db)

	migrationRunner := database.NewMigrationRunner(db, database.EmbeddedMigrations())
	applied, err := migrationRunner.RunMigrations()
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Info("Migrations completed (%d applied)", applied)
	fmt.Printf("Migrations completed successfully! (%d applied)\n", applied)
	return nil
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	db, err := connectDatabase(config.Get())
	if err != nil {
		return err
	}
	defer database.Close(db)

	migrationRunner := database.NewMigrationRunner(db, database.EmbeddedMigrations())
	migrations, err := migrationRunner.GetMigrationStatus()
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}

	fmt.Println("Migration Status:")
	fmt.Println("================")
	for _, migration := range migrations {
		status := "Pending"
		if migration.AppliedAt != nil {
			status = fmt.Sprintf("Applied at %s", migration.AppliedAt.Format("2006-01-02 15:04:05"))
		}
		fmt.Printf("%s - %s [%s]\n", migration.ID, migration.Description, status)
	}
	return nil
}
