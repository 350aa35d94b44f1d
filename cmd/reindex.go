package cmd

import (
	"context"
	"fmt"

	"skillswap/internal/api/router"
	"skillswap/internal/config"
	"skillswap/pkg/logger"

	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the skill index from the user directory",
	Long: `Discard the skill index and re-derive it from the stored users.
Use it after a failed write left the Redis index out of step with Postgres.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReindex(cmd)
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command) error {
	cfg := config.Get()
	if cfg.Store.Driver != router.DriverPostgres || cfg.Index.Driver != router.DriverRedis {
		logger.Warn("Reindexing store=%s index=%s only affects this process", cfg.Store.Driver, cfg.Index.Driver)
	}

	ctx := context.Background()
	comp, err := router.NewComponents(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize components: %w", err)
	}
	defer comp.Close()

	n, err := comp.Directory.RebuildIndex(ctx)
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Skill index rebuilt for %d users\n", n)
	return nil
}
