package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"skillswap/internal/api/router"
	"skillswap/internal/config"
	"skillswap/pkg/logger"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	adminActor    string
	adminLogLimit int
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Operator commands against the configured store",
	Long: `Operator commands against the configured store.
Every successful command is written to the admin audit log under --actor.`,
}

var adminRateCmd = &cobra.Command{
	Use:          "rate <user-id> <rating>",
	Short:        "Set a user's rating (0 to 5)",
	Args:         cobra.ExactArgs(2),
	SilenceUsage: true,
	RunE:         runAdminRate,
}

var adminReactivateCmd = &cobra.Command{
	Use:          "reactivate <user-id>",
	Short:        "Reactivate a deactivated user and put them back in the skill index",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runAdminReactivate,
}

var adminClearIdempotencyCmd = &cobra.Command{
	Use:          "clear-idempotency",
	Short:        "Delete every stored idempotency outcome from Redis",
	SilenceUsage: true,
	RunE:         runAdminClearIdempotency,
}

var adminLogsCmd = &cobra.Command{
	Use:          "logs",
	Short:        "Show the most recent admin audit log entries",
	SilenceUsage: true,
	RunE:         runAdminLogs,
}

// newAdminComponents is swapped out by tests.
var newAdminComponents = func(ctx context.Context) (*router.Components, error) {
	cfg := config.Get()
	if cfg.Store.Driver != router.DriverPostgres {
		logger.Warn("store.driver is %q; changes will not outlive this command", cfg.Store.Driver)
	}
	comp, err := router.NewComponents(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize components: %w", err)
	}
	return comp, nil
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminRateCmd)
	adminCmd.AddCommand(adminReactivateCmd)
	adminCmd.AddCommand(adminClearIdempotencyCmd)
	adminCmd.AddCommand(adminLogsCmd)

	adminCmd.PersistentFlags().StringVar(&adminActor, "actor", defaultActor(), "operator name recorded in the audit log")
	adminLogsCmd.Flags().IntVar(&adminLogLimit, "limit", 20, "number of entries to show")
}

func defaultActor() string {
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "operator"
}

// withAdminComponents builds the components, runs fn and always closes them before returning.
func withAdminComponents(fn func(ctx context.Context, comp *router.Components) error) error {
	ctx := context.Background()
	comp, err := newAdminComponents(ctx)
	if err != nil {
		return err
	}
	defer comp.Close()
	return fn(ctx, comp)
}

func runAdminRate(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", args[0], err)
	}
	rating, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid rating %q: %w", args[1], err)
	}

	return withAdminComponents(func(ctx context.Context, comp *router.Components) error {
		u, err := comp.Admin.SetRating(ctx, adminActor, id, rating)
		if err != nil {
			return fmt.Errorf("failed to set rating: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "User %s rating set to %.2f\n", u.ID, u.Rating)
		return nil
	})
}

func runAdminReactivate(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", args[0], err)
	}

	return withAdminComponents(func(ctx context.Context, comp *router.Components) error {
		u, err := comp.Admin.Reactivate(ctx, adminActor, id)
		if err != nil {
			return fmt.Errorf("failed to reactivate user: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "User %s reactivated\n", u.ID)
		return nil
	})
}

func runAdminClearIdempotency(cmd *cobra.Command, args []string) error {
	return withAdminComponents(func(ctx context.Context, comp *router.Components) error {
		n, err := comp.Admin.ClearIdempotency(ctx, adminActor)
		if err != nil {
			return fmt.Errorf("failed to clear idempotency keys: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d idempotency keys\n", n)
		return nil
	})
}

func runAdminLogs(cmd *cobra.Command, args []string) error {
	return withAdminComponents(func(ctx context.Context, comp *router.Components) error {
		entries, err := comp.Admin.RecentLogs(ctx, adminLogLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, e := range entries {
			target := "-"
			if e.TargetUserID != nil {
				target = e.TargetUserID.String()
			}
			fmt.Fprintf(out, "%s  %-12s %-18s %-36s %s\n",
				e.CreatedAt.Format("2006-01-02 15:04:05"), e.Actor, e.Action, target, e.Details)
		}
		return nil
	})
}
