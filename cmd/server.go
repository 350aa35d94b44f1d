package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skillswap/internal/api/router"
	"skillswap/internal/config"
	"skillswap/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	port string
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server with the configured routes and middleware.
Storage, skill index and idempotency backends are chosen by the store, index and
idempotency config sections.`,
	Run: func(cmd *cobra.Command, args []string) {
		startServer()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringVarP(&port, "port", "p", "", "Port for the server to listen on (overrides server.port)")
}

func startServer() {
	cfg := config.Get()

	if port != "" {
		cfg.Server.Port = port
	}

	ctx := context.Background()
	comp, err := router.NewComponents(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize components: %v", err)
	}
	defer comp.Close()

	if shouldRebuildIndex(cfg) {
		n, err := comp.Directory.RebuildIndex(ctx)
		if err != nil {
			logger.Fatal("Failed to rebuild skill index: %v", err)
		}
		logger.Info("Skill index rebuilt for %d users", n)
	}

	r := router.NewRouter(cfg, comp)

	srv := &http.Server{
		Addr:           cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:        r,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		logger.Info("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	timeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// shouldRebuildIndex is true when asked to, or when a durable store sits behind a process-local index.
func shouldRebuildIndex(cfg *config.Config) bool {
	if cfg.Index.RebuildOnStart {
		return true
	}
	return cfg.Store.Driver == router.DriverPostgres && cfg.Index.Driver != router.DriverRedis
}
