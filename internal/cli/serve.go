package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/hwseclab/regscan/internal/api"
	"github.com/hwseclab/regscan/pkg/cache"
	"github.com/hwseclab/regscan/pkg/pipeline"
	"github.com/hwseclab/regscan/pkg/report"
)

// newServeCmd creates the serve command.
func newServeCmd() *cobra.Command {
	var (
		addr      string
		redisAddr string
		mongoURI  string
		mongoDB   string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose the scan pipeline over HTTP",
		Long: `Expose the scan pipeline over HTTP.

Scans submitted via POST /api/v1/scan run through the same pipeline as
the CLI and are stored as runs, retrievable via GET /api/v1/runs.

By default results are cached on the local filesystem and runs are held
in memory. Point --redis at a Redis instance to share the cache between
server instances, and --mongo at a MongoDB instance to persist runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			var c cache.Cache
			if redisAddr != "" {
				rc, err := cache.NewRedisCache(ctx, redisAddr)
				if err != nil {
					return err
				}
				c = rc
			} else {
				c = newCache(noCache)
			}
			runner := pipeline.NewRunner(c, logger)
			defer runner.Close()

			var store report.Store = report.NewMemoryStore()
			if mongoURI != "" {
				ms, err := report.NewMongoStore(ctx, mongoURI, mongoDB)
				if err != nil {
					return err
				}
				store = ms
			}
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = store.Close(closeCtx)
			}()

			httpServer := &http.Server{
				Addr:              addr,
				Handler:           api.NewServer(runner, store, logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- httpServer.ListenAndServe()
			}()
			logger.Info("listening", "addr", addr)

			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return httpServer.Shutdown(shutdownCtx)
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&redisAddr, "redis", "", "redis address for a shared result cache")
	cmd.Flags().StringVar(&mongoURI, "mongo", "", "mongodb URI for persistent run storage")
	cmd.Flags().StringVar(&mongoDB, "mongo-db", "regscan", "mongodb database name")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}
