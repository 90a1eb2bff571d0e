package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/villabioinfo/BLASTr/internal/config"
	"github.com/villabioinfo/BLASTr/internal/db"
	dbRedis "github.com/villabioinfo/BLASTr/internal/db/redis"
	"github.com/villabioinfo/BLASTr/internal/domain/search/params"
	"github.com/villabioinfo/BLASTr/internal/domain/search/variant"
	logpkg "github.com/villabioinfo/BLASTr/internal/logger"
	"github.com/villabioinfo/BLASTr/internal/metrics"
	"github.com/villabioinfo/BLASTr/internal/process"
	"github.com/villabioinfo/BLASTr/internal/repository/searchcache"
	"github.com/villabioinfo/BLASTr/internal/transport/blast"
	chiTransport "github.com/villabioinfo/BLASTr/internal/transport/chi"
	"github.com/villabioinfo/BLASTr/internal/transport/conda"
	"github.com/villabioinfo/BLASTr/internal/transport/entrez"
	batchuc "github.com/villabioinfo/BLASTr/internal/usecase/batch"
	envuc "github.com/villabioinfo/BLASTr/internal/usecase/env"
	fetchuc "github.com/villabioinfo/BLASTr/internal/usecase/fetch"
	healthuc "github.com/villabioinfo/BLASTr/internal/usecase/health"
	searchuc "github.com/villabioinfo/BLASTr/internal/usecase/search"
	"github.com/villabioinfo/BLASTr/internal/version"
)

func newServeCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), o.env, o.cfg, o.logger)
		},
	}
}

func serve(ctx context.Context, env string, cfg config.Config, logger *zap.Logger) error {
	logger.Info("Starting blastr API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("conda", cfg.Tools.CondaBinary),
		zap.String("cache_driver", cfg.Cache.Driver),
		zap.Strings("cache_addrs", cfg.Cache.Addrs),
	)

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	var store db.Store
	if cfg.Cache.Enabled() {
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			return fmt.Errorf("create cache store: %w", err)
		}
		defer s.Close()
		if err := s.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			return fmt.Errorf("cache not ready: %w", err)
		}
		store = s
		logger.Info("Connected to cache")
	}

	pm := conda.NewClient(&conda.Config{
		Binary:   cfg.Tools.CondaBinary,
		Channels: cfg.Tools.Channels,
		Runner:   process.NewExec(logger),
		Logger:   logger,
	})
	if err := pm.Available(); err != nil {
		logger.Warn("Package manager not found, searches will fail until it is installed", zap.Error(err))
	}

	// Aligner chain: BLAST -> Cached
	var aligner searchuc.Aligner = blast.NewAligner(&blast.Config{
		Runner:  pm,
		TempDir: cfg.Tools.TempDir,
		Logger:  logger,
	})
	// Pass nil interface (not typed nil pointer!) if the cache is not configured.
	var pinger healthuc.CachePinger
	if store != nil {
		aligner = searchcache.New(aligner, store, cfg.Cache.TTL(), metrics.SearchCacheTotal, logger)
		pinger = store
	}

	gate := envuc.New(pm)
	searcher := searchuc.NewInstrumentedSearcher(searchuc.New(aligner))
	batchSvc := batchuc.New(gate, batchuc.DatabaseCheckFunc(blast.CheckDatabase), searcher)
	fetcher := entrez.NewClient(&entrez.Config{
		Runner:  pm,
		EnvName: cfg.Tools.EntrezEnv,
		TempDir: cfg.Tools.TempDir,
		Logger:  logger,
	})
	fetchSvc := fetchuc.New(gate, fetcher, fetcher.EnvName())
	healthSvc := healthuc.New(pm, pinger)

	server := chiTransport.NewServer(batchSvc, gate, fetchSvc, healthSvc, chiTransport.Config{
		Search:     searchDefaults(cfg),
		Workers:    cfg.Search.Workers,
		MaxWorkers: max(cfg.Search.Workers, runtime.NumCPU()),
		EntrezEnv:  cfg.Tools.EntrezEnv,
	}, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Mount(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}

// searchDefaults turns the search section into request defaults.
func searchDefaults(cfg config.Config) params.Input {
	in := params.Defaults()
	in.Database = cfg.Search.Database
	in.PercentIdentity = *cfg.Search.PercentIdentity
	in.QueryCoverage = *cfg.Search.QueryCoverage
	in.MaxAlignments = cfg.Search.MaxAlignments
	in.Threads = cfg.Search.Threads
	in.Variant = variant.Default
	in.Columns = cfg.Search.Columns
	in.EnvName = cfg.Tools.BlastEnv
	in.Timeout = cfg.Search.Timeout()
	return in
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger; the batch service adds batch_id on top.
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
