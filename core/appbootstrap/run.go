package appbootstrap

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"kestrel-idp/config"
	"kestrel-idp/core/store"
)

const shutdownTimeout = 10 * time.Second

// Run is the whole server lifecycle: open the store, apply the schema,
// optionally bulk-load bootstrap data, serve until SIGINT/SIGTERM, then
// drain. Blocks until shutdown completes.
func Run(cfg *config.AppConfig, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.NewDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db); err != nil {
		return err
	}

	rt, err := ComposeRuntime(cfg, db, logger)
	if err != nil {
		return err
	}

	if cfg.Bootstrap.Enabled {
		n, err := rt.Loader.LoadAll(ctx, cfg.Bootstrap)
		if err != nil {
			logger.Error("bootstrap load failed", zap.Error(err))
		} else {
			logger.Info("bootstrap data loaded", zap.Int("rows", n))
		}
	}

	for _, w := range rt.Workers {
		w.StartWithContext(ctx)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           rt.Server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.ListenAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	for _, w := range rt.Workers {
		if err := w.StopWithContext(shutdownCtx); err != nil {
			logger.Error("worker shutdown", zap.Error(err))
		}
	}
	return nil
}
