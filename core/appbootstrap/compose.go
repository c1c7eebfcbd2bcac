// Package appbootstrap wires stores, services and the HTTP surface together.
package appbootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"kestrel-idp/api"
	"kestrel-idp/config"
	"kestrel-idp/core/auth"
	"kestrel-idp/core/bulkload"
	"kestrel-idp/core/maintenance"
	"kestrel-idp/core/rbac"
	"kestrel-idp/core/store"
)

// BackgroundWorker is anything started alongside the HTTP server and
// stopped on shutdown.
type BackgroundWorker interface {
	StartWithContext(ctx context.Context)
	StopWithContext(ctx context.Context) error
}

type Runtime struct {
	Server  *api.Server
	Loader  *bulkload.Loader
	Workers []BackgroundWorker
}

// ComposeRuntime builds the full dependency graph over an open database
// handle. The caller owns db and closes it after shutdown.
func ComposeRuntime(cfg *config.AppConfig, db *sql.DB, logger *zap.Logger) (*Runtime, error) {
	users := store.NewUsersStore(db)
	sessions := store.NewSessionsStore(db)
	incidents := store.NewIncidentsStore(db)
	datasets := store.NewDatasetsStore(db)
	tickets := store.NewTicketsStore(db)
	audits := store.NewAuditStore(db)

	policy, err := rbac.NewPolicy()
	if err != nil {
		return nil, fmt.Errorf("build rbac policy: %w", err)
	}
	authSvc := auth.NewService(users, logger)
	sessionManager := auth.NewSessionManager(sessions, cfg)
	loader := bulkload.NewLoader(db, incidents, datasets, tickets, logger)
	sweeper := maintenance.NewSweeper(cfg.Maintenance, db, audits, sessions, logger)

	server := api.NewServer(api.ServerDeps{
		Cfg:            cfg,
		Users:          users,
		Sessions:       sessions,
		Incidents:      incidents,
		Datasets:       datasets,
		Tickets:        tickets,
		Audits:         audits,
		AuthService:    authSvc,
		SessionManager: sessionManager,
		Policy:         policy,
		Logger:         logger,
	})

	return &Runtime{
		Server:  server,
		Loader:  loader,
		Workers: []BackgroundWorker{sweeper},
	}, nil
}
