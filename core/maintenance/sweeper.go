// Package maintenance runs the scheduled housekeeping jobs: a nightly table
// count snapshot written to the audit log, plus audit-log and session
// retention sweeps.
package maintenance

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"kestrel-idp/config"
	"kestrel-idp/core/store"
)

var snapshotTables = []string{"users", "cyber_incidents", "datasets_metadata", "it_tickets"}

type Sweeper struct {
	cfg      config.MaintenanceConfig
	db       *sql.DB
	audits   store.AuditStore
	sessions store.SessionStore
	logger   *zap.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

func NewSweeper(cfg config.MaintenanceConfig, db *sql.DB, audits store.AuditStore, sessions store.SessionStore, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{cfg: cfg, db: db, audits: audits, sessions: sessions, logger: logger}
}

func (s *Sweeper) StartWithContext(ctx context.Context) {
	if s == nil || !s.cfg.Enabled {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return
	}
	c := cron.New()
	schedule := s.cfg.SnapshotSchedule
	if schedule == "" {
		schedule = "0 3 * * *"
	}
	if _, err := c.AddFunc(schedule, func() { s.RunOnce(ctx) }); err != nil {
		s.logger.Error("invalid maintenance schedule", zap.String("schedule", schedule), zap.Error(err))
		return
	}
	c.Start()
	s.cron = c
}

func (s *Sweeper) StopWithContext(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return nil
	}
	stopped := c.Stop()
	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce performs one maintenance pass. It is also called directly by
// tests and by the startup path when a snapshot is wanted immediately.
func (s *Sweeper) RunOnce(ctx context.Context) {
	now := time.Now().UTC()
	s.snapshotCounts(ctx)
	if days := s.cfg.AuditRetentionDay; days > 0 {
		cutoff := now.AddDate(0, 0, -days)
		if n, err := s.audits.DeleteOlderThan(ctx, cutoff); err != nil {
			s.logger.Error("audit retention sweep failed", zap.Error(err))
		} else if n > 0 {
			s.logger.Info("audit entries pruned", zap.Int64("count", n))
		}
	}
	if n, err := s.sessions.DeleteExpired(ctx, now); err != nil {
		s.logger.Error("session sweep failed", zap.Error(err))
	} else if n > 0 {
		s.logger.Info("expired sessions removed", zap.Int64("count", n))
	}
}

func (s *Sweeper) snapshotCounts(ctx context.Context) {
	details := ""
	for _, table := range snapshotTables {
		var count int64
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&count); err != nil {
			s.logger.Error("snapshot count failed", zap.String("table", table), zap.Error(err))
			return
		}
		if details != "" {
			details += " "
		}
		details += fmt.Sprintf("%s=%d", table, count)
	}
	s.audits.Log(ctx, "system", "maintenance.snapshot", details)
}
