// Package bulkload populates the store from administrative import files:
// a users triple file and per-table CSV exports. Loading is best-effort;
// malformed lines are logged and skipped, never aborting the batch.
package bulkload

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"kestrel-idp/config"
	"kestrel-idp/core/store"
)

type Loader struct {
	db        *sql.DB
	incidents store.IncidentsStore
	datasets  store.DatasetsStore
	tickets   store.TicketsStore
	logger    *zap.Logger
}

func NewLoader(db *sql.DB, incidents store.IncidentsStore, datasets store.DatasetsStore, tickets store.TicketsStore, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{db: db, incidents: incidents, datasets: datasets, tickets: tickets, logger: logger}
}

// LoadUsersFile imports username,password_hash,role triples. Existing
// usernames are left untouched (INSERT OR IGNORE); the return value counts
// rows actually inserted.
func (l *Loader) LoadUsersFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			l.logger.Warn("users file not found, nothing migrated", zap.String("path", path))
			return 0, nil
		}
		return 0, fmt.Errorf("open users file: %w", err)
	}
	defer f.Close()

	migrated := 0
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) != 3 {
			l.logger.Warn("skipping malformed users line", zap.Int("line", lineNo), zap.Int("fields", len(parts)))
			continue
		}
		res, err := l.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO users(username, password_hash, role)
			VALUES(?,?,?)`,
			strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2]))
		if err != nil {
			l.logger.Warn("skipping users line", zap.Int("line", lineNo), zap.Error(err))
			continue
		}
		if n, _ := res.RowsAffected(); n > 0 {
			migrated++
		}
	}
	if err := scanner.Err(); err != nil {
		return migrated, fmt.Errorf("read users file: %w", err)
	}
	l.logger.Info("users migrated", zap.Int("count", migrated), zap.String("path", path))
	return migrated, nil
}

// LoadIncidentsCSV appends rows from a CSV export with columns
// date, incident_type, severity, status, description, reported_by.
func (l *Loader) LoadIncidentsCSV(ctx context.Context, path string) (int, error) {
	return l.loadCSV(ctx, path, func(ctx context.Context, row map[string]string) error {
		_, err := l.incidents.Insert(ctx, &store.Incident{
			Date:         row["date"],
			IncidentType: row["incident_type"],
			Severity:     row["severity"],
			Status:       row["status"],
			Description:  row["description"],
			ReportedBy:   row["reported_by"],
		})
		return err
	})
}

// LoadDatasetsCSV appends rows from a CSV export with columns
// dataset_name, category, source, last_updated, record_count, file_size_mb.
func (l *Loader) LoadDatasetsCSV(ctx context.Context, path string) (int, error) {
	return l.loadCSV(ctx, path, func(ctx context.Context, row map[string]string) error {
		count, err := strconv.ParseInt(strings.TrimSpace(row["record_count"]), 10, 64)
		if err != nil {
			return fmt.Errorf("record_count: %w", err)
		}
		size, err := strconv.ParseFloat(strings.TrimSpace(row["file_size_mb"]), 64)
		if err != nil {
			return fmt.Errorf("file_size_mb: %w", err)
		}
		_, err = l.datasets.Insert(ctx, &store.Dataset{
			DatasetName: row["dataset_name"],
			Category:    row["category"],
			Source:      row["source"],
			LastUpdated: row["last_updated"],
			RecordCount: count,
			FileSizeMB:  size,
		})
		return err
	})
}

// LoadTicketsCSV appends rows from a CSV export with columns
// ticket_id, status, category, subject, description, created_date,
// resolved_date, assigned_to. Empty resolved_date/assigned_to become NULL.
func (l *Loader) LoadTicketsCSV(ctx context.Context, path string) (int, error) {
	return l.loadCSV(ctx, path, func(ctx context.Context, row map[string]string) error {
		t := &store.Ticket{
			TicketID:    row["ticket_id"],
			Status:      row["status"],
			Category:    row["category"],
			Subject:     row["subject"],
			Description: row["description"],
			CreatedDate: row["created_date"],
		}
		if v := strings.TrimSpace(row["resolved_date"]); v != "" {
			t.ResolvedDate = &v
		}
		if v := strings.TrimSpace(row["assigned_to"]); v != "" {
			t.AssignedTo = &v
		}
		_, err := l.tickets.Insert(ctx, t)
		return err
	})
}

// LoadAll runs the users file plus the three CSV loads and sums the counts.
// Missing files load zero rows without failing the batch.
func (l *Loader) LoadAll(ctx context.Context, cfg config.BootstrapConfig) (int, error) {
	total := 0
	n, err := l.LoadUsersFile(ctx, filepath.Join(cfg.DataDir, cfg.UsersFile))
	if err != nil {
		return total, err
	}
	total += n

	loads := []struct {
		file string
		fn   func(context.Context, string) (int, error)
	}{
		{cfg.IncidentsCSV, l.LoadIncidentsCSV},
		{cfg.DatasetsCSV, l.LoadDatasetsCSV},
		{cfg.TicketsCSV, l.LoadTicketsCSV},
	}
	for _, ld := range loads {
		n, err := ld.fn(ctx, filepath.Join(cfg.DataDir, ld.file))
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (l *Loader) loadCSV(ctx context.Context, path string, insert func(context.Context, map[string]string) error) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			l.logger.Warn("csv not found, nothing loaded", zap.String("path", path))
			return 0, nil
		}
		return 0, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("read csv header %s: %w", path, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.ToLower(header[i]))
	}

	loaded := 0
	rowNo := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		rowNo++
		if err != nil {
			l.logger.Warn("skipping unreadable csv row", zap.String("path", path), zap.Int("row", rowNo), zap.Error(err))
			continue
		}
		row := map[string]string{}
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		if err := insert(ctx, row); err != nil {
			l.logger.Warn("skipping csv row", zap.String("path", path), zap.Int("row", rowNo), zap.Error(err))
			continue
		}
		loaded++
	}
	l.logger.Info("csv loaded", zap.String("path", path), zap.Int("rows", loaded))
	return loaded, nil
}
