package store

import (
	"context"
	"database/sql"
)

// Incident mirrors one row of cyber_incidents. Date is an opaque string and
// is stored exactly as the caller supplied it.
type Incident struct {
	ID           int64  `json:"id"`
	Date         string `json:"date"`
	IncidentType string `json:"incident_type"`
	Severity     string `json:"severity"`
	Status       string `json:"status"`
	Description  string `json:"description"`
	ReportedBy   string `json:"reported_by"`
}

type TypeCount struct {
	IncidentType string `json:"incident_type"`
	Count        int64  `json:"count"`
}

type DateCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// IncidentMetrics are the headline numbers shown on the incidents dashboard.
type IncidentMetrics struct {
	Total    int64 `json:"total"`
	Open     int64 `json:"open"`
	Critical int64 `json:"critical"`
	Phishing int64 `json:"phishing"`
}

type IncidentsStore interface {
	Insert(ctx context.Context, incident *Incident) (int64, error)
	ListAll(ctx context.Context) ([]Incident, error)
	// UpdateStatus and Delete return the affected-row count; zero means the
	// id was not found and is not an error.
	UpdateStatus(ctx context.Context, id int64, status string) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
	CountByType(ctx context.Context) ([]TypeCount, error)
	Metrics(ctx context.Context) (*IncidentMetrics, error)
	DailyPhishingCounts(ctx context.Context) ([]DateCount, error)
}

type incidentsStore struct {
	db *sql.DB
}

func NewIncidentsStore(db *sql.DB) IncidentsStore {
	return &incidentsStore{db: db}
}

func (s *incidentsStore) Insert(ctx context.Context, incident *Incident) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO cyber_incidents(date, incident_type, severity, status, description, reported_by)
		VALUES(?,?,?,?,?,?)`,
		incident.Date, incident.IncidentType, incident.Severity, incident.Status, incident.Description, incident.ReportedBy)
	if err != nil {
		return 0, storageErr("insert incident", err)
	}
	id, _ := res.LastInsertId()
	incident.ID = id
	return id, nil
}

func (s *incidentsStore) ListAll(ctx context.Context) ([]Incident, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, incident_type, severity, status, description, reported_by
		FROM cyber_incidents ORDER BY id DESC`)
	if err != nil {
		return nil, storageErr("list incidents", err)
	}
	defer rows.Close()
	var res []Incident
	for rows.Next() {
		var inc Incident
		if err := rows.Scan(&inc.ID, &inc.Date, &inc.IncidentType, &inc.Severity, &inc.Status, &inc.Description, &inc.ReportedBy); err != nil {
			return nil, storageErr("scan incident", err)
		}
		res = append(res, inc)
	}
	return res, rows.Err()
}

func (s *incidentsStore) UpdateStatus(ctx context.Context, id int64, status string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE cyber_incidents SET status=? WHERE id=?`, status, id)
	if err != nil {
		return 0, storageErr("update incident status", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

func (s *incidentsStore) Delete(ctx context.Context, id int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cyber_incidents WHERE id=?`, id)
	if err != nil {
		return 0, storageErr("delete incident", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

func (s *incidentsStore) CountByType(ctx context.Context) ([]TypeCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT incident_type, COUNT(*) AS count
		FROM cyber_incidents
		GROUP BY incident_type
		ORDER BY count DESC`)
	if err != nil {
		return nil, storageErr("count incidents by type", err)
	}
	defer rows.Close()
	var res []TypeCount
	for rows.Next() {
		var tc TypeCount
		if err := rows.Scan(&tc.IncidentType, &tc.Count); err != nil {
			return nil, storageErr("scan type count", err)
		}
		res = append(res, tc)
	}
	return res, rows.Err()
}

func (s *incidentsStore) Metrics(ctx context.Context) (*IncidentMetrics, error) {
	var m IncidentMetrics
	counts := []struct {
		query string
		dest  *int64
	}{
		{`SELECT COUNT(*) FROM cyber_incidents`, &m.Total},
		{`SELECT COUNT(*) FROM cyber_incidents WHERE status='open'`, &m.Open},
		{`SELECT COUNT(*) FROM cyber_incidents WHERE severity='critical'`, &m.Critical},
		{`SELECT COUNT(*) FROM cyber_incidents WHERE incident_type='phishing'`, &m.Phishing},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, storageErr("incident metrics", err)
		}
	}
	return &m, nil
}

func (s *incidentsStore) DailyPhishingCounts(ctx context.Context) ([]DateCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, COUNT(*) AS count
		FROM cyber_incidents
		WHERE incident_type='phishing'
		GROUP BY date
		ORDER BY date ASC`)
	if err != nil {
		return nil, storageErr("daily phishing counts", err)
	}
	defer rows.Close()
	var res []DateCount
	for rows.Next() {
		var dc DateCount
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, storageErr("scan date count", err)
		}
		res = append(res, dc)
	}
	return res, rows.Err()
}
