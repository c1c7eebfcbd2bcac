package store

import (
	"context"
	"database/sql"
	"time"
)

// Ticket mirrors one row of it_tickets. TicketID is the external "TCK-..."
// key used by update and delete; the prefix is applied by the caller and is
// intended unique but not constrained at this level.
type Ticket struct {
	ID           int64     `json:"id"`
	TicketID     string    `json:"ticket_id"`
	Status       string    `json:"status"`
	Category     string    `json:"category"`
	Subject      string    `json:"subject"`
	Description  string    `json:"description"`
	CreatedDate  string    `json:"created_date"`
	ResolvedDate *string   `json:"resolved_date,omitempty"`
	AssignedTo   *string   `json:"assigned_to,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type StaffTicketCount struct {
	AssignedTo      string `json:"assigned_to"`
	TotalTickets    int64  `json:"total_tickets"`
	ResolvedTickets int64  `json:"resolved_tickets"`
}

type TicketKPIs struct {
	Total      int64 `json:"total"`
	Open       int64 `json:"open"`
	Unresolved int64 `json:"unresolved"`
}

type TicketsStore interface {
	Insert(ctx context.Context, t *Ticket) (int64, error)
	ListAll(ctx context.Context) ([]Ticket, error)
	UpdateStatus(ctx context.Context, ticketID, status string) (int64, error)
	Delete(ctx context.Context, ticketID string) (int64, error)
	ResolvedByStaff(ctx context.Context) ([]StaffTicketCount, error)
	KPIs(ctx context.Context) (*TicketKPIs, error)
}

type ticketsStore struct {
	db *sql.DB
}

func NewTicketsStore(db *sql.DB) TicketsStore {
	return &ticketsStore{db: db}
}

func (s *ticketsStore) Insert(ctx context.Context, t *Ticket) (int64, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO it_tickets(ticket_id, status, category, subject, description, created_date, resolved_date, assigned_to, created_at)
		VALUES(?,?,?,?,?,?,?,?,?)`,
		t.TicketID, t.Status, t.Category, t.Subject, t.Description, t.CreatedDate, nullableString(t.ResolvedDate), nullableString(t.AssignedTo), now)
	if err != nil {
		return 0, storageErr("insert ticket", err)
	}
	id, _ := res.LastInsertId()
	t.ID = id
	t.CreatedAt = now
	return id, nil
}

func (s *ticketsStore) ListAll(ctx context.Context) ([]Ticket, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ticket_id, status, category, subject, description, created_date, resolved_date, assigned_to, created_at
		FROM it_tickets ORDER BY ticket_id DESC`)
	if err != nil {
		return nil, storageErr("list tickets", err)
	}
	defer rows.Close()
	var res []Ticket
	for rows.Next() {
		var t Ticket
		var resolved, assigned sql.NullString
		if err := rows.Scan(&t.ID, &t.TicketID, &t.Status, &t.Category, &t.Subject, &t.Description, &t.CreatedDate, &resolved, &assigned, &t.CreatedAt); err != nil {
			return nil, storageErr("scan ticket", err)
		}
		if resolved.Valid {
			t.ResolvedDate = &resolved.String
		}
		if assigned.Valid {
			t.AssignedTo = &assigned.String
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func (s *ticketsStore) UpdateStatus(ctx context.Context, ticketID, status string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE it_tickets SET status=? WHERE ticket_id=?`, status, ticketID)
	if err != nil {
		return 0, storageErr("update ticket status", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

func (s *ticketsStore) Delete(ctx context.Context, ticketID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM it_tickets WHERE ticket_id=?`, ticketID)
	if err != nil {
		return 0, storageErr("delete ticket", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

func (s *ticketsStore) ResolvedByStaff(ctx context.Context) ([]StaffTicketCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			assigned_to,
			COUNT(*) AS total_tickets,
			SUM(CASE WHEN status='resolved' OR status='closed' THEN 1 ELSE 0 END) AS resolved_tickets
		FROM it_tickets
		WHERE assigned_to IS NOT NULL
		GROUP BY assigned_to
		ORDER BY resolved_tickets DESC`)
	if err != nil {
		return nil, storageErr("tickets resolved by staff", err)
	}
	defer rows.Close()
	var res []StaffTicketCount
	for rows.Next() {
		var sc StaffTicketCount
		if err := rows.Scan(&sc.AssignedTo, &sc.TotalTickets, &sc.ResolvedTickets); err != nil {
			return nil, storageErr("scan staff ticket count", err)
		}
		res = append(res, sc)
	}
	return res, rows.Err()
}

func (s *ticketsStore) KPIs(ctx context.Context) (*TicketKPIs, error) {
	var k TicketKPIs
	counts := []struct {
		query string
		dest  *int64
	}{
		{`SELECT COUNT(*) FROM it_tickets`, &k.Total},
		{`SELECT COUNT(*) FROM it_tickets WHERE status='open'`, &k.Open},
		{`SELECT COUNT(*) FROM it_tickets WHERE resolved_date IS NULL`, &k.Unresolved},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, storageErr("ticket kpis", err)
		}
	}
	return &k, nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
