package store

import (
	"context"
	"database/sql"
	"time"
)

// Dataset mirrors one row of datasets_metadata. The "dataset_" name prefix
// is a caller convention and is not enforced here.
type Dataset struct {
	ID          int64     `json:"id"`
	DatasetName string    `json:"dataset_name"`
	Category    string    `json:"category"`
	Source      string    `json:"source"`
	LastUpdated string    `json:"last_updated"`
	RecordCount int64     `json:"record_count"`
	FileSizeMB  float64   `json:"file_size_mb"`
	CreatedAt   time.Time `json:"created_at"`
}

type CategoryConsumption struct {
	Category     string  `json:"category"`
	DatasetCount int64   `json:"dataset_count"`
	TotalRecords int64   `json:"total_records"`
	TotalSizeMB  float64 `json:"total_size_mb"`
}

type SourceCount struct {
	Source string `json:"source"`
	Count  int64  `json:"count"`
}

type DatasetsStore interface {
	Insert(ctx context.Context, ds *Dataset) (int64, error)
	ListAll(ctx context.Context) ([]Dataset, error)
	UpdateLastUpdated(ctx context.Context, id int64, lastUpdated string) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
	ResourceConsumptionByCategory(ctx context.Context) ([]CategoryConsumption, error)
	CountBySource(ctx context.Context) ([]SourceCount, error)
}

type datasetsStore struct {
	db *sql.DB
}

func NewDatasetsStore(db *sql.DB) DatasetsStore {
	return &datasetsStore{db: db}
}

func (s *datasetsStore) Insert(ctx context.Context, ds *Dataset) (int64, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO datasets_metadata(dataset_name, category, source, last_updated, record_count, file_size_mb, created_at)
		VALUES(?,?,?,?,?,?,?)`,
		ds.DatasetName, ds.Category, ds.Source, ds.LastUpdated, ds.RecordCount, ds.FileSizeMB, now)
	if err != nil {
		return 0, storageErr("insert dataset", err)
	}
	id, _ := res.LastInsertId()
	ds.ID = id
	ds.CreatedAt = now
	return id, nil
}

func (s *datasetsStore) ListAll(ctx context.Context) ([]Dataset, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, dataset_name, category, source, last_updated, record_count, file_size_mb, created_at
		FROM datasets_metadata ORDER BY id DESC`)
	if err != nil {
		return nil, storageErr("list datasets", err)
	}
	defer rows.Close()
	var res []Dataset
	for rows.Next() {
		var ds Dataset
		if err := rows.Scan(&ds.ID, &ds.DatasetName, &ds.Category, &ds.Source, &ds.LastUpdated, &ds.RecordCount, &ds.FileSizeMB, &ds.CreatedAt); err != nil {
			return nil, storageErr("scan dataset", err)
		}
		res = append(res, ds)
	}
	return res, rows.Err()
}

func (s *datasetsStore) UpdateLastUpdated(ctx context.Context, id int64, lastUpdated string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE datasets_metadata SET last_updated=? WHERE id=?`, lastUpdated, id)
	if err != nil {
		return 0, storageErr("update dataset last_updated", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

func (s *datasetsStore) Delete(ctx context.Context, id int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM datasets_metadata WHERE id=?`, id)
	if err != nil {
		return 0, storageErr("delete dataset", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

func (s *datasetsStore) ResourceConsumptionByCategory(ctx context.Context) ([]CategoryConsumption, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			category,
			COUNT(*) AS dataset_count,
			SUM(record_count) AS total_records,
			ROUND(SUM(file_size_mb), 2) AS total_size_mb
		FROM datasets_metadata
		GROUP BY category
		ORDER BY total_size_mb DESC`)
	if err != nil {
		return nil, storageErr("resource consumption by category", err)
	}
	defer rows.Close()
	var res []CategoryConsumption
	for rows.Next() {
		var cc CategoryConsumption
		if err := rows.Scan(&cc.Category, &cc.DatasetCount, &cc.TotalRecords, &cc.TotalSizeMB); err != nil {
			return nil, storageErr("scan category consumption", err)
		}
		res = append(res, cc)
	}
	return res, rows.Err()
}

func (s *datasetsStore) CountBySource(ctx context.Context) ([]SourceCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source, COUNT(*) AS count
		FROM datasets_metadata
		GROUP BY source
		ORDER BY count DESC`)
	if err != nil {
		return nil, storageErr("count datasets by source", err)
	}
	defer rows.Close()
	var res []SourceCount
	for rows.Next() {
		var sc SourceCount
		if err := rows.Scan(&sc.Source, &sc.Count); err != nil {
			return nil, storageErr("scan source count", err)
		}
		res = append(res, sc)
	}
	return res, rows.Err()
}
