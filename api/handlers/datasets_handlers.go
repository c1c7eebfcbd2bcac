package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"kestrel-idp/core/store"
)

type DatasetsHandler struct {
	datasets store.DatasetsStore
	audits   store.AuditStore
	logger   *zap.Logger
}

func NewDatasetsHandler(datasets store.DatasetsStore, audits store.AuditStore, logger *zap.Logger) *DatasetsHandler {
	return &DatasetsHandler{datasets: datasets, audits: audits, logger: logger}
}

type datasetPayload struct {
	DatasetName string  `json:"dataset_name"`
	Category    string  `json:"category"`
	Source      string  `json:"source"`
	LastUpdated string  `json:"last_updated"`
	RecordCount int64   `json:"record_count"`
	FileSizeMB  float64 `json:"file_size_mb"`
}

// validate applies the form-level rules the repository deliberately skips:
// non-negative numbers and closed category/source sets. The "dataset_"
// name prefix stays a convention, applied by the caller.
func (p *datasetPayload) validate() error {
	if strings.TrimSpace(p.DatasetName) == "" {
		return fmt.Errorf("dataset_name is required")
	}
	if !store.ValidEnum(store.DatasetCategories, p.Category) {
		return fmt.Errorf("unknown category %q", p.Category)
	}
	if !store.ValidEnum(store.DatasetSources, p.Source) {
		return fmt.Errorf("unknown source %q", p.Source)
	}
	if p.RecordCount < 0 {
		return fmt.Errorf("record_count must be non-negative")
	}
	if p.FileSizeMB < 0 {
		return fmt.Errorf("file_size_mb must be non-negative")
	}
	return nil
}

func (h *DatasetsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload datasetPayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	if err := payload.validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ds := &store.Dataset{
		DatasetName: payload.DatasetName,
		Category:    payload.Category,
		Source:      payload.Source,
		LastUpdated: payload.LastUpdated,
		RecordCount: payload.RecordCount,
		FileSizeMB:  payload.FileSizeMB,
	}
	if _, err := h.datasets.Insert(r.Context(), ds); err != nil {
		h.logger.Error("insert dataset", zap.Error(err))
		storageError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ds)
}

func (h *DatasetsHandler) List(w http.ResponseWriter, r *http.Request) {
	datasets, err := h.datasets.ListAll(r.Context())
	if err != nil {
		h.logger.Error("list datasets", zap.Error(err))
		storageError(w, err)
		return
	}
	if datasets == nil {
		datasets = []store.Dataset{}
	}
	writeJSON(w, http.StatusOK, datasets)
}

type lastUpdatedPayload struct {
	LastUpdated string `json:"last_updated"`
}

func (h *DatasetsHandler) UpdateLastUpdated(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	var payload lastUpdatedPayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	if strings.TrimSpace(payload.LastUpdated) == "" {
		http.Error(w, "last_updated is required", http.StatusBadRequest)
		return
	}
	affected, err := h.datasets.UpdateLastUpdated(r.Context(), id, payload.LastUpdated)
	if err != nil {
		h.logger.Error("update dataset", zap.Error(err))
		storageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, affectedResponse{Affected: affected})
}

func (h *DatasetsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	affected, err := h.datasets.Delete(r.Context(), id)
	if err != nil {
		h.logger.Error("delete dataset", zap.Error(err))
		storageError(w, err)
		return
	}
	if sess := sessionFrom(r); sess != nil && affected > 0 {
		h.audits.Log(r.Context(), sess.Username, "datasets.delete", fmt.Sprintf("id=%d", id))
	}
	writeJSON(w, http.StatusOK, affectedResponse{Affected: affected})
}

func (h *DatasetsHandler) StatsBySource(w http.ResponseWriter, r *http.Request) {
	counts, err := h.datasets.CountBySource(r.Context())
	if err != nil {
		storageError(w, err)
		return
	}
	if counts == nil {
		counts = []store.SourceCount{}
	}
	writeJSON(w, http.StatusOK, counts)
}

func (h *DatasetsHandler) StatsConsumption(w http.ResponseWriter, r *http.Request) {
	rows, err := h.datasets.ResourceConsumptionByCategory(r.Context())
	if err != nil {
		storageError(w, err)
		return
	}
	if rows == nil {
		rows = []store.CategoryConsumption{}
	}
	writeJSON(w, http.StatusOK, rows)
}
