package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"kestrel-idp/core/store"
)

type IncidentsHandler struct {
	incidents store.IncidentsStore
	audits    store.AuditStore
	logger    *zap.Logger
}

func NewIncidentsHandler(incidents store.IncidentsStore, audits store.AuditStore, logger *zap.Logger) *IncidentsHandler {
	return &IncidentsHandler{incidents: incidents, audits: audits, logger: logger}
}

type incidentPayload struct {
	Date         string `json:"date"`
	IncidentType string `json:"incident_type"`
	Severity     string `json:"severity"`
	Status       string `json:"status"`
	Description  string `json:"description"`
	ReportedBy   string `json:"reported_by"`
}

func (p *incidentPayload) validate() error {
	if strings.TrimSpace(p.Date) == "" {
		return fmt.Errorf("date is required")
	}
	if !store.ValidEnum(store.IncidentTypes, p.IncidentType) {
		return fmt.Errorf("unknown incident_type %q", p.IncidentType)
	}
	if !store.ValidEnum(store.IncidentSeverities, p.Severity) {
		return fmt.Errorf("unknown severity %q", p.Severity)
	}
	if !store.ValidEnum(store.IncidentStatuses, p.Status) {
		return fmt.Errorf("unknown status %q", p.Status)
	}
	return nil
}

func (h *IncidentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload incidentPayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	if err := payload.validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	incident := &store.Incident{
		Date:         payload.Date,
		IncidentType: payload.IncidentType,
		Severity:     payload.Severity,
		Status:       payload.Status,
		Description:  payload.Description,
		ReportedBy:   payload.ReportedBy,
	}
	if _, err := h.incidents.Insert(r.Context(), incident); err != nil {
		h.logger.Error("insert incident", zap.Error(err))
		storageError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, incident)
}

func (h *IncidentsHandler) List(w http.ResponseWriter, r *http.Request) {
	incidents, err := h.incidents.ListAll(r.Context())
	if err != nil {
		h.logger.Error("list incidents", zap.Error(err))
		storageError(w, err)
		return
	}
	if incidents == nil {
		incidents = []store.Incident{}
	}
	writeJSON(w, http.StatusOK, incidents)
}

type statusPayload struct {
	Status string `json:"status"`
}

func (h *IncidentsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	var payload statusPayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	if !store.ValidEnum(store.IncidentStatuses, payload.Status) {
		http.Error(w, fmt.Sprintf("unknown status %q", payload.Status), http.StatusBadRequest)
		return
	}
	affected, err := h.incidents.UpdateStatus(r.Context(), id, payload.Status)
	if err != nil {
		h.logger.Error("update incident status", zap.Error(err))
		storageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, affectedResponse{Affected: affected})
}

func (h *IncidentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	affected, err := h.incidents.Delete(r.Context(), id)
	if err != nil {
		h.logger.Error("delete incident", zap.Error(err))
		storageError(w, err)
		return
	}
	if sess := sessionFrom(r); sess != nil && affected > 0 {
		h.audits.Log(r.Context(), sess.Username, "incidents.delete", fmt.Sprintf("id=%d", id))
	}
	writeJSON(w, http.StatusOK, affectedResponse{Affected: affected})
}

func (h *IncidentsHandler) StatsByType(w http.ResponseWriter, r *http.Request) {
	counts, err := h.incidents.CountByType(r.Context())
	if err != nil {
		storageError(w, err)
		return
	}
	if counts == nil {
		counts = []store.TypeCount{}
	}
	writeJSON(w, http.StatusOK, counts)
}

func (h *IncidentsHandler) StatsMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.incidents.Metrics(r.Context())
	if err != nil {
		storageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

func (h *IncidentsHandler) StatsDailyPhishing(w http.ResponseWriter, r *http.Request) {
	counts, err := h.incidents.DailyPhishingCounts(r.Context())
	if err != nil {
		storageError(w, err)
		return
	}
	if counts == nil {
		counts = []store.DateCount{}
	}
	writeJSON(w, http.StatusOK, counts)
}
