package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"kestrel-idp/core/store"
)

type TicketsHandler struct {
	tickets store.TicketsStore
	audits  store.AuditStore
	logger  *zap.Logger
}

func NewTicketsHandler(tickets store.TicketsStore, audits store.AuditStore, logger *zap.Logger) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, audits: audits, logger: logger}
}

type ticketPayload struct {
	TicketID     string `json:"ticket_id"`
	Status       string `json:"status"`
	Category     string `json:"category"`
	Subject      string `json:"subject"`
	Description  string `json:"description"`
	CreatedDate  string `json:"created_date"`
	ResolvedDate string `json:"resolved_date"`
	AssignedTo   string `json:"assigned_to"`
}

// The "TCK-" ticket_id prefix is a caller convention, same as the original
// form layer; only presence and enum membership are checked here.
func (p *ticketPayload) validate() error {
	if strings.TrimSpace(p.TicketID) == "" {
		return fmt.Errorf("ticket_id is required")
	}
	if !store.ValidEnum(store.TicketStatuses, p.Status) {
		return fmt.Errorf("unknown status %q", p.Status)
	}
	if !store.ValidEnum(store.TicketCategories, p.Category) {
		return fmt.Errorf("unknown category %q", p.Category)
	}
	if strings.TrimSpace(p.Subject) == "" {
		return fmt.Errorf("subject is required")
	}
	return nil
}

func (h *TicketsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload ticketPayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	if err := payload.validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	t := &store.Ticket{
		TicketID:    payload.TicketID,
		Status:      payload.Status,
		Category:    payload.Category,
		Subject:     payload.Subject,
		Description: payload.Description,
		CreatedDate: payload.CreatedDate,
	}
	if v := strings.TrimSpace(payload.ResolvedDate); v != "" {
		t.ResolvedDate = &v
	}
	if v := strings.TrimSpace(payload.AssignedTo); v != "" {
		t.AssignedTo = &v
	}
	if _, err := h.tickets.Insert(r.Context(), t); err != nil {
		h.logger.Error("insert ticket", zap.Error(err))
		storageError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *TicketsHandler) List(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.tickets.ListAll(r.Context())
	if err != nil {
		h.logger.Error("list tickets", zap.Error(err))
		storageError(w, err)
		return
	}
	if tickets == nil {
		tickets = []store.Ticket{}
	}
	writeJSON(w, http.StatusOK, tickets)
}

func (h *TicketsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")
	if strings.TrimSpace(ticketID) == "" {
		http.Error(w, "invalid ticket id", http.StatusBadRequest)
		return
	}
	var payload statusPayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	if !store.ValidEnum(store.TicketStatuses, payload.Status) {
		http.Error(w, fmt.Sprintf("unknown status %q", payload.Status), http.StatusBadRequest)
		return
	}
	affected, err := h.tickets.UpdateStatus(r.Context(), ticketID, payload.Status)
	if err != nil {
		h.logger.Error("update ticket status", zap.Error(err))
		storageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, affectedResponse{Affected: affected})
}

func (h *TicketsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")
	if strings.TrimSpace(ticketID) == "" {
		http.Error(w, "invalid ticket id", http.StatusBadRequest)
		return
	}
	affected, err := h.tickets.Delete(r.Context(), ticketID)
	if err != nil {
		h.logger.Error("delete ticket", zap.Error(err))
		storageError(w, err)
		return
	}
	if sess := sessionFrom(r); sess != nil && affected > 0 {
		h.audits.Log(r.Context(), sess.Username, "tickets.delete", "ticket_id="+ticketID)
	}
	writeJSON(w, http.StatusOK, affectedResponse{Affected: affected})
}

func (h *TicketsHandler) StatsByStaff(w http.ResponseWriter, r *http.Request) {
	counts, err := h.tickets.ResolvedByStaff(r.Context())
	if err != nil {
		storageError(w, err)
		return
	}
	if counts == nil {
		counts = []store.StaffTicketCount{}
	}
	writeJSON(w, http.StatusOK, counts)
}

func (h *TicketsHandler) StatsKPIs(w http.ResponseWriter, r *http.Request) {
	kpis, err := h.tickets.KPIs(r.Context())
	if err != nil {
		storageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, kpis)
}
