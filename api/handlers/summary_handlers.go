package handlers

import (
	"net/http"

	"kestrel-idp/core/store"
)

// SummaryHandler reports row counts per table, the same numbers the setup
// verification step prints.
type SummaryHandler struct {
	incidents store.IncidentsStore
	datasets  store.DatasetsStore
	tickets   store.TicketsStore
	users     store.UsersStore
}

func NewSummaryHandler(incidents store.IncidentsStore, datasets store.DatasetsStore, tickets store.TicketsStore, users store.UsersStore) *SummaryHandler {
	return &SummaryHandler{incidents: incidents, datasets: datasets, tickets: tickets, users: users}
}

type summaryResponse struct {
	Users     int64 `json:"users"`
	Incidents int64 `json:"incidents"`
	Datasets  int64 `json:"datasets"`
	Tickets   int64 `json:"tickets"`
}

func (h *SummaryHandler) Summary(w http.ResponseWriter, r *http.Request) {
	var out summaryResponse

	metrics, err := h.incidents.Metrics(r.Context())
	if err != nil {
		storageError(w, err)
		return
	}
	out.Incidents = metrics.Total

	kpis, err := h.tickets.KPIs(r.Context())
	if err != nil {
		storageError(w, err)
		return
	}
	out.Tickets = kpis.Total

	datasets, err := h.datasets.CountBySource(r.Context())
	if err != nil {
		storageError(w, err)
		return
	}
	for _, sc := range datasets {
		out.Datasets += sc.Count
	}

	roles, err := h.users.CountByRole(r.Context())
	if err != nil {
		storageError(w, err)
		return
	}
	for _, rc := range roles {
		out.Users += rc.Count
	}

	writeJSON(w, http.StatusOK, out)
}
