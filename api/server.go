package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"kestrel-idp/api/handlers"
	"kestrel-idp/config"
	"kestrel-idp/core/auth"
	"kestrel-idp/core/rbac"
	"kestrel-idp/core/store"
)

// ServerDeps carries everything the HTTP surface needs; composed in
// appbootstrap and in tests.
type ServerDeps struct {
	Cfg            *config.AppConfig
	Users          store.UsersStore
	Sessions       store.SessionStore
	Incidents      store.IncidentsStore
	Datasets       store.DatasetsStore
	Tickets        store.TicketsStore
	Audits         store.AuditStore
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	Policy         *rbac.Policy
	Logger         *zap.Logger
}

type Server struct {
	cfg            *config.AppConfig
	sessionManager *auth.SessionManager
	policy         *rbac.Policy
	logger         *zap.Logger

	authHandler      *handlers.AuthHandler
	incidentsHandler *handlers.IncidentsHandler
	datasetsHandler  *handlers.DatasetsHandler
	ticketsHandler   *handlers.TicketsHandler
	usersHandler     *handlers.UsersHandler
	summaryHandler   *handlers.SummaryHandler
}

func NewServer(deps ServerDeps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:              deps.Cfg,
		sessionManager:   deps.SessionManager,
		policy:           deps.Policy,
		logger:           logger,
		authHandler:      handlers.NewAuthHandler(deps.AuthService, deps.SessionManager, deps.Audits, logger),
		incidentsHandler: handlers.NewIncidentsHandler(deps.Incidents, deps.Audits, logger),
		datasetsHandler:  handlers.NewDatasetsHandler(deps.Datasets, deps.Audits, logger),
		ticketsHandler:   handlers.NewTicketsHandler(deps.Tickets, deps.Audits, logger),
		usersHandler:     handlers.NewUsersHandler(deps.Users, deps.Sessions, deps.Audits, logger),
		summaryHandler:   handlers.NewSummaryHandler(deps.Incidents, deps.Datasets, deps.Tickets, deps.Users),
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recoverMiddleware)
	r.Use(s.requestLogger)

	r.Post("/api/auth/register", s.authHandler.Register)
	r.Post("/api/auth/login", s.authHandler.Login)

	r.Group(func(r chi.Router) {
		r.Use(s.sessionMiddleware)

		r.Post("/api/auth/logout", s.authHandler.Logout)
		r.Get("/api/auth/me", s.authHandler.Me)

		r.Route("/api/incidents", func(r chi.Router) {
			r.With(s.require(rbac.ObjRecords, rbac.ActRead)).Get("/", s.incidentsHandler.List)
			r.With(s.require(rbac.ObjRecords, rbac.ActWrite)).Post("/", s.incidentsHandler.Create)
			r.With(s.require(rbac.ObjRecords, rbac.ActWrite)).Patch("/{id}/status", s.incidentsHandler.UpdateStatus)
			r.With(s.require(rbac.ObjRecords, rbac.ActDelete)).Delete("/{id}", s.incidentsHandler.Delete)
			r.With(s.require(rbac.ObjRecords, rbac.ActRead)).Get("/stats/by-type", s.incidentsHandler.StatsByType)
			r.With(s.require(rbac.ObjRecords, rbac.ActRead)).Get("/stats/metrics", s.incidentsHandler.StatsMetrics)
			r.With(s.require(rbac.ObjRecords, rbac.ActRead)).Get("/stats/daily-phishing", s.incidentsHandler.StatsDailyPhishing)
		})

		r.Route("/api/datasets", func(r chi.Router) {
			r.With(s.require(rbac.ObjRecords, rbac.ActRead)).Get("/", s.datasetsHandler.List)
			r.With(s.require(rbac.ObjRecords, rbac.ActWrite)).Post("/", s.datasetsHandler.Create)
			r.With(s.require(rbac.ObjRecords, rbac.ActWrite)).Patch("/{id}/last-updated", s.datasetsHandler.UpdateLastUpdated)
			r.With(s.require(rbac.ObjRecords, rbac.ActDelete)).Delete("/{id}", s.datasetsHandler.Delete)
			r.With(s.require(rbac.ObjRecords, rbac.ActRead)).Get("/stats/by-source", s.datasetsHandler.StatsBySource)
			r.With(s.require(rbac.ObjRecords, rbac.ActRead)).Get("/stats/consumption", s.datasetsHandler.StatsConsumption)
		})

		r.Route("/api/tickets", func(r chi.Router) {
			r.With(s.require(rbac.ObjRecords, rbac.ActRead)).Get("/", s.ticketsHandler.List)
			r.With(s.require(rbac.ObjRecords, rbac.ActWrite)).Post("/", s.ticketsHandler.Create)
			r.With(s.require(rbac.ObjRecords, rbac.ActWrite)).Patch("/{ticketID}/status", s.ticketsHandler.UpdateStatus)
			r.With(s.require(rbac.ObjRecords, rbac.ActDelete)).Delete("/{ticketID}", s.ticketsHandler.Delete)
			r.With(s.require(rbac.ObjRecords, rbac.ActRead)).Get("/stats/by-staff", s.ticketsHandler.StatsByStaff)
			r.With(s.require(rbac.ObjRecords, rbac.ActRead)).Get("/stats/kpis", s.ticketsHandler.StatsKPIs)
		})

		r.Route("/api/users", func(r chi.Router) {
			r.Use(s.require(rbac.ObjUsers, rbac.ActManage))
			r.Get("/", s.usersHandler.List)
			r.Patch("/{id}/role", s.usersHandler.UpdateRole)
			r.Delete("/{id}", s.usersHandler.Delete)
			r.Get("/stats/by-role", s.usersHandler.StatsByRole)
		})

		r.With(s.require(rbac.ObjAudit, rbac.ActRead)).Get("/api/audit", s.usersHandler.AuditTrail)
		r.With(s.require(rbac.ObjRecords, rbac.ActRead)).Get("/api/summary", s.summaryHandler.Summary)
	})

	return r
}
