package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/platinummonkey/crm/pkg/app"
	"github.com/platinummonkey/crm/pkg/httputil"
	"github.com/platinummonkey/crm/pkg/middleware"
	"github.com/platinummonkey/crm/pkg/observability"
	"github.com/platinummonkey/crm/pkg/rbac"
	"github.com/platinummonkey/crm/pkg/storage"
	"github.com/sirupsen/logrus"
)

// MaxRequestBytes caps request bodies, CSV uploads included
const MaxRequestBytes = 10 << 20

// Options configures a Server
type Options struct {
	Logger  *logrus.Logger
	Metrics *observability.Metrics

	// Location interprets report date filters; nil means UTC
	Location *time.Location

	// LoginRateLimit limits login attempts per client; nil uses the default
	LoginRateLimit *middleware.RateLimitConfig

	Version string
}

// Server serves one application context over HTTP
type Server struct {
	crm          *app.Context
	router       *mux.Router
	handler      http.Handler
	log          *logrus.Logger
	metrics      *observability.Metrics
	loc          *time.Location
	perms        *rbac.PermissionMiddleware
	loginLimiter *middleware.RateLimiter
	health       *observability.HealthChecker
}

// NewServer creates a new API server over crm
func NewServer(crm *app.Context, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logrus.New()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	s := &Server{
		crm:          crm,
		router:       mux.NewRouter(),
		log:          log,
		metrics:      opts.Metrics,
		loc:          loc,
		perms:        rbac.NewPermissionMiddleware(opts.Metrics, log),
		loginLimiter: middleware.NewRateLimiter(opts.LoginRateLimit),
		health:       observability.NewHealthChecker(opts.Version),
	}
	s.health.AddCheck("store", func(ctx context.Context) error {
		if p, ok := crm.Store().(storage.Pinger); ok {
			return p.Ping(ctx)
		}
		return nil
	})

	s.setupRoutes()
	s.handler = httputil.Chain(
		httputil.RequestIDMiddleware(log),
		httputil.LoggingMiddleware,
		httputil.RecoveryMiddleware,
		httputil.MaxBytesMiddleware(MaxRequestBytes),
	)(s.router)
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	s.router.Use(observability.HTTPMetricsMiddleware(s.metrics, routeLabel))

	s.router.HandleFunc("/healthz", s.health.Liveness).Methods("GET")
	s.router.HandleFunc("/readyz", s.health.Readiness).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(middleware.Identity(s.crm))

	// Session routes
	api.Handle("/session/login", middleware.RateLimit(s.loginLimiter)(http.HandlerFunc(s.login))).Methods("POST")
	api.HandleFunc("/session/logout", s.logout).Methods("POST")
	api.HandleFunc("/session", s.getSession).Methods("GET")
	api.Handle("/sections", middleware.RequireIdentity(http.HandlerFunc(s.listSections))).Methods("GET")

	// Lead routes
	s.handle(api, "/leads", rbac.SectionLeads, s.listLeads, "GET")
	s.handle(api, "/leads", rbac.SectionLeads, s.createLead, "POST")
	s.handle(api, "/leads/assign", rbac.SectionLeads, s.assignLeads, "POST")
	s.handle(api, "/leads/import", rbac.SectionImportLeads, s.importLeads, "POST")
	s.handle(api, "/leads/{id}", rbac.SectionLeads, s.getLead, "GET")
	s.handle(api, "/leads/{id}", rbac.SectionLeads, s.updateLead, "PUT")
	s.handle(api, "/leads/{id}", rbac.SectionLeads, s.deleteLead, "DELETE")
	s.handle(api, "/leads/{id}/status", rbac.SectionLeads, s.setLeadStatus, "PUT")
	s.handle(api, "/leads/{id}/calls", rbac.SectionLeads, s.logCall, "POST")

	// Meeting routes
	s.handle(api, "/meetings", rbac.SectionMeetings, s.listMeetings, "GET")
	s.handle(api, "/meetings/{id}/reopen", rbac.SectionMeetings, s.reopenMeeting, "POST")
	s.handle(api, "/deals", rbac.SectionFinance, s.listDeals, "GET")

	// Account routes
	s.handle(api, "/accounts", rbac.SectionAccounts, s.listClients, "GET")
	s.handle(api, "/accounts", rbac.SectionAccounts, s.createClient, "POST")
	s.handle(api, "/accounts/{id}", rbac.SectionAccounts, s.getClient, "GET")
	s.handle(api, "/accounts/{id}", rbac.SectionAccounts, s.updateClient, "PUT")
	s.handle(api, "/accounts/{id}", rbac.SectionAccounts, s.deleteClient, "DELETE")

	// User routes
	s.handle(api, "/users/assignable", rbac.SectionLeads, s.listAssignable, "GET")
	s.handle(api, "/users", rbac.SectionUserManagement, s.listUsers, "GET")
	s.handle(api, "/users", rbac.SectionUserManagement, s.createUser, "POST")
	s.handle(api, "/users/{id}", rbac.SectionUserManagement, s.updateUser, "PUT")
	s.handle(api, "/users/{id}", rbac.SectionUserManagement, s.deleteUser, "DELETE")
	s.handle(api, "/activity", rbac.SectionUserManagement, s.listActivity, "GET")

	// Settings routes
	s.handle(api, "/settings", rbac.SectionSettings, s.getSettings, "GET")
	s.handle(api, "/settings", rbac.SectionSettings, s.updateSettings, "PUT")

	// Report routes
	s.handle(api, "/reports/{kind}", rbac.SectionReports, s.getReport, "GET")
	s.handle(api, "/reports/{kind}/publish", rbac.SectionReports, s.publishReport, "POST")
	s.handle(api, "/dashboard", rbac.SectionDashboard, s.getDashboard, "GET")
}

// handle registers h behind the permission check for section
func (s *Server) handle(r *mux.Router, path string, section rbac.Section, h http.HandlerFunc, method string) {
	r.Handle(path, s.perms.RequireSection(section)(h)).Methods(method)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Health returns the checker behind /healthz and /readyz
func (s *Server) Health() *observability.HealthChecker {
	return s.health
}

// StartCleanup evicts idle login rate-limit buckets until ctx is done
func (s *Server) StartCleanup(ctx context.Context) {
	s.loginLimiter.StartCleanup(ctx)
}

// routeLabel labels metrics with the route template rather than the raw path
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
