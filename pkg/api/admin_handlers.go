package api

import (
	"net/http"
	"strconv"

	"github.com/platinummonkey/crm/pkg/audit"
	"github.com/platinummonkey/crm/pkg/httputil"
	"github.com/platinummonkey/crm/pkg/records"
	"github.com/platinummonkey/crm/pkg/settings"
	"github.com/platinummonkey/crm/pkg/users"
)

// listClients handles GET /api/accounts?search=
func (s *Server) listClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.crm.Clients(r.URL.Query().Get("search"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, clients)
}

// createClient handles POST /api/accounts
func (s *Server) createClient(w http.ResponseWriter, r *http.Request) {
	var client records.Client
	if !httputil.ParseJSONOrError(w, r, &client) {
		return
	}

	created, err := s.crm.AddClient(r.Context(), client)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httputil.WriteCreated(w, created)
}

// getClient handles GET /api/accounts/{id}
func (s *Server) getClient(w http.ResponseWriter, r *http.Request) {
	client, err := s.crm.Client(httputil.PathParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, client)
}

// updateClient handles PUT /api/accounts/{id}
func (s *Server) updateClient(w http.ResponseWriter, r *http.Request) {
	var patch records.ClientPatch
	if !httputil.ParseJSONOrError(w, r, &patch) {
		return
	}

	client, err := s.crm.UpdateClient(r.Context(), httputil.PathParam(r, "id"), patch)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, client)
}

// deleteClient handles DELETE /api/accounts/{id}
func (s *Server) deleteClient(w http.ResponseWriter, r *http.Request) {
	if err := s.crm.DeleteClient(r.Context(), httputil.PathParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

// listUsers handles GET /api/users
func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.crm.Users()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, toUsers(accounts))
}

// listActivity handles GET /api/activity?type=&actor=&status=&since=&limit=
func (s *Server) listActivity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := audit.Filter{
		Type:   audit.EventType(q.Get("type")),
		Actor:  q.Get("actor"),
		Status: audit.EventStatus(q.Get("status")),
	}
	since, err := httputil.ParseQueryDate(r, "since", s.loc)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if since != nil {
		filter.Since = *since
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			httputil.WriteBadRequest(w, "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}

	events, err := s.crm.Activity(filter)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	httputil.WriteSuccess(w, events)
}

// listAssignable handles GET /api/users/assignable
func (s *Server) listAssignable(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.crm.AssignableUsers()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, toUsers(accounts))
}

// createUser handles POST /api/users
func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	created, err := s.crm.AddUser(r.Context(), users.UserAccount{
		Name:       req.Name,
		Email:      req.Email,
		Role:       req.Role,
		Credential: req.Password,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := CreatedUser{User: toUser(created)}
	if req.Password == "" {
		resp.TemporaryPassword = created.Credential
	}
	httputil.WriteCreated(w, resp)
}

// updateUser handles PUT /api/users/{id}
func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	var patch users.Patch
	if !httputil.ParseJSONOrError(w, r, &patch) {
		return
	}

	updated, err := s.crm.UpdateUser(r.Context(), httputil.PathParam(r, "id"), patch)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, toUser(updated))
}

// deleteUser handles DELETE /api/users/{id}
func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.crm.DeleteUser(r.Context(), httputil.PathParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

// getSettings handles GET /api/settings
func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	current, err := s.crm.Settings()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, current)
}

// updateSettings handles PUT /api/settings
func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request) {
	var next settings.Settings
	if !httputil.ParseJSONOrError(w, r, &next) {
		return
	}

	saved, err := s.crm.UpdateSettings(r.Context(), next)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, saved)
}
