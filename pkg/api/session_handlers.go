package api

import (
	"net/http"

	"github.com/platinummonkey/crm/pkg/auth"
	"github.com/platinummonkey/crm/pkg/httputil"
)

// login handles POST /api/session/login
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if _, err := s.crm.Login(r.Context(), req.Email, req.Password); err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.writeSession(w, r)
}

// logout handles POST /api/session/logout
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.crm.Logout(r.Context()); err != nil {
		writeDomainError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

// getSession handles GET /api/session
func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	s.writeSession(w, r)
}

func (s *Server) writeSession(w http.ResponseWriter, r *http.Request) {
	session, ok := s.crm.Session()
	if !ok {
		writeDomainError(w, r, auth.ErrNotSignedIn)
		return
	}
	sections, err := s.crm.Sections()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, SessionResponse{Session: session, Sections: sections})
}

// listSections handles GET /api/sections
func (s *Server) listSections(w http.ResponseWriter, r *http.Request) {
	sections, err := s.crm.Sections()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, sections)
}
