package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/platinummonkey/crm/pkg/httputil"
	"github.com/platinummonkey/crm/pkg/records"
)

// listLeads handles GET /api/leads?search=&status=&sort=&order=
func (s *Server) listLeads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sortField, err := records.ParseSortField(q.Get("sort"))
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	leads, err := s.crm.Leads(records.Query{
		Search:     q.Get("search"),
		Status:     q.Get("status"),
		SortField:  sortField,
		Descending: strings.EqualFold(q.Get("order"), "desc"),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	views := make([]LeadView, len(leads))
	for i, l := range leads {
		views[i] = LeadView{Lead: l, AssigneeName: s.crm.DisplayAssignee(l.AssignedTo)}
	}
	httputil.WriteSuccess(w, views)
}

// createLead handles POST /api/leads
func (s *Server) createLead(w http.ResponseWriter, r *http.Request) {
	var lead records.Lead
	if !httputil.ParseJSONOrError(w, r, &lead) {
		return
	}

	created, err := s.crm.AddLead(r.Context(), lead)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httputil.WriteCreated(w, created)
}

// getLead handles GET /api/leads/{id}
func (s *Server) getLead(w http.ResponseWriter, r *http.Request) {
	lead, err := s.crm.Lead(httputil.PathParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, LeadView{Lead: lead, AssigneeName: s.crm.DisplayAssignee(lead.AssignedTo)})
}

// updateLead handles PUT /api/leads/{id}
func (s *Server) updateLead(w http.ResponseWriter, r *http.Request) {
	var req UpdateLeadRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	lead, err := s.crm.UpdateLead(r.Context(), httputil.PathParam(r, "id"), req.LeadPatch, req.Note)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, lead)
}

// deleteLead handles DELETE /api/leads/{id}
func (s *Server) deleteLead(w http.ResponseWriter, r *http.Request) {
	if err := s.crm.DeleteLead(r.Context(), httputil.PathParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

// setLeadStatus handles PUT /api/leads/{id}/status. Completing a lead answers
// with the meeting it became.
func (s *Server) setLeadStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	status, err := records.ParseLeadStatus(req.Status)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	id := httputil.PathParam(r, "id")
	if status == records.StatusCompleted {
		meeting, err := s.crm.CompleteLead(r.Context(), id)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		httputil.WriteSuccess(w, meeting)
		return
	}

	lead, err := s.crm.SetLeadStatus(r.Context(), id, status)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, lead)
}

// logCall handles POST /api/leads/{id}/calls
func (s *Server) logCall(w http.ResponseWriter, r *http.Request) {
	var req CallRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	lead, err := s.crm.LogCall(r.Context(), httputil.PathParam(r, "id"), req.Notes, req.NextFollowUp)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httputil.WriteCreated(w, lead)
}

// assignLeads handles POST /api/leads/assign
func (s *Server) assignLeads(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.AssignTo) == "" {
		httputil.WriteBadRequest(w, "assignTo is required")
		return
	}

	updated, err := s.crm.AssignLeads(r.Context(), req.IDs, req.AssignTo)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, AssignResponse{Updated: updated})
}

// importLeads handles POST /api/leads/import. The CSV is either the raw body
// or the "file" part of a multipart form.
func (s *Server) importLeads(w http.ResponseWriter, r *http.Request) {
	body, closeBody, err := csvBody(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDomainError(w, r, err)
			return
		}
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	defer closeBody()

	result, err := s.crm.ImportLeads(r.Context(), body)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httputil.WriteCreated(w, ImportResponse{Imported: len(result.Leads), Leads: result.Leads, Skipped: result.Skipped})
}

func csvBody(r *http.Request) (io.Reader, func(), error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, func() {}, nil
	}

	if err := r.ParseMultipartForm(MaxRequestBytes); err != nil {
		return nil, nil, err
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, nil, err
	}
	return file, func() { file.Close() }, nil
}

// listMeetings handles GET /api/meetings
func (s *Server) listMeetings(w http.ResponseWriter, r *http.Request) {
	meetings, err := s.crm.Meetings()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, meetings)
}

// reopenMeeting handles POST /api/meetings/{id}/reopen
func (s *Server) reopenMeeting(w http.ResponseWriter, r *http.Request) {
	lead, err := s.crm.ReopenMeeting(r.Context(), httputil.PathParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, lead)
}

// listDeals handles GET /api/deals
func (s *Server) listDeals(w http.ResponseWriter, r *http.Request) {
	deals, err := s.crm.Deals()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, deals)
}
