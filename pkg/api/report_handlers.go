package api

import (
	"net/http"
	"time"

	"github.com/platinummonkey/crm/pkg/httputil"
	"github.com/platinummonkey/crm/pkg/reports"
)

// getReport handles GET /api/reports/{kind}?from=&to=&format=json|csv
func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	kind, from, to, ok := s.reportParams(w, r)
	if !ok {
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		report, err := s.crm.Report(kind, from, to)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		httputil.WriteSuccess(w, report)
	case "csv":
		name, body, err := s.crm.ExportReport(kind, from, to)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		httputil.WriteAttachment(w, "text/csv", name, body)
	default:
		httputil.WriteBadRequest(w, "unsupported report format: "+format)
	}
}

// publishReport handles POST /api/reports/{kind}/publish
func (s *Server) publishReport(w http.ResponseWriter, r *http.Request) {
	kind, from, to, ok := s.reportParams(w, r)
	if !ok {
		return
	}

	location, err := s.crm.PublishReport(r.Context(), kind, from, to)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httputil.WriteCreated(w, PublishResponse{Location: location})
}

// reportParams reads the kind and the optional date range. The range covers
// whole days, so to runs through the end of its day.
func (s *Server) reportParams(w http.ResponseWriter, r *http.Request) (reports.Kind, *time.Time, *time.Time, bool) {
	kind, err := reports.ParseKind(httputil.PathParam(r, "kind"))
	if err != nil {
		writeDomainError(w, r, err)
		return "", nil, nil, false
	}
	from, err := httputil.ParseQueryDate(r, "from", s.loc)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return "", nil, nil, false
	}
	to, err := httputil.ParseQueryDate(r, "to", s.loc)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return "", nil, nil, false
	}
	if to != nil {
		end := reports.EndOfDay(*to)
		to = &end
	}
	return kind, from, to, true
}

// getDashboard handles GET /api/dashboard
func (s *Server) getDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := s.crm.Dashboard()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, stats)
}
