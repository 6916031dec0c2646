package api

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"

	"github.com/platinummonkey/crm/pkg/app"
	"github.com/platinummonkey/crm/pkg/assignment"
	"github.com/platinummonkey/crm/pkg/auth"
	"github.com/platinummonkey/crm/pkg/httputil"
	"github.com/platinummonkey/crm/pkg/importer"
	"github.com/platinummonkey/crm/pkg/observability"
	"github.com/platinummonkey/crm/pkg/rbac"
	"github.com/platinummonkey/crm/pkg/records"
	"github.com/platinummonkey/crm/pkg/reports"
	"github.com/platinummonkey/crm/pkg/users"
)

// writeDomainError maps an application error to its HTTP reply. Anything
// unrecognised is logged and answered with a bare 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		missingFields  *records.MissingFieldError
		missingHeaders *importer.MissingHeadersError
		invalidAccount *users.ValidationError
		csvErr         *csv.ParseError
		tooLarge       *http.MaxBytesError
	)

	switch {
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrNotSignedIn):
		httputil.WriteUnauthorized(w, err.Error())
	case errors.Is(err, rbac.ErrUnauthorized):
		httputil.WriteForbidden(w, err.Error())

	case errors.As(err, &missingFields):
		httputil.WriteDetailedError(w, http.StatusBadRequest, err.Error(), map[string][]string{"fields": missingFields.Fields})
	case errors.As(err, &missingHeaders):
		httputil.WriteDetailedError(w, http.StatusBadRequest, err.Error(), map[string][]string{"missing": missingHeaders.Missing})
	case errors.As(err, &invalidAccount):
		httputil.WriteDetailedError(w, http.StatusBadRequest, "invalid user account", invalidAccount.Fields)
	case errors.As(err, &csvErr),
		errors.Is(err, importer.ErrEmptyFile),
		errors.Is(err, records.ErrInvalidStatus),
		errors.Is(err, records.ErrDraftClosed),
		errors.Is(err, reports.ErrUnknownReportKind),
		errors.Is(err, users.ErrInvalidRole),
		errors.Is(err, users.ErrInvalidAccount):
		httputil.WriteBadRequest(w, err.Error())

	case errors.Is(err, records.ErrNotFound), errors.Is(err, users.ErrNotFound), errors.Is(err, reports.ErrNoData):
		httputil.WriteNotFound(w, err.Error())
	case errors.Is(err, assignment.ErrNoAssignableUsers),
		errors.Is(err, users.ErrDuplicateEmail),
		errors.Is(err, users.ErrSelfDelete):
		httputil.WriteConflict(w, err.Error())
	case errors.As(err, &tooLarge):
		httputil.WriteErrorMessage(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
	case errors.Is(err, app.ErrNoSink):
		httputil.WriteErrorMessage(w, http.StatusServiceUnavailable, err.Error())

	default:
		observability.FromContext(r.Context()).WithError(err).WithField("path", r.URL.Path).Error("Request failed")
		httputil.WriteInternalError(w)
	}
}
