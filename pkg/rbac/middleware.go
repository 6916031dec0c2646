package rbac

import (
	"net/http"

	"github.com/platinummonkey/crm/pkg/contextkeys"
	"github.com/platinummonkey/crm/pkg/httputil"
	"github.com/platinummonkey/crm/pkg/observability"
	"github.com/sirupsen/logrus"
)

// PermissionMiddleware gates handlers on the permission table
type PermissionMiddleware struct {
	metrics *observability.Metrics
	log     *logrus.Logger
}

// NewPermissionMiddleware creates a new permission middleware. metrics may be nil.
func NewPermissionMiddleware(metrics *observability.Metrics, log *logrus.Logger) *PermissionMiddleware {
	if log == nil {
		log = logrus.New()
	}
	return &PermissionMiddleware{metrics: metrics, log: log}
}

// RequireSection creates middleware that only admits identities whose role may
// enter section. Requests without an identity get 401; denied roles get 403 with
// an inline unauthorized message.
func (pm *PermissionMiddleware) RequireSection(section Section) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := contextkeys.GetIdentity(r.Context())
			if !ok {
				httputil.WriteUnauthorized(w, "authentication required")
				return
			}

			result := Check(identity.Role, section)
			if !result.Allowed {
				pm.metrics.RecordPermissionDenied(string(section))
				pm.log.WithFields(logrus.Fields{
					"request_id": observability.GetRequestID(r.Context()),
					"user":       identity.Email,
					"role":       identity.Role,
					"section":    section,
					"reason":     result.Reason,
				}).Warn("Section access denied")
				httputil.WriteForbidden(w, "unauthorized: your role cannot access "+string(section))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
