package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/wardroster/wardroster/internal/platform/auth"
)

// AuditEntry records one write against the roster or nursing records.
type AuditEntry struct {
	NurseID    string
	Roles      []string
	Tenant     string
	Method     string
	Path       string
	Route      string
	StatusCode int
	RequestID  string
	IPAddress  string
	Timestamp  time.Time
}

// AuditRecorder persists audit entries. Without one the entries go to the
// logger.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// Audit logs every mutating API request after it completes, including
// rejected ones.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !isWrite(req.Method) || !strings.HasPrefix(req.URL.Path, "/api/") {
				return next(c)
			}

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			entry := AuditEntry{
				Method:     req.Method,
				Path:       req.URL.Path,
				Route:      c.Path(),
				StatusCode: status,
				IPAddress:  c.RealIP(),
				Timestamp:  time.Now().UTC(),
			}
			entry.RequestID, _ = c.Get("request_id").(string)
			entry.Tenant, _ = c.Get("tenant_id").(string)
			if id, ok := auth.IdentityFromContext(req.Context()); ok {
				entry.NurseID = id.NurseID.String()
				entry.Roles = id.Roles
			}

			if len(recorders) == 0 {
				logger.Info().
					Str("audit", "write").
					Str("nurse_id", entry.NurseID).
					Strs("roles", entry.Roles).
					Str("tenant", entry.Tenant).
					Str("method", entry.Method).
					Str("route", entry.Route).
					Int("status", entry.StatusCode).
					Str("request_id", entry.RequestID).
					Msg("audit")
			}
			for _, r := range recorders {
				if rerr := r.RecordAccess(entry); rerr != nil {
					logger.Error().Err(rerr).Str("request_id", entry.RequestID).Msg("audit recorder failed")
				}
			}
			return err
		}
	}
}
