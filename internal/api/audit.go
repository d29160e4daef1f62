package api

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/alecgard/taskhub/internal/auth"
)

// auditLog emits a structured audit log entry for a successful mutation.
func auditLog(r *http.Request, action string, resourceType string, resourceID string, detail ...any) {
	attrs := []any{
		"action", action,
		"resource_type", resourceType,
		"resource_id", resourceID,
		"ip", clientIP(r),
		"request_id", RequestIDFromContext(r.Context()),
	}

	if u := auth.UserFromContext(r.Context()); u != nil {
		attrs = append(attrs, "user_id", u.ID, "user_email", u.Email)
	}

	attrs = append(attrs, detail...)
	slog.Info("audit", attrs...)
}

// clientIP returns the host part of RemoteAddr, which chi's RealIP
// middleware has already rewritten from forwarding headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
