package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/alecgard/taskhub/internal/auth"
	"github.com/alecgard/taskhub/internal/metrics"
	"github.com/alecgard/taskhub/internal/ratelimit"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// healthTimeout bounds the store ping in the health check.
const healthTimeout = 2 * time.Second

// RouterDeps holds all dependencies for the API router. Metrics and the
// limiters are optional.
type RouterDeps struct {
	Users          UserService
	Sessions       auth.SessionLookup
	Tasks          TaskService
	Teams          TeamService
	Dashboard      DashboardService
	Store          Pinger
	Metrics        *metrics.Metrics
	AuthLimiter    *ratelimit.Limiter // per client IP on register and login
	UserLimiter    *ratelimit.Limiter // per user on authenticated routes
	AllowedOrigins []string
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(requestIDMiddleware)
	r.Use(chimw.RealIP)
	r.Use(secureHeaders)
	r.Use(corsMiddleware(deps.AllowedOrigins))
	r.Use(slogRequestLogger)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
		r.Use(countErrors(deps.Metrics))
	}
	r.Use(recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	var authObservers []auth.Observer
	var onReject []func(string)
	if deps.Metrics != nil {
		authObservers = append(authObservers, deps.Metrics.ObserveAuth)
		onReject = append(onReject, deps.Metrics.IncRateLimitRejection)
	}
	requireSession := auth.SessionMiddleware(deps.Sessions, authObservers...)
	limitByIP := limit(deps.AuthLimiter, ratelimit.ScopeIP, ratelimit.ByIP, onReject)
	limitByUser := limit(deps.UserLimiter, ratelimit.ScopeUser, ratelimit.ByUser, onReject)

	// Handlers.
	users := newUsersHandler(deps.Users)
	tasks := newTasksHandler(deps.Tasks)
	teams := newTeamsHandler(deps.Teams)
	dash := newDashboardHandler(deps.Dashboard)

	r.Get("/health", healthHandler(deps.Store))
	r.Get("/.well-known/taskhub.json", WellKnownHandler)
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Exposition())
	}

	r.Route("/api/v1", func(ar chi.Router) {
		if deps.Metrics != nil {
			ar.Get("/metrics/summary", deps.Metrics.Handler())
		}

		// Public (unauthenticated) routes, limited per client IP.
		ar.Group(func(pr chi.Router) {
			pr.Use(limitByIP)
			pr.Post("/users/register", users.Register)
			pr.Post("/users/login", users.Login)
		})

		// Session-authed routes, limited per user.
		ar.Group(func(sr chi.Router) {
			sr.Use(requireSession)
			sr.Use(limitByUser)

			sr.Post("/users/logout", users.Logout)
			sr.Get("/users/me", users.Me)
			sr.Get("/users/dashboard", dash.Get)

			sr.Post("/tasks", tasks.Create)
			sr.Get("/tasks", tasks.List)
			sr.Patch("/tasks/{taskId}", tasks.Update)
			sr.Put("/tasks/{taskId}/status", tasks.UpdateStatus)
			sr.Delete("/tasks/{taskId}", tasks.Delete)

			sr.Post("/team", teams.CreateTeam)
			sr.Get("/team", teams.ListTeams)
			sr.Put("/team/{teamId}/member", teams.AddMember)
			sr.Delete("/team/{teamId}/leave", teams.LeaveTeam)
			sr.Put("/team/{teamId}/maxMembers", teams.EditMaxMembers)
			sr.Delete("/team/{teamId}", teams.DeleteTeam)

			sr.Get("/team/{teamId}/task", teams.ListTeamTasks)
			sr.Post("/team/{teamId}/task", teams.AddTasks)
			sr.Patch("/team/{teamId}/content/{taskId}", teams.EditContent)
			sr.Patch("/team/{teamId}/task/{taskId}/status", teams.EditTaskStatus)
			sr.Delete("/team/{teamId}/task/{taskId}", teams.DeleteContent)
		})
	})

	return r
}

// limit returns the rate limit middleware, or a pass-through when no
// limiter is configured.
func limit(l *ratelimit.Limiter, scope string, key ratelimit.KeyFunc, onReject []func(string)) func(http.Handler) http.Handler {
	if l == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return ratelimit.Middleware(l, scope, key, onReject...)
}

// healthHandler reports liveness and, when a store is configured, whether
// it answers a ping.
func healthHandler(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			slog.Warn("health check: store ping failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":   "degraded",
				"database": "unreachable",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"status":   "ok",
			"database": "connected",
		})
	}
}

// slogRequestLogger is a simple structured logging middleware using slog.
func slogRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		pattern := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			pattern = rctx.RoutePattern()
		}
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"pattern", pattern,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"bytes", ww.BytesWritten(),
			"request_id", RequestIDFromContext(r.Context()),
		)
	})
}
