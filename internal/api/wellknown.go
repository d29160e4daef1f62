package api

import "net/http"

// wellKnownManifest is the static JSON manifest for /.well-known/taskhub.json.
const wellKnownManifest = `{
  "name": "Taskhub",
  "description": "Personal and team task management API",
  "version": "0.1.0",
  "api_base": "/api/v1",
  "auth": {
    "type": "bearer",
    "header": "Authorization",
    "login": "/api/v1/users/login"
  },
  "endpoints": {
    "users": "/api/v1/users",
    "tasks": "/api/v1/tasks",
    "teams": "/api/v1/team",
    "dashboard": "/api/v1/users/dashboard"
  },
  "health": "/health",
  "metrics": "/metrics"
}`

// WellKnownHandler returns the static service manifest.
func WellKnownHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(wellKnownManifest))
}
