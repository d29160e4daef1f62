package api

import "net/http"

type dashboardHandler struct {
	svc DashboardService
}

func newDashboardHandler(svc DashboardService) *dashboardHandler {
	return &dashboardHandler{svc: svc}
}

// Get handles GET /api/v1/users/dashboard.
func (h *dashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.ForUser(r.Context(), currentUser(r).ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Dashboard fetched successfully", "dashboard", stats)
}
