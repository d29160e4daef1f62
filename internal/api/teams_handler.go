package api

import (
	"encoding/json"
	"net/http"

	"github.com/alecgard/taskhub/internal/team"
	"github.com/go-chi/chi/v5"
)

// teamsHandler groups team and team task HTTP handlers. Authorization lives
// in the team service; handlers only decode, delegate and project.
type teamsHandler struct {
	teams TeamService
}

func newTeamsHandler(teams TeamService) *teamsHandler {
	return &teamsHandler{teams: teams}
}

// teamWithContent is the team projection that includes its task list.
type teamWithContent struct {
	*team.Team
	Content []*team.Content `json:"content"`
}

func withContent(t *team.Team) teamWithContent {
	content := t.Content
	if content == nil {
		content = []*team.Content{}
	}
	return teamWithContent{Team: t, Content: content}
}

type addTasksRequest struct {
	Content json.RawMessage `json:"content"`
}

// CreateTeam handles POST /api/v1/team.
func (h *teamsHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req team.CreateInput
	if !readBody(w, r, &req) {
		return
	}

	t, err := h.teams.CreateTeam(r.Context(), currentUser(r).ID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	auditLog(r, "team.create", "team", t.ID, "name", t.Name, "max_members", t.MaxMembers)
	writeMessage(w, http.StatusCreated, "Team created successfully", "team", t)
}

// ListTeams handles GET /api/v1/team.
func (h *teamsHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teams.ListTeams(r.Context(), currentUser(r).ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Teams listed successfully", "teams", teams)
}

// AddMember handles PUT /api/v1/team/{teamId}/member.
func (h *teamsHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req team.MemberInput
	if !readBody(w, r, &req) {
		return
	}

	teamID := chi.URLParam(r, "teamId")
	t, err := h.teams.AddMember(r.Context(), currentUser(r).ID, teamID, req.MemberID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	auditLog(r, "team.member.add", "team", teamID, "member_id", req.MemberID)
	writeMessage(w, http.StatusOK, "Member added to team successfully", "team", t)
}

// LeaveTeam handles DELETE /api/v1/team/{teamId}/leave.
func (h *teamsHandler) LeaveTeam(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "teamId")
	t, err := h.teams.LeaveTeam(r.Context(), currentUser(r).ID, teamID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	auditLog(r, "team.member.leave", "team", teamID)
	writeMessage(w, http.StatusOK, "You have left the team successfully", "team", t)
}

// EditMaxMembers handles PUT /api/v1/team/{teamId}/maxMembers.
func (h *teamsHandler) EditMaxMembers(w http.ResponseWriter, r *http.Request) {
	var req team.MaxMembersInput
	if !readBody(w, r, &req) {
		return
	}

	teamID := chi.URLParam(r, "teamId")
	t, err := h.teams.EditMaxMembers(r.Context(), currentUser(r).ID, teamID, req.MaxMembers)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	auditLog(r, "team.max_members", "team", teamID, "max_members", t.MaxMembers)
	writeMessage(w, http.StatusOK, "Max members value updated successfully", "team", t)
}

// DeleteTeam handles DELETE /api/v1/team/{teamId}.
func (h *teamsHandler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "teamId")
	if err := h.teams.DeleteTeam(r.Context(), currentUser(r).ID, teamID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	auditLog(r, "team.delete", "team", teamID)
	writeMessage(w, http.StatusOK, "Team deleted successfully")
}

// ListTeamTasks handles GET /api/v1/team/{teamId}/task.
func (h *teamsHandler) ListTeamTasks(w http.ResponseWriter, r *http.Request) {
	t, err := h.teams.ListTeamTasks(r.Context(), currentUser(r).ID, chi.URLParam(r, "teamId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Team tasks listed successfully", "team", withContent(t))
}

// AddTasks handles POST /api/v1/team/{teamId}/task.
func (h *teamsHandler) AddTasks(w http.ResponseWriter, r *http.Request) {
	var req addTasksRequest
	if !readBody(w, r, &req) {
		return
	}

	teamID := chi.URLParam(r, "teamId")
	t, err := h.teams.AddTasks(r.Context(), currentUser(r).ID, teamID, req.Content)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	auditLog(r, "team.task.add", "team", teamID)
	writeMessage(w, http.StatusOK, "Task added to team successfully", "team", withContent(t))
}

// EditContent handles PATCH /api/v1/team/{teamId}/content/{taskId}.
func (h *teamsHandler) EditContent(w http.ResponseWriter, r *http.Request) {
	var req map[string]json.RawMessage
	if !readBody(w, r, &req) {
		return
	}

	teamID, taskID := chi.URLParam(r, "teamId"), chi.URLParam(r, "taskId")
	t, err := h.teams.EditContent(r.Context(), currentUser(r).ID, teamID, taskID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	auditLog(r, "team.task.update", "team_task", taskID, "team_id", teamID)
	writeMessage(w, http.StatusOK, "Task updated successfully", "team", withContent(t))
}

// EditTaskStatus handles PATCH /api/v1/team/{teamId}/task/{taskId}/status.
func (h *teamsHandler) EditTaskStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !readBody(w, r, &req) {
		return
	}

	teamID, taskID := chi.URLParam(r, "teamId"), chi.URLParam(r, "taskId")
	c, err := h.teams.EditTaskStatus(r.Context(), currentUser(r).ID, teamID, taskID, req.Status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	auditLog(r, "team.task.status", "team_task", taskID, "team_id", teamID, "status", c.Status)
	writeMessage(w, http.StatusOK, "Task status updated successfully", "task", c)
}

// DeleteContent handles DELETE /api/v1/team/{teamId}/task/{taskId}.
func (h *teamsHandler) DeleteContent(w http.ResponseWriter, r *http.Request) {
	teamID, taskID := chi.URLParam(r, "teamId"), chi.URLParam(r, "taskId")
	if err := h.teams.DeleteContent(r.Context(), currentUser(r).ID, teamID, taskID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	auditLog(r, "team.task.delete", "team_task", taskID, "team_id", teamID)
	writeMessage(w, http.StatusOK, "Task deleted successfully")
}
