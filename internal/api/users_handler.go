package api

import (
	"net/http"

	"github.com/alecgard/taskhub/internal/auth"
	"github.com/alecgard/taskhub/internal/user"
)

// usersHandler groups registration, login and session HTTP handlers.
type usersHandler struct {
	users UserService
}

func newUsersHandler(users UserService) *usersHandler {
	return &usersHandler{users: users}
}

// Register handles POST /api/v1/users/register.
func (h *usersHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req user.RegisterInput
	if !readBody(w, r, &req) {
		return
	}

	u, err := h.users.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	auditLog(r, "user.register", "user", u.ID)
	writeMessage(w, http.StatusCreated, "User created successfully", "user", u)
}

// Login handles POST /api/v1/users/login.
func (h *usersHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req user.LoginInput
	if !readBody(w, r, &req) {
		return
	}

	token, u, err := h.users.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	auditLog(r, "user.login", "user", u.ID)
	writeMessage(w, http.StatusOK, "Login successful", "token", token, "user", u)
}

// Logout handles POST /api/v1/users/logout.
func (h *usersHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Logout(r.Context(), auth.ExtractBearerToken(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Logged out successfully")
}

// Me handles GET /api/v1/users/me.
func (h *usersHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), currentUser(r).ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "User fetched successfully", "user", u)
}

// currentUser returns the authenticated user. Routes using it are mounted
// behind auth.SessionMiddleware, which rejects anonymous requests.
func currentUser(r *http.Request) *auth.User {
	if u := auth.UserFromContext(r.Context()); u != nil {
		return u
	}
	return &auth.User{}
}
