package handlers

import (
	"net/http"

	"github.com/AnshRaj112/serenify-journal/internal/logging"
	"github.com/AnshRaj112/serenify-journal/internal/middleware"
	"github.com/AnshRaj112/serenify-journal/internal/services"
)

// UserHandler lets the authenticated user manage their own account.
type UserHandler struct {
	users    *services.UserService
	sessions *services.SessionService
}

func NewUserHandler(users *services.UserService, sessions *services.SessionService) *UserHandler {
	return &UserHandler{users: users, sessions: sessions}
}

// Greeting handles GET /user.
func (h *UserHandler) Greeting(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusOK, "Hi "+middleware.UsernameFromContext(r.Context()))
}

// Update handles PUT /user. A changed username or password ends the current
// session and the response carries a fresh token.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in services.UpdateProfileInput
	if !decodeJSON(w, r, &in) {
		return
	}

	ctx := r.Context()
	current := middleware.UsernameFromContext(ctx)
	user, err := h.users.UpdateProfile(ctx, current, in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := AuthResponse{Success: true, Message: "User updated successfully", User: user}
	if user.Username != current || in.Password != "" {
		if err := h.sessions.InvalidateUserSessions(ctx, current); err != nil {
			logging.WithUser(current).Warn("failed to invalidate sessions after profile change", "error", err)
		}
		token, err := h.sessions.CreateSession(ctx, user.Username)
		if err != nil {
			writeError(w, r, err)
			return
		}
		resp.Token = token
	}
	writeJSON(w, http.StatusOK, resp)
}

// Delete handles DELETE /user.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := middleware.UsernameFromContext(ctx)

	if err := h.users.DeleteAccount(ctx, username); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.sessions.InvalidateUserSessions(ctx, username); err != nil {
		logging.WithUser(username).Warn("failed to invalidate sessions of deleted user", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}
