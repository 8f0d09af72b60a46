package handlers

import (
	"net/http"

	"github.com/AnshRaj112/serenify-journal/internal/logging"
	"github.com/AnshRaj112/serenify-journal/internal/middleware"
	"github.com/AnshRaj112/serenify-journal/internal/models"
	"github.com/AnshRaj112/serenify-journal/internal/services"
)

type GetUsersResponse struct {
	Success bool          `json:"success"`
	Users   []models.User `json:"users"`
	Total   int           `json:"total"`
}

// AdminHandler serves the /admin routes.
type AdminHandler struct {
	users *services.UserService
	cache *services.CacheService
}

func NewAdminHandler(users *services.UserService, cache *services.CacheService) *AdminHandler {
	return &AdminHandler{users: users, cache: cache}
}

// AllUsers handles GET /admin/all-users.
func (h *AdminHandler) AllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, GetUsersResponse{Success: true, Users: users, Total: len(users)})
}

// ClearAppCache handles /admin/clear-app-cache.
func (h *AdminHandler) ClearAppCache(w http.ResponseWriter, r *http.Request) {
	if err := h.cache.Clear(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	logging.WithUser(middleware.UsernameFromContext(r.Context())).Info("app cache cleared")
	writeMessage(w, http.StatusOK, "Cache cleared successfully")
}
