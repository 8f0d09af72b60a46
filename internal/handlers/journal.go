package handlers

import (
	"net/http"

	"github.com/AnshRaj112/serenify-journal/internal/middleware"
	"github.com/AnshRaj112/serenify-journal/internal/models"
	"github.com/AnshRaj112/serenify-journal/internal/services"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type JournalResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message,omitempty"`
	Journal *models.JournalEntry `json:"journal,omitempty"`
}

type GetJournalsResponse struct {
	Success  bool                  `json:"success"`
	Journals []models.JournalEntry `json:"journals"`
	Total    int                   `json:"total"`
}

// JournalHandler exposes the entry pipeline to the authenticated user.
// The acting username always comes from the session, never the body.
type JournalHandler struct {
	journal *services.JournalService
}

func NewJournalHandler(journal *services.JournalService) *JournalHandler {
	return &JournalHandler{journal: journal}
}

// List handles GET /journal.
func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.journal.ListEntries(r.Context(), middleware.UsernameFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []models.JournalEntry{}
	}
	writeJSON(w, http.StatusOK, GetJournalsResponse{Success: true, Journals: entries, Total: len(entries)})
}

// Create handles POST /journal.
func (h *JournalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.EntryInput
	if !decodeJSON(w, r, &in) {
		return
	}

	entry, err := h.journal.CreateEntry(r.Context(), in, middleware.UsernameFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, JournalResponse{Success: true, Message: "Journal created successfully", Journal: entry})
}

// Get handles GET /journal/id/{id}.
func (h *JournalHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(w, r)
	if !ok {
		return
	}

	entry, err := h.journal.GetEntry(r.Context(), id, middleware.UsernameFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, JournalResponse{Success: true, Journal: entry})
}

// Update handles PUT /journal/id/{id}.
func (h *JournalHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(w, r)
	if !ok {
		return
	}
	var in services.EntryInput
	if !decodeJSON(w, r, &in) {
		return
	}

	entry, err := h.journal.UpdateEntry(r.Context(), id, in, middleware.UsernameFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, JournalResponse{Success: true, Message: "Journal updated successfully", Journal: entry})
}

// Delete handles DELETE /journal/id/{id}.
func (h *JournalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(w, r)
	if !ok {
		return
	}

	removed, err := h.journal.DeleteEntry(r.Context(), id, middleware.UsernameFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !removed {
		writeMessage(w, http.StatusNotFound, "Journal entry not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func entryID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid journal id")
		return primitive.NilObjectID, false
	}
	return id, true
}
