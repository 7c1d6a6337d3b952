package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/varsilias/researchpaper/internal/buildinfo"
	"github.com/varsilias/researchpaper/internal/models"
	"github.com/varsilias/researchpaper/internal/session"
	"github.com/varsilias/researchpaper/pkg/types"
	"github.com/varsilias/researchpaper/pkg/utils"
)

const maxBody = 4 << 20

// History is the saved-chat store behind the history endpoints.
type History interface {
	History() []session.ChatSession
	SaveChat(ctx context.Context, msgs []types.Message) (string, error)
	GetChatByID(id string) (session.ChatSession, bool)
	DeleteChat(ctx context.Context, id string) (bool, error)
	ClearAllHistory(ctx context.Context) error
}

type Handlers struct {
	log     *slog.Logger
	models  models.Manager
	history History
	Admin   *Admin
}

func NewHandlers(log *slog.Logger, manager models.Manager, history History) *Handlers {
	return &Handlers{
		log:     log,
		models:  manager,
		history: history,
	}
}

// Health is a basic liveness endpoint.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	res := map[string]any{
		"status":    true,
		"message":   "researchpaper",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	utils.JSON(w, http.StatusOK, res)
}

func (h *Handlers) Version(w http.ResponseWriter, r *http.Request) {
	res := map[string]any{
		"version":  buildinfo.Version,
		"commit":   buildinfo.Commit,
		"built_at": buildinfo.BuiltAt,
	}

	utils.JSON(w, http.StatusOK, res)
}

// ListModels GET /api/models
func (h *Handlers) ListModels(w http.ResponseWriter, r *http.Request) {
	items, err := h.models.List(r.Context())
	if err != nil {
		h.log.Error("list models", "err", err)
		utils.Error(w, http.StatusBadGateway, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, map[string]any{"models": items})
}

// CheckModel GET /api/models/{id}
func (h *Handlers) CheckModel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "*")
	err := h.models.Healthy(r.Context(), id)
	switch {
	case errors.Is(err, models.ErrUnknownModel):
		utils.JSON(w, http.StatusNotFound, map[string]any{"model": id, "available": false})
	case err != nil:
		h.log.Error("check model", "model", id, "err", err)
		utils.Error(w, http.StatusBadGateway, err.Error())
	default:
		utils.JSON(w, http.StatusOK, map[string]any{"model": id, "available": true})
	}
}

// ListHistory GET /api/history
func (h *Handlers) ListHistory(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, h.history.History())
}

// SaveHistory POST /api/history { messages }
//
// An empty message list saves nothing and answers {"id": null}.
func (h *Handlers) SaveHistory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Messages []types.Message `json:"messages"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	for i, m := range req.Messages {
		if !m.Role.Valid() {
			utils.Error(w, http.StatusBadRequest, fmt.Sprintf("messages[%d]: unsupported role %q", i, m.Role))
			return
		}
	}

	id, err := h.history.SaveChat(r.Context(), req.Messages)
	if err != nil {
		h.log.Error("save chat", "err", err)
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if id == "" {
		utils.JSON(w, http.StatusOK, map[string]any{"id": nil})
		return
	}
	utils.JSON(w, http.StatusCreated, map[string]any{"id": id})
}

// GetHistory GET /api/history/{id}
func (h *Handlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	chat, ok := h.history.GetChatByID(chi.URLParam(r, "id"))
	if !ok {
		utils.Error(w, http.StatusNotFound, session.ErrNotFound.Error())
		return
	}
	utils.JSON(w, http.StatusOK, chat)
}

// DeleteHistory DELETE /api/history/{id}
func (h *Handlers) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	deleted, err := h.history.DeleteChat(r.Context(), id)
	if err != nil {
		h.log.Error("delete chat", "id", id, "err", err)
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !deleted {
		utils.Error(w, http.StatusNotFound, session.ErrNotFound.Error())
		return
	}
	utils.JSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// ClearHistory DELETE /api/history
func (h *Handlers) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.history.ClearAllHistory(r.Context()); err != nil {
		h.log.Error("clear history", "err", err)
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
