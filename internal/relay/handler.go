package relay

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/varsilias/researchpaper/pkg/types"
	"github.com/varsilias/researchpaper/pkg/utils"
)

const maxBodyBytes = 4 << 20

type Handler struct {
	log *slog.Logger
	svc *Service
}

func NewHandler(log *slog.Logger, svc *Service) *Handler {
	return &Handler{log: log, svc: svc}
}

func RegisterRoutes(mux *chi.Mux, h *Handler) {
	mux.Post("/api/chat", h.Chat)
}

// Chat POST /api/chat { messages: [{role, content}] }
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	msgs, err := decodeMessages(w, r)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.svc.Forward(r.Context(), msgs)
	if err != nil {
		WriteError(w, err)
		return
	}
	utils.RawJSON(w, http.StatusOK, resp.Body)
}

func decodeMessages(w http.ResponseWriter, r *http.Request) ([]types.Message, error) {
	var body struct {
		Messages json.RawMessage `json:"messages"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		return nil, errors.New("invalid json")
	}
	var msgs []types.Message
	if len(body.Messages) == 0 || json.Unmarshal(body.Messages, &msgs) != nil || len(msgs) == 0 {
		return nil, errors.New(msgRequired)
	}
	return msgs, nil
}

// WriteError maps relay failures to the response shapes clients expect.
func WriteError(w http.ResponseWriter, err error) {
	var (
		verr *ValidationError
		uerr *UpstreamError
		xerr *UnexpectedError
	)
	details := err
	if errors.As(err, &xerr) && xerr.Err != nil {
		details = xerr.Err
	}
	switch {
	case errors.As(err, &verr):
		utils.Error(w, http.StatusBadRequest, verr.Message)
	case errors.As(err, &uerr):
		utils.JSON(w, uerr.StatusCode, map[string]any{
			"error":      uerr.Error(),
			"status":     uerr.StatusCode,
			"statusText": uerr.StatusText,
		})
	default:
		utils.JSON(w, http.StatusInternalServerError, map[string]any{
			"error":   msgUnexpected,
			"details": details.Error(),
		})
	}
}
