package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/varsilias/researchpaper/internal/relay"
	"github.com/varsilias/researchpaper/internal/upstream"
	"github.com/varsilias/researchpaper/pkg/utils"
)

// Diagnoser checks the upstream credential and model.
type Diagnoser interface {
	Diagnose(ctx context.Context) (*relay.Diagnostics, error)
}

type Admin struct {
	log *slog.Logger
	d   Diagnoser
}

func NewAdmin(log *slog.Logger, d Diagnoser) *Admin { return &Admin{log: log, d: d} }

// Diagnostics GET /api/diagnostics
//
// A rejected model listing is reported with status 200 and the upstream
// status in the body; anything else is a 500.
func (a *Admin) Diagnostics(w http.ResponseWriter, r *http.Request) {
	d, err := a.d.Diagnose(r.Context())
	if err != nil {
		a.log.Error("diagnostics", "err", err)
		var se *upstream.StatusError
		if errors.As(err, &se) {
			utils.JSON(w, http.StatusOK, map[string]any{
				"error":   true,
				"message": se.Message,
				"status":  se.StatusCode,
			})
			return
		}
		utils.JSON(w, http.StatusInternalServerError, map[string]any{
			"error":   true,
			"message": err.Error(),
		})
		return
	}
	utils.JSON(w, http.StatusOK, d)
}
