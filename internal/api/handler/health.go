package handler

import (
	"context"
	"net/http"

	"github.com/codezelat/pitchlens/internal/api/response"
)

// Pinger is implemented by every snapshot slot backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyChecker is implemented by the scoring client.
type ReadyChecker interface {
	Ready(ctx context.Context) error
}

// NewHealthHandler checks the scoring service and the snapshot slot.
func NewHealthHandler(scoring ReadyChecker, slot Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"scoring":  "ok",
			"snapshot": "ok",
		}

		if err := scoring.Ready(r.Context()); err != nil {
			checks["scoring"] = "degraded"
		}
		if err := slot.Ping(r.Context()); err != nil {
			checks["snapshot"] = "degraded"
		}

		degraded := checks["scoring"] != "ok" || checks["snapshot"] != "ok"
		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
