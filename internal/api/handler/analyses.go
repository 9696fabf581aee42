package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	mw "github.com/codezelat/pitchlens/internal/api/middleware"
	"github.com/codezelat/pitchlens/internal/api/response"
	"github.com/codezelat/pitchlens/internal/resolve"
	"github.com/codezelat/pitchlens/internal/scoring"
	"github.com/codezelat/pitchlens/internal/snapshot"
	"github.com/codezelat/pitchlens/pkg/models"
)

const maxAnalyzeBody = 64 << 10

// Analyses serves the analysis endpoints. Every request resolves against the
// caller's own snapshot slot.
type Analyses struct {
	resolver  *resolve.Resolver
	snapshots *snapshot.Store
}

func NewAnalyses(resolver *resolve.Resolver, snapshots *snapshot.Store) *Analyses {
	return &Analyses{resolver: resolver, snapshots: snapshots}
}

func (h *Analyses) scoped(r *http.Request) (*resolve.Resolver, *snapshot.Store) {
	s := h.snapshots.ForOwner(mw.GetOwner(r))
	return h.resolver.WithSnapshots(s), s
}

// resolutionMeta describes where a result came from.
type resolutionMeta struct {
	Source  resolve.Source `json:"source"`
	SavedAt *string        `json:"saved_at,omitempty"`
	AgeMs   *int64         `json:"age_ms,omitempty"`
	Stale   bool           `json:"stale"`
	Legacy  bool           `json:"legacy,omitempty"`
}

func newMeta(source resolve.Source, snap *models.Snapshot) resolutionMeta {
	m := resolutionMeta{Source: source}
	if snap == nil {
		return m
	}
	saved := snap.SavedAt.UTC().Format(time.RFC3339Nano)
	age := snap.AgeMs()
	m.SavedAt = &saved
	m.AgeMs = &age
	m.Stale = snap.Stale
	m.Legacy = snap.Legacy
	return m
}

// Latest handles GET /api/v1/analyses/latest. The empty state is a 200 with
// null data and meta.source "empty".
func (h *Analyses) Latest(w http.ResponseWriter, r *http.Request) {
	rv, _ := h.scoped(r)
	res := rv.Latest(r.Context())

	var data any
	if !res.Empty() {
		data = res.Record
	}
	response.WithMeta(w, data, newMeta(res.Source, res.Snapshot))
}

// List handles GET /api/v1/analyses?limit=N.
func (h *Analyses) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"limit must be a positive integer", nil)
			return
		}
		limit = n
	}

	rv, _ := h.scoped(r)
	res := rv.Recent(r.Context(), limit)
	response.WithMeta(w, res.Records, newMeta(res.Source, res.Snapshot))
}

// Analyze handles POST /api/v1/analyze.
func (h *Analyses) Analyze(w http.ResponseWriter, r *http.Request) {
	var in scoring.AnalyzeInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAnalyzeBody)).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}

	scoringReq, err := in.Request()
	if err != nil {
		var verr scoring.ValidationError
		if errors.As(err, &verr) {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid analysis request", verr)
			return
		}
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}

	rv, _ := h.scoped(r)
	rec, err := rv.Submit(r.Context(), scoringReq)
	if err != nil {
		writeScoringError(w, err)
		return
	}
	response.Created(w, rec)
}

// ClearSnapshot handles DELETE /api/v1/snapshot.
func (h *Analyses) ClearSnapshot(w http.ResponseWriter, r *http.Request) {
	_, s := h.scoped(r)
	s.Clear(r.Context())
	response.NoContent(w)
}

func writeScoringError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scoring.ErrTimeout):
		response.Error(w, http.StatusGatewayTimeout, "SCORING_TIMEOUT",
			"The scoring service took too long to respond", nil)
	case errors.Is(err, scoring.ErrUnreachable),
		errors.Is(err, scoring.ErrStatus),
		errors.Is(err, scoring.ErrInvalidBody):
		response.Error(w, http.StatusBadGateway, "SCORING_UNAVAILABLE",
			"The scoring service is not available", nil)
	default:
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
	}
}
