package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	mw "github.com/codezelat/pitchlens/internal/api/middleware"
	"github.com/codezelat/pitchlens/internal/api/response"
	"github.com/codezelat/pitchlens/internal/badge"
	"github.com/codezelat/pitchlens/internal/export"
	"github.com/codezelat/pitchlens/internal/resolve"
	"github.com/codezelat/pitchlens/internal/snapshot"
)

// SourceHeader reports which resolution stage supplied a badge's score.
const SourceHeader = "X-PitchLens-Source"

// sourceExplicit marks a score supplied in the query string.
const sourceExplicit = "query"

// Publisher uploads a rendered badge and returns its public URL.
type Publisher interface {
	Publish(ctx context.Context, key string, f export.Format, data []byte) (string, error)
}

// Badges serves badge rendering, download, publishing and share links.
type Badges struct {
	resolver  *resolve.Resolver
	snapshots *snapshot.Store
	raster    badge.Rasterizer
	publisher Publisher
	pageURL   string
}

// NewBadges creates the badge handlers. publisher may be nil, in which case
// the publish endpoint reports PUBLISH_DISABLED.
func NewBadges(resolver *resolve.Resolver, snapshots *snapshot.Store, raster badge.Rasterizer, publisher Publisher, publicBaseURL string) *Badges {
	return &Badges{
		resolver:  resolver,
		snapshots: snapshots,
		raster:    raster,
		publisher: publisher,
		pageURL:   strings.TrimRight(publicBaseURL, "/") + "/badges",
	}
}

// score returns the score to render: the score query parameter when present,
// otherwise the caller's latest resolved analysis, otherwise zero.
func (h *Badges) score(r *http.Request) (int, string, error) {
	if v := r.URL.Query().Get("score"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, "", errors.New("score must be a non-negative integer")
		}
		return n, sourceExplicit, nil
	}

	rv := h.resolver.WithSnapshots(h.snapshots.ForOwner(mw.GetOwner(r)))
	res := rv.Latest(r.Context())
	if res.Empty() {
		return 0, string(resolve.SourceEmpty), nil
	}
	return res.Record.Score, string(res.Source), nil
}

type badgeRequest struct {
	style  badge.Style
	score  int
	source string
}

func (h *Badges) parse(w http.ResponseWriter, r *http.Request) (badgeRequest, bool) {
	style, err := badge.ParseStyle(chi.URLParam(r, "style"))
	if err != nil {
		response.Error(w, http.StatusNotFound, "UNKNOWN_STYLE",
			"Badge style must be one of hero, compact, minimal", nil)
		return badgeRequest{}, false
	}
	score, source, err := h.score(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid badge parameters",
			map[string][]string{"score": {err.Error()}})
		return badgeRequest{}, false
	}
	return badgeRequest{style: style, score: score, source: source}, true
}

func (h *Badges) render(w http.ResponseWriter, r *http.Request, req badgeRequest, f export.Format) ([]byte, bool) {
	data, err := export.Render(r.Context(), h.raster, req.style, f, req.score)
	if err != nil {
		if errors.Is(err, badge.ErrSurfaceUnavailable) {
			response.Error(w, http.StatusServiceUnavailable, "RENDER_UNAVAILABLE",
				"The badge could not be rendered right now", nil)
			return nil, false
		}
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
		return nil, false
	}
	return data, true
}

func setBadgeHeaders(w http.ResponseWriter, req badgeRequest) {
	w.Header().Set(SourceHeader, req.source)
	if req.source == sourceExplicit {
		w.Header().Set("Cache-Control", "public, max-age=86400")
	} else {
		w.Header().Set("Cache-Control", "no-cache")
	}
}

// Render handles GET /api/v1/badges/{style}?format=svg|png|embed. The
// default format is svg so the URL can be used directly as an image source.
func (h *Badges) Render(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parse(w, r)
	if !ok {
		return
	}

	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "embed" {
		html, err := badge.Embed(req.style, req.score)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}
		setBadgeHeaders(w, req)
		response.Raw(w, "text/html; charset=utf-8", []byte(html))
		return
	}
	if format == "" {
		format = string(export.FormatSVG)
	}
	f, err := export.ParseFormat(format)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid badge parameters",
			map[string][]string{"format": {"format must be one of svg, png, embed"}})
		return
	}

	data, ok := h.render(w, r, req, f)
	if !ok {
		return
	}
	setBadgeHeaders(w, req)
	response.Raw(w, f.ContentType(), data)
}

// Download handles GET /api/v1/badges/{style}/download?format=svg|png. The
// attachment name is fixed per format.
func (h *Badges) Download(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parse(w, r)
	if !ok {
		return
	}
	f, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid badge parameters",
			map[string][]string{"format": {"format must be one of svg, png"}})
		return
	}

	data, ok := h.render(w, r, req, f)
	if !ok {
		return
	}
	setBadgeHeaders(w, req)
	response.Attachment(w, f.ContentType(), f.Filename(), data)
}

type publishResponse struct {
	URL    string        `json:"url"`
	Key    string        `json:"key"`
	Style  badge.Style   `json:"style"`
	Format export.Format `json:"format"`
	Score  int           `json:"score"`
}

// Publish handles POST /api/v1/badges/{style}/publish?format=svg|png.
func (h *Badges) Publish(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		response.Error(w, http.StatusServiceUnavailable, "PUBLISH_DISABLED",
			"Badge publishing is not configured", nil)
		return
	}
	req, ok := h.parse(w, r)
	if !ok {
		return
	}
	f, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid badge parameters",
			map[string][]string{"format": {"format must be one of svg, png"}})
		return
	}

	data, ok := h.render(w, r, req, f)
	if !ok {
		return
	}

	key := export.ObjectKey(mw.GetOwner(r), string(req.style), req.score, f)
	link, err := h.publisher.Publish(r.Context(), key, f, data)
	if err != nil {
		response.Error(w, http.StatusBadGateway, "PUBLISH_FAILED",
			"The badge could not be uploaded", nil)
		return
	}

	w.Header().Set(SourceHeader, req.source)
	response.Created(w, publishResponse{
		URL:    link,
		Key:    key,
		Style:  req.style,
		Format: f,
		Score:  req.score,
	})
}

type shareResponse struct {
	Platform export.Platform `json:"platform"`
	URL      string          `json:"url"`
	Message  string          `json:"message"`
	Score    int             `json:"score"`
}

// Share handles GET /api/v1/share/{platform}?score=N. With redirect=1 the
// caller is sent straight to the platform's share intent.
func (h *Badges) Share(w http.ResponseWriter, r *http.Request) {
	platform, err := export.ParsePlatform(chi.URLParam(r, "platform"))
	if err != nil {
		response.Error(w, http.StatusNotFound, "UNKNOWN_PLATFORM",
			"Share platform must be one of twitter, linkedin", nil)
		return
	}
	score, source, err := h.score(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid share parameters",
			map[string][]string{"score": {err.Error()}})
		return
	}

	link, err := export.ShareURL(platform, score, h.pageURL)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
		return
	}

	w.Header().Set(SourceHeader, source)
	if r.URL.Query().Get("redirect") == "1" {
		http.Redirect(w, r, link, http.StatusFound)
		return
	}
	response.JSON(w, shareResponse{
		Platform: platform,
		URL:      link,
		Message:  export.ShareMessage(score),
		Score:    score,
	})
}
