// Package resolve implements the resolution chain every consumer uses to
// obtain analysis records: live fetch, then the cached snapshot, then an
// explicit empty state.
package resolve

import (
	"context"
	"log/slog"

	"github.com/codezelat/pitchlens/internal/scoring"
	"github.com/codezelat/pitchlens/pkg/models"
)

// Source reports which stage of the chain produced a result.
type Source string

const (
	SourceLive  Source = "live"
	SourceCache Source = "cache"
	SourceEmpty Source = "empty"
)

const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 50
)

// Fetcher is the subset of the scoring client the chain needs.
type Fetcher interface {
	Latest(ctx context.Context) (models.AnalysisRecord, error)
	List(ctx context.Context, limit int) ([]models.AnalysisRecord, error)
	Analyze(ctx context.Context, req scoring.AnalyzeRequest) (models.AnalysisRecord, error)
}

// Snapshots is the subset of the snapshot store the chain needs.
type Snapshots interface {
	Save(ctx context.Context, record models.AnalysisRecord)
	ReadSnapshot(ctx context.Context) (models.Snapshot, bool)
}

// Resolution is the outcome of resolving a single latest record.
// When Source is SourceEmpty, Record is the zero value and must not be shown as data.
type Resolution struct {
	Record   models.AnalysisRecord
	Snapshot *models.Snapshot
	Source   Source
}

// Empty reports whether the chain found nothing.
func (r Resolution) Empty() bool {
	return r.Source == SourceEmpty
}

// ListResolution is the outcome of resolving a bounded, most-recent-first list.
type ListResolution struct {
	Records  []models.AnalysisRecord
	Snapshot *models.Snapshot
	Source   Source
}

func (r ListResolution) Empty() bool {
	return r.Source == SourceEmpty
}

// Resolver runs the chain against one scoring client and one snapshot slot.
type Resolver struct {
	fetcher      Fetcher
	snapshots    Snapshots
	historyLimit int
	logger       *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHistoryLimit sets the list size used when a caller does not ask for one.
func WithHistoryLimit(n int) Option {
	return func(r *Resolver) { r.historyLimit = ClampLimit(n, DefaultHistoryLimit) }
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// New creates a Resolver.
func New(fetcher Fetcher, snapshots Snapshots, opts ...Option) *Resolver {
	r := &Resolver{
		fetcher:      fetcher,
		snapshots:    snapshots,
		historyLimit: DefaultHistoryLimit,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithSnapshots returns a Resolver sharing this one's fetcher and settings
// but reading and writing a different snapshot slot.
func (r *Resolver) WithSnapshots(s Snapshots) *Resolver {
	cp := *r
	cp.snapshots = s
	return &cp
}

// Latest resolves the most recent analysis. The live fetch is always
// attempted before the snapshot is consulted. A live result overwrites the snapshot.
func (r *Resolver) Latest(ctx context.Context) Resolution {
	rec, err := r.fetcher.Latest(ctx)
	if err == nil {
		r.snapshots.Save(ctx, rec)
		return Resolution{Record: rec, Source: SourceLive}
	}
	r.logger.Debug("live fetch failed, falling back to snapshot", "op", "latest", "error", err)

	snap, ok := r.snapshots.ReadSnapshot(ctx)
	if !ok {
		return Resolution{Source: SourceEmpty}
	}
	return Resolution{Record: snap.Record, Snapshot: &snap, Source: SourceCache}
}

// Recent resolves up to limit analyses, most recent first. A non-positive
// limit uses the configured default; larger limits are capped at MaxHistoryLimit.
// The cache fallback yields at most the one snapshotted record.
func (r *Resolver) Recent(ctx context.Context, limit int) ListResolution {
	limit = ClampLimit(limit, r.historyLimit)

	recs, err := r.fetcher.List(ctx, limit)
	if err == nil && len(recs) > 0 {
		if len(recs) > limit {
			recs = recs[:limit]
		}
		r.snapshots.Save(ctx, recs[0])
		return ListResolution{Records: recs, Source: SourceLive}
	}
	if err != nil {
		r.logger.Debug("live fetch failed, falling back to snapshot", "op", "recent", "limit", limit, "error", err)
	}

	snap, ok := r.snapshots.ReadSnapshot(ctx)
	if !ok {
		return ListResolution{Records: []models.AnalysisRecord{}, Source: SourceEmpty}
	}
	return ListResolution{
		Records:  []models.AnalysisRecord{snap.Record},
		Snapshot: &snap,
		Source:   SourceCache,
	}
}

// Submit sends a new analysis to the scoring service and snapshots the
// result. Unlike reads there is nothing to fall back to, so errors are returned.
func (r *Resolver) Submit(ctx context.Context, req scoring.AnalyzeRequest) (models.AnalysisRecord, error) {
	rec, err := r.fetcher.Analyze(ctx, req)
	if err != nil {
		return models.AnalysisRecord{}, err
	}
	r.snapshots.Save(ctx, rec)
	return rec, nil
}

// ClampLimit bounds a requested list size to 1..MaxHistoryLimit, using def
// when n is not positive.
func ClampLimit(n, def int) int {
	if n <= 0 {
		n = def
	}
	if n <= 0 {
		n = DefaultHistoryLimit
	}
	if n > MaxHistoryLimit {
		n = MaxHistoryLimit
	}
	return n
}
