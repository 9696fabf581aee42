// Package snapshot persists the most recent analysis so consumers can fall
// back to it when the scoring service is unavailable.
package snapshot

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/codezelat/pitchlens/internal/cache"
	"github.com/codezelat/pitchlens/pkg/models"
)

// savedAtLayout matches the millisecond ISO-8601 form older clients wrote.
const savedAtLayout = "2006-01-02T15:04:05.000Z07:00"

// requiredScores must be present and numeric for a cached record to be usable.
var requiredScores = []string{"score", "clarity", "emotion", "credibility", "market_effectiveness"}

// Store is the Snapshot Cache: one slot holding the last analysis record.
// Save and Clear are best-effort and never report failure to the caller.
type Store struct {
	slot      cache.Cache
	key       string
	retention time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for savedAt and age.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRetention sets how long the backing slot keeps a snapshot. Zero keeps it indefinitely.
func WithRetention(d time.Duration) Option {
	return func(s *Store) { s.retention = d }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New creates a Store over slot using the single-profile key.
func New(slot cache.Cache, opts ...Option) *Store {
	s := &Store{
		slot:   slot,
		key:    cache.SnapshotKey(""),
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ForOwner returns a Store sharing this one's slot and settings but keyed to owner.
func (s *Store) ForOwner(owner string) *Store {
	cp := *s
	cp.key = cache.SnapshotKey(owner)
	return &cp
}

// Key returns the slot key this Store reads and writes.
func (s *Store) Key() string {
	return s.key
}

// payload is the current persisted shape.
type payload struct {
	Record  models.AnalysisRecord `json:"record"`
	SavedAt string                `json:"savedAt"`
}

// Save overwrites the slot with record stamped with the current time.
func (s *Store) Save(ctx context.Context, record models.AnalysisRecord) {
	data, err := json.Marshal(payload{
		Record:  record,
		SavedAt: s.now().UTC().Format(savedAtLayout),
	})
	if err != nil {
		s.logger.Warn("snapshot encode failed", "key", s.key, "error", err)
		return
	}
	if err := s.slot.Set(ctx, s.key, data, s.retention); err != nil {
		s.logger.Warn("snapshot save failed", "key", s.key, "error", err)
	}
}

// ReadSnapshot returns the cached snapshot with age and staleness computed
// against the current time. Missing, unreadable and corrupt slots all report false.
func (s *Store) ReadSnapshot(ctx context.Context) (models.Snapshot, bool) {
	data, ok, err := s.slot.Get(ctx, s.key)
	if err != nil {
		s.logger.Warn("snapshot read failed", "key", s.key, "error", err)
		return models.Snapshot{}, false
	}
	if !ok {
		return models.Snapshot{}, false
	}

	snap, ok := Decode(data, s.now())
	if !ok {
		s.logger.Debug("snapshot payload invalid, treating as absent", "key", s.key)
	}
	return snap, ok
}

// ReadRecord returns only the record portion of ReadSnapshot.
func (s *Store) ReadRecord(ctx context.Context) (models.AnalysisRecord, bool) {
	snap, ok := s.ReadSnapshot(ctx)
	if !ok {
		return models.AnalysisRecord{}, false
	}
	return snap.Record, true
}

// Clear removes the slot.
func (s *Store) Clear(ctx context.Context) {
	if err := s.slot.Delete(ctx, s.key); err != nil {
		s.logger.Warn("snapshot clear failed", "key", s.key, "error", err)
	}
}

// Decode parses a persisted payload in either accepted shape: the wrapped
// {record, savedAt} form, or a bare record written before savedAt existed.
// A top-level "record" key selects the wrapped form.
func Decode(data []byte, now time.Time) (models.Snapshot, bool) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil || top == nil {
		return models.Snapshot{}, false
	}

	if raw, wrapped := top["record"]; wrapped {
		record, ok := decodeRecord(raw)
		if !ok {
			return models.Snapshot{}, false
		}
		var savedAt string
		if rawSaved, ok := top["savedAt"]; ok {
			// A non-string savedAt is ignored and age falls back to createdAt.
			_ = json.Unmarshal(rawSaved, &savedAt)
		}
		return build(record, savedAt, now, false), true
	}

	record, ok := decodeRecord(data)
	if !ok {
		return models.Snapshot{}, false
	}
	return build(record, "", now, true), true
}

func decodeRecord(raw json.RawMessage) (models.AnalysisRecord, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return models.AnalysisRecord{}, false
	}
	for _, name := range requiredScores {
		if !isNumber(fields[name]) {
			return models.AnalysisRecord{}, false
		}
	}

	var record models.AnalysisRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return models.AnalysisRecord{}, false
	}
	return record, true
}

func isNumber(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	c := raw[0]
	return c == '-' || (c >= '0' && c <= '9')
}

// build resolves savedAt, then the record's createdAt, then now, and derives age from it.
func build(record models.AnalysisRecord, savedAt string, now time.Time, legacy bool) models.Snapshot {
	at, ok := models.ParseTimestamp(savedAt)
	if !ok {
		at, ok = record.CreatedTime()
	}
	if !ok {
		at = now
	}

	age := now.Sub(at)
	if age < 0 {
		age = 0
	}
	age = age.Truncate(time.Millisecond)

	return models.Snapshot{
		Record:  record,
		SavedAt: at.UTC(),
		Age:     age,
		Stale:   age > models.StaleAfter,
		Legacy:  legacy,
	}
}
