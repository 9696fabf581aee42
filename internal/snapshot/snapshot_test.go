package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/codezelat/pitchlens/internal/cache"
	"github.com/codezelat/pitchlens/pkg/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 2, 6, 12, 0, 0, 0, time.UTC)}
}

// failingSlot fails every operation, like storage disabled in a private session.
type failingSlot struct{}

var errQuota = errors.New("quota exceeded")

func (failingSlot) Set(context.Context, string, []byte, time.Duration) error { return errQuota }
func (failingSlot) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, errQuota }
func (failingSlot) Delete(context.Context, string) error                     { return errQuota }
func (failingSlot) Ping(context.Context) error                               { return errQuota }

func sampleRecord() models.AnalysisRecord {
	id := int64(42)
	msg := "Our data shows a 20% conversion increase."
	return models.AnalysisRecord{
		AnalysisResult: models.AnalysisResult{
			Score:               87,
			Clarity:             92,
			Emotion:             78,
			Credibility:         85,
			MarketEffectiveness: 81,
			Suggestion:          "Lead with the metric.",
			Insights:            []string{"Add proof", "Shorten the CTA"},
		},
		ID:        &id,
		Input:     models.AnalysisInput{Message: &msg},
		Tone:      models.ToneProfessional,
		Persona:   models.PersonaExpert,
		CreatedAt: "2026-02-06T10:00:00Z",
	}
}

func newStore(t *testing.T, clock *fakeClock) (*Store, *cache.MemoryCache) {
	t.Helper()
	slot := cache.NewMemoryCache()
	return New(slot, WithClock(clock.Now)), slot
}

// --- Save / Read ---

func TestSaveThenReadRecord_RoundTrip(t *testing.T) {
	clock := newClock()
	s, _ := newStore(t, clock)
	ctx := context.Background()

	rec := sampleRecord()
	s.Save(ctx, rec)

	got, ok := s.ReadRecord(ctx)
	require.True(t, ok)
	if diff := cmp.Diff(rec, got); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestSave_PersistsWrappedShape(t *testing.T) {
	clock := newClock()
	s, slot := newStore(t, clock)
	ctx := context.Background()

	s.Save(ctx, sampleRecord())

	raw, ok, err := slot.Get(ctx, cache.SnapshotKeyPrefix)
	require.NoError(t, err)
	require.True(t, ok)

	var p map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &p))
	assert.Contains(t, p, "record")
	assert.JSONEq(t, `"2026-02-06T12:00:00.000Z"`, string(p["savedAt"]))
}

func TestSave_OverwritesPrevious(t *testing.T) {
	clock := newClock()
	s, _ := newStore(t, clock)
	ctx := context.Background()

	first := sampleRecord()
	s.Save(ctx, first)

	second := sampleRecord()
	second.Score = 12
	s.Save(ctx, second)

	got, ok := s.ReadRecord(ctx)
	require.True(t, ok)
	assert.Equal(t, 12, got.Score)
}

func TestSave_LocalOnlyRecordRoundTrips(t *testing.T) {
	clock := newClock()
	s, _ := newStore(t, clock)
	ctx := context.Background()

	rec := sampleRecord()
	rec.ID = nil
	rec.Input = models.AnalysisInput{}
	rec.Insights = nil
	s.Save(ctx, rec)

	got, ok := s.ReadRecord(ctx)
	require.True(t, ok)
	assert.Nil(t, got.ID)
	assert.Nil(t, got.Input.Message)
	assert.Nil(t, got.Input.URL)
}

func TestReadSnapshot_Absent(t *testing.T) {
	s, _ := newStore(t, newClock())
	_, ok := s.ReadSnapshot(context.Background())
	assert.False(t, ok)

	_, ok = s.ReadRecord(context.Background())
	assert.False(t, ok)
}

// --- Staleness ---

func TestStaleness_FreshAfterSave(t *testing.T) {
	clock := newClock()
	s, _ := newStore(t, clock)
	ctx := context.Background()

	s.Save(ctx, sampleRecord())

	snap, ok := s.ReadSnapshot(ctx)
	require.True(t, ok)
	assert.False(t, snap.Stale)
	assert.Equal(t, int64(0), snap.AgeMs())
	assert.Equal(t, clock.Now(), snap.SavedAt)
}

func TestStaleness_Boundary(t *testing.T) {
	clock := newClock()
	s, _ := newStore(t, clock)
	ctx := context.Background()

	s.Save(ctx, sampleRecord())

	clock.Advance(2 * time.Hour)
	snap, ok := s.ReadSnapshot(ctx)
	require.True(t, ok)
	assert.False(t, snap.Stale)
	assert.Equal(t, (2 * time.Hour).Milliseconds(), snap.AgeMs())

	clock.Advance(22 * time.Hour)
	snap, _ = s.ReadSnapshot(ctx)
	assert.False(t, snap.Stale, "exactly 24h is not yet stale")

	clock.Advance(time.Millisecond)
	snap, _ = s.ReadSnapshot(ctx)
	assert.True(t, snap.Stale)
}

func TestStaleness_RepeatedReadsDoNotMutate(t *testing.T) {
	clock := newClock()
	s, _ := newStore(t, clock)
	ctx := context.Background()

	s.Save(ctx, sampleRecord())
	clock.Advance(25 * time.Hour)

	first, _ := s.ReadSnapshot(ctx)
	second, _ := s.ReadSnapshot(ctx)
	assert.Equal(t, first, second)
	assert.True(t, second.Stale)
}

func TestStaleness_FutureSavedAtClampsToZero(t *testing.T) {
	clock := newClock()
	s, _ := newStore(t, clock)
	ctx := context.Background()

	s.Save(ctx, sampleRecord())
	clock.Advance(-time.Hour)

	snap, ok := s.ReadSnapshot(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(0), snap.AgeMs())
	assert.False(t, snap.Stale)
}

// --- Decode ---

func TestDecode_LegacyBareRecord(t *testing.T) {
	now := time.Date(2026, 2, 6, 12, 0, 0, 0, time.UTC)
	data, err := json.Marshal(sampleRecord())
	require.NoError(t, err)

	snap, ok := Decode(data, now)
	require.True(t, ok)
	assert.True(t, snap.Legacy)
	assert.Equal(t, 87, snap.Record.Score)
	assert.Equal(t, (2 * time.Hour).Milliseconds(), snap.AgeMs(), "legacy age comes from createdAt")
}

func TestDecode_BothShapesNormalizeToSameRecord(t *testing.T) {
	now := time.Date(2026, 2, 6, 12, 0, 0, 0, time.UTC)
	rec := sampleRecord()

	bare, err := json.Marshal(rec)
	require.NoError(t, err)
	wrapped, err := json.Marshal(payload{Record: rec, SavedAt: "2026-02-06T10:00:00.000Z"})
	require.NoError(t, err)

	a, ok := Decode(bare, now)
	require.True(t, ok)
	b, ok := Decode(wrapped, now)
	require.True(t, ok)

	if diff := cmp.Diff(a.Record, b.Record); diff != "" {
		t.Errorf("records differ (-bare +wrapped):\n%s", diff)
	}
	assert.Equal(t, a.Age, b.Age)
	assert.False(t, b.Legacy)
}

func TestDecode_SavedAtFallsBackToCreatedAt(t *testing.T) {
	now := time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC)
	data := []byte(`{"record":{"score":87,"clarity":92,"emotion":78,"credibility":85,"market_effectiveness":81,"createdAt":"2026-02-06T12:00:00Z"},"savedAt":"not a date"}`)

	snap, ok := Decode(data, now)
	require.True(t, ok)
	assert.Equal(t, (48 * time.Hour).Milliseconds(), snap.AgeMs())
	assert.True(t, snap.Stale)
}

func TestDecode_NoTimestampsMeansZeroAge(t *testing.T) {
	now := time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC)
	data := []byte(`{"record":{"score":1,"clarity":2,"emotion":3,"credibility":4,"market_effectiveness":5}}`)

	snap, ok := Decode(data, now)
	require.True(t, ok)
	assert.Equal(t, int64(0), snap.AgeMs())
	assert.Equal(t, now, snap.SavedAt)
}

func TestDecode_NaiveServerTimestampIsUTC(t *testing.T) {
	now := time.Date(2026, 2, 6, 13, 0, 0, 0, time.UTC)
	data := []byte(`{"score":1,"clarity":2,"emotion":3,"credibility":4,"market_effectiveness":5,"createdAt":"2026-02-06T12:00:00.123456"}`)

	snap, ok := Decode(data, now)
	require.True(t, ok)
	assert.Equal(t, int64(3599876), snap.AgeMs())
}

func TestDecode_InvalidPayloads(t *testing.T) {
	now := time.Date(2026, 2, 6, 12, 0, 0, 0, time.UTC)
	tests := map[string]string{
		"not json":             `{{{`,
		"json null":            `null`,
		"array":                `[1,2,3]`,
		"string":               `"hello"`,
		"empty object":         `{}`,
		"score as string":      `{"score":"87","clarity":92,"emotion":78,"credibility":85,"market_effectiveness":81}`,
		"missing clarity":      `{"score":87,"emotion":78,"credibility":85,"market_effectiveness":81}`,
		"null emotion":         `{"score":87,"clarity":92,"emotion":null,"credibility":85,"market_effectiveness":81}`,
		"wrapped null record":  `{"record":null,"savedAt":"2026-02-06T10:00:00.000Z"}`,
		"wrapped bad record":   `{"record":{"score":true},"savedAt":"2026-02-06T10:00:00.000Z"}`,
		"wrapped record array": `{"record":[],"savedAt":"2026-02-06T10:00:00.000Z"}`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, ok := Decode([]byte(data), now)
			assert.False(t, ok)
		})
	}
}

func TestReadSnapshot_CorruptSlotIsAbsent(t *testing.T) {
	clock := newClock()
	s, slot := newStore(t, clock)
	ctx := context.Background()

	require.NoError(t, slot.Set(ctx, s.Key(), []byte(`{"score":"high"}`), 0))

	_, ok := s.ReadSnapshot(ctx)
	assert.False(t, ok)
}

// --- Failure handling ---

func TestFailingSlot_NeverSurfaces(t *testing.T) {
	s := New(failingSlot{}, WithClock(newClock().Now))
	ctx := context.Background()

	assert.NotPanics(t, func() {
		s.Save(ctx, sampleRecord())
		s.Clear(ctx)
	})

	_, ok := s.ReadSnapshot(ctx)
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	s, _ := newStore(t, newClock())
	ctx := context.Background()

	s.Save(ctx, sampleRecord())
	s.Clear(ctx)

	_, ok := s.ReadSnapshot(ctx)
	assert.False(t, ok)

	// Clearing an empty slot is fine.
	s.Clear(ctx)
}

// --- Owners ---

func TestForOwner_Isolated(t *testing.T) {
	clock := newClock()
	base, _ := newStore(t, clock)
	ctx := context.Background()

	alice := base.ForOwner(cache.OwnerFromToken("token-a"))
	bob := base.ForOwner(cache.OwnerFromToken("token-b"))

	rec := sampleRecord()
	alice.Save(ctx, rec)

	_, ok := bob.ReadSnapshot(ctx)
	assert.False(t, ok)
	_, ok = base.ReadSnapshot(ctx)
	assert.False(t, ok)

	got, ok := alice.ReadRecord(ctx)
	require.True(t, ok)
	assert.Equal(t, rec.Score, got.Score)
	assert.NotEqual(t, alice.Key(), base.Key())
}

func TestSQLiteSlot_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.db")
	clock := newClock()
	ctx := context.Background()

	slot, err := cache.OpenSQLite(path)
	require.NoError(t, err)
	New(slot, WithClock(clock.Now)).Save(ctx, sampleRecord())
	require.NoError(t, slot.Close())

	reopened, err := cache.OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	clock.Advance(2 * time.Hour)
	snap, ok := New(reopened, WithClock(clock.Now)).ReadSnapshot(ctx)
	require.True(t, ok)
	assert.Equal(t, 87, snap.Record.Score)
	assert.False(t, snap.Stale)
}
