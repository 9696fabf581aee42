package resolve_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/codezelat/pitchlens/internal/cache"
	"github.com/codezelat/pitchlens/internal/resolve"
	"github.com/codezelat/pitchlens/internal/snapshot"
	"github.com/codezelat/pitchlens/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestView_TokenAliveUntilSuperseded(t *testing.T) {
	v := resolve.NewView()

	first := v.Begin()
	assert.True(t, first.Alive())

	second := v.Begin()
	assert.False(t, first.Alive())
	assert.True(t, second.Alive())
}

func TestView_CloseInvalidatesAll(t *testing.T) {
	v := resolve.NewView()
	tok := v.Begin()

	v.Close()
	v.Close()

	assert.True(t, v.Closed())
	assert.False(t, tok.Alive())
	assert.False(t, v.Begin().Alive(), "tokens issued after Close are dead")
}

func TestToken_ApplySkipsSuperseded(t *testing.T) {
	v := resolve.NewView()
	stale := v.Begin()
	fresh := v.Begin()

	var applied []string
	assert.False(t, stale.Apply(func() { applied = append(applied, "stale") }))
	assert.True(t, fresh.Apply(func() { applied = append(applied, "fresh") }))
	assert.Equal(t, []string{"fresh"}, applied)
}

func TestToken_ZeroValueIsDead(t *testing.T) {
	var tok resolve.Token
	assert.False(t, tok.Alive())
	assert.False(t, tok.Apply(func() { t.Fatal("must not run") }))
}

func TestWatch_ClosesWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	v := resolve.Watch(ctx)
	tok := v.Begin()
	require.True(t, tok.Alive())

	cancel()

	assert.Eventually(t, func() bool { return !tok.Alive() }, time.Second, 5*time.Millisecond)
}

func TestLatestInto_DropsResultAfterTeardown(t *testing.T) {
	f := &fakeFetcher{latest: record(1, 87)}
	r := resolve.New(f, snapshot.New(cache.NewMemoryCache()))

	v := resolve.NewView()
	tok := v.Begin()
	v.Close()

	ran := r.LatestInto(context.Background(), tok, func(resolve.Resolution) { t.Fatal("must not apply") })
	assert.False(t, ran)
	assert.Equal(t, 1, f.calls, "the fetch still happens; only the apply is suppressed")
}

func TestRecentInto_OnlyNewestRequestApplies(t *testing.T) {
	f := &fakeFetcher{list: []models.AnalysisRecord{record(1, 50)}}
	r := resolve.New(f, snapshot.New(cache.NewMemoryCache()))
	v := resolve.NewView()

	older := v.Begin()
	newer := v.Begin()

	var mu sync.Mutex
	var got []int
	var wg sync.WaitGroup
	for _, tok := range []resolve.Token{older, newer} {
		wg.Add(1)
		go func(tok resolve.Token) {
			defer wg.Done()
			r.RecentInto(context.Background(), tok, 5, func(res resolve.ListResolution) {
				mu.Lock()
				got = append(got, len(res.Records))
				mu.Unlock()
			})
		}(tok)
	}
	wg.Wait()

	assert.Equal(t, []int{1}, got)
}
