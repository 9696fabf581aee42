package resolve

import (
	"context"
	"sync"
)

// View tracks whether a consumer still wants the results of requests it issued.
// Each Begin supersedes the tokens issued before it; Close invalidates all of them.
type View struct {
	mu     sync.Mutex
	gen    uint64
	closed bool
}

// NewView returns an open View.
func NewView() *View {
	return &View{}
}

// Watch returns a View that closes when ctx is done.
func Watch(ctx context.Context) *View {
	v := NewView()
	context.AfterFunc(ctx, v.Close)
	return v
}

// Token is issued to one in-flight request.
type Token struct {
	view *View
	gen  uint64
}

// Begin issues a token for a new request and supersedes earlier ones.
func (v *View) Begin() Token {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gen++
	return Token{view: v, gen: v.gen}
}

// Close marks the consumer as gone. It is safe to call more than once.
func (v *View) Close() {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
}

// Closed reports whether Close has been called.
func (v *View) Closed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

func (v *View) aliveLocked(gen uint64) bool {
	return !v.closed && v.gen == gen
}

// Alive reports whether the token is still current.
func (t Token) Alive() bool {
	if t.view == nil {
		return false
	}
	t.view.mu.Lock()
	defer t.view.mu.Unlock()
	return t.view.aliveLocked(t.gen)
}

// Apply runs fn only if the token is still current, holding the view's lock
// so a concurrent Close or Begin cannot interleave. It reports whether fn ran.
func (t Token) Apply(fn func()) bool {
	if t.view == nil {
		return false
	}
	t.view.mu.Lock()
	defer t.view.mu.Unlock()
	if !t.view.aliveLocked(t.gen) {
		return false
	}
	fn()
	return true
}

// LatestInto resolves the latest record and hands it to apply if tok is still
// current when the chain completes. It reports whether apply ran.
func (r *Resolver) LatestInto(ctx context.Context, tok Token, apply func(Resolution)) bool {
	res := r.Latest(ctx)
	return tok.Apply(func() { apply(res) })
}

// RecentInto is LatestInto for a bounded list.
func (r *Resolver) RecentInto(ctx context.Context, tok Token, limit int, apply func(ListResolution)) bool {
	res := r.Recent(ctx, limit)
	return tok.Apply(func() { apply(res) })
}
