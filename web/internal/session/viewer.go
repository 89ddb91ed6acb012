package session

import (
	"context"
	"sync"

	"github.com/devilmonastery/processo/internal/domain/entities"
)

// Fetcher loads the authenticated user from the backend
type Fetcher func(ctx context.Context) (*entities.User, error)

// Viewer is the current user of one request. It is created by middleware,
// fetched lazily at most once unless refreshed, and cleared on logout.
type Viewer struct {
	fetch Fetcher

	mu     sync.Mutex
	loaded bool
	user   *entities.User
	err    error
}

// NewViewer creates a viewer backed by fetch
func NewViewer(fetch Fetcher) *Viewer {
	return &Viewer{fetch: fetch}
}

// User returns the cached user, fetching it on first use
func (v *Viewer) User(ctx context.Context) (*entities.User, error) {
	if v == nil {
		return nil, ErrNoToken
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.loaded {
		v.load(ctx)
	}
	return v.user, v.err
}

// Refresh drops the cached user and fetches it again
func (v *Viewer) Refresh(ctx context.Context) (*entities.User, error) {
	if v == nil {
		return nil, ErrNoToken
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.load(ctx)
	return v.user, v.err
}

// Clear forgets the user for the rest of the request
func (v *Viewer) Clear() {
	if v == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loaded = true
	v.user = nil
	v.err = ErrNoToken
}

func (v *Viewer) load(ctx context.Context) {
	v.loaded = true
	if v.fetch == nil {
		v.user, v.err = nil, ErrNoToken
		return
	}
	v.user, v.err = v.fetch(ctx)
}

type viewerKey struct{}

// WithViewer attaches v to ctx
func WithViewer(ctx context.Context, v *Viewer) context.Context {
	return context.WithValue(ctx, viewerKey{}, v)
}

// ViewerFromContext returns the request viewer, or nil
func ViewerFromContext(ctx context.Context) *Viewer {
	v, _ := ctx.Value(viewerKey{}).(*Viewer)
	return v
}
