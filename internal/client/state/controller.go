// Package state orchestrates the sync core and publishes one snapshot for the presentation layer.
package state

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/and161185/zone-sharing/internal/model"
)

// Phase is the tag of the application state.
type Phase int

const (
	// Loading is the initial phase and the phase of every running refresh.
	Loading Phase = iota
	// Loaded carries the private and shared posts of the latest refresh.
	Loaded
	// Failed carries the error that ended the latest refresh.
	Failed
)

// String names the phase.
func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "error"
	}
	return "unknown"
}

// State is replaced wholesale on every transition.
type State struct {
	Phase   Phase
	Private []model.Post // set when Loaded
	Shared  []model.Post // set when Loaded
	Err     error        // set when Failed
}

// ZoneEnsurer resolves the home zone.
type ZoneEnsurer interface {
	EnsureUserZoneExists(ctx context.Context) (model.Zone, error)
}

// PostFetcher fetches the private and shared posts.
type PostFetcher interface {
	FetchPrivateAndSharedPosts(ctx context.Context, home model.Zone) (private, shared []model.Post, err error)
}

// PostAdder appends a post to the home zone.
type PostAdder interface {
	Add(ctx context.Context, message string) (model.Post, error)
}

// Controller owns the application state. Only the most recently started
// refresh may publish its result.
type Controller struct {
	zones ZoneEnsurer
	sync  PostFetcher
	posts PostAdder
	log   *zap.Logger

	mu    sync.Mutex
	state State
	gen   uint64
	subs  []func(State)
}

// NewController constructs a controller in the Loading state.
func NewController(zones ZoneEnsurer, sync PostFetcher, posts PostAdder, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{zones: zones, sync: sync, posts: posts, log: log, state: State{Phase: Loading}}
}

// Current returns the current snapshot.
func (c *Controller) Current() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn to receive every published state.
func (c *Controller) Subscribe(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}

// Refresh re-enters Loading, ensures the home zone, fetches posts and publishes
// Loaded or Failed. The error is also returned for callers that want it.
func (c *Controller) Refresh(ctx context.Context) error {
	gen := c.begin()

	home, err := c.zones.EnsureUserZoneExists(ctx)
	if err != nil {
		c.publish(gen, State{Phase: Failed, Err: err})
		return err
	}
	private, shared, err := c.sync.FetchPrivateAndSharedPosts(ctx, home)
	if err != nil {
		c.publish(gen, State{Phase: Failed, Err: err})
		return err
	}
	c.publish(gen, State{Phase: Loaded, Private: private, Shared: shared})
	return nil
}

// AddPost appends a post and refreshes. An add failure is returned and leaves
// the state untouched; refresh failures land in the state only.
func (c *Controller) AddPost(ctx context.Context, message string) error {
	if _, err := c.posts.Add(ctx, message); err != nil {
		return err
	}
	_ = c.Refresh(ctx)
	return nil
}

func (c *Controller) begin() uint64 {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.state = State{Phase: Loading}
	subs := slices.Clone(c.subs)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(State{Phase: Loading})
	}
	return gen
}

func (c *Controller) publish(gen uint64, s State) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		c.log.Debug("dropping superseded refresh result", zap.Stringer("phase", s.Phase))
		return
	}
	c.state = s
	subs := slices.Clone(c.subs)
	c.mu.Unlock()

	if s.Phase == Failed {
		c.log.Warn("refresh failed", zap.Error(s.Err))
	}
	for _, fn := range subs {
		fn(s)
	}
}
