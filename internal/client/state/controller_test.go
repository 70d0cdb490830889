package state

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/zone-sharing/internal/client/posts"
	"github.com/and161185/zone-sharing/internal/client/remote"
	"github.com/and161185/zone-sharing/internal/client/remote/memstore"
	"github.com/and161185/zone-sharing/internal/client/session"
	"github.com/and161185/zone-sharing/internal/client/sharing"
	"github.com/and161185/zone-sharing/internal/client/syncer"
	"github.com/and161185/zone-sharing/internal/client/zones"
	"github.com/and161185/zone-sharing/internal/model"
)

const container = "container.test"

type app struct {
	store remote.Store
	sess  *session.Session
	ctrl  *Controller
	share *sharing.Coordinator
}

func newApp(b *memstore.Backend, name string) *app {
	acc := b.AddAccount(name)
	st := b.As(acc)
	sess := session.New(acc)
	ctrl := NewController(
		zones.NewManager(st, sess, nil),
		syncer.NewEngine(st, nil),
		posts.NewRepository(st, sess, nil),
		nil,
	)
	return &app{store: st, sess: sess, ctrl: ctrl, share: sharing.NewCoordinator(st, sess, container, nil)}
}

func messages(ps []model.Post) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Message)
	}
	sort.Strings(out)
	return out
}

func TestController_InitialStateIsLoading(t *testing.T) {
	t.Parallel()
	c := NewController(nil, nil, nil, nil)
	require.Equal(t, Loading, c.Current().Phase)
}

func TestController_ExampleScenario(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := memstore.New(container, 0)
	me := newApp(b, "Me")
	them := newApp(b, "Them")

	require.NoError(t, me.ctrl.Refresh(ctx))
	require.NoError(t, me.ctrl.AddPost(ctx, "hi"))
	require.NoError(t, me.ctrl.AddPost(ctx, "yo"))

	require.NoError(t, them.ctrl.Refresh(ctx))
	require.NoError(t, them.ctrl.AddPost(ctx, "hey"))
	g, ct, err := them.share.FetchOrCreateShare(ctx)
	require.NoError(t, err)

	<-me.share.AcceptIncomingShare(ctx, sharing.Descriptor(g, ct))

	require.NoError(t, me.ctrl.Refresh(ctx))
	st := me.ctrl.Current()
	require.Equal(t, Loaded, st.Phase)
	require.Equal(t, []string{"hi", "yo"}, messages(st.Private))
	require.Equal(t, []string{"hey"}, messages(st.Shared))
	for _, p := range st.Private {
		require.Equal(t, "Me", p.Author)
	}
	require.Equal(t, "Them", st.Shared[0].Author)
}

func TestController_EveryAddedMessageAppearsOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := memstore.New(container, 3)
	me := newApp(b, "Me")
	require.NoError(t, me.ctrl.Refresh(ctx))

	want := []string{"a", "b", "c", "d", "e", "f", "g"}
	for _, m := range want {
		require.NoError(t, me.ctrl.AddPost(ctx, m))
	}
	require.NoError(t, me.ctrl.Refresh(ctx))
	require.Equal(t, want, messages(me.ctrl.Current().Private))
}

type stubZones struct {
	zone model.Zone
	err  error
}

func (s stubZones) EnsureUserZoneExists(context.Context) (model.Zone, error) { return s.zone, s.err }

type stubFetch struct {
	private, shared []model.Post
	err             error
}

func (s stubFetch) FetchPrivateAndSharedPosts(context.Context, model.Zone) ([]model.Post, []model.Post, error) {
	return s.private, s.shared, s.err
}

type stubAdd struct {
	err   error
	calls int
}

func (s *stubAdd) Add(context.Context, string) (model.Post, error) {
	s.calls++
	return model.Post{}, s.err
}

func TestController_RefreshErrorCapturedVerbatim(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")

	c := NewController(stubZones{err: boom}, stubFetch{}, &stubAdd{}, nil)
	err := c.Refresh(context.Background())
	require.ErrorIs(t, err, boom)
	st := c.Current()
	require.Equal(t, Failed, st.Phase)
	require.Same(t, boom, st.Err)

	c = NewController(stubZones{}, stubFetch{err: boom}, &stubAdd{}, nil)
	_ = c.Refresh(context.Background())
	require.Same(t, boom, c.Current().Err)
}

func TestController_AddFailureLeavesState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	add := &stubAdd{}
	c := NewController(stubZones{}, stubFetch{private: []model.Post{{Message: "x"}}}, add, nil)
	require.NoError(t, c.Refresh(ctx))
	before := c.Current()

	add.err = errors.New("save failed")
	var seen []Phase
	c.Subscribe(func(s State) { seen = append(seen, s.Phase) })

	require.ErrorIs(t, c.AddPost(ctx, "m"), add.err)
	require.Equal(t, before, c.Current())
	require.Empty(t, seen)
}

func TestController_AddSuccessRefreshes(t *testing.T) {
	t.Parallel()
	add := &stubAdd{}
	c := NewController(stubZones{}, stubFetch{private: []model.Post{{Message: "x"}}}, add, nil)

	var seen []Phase
	c.Subscribe(func(s State) { seen = append(seen, s.Phase) })
	require.NoError(t, c.AddPost(context.Background(), "m"))
	require.Equal(t, []Phase{Loading, Loaded}, seen)
	require.Equal(t, 1, add.calls)
}

// gatedFetch blocks the first call until released.
type gatedFetch struct {
	mu      sync.Mutex
	calls   int
	started chan struct{}
	release chan struct{}
}

func (g *gatedFetch) FetchPrivateAndSharedPosts(context.Context, model.Zone) ([]model.Post, []model.Post, error) {
	g.mu.Lock()
	g.calls++
	n := g.calls
	g.mu.Unlock()
	if n == 1 {
		close(g.started)
		<-g.release
		return []model.Post{{Message: "stale"}}, nil, nil
	}
	return []model.Post{{Message: "fresh"}}, nil, nil
}

func TestController_SupersededRefreshDoesNotOverwrite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g := &gatedFetch{started: make(chan struct{}), release: make(chan struct{})}
	c := NewController(stubZones{}, g, &stubAdd{}, nil)

	done := make(chan struct{})
	go func() {
		_ = c.Refresh(ctx)
		close(done)
	}()
	<-g.started
	require.NoError(t, c.Refresh(ctx))
	close(g.release)
	<-done

	st := c.Current()
	require.Equal(t, Loaded, st.Phase)
	require.Equal(t, "fresh", st.Private[0].Message)
}

func TestController_SubscribersSnapshotPerPublish(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := NewController(stubZones{}, stubFetch{}, &stubAdd{}, nil)

	var first, late []Phase
	c.Subscribe(func(s State) {
		first = append(first, s.Phase)
		if len(first) == 1 {
			// registering from a callback must not block or join the running publish
			c.Subscribe(func(s State) { late = append(late, s.Phase) })
		}
	})

	require.NoError(t, c.Refresh(ctx))
	require.Equal(t, []Phase{Loading, Loaded}, first)
	require.Equal(t, []Phase{Loaded}, late)
}

// failingList makes the shared zone listing fail.
type failingList struct {
	remote.Store
	err error
}

func (f failingList) ListZones(ctx context.Context, scope model.Scope) ([]model.Zone, error) {
	if scope == model.ScopeShared {
		return nil, f.err
	}
	return f.Store.ListZones(ctx, scope)
}

func TestController_StoreErrorReachesStateUnchanged(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := memstore.New(container, 0)
	acc := b.AddAccount("Me")
	boom := errors.New("shared listing unavailable")
	st := failingList{Store: b.As(acc), err: boom}
	sess := session.New(acc)

	c := NewController(
		zones.NewManager(st, sess, nil),
		syncer.NewEngine(st, nil),
		posts.NewRepository(st, sess, nil),
		nil,
	)
	require.Same(t, boom, c.Refresh(ctx))
	require.Equal(t, Failed, c.Current().Phase)
	require.Same(t, boom, c.Current().Err)
}
