// Package syncer drains zone change feeds into posts.
package syncer

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/and161185/zone-sharing/internal/client/posts"
	"github.com/and161185/zone-sharing/internal/client/remote"
	"github.com/and161185/zone-sharing/internal/model"
)

// Engine fetches posts from private and shared zones. Change tokens live only
// for the duration of one fetch; every call starts each zone from the beginning.
type Engine struct {
	store remote.Store
	log   *zap.Logger
}

// NewEngine constructs a sync engine.
func NewEngine(store remote.Store, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{store: store, log: log}
}

// FetchPosts returns the posts of all zones in the scope. Zones are drained
// concurrently; the first failing zone fails the call. Order is preserved
// within a zone but not across zones.
func (e *Engine) FetchPosts(ctx context.Context, scope model.Scope, zones []model.Zone) ([]model.Post, error) {
	if len(zones) == 0 {
		return []model.Post{}, nil
	}

	perZone := make([][]model.Post, len(zones))
	g, gctx := errgroup.WithContext(ctx)
	for i, z := range zones {
		i, z := i, z
		g.Go(func() error {
			ps, err := e.drainZone(gctx, scope, z.ID)
			if err != nil {
				e.log.Debug("zone fetch failed",
					zap.String("scope", scope.String()),
					zap.String("zone", z.ID.String()),
					zap.Error(err),
				)
				return err
			}
			perZone[i] = ps
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]model.Post, 0)
	for _, ps := range perZone {
		out = append(out, ps...)
	}
	return out, nil
}

// drainZone follows one zone's change feed until the store reports no more pending changes.
func (e *Engine) drainZone(ctx context.Context, scope model.Scope, zone model.ZoneID) ([]model.Post, error) {
	if zone.IsDefault() {
		return nil, nil
	}

	var (
		out     []model.Post
		token   model.ChangeToken
		batches int
		dropped int
	)
	for {
		batch, err := e.store.FetchChanges(ctx, scope, zone, token)
		if err != nil {
			return nil, err
		}
		batches++
		for _, rec := range batch.Records {
			p, ok := posts.FromRecord(rec)
			if !ok {
				dropped++
				continue
			}
			out = append(out, p)
		}
		token = batch.NextToken
		if !batch.MorePending {
			break
		}
	}

	e.log.Debug("zone drained",
		zap.String("scope", scope.String()),
		zap.String("zone", zone.String()),
		zap.Int("batches", batches),
		zap.Int("posts", len(out)),
		zap.Int("dropped", dropped),
	)
	return out, nil
}

// FetchPrivateAndSharedPosts fetches the home zone's posts and the posts of
// every zone shared with the caller. The two scopes are fetched concurrently.
func (e *Engine) FetchPrivateAndSharedPosts(ctx context.Context, home model.Zone) (private, shared []model.Post, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ps, err := e.FetchPosts(gctx, model.ScopePrivate, []model.Zone{home})
		if err != nil {
			return err
		}
		private = ps
		return nil
	})
	g.Go(func() error {
		zs, err := e.store.ListZones(gctx, model.ScopeShared)
		if err != nil {
			e.log.Debug("list shared zones failed", zap.Error(err))
			return err
		}
		ps, err := e.FetchPosts(gctx, model.ScopeShared, zs)
		if err != nil {
			return err
		}
		shared = ps
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return private, shared, nil
}
