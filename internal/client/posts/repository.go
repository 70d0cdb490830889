package posts

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/and161185/zone-sharing/internal/client/remote"
	"github.com/and161185/zone-sharing/internal/client/session"
	"github.com/and161185/zone-sharing/internal/errs"
	"github.com/and161185/zone-sharing/internal/model"
)

// Repository appends posts to the caller's home zone. Posts are never edited or deleted.
type Repository struct {
	store remote.Store
	sess  *session.Session
	log   *zap.Logger
}

// NewRepository constructs a post repository.
func NewRepository(store remote.Store, sess *session.Session, log *zap.Logger) *Repository {
	if log == nil {
		log = zap.NewNop()
	}
	return &Repository{store: store, sess: sess, log: log}
}

// Add saves a post authored by the session's display name.
// The home zone must already be resolved.
func (r *Repository) Add(ctx context.Context, message string) (model.Post, error) {
	if strings.TrimSpace(message) == "" {
		return model.Post{}, errs.ErrEmptyMessage
	}
	home, ok := r.sess.HomeZone()
	if !ok {
		return model.Post{}, errs.ErrZoneNotFound
	}
	author, err := r.sess.ResolveDisplayName(ctx, r.store)
	if err != nil {
		return model.Post{}, err
	}

	saved, err := r.store.SaveRecord(ctx, model.ScopePrivate, ToRecord(model.Post{
		Message: message,
		Author:  author,
		ZoneID:  home.ID,
	}))
	if err != nil {
		r.log.Warn("save post failed", zap.Error(err))
		return model.Post{}, err
	}

	post, ok := FromRecord(saved)
	if !ok {
		// the store echoed something we cannot read; report what we wrote
		post = model.Post{ID: saved.ID, Message: message, Author: author, ZoneID: home.ID, CreatedAt: saved.CreatedAt}
	}
	return post, nil
}
