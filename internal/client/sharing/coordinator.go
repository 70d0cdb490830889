// Package sharing issues share grants for the home zone and accepts incoming ones.
package sharing

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/and161185/zone-sharing/internal/client/remote"
	"github.com/and161185/zone-sharing/internal/client/session"
	"github.com/and161185/zone-sharing/internal/errs"
	"github.com/and161185/zone-sharing/internal/model"
)

// Coordinator manages the home zone's grant and joins zones shared by others.
type Coordinator struct {
	store       remote.Store
	sess        *session.Session
	containerID string
	log         *zap.Logger
}

// NewCoordinator constructs a coordinator bound to the configured container id.
func NewCoordinator(store remote.Store, sess *session.Session, containerID string, log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{store: store, sess: sess, containerID: containerID, log: log}
}

// Container returns the container the coordinator is bound to.
func (c *Coordinator) Container() model.Container {
	return model.Container{ID: c.containerID}
}

// FetchOrCreateShare returns the home zone's grant, minting a read-write,
// non-private grant when the zone has none.
func (c *Coordinator) FetchOrCreateShare(ctx context.Context) (model.ShareGrant, model.Container, error) {
	home, ok := c.sess.HomeZone()
	if !ok {
		return model.ShareGrant{}, model.Container{}, errs.ErrZoneNotFound
	}

	if home.HasShare() {
		grant, err := c.store.GetShare(ctx, home.ShareID)
		if errors.Is(err, errs.ErrNotGrant) || (err == nil && grant.ID == "") {
			return model.ShareGrant{}, model.Container{}, errs.ErrInvalidRemoteShare
		}
		if err != nil {
			return model.ShareGrant{}, model.Container{}, err
		}
		return grant, c.Container(), nil
	}

	name, err := c.sess.ResolveDisplayName(ctx, c.store)
	if err != nil {
		return model.ShareGrant{}, model.Container{}, err
	}
	grant, err := c.store.SaveShare(ctx, model.ShareGrant{
		ZoneID:     home.ID,
		Title:      "User: " + name,
		Permission: model.PermissionReadWrite,
		Private:    false,
	})
	if err != nil {
		return model.ShareGrant{}, model.Container{}, err
	}
	c.sess.AttachShare(home.ID, grant.ID)
	c.log.Info("share created", zap.String("share", grant.ID), zap.String("zone", home.ID.String()))
	return grant, c.Container(), nil
}

// Descriptor builds what the owner hands to another account to join the zone.
func Descriptor(g model.ShareGrant, ct model.Container) model.ShareDescriptor {
	return model.ShareDescriptor{
		ContainerID: ct.ID,
		ShareID:     g.ID,
		ZoneName:    g.ZoneID.Name,
		OwnerID:     g.ZoneID.OwnerID.String(),
		Title:       g.Title,
		Token:       g.Token,
	}
}

// Validate checks that the descriptor was issued for this container.
func (c *Coordinator) Validate(d model.ShareDescriptor) error {
	if d.ContainerID != c.containerID {
		return errs.ErrContainerMismatch
	}
	return nil
}

// AcceptIncomingShare validates the descriptor and submits it in the
// background. Outcomes are logged only. The returned channel is closed once
// the acceptance finished or was abandoned.
func (c *Coordinator) AcceptIncomingShare(ctx context.Context, d model.ShareDescriptor) <-chan struct{} {
	done := make(chan struct{})
	if err := c.Validate(d); err != nil {
		c.log.Warn("share container did not match",
			zap.String("container", d.ContainerID),
			zap.String("expected", c.containerID),
		)
		close(done)
		return done
	}

	c.log.Info("accepting share", zap.String("share", d.ShareID), zap.String("title", d.Title))
	go func() {
		defer close(done)
		results, err := c.store.AcceptShares(ctx, []model.ShareDescriptor{d})
		for _, r := range results {
			if r.Err != nil {
				c.log.Error("accept share failed", zap.String("share", r.ShareID), zap.Error(r.Err))
				continue
			}
			c.log.Info("share accepted", zap.String("share", r.ShareID))
		}
		if err != nil {
			c.log.Error("accept shares request failed", zap.Error(err))
		}
	}()
	return done
}
