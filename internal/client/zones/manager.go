// Package zones resolves the caller's home zone.
package zones

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/zone-sharing/internal/client/remote"
	"github.com/and161185/zone-sharing/internal/client/session"
	"github.com/and161185/zone-sharing/internal/errs"
	"github.com/and161185/zone-sharing/internal/model"
)

// HomeZoneName is the deterministic home zone name for an account.
func HomeZoneName(accountID uuid.UUID) string {
	return "user-" + accountID.String()
}

// Manager creates and discovers the caller's home zone.
type Manager struct {
	store remote.Store
	sess  *session.Session
	log   *zap.Logger
}

// NewManager constructs a zone manager.
func NewManager(store remote.Store, sess *session.Session, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{store: store, sess: sess, log: log}
}

// EnsureUserZoneExists creates the home zone, or loads it when it already
// exists, and caches it in the session.
func (m *Manager) EnsureUserZoneExists(ctx context.Context) (model.Zone, error) {
	name := HomeZoneName(m.sess.AccountID())

	zone, err := m.store.CreateZone(ctx, name)
	switch {
	case err == nil:
		m.log.Debug("home zone created", zap.String("zone", name))
	case errors.Is(err, errs.ErrAlreadyExists):
		// a duplicate create does not return the zone
		zone, err = m.store.GetZone(ctx, model.ZoneID{Name: name, OwnerID: m.sess.AccountID()})
		if err != nil {
			return model.Zone{}, err
		}
	default:
		m.log.Debug("home zone creation failed", zap.String("zone", name), zap.Error(err))
		return model.Zone{}, err
	}

	m.sess.SetHomeZone(zone)
	return zone, nil
}
