package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/zone-sharing/internal/model"
)

// ZoneRepository stores zones keyed by (owner, name).
type ZoneRepository interface {
	// Create inserts a zone; errs.ErrAlreadyExists on duplicate.
	Create(ctx context.Context, id model.ZoneID) (model.Zone, error)
	// Get loads a zone.
	Get(ctx context.Context, id model.ZoneID) (model.Zone, error)
	// ListOwned lists zones owned by the account.
	ListOwned(ctx context.Context, owner uuid.UUID) ([]model.Zone, error)
	// ListShared lists zones whose grant the account accepted.
	ListShared(ctx context.Context, participant uuid.UUID) ([]model.Zone, error)
}

// RecordRepository stores records and serves the per-zone change feed.
type RecordRepository interface {
	// Insert stores a record and returns its change version.
	Insert(ctx context.Context, rec model.Record) (int64, error)
	// Get loads a record within a zone.
	Get(ctx context.Context, zone model.ZoneID, id string) (model.Record, error)
	// Exists reports whether any record with the id exists.
	Exists(ctx context.Context, id string) (bool, error)
	// ChangesSince returns up to limit records of the zone with version > since,
	// ordered by version, alongside their versions.
	ChangesSince(ctx context.Context, zone model.ZoneID, since int64, limit int) ([]model.Record, []int64, error)
}

// ShareRepository stores grants and their participants.
type ShareRepository interface {
	// CreateForZone inserts the grant and links it to the zone, or returns the
	// grant already linked to the zone. created reports which happened.
	CreateForZone(ctx context.Context, g model.ShareGrant) (out model.ShareGrant, created bool, err error)
	// Get loads a grant by id.
	Get(ctx context.Context, id string) (model.ShareGrant, error)
	// AddParticipant records that the account joined the grant (idempotent).
	AddParticipant(ctx context.Context, shareID string, account uuid.UUID) error
	// IsParticipant reports whether the account joined the grant.
	IsParticipant(ctx context.Context, shareID string, account uuid.UUID) (bool, error)
}
