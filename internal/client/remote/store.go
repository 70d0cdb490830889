// Package remote defines the record store capabilities the sync core consumes
// and a gRPC implementation of them.
package remote

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/zone-sharing/internal/model"
)

// Store is the remote record store as seen by one authenticated caller.
//
// Implementations report store conditions through the sentinels in internal/errs:
// CreateZone returns errs.ErrAlreadyExists for a duplicate, GetShare returns
// errs.ErrNotGrant when the id names a regular record.
type Store interface {
	// CreateZone creates a zone owned by the caller.
	CreateZone(ctx context.Context, name string) (model.Zone, error)
	// GetZone loads a zone owned by the caller.
	GetZone(ctx context.Context, id model.ZoneID) (model.Zone, error)
	// ListZones lists zones visible in the scope.
	ListZones(ctx context.Context, scope model.Scope) ([]model.Zone, error)

	// SaveRecord stores a new record and returns it with the store-assigned id.
	SaveRecord(ctx context.Context, scope model.Scope, rec model.Record) (model.Record, error)
	// GetRecord loads a record by id.
	GetRecord(ctx context.Context, scope model.Scope, zone model.ZoneID, id string) (model.Record, error)
	// FetchChanges returns the next page of the zone's change feed after token.
	FetchChanges(ctx context.Context, scope model.Scope, zone model.ZoneID, token model.ChangeToken) (model.ChangeBatch, error)

	// SaveShare persists a grant. If the zone already has one, that grant is returned.
	SaveShare(ctx context.Context, grant model.ShareGrant) (model.ShareGrant, error)
	// GetShare loads a grant by id.
	GetShare(ctx context.Context, id string) (model.ShareGrant, error)
	// AcceptShares joins the caller to the shared zones named by the descriptors.
	// The returned error covers the request as a whole; per-item failures are in the results.
	AcceptShares(ctx context.Context, descs []model.ShareDescriptor) ([]model.AcceptResult, error)

	// CallerAccountID resolves the caller's stable account id.
	CallerAccountID(ctx context.Context) (uuid.UUID, error)
	// DisplayName resolves a human-readable name; ok is false when the account has none.
	DisplayName(ctx context.Context, id uuid.UUID) (name string, ok bool, err error)
}
