package service

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/zone-sharing/internal/errs"
	"github.com/and161185/zone-sharing/internal/model"
	"github.com/and161185/zone-sharing/internal/repository"
)

// zoneAccess decides whether a caller may read or write a zone in a scope.
// Private scope is limited to the owner; shared scope to accepted participants
// of the zone's grant, and writes there need a read-write grant.
type zoneAccess struct {
	zones  repository.ZoneRepository
	shares repository.ShareRepository
}

func (a zoneAccess) read(ctx context.Context, caller uuid.UUID, scope model.Scope, id model.ZoneID) (model.Zone, error) {
	switch scope {
	case model.ScopePrivate:
		if id.OwnerID != caller {
			return model.Zone{}, errs.ErrPermissionDenied
		}
		return a.zones.Get(ctx, id)
	case model.ScopeShared:
		z, err := a.zones.Get(ctx, id)
		if err != nil {
			return model.Zone{}, err
		}
		if !z.HasShare() {
			return model.Zone{}, errs.ErrPermissionDenied
		}
		ok, err := a.shares.IsParticipant(ctx, z.ShareID, caller)
		if err != nil {
			return model.Zone{}, err
		}
		if !ok {
			return model.Zone{}, errs.ErrPermissionDenied
		}
		return z, nil
	default:
		return model.Zone{}, errs.ErrValidation
	}
}

func (a zoneAccess) write(ctx context.Context, caller uuid.UUID, scope model.Scope, id model.ZoneID) (model.Zone, error) {
	z, err := a.read(ctx, caller, scope, id)
	if err != nil || scope == model.ScopePrivate {
		return z, err
	}
	g, err := a.shares.Get(ctx, z.ShareID)
	if err != nil {
		return model.Zone{}, err
	}
	if g.Permission != model.PermissionReadWrite {
		return model.Zone{}, errs.ErrPermissionDenied
	}
	return z, nil
}
