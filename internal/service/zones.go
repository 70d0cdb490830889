package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/zone-sharing/internal/errs"
	"github.com/and161185/zone-sharing/internal/model"
	"github.com/and161185/zone-sharing/internal/repository"
)

// ZoneService manages zones owned by or shared with the caller.
type ZoneService interface {
	Create(ctx context.Context, caller uuid.UUID, name string) (model.Zone, error)
	Get(ctx context.Context, caller uuid.UUID, id model.ZoneID) (model.Zone, error)
	List(ctx context.Context, caller uuid.UUID, scope model.Scope) ([]model.Zone, error)
}

// ZoneServiceImpl implements ZoneService.
type ZoneServiceImpl struct {
	zones repository.ZoneRepository
}

// NewZoneService constructs ZoneService.
func NewZoneService(zones repository.ZoneRepository) *ZoneServiceImpl {
	return &ZoneServiceImpl{zones: zones}
}

const maxZoneName = 255

// Create adds a zone to the caller's account.
func (s *ZoneServiceImpl) Create(ctx context.Context, caller uuid.UUID, name string) (model.Zone, error) {
	if caller == uuid.Nil {
		return model.Zone{}, errs.ErrUnauthorized
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxZoneName || name == model.DefaultZoneName {
		return model.Zone{}, fmt.Errorf("%w: zone name %q", errs.ErrValidation, name)
	}
	return s.zones.Create(ctx, model.ZoneID{Name: name, OwnerID: caller})
}

// Get loads one of the caller's zones. The default zone always exists.
func (s *ZoneServiceImpl) Get(ctx context.Context, caller uuid.UUID, id model.ZoneID) (model.Zone, error) {
	if id.OwnerID != caller {
		return model.Zone{}, errs.ErrPermissionDenied
	}
	if id.IsDefault() {
		return model.Zone{ID: id}, nil
	}
	return s.zones.Get(ctx, id)
}

// List returns the caller's zones in the scope. Private scope includes the default zone.
func (s *ZoneServiceImpl) List(ctx context.Context, caller uuid.UUID, scope model.Scope) ([]model.Zone, error) {
	switch scope {
	case model.ScopePrivate:
		owned, err := s.zones.ListOwned(ctx, caller)
		if err != nil {
			return nil, err
		}
		out := make([]model.Zone, 0, len(owned)+1)
		out = append(out, model.Zone{ID: model.ZoneID{Name: model.DefaultZoneName, OwnerID: caller}})
		return append(out, owned...), nil
	case model.ScopeShared:
		return s.zones.ListShared(ctx, caller)
	default:
		return nil, fmt.Errorf("%w: scope %d", errs.ErrValidation, scope)
	}
}
