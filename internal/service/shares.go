package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"

	"github.com/and161185/zone-sharing/internal/errs"
	"github.com/and161185/zone-sharing/internal/model"
	"github.com/and161185/zone-sharing/internal/repository"
)

// ShareService creates grants and lets other accounts join them.
type ShareService interface {
	// Save creates the zone's grant, or returns the one it already has.
	Save(ctx context.Context, caller uuid.UUID, g model.ShareGrant) (model.ShareGrant, error)
	// Get loads a grant. The capability token is only returned to the owner.
	Get(ctx context.Context, caller uuid.UUID, id string) (model.ShareGrant, error)
	// Accept joins the caller to every grant named by the descriptors.
	Accept(ctx context.Context, caller uuid.UUID, descs []model.ShareDescriptor) ([]model.AcceptResult, error)
}

// ShareServiceImpl implements ShareService over the repositories.
type ShareServiceImpl struct {
	zones       repository.ZoneRepository
	shares      repository.ShareRepository
	records     repository.RecordRepository
	signKey     []byte
	containerID string
	now         func() time.Time
}

// NewShareService constructs ShareService. signKey signs capability tokens;
// containerID names this deployment in them.
func NewShareService(zones repository.ZoneRepository, shares repository.ShareRepository, records repository.RecordRepository, signKey []byte, containerID string) *ShareServiceImpl {
	return &ShareServiceImpl{
		zones:       zones,
		shares:      shares,
		records:     records,
		signKey:     signKey,
		containerID: containerID,
		now:         time.Now,
	}
}

// shareClaims is the payload of a capability token. The subject is the zone owner.
type shareClaims struct {
	ShareID   string `json:"sid"`
	Zone      string `json:"zone"`
	Container string `json:"ctr"`
	jwt.RegisteredClaims
}

// Save creates a grant for one of the caller's zones.
func (s *ShareServiceImpl) Save(ctx context.Context, caller uuid.UUID, g model.ShareGrant) (model.ShareGrant, error) {
	if g.ZoneID.OwnerID != caller {
		return model.ShareGrant{}, errs.ErrPermissionDenied
	}
	if g.ZoneID.IsDefault() {
		return model.ShareGrant{}, fmt.Errorf("%w: default zone cannot be shared", errs.ErrValidation)
	}
	if _, err := s.zones.Get(ctx, g.ZoneID); err != nil {
		return model.ShareGrant{}, err
	}
	g.ID = ulid.Make().String()
	g.CreatedAt = s.now().UTC().Truncate(time.Second)

	out, _, err := s.shares.CreateForZone(ctx, g)
	if err != nil {
		return model.ShareGrant{}, err
	}
	// the token is derived from stored fields, so an existing grant gets the same token back
	if out.Token, err = s.sign(out); err != nil {
		return model.ShareGrant{}, err
	}
	return out, nil
}

// Get resolves id to a grant, telling regular records apart from missing ids.
func (s *ShareServiceImpl) Get(ctx context.Context, caller uuid.UUID, id string) (model.ShareGrant, error) {
	g, err := s.shares.Get(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		isRecord, rerr := s.records.Exists(ctx, id)
		if rerr != nil {
			return model.ShareGrant{}, rerr
		}
		if isRecord {
			return model.ShareGrant{}, errs.ErrNotGrant
		}
		return model.ShareGrant{}, errs.ErrNotFound
	}
	if err != nil {
		return model.ShareGrant{}, err
	}
	if g.ZoneID.OwnerID == caller {
		if g.Token, err = s.sign(g); err != nil {
			return model.ShareGrant{}, err
		}
	}
	return g, nil
}

// Accept validates each descriptor independently and records the caller as participant.
func (s *ShareServiceImpl) Accept(ctx context.Context, caller uuid.UUID, descs []model.ShareDescriptor) ([]model.AcceptResult, error) {
	if caller == uuid.Nil {
		return nil, errs.ErrUnauthorized
	}
	out := make([]model.AcceptResult, 0, len(descs))
	for _, d := range descs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, model.AcceptResult{ShareID: d.ShareID, Err: s.accept(ctx, caller, d)})
	}
	return out, nil
}

func (s *ShareServiceImpl) accept(ctx context.Context, caller uuid.UUID, d model.ShareDescriptor) error {
	if d.ContainerID != s.containerID {
		return fmt.Errorf("%w: container %q", errs.ErrPermissionDenied, d.ContainerID)
	}
	claims, err := s.verify(d.Token)
	if err != nil || claims.ShareID != d.ShareID {
		return fmt.Errorf("%w: bad share token", errs.ErrPermissionDenied)
	}
	g, err := s.shares.Get(ctx, d.ShareID)
	if err != nil {
		return err
	}
	if g.ZoneID.Name != claims.Zone || g.ZoneID.OwnerID.String() != claims.Subject {
		return fmt.Errorf("%w: share token does not match grant", errs.ErrPermissionDenied)
	}
	if g.Private {
		return fmt.Errorf("%w: share is private", errs.ErrPermissionDenied)
	}
	if g.ZoneID.OwnerID == caller {
		return fmt.Errorf("%w: owner cannot join own share", errs.ErrValidation)
	}
	return s.shares.AddParticipant(ctx, g.ID, caller)
}

func (s *ShareServiceImpl) sign(g model.ShareGrant) (string, error) {
	claims := shareClaims{
		ShareID:   g.ID,
		Zone:      g.ZoneID.Name,
		Container: s.containerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  g.ZoneID.OwnerID.String(),
			Audience: jwt.ClaimStrings{ShareAudience},
			IssuedAt: jwt.NewNumericDate(g.CreatedAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signKey)
}

func (s *ShareServiceImpl) verify(tok string) (*shareClaims, error) {
	var claims shareClaims
	_, err := jwt.ParseWithClaims(tok, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.signKey, nil
	}, jwt.WithAudience(ShareAudience))
	if err != nil {
		return nil, err
	}
	if claims.Container != s.containerID {
		return nil, errs.ErrPermissionDenied
	}
	return &claims, nil
}
