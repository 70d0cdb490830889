package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/oklog/ulid/v2"

	"github.com/and161185/zone-sharing/internal/changetoken"
	"github.com/and161185/zone-sharing/internal/errs"
	"github.com/and161185/zone-sharing/internal/model"
	"github.com/and161185/zone-sharing/internal/repository"
)

// RecordService stores records and serves per-zone change feeds.
type RecordService interface {
	// Save stores rec in its zone; the id and creation time are assigned here.
	Save(ctx context.Context, caller uuid.UUID, scope model.Scope, rec model.Record) (model.Record, error)
	// Get returns one record of a zone.
	Get(ctx context.Context, caller uuid.UUID, scope model.Scope, zone model.ZoneID, id string) (model.Record, error)
	// Changes returns the page of the zone's feed after token.
	Changes(ctx context.Context, caller uuid.UUID, scope model.Scope, zone model.ZoneID, token model.ChangeToken) (model.ChangeBatch, error)
}

// RecordServiceImpl implements RecordService.
type RecordServiceImpl struct {
	access   zoneAccess
	records  repository.RecordRepository
	pageSize int
	now      func() time.Time
}

// NewRecordService constructs RecordService. pageSize bounds change batches.
func NewRecordService(zones repository.ZoneRepository, shares repository.ShareRepository, records repository.RecordRepository, pageSize int) *RecordServiceImpl {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &RecordServiceImpl{
		access:   zoneAccess{zones: zones, shares: shares},
		records:  records,
		pageSize: pageSize,
		now:      time.Now,
	}
}

// Save validates the record and appends it to the zone's change feed.
func (s *RecordServiceImpl) Save(ctx context.Context, caller uuid.UUID, scope model.Scope, rec model.Record) (model.Record, error) {
	if rec.Type == "" {
		return model.Record{}, fmt.Errorf("%w: empty record type", errs.ErrValidation)
	}
	if _, err := s.access.write(ctx, caller, scope, rec.ZoneID); err != nil {
		return model.Record{}, err
	}
	rec.ID = ulid.Make().String()
	rec.CreatedAt = s.now().UTC()
	if rec.Fields == nil {
		rec.Fields = map[string]any{}
	}
	if _, err := s.records.Insert(ctx, rec); err != nil {
		return model.Record{}, err
	}
	return rec, nil
}

// Get returns a single record.
func (s *RecordServiceImpl) Get(ctx context.Context, caller uuid.UUID, scope model.Scope, zone model.ZoneID, id string) (model.Record, error) {
	if _, err := s.access.read(ctx, caller, scope, zone); err != nil {
		return model.Record{}, err
	}
	return s.records.Get(ctx, zone, id)
}

// Changes reads one page past the cursor; the extra row tells whether more are pending.
func (s *RecordServiceImpl) Changes(ctx context.Context, caller uuid.UUID, scope model.Scope, zone model.ZoneID, token model.ChangeToken) (model.ChangeBatch, error) {
	if zone.IsDefault() {
		return model.ChangeBatch{NextToken: changetoken.Encode(zone, 0)}, nil
	}
	since, err := changetoken.Decode(zone, token)
	if err != nil {
		return model.ChangeBatch{}, err
	}
	if _, err := s.access.read(ctx, caller, scope, zone); err != nil {
		return model.ChangeBatch{}, err
	}

	recs, vers, err := s.records.ChangesSince(ctx, zone, since, s.pageSize+1)
	if err != nil {
		return model.ChangeBatch{}, err
	}
	batch := model.ChangeBatch{}
	if len(recs) > s.pageSize {
		batch.MorePending = true
		recs, vers = recs[:s.pageSize], vers[:s.pageSize]
	}
	last := since
	if len(vers) > 0 {
		last = vers[len(vers)-1]
	}
	batch.Records = recs
	batch.NextToken = changetoken.Encode(zone, last)
	return batch, nil
}
