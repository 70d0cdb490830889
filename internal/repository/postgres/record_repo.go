package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/zone-sharing/internal/errs"
	"github.com/and161185/zone-sharing/internal/model"
)

// RecordRepo implements RecordRepository using PostgreSQL. Versions come from
// a single sequence, so they increase across all zones.
type RecordRepo struct{ db *DB }

// NewRecordRepo constructs a record repository.
func NewRecordRepo(db *DB) *RecordRepo { return &RecordRepo{db: db} }

// Insert stores a record and returns its change version.
func (r *RecordRepo) Insert(ctx context.Context, rec model.Record) (int64, error) {
	const q = `
INSERT INTO records (id, owner_id, zone_name, record_type, fields, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ver`
	fields := rec.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	var ver int64
	err := r.db.Pool.QueryRow(ctx, q, rec.ID, rec.ZoneID.OwnerID, rec.ZoneID.Name, rec.Type, fields, rec.CreatedAt).Scan(&ver)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, errs.ErrNotFound
		}
		if isUniqueViolation(err) {
			return 0, errs.ErrAlreadyExists
		}
		return 0, err
	}
	return ver, nil
}

// Get loads a record within a zone.
func (r *RecordRepo) Get(ctx context.Context, zone model.ZoneID, id string) (model.Record, error) {
	const q = `
SELECT id, record_type, fields, created_at
FROM records WHERE owner_id=$1 AND zone_name=$2 AND id=$3`
	rec := model.Record{ZoneID: zone}
	err := r.db.Pool.QueryRow(ctx, q, zone.OwnerID, zone.Name, id).Scan(&rec.ID, &rec.Type, &rec.Fields, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Record{}, errs.ErrNotFound
		}
		return model.Record{}, err
	}
	return rec, nil
}

// Exists reports whether any record carries the id.
func (r *RecordRepo) Exists(ctx context.Context, id string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM records WHERE id=$1)`
	var ok bool
	err := r.db.Pool.QueryRow(ctx, q, id).Scan(&ok)
	return ok, err
}

// ChangesSince returns up to limit records with version greater than since.
func (r *RecordRepo) ChangesSince(ctx context.Context, zone model.ZoneID, since int64, limit int) ([]model.Record, []int64, error) {
	const q = `
SELECT id, record_type, fields, created_at, ver
FROM records
WHERE owner_id=$1 AND zone_name=$2 AND ver>$3
ORDER BY ver ASC
LIMIT $4`
	rows, err := r.db.Pool.Query(ctx, q, zone.OwnerID, zone.Name, since, limit)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var (
		recs []model.Record
		vers []int64
	)
	for rows.Next() {
		var (
			rec model.Record
			ts  time.Time
			ver int64
		)
		if err := rows.Scan(&rec.ID, &rec.Type, &rec.Fields, &ts, &ver); err != nil {
			return nil, nil, err
		}
		rec.ZoneID = zone
		rec.CreatedAt = ts
		recs = append(recs, rec)
		vers = append(vers, ver)
	}
	return recs, vers, rows.Err()
}
