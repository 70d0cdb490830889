package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/zone-sharing/internal/errs"
	"github.com/and161185/zone-sharing/internal/model"
)

// ZoneRepo implements ZoneRepository using PostgreSQL.
type ZoneRepo struct{ db *DB }

// NewZoneRepo constructs a zone repository.
func NewZoneRepo(db *DB) *ZoneRepo { return &ZoneRepo{db: db} }

// Create inserts a zone row.
func (r *ZoneRepo) Create(ctx context.Context, id model.ZoneID) (model.Zone, error) {
	const q = `INSERT INTO zones (owner_id, name) VALUES ($1, $2)`
	if _, err := r.db.Pool.Exec(ctx, q, id.OwnerID, id.Name); err != nil {
		if isUniqueViolation(err) {
			return model.Zone{}, errs.ErrAlreadyExists
		}
		return model.Zone{}, err
	}
	return model.Zone{ID: id}, nil
}

// Get loads a zone with its share reference.
func (r *ZoneRepo) Get(ctx context.Context, id model.ZoneID) (model.Zone, error) {
	const q = `SELECT share_id FROM zones WHERE owner_id=$1 AND name=$2`
	var shareID *string
	if err := r.db.Pool.QueryRow(ctx, q, id.OwnerID, id.Name).Scan(&shareID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Zone{}, errs.ErrNotFound
		}
		return model.Zone{}, err
	}
	return model.Zone{ID: id, ShareID: deref(shareID)}, nil
}

// ListOwned lists the account's zones ordered by name.
func (r *ZoneRepo) ListOwned(ctx context.Context, owner uuid.UUID) ([]model.Zone, error) {
	const q = `SELECT owner_id, name, share_id FROM zones WHERE owner_id=$1 ORDER BY name`
	return r.list(ctx, q, owner)
}

// ListShared lists zones whose grant the account joined.
func (r *ZoneRepo) ListShared(ctx context.Context, participant uuid.UUID) ([]model.Zone, error) {
	const q = `
SELECT z.owner_id, z.name, z.share_id
FROM zones z
JOIN share_participants p ON p.share_id = z.share_id
WHERE p.account_id=$1
ORDER BY z.owner_id, z.name`
	return r.list(ctx, q, participant)
}

func (r *ZoneRepo) list(ctx context.Context, q string, arg uuid.UUID) ([]model.Zone, error) {
	rows, err := r.db.Pool.Query(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Zone{}
	for rows.Next() {
		var (
			z       model.Zone
			shareID *string
		)
		if err := rows.Scan(&z.ID.OwnerID, &z.ID.Name, &shareID); err != nil {
			return nil, err
		}
		z.ShareID = deref(shareID)
		out = append(out, z)
	}
	return out, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
