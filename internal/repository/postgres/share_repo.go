package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/zone-sharing/internal/errs"
	"github.com/and161185/zone-sharing/internal/model"
)

// ShareRepo implements ShareRepository using PostgreSQL.
type ShareRepo struct{ db *DB }

// NewShareRepo constructs a share repository.
func NewShareRepo(db *DB) *ShareRepo { return &ShareRepo{db: db} }

const selectShare = `
SELECT id, owner_id, zone_name, title, permission, private, created_at
FROM shares WHERE id=$1`

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getShare(ctx context.Context, q rowQuerier, id string) (model.ShareGrant, error) {
	var (
		g    model.ShareGrant
		perm string
	)
	err := q.QueryRow(ctx, selectShare, id).
		Scan(&g.ID, &g.ZoneID.OwnerID, &g.ZoneID.Name, &g.Title, &perm, &g.Private, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ShareGrant{}, errs.ErrNotFound
		}
		return model.ShareGrant{}, err
	}
	g.Permission = model.ParsePermission(perm)
	return g, nil
}

// CreateForZone links a new grant to the zone unless one is linked already.
// The zone row is locked so concurrent callers cannot both insert.
func (r *ShareRepo) CreateForZone(ctx context.Context, g model.ShareGrant) (out model.ShareGrant, created bool, err error) {
	const lock = `SELECT share_id FROM zones WHERE owner_id=$1 AND name=$2 FOR UPDATE`
	const ins = `
INSERT INTO shares (id, owner_id, zone_name, title, permission, private, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	const link = `UPDATE zones SET share_id=$3 WHERE owner_id=$1 AND name=$2`

	err = r.db.inTx(ctx, func(tx pgx.Tx) error {
		var existing *string
		if err := tx.QueryRow(ctx, lock, g.ZoneID.OwnerID, g.ZoneID.Name).Scan(&existing); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return errs.ErrNotFound
			}
			return err
		}
		if existing != nil {
			var err error
			out, err = getShare(ctx, tx, *existing)
			return err
		}
		if _, err := tx.Exec(ctx, ins, g.ID, g.ZoneID.OwnerID, g.ZoneID.Name, g.Title, g.Permission.String(), g.Private, g.CreatedAt); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, link, g.ZoneID.OwnerID, g.ZoneID.Name, g.ID); err != nil {
			return err
		}
		out, created = g, true
		return nil
	})
	if err != nil {
		return model.ShareGrant{}, false, err
	}
	return out, created, nil
}

// Get loads a grant by id.
func (r *ShareRepo) Get(ctx context.Context, id string) (model.ShareGrant, error) {
	return getShare(ctx, r.db.Pool, id)
}

// AddParticipant records a join; joining twice is a no-op.
func (r *ShareRepo) AddParticipant(ctx context.Context, shareID string, account uuid.UUID) error {
	const q = `
INSERT INTO share_participants (share_id, account_id) VALUES ($1, $2)
ON CONFLICT (share_id, account_id) DO NOTHING`
	_, err := r.db.Pool.Exec(ctx, q, shareID, account)
	if isForeignKeyViolation(err) {
		return errs.ErrNotFound
	}
	return err
}

// IsParticipant reports whether the account joined the grant.
func (r *ShareRepo) IsParticipant(ctx context.Context, shareID string, account uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM share_participants WHERE share_id=$1 AND account_id=$2)`
	var ok bool
	err := r.db.Pool.QueryRow(ctx, q, shareID, account).Scan(&ok)
	return ok, err
}
