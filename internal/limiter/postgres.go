package limiter

import (
	"context"
	"crypto/sha256"
	"errors"
	"net"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of *pgxpool.Pool the limiter needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PG keeps failure counters in the login_limits table.
type PG struct {
	q      Querier
	policy Policy
	now    func() time.Time
}

// NewPG constructs a PostgreSQL-backed limiter. A zero policy means DefaultPolicy.
func NewPG(q Querier, p Policy) *PG {
	if p.MaxFailures <= 0 {
		p = DefaultPolicy
	}
	return &PG{q: q, policy: p, now: time.Now}
}

// HashPeer hashes the host part of a peer address so raw addresses are never stored
// and reconnects from another source port count together.
func HashPeer(addr string) []byte {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	h := sha256.Sum256([]byte(host))
	return h[:]
}

// Allow reports whether login is currently allowed.
func (l *PG) Allow(ctx context.Context, username string, peer []byte) (bool, time.Duration, error) {
	const q = `SELECT blocked_until FROM login_limits WHERE username=$1 AND ip_hash=$2`
	var blockedUntil time.Time
	err := l.q.QueryRow(ctx, q, username, peer).Scan(&blockedUntil)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return true, 0, nil
	case err != nil:
		return false, 0, err
	}
	if now := l.now(); blockedUntil.After(now) {
		return false, blockedUntil.Sub(now), nil
	}
	return true, 0, nil
}

// Success resets counters for (username, peer).
func (l *PG) Success(ctx context.Context, username string, peer []byte) error {
	const q = `
INSERT INTO login_limits (username, ip_hash, fail_count, blocked_until, updated_at)
VALUES ($1, $2, 0, 'epoch', now())
ON CONFLICT (username, ip_hash)
DO UPDATE SET fail_count=0, blocked_until='epoch', updated_at=now()`
	_, err := l.q.Exec(ctx, q, username, peer)
	return err
}

// Failure counts a failed attempt, restarting the count once the window has passed.
func (l *PG) Failure(ctx context.Context, username string, peer []byte) (bool, time.Duration, error) {
	const q = `
INSERT INTO login_limits (username, ip_hash, fail_count, blocked_until, updated_at)
VALUES ($1, $2, 1, 'epoch', now())
ON CONFLICT (username, ip_hash) DO UPDATE
SET
  fail_count = CASE WHEN now() - login_limits.updated_at > $3::interval THEN 1 ELSE login_limits.fail_count + 1 END,
  updated_at = now()
RETURNING fail_count`
	var fails int
	if err := l.q.QueryRow(ctx, q, username, peer, l.policy.Window).Scan(&fails); err != nil {
		return false, 0, err
	}
	if fails < l.policy.MaxFailures {
		return false, 0, nil
	}

	const block = `UPDATE login_limits SET blocked_until=$3 WHERE username=$1 AND ip_hash=$2`
	if _, err := l.q.Exec(ctx, block, username, peer, l.now().Add(l.policy.BlockFor)); err != nil {
		return false, 0, err
	}
	return true, l.policy.BlockFor, nil
}
