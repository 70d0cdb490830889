package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	pkgcrypto "github.com/and161185/zone-sharing/internal/crypto"
	"github.com/and161185/zone-sharing/internal/errs"
)

var fastHash = pkgcrypto.NewHasher(pkgcrypto.Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32})

func newAccountSvc(lim *fakeLimiter) (*AccountServiceImpl, *fakeAccounts) {
	repo := &fakeAccounts{}
	return NewAccountService(repo, fastHash, []byte("k"), time.Hour, lim), repo
}

func TestRegister(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, repo := newAccountSvc(&fakeLimiter{allowOK: true})

	id, err := s.Register(ctx, " alice ", "pw", "")
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)
	a := repo.byName["alice"]
	require.NotNil(t, a)
	require.Equal(t, "alice", a.DisplayName)
	require.NotEmpty(t, a.PwdHash)
	require.Len(t, a.SaltAuth, pkgcrypto.SaltLen)

	_, err = s.Register(ctx, "alice", "pw", "Al")
	require.ErrorIs(t, err, errs.ErrAlreadyExists)

	_, err = s.Register(ctx, "", "pw", "")
	require.ErrorIs(t, err, errs.ErrValidation)
	_, err = s.Register(ctx, "bob", "", "")
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestLogin_Success(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	lim := &fakeLimiter{allowOK: true}
	s, _ := newAccountSvc(lim)
	id, err := s.Register(ctx, "alice", "pw", "Alice")
	require.NoError(t, err)

	tok, acc, err := s.LoginWithIP(ctx, "alice", "pw", "10.0.0.1:5555")
	require.NoError(t, err)
	require.Equal(t, id, acc.ID)
	require.Equal(t, 1, lim.successCalls)
	require.True(t, tok.ExpiresAt.After(time.Now()))

	var claims jwt.RegisteredClaims
	_, err = jwt.ParseWithClaims(tok.AccessToken, &claims, func(*jwt.Token) (any, error) { return []byte("k"), nil })
	require.NoError(t, err)
	require.Equal(t, id.String(), claims.Subject)
	require.Equal(t, jwt.ClaimStrings{AccessAudience}, claims.Audience)
}

func TestLogin_WrongPasswordAndUnknownUserLookAlike(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	lim := &fakeLimiter{allowOK: true}
	s, _ := newAccountSvc(lim)
	_, err := s.Register(ctx, "alice", "pw", "")
	require.NoError(t, err)

	_, _, err = s.LoginWithIP(ctx, "alice", "nope", "ip")
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	_, _, err = s.LoginWithIP(ctx, "ghost", "pw", "ip")
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	require.Equal(t, 2, lim.failureCalls)
}

func TestLogin_RateLimited(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, _ := newAccountSvc(&fakeLimiter{allowOK: false})
	_, _, err := s.LoginWithIP(ctx, "alice", "pw", "ip")
	require.ErrorIs(t, err, errs.ErrRateLimited)

	s, _ = newAccountSvc(&fakeLimiter{allowOK: true, failBlocked: true})
	_, _, err = s.LoginWithIP(ctx, "alice", "pw", "ip")
	require.ErrorIs(t, err, errs.ErrRateLimited)
}

func TestLogin_RepositoryErrorPropagates(t *testing.T) {
	t.Parallel()
	boom := errors.New("db down")
	s, repo := newAccountSvc(&fakeLimiter{allowOK: true})
	repo.getErr = boom
	_, _, err := s.LoginWithIP(context.Background(), "alice", "pw", "ip")
	require.ErrorIs(t, err, boom)
}

func TestDisplayName(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newAccountSvc(&fakeLimiter{allowOK: true})
	id, err := s.Register(ctx, "alice", "pw", "Alice A.")
	require.NoError(t, err)

	name, ok, err := s.DisplayName(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Alice A.", name)

	_, _, err = s.DisplayName(ctx, newAccount())
	require.ErrorIs(t, err, errs.ErrNotFound)
}
