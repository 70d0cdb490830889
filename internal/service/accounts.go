// Package service contains the record-store application services.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	pkgcrypto "github.com/and161185/zone-sharing/internal/crypto"
	"github.com/and161185/zone-sharing/internal/errs"
	"github.com/and161185/zone-sharing/internal/limiter"
	"github.com/and161185/zone-sharing/internal/model"
	"github.com/and161185/zone-sharing/internal/repository"
)

// AccountService defines registration, login and account lookups.
type AccountService interface {
	// Register creates an account. An empty display name defaults to the username.
	Register(ctx context.Context, username, password, displayName string) (uuid.UUID, error)
	// LoginWithIP applies rate limiting per (username, peer) and issues an access token.
	LoginWithIP(ctx context.Context, username, password, peer string) (model.Tokens, model.Account, error)
	// DisplayName returns the account's display name, if it has one.
	DisplayName(ctx context.Context, id uuid.UUID) (string, bool, error)
}

// AccountServiceImpl implements AccountService.
type AccountServiceImpl struct {
	accounts  repository.AccountRepository
	hasher    *pkgcrypto.Hasher
	signKey   []byte
	accessTTL time.Duration
	lim       limiter.Limiter
	now       func() time.Time
}

// NewAccountService constructs AccountService with required dependencies.
func NewAccountService(accounts repository.AccountRepository, hasher *pkgcrypto.Hasher, signKey []byte, accessTTL time.Duration, lim limiter.Limiter) *AccountServiceImpl {
	return &AccountServiceImpl{
		accounts:  accounts,
		hasher:    hasher,
		signKey:   signKey,
		accessTTL: accessTTL,
		lim:       lim,
		now:       time.Now,
	}
}

// Register creates a new account with a per-account salt.
func (s *AccountServiceImpl) Register(ctx context.Context, username, password, displayName string) (uuid.UUID, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return uuid.Nil, fmt.Errorf("%w: empty username/password", errs.ErrValidation)
	}
	if displayName == "" {
		displayName = username
	}
	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, err
	}
	hash, salt, err := s.hasher.Hash(password)
	if err != nil {
		return uuid.Nil, err
	}
	a := &model.Account{
		ID:          id,
		Username:    username,
		DisplayName: displayName,
		PwdHash:     hash,
		SaltAuth:    salt,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// LoginWithIP authenticates with rate limiting by (username, peer host).
func (s *AccountServiceImpl) LoginWithIP(ctx context.Context, username, password, peer string) (model.Tokens, model.Account, error) {
	peerHash := limiter.HashPeer(peer)

	allowed, _, err := s.lim.Allow(ctx, username, peerHash)
	if err != nil {
		return model.Tokens{}, model.Account{}, err
	}
	if !allowed {
		return model.Tokens{}, model.Account{}, errs.ErrRateLimited
	}

	a, err := s.accounts.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return model.Tokens{}, model.Account{}, err
	}
	if err != nil || !s.hasher.Verify(password, a.SaltAuth, a.PwdHash) {
		if blocked, _, ferr := s.lim.Failure(ctx, username, peerHash); ferr == nil && blocked {
			return model.Tokens{}, model.Account{}, errs.ErrRateLimited
		}
		// unknown username and wrong password look the same
		return model.Tokens{}, model.Account{}, errs.ErrUnauthorized
	}

	_ = s.lim.Success(ctx, username, peerHash)

	access, exp, err := s.issueAccessToken(a.ID)
	if err != nil {
		return model.Tokens{}, model.Account{}, err
	}
	return model.Tokens{AccessToken: access, ExpiresAt: exp}, *a, nil
}

// DisplayName returns the stored display name of an account.
func (s *AccountServiceImpl) DisplayName(ctx context.Context, id uuid.UUID) (string, bool, error) {
	a, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return "", false, err
	}
	return a.DisplayName, a.DisplayName != "", nil
}

// Token audiences. Access and share tokens share a signing key, so each kind
// is only accepted with its own audience.
const (
	AccessAudience = "zs.access"
	ShareAudience  = "zs.share"
)

// issueAccessToken creates a signed HS256 JWT for the given subject.
func (s *AccountServiceImpl) issueAccessToken(id uuid.UUID) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.accessTTL)
	claims := jwt.RegisteredClaims{
		Subject:   id.String(),
		Audience:  jwt.ClaimStrings{AccessAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signKey)
	return signed, exp, err
}
