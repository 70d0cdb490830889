package service

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/zone-sharing/internal/errs"
	"github.com/and161185/zone-sharing/internal/model"
	"github.com/and161185/zone-sharing/internal/repository"
)

type fakeAccounts struct {
	byName    map[string]*model.Account
	createErr error
	getErr    error
}

var _ repository.AccountRepository = (*fakeAccounts)(nil)

func (f *fakeAccounts) Create(_ context.Context, a *model.Account) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.byName == nil {
		f.byName = map[string]*model.Account{}
	}
	if _, ok := f.byName[a.Username]; ok {
		return errs.ErrAlreadyExists
	}
	cpy := *a
	f.byName[a.Username] = &cpy
	return nil
}

func (f *fakeAccounts) GetByID(_ context.Context, id uuid.UUID) (*model.Account, error) {
	for _, a := range f.byName {
		if a.ID == id {
			c := *a
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeAccounts) GetByUsername(_ context.Context, username string) (*model.Account, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	a, ok := f.byName[username]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *a
	return &c, nil
}

type fakeLimiter struct {
	allowOK  bool
	allowErr error

	failBlocked bool

	successCalls int
	failureCalls int
}

func (f *fakeLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	return f.allowOK, 0, f.allowErr
}

func (f *fakeLimiter) Success(context.Context, string, []byte) error {
	f.successCalls++
	return nil
}

func (f *fakeLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	f.failureCalls++
	if f.failBlocked {
		return true, time.Minute, nil
	}
	return false, 0, nil
}

func newAccount() uuid.UUID { return uuid.Must(uuid.NewV4()) }
