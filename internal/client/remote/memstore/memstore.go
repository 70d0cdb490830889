// Package memstore runs the record-store services in process over the
// in-memory repositories and exposes them as per-account remote.Store values.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/zone-sharing/internal/client/remote"
	"github.com/and161185/zone-sharing/internal/errs"
	"github.com/and161185/zone-sharing/internal/model"
	"github.com/and161185/zone-sharing/internal/repository"
	"github.com/and161185/zone-sharing/internal/repository/memory"
	"github.com/and161185/zone-sharing/internal/service"
)

var signKey = []byte("memstore")

// Backend holds the data of every account.
type Backend struct {
	accounts repository.AccountRepository
	zones    service.ZoneService
	records  service.RecordService
	shares   service.ShareService

	mu    sync.Mutex
	calls map[string]int
}

// New creates an empty backend. pageSize bounds change batches; values <= 0 mean 100.
func New(containerID string, pageSize int) *Backend {
	st := memory.New()
	return &Backend{
		accounts: st.Accounts(),
		zones:    service.NewZoneService(st.Zones()),
		records:  service.NewRecordService(st.Zones(), st.Shares(), st.Records(), pageSize),
		shares:   service.NewShareService(st.Zones(), st.Shares(), st.Records(), signKey, containerID),
		calls:    map[string]int{},
	}
}

// AddAccount registers an account and returns its id. An empty display name
// leaves the account unnamed.
func (b *Backend) AddAccount(displayName string) uuid.UUID {
	id := uuid.Must(uuid.NewV4())
	err := b.accounts.Create(context.Background(), &model.Account{
		ID:          id,
		Username:    id.String(),
		DisplayName: displayName,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		panic(err)
	}
	return id
}

// As returns a Store acting as the given account.
func (b *Backend) As(accountID uuid.UUID) remote.Store {
	return &client{b: b, caller: accountID}
}

// Calls returns how many times the named Store method was invoked.
func (b *Backend) Calls(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method]
}

// TotalCalls returns the number of Store invocations of any kind.
func (b *Backend) TotalCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		n += c
	}
	return n
}

type client struct {
	b      *Backend
	caller uuid.UUID
}

var _ remote.Store = (*client)(nil)

// enter counts the call and fails it when the context is already done.
func (c *client) enter(ctx context.Context, method string) error {
	c.b.mu.Lock()
	c.b.calls[method]++
	c.b.mu.Unlock()
	return ctx.Err()
}

func (c *client) CreateZone(ctx context.Context, name string) (model.Zone, error) {
	if err := c.enter(ctx, "CreateZone"); err != nil {
		return model.Zone{}, err
	}
	return c.b.zones.Create(ctx, c.caller, name)
}

func (c *client) GetZone(ctx context.Context, id model.ZoneID) (model.Zone, error) {
	if err := c.enter(ctx, "GetZone"); err != nil {
		return model.Zone{}, err
	}
	return c.b.zones.Get(ctx, c.caller, id)
}

func (c *client) ListZones(ctx context.Context, scope model.Scope) ([]model.Zone, error) {
	if err := c.enter(ctx, "ListZones"); err != nil {
		return nil, err
	}
	return c.b.zones.List(ctx, c.caller, scope)
}

func (c *client) SaveRecord(ctx context.Context, scope model.Scope, rec model.Record) (model.Record, error) {
	if err := c.enter(ctx, "SaveRecord"); err != nil {
		return model.Record{}, err
	}
	return c.b.records.Save(ctx, c.caller, scope, rec)
}

func (c *client) GetRecord(ctx context.Context, scope model.Scope, zone model.ZoneID, id string) (model.Record, error) {
	if err := c.enter(ctx, "GetRecord"); err != nil {
		return model.Record{}, err
	}
	return c.b.records.Get(ctx, c.caller, scope, zone, id)
}

func (c *client) FetchChanges(ctx context.Context, scope model.Scope, zone model.ZoneID, token model.ChangeToken) (model.ChangeBatch, error) {
	if err := c.enter(ctx, "FetchChanges"); err != nil {
		return model.ChangeBatch{}, err
	}
	return c.b.records.Changes(ctx, c.caller, scope, zone, token)
}

func (c *client) SaveShare(ctx context.Context, g model.ShareGrant) (model.ShareGrant, error) {
	if err := c.enter(ctx, "SaveShare"); err != nil {
		return model.ShareGrant{}, err
	}
	return c.b.shares.Save(ctx, c.caller, g)
}

func (c *client) GetShare(ctx context.Context, id string) (model.ShareGrant, error) {
	if err := c.enter(ctx, "GetShare"); err != nil {
		return model.ShareGrant{}, err
	}
	return c.b.shares.Get(ctx, c.caller, id)
}

func (c *client) AcceptShares(ctx context.Context, descs []model.ShareDescriptor) ([]model.AcceptResult, error) {
	if err := c.enter(ctx, "AcceptShares"); err != nil {
		return nil, err
	}
	return c.b.shares.Accept(ctx, c.caller, descs)
}

func (c *client) CallerAccountID(ctx context.Context) (uuid.UUID, error) {
	if err := c.enter(ctx, "CallerAccountID"); err != nil {
		return uuid.Nil, err
	}
	if _, err := c.b.accounts.GetByID(ctx, c.caller); err != nil {
		return uuid.Nil, errs.ErrUnauthorized
	}
	return c.caller, nil
}

func (c *client) DisplayName(ctx context.Context, id uuid.UUID) (string, bool, error) {
	if err := c.enter(ctx, "DisplayName"); err != nil {
		return "", false, err
	}
	a, err := c.b.accounts.GetByID(ctx, id)
	if err != nil {
		return "", false, err
	}
	return a.DisplayName, a.DisplayName != "", nil
}
