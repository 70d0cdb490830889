// Package memory keeps every repository in process memory. The server uses it
// when no database is configured; data is lost on restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/zone-sharing/internal/errs"
	"github.com/and161185/zone-sharing/internal/model"
	"github.com/and161185/zone-sharing/internal/repository"
)

type versioned struct {
	rec model.Record
	ver int64
}

// Store holds the data behind all repositories it hands out.
type Store struct {
	mu           sync.RWMutex
	ver          int64
	accounts     map[uuid.UUID]model.Account
	usernames    map[string]uuid.UUID
	zones        map[model.ZoneID]model.Zone
	records      []versioned
	shares       map[string]model.ShareGrant
	participants map[string]map[uuid.UUID]time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		accounts:     map[uuid.UUID]model.Account{},
		usernames:    map[string]uuid.UUID{},
		zones:        map[model.ZoneID]model.Zone{},
		shares:       map[string]model.ShareGrant{},
		participants: map[string]map[uuid.UUID]time.Time{},
	}
}

// Accounts, Zones, Records and Shares view the same data through the repository interfaces.
func (s *Store) Accounts() repository.AccountRepository { return accounts{s} }
func (s *Store) Zones() repository.ZoneRepository       { return zones{s} }
func (s *Store) Records() repository.RecordRepository   { return records{s} }
func (s *Store) Shares() repository.ShareRepository     { return shares{s} }

type accounts struct{ s *Store }

func (r accounts) Create(_ context.Context, a *model.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.usernames[a.Username]; ok {
		return errs.ErrAlreadyExists
	}
	if _, ok := r.s.accounts[a.ID]; ok {
		return errs.ErrAlreadyExists
	}
	r.s.accounts[a.ID] = *a
	r.s.usernames[a.Username] = a.ID
	return nil
}

func (r accounts) GetByID(_ context.Context, id uuid.UUID) (*model.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &a, nil
}

func (r accounts) GetByUsername(ctx context.Context, username string) (*model.Account, error) {
	r.s.mu.RLock()
	id, ok := r.s.usernames[username]
	r.s.mu.RUnlock()
	if !ok {
		return nil, errs.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

type zones struct{ s *Store }

func (r zones) Create(_ context.Context, id model.ZoneID) (model.Zone, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.zones[id]; ok {
		return model.Zone{}, errs.ErrAlreadyExists
	}
	z := model.Zone{ID: id}
	r.s.zones[id] = z
	return z, nil
}

func (r zones) Get(_ context.Context, id model.ZoneID) (model.Zone, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	z, ok := r.s.zones[id]
	if !ok {
		return model.Zone{}, errs.ErrNotFound
	}
	return z, nil
}

func (r zones) ListOwned(_ context.Context, owner uuid.UUID) ([]model.Zone, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []model.Zone{}
	for id, z := range r.s.zones {
		if id.OwnerID == owner {
			out = append(out, z)
		}
	}
	sortZones(out)
	return out, nil
}

func (r zones) ListShared(_ context.Context, participant uuid.UUID) ([]model.Zone, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []model.Zone{}
	for shareID, ps := range r.s.participants {
		if _, ok := ps[participant]; !ok {
			continue
		}
		if z, ok := r.s.zones[r.s.shares[shareID].ZoneID]; ok {
			out = append(out, z)
		}
	}
	sortZones(out)
	return out, nil
}

func sortZones(zs []model.Zone) {
	sort.Slice(zs, func(i, j int) bool { return zs[i].ID.String() < zs[j].ID.String() })
}

type records struct{ s *Store }

func (r records) Insert(_ context.Context, rec model.Record) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.zones[rec.ZoneID]; !ok {
		return 0, errs.ErrNotFound
	}
	for _, v := range r.s.records {
		if v.rec.ID == rec.ID {
			return 0, errs.ErrAlreadyExists
		}
	}
	r.s.ver++
	r.s.records = append(r.s.records, versioned{rec: rec, ver: r.s.ver})
	return r.s.ver, nil
}

func (r records) Get(_ context.Context, zone model.ZoneID, id string) (model.Record, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, v := range r.s.records {
		if v.rec.ZoneID == zone && v.rec.ID == id {
			return v.rec, nil
		}
	}
	return model.Record{}, errs.ErrNotFound
}

func (r records) Exists(_ context.Context, id string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, v := range r.s.records {
		if v.rec.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (r records) ChangesSince(_ context.Context, zone model.ZoneID, since int64, limit int) ([]model.Record, []int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var (
		recs []model.Record
		vers []int64
	)
	for _, v := range r.s.records {
		if len(recs) == limit {
			break
		}
		if v.rec.ZoneID == zone && v.ver > since {
			recs = append(recs, v.rec)
			vers = append(vers, v.ver)
		}
	}
	return recs, vers, nil
}

type shares struct{ s *Store }

func (r shares) CreateForZone(_ context.Context, g model.ShareGrant) (model.ShareGrant, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	z, ok := r.s.zones[g.ZoneID]
	if !ok {
		return model.ShareGrant{}, false, errs.ErrNotFound
	}
	if z.HasShare() {
		return r.s.shares[z.ShareID], false, nil
	}
	g.Token = ""
	r.s.shares[g.ID] = g
	z.ShareID = g.ID
	r.s.zones[g.ZoneID] = z
	return g, true, nil
}

func (r shares) Get(_ context.Context, id string) (model.ShareGrant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	g, ok := r.s.shares[id]
	if !ok {
		return model.ShareGrant{}, errs.ErrNotFound
	}
	return g, nil
}

func (r shares) AddParticipant(_ context.Context, shareID string, account uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.shares[shareID]; !ok {
		return errs.ErrNotFound
	}
	ps := r.s.participants[shareID]
	if ps == nil {
		ps = map[uuid.UUID]time.Time{}
		r.s.participants[shareID] = ps
	}
	if _, ok := ps[account]; !ok {
		ps[account] = time.Now().UTC()
	}
	return nil
}

func (r shares) IsParticipant(_ context.Context, shareID string, account uuid.UUID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.participants[shareID][account]
	return ok, nil
}
