package session

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"

	"github.com/and161185/zone-sharing/internal/model"
)

type fakeResolver struct {
	id    uuid.UUID
	name  string
	ok    bool
	err   error
	calls int
}

func (f *fakeResolver) CallerAccountID(context.Context) (uuid.UUID, error) { return f.id, f.err }

func (f *fakeResolver) DisplayName(context.Context, uuid.UUID) (string, bool, error) {
	f.calls++
	return f.name, f.ok, f.err
}

func TestOpen(t *testing.T) {
	t.Parallel()
	id := uuid.Must(uuid.NewV4())
	s, err := Open(context.Background(), &fakeResolver{id: id})
	require.NoError(t, err)
	require.Equal(t, id, s.AccountID())

	_, err = Open(context.Background(), &fakeResolver{err: errors.New("offline")})
	require.Error(t, err)
}

func TestAttachShare_OnlyHomeZone(t *testing.T) {
	t.Parallel()
	id := uuid.Must(uuid.NewV4())
	s := New(id)
	home := model.ZoneID{Name: "user-x", OwnerID: id}

	s.AttachShare(home, "s1")
	if _, ok := s.HomeZone(); ok {
		t.Fatalf("attach must not resolve the home zone")
	}

	s.SetHomeZone(model.Zone{ID: home})
	s.AttachShare(model.ZoneID{Name: "other", OwnerID: id}, "s2")
	z, _ := s.HomeZone()
	require.False(t, z.HasShare())

	s.AttachShare(home, "s1")
	z, _ = s.HomeZone()
	require.Equal(t, "s1", z.ShareID)
}

func TestResolveDisplayName_CachesAndFallsBack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())

	r := &fakeResolver{name: "Me", ok: true}
	s := New(id)
	for i := 0; i < 3; i++ {
		name, err := s.ResolveDisplayName(ctx, r)
		require.NoError(t, err)
		require.Equal(t, "Me", name)
	}
	require.Equal(t, 1, r.calls)

	s = New(id)
	name, err := s.ResolveDisplayName(ctx, &fakeResolver{})
	require.NoError(t, err)
	require.Equal(t, id.String(), name)
}
