package service

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/and161185/zone-sharing/internal/errs"
	"github.com/and161185/zone-sharing/internal/model"
)

func TestShareService_SaveIsIdempotentPerZone(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newRecordEnv(0)
	owner := newAccount()
	z, err := env.zones.Create(ctx, model.ZoneID{Name: "user-o", OwnerID: owner})
	require.NoError(t, err)

	g1, err := env.shares.Save(ctx, owner, model.ShareGrant{ZoneID: z.ID, Title: "User: O", Permission: model.PermissionReadWrite})
	require.NoError(t, err)
	require.NotEmpty(t, g1.ID)
	require.NotEmpty(t, g1.Token)

	g2, err := env.shares.Save(ctx, owner, model.ShareGrant{ZoneID: z.ID, Title: "again"})
	require.NoError(t, err)
	require.Equal(t, g1.ID, g2.ID)
	require.Equal(t, g1.Token, g2.Token)
	require.Equal(t, "User: O", g2.Title)

	stored, err := env.zones.Get(ctx, z.ID)
	require.NoError(t, err)
	require.Equal(t, g1.ID, stored.ShareID)
}

func TestShareService_SaveRejectsForeignAndDefaultZones(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newRecordEnv(0)
	owner := newAccount()
	z, err := env.zones.Create(ctx, model.ZoneID{Name: "a", OwnerID: owner})
	require.NoError(t, err)

	_, err = env.shares.Save(ctx, newAccount(), model.ShareGrant{ZoneID: z.ID})
	require.ErrorIs(t, err, errs.ErrPermissionDenied)
	_, err = env.shares.Save(ctx, owner, model.ShareGrant{ZoneID: model.ZoneID{Name: model.DefaultZoneName, OwnerID: owner}})
	require.ErrorIs(t, err, errs.ErrValidation)
	_, err = env.shares.Save(ctx, owner, model.ShareGrant{ZoneID: model.ZoneID{Name: "missing", OwnerID: owner}})
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestShareService_Get(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newRecordEnv(0)
	owner, other := newAccount(), newAccount()
	z, err := env.zones.Create(ctx, model.ZoneID{Name: "a", OwnerID: owner})
	require.NoError(t, err)
	g, err := env.shares.Save(ctx, owner, model.ShareGrant{ZoneID: z.ID})
	require.NoError(t, err)
	rec, err := env.records.Save(ctx, owner, model.ScopePrivate, model.Record{ZoneID: z.ID, Type: "T"})
	require.NoError(t, err)

	got, err := env.shares.Get(ctx, owner, g.ID)
	require.NoError(t, err)
	require.Equal(t, g.Token, got.Token)

	got, err = env.shares.Get(ctx, other, g.ID)
	require.NoError(t, err)
	require.Empty(t, got.Token)

	_, err = env.shares.Get(ctx, owner, rec.ID)
	require.ErrorIs(t, err, errs.ErrNotGrant)
	_, err = env.shares.Get(ctx, owner, "nothing")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestShareService_AcceptPerItemResults(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newRecordEnv(0)
	owner, other := newAccount(), newAccount()
	z, err := env.zones.Create(ctx, model.ZoneID{Name: "a", OwnerID: owner})
	require.NoError(t, err)
	g, err := env.shares.Save(ctx, owner, model.ShareGrant{ZoneID: z.ID})
	require.NoError(t, err)

	priv, err := env.zones.Create(ctx, model.ZoneID{Name: "p", OwnerID: owner})
	require.NoError(t, err)
	pg, err := env.shares.Save(ctx, owner, model.ShareGrant{ZoneID: priv.ID, Private: true})
	require.NoError(t, err)

	other2 := NewShareService(env.st.Zones(), env.st.Shares(), env.st.Records(), []byte("other-key"), "c1")
	z2, err := env.zones.Create(ctx, model.ZoneID{Name: "b", OwnerID: owner})
	require.NoError(t, err)
	forged, err := other2.Save(ctx, owner, model.ShareGrant{ZoneID: z2.ID})
	require.NoError(t, err)

	descs := []model.ShareDescriptor{
		{ContainerID: "c1", ShareID: g.ID, Token: g.Token},
		{ContainerID: "c2", ShareID: g.ID, Token: g.Token},
		{ContainerID: "c1", ShareID: pg.ID, Token: pg.Token},
		{ContainerID: "c1", ShareID: forged.ID, Token: forged.Token},
		{ContainerID: "c1", ShareID: pg.ID, Token: g.Token},
	}
	res, err := env.shares.Accept(ctx, other, descs)
	require.NoError(t, err)
	require.Len(t, res, len(descs))
	require.NoError(t, res[0].Err)
	for _, r := range res[1:] {
		require.ErrorIs(t, r.Err, errs.ErrPermissionDenied)
	}

	// accepting twice is fine
	res, err = env.shares.Accept(ctx, other, descs[:1])
	require.NoError(t, err)
	require.NoError(t, res[0].Err)

	zs, err := env.zones.ListShared(ctx, other)
	require.NoError(t, err)
	require.Len(t, zs, 1)
	require.Equal(t, z.ID, zs[0].ID)

	res, err = env.shares.Accept(ctx, owner, descs[:1])
	require.NoError(t, err)
	require.ErrorIs(t, res[0].Err, errs.ErrValidation)
}

func TestShareService_AcceptRejectsTokensOfOtherAudience(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newRecordEnv(0)
	owner, other := newAccount(), newAccount()
	z, err := env.zones.Create(ctx, model.ZoneID{Name: "a", OwnerID: owner})
	require.NoError(t, err)
	g, err := env.shares.Save(ctx, owner, model.ShareGrant{ZoneID: z.ID})
	require.NoError(t, err)

	// same key and share claims, but minted for the access audience
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, shareClaims{
		ShareID:   g.ID,
		Zone:      z.ID.Name,
		Container: "c1",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  owner.String(),
			Audience: jwt.ClaimStrings{AccessAudience},
		},
	}).SignedString([]byte("share-key"))
	require.NoError(t, err)

	res, err := env.shares.Accept(ctx, other, []model.ShareDescriptor{
		{ContainerID: "c1", ShareID: g.ID, Token: access},
		{ContainerID: "c1", ShareID: g.ID, Token: g.Token},
	})
	require.NoError(t, err)
	require.ErrorIs(t, res[0].Err, errs.ErrPermissionDenied)
	require.NoError(t, res[1].Err)
}
