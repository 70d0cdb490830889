package posts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/zone-sharing/internal/client/remote/memstore"
	"github.com/and161185/zone-sharing/internal/client/session"
	"github.com/and161185/zone-sharing/internal/errs"
	"github.com/and161185/zone-sharing/internal/model"
)

func TestFromRecord(t *testing.T) {
	t.Parallel()
	ok := model.Record{ID: "r1", Type: RecordType, Fields: map[string]any{"message": "hi", "author": "Me"}}

	tests := []struct {
		name string
		rec  model.Record
		want bool
	}{
		{"valid", ok, true},
		{"missing message", model.Record{Type: RecordType, Fields: map[string]any{"author": "Me"}}, false},
		{"missing author", model.Record{Type: RecordType, Fields: map[string]any{"message": "hi"}}, false},
		{"non-string message", model.Record{Type: RecordType, Fields: map[string]any{"message": 1.5, "author": "Me"}}, false},
		{"nil fields", model.Record{Type: RecordType}, false},
		{"other type", model.Record{Type: "Note", Fields: ok.Fields}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, got := FromRecord(tc.rec)
			if got != tc.want {
				t.Fatalf("FromRecord ok=%v, want %v", got, tc.want)
			}
		})
	}

	p, _ := FromRecord(ok)
	require.Equal(t, "r1", p.ID)
	require.Equal(t, "hi", p.Message)
	require.Equal(t, "Me", p.Author)
}

func TestRepository_Add_RequiresHomeZone(t *testing.T) {
	t.Parallel()
	b := memstore.New("c", 0)
	acc := b.AddAccount("Me")
	r := NewRepository(b.As(acc), session.New(acc), nil)

	_, err := r.Add(context.Background(), "hello")
	require.ErrorIs(t, err, errs.ErrZoneNotFound)
	require.Equal(t, 0, b.Calls("SaveRecord"))
}

func TestRepository_Add_RejectsEmptyMessage(t *testing.T) {
	t.Parallel()
	b := memstore.New("c", 0)
	acc := b.AddAccount("Me")
	r := NewRepository(b.As(acc), session.New(acc), nil)

	_, err := r.Add(context.Background(), "   ")
	require.ErrorIs(t, err, errs.ErrEmptyMessage)
}

func TestRepository_Add_SavesWithAuthor(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := memstore.New("c", 0)
	acc := b.AddAccount("Me")
	st := b.As(acc)
	z, err := st.CreateZone(ctx, "home")
	require.NoError(t, err)

	sess := session.New(acc)
	sess.SetHomeZone(z)
	r := NewRepository(st, sess, nil)

	p, err := r.Add(ctx, "hello")
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)
	require.Equal(t, "Me", p.Author)
	require.Equal(t, z.ID, p.ZoneID)

	// author is captured once per session
	_, err = r.Add(ctx, "again")
	require.NoError(t, err)
	require.Equal(t, 1, b.Calls("DisplayName"))

	batch, err := st.FetchChanges(ctx, model.ScopePrivate, z.ID, nil)
	require.NoError(t, err)
	require.Len(t, batch.Records, 2)
}

func TestRepository_Add_UnnamedAccountUsesID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := memstore.New("c", 0)
	acc := b.AddAccount("")
	st := b.As(acc)
	z, err := st.CreateZone(ctx, "home")
	require.NoError(t, err)
	sess := session.New(acc)
	sess.SetHomeZone(z)

	p, err := NewRepository(st, sess, nil).Add(ctx, "hello")
	require.NoError(t, err)
	require.Equal(t, acc.String(), p.Author)
}
