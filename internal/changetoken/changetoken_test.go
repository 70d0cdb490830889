package changetoken

import (
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"

	"github.com/and161185/zone-sharing/internal/errs"
	"github.com/and161185/zone-sharing/internal/model"
)

func TestEncodeDecode(t *testing.T) {
	t.Parallel()
	z := model.ZoneID{Name: "user-1", OwnerID: uuid.Must(uuid.NewV4())}

	v, err := Decode(z, Encode(z, 42))
	require.NoError(t, err)
	require.EqualValues(t, 42, v)

	v, err = Decode(z, nil)
	require.NoError(t, err)
	require.Zero(t, v)
}

func TestDecode_ForeignZone(t *testing.T) {
	t.Parallel()
	owner := uuid.Must(uuid.NewV4())
	a := model.ZoneID{Name: "a", OwnerID: owner}
	b := model.ZoneID{Name: "b", OwnerID: owner}
	other := model.ZoneID{Name: "a", OwnerID: uuid.Must(uuid.NewV4())}

	_, err := Decode(b, Encode(a, 1))
	require.ErrorIs(t, err, errs.ErrForeignToken)
	_, err = Decode(other, Encode(a, 1))
	require.ErrorIs(t, err, errs.ErrForeignToken)
}

func TestDecode_Garbage(t *testing.T) {
	t.Parallel()
	z := model.ZoneID{Name: "a"}
	for _, tok := range []string{"!!!", "YWJj", "Y3QxfGFAMDAwMDAwMDAtMDAwMC0wMDAwLTAwMDAtMDAwMDAwMDAwMDAwfHg"} {
		_, err := Decode(z, model.ChangeToken(tok))
		require.ErrorIs(t, err, errs.ErrValidation, tok)
	}
}
