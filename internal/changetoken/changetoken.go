// Package changetoken encodes change-feed cursors. A token is bound to the zone
// it was minted for and is opaque to clients.
package changetoken

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/and161185/zone-sharing/internal/errs"
	"github.com/and161185/zone-sharing/internal/model"
)

const prefix = "ct1"

// Encode mints a token for zone pointing after version ver.
func Encode(zone model.ZoneID, ver int64) model.ChangeToken {
	raw := prefix + "|" + zone.String() + "|" + strconv.FormatInt(ver, 10)
	out := make([]byte, base64.RawURLEncoding.EncodedLen(len(raw)))
	base64.RawURLEncoding.Encode(out, []byte(raw))
	return out
}

// Decode returns the version the token points after. An absent token decodes
// to zero; a token minted for another zone yields errs.ErrForeignToken.
func Decode(zone model.ZoneID, t model.ChangeToken) (int64, error) {
	if !t.Present() {
		return 0, nil
	}
	raw := make([]byte, base64.RawURLEncoding.DecodedLen(len(t)))
	n, err := base64.RawURLEncoding.Decode(raw, t)
	if err != nil {
		return 0, fmt.Errorf("%w: change token", errs.ErrValidation)
	}
	parts := strings.Split(string(raw[:n]), "|")
	if len(parts) != 3 || parts[0] != prefix {
		return 0, fmt.Errorf("%w: change token", errs.ErrValidation)
	}
	if parts[1] != zone.String() {
		return 0, errs.ErrForeignToken
	}
	ver, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || ver < 0 {
		return 0, fmt.Errorf("%w: change token version", errs.ErrValidation)
	}
	return ver, nil
}
