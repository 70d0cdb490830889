// Package model defines domain entities shared by the record store and the sync core.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Scope selects which view of the store an operation runs against.
type Scope int

const (
	// ScopePrivate covers zones owned by the caller.
	ScopePrivate Scope = iota
	// ScopeShared covers zones owned by other accounts whose grant the caller accepted.
	ScopeShared
)

// String returns the wire name of the scope.
func (s Scope) String() string {
	switch s {
	case ScopePrivate:
		return "private"
	case ScopeShared:
		return "shared"
	default:
		return "unknown"
	}
}

// ParseScope maps a wire name back to a Scope.
func ParseScope(s string) (Scope, bool) {
	switch s {
	case "private":
		return ScopePrivate, true
	case "shared":
		return ScopeShared, true
	}
	return 0, false
}

// DefaultZoneName names the synthetic zone every account owns. It never holds posts.
const DefaultZoneName = "_defaultZone"

// ZoneID identifies a zone by name within its owner's account.
type ZoneID struct {
	Name    string
	OwnerID uuid.UUID
}

// IsDefault reports whether the id names the default zone.
func (z ZoneID) IsDefault() bool { return z.Name == DefaultZoneName }

// String renders the id as name@owner.
func (z ZoneID) String() string { return z.Name + "@" + z.OwnerID.String() }

// Zone is a named partition of records, the unit of sharing.
type Zone struct {
	ID      ZoneID
	ShareID string // empty until a grant exists for the zone
}

// HasShare reports whether a grant is attached.
func (z Zone) HasShare() bool { return z.ShareID != "" }

// Record is the store's generic key/value record.
type Record struct {
	ID        string
	ZoneID    ZoneID
	Type      string
	Fields    map[string]any
	CreatedAt time.Time
}

// Post is an immutable message read back from a zone.
type Post struct {
	ID        string
	Message   string
	Author    string
	ZoneID    ZoneID
	CreatedAt time.Time
}

// ChangeToken is an opaque cursor into one zone's change feed.
// A nil token means "from the beginning".
type ChangeToken []byte

// Present reports whether the token carries a cursor.
func (t ChangeToken) Present() bool { return len(t) > 0 }

// ChangeBatch is one page of a zone's change feed.
type ChangeBatch struct {
	Records     []Record
	MorePending bool
	NextToken   ChangeToken
}

// Permission bounds what participants may do in a shared zone.
type Permission int

const (
	PermissionReadOnly Permission = iota
	PermissionReadWrite
)

// String returns the wire name of the permission.
func (p Permission) String() string {
	if p == PermissionReadWrite {
		return "read-write"
	}
	return "read-only"
}

// ParsePermission maps a wire name back to a Permission; unknown names are read-only.
func ParsePermission(s string) Permission {
	if s == "read-write" {
		return PermissionReadWrite
	}
	return PermissionReadOnly
}

// ShareGrant is a capability attached to exactly one zone.
type ShareGrant struct {
	ID         string
	ZoneID     ZoneID
	Title      string
	Permission Permission
	Private    bool   // private grants cannot be joined through a descriptor
	Token      string // capability token signed by the store
	CreatedAt  time.Time
}

// Container names the store deployment a grant belongs to.
type Container struct {
	ID string
}

// ShareDescriptor is what one account hands to another to join a shared zone.
type ShareDescriptor struct {
	ContainerID string `json:"container_id"`
	ShareID     string `json:"share_id"`
	ZoneName    string `json:"zone_name"`
	OwnerID     string `json:"owner_id"`
	Title       string `json:"title"`
	Token       string `json:"token"`
}

// AcceptResult is the per-descriptor outcome of an accept request.
type AcceptResult struct {
	ShareID string
	Err     error
}

// Tokens collects issued access tokens.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Account is a store account. Password material is never stored in plaintext.
type Account struct {
	ID          uuid.UUID
	Username    string
	DisplayName string
	PwdHash     []byte
	SaltAuth    []byte
	CreatedAt   time.Time
}
