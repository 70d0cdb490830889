package remote

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/and161185/zone-sharing/internal/api"
	"github.com/and161185/zone-sharing/internal/convert"
	"github.com/and161185/zone-sharing/internal/errs"
	"github.com/and161185/zone-sharing/internal/model"
)

// BearerCreds attaches an access token to every call.
type BearerCreds struct {
	Token string
	// Insecure allows sending the token over plaintext connections (tests, local dev).
	Insecure bool
}

// GetRequestMetadata implements credentials.PerRPCCredentials.
func (b BearerCreds) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + b.Token}, nil
}

// RequireTransportSecurity implements credentials.PerRPCCredentials.
func (b BearerCreds) RequireTransportSecurity() bool { return !b.Insecure }

// GRPCStore implements Store on top of a ZoneStore connection.
type GRPCStore struct {
	cl *api.ZoneStoreClient

	mu     sync.Mutex
	caller uuid.UUID
}

var _ Store = (*GRPCStore)(nil)

// NewGRPCStore wraps an established connection. Authentication is carried by
// the connection's per-RPC credentials.
func NewGRPCStore(cc grpc.ClientConnInterface) *GRPCStore {
	return &GRPCStore{cl: api.NewZoneStoreClient(cc)}
}

func (s *GRPCStore) call(ctx context.Context, method string, in map[string]any) (convert.Fields, *structpb.Struct, error) {
	req, err := convert.Struct(in)
	if err != nil {
		return convert.Fields{}, nil, fmt.Errorf("%w: encode %s: %w", errs.ErrRemoteStore, method, err)
	}
	out, err := s.cl.Call(ctx, method, req)
	if err != nil {
		return convert.Fields{}, nil, fromStatus(err)
	}
	return convert.Read(out), out, nil
}

// Register creates an account and returns its id.
func (s *GRPCStore) Register(ctx context.Context, username, password, displayName string) (uuid.UUID, error) {
	f, _, err := s.call(ctx, api.Register, map[string]any{
		"username":     username,
		"password":     password,
		"display_name": displayName,
	})
	if err != nil {
		return uuid.Nil, err
	}
	return parseAccountID(f.String("account_id"))
}

// Login exchanges credentials for an access token.
func (s *GRPCStore) Login(ctx context.Context, username, password string) (model.Tokens, uuid.UUID, error) {
	f, _, err := s.call(ctx, api.Login, map[string]any{"username": username, "password": password})
	if err != nil {
		return model.Tokens{}, uuid.Nil, err
	}
	id, err := parseAccountID(f.String("account_id"))
	if err != nil {
		return model.Tokens{}, uuid.Nil, err
	}
	exp, _ := time.Parse(time.RFC3339, f.String("expires_at"))
	return model.Tokens{AccessToken: f.String("access_token"), ExpiresAt: exp}, id, nil
}

// CallerAccountID implements Store.
func (s *GRPCStore) CallerAccountID(ctx context.Context) (uuid.UUID, error) {
	s.mu.Lock()
	cached := s.caller
	s.mu.Unlock()
	if cached != uuid.Nil {
		return cached, nil
	}
	f, _, err := s.call(ctx, api.WhoAmI, nil)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := parseAccountID(f.String("account_id"))
	if err != nil {
		return uuid.Nil, err
	}
	s.mu.Lock()
	s.caller = id
	s.mu.Unlock()
	return id, nil
}

// DisplayName implements Store.
func (s *GRPCStore) DisplayName(ctx context.Context, id uuid.UUID) (string, bool, error) {
	f, _, err := s.call(ctx, api.DisplayName, map[string]any{"account_id": id.String()})
	if err != nil {
		return "", false, err
	}
	return f.String("name"), f.Bool("found"), nil
}

// CreateZone implements Store.
func (s *GRPCStore) CreateZone(ctx context.Context, name string) (model.Zone, error) {
	_, out, err := s.call(ctx, api.CreateZone, map[string]any{"name": name})
	if err != nil {
		return model.Zone{}, err
	}
	return decode(convert.ZoneFrom(out))
}

// GetZone implements Store.
func (s *GRPCStore) GetZone(ctx context.Context, id model.ZoneID) (model.Zone, error) {
	_, out, err := s.call(ctx, api.GetZone, map[string]any{"zone": convert.ZoneIDMap(id)})
	if err != nil {
		return model.Zone{}, err
	}
	return decode(convert.ZoneFrom(out))
}

// ListZones implements Store.
func (s *GRPCStore) ListZones(ctx context.Context, scope model.Scope) ([]model.Zone, error) {
	_, out, err := s.call(ctx, api.ListZones, map[string]any{"scope": scope.String()})
	if err != nil {
		return nil, err
	}
	return decode(convert.ZonesFrom(out))
}

// SaveRecord implements Store.
func (s *GRPCStore) SaveRecord(ctx context.Context, scope model.Scope, rec model.Record) (model.Record, error) {
	_, out, err := s.call(ctx, api.SaveRecord, map[string]any{"scope": scope.String(), "record": convert.RecordMap(rec)})
	if err != nil {
		return model.Record{}, err
	}
	return decode(convert.RecordFrom(out))
}

// GetRecord implements Store.
func (s *GRPCStore) GetRecord(ctx context.Context, scope model.Scope, zone model.ZoneID, id string) (model.Record, error) {
	_, out, err := s.call(ctx, api.GetRecord, map[string]any{
		"scope": scope.String(),
		"zone":  convert.ZoneIDMap(zone),
		"id":    id,
	})
	if err != nil {
		return model.Record{}, err
	}
	return decode(convert.RecordFrom(out))
}

// FetchChanges implements Store.
func (s *GRPCStore) FetchChanges(ctx context.Context, scope model.Scope, zone model.ZoneID, token model.ChangeToken) (model.ChangeBatch, error) {
	_, out, err := s.call(ctx, api.FetchChanges, map[string]any{
		"scope": scope.String(),
		"zone":  convert.ZoneIDMap(zone),
		"token": string(token),
	})
	if err != nil {
		return model.ChangeBatch{}, err
	}
	return decode(convert.BatchFrom(out))
}

// SaveShare implements Store.
func (s *GRPCStore) SaveShare(ctx context.Context, g model.ShareGrant) (model.ShareGrant, error) {
	_, out, err := s.call(ctx, api.SaveShare, map[string]any{"grant": convert.GrantMap(g)})
	if err != nil {
		return model.ShareGrant{}, err
	}
	return decode(convert.GrantFrom(out))
}

// GetShare implements Store.
func (s *GRPCStore) GetShare(ctx context.Context, id string) (model.ShareGrant, error) {
	_, out, err := s.call(ctx, api.GetShare, map[string]any{"id": id})
	if err != nil {
		return model.ShareGrant{}, err
	}
	return decode(convert.GrantFrom(out))
}

// AcceptShares implements Store.
func (s *GRPCStore) AcceptShares(ctx context.Context, descs []model.ShareDescriptor) ([]model.AcceptResult, error) {
	_, out, err := s.call(ctx, api.AcceptShares, convert.DescriptorsMap(descs))
	if err != nil {
		return nil, err
	}
	return convert.ResultsFrom(out), nil
}

func decode[T any](v T, err error) (T, error) {
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%w: decode response: %w", errs.ErrRemoteStore, err)
	}
	return v, nil
}

func parseAccountID(s string) (uuid.UUID, error) {
	id, err := uuid.FromString(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad account id %q", errs.ErrRemoteStore, s)
	}
	return id, nil
}

var codeErrs = map[codes.Code]error{
	codes.NotFound:           errs.ErrNotFound,
	codes.AlreadyExists:      errs.ErrAlreadyExists,
	codes.Unauthenticated:    errs.ErrUnauthorized,
	codes.ResourceExhausted:  errs.ErrRateLimited,
	codes.PermissionDenied:   errs.ErrPermissionDenied,
	codes.FailedPrecondition: errs.ErrNotGrant,
	codes.InvalidArgument:    errs.ErrValidation,
	codes.Canceled:           context.Canceled,
	codes.DeadlineExceeded:   context.DeadlineExceeded,
}

// fromStatus turns a gRPC status back into the store sentinel it was mapped
// from. Anything else is wrapped in errs.ErrRemoteStore.
func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("%w: %w", errs.ErrRemoteStore, err)
	}
	sentinel, ok := codeErrs[st.Code()]
	if !ok {
		return fmt.Errorf("%w: %w", errs.ErrRemoteStore, err)
	}
	msg := st.Message()
	if st.Code() == codes.InvalidArgument && strings.Contains(msg, errs.ErrForeignToken.Error()) {
		sentinel = errs.ErrForeignToken
	}
	if msg == "" || msg == sentinel.Error() {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, strings.TrimPrefix(msg, sentinel.Error()+": "))
}
