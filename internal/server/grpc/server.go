// Package grpcserver exposes the zone store over gRPC.
package grpcserver

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/and161185/zone-sharing/internal/api"
	"github.com/and161185/zone-sharing/internal/convert"
	"github.com/and161185/zone-sharing/internal/model"
	"github.com/and161185/zone-sharing/internal/service"
)

// Server wires services into gRPC handlers.
type Server struct {
	accounts service.AccountService
	zones    service.ZoneService
	records  service.RecordService
	shares   service.ShareService
	signKey  []byte
}

var _ api.ZoneStoreServer = (*Server)(nil)

// New constructs a gRPC server with injected services. signKey verifies access
// tokens on calls that did not pass through AuthUnary.
func New(accounts service.AccountService, zones service.ZoneService, records service.RecordService, shares service.ShareService, signKey []byte) *Server {
	return &Server{accounts: accounts, zones: zones, records: records, shares: shares, signKey: signKey}
}

// caller prefers the account placed by AuthUnary and falls back to the bearer token.
func (s *Server) caller(ctx context.Context) (uuid.UUID, error) {
	if id, ok := AccountIDFromCtx(ctx); ok {
		return id, nil
	}
	id, err := accountIDFromToken(ctx, s.signKey)
	if err != nil {
		return uuid.Nil, status.Error(codes.Unauthenticated, "no auth")
	}
	return id, nil
}

func reply(m map[string]any) (*structpb.Struct, error) {
	out, err := convert.Struct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func scopeOf(f convert.Fields) (model.Scope, error) {
	sc, ok := model.ParseScope(f.String("scope"))
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "bad scope %q", f.String("scope"))
	}
	return sc, nil
}

// --- Accounts ---

// Register creates a new account.
func (s *Server) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := convert.Read(req)
	if f.String("username") == "" || f.String("password") == "" {
		return nil, status.Error(codes.InvalidArgument, "empty username/password")
	}
	id, err := s.accounts.Register(ctx, f.String("username"), f.String("password"), f.String("display_name"))
	if err != nil {
		return nil, toStatus("register", err)
	}
	return reply(map[string]any{"account_id": id.String()})
}

// Login authenticates an account and returns an access token.
func (s *Server) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := convert.Read(req)
	tok, acc, err := s.accounts.LoginWithIP(ctx, f.String("username"), f.String("password"), peerAddr(ctx))
	if err != nil {
		return nil, toStatus("login", err)
	}
	return reply(map[string]any{
		"access_token": tok.AccessToken,
		"expires_at":   tok.ExpiresAt.UTC().Format(time.RFC3339),
		"account_id":   acc.ID.String(),
		"display_name": acc.DisplayName,
	})
}

// WhoAmI returns the caller's account ID.
func (s *Server) WhoAmI(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	id, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	return reply(map[string]any{"account_id": id.String()})
}

// DisplayName looks up another account's display name.
func (s *Server) DisplayName(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if _, err := s.caller(ctx); err != nil {
		return nil, err
	}
	id, err := uuid.FromString(convert.Read(req).String("account_id"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "bad account_id")
	}
	name, ok, err := s.accounts.DisplayName(ctx, id)
	if err != nil {
		return nil, toStatus("display name", err)
	}
	return reply(map[string]any{"name": name, "found": ok})
}

// --- Zones ---

// CreateZone creates a zone owned by the caller.
func (s *Server) CreateZone(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	z, err := s.zones.Create(ctx, caller, convert.Read(req).String("name"))
	if err != nil {
		return nil, toStatus("create zone", err)
	}
	return reply(convert.ZoneMap(z))
}

// GetZone loads one of the caller's zones.
func (s *Server) GetZone(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	id, err := convert.ZoneIDFrom(convert.Read(req).Struct("zone"))
	if err != nil {
		return nil, toStatus("get zone", err)
	}
	z, err := s.zones.Get(ctx, caller, id)
	if err != nil {
		return nil, toStatus("get zone", err)
	}
	return reply(convert.ZoneMap(z))
}

// ListZones lists the caller's zones in a scope.
func (s *Server) ListZones(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	sc, err := scopeOf(convert.Read(req))
	if err != nil {
		return nil, err
	}
	zs, err := s.zones.List(ctx, caller, sc)
	if err != nil {
		return nil, toStatus("list zones", err)
	}
	return reply(convert.ZonesMap(zs))
}

// --- Records ---

// SaveRecord stores a record; the response carries the assigned id.
func (s *Server) SaveRecord(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	f := convert.Read(req)
	sc, err := scopeOf(f)
	if err != nil {
		return nil, err
	}
	rec, err := convert.RecordFrom(f.Struct("record"))
	if err != nil {
		return nil, toStatus("save record", err)
	}
	saved, err := s.records.Save(ctx, caller, sc, rec)
	if err != nil {
		return nil, toStatus("save record", err)
	}
	return reply(convert.RecordMap(saved))
}

// GetRecord returns one record.
func (s *Server) GetRecord(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	f := convert.Read(req)
	sc, err := scopeOf(f)
	if err != nil {
		return nil, err
	}
	zone, err := convert.ZoneIDFrom(f.Struct("zone"))
	if err != nil {
		return nil, toStatus("get record", err)
	}
	rec, err := s.records.Get(ctx, caller, sc, zone, f.String("id"))
	if err != nil {
		return nil, toStatus("get record", err)
	}
	return reply(convert.RecordMap(rec))
}

// FetchChanges returns the next page of a zone's change feed.
func (s *Server) FetchChanges(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	f := convert.Read(req)
	sc, err := scopeOf(f)
	if err != nil {
		return nil, err
	}
	zone, err := convert.ZoneIDFrom(f.Struct("zone"))
	if err != nil {
		return nil, toStatus("fetch changes", err)
	}
	var tok model.ChangeToken
	if t := f.String("token"); t != "" {
		tok = model.ChangeToken(t)
	}
	b, err := s.records.Changes(ctx, caller, sc, zone, tok)
	if err != nil {
		return nil, toStatus("fetch changes", err)
	}
	return reply(convert.BatchMap(b))
}

// --- Shares ---

// SaveShare creates the grant of one of the caller's zones or returns the existing one.
func (s *Server) SaveShare(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	g, err := convert.GrantFrom(convert.Read(req).Struct("grant"))
	if err != nil {
		return nil, toStatus("save share", err)
	}
	out, err := s.shares.Save(ctx, caller, g)
	if err != nil {
		return nil, toStatus("save share", err)
	}
	return reply(convert.GrantMap(out))
}

// GetShare loads a grant by id.
func (s *Server) GetShare(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	id := convert.Read(req).String("id")
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "empty id")
	}
	g, err := s.shares.Get(ctx, caller, id)
	if err != nil {
		return nil, toStatus("get share", err)
	}
	return reply(convert.GrantMap(g))
}

// AcceptShares joins the caller to the grants named by the descriptors.
func (s *Server) AcceptShares(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.shares.Accept(ctx, caller, convert.DescriptorsFrom(req))
	if err != nil {
		return nil, toStatus("accept shares", err)
	}
	return reply(convert.ResultsMap(res))
}
