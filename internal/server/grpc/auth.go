package grpcserver

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/and161185/zone-sharing/internal/api"
	"github.com/and161185/zone-sharing/internal/service"
)

// AuthUnary rejects calls to non-public methods without a valid access token
// and stores the caller's account ID in the handler context. Chain it before
// LoggingUnary so request logs carry the account.
func AuthUnary(signKey []byte, log *zap.Logger) grpc.UnaryServerInterceptor {
	if log == nil {
		log = zap.NewNop()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if api.Public(info.FullMethod) {
			return next(ctx, req)
		}
		id, err := accountIDFromToken(ctx, signKey)
		if err != nil {
			log.Debug("rejected unauthenticated call",
				zap.String("method", info.FullMethod),
				zap.String("peer", peerAddr(ctx)),
				zap.Error(err),
			)
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}
		return next(WithAccountID(ctx, id), req)
	}
}

// accountIDFromToken extracts "authorization: Bearer <JWT>", verifies HS256 and the access audience and returns sub as UUID.
func accountIDFromToken(ctx context.Context, signKey []byte) (uuid.UUID, error) {
	tok, err := bearerTokenFromMD(ctx)
	if err != nil {
		return uuid.Nil, err
	}

	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(tok, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return signKey, nil
	}, jwt.WithLeeway(30*time.Second), jwt.WithExpirationRequired(), jwt.WithAudience(service.AccessAudience))
	if err != nil || !parsed.Valid {
		return uuid.Nil, errors.New("invalid token")
	}

	id, err := uuid.FromString(claims.Subject)
	if err != nil {
		return uuid.Nil, errors.New("bad subject")
	}
	return id, nil
}

func bearerTokenFromMD(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", errors.New("no metadata")
	}
	for _, v := range md.Get("authorization") {
		v = strings.TrimSpace(v)
		if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
			if t := strings.TrimSpace(v[7:]); t != "" {
				return t, nil
			}
		}
	}
	return "", errors.New("no bearer token")
}
