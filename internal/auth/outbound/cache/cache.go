package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/medicore/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
)

const revokedPrefix = "auth:revoked:"

// Cache keeps the token denylist. Entries expire with the token they revoke,
// so the set never outgrows the live tokens.
type Cache struct {
	client redis.UniversalClient
	ins    instrument.Instrumentation
}

func NewCache(client redis.UniversalClient, ins instrument.Instrumentation) *Cache {
	return &Cache{client: client, ins: ins}
}

// Revoke denylists jti for ttl. It reports false when jti was already revoked.
// A non-positive ttl means the token already expired and nothing is stored.
func (c *Cache) Revoke(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	ctx, span := c.ins.Tracer("auth.outbound.cache").Start(ctx, "Revoke")
	defer span.End()

	if ttl <= 0 {
		return true, nil
	}

	ok, err := c.client.SetNX(ctx, revokedPrefix+jti, 1, ttl).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}
	return ok, nil
}

// IsRevoked reports whether jti is on the denylist.
func (c *Cache) IsRevoked(ctx context.Context, jti string) (bool, error) {
	ctx, span := c.ins.Tracer("auth.outbound.cache").Start(ctx, "IsRevoked")
	defer span.End()

	err := c.client.Get(ctx, revokedPrefix+jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}
	return true, nil
}
