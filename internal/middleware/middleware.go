package middleware

import (
	"context"
	"net/netip"
	"time"

	"github.com/cyberelites/formmailer/internal/logger"
)

// Counter is the Redis subset used for rate limiting
type Counter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	TimeToLive(ctx context.Context, key string) (time.Duration, error)
}

// Middleware holds all HTTP middleware
type Middleware struct {
	counter        Counter
	trustedProxies []netip.Prefix
	log            *logger.Logger
}

// New creates a new Middleware instance. Forwarding headers are honoured only
// from peers inside trustedProxies.
func New(counter Counter, trustedProxies []netip.Prefix, log *logger.Logger) *Middleware {
	return &Middleware{
		counter:        counter,
		trustedProxies: trustedProxies,
		log:            log,
	}
}
