// Package dedup guards against Feishu event redelivery.
//
// The platform redelivers events it considers unacknowledged, so the same
// event_id can arrive more than once. The guard remembers recently seen ids
// in Redis. Graceful fallback: with no Redis configured or reachable, every
// event counts as first-seen and behavior is identical to running stateless.
package dedup

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "steamlark:seen:"
	defaultTTL = 10 * time.Minute
)

// Options holds Redis connection settings.
type Options struct {
	URL      string // redis://host:port
	Password string
	DB       int
}

// Guard tracks recently processed event ids.
type Guard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGuard connects to Redis if configured. Connection problems are logged
// and produce a pass-through guard, never an error.
func NewGuard(opts Options) *Guard {
	g := &Guard{ttl: defaultTTL}
	if opts.URL == "" {
		return g
	}

	ropts, err := redis.ParseURL(opts.URL)
	if err != nil {
		log.Printf("[Redis] invalid URL, dedup disabled: %v", err)
		return g
	}
	if opts.Password != "" {
		ropts.Password = opts.Password
	}
	ropts.DB = opts.DB
	ropts.DialTimeout = 5 * time.Second
	ropts.ReadTimeout = 3 * time.Second
	ropts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(ropts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("[Redis] connection failed, dedup disabled: %v", err)
		client.Close()
		return g
	}

	log.Println("[Redis] event dedup enabled")
	g.client = client
	return g
}

// Enabled reports whether a Redis backend is in use.
func (g *Guard) Enabled() bool {
	return g != nil && g.client != nil
}

// FirstSeen marks eventID as seen and reports whether this was its first
// delivery. Redis errors fall back to first-seen so a cache outage never
// silences the bot.
func (g *Guard) FirstSeen(ctx context.Context, eventID string) bool {
	if !g.Enabled() || eventID == "" {
		return true
	}
	fresh, err := g.client.SetNX(ctx, keyPrefix+eventID, 1, g.ttl).Result()
	if err != nil {
		log.Printf("[Redis] dedup check failed (%s): %v", eventID, err)
		return true
	}
	return fresh
}

// Close releases the Redis connection.
func (g *Guard) Close() {
	if g.Enabled() {
		g.client.Close()
		g.client = nil
	}
}
