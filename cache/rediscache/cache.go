// Package rediscache implements a store shared through redis.
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/udhos/backoffice/token"
)

// Cache holds cache client.
type Cache struct {
	key         string
	redisClient *redis.Client
	now         func() time.Time
}

// New creates a new cache client.
// redisString = <host>:<port>:<password>:<key>
// redisString = localhost:6379::backoffice-gateway
// now must be the clock the token expirations are computed with;
// nil means time.Now.
func New(redisString string, now func() time.Time) (*Cache, error) {
	fields := strings.SplitN(redisString, ":", 4)
	if len(fields) != 4 {
		return nil, fmt.Errorf("4 fields are required, but got: %d", len(fields))
	}
	host := fields[0]
	port := fields[1]
	password := fields[2]
	key := fields[3]
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: password,
		DB:       0,
	})
	return NewWithClient(client, key, now), nil
}

// NewWithClient creates a cache on top of an existing redis client.
// The key TTL is derived from the token expiration as seen by now;
// nil means time.Now.
func NewWithClient(client *redis.Client, key string, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		redisClient: client,
		key:         key,
		now:         now,
	}
}

// Key returns the redis key holding the token.
func (c *Cache) Key() string {
	return "backoffice:token:" + c.key
}

// Get retrieves token from cache.
// A missing key is an empty slot.
func (c *Cache) Get(ctx context.Context) (token.Token, error) {
	cmd := c.redisClient.Get(ctx, c.Key())
	buf, errGet := cmd.Bytes()
	if errors.Is(errGet, redis.Nil) {
		return token.Token{}, nil
	}
	if errGet != nil {
		return token.Token{}, errGet
	}
	return token.NewTokenFromJSON(buf)
}

// Put inserts token into cache.
// The key outlives the token by one minute so a stale token is still
// observable as stale rather than missing.
func (c *Cache) Put(ctx context.Context, t token.Token) error {
	ttl := t.Remaining(c.now()) + time.Minute
	if ttl <= 0 {
		return c.Expire(ctx)
	}

	buf, errJSON := t.ExportJSON()
	if errJSON != nil {
		return errJSON
	}

	return c.redisClient.Set(ctx, c.Key(), buf, ttl).Err()
}

// Expire invalidates token in cache.
func (c *Cache) Expire(ctx context.Context) error {
	return c.redisClient.Del(ctx, c.Key()).Err()
}

// expireIfScript deletes the key only while the stored token still has
// the given value. It runs server side so a token written by another
// instance between the read and the delete is kept.
var expireIfScript = redis.NewScript(`
local buf = redis.call("GET", KEYS[1])
if not buf then
	return 0
end
local t = cjson.decode(buf)
if t.value ~= ARGV[1] then
	return 0
end
return redis.call("DEL", KEYS[1])
`)

// ExpireIf invalidates token in cache if it still holds value.
func (c *Cache) ExpireIf(ctx context.Context, value string) error {
	return expireIfScript.Run(ctx, c.redisClient, []string{c.Key()}, value).Err()
}
