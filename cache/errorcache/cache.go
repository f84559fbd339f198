// Package errorcache implements a store that always fails.
// It forces a token exchange on every call.
package errorcache

import (
	"context"
	"errors"

	"github.com/udhos/backoffice/token"
)

// Cache holds cache client.
type Cache struct {
}

// New creates a new cache client.
func New() (*Cache, error) {
	return &Cache{}, nil
}

// ErrAlways is returned by every operation.
var ErrAlways = errors.New("errorcache error always")

// Get retrieves token from cache.
func (c *Cache) Get(_ context.Context) (token.Token, error) {
	return token.Token{}, ErrAlways
}

// Put inserts token into cache.
func (c *Cache) Put(_ context.Context, _ token.Token) error {
	return ErrAlways
}

// Expire invalidates token in cache.
func (c *Cache) Expire(_ context.Context) error {
	return ErrAlways
}

// ExpireIf invalidates token in cache if it still holds value.
func (c *Cache) ExpireIf(_ context.Context, _ string) error {
	return ErrAlways
}
