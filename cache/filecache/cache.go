// Package filecache implements a store backed by a JSON file.
package filecache

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"sync"

	"github.com/udhos/backoffice/token"
)

// Cache holds cache client.
type Cache struct {
	filename string
	mutex    sync.Mutex
}

// New creates a new cache client.
func New(filename string) (*Cache, error) {
	if filename == "" {
		return nil, errors.New("filecache: empty filename")
	}
	return &Cache{filename: filename}, nil
}

// Get retrieves token from cache.
// A missing file is an empty slot.
func (c *Cache) Get(_ context.Context) (token.Token, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return tokenFromFile(c.filename)
}

func tokenFromFile(filename string) (token.Token, error) {
	buf, errRead := os.ReadFile(filename)
	if errors.Is(errRead, fs.ErrNotExist) {
		return token.Token{}, nil
	}
	if errRead != nil {
		return token.Token{}, errRead
	}
	return token.NewTokenFromJSON(buf)
}

// Put inserts token into cache.
func (c *Cache) Put(_ context.Context, t token.Token) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return saveToken(t, c.filename)
}

func saveToken(t token.Token, filename string) error {
	buf, errJSON := t.ExportJSON()
	if errJSON != nil {
		return errJSON
	}
	// holds a bearer token
	return os.WriteFile(filename, buf, 0o600)
}

// Expire invalidates token in cache.
func (c *Cache) Expire(_ context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.expire(func(token.Token) bool { return true })
}

// ExpireIf invalidates token in cache if it still holds value.
func (c *Cache) ExpireIf(_ context.Context, value string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.expire(func(t token.Token) bool { return t.Value == value })
}

func (c *Cache) expire(match func(token.Token) bool) error {
	t, errGet := tokenFromFile(c.filename)
	if errGet != nil {
		return errGet
	}
	if t.IsEmpty() || !match(t) {
		return nil
	}
	t.Expire()
	return saveToken(t, c.filename)
}
