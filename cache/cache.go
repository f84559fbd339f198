// Package cache creates token stores from a string description.
package cache

import (
	"fmt"
	"strings"
	"time"

	"github.com/udhos/backoffice/cache/errorcache"
	"github.com/udhos/backoffice/cache/filecache"
	"github.com/udhos/backoffice/cache/rediscache"
	"github.com/udhos/backoffice/token"
)

// New creates cache from string.
//
// ""                                   -> nil (callers fall back to memory)
// "memory"                             -> memory store
// "error"                              -> errorcache
// "file:<path>"                        -> filecache
// "redis:<host>:<port>:<password>:<key>" -> rediscache
func New(s string) (token.Store, error) {
	return NewWithTimeSource(s, nil)
}

// NewWithTimeSource is like New, but stores that track time themselves
// use now instead of time.Now.
func NewWithTimeSource(s string, now func() time.Time) (token.Store, error) {
	switch {
	case s == "":
		return nil, nil
	case s == "memory":
		return token.NewMemoryStore(), nil
	case s == "error":
		return errorcache.New()
	case strings.HasPrefix(s, "file:"):
		return filecache.New(strings.TrimPrefix(s, "file:"))
	case strings.HasPrefix(s, "redis:"):
		return rediscache.New(strings.TrimPrefix(s, "redis:"), now)
	}
	return nil, fmt.Errorf("unknown cache: %s", s)
}
