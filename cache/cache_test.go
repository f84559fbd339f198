package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udhos/backoffice/cache/errorcache"
	"github.com/udhos/backoffice/cache/filecache"
	"github.com/udhos/backoffice/cache/rediscache"
	"github.com/udhos/backoffice/token"
)

func TestNew(t *testing.T) {
	c, err := New("")
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = New("memory")
	require.NoError(t, err)
	assert.IsType(t, &token.MemoryStore{}, c)

	c, err = New("error")
	require.NoError(t, err)
	assert.IsType(t, &errorcache.Cache{}, c)
	_, errGet := c.Get(context.Background())
	assert.ErrorIs(t, errGet, errorcache.ErrAlways)
	assert.ErrorIs(t, c.ExpireIf(context.Background(), "abc"), errorcache.ErrAlways)

	c, err = New("file:" + filepath.Join(t.TempDir(), "token.json"))
	require.NoError(t, err)
	assert.IsType(t, &filecache.Cache{}, c)

	c, err = New("redis:localhost:6379::test")
	require.NoError(t, err)
	assert.IsType(t, &rediscache.Cache{}, c)

	_, err = New("bogus")
	assert.Error(t, err)
}

func TestNewWithTimeSource(t *testing.T) {
	clock := func() time.Time { return time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC) }

	c, err := NewWithTimeSource("redis:localhost:6379::test", clock)
	require.NoError(t, err)
	assert.IsType(t, &rediscache.Cache{}, c)

	c, err = NewWithTimeSource("memory", clock)
	require.NoError(t, err)
	assert.IsType(t, &token.MemoryStore{}, c)
}
