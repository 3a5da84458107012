package linkcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemStoreBasics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := NewMemStore(10, time.Hour)

	_, ok, err := s.Get(ctx, "alice")
	assert.NoError(err)
	assert.False(ok)

	assert.NoError(s.Set(ctx, "alice", []string{"https://example.com/alice"}))
	links, ok, err := s.Get(ctx, "alice")
	assert.NoError(err)
	assert.True(ok)
	assert.Equal([]string{"https://example.com/alice"}, links)

	// a cached empty list is a hit, not a miss
	assert.NoError(s.Set(ctx, "bob", []string{}))
	links, ok, err = s.Get(ctx, "bob")
	assert.NoError(err)
	assert.True(ok)
	assert.Empty(links)

	assert.NoError(s.Purge(ctx, "alice"))
	_, ok, _ = s.Get(ctx, "alice")
	assert.False(ok)
}
