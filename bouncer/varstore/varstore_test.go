package varstore

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemVarStoreBasics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := NewMemVarStore()

	_, ok, err := s.GetString(ctx, "missing")
	assert.NoError(err)
	assert.False(ok)

	s.Set("zombiensfw:minposts", 10)
	s.Set("zombiensfw:killswitch", true)
	s.Set("affiliate:domains", []string{"amzn.to", "bit.ly"})

	n := IntOr(ctx, s, "zombiensfw:minposts", 5)
	assert.EqualValues(10, n)
	assert.EqualValues(5, IntOr(ctx, s, "other:minposts", 5))

	assert.True(KillSwitched(ctx, s, "zombiensfw:killswitch"))
	assert.False(KillSwitched(ctx, s, "zombie:killswitch"))

	domains, ok, err := s.GetStringList(ctx, "affiliate:domains")
	assert.NoError(err)
	assert.True(ok)
	assert.Equal([]string{"amzn.to", "bit.ly"}, domains)
}

func TestRegexpListFailsClosed(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := NewMemVarStore()

	s.Set("badusername:patterns", []string{`^[A-Z][a-z]+[A-Z][a-z]+\d{2,4}$`, `([unclosed`})

	res := RegexpList(ctx, s, "badusername:patterns", slog.Default())
	// the malformed pattern is dropped, not fatal
	assert.Len(res, 1)
	assert.True(res[0].MatchString("JohnSmith1234"))

	assert.Empty(RegexpList(ctx, s, "missing:patterns", slog.Default()))
}
