package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct{ n int }

func TestContainer_FactoryBuiltOnce(t *testing.T) {
	c := NewContainer()
	builds := 0
	tok := NewToken[*counter]("counter")

	RegisterToken(c, tok, func(ServiceRegistry) *counter {
		builds++
		return &counter{n: 7}
	})

	first := GetToken(c, tok)
	second := GetToken(c, tok)

	require.NotNil(t, first)
	assert.Same(t, first, second)
	assert.Equal(t, 1, builds)
	assert.Equal(t, 7, first.n)
}

func TestContainer_RegisterValue(t *testing.T) {
	c := NewContainer()
	c.Register("config", "value")

	assert.True(t, c.Has("config"))
	assert.Equal(t, "value", c.Get("config"))
}

func TestContainer_FactoryResolvesDependencies(t *testing.T) {
	c := NewContainer()
	base := NewToken[int]("base")
	derived := NewToken[int]("derived")

	RegisterToken(c, base, func(ServiceRegistry) int { return 20 })
	RegisterToken(c, derived, func(sr ServiceRegistry) int { return GetToken(sr, base) + 1 })

	assert.Equal(t, 21, GetToken(c, derived))
}

func TestContainer_MissingPanics(t *testing.T) {
	c := NewContainer()
	assert.Panics(t, func() { c.Get("missing") })
}
