package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayhanuzun/nobetci/common/identity"
)

func TestNormalizeIntegerLikeStringsMatchIntegers(t *testing.T) {
	require.Equal(t, identity.Normalize(17), identity.Normalize("17"))
	require.Equal(t, identity.Normalize(int64(42)), identity.Normalize("42"))
}

func TestNormalizeBooleans(t *testing.T) {
	assert.Equal(t, identity.ID(1), identity.Normalize(true))
	assert.Equal(t, identity.ID(0), identity.Normalize(false))
}

func TestNormalizeDistinctStringsNeverCollideWithSmallInts(t *testing.T) {
	for i := 0; i < 50; i++ {
		assert.NotEqual(t, identity.ID(i), identity.Normalize("abc"))
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	a := identity.Normalize("some-name")
	b := identity.Normalize("some-name")
	assert.Equal(t, a, b)
}

func TestIntegerValuedFloatsCastToSameID(t *testing.T) {
	assert.Equal(t, identity.Normalize(5), identity.Normalize(5.0))
}

func TestMatch(t *testing.T) {
	assert.True(t, identity.Match(7, "7"))
	assert.False(t, identity.Match(7, "8"))
}

func TestFindMatching(t *testing.T) {
	type item struct {
		ref any
		val string
	}
	items := []item{{1, "a"}, {"2", "b"}, {3.0, "c"}}
	found, ok := identity.FindMatching[item]("2", items, func(it item) any { return it.ref })
	require.True(t, ok)
	assert.Equal(t, "b", found.val)

	_, ok = identity.FindMatching[item](99, items, func(it item) any { return it.ref })
	assert.False(t, ok)
}
