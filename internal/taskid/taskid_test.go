package taskid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskgrid/internal/convert"
)

func TestStaticMatch(t *testing.T) {
	pattern := New(GET, "/users")
	candidate := New(GET, "/users")
	params, ok := pattern.Match(candidate)
	require.True(t, ok)
	assert.Empty(t, params)

	other := New(DELETE, "/users")
	_, ok = pattern.Match(other)
	assert.False(t, ok)
}

func TestDynamicMatchWithIntConverter(t *testing.T) {
	pattern := New(GET, "/users/{id}", WithTypes(map[string]convert.Converter{"id": convert.Int{}}))

	ok42 := New(GET, "/users/42")
	params, matched := pattern.Match(ok42)
	require.True(t, matched)
	assert.Equal(t, 42, params["id"])

	bad := New(GET, "/users/abc")
	_, matched = pattern.Match(bad)
	assert.False(t, matched)
}

func TestTrailingSlashNormalization(t *testing.T) {
	pattern := New(GET, "/users/")
	candidate := New(GET, "/users")
	_, ok := pattern.Match(candidate)
	assert.True(t, ok)
}

func TestForkPrependsPrefix(t *testing.T) {
	base := New(GET, "/users")
	forked := base.Fork("/v1", nil)
	assert.Equal(t, "/v1/users", forked.Path())
	assert.Equal(t, GET, forked.Method())
}

func TestForkWithDynamicPrefix(t *testing.T) {
	base := New(GET, "/users")
	forked := base.Fork("/{tenant}", map[string]convert.Converter{})
	assert.False(t, forked.IsStatic())
}

func TestDumpLoadRoundTripStatic(t *testing.T) {
	id := New(POST, "/users/create")
	s := id.DumpToStr()
	loaded, err := LoadFromStr(s)
	require.NoError(t, err)
	assert.True(t, id.Equal(loaded))
}

func TestWildcardMethodMatchesAny(t *testing.T) {
	pattern := New(Wildcard, "/anything")
	for _, m := range []Method{GET, POST, DELETE} {
		candidate := New(m, "/anything")
		_, ok := pattern.Match(candidate)
		assert.True(t, ok, "method %s should match wildcard pattern", m)
	}
}

func TestIsStatic(t *testing.T) {
	assert.True(t, New(GET, "/users").IsStatic())
	assert.False(t, New(GET, "/users/{id}").IsStatic())
	assert.False(t, New(Wildcard, "/users").IsStatic())
}
