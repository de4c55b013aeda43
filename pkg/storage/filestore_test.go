package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, ok, err := s.Get("treasury.auth.token")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("treasury.auth.token", []byte(`{"a":1}`)))
	data, ok, err := s.Get("treasury.auth.token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(data))

	require.NoError(t, s.Delete("treasury.auth.token", "never-written"))
	_, ok, _ = s.Get("treasury.auth.token")
	assert.False(t, ok)
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	assert.ErrorIs(t, s.Set("../escape", []byte("x")), ErrInvalidKey)
	_, _, err = s.Get("a/b")
	assert.ErrorIs(t, err, ErrInvalidKey)
}
