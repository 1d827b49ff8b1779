package storage

import (
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStorageRoundTrip(t *testing.T) {
	file := path.Join(t.TempDir(), "app.json")
	s, err := New(file)
	assert.Nil(t, err)

	err = s.Set("user", map[string]any{"token": "abc", "email": "someone@example.com"})
	assert.Nil(t, err)

	var user map[string]string
	ok, err := s.Get("user", &user)
	assert.Nil(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", user["token"])

	ok, err = s.Get("missing", &user)
	assert.Nil(t, err)
	assert.False(t, ok)
}

func TestStorageRemoveAndClear(t *testing.T) {
	file := path.Join(t.TempDir(), "app.json")
	s, err := New(file)
	assert.Nil(t, err)

	assert.Nil(t, s.Set("a", 1))
	assert.Nil(t, s.Set("b", 2))

	assert.Nil(t, s.Remove("a"))
	var n int
	ok, _ := s.Get("a", &n)
	assert.False(t, ok)
	ok, _ = s.Get("b", &n)
	assert.True(t, ok)

	assert.Nil(t, s.Clear())
	ok, _ = s.Get("b", &n)
	assert.False(t, ok)
}

func TestStorageSurvivesReopen(t *testing.T) {
	file := path.Join(t.TempDir(), "app.json")
	s, err := New(file)
	assert.Nil(t, err)
	assert.Nil(t, s.Set("counter", 42))

	reopened, err := New(file)
	assert.Nil(t, err)
	var n int
	ok, err := reopened.Get("counter", &n)
	assert.Nil(t, err)
	assert.True(t, ok)
	assert.Equal(t, 42, n)
}
