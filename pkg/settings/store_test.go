package settings

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/robinbraemer/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.minekube.com/common/minecraft/component"
)

func openTemp(t *testing.T, mgr event.Manager) *Store {
	t.Helper()
	s, err := Open(Options{
		Path:      filepath.Join(t.TempDir(), "nested", DefaultFile),
		EnvPrefix: "SERVERPACKS_TEST",
		Event:     mgr,
	})
	require.NoError(t, err)
	return s
}

func TestOpen_CreatesDefaultFile(t *testing.T) {
	s := openTemp(t, nil)

	_, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, Default, s.Get())
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open(Options{})
	require.Error(t, err)
}

func TestStore_UpdatePersists(t *testing.T) {
	s := openTemp(t, nil)

	hash := make([]byte, hashLen)
	hash[0] = 0xab
	got, err := s.Update(func(st *Settings) error {
		st.URL = "https://example.com/pack.zip"
		st.Required = true
		st.SetHash(hash)
		return st.SetPrompt(&component.Text{Content: "Accept me"})
	})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/pack.zip", got.URL)

	reopened, err := Open(Options{Path: s.Path(), EnvPrefix: "SERVERPACKS_TEST"})
	require.NoError(t, err)
	cur := reopened.Get()
	assert.Equal(t, got, cur)
	assert.True(t, cur.Required)
	assert.Equal(t, hash, cur.HashBytes())

	prompt, err := cur.PromptComponent()
	require.NoError(t, err)
	require.IsType(t, &component.Text{}, prompt)
	assert.Equal(t, "Accept me", prompt.(*component.Text).Content)
}

func TestStore_UpdateRejectsInvalidURL(t *testing.T) {
	s := openTemp(t, nil)
	before, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	_, err = s.Update(func(st *Settings) error {
		st.URL = "ftp://example.com/pack.zip"
		return nil
	})
	require.ErrorIs(t, err, ErrInvalidURL)
	assert.Empty(t, s.Get().URL)

	after, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after, "file must not change on rejected update")
}

func TestStore_ReloadFiresUpdateEvent(t *testing.T) {
	mgr := event.New()
	s := openTemp(t, mgr)

	var (
		mu     sync.Mutex
		events []*UpdateEvent
	)
	event.Subscribe(mgr, 0, func(e *UpdateEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	})

	err := os.WriteFile(s.Path(), []byte("url: http://example.com/a.zip\nrequired: true\n"), 0o644)
	require.NoError(t, err)

	prev, cur, err := s.Reload()
	require.NoError(t, err)
	assert.Empty(t, prev.URL)
	assert.Equal(t, "http://example.com/a.zip", cur.URL)
	assert.True(t, cur.Required)

	// Reloading unchanged contents fires nothing.
	_, _, err = s.Reload()
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 1)
	assert.Equal(t, cur, events[0].Settings)
}

func TestStore_ReloadKeepsSettingsOnInvalidFile(t *testing.T) {
	s := openTemp(t, nil)
	_, err := s.Update(func(st *Settings) error {
		st.URL = "https://example.com/pack.zip"
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(s.Path(), []byte("url: gopher://nope\n"), 0o644))
	_, cur, err := s.Reload()
	require.Error(t, err)
	assert.Equal(t, "https://example.com/pack.zip", cur.URL)
	assert.Equal(t, "https://example.com/pack.zip", s.Get().URL)
}

func TestStore_EnvOverride(t *testing.T) {
	t.Setenv("SERVERPACKS_TEST_REQUIRED", "true")
	s := openTemp(t, nil)
	assert.True(t, s.Get().Required)
}

func TestSettings_Validate(t *testing.T) {
	s := Settings{
		URL:    "https://example.com/pack.zip",
		Prompt: `{"text":`,
		Hash:   "abc",
	}
	warns, errs := s.Validate()
	assert.Empty(t, errs)
	assert.Len(t, warns, 2)
	assert.Nil(t, s.HashBytes())

	s = Settings{URL: "nope"}
	_, errs = s.Validate()
	assert.Len(t, errs, 1)
}

const (
	oldHash = "0102030405060708090a0b0c0d0e0f1011121314"
	newHash = "a1a2a3a4a5a6a7a8a9aaabacadaeafb0b1b2b3b4"
)

func TestStore_ReloadClearsHashOfReplacedURL(t *testing.T) {
	s := openTemp(t, nil)
	_, err := s.Update(func(st *Settings) error {
		st.URL = "https://example.com/old.zip"
		st.Hash = oldHash
		return nil
	})
	require.NoError(t, err)

	edited := "url: https://example.com/new.zip\nhash: \"" + oldHash + "\"\n"
	require.NoError(t, os.WriteFile(s.Path(), []byte(edited), 0o644))
	_, cur, err := s.Reload()
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/new.zip", cur.URL)
	assert.Empty(t, cur.Hash)
	assert.Nil(t, s.Get().HashBytes())

	reopened, err := Open(Options{Path: s.Path(), EnvPrefix: "SERVERPACKS_TEST"})
	require.NoError(t, err)
	assert.Empty(t, reopened.Get().Hash, "stale hash must be removed from the file")
	assert.Equal(t, "https://example.com/new.zip", reopened.Get().URL)
}

func TestStore_ReloadKeepsHashEditedWithURL(t *testing.T) {
	s := openTemp(t, nil)
	_, err := s.Update(func(st *Settings) error {
		st.URL = "https://example.com/old.zip"
		st.Hash = oldHash
		return nil
	})
	require.NoError(t, err)

	edited := "url: https://example.com/new.zip\nhash: \"" + newHash + "\"\n"
	require.NoError(t, os.WriteFile(s.Path(), []byte(edited), 0o644))
	_, cur, err := s.Reload()
	require.NoError(t, err)
	assert.Equal(t, newHash, cur.Hash)
}

func TestOpen_UnquotedNumericHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	digits := "0000000000000000000000000000000000000001"
	require.NoError(t, os.WriteFile(path, []byte("url: https://example.com/pack.zip\nhash: "+digits+"\n"), 0o644))

	s, err := Open(Options{Path: path, EnvPrefix: "SERVERPACKS_TEST"})
	require.NoError(t, err)
	cur := s.Get()
	assert.Equal(t, digits, cur.Hash)
	assert.Len(t, cur.HashBytes(), hashLen)
}

func TestOpen_NonStringPrompt(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte("prompt:\n  - a\n  - b\n"), 0o644))

	_, err := Open(Options{Path: path, EnvPrefix: "SERVERPACKS_TEST"})
	require.ErrorContains(t, err, "prompt must be a string")
}

func TestStore_UpdateKeepsComments(t *testing.T) {
	s := openTemp(t, nil)
	_, err := s.Update(func(st *Settings) error {
		st.URL = "https://example.com/pack.zip"
		st.Hash = oldHash
		return nil
	})
	require.NoError(t, err)

	b, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	content := string(b)
	assert.Contains(t, content, "# The download link of the resource pack.")
	assert.Contains(t, content, "# Accepts a JSON text component or legacy text with '&' color codes.")
	assert.Contains(t, content, "# Hex SHA-1 of the pack at url")
	assert.Contains(t, content, "url: https://example.com/pack.zip")

	reopened, err := Open(Options{Path: s.Path(), EnvPrefix: "SERVERPACKS_TEST"})
	require.NoError(t, err)
	assert.Equal(t, s.Get(), reopened.Get())
}
