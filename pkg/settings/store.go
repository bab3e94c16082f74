package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/google/renameio/v2"
	"github.com/robinbraemer/event"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"go.minekube.com/serverpacks/pkg/configs"
)

const (
	// DefaultFile is the default settings file name.
	DefaultFile = "serverpacks.yml"
	// DefaultEnvPrefix is the prefix of environment variables overriding settings,
	// e.g. SERVERPACKS_URL.
	DefaultEnvPrefix = "SERVERPACKS"
)

// UpdateEvent is fired on the store's event manager after the settings
// changed, either through Store.Update or Store.Reload.
type UpdateEvent struct {
	Prev     Settings // The settings before the change.
	Settings Settings // The settings after the change.
}

// Options are Store options.
type Options struct {
	// Path is the settings file. It is created with defaults if missing.
	Path string
	// EnvPrefix overrides DefaultEnvPrefix.
	EnvPrefix string
	// Event receives UpdateEvent. Optional.
	Event event.Manager
}

// Store is a file-backed Settings store safe for concurrent use.
type Store struct {
	path      string
	envPrefix string
	event     event.Manager

	mu  sync.RWMutex // protects cur and serializes file writes
	cur Settings
}

// Open opens the settings file at options.Path.
// The returned store is not validated, see Settings.Validate.
func Open(options Options) (*Store, error) {
	if options.Path == "" {
		return nil, errors.New("settings file path must not be empty")
	}
	if options.EnvPrefix == "" {
		options.EnvPrefix = DefaultEnvPrefix
	}
	if err := ensureFile(options.Path); err != nil {
		return nil, err
	}
	cur, err := read(options.Path, options.EnvPrefix)
	if err != nil {
		return nil, err
	}
	return &Store{
		path:      options.Path,
		envPrefix: options.EnvPrefix,
		event:     options.Event,
		cur:       *cur,
	}, nil
}

// Path returns the settings file path.
func (s *Store) Path() string { return s.path }

// Get returns a copy of the current settings.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Update applies fn to a copy of the current settings, validates the
// result and persists it. If fn, validation or writing fails the current
// settings stay untouched and the error is returned.
func (s *Store) Update(fn func(*Settings) error) (Settings, error) {
	s.mu.Lock()
	prev := s.cur
	next := prev
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return prev, err
	}
	if _, errs := next.Validate(); len(errs) != 0 {
		s.mu.Unlock()
		return prev, errors.Join(errs...)
	}
	if next == prev {
		s.mu.Unlock()
		return next, nil
	}
	if err := write(s.path, &next); err != nil {
		s.mu.Unlock()
		return prev, err
	}
	s.cur = next
	s.mu.Unlock()

	s.fire(prev, next)
	return next, nil
}

// Reload re-reads the settings file and returns the settings before and after.
// Settings that fail validation are rejected and the current ones kept.
//
// If the url changed but the cached hash did not, the hash belongs to the
// previous pack and is cleared, also in the file.
func (s *Store) Reload() (prev, cur Settings, err error) {
	s.mu.Lock()
	prev = s.cur
	loaded, err := read(s.path, s.envPrefix)
	if err != nil {
		s.mu.Unlock()
		return prev, prev, err
	}
	if _, errs := loaded.Validate(); len(errs) != 0 {
		s.mu.Unlock()
		return prev, prev, errors.Join(errs...)
	}
	if loaded.URL != prev.URL && loaded.Hash != "" && loaded.Hash == prev.Hash {
		loaded.Hash = ""
		if err = write(s.path, loaded); err != nil {
			s.mu.Unlock()
			return prev, prev, err
		}
	}
	s.cur = *loaded
	s.mu.Unlock()

	if *loaded != prev {
		s.fire(prev, *loaded)
	}
	return prev, *loaded, nil
}

func (s *Store) fire(prev, cur Settings) {
	if s.event == nil {
		return
	}
	s.event.Fire(&UpdateEvent{Prev: prev, Settings: cur})
}

func ensureFile(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error reading settings file %q: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err = os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating settings directory %q: %w", dir, err)
		}
	}
	if err = renameio.WriteFile(path, configs.DefaultSettingsBytes, 0o644); err != nil {
		return fmt.Errorf("error writing default settings file %q: %w", path, err)
	}
	return nil
}

func read(path, envPrefix string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading settings file %q: %w", path, err)
	}
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err = v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("error reading settings file %q: %w", path, err)
	}
	if err = keepLiterals(v, data); err != nil {
		return nil, fmt.Errorf("error decoding settings file %q: %w", path, err)
	}
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("error decoding settings file %q: %w", path, err)
	}
	return &s, nil
}

// stringKeys are the settings keys holding strings.
var stringKeys = []string{"url", "prompt", "hash"}

// keepLiterals restores the source text of string keys whose unquoted
// value YAML resolved to another type, e.g. an all-digit hash read as a
// number. Values from the environment are strings already and are kept.
func keepLiterals(v *viper.Viper, data []byte) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil
	}
	m := doc.Content[0]
	for i := 0; i+1 < len(m.Content); i += 2 {
		key, val := m.Content[i].Value, m.Content[i+1]
		if !slices.Contains(stringKeys, key) {
			continue
		}
		if _, ok := v.Get(key).(string); ok {
			continue
		}
		if val.Kind != yaml.ScalarNode {
			return fmt.Errorf("%s must be a string, got a %s", key, kindName(val.Kind))
		}
		v.Set(key, val.Value)
	}
	return nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "list"
	case yaml.MappingNode:
		return "map"
	case yaml.AliasNode:
		return "alias"
	default:
		return "value"
	}
}

const hashComment = "# Hex SHA-1 of the pack at url, maintained automatically.\n# Remove it to force a rehash on the next start."

// encode encodes s carrying the key comments of the default settings file.
func encode(s *Settings) (*yaml.Node, error) {
	var node yaml.Node
	if err := node.Encode(s); err != nil {
		return nil, err
	}
	comments := map[string]string{"hash": hashComment}
	var def yaml.Node
	if err := yaml.Unmarshal(configs.DefaultSettingsBytes, &def); err != nil {
		return nil, err
	}
	if len(def.Content) != 0 {
		m := def.Content[0]
		node.HeadComment = joinComments(def.HeadComment, m.HeadComment)
		for i := 0; i+1 < len(m.Content); i += 2 {
			comments[m.Content[i].Value] = m.Content[i].HeadComment
		}
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if c := comments[node.Content[i].Value]; c != "" {
			node.Content[i].HeadComment = c
		}
	}
	return &node, nil
}

func joinComments(comments ...string) string {
	var parts []string
	for _, c := range comments {
		if c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, "\n\n")
}

func write(path string, s *Settings) (err error) {
	pending, err := renameio.NewPendingFile(path,
		renameio.WithPermissions(0o644),
		renameio.WithExistingPermissions(),
	)
	if err != nil {
		return fmt.Errorf("error creating pending settings file: %w", err)
	}
	defer func() { _ = pending.Cleanup() }()

	node, err := encode(s)
	if err != nil {
		return fmt.Errorf("error encoding settings: %w", err)
	}
	enc := yaml.NewEncoder(pending)
	enc.SetIndent(2)
	if err = enc.Encode(node); err != nil {
		return fmt.Errorf("error encoding settings: %w", err)
	}
	if err = enc.Close(); err != nil {
		return fmt.Errorf("error encoding settings: %w", err)
	}
	if err = pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("error replacing settings file %q: %w", path, err)
	}
	return nil
}
