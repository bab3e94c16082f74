// Package settings holds the persisted resource pack settings and the
// file-backed store they are kept in.
package settings

import (
	"encoding/hex"
	"fmt"
	"strings"

	"go.minekube.com/common/minecraft/component"
	"go.minekube.com/gate/pkg/util/configutil"
)

// Settings are the resource pack settings persisted in the settings file.
type Settings struct {
	// URL is the download link of the pack. Empty disables the pack.
	URL string `yaml:"url" mapstructure:"url"`
	// Required marks the pack as mandatory for players.
	Required bool `yaml:"required" mapstructure:"required"`
	// RehashOnStart recomputes the pack hash every time the proxy starts.
	RehashOnStart bool `yaml:"rehash_on_start" mapstructure:"rehash_on_start"`
	// Prompt is the optional prompt message as a JSON text component.
	Prompt string `yaml:"prompt" mapstructure:"prompt"`
	// Hash is the hex encoded SHA-1 of the pack at URL, empty if undetermined.
	Hash string `yaml:"hash,omitempty" mapstructure:"hash"`
}

// Default are the settings written to a new settings file.
var Default = Settings{}

// SetDefaults sets Settings defaults to use with Viper.
func SetDefaults(i configutil.SetDefault) {
	i.SetDefault("url", Default.URL)
	i.SetDefault("required", Default.Required)
	i.SetDefault("rehash_on_start", Default.RehashOnStart)
	i.SetDefault("prompt", Default.Prompt)
	i.SetDefault("hash", Default.Hash)
}

// Validate validates Settings.
//
// A malformed prompt or cached hash is only a warning since both can be
// recovered from at runtime, a malformed URL is an error.
func (s *Settings) Validate() (warns []error, errs []error) {
	e := func(m string, args ...any) { errs = append(errs, fmt.Errorf(m, args...)) }
	w := func(m string, args ...any) { warns = append(warns, fmt.Errorf(m, args...)) }

	if s.URL != "" {
		if _, err := ParseURL(s.URL); err != nil {
			e("invalid url %q: %w", s.URL, err)
		}
	}
	if _, err := ParsePrompt(s.Prompt); err != nil {
		w("prompt is ignored: %w", err)
	}
	if s.Hash != "" {
		if _, err := decodeHash(s.Hash); err != nil {
			w("cached hash is ignored: %w", err)
		}
		if s.URL == "" {
			w("cached hash is set without an url")
		}
	}
	return
}

// PromptComponent decodes the prompt.
// It returns nil and no error if no prompt is set.
func (s *Settings) PromptComponent() (component.Component, error) {
	return ParsePrompt(s.Prompt)
}

// SetPrompt encodes c into the prompt. A nil c clears the prompt.
func (s *Settings) SetPrompt(c component.Component) error {
	p, err := EncodePrompt(c)
	if err != nil {
		return err
	}
	s.Prompt = p
	return nil
}

// HashBytes returns the decoded cached hash or nil if it is unset or malformed.
func (s *Settings) HashBytes() []byte {
	b, err := decodeHash(s.Hash)
	if err != nil {
		return nil
	}
	return b
}

// SetHash sets the cached hash. A nil hash clears it.
func (s *Settings) SetHash(hash []byte) {
	s.Hash = hex.EncodeToString(hash)
}

func decodeHash(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("hash %q is not hex encoded: %w", s, err)
	}
	if len(b) != hashLen {
		return nil, fmt.Errorf("hash %q must be %d bytes, got %d", s, hashLen, len(b))
	}
	return b, nil
}

// hashLen is the length of a SHA-1 digest.
const hashLen = 20
