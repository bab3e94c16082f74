package settings

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"go.minekube.com/common/minecraft/component"
	"go.minekube.com/common/minecraft/component/codec/legacy"
	protoutil "go.minekube.com/gate/pkg/edition/java/proto/util"
	"go.minekube.com/gate/pkg/edition/java/proto/version"
)

// ErrInvalidPrompt is returned for prompt text that cannot be decoded into a component.
var ErrInvalidPrompt = errors.New("invalid prompt text")

var legacyCodec = &legacy.Legacy{Char: legacy.AmpersandChar}

// ParsePrompt decodes prompt text into a component.
//
// Input starting with '{' is read as a JSON text component,
// anything else as legacy text using '&' formatting codes.
// A blank input yields a nil component and no error.
func ParsePrompt(s string) (component.Component, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var (
		c   component.Component
		err error
	)
	if strings.HasPrefix(s, "{") {
		c, err = protoutil.JsonCodec(version.MaximumVersion.Protocol).Unmarshal([]byte(s))
	} else {
		c, err = legacyCodec.Unmarshal([]byte(s))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPrompt, err)
	}
	if c == nil {
		return nil, fmt.Errorf("%w: decoded to nothing", ErrInvalidPrompt)
	}
	return c, nil
}

// EncodePrompt encodes c into the JSON form stored in the settings file.
// A nil component encodes to the empty string.
func EncodePrompt(c component.Component) (string, error) {
	if c == nil {
		return "", nil
	}
	b := new(bytes.Buffer)
	if err := protoutil.JsonCodec(version.MaximumVersion.Protocol).Marshal(b, c); err != nil {
		return "", fmt.Errorf("error encoding prompt: %w", err)
	}
	return b.String(), nil
}

// PlainPrompt renders c as legacy '&' text, e.g. for log output.
func PlainPrompt(c component.Component) string {
	if c == nil {
		return ""
	}
	b := new(bytes.Buffer)
	if err := legacyCodec.Marshal(b, c); err != nil {
		return ""
	}
	return b.String()
}
