// Package configs provides embedded default settings files.
package configs

import _ "embed"

// DefaultSettingsBytes is the settings file written when none exists yet
// and printed by `packctl config`.
//
//go:embed serverpacks.yml
var DefaultSettingsBytes []byte
