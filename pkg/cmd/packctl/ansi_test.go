package packctl

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.minekube.com/common/minecraft/component"

	"go.minekube.com/serverpacks/pkg/settings"
)

var ansiEscape = regexp.MustCompile("\x1b\\[[0-9;]*m")

func TestAnsiText(t *testing.T) {
	assert.Equal(t, "", ansiText(nil))
	assert.Equal(t, "hello", ansiText(&component.Text{Content: "hello"}))

	p, err := settings.ParsePrompt("&aPlease &laccept&r the pack")
	require.NoError(t, err)
	out := ansiText(p)
	assert.NotContains(t, out, "&")
	assert.NotContains(t, out, "§")
	assert.Equal(t, "Please accept the pack", ansiEscape.ReplaceAllString(out, ""))
}
