package packctl

import (
	"bytes"
	"strings"
	"unicode"

	"github.com/gookit/color"
	"go.minekube.com/common/minecraft/component"
	"go.minekube.com/common/minecraft/component/codec/legacy"

	"go.minekube.com/serverpacks/pkg/settings"
)

var sectionCodec = &legacy.Legacy{Char: legacy.DefaultChar}

var legacyColors = map[rune]color.Color{
	'0': color.Black,
	'1': color.Blue,
	'2': color.Green,
	'3': color.Cyan,
	'4': color.Red,
	'5': color.Magenta,
	'6': color.Yellow,
	'7': color.White,
	'8': color.Gray,
	'9': color.LightBlue,
	'a': color.LightGreen,
	'b': color.LightCyan,
	'c': color.LightRed,
	'd': color.LightMagenta,
	'e': color.LightYellow,
	'f': color.LightWhite,
}

var legacyDecorations = map[rune]color.Color{
	'k': color.OpConcealed,
	'l': color.OpBold,
	'm': color.OpStrikethrough,
	'n': color.OpUnderscore,
	'o': color.OpItalic,
}

func plainStyle(s string) string { return s }

// ansiText renders c for a terminal. A color code resets decorations,
// decorations stack until the next color or reset.
func ansiText(c component.Component) string {
	if c == nil {
		return ""
	}
	b := new(bytes.Buffer)
	if err := sectionCodec.Marshal(b, c); err != nil {
		return settings.PlainPrompt(c)
	}

	var (
		out   strings.Builder
		run   strings.Builder
		style = plainStyle
		code  bool
	)
	flush := func() {
		if run.Len() != 0 {
			out.WriteString(style(run.String()))
			run.Reset()
		}
	}
	for _, r := range b.String() {
		switch {
		case r == legacy.DefaultChar && !code:
			code = true
		case code:
			code = false
			flush()
			r = unicode.ToLower(r)
			if col, ok := legacyColors[r]; ok {
				style = col.Sprint
			} else if d, ok := legacyDecorations[r]; ok {
				prev := style
				style = func(s string) string { return prev(d.Sprint(s)) }
			} else {
				style = plainStyle
			}
		default:
			run.WriteRune(r)
		}
	}
	flush()
	return out.String()
}
