package plugin

import (
	. "go.minekube.com/common/minecraft/color"
	. "go.minekube.com/common/minecraft/component"
	"go.minekube.com/gate/pkg/command"
)

var prefix = &Text{Extra: []Component{
	&Text{Content: "[", S: Style{Color: Yellow}},
	&Text{Content: "Packs", S: Style{Color: Aqua}},
	&Text{Content: "] ", S: Style{Color: Yellow}},
}}

func message(parts ...Component) *Text {
	return &Text{Extra: append([]Component{prefix}, parts...)}
}

func plain(s string) *Text { return &Text{Content: s} }

func red(s string) *Text { return &Text{Content: s, S: Style{Color: Red}} }

// reply sends a prefixed message to src.
func (sp *ServerPacks) reply(src command.Source, parts ...Component) {
	if err := src.SendMessage(message(parts...)); err != nil {
		sp.log.V(1).Info("failed to send command feedback", "error", err)
	}
}

func sourceName(src command.Source) string {
	if named, ok := src.(interface{ Username() string }); ok {
		return named.Username()
	}
	return "console"
}
