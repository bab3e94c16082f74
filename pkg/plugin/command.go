package plugin

import (
	"context"
	"errors"
	"fmt"

	"go.minekube.com/brigodier"
	. "go.minekube.com/common/minecraft/color"
	. "go.minekube.com/common/minecraft/component"
	"go.minekube.com/gate/pkg/command"

	"go.minekube.com/serverpacks/pkg/internal/future"
	"go.minekube.com/serverpacks/pkg/pack"
	"go.minekube.com/serverpacks/pkg/settings"
)

const (
	urlArg    = "url"
	promptArg = "prompt"
)

// Command returns the /pack command.
func (sp *ServerPacks) Command() brigodier.LiteralNodeBuilder {
	return brigodier.Literal("pack").
		Requires(command.Requires(func(c *command.RequiresContext) bool {
			return c.Source.HasPermission(sp.permission)
		})).
		Then(brigodier.Literal("set").
			Then(brigodier.Argument(urlArg, brigodier.QuotablePhase).
				Executes(command.Command(func(c *command.Context) error {
					return sp.setPack(c, nil)
				})).
				Then(sp.pushNode(sp.setPack)),
			),
		).
		Then(brigodier.Literal("remove").
			Executes(command.Command(sp.removePack)),
		).
		Then(brigodier.Literal("reload").
			Executes(command.Command(func(c *command.Context) error {
				return sp.reloadPack(c, nil)
			})).
			Then(sp.pushNode(sp.reloadPack)),
		).
		Then(sp.pushNode(sp.pushPack)).
		Then(brigodier.Literal("required").
			Executes(command.Command(sp.showRequired)).
			Then(brigodier.Literal("true").Executes(command.Command(func(c *command.Context) error {
				return sp.setRequired(c, true)
			}))).
			Then(brigodier.Literal("false").Executes(command.Command(func(c *command.Context) error {
				return sp.setRequired(c, false)
			}))),
		).
		Then(brigodier.Literal("prompt").
			Executes(command.Command(sp.showPrompt)).
			Then(brigodier.Literal("clear").Executes(command.Command(sp.clearPrompt))).
			Then(brigodier.Argument(promptArg, brigodier.GreedyPhrase).
				Executes(command.Command(sp.setPrompt)),
			),
		).
		Then(brigodier.Literal("info").
			Executes(command.Command(sp.showInfo)),
		)
}

// pushNode returns "push [<players>]" running fn with all online
// players or the selected ones.
func (sp *ServerPacks) pushNode(fn func(*command.Context, []pack.Target) error) brigodier.LiteralNodeBuilder {
	return brigodier.Literal("push").
		Executes(command.Command(func(c *command.Context) error {
			return fn(c, sp.roster.Targets())
		})).
		Then(brigodier.Argument(playersArg, brigodier.GreedyPhrase).
			Suggests(sp.playerSuggestions()).
			Executes(command.Command(func(c *command.Context) error {
				targets, ok := sp.selectTargets(c)
				if !ok {
					return nil
				}
				return fn(c, targets)
			})),
		)
}

func (sp *ServerPacks) setPack(c *command.Context, targets []pack.Target) error {
	rawURL := c.String(urlArg)
	if !settings.ValidURL(rawURL) {
		sp.reply(c.Source, red("The text supplied is not a valid URL"))
		return nil
	}
	_, err := sp.store.Update(func(s *settings.Settings) error {
		if s.URL != rawURL {
			s.URL = rawURL
			s.Hash = ""
		}
		return nil
	})
	if err != nil {
		return sp.saveFailed(c, err)
	}
	sp.log.Info("resource pack url set", "url", rawURL, "by", sourceName(c.Source))
	sp.reply(c.Source, plain("Pack URL has been updated. Reloading hash..."))
	sp.updateHash(c.Source, sp.manager.UpdateHash, targets)
	return nil
}

func (sp *ServerPacks) removePack(c *command.Context) error {
	_, err := sp.store.Update(func(s *settings.Settings) error {
		s.URL = ""
		s.Hash = ""
		return nil
	})
	if err != nil {
		return sp.saveFailed(c, err)
	}
	sp.log.Info("resource pack removed", "by", sourceName(c.Source))
	sp.updateHash(c.Source, sp.manager.UpdateHash, nil)
	return nil
}

func (sp *ServerPacks) reloadPack(c *command.Context, targets []pack.Target) error {
	sp.updateHash(c.Source, sp.manager.RefreshHash, targets)
	return nil
}

func (sp *ServerPacks) pushPack(c *command.Context, targets []pack.Target) error {
	if _, ok := sp.manager.Info(); !ok {
		sp.reply(c.Source, plain("No resourcepack is set"))
		return nil
	}
	go sp.push(c.Source, targets)
	return nil
}

// hashUpdate is Manager.UpdateHash or Manager.RefreshHash.
type hashUpdate func(context.Context) *future.Chan[pack.Result]

// updateHash recomputes the pack hash, reports the outcome to src and
// pushes the pack to targets on success.
func (sp *ServerPacks) updateHash(src command.Source, update hashUpdate, targets []pack.Target) {
	sp.reply(src, plain("Updating pack hash..."))
	update(sp.ctx).ThenAccept(func(res pack.Result) {
		switch res.Outcome {
		case pack.Updated:
			sp.reply(src, plain("Pack Hash has been updated!"))
			if len(targets) != 0 {
				sp.reply(src, plain("Pushing to players..."))
				sp.push(src, targets)
			}
		case pack.Disabled:
			sp.reply(src, plain(PluginName+" has been disabled. This cannot be pushed to the players :("))
		default:
			sp.reply(src, red("Failed to update hash. Please check the server logs for more information."))
		}
	})
}

func (sp *ServerPacks) push(src command.Source, targets []pack.Target) {
	n, err := sp.pusher.Push(sp.ctx, targets)
	switch {
	case errors.Is(err, pack.ErrNoPack):
		sp.reply(src, plain("No resourcepack is set"))
		return
	case err != nil:
		sp.log.Error(err, "failed to push resource pack", "failed", len(targets)-n)
		sp.reply(src, red(fmt.Sprintf("Failed to push the pack to %d player(s). Please check the server logs for more information.", len(targets)-n)))
	}
	sp.log.Info("pushed resource pack", "players", n, "by", sourceName(src))
	sp.reply(src, plain(fmt.Sprintf("Pushed the pack to %d player(s).", n)))
}

func (sp *ServerPacks) showRequired(c *command.Context) error {
	sp.reply(c.Source, plain("Pack is "+requiredWord(sp.store.Get().Required)))
	return nil
}

func (sp *ServerPacks) setRequired(c *command.Context, required bool) error {
	_, err := sp.store.Update(func(s *settings.Settings) error {
		s.Required = required
		return nil
	})
	if err != nil {
		return sp.saveFailed(c, err)
	}
	sp.log.Info("resource pack requirement changed", "required", required, "by", sourceName(c.Source))
	sp.reply(c.Source, plain("Pack is now "+requiredWord(required)))
	return nil
}

func requiredWord(required bool) string {
	if required {
		return "required"
	}
	return "optional"
}

func (sp *ServerPacks) showPrompt(c *command.Context) error {
	s := sp.store.Get()
	p, err := s.PromptComponent()
	if err != nil {
		sp.log.Error(err, "ignoring invalid prompt in settings")
	}
	if p == nil {
		sp.reply(c.Source, plain("No prompt is set"))
		return nil
	}
	sp.reply(c.Source, plain("Current Prompt is: "), p)
	return nil
}

func (sp *ServerPacks) setPrompt(c *command.Context) error {
	p, err := settings.ParsePrompt(c.String(promptArg))
	if err == nil && p == nil {
		err = errors.New("prompt is blank")
	}
	if err != nil {
		sp.reply(c.Source, red(fmt.Sprintf("Invalid prompt: %v", err)))
		return nil
	}
	_, err = sp.store.Update(func(s *settings.Settings) error {
		return s.SetPrompt(p)
	})
	if err != nil {
		return sp.saveFailed(c, err)
	}
	sp.log.Info("resource pack prompt set", "prompt", settings.PlainPrompt(p), "by", sourceName(c.Source))
	sp.reply(c.Source, plain("Prompt has been set to: "), p)
	return nil
}

func (sp *ServerPacks) clearPrompt(c *command.Context) error {
	_, err := sp.store.Update(func(s *settings.Settings) error {
		return s.SetPrompt(nil)
	})
	if err != nil {
		return sp.saveFailed(c, err)
	}
	sp.log.Info("resource pack prompt removed", "by", sourceName(c.Source))
	sp.reply(c.Source, plain("Prompt has been removed"))
	return nil
}

func (sp *ServerPacks) showInfo(c *command.Context) error {
	s := sp.store.Get()
	// The store only holds valid urls, so a set url is always well-formed.
	if s.URL == "" {
		sp.reply(c.Source, plain("No resourcepack is set"))
		return nil
	}

	var hash Component = &Text{Content: "undetermined", S: Style{Color: Gray}}
	if h := sp.manager.HashString(); h != "" {
		hash = &Text{Content: h, S: Style{Color: LightPurple, Italic: True}}
	}
	if sp.manager.Updating() {
		hash = &Text{Extra: []Component{hash, &Text{Content: " (updating...)", S: Style{Color: Gray}}}}
	}

	required := &Text{Content: "optional", S: Style{Color: Yellow}}
	if s.Required {
		required = &Text{Content: "required", S: Style{Color: Red}}
	}

	var prompt Component = plain("No prompt is set")
	if p, err := s.PromptComponent(); err != nil {
		sp.log.Error(err, "ignoring invalid prompt in settings")
	} else if p != nil {
		prompt = &Text{Content: "Prompt:\n    ", Extra: []Component{p}}
	}

	sp.reply(c.Source,
		plain("Pack URL: "),
		&Text{Content: s.URL, S: Style{
			Color:      Green,
			Underlined: True,
			ClickEvent: OpenUrl(s.URL),
			HoverEvent: ShowText(plain("Click to open")),
		}},
		plain("\nPack hash: "), hash,
		plain("\nPack is "), required,
		plain("\n"), prompt,
	)
	return nil
}

func (sp *ServerPacks) saveFailed(c *command.Context, err error) error {
	sp.log.Error(err, "failed to save settings", "path", sp.store.Path())
	sp.reply(c.Source, red("Failed to save settings. Please check the server logs for more information."))
	return nil
}
