package plugin

import (
	"fmt"
	"strings"

	"github.com/agext/levenshtein"
	"go.minekube.com/brigodier"
	"go.minekube.com/gate/pkg/command"
	"go.minekube.com/gate/pkg/command/suggest"
	"go.minekube.com/gate/pkg/edition/java/proxy"

	"go.minekube.com/serverpacks/pkg/pack"
)

// Roster looks up online players.
type Roster interface {
	// Targets returns all online players.
	Targets() []pack.Target
	// Target returns the online player by name or nil.
	Target(username string) pack.Target
}

type proxyRoster struct{ p *proxy.Proxy }

func (r *proxyRoster) Targets() []pack.Target {
	players := r.p.Players()
	targets := make([]pack.Target, len(players))
	for i, p := range players {
		targets[i] = p
	}
	return targets
}

func (r *proxyRoster) Target(username string) pack.Target {
	if p := r.p.PlayerByName(username); p != nil {
		return p
	}
	return nil
}

const playersArg = "players"

var allSelectors = []string{"@a", "all"}

// selectTargets resolves the players argument.
// Unknown names are reported and skipped.
func (sp *ServerPacks) selectTargets(c *command.Context) ([]pack.Target, bool) {
	names := strings.Fields(c.String(playersArg))
	var (
		targets []pack.Target
		seen    = map[string]bool{}
	)
	for _, name := range names {
		for _, sel := range allSelectors {
			if strings.EqualFold(name, sel) {
				return sp.roster.Targets(), true
			}
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		t := sp.roster.Target(name)
		if t == nil {
			msg := fmt.Sprintf("Player %q doesn't exist.", name)
			if similar := sp.similarPlayer(name); similar != "" {
				msg += fmt.Sprintf(" Did you mean %s?", similar)
			}
			sp.reply(c.Source, red(msg))
			continue
		}
		targets = append(targets, t)
	}
	return targets, len(targets) != 0
}

// minSimilarity is the least levenshtein similarity of a suggested name.
const minSimilarity = 0.6

// similarPlayer returns the online player name closest to name or "".
func (sp *ServerPacks) similarPlayer(name string) string {
	var (
		best  string
		score = minSimilarity
	)
	name = strings.ToLower(name)
	for _, t := range sp.roster.Targets() {
		s := levenshtein.Similarity(name, strings.ToLower(t.Username()), nil)
		if s >= score {
			best, score = t.Username(), s
		}
	}
	return best
}

func (sp *ServerPacks) playerSuggestions() brigodier.SuggestionProvider {
	return command.SuggestFunc(func(_ *command.Context, b *brigodier.SuggestionsBuilder) *brigodier.Suggestions {
		candidates := []string{allSelectors[0]}
		for _, t := range sp.roster.Targets() {
			candidates = append(candidates, t.Username())
		}
		return suggest.Similar(b, candidates).Build()
	})
}
