package packctl

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	"github.com/gookit/color"
	"github.com/urfave/cli/v2"

	"go.minekube.com/serverpacks/pkg/pack"
	"go.minekube.com/serverpacks/pkg/settings"
)

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "Show the current pack settings",
		Action: func(c *cli.Context) error {
			store, err := openStore(c)
			if err != nil {
				return err
			}
			s := store.Get()
			if s.URL == "" {
				printf(c, "No resourcepack is set\n")
				return nil
			}
			hash := color.Gray.Sprint("undetermined")
			if s.HashBytes() != nil {
				hash = color.LightMagenta.Sprint(s.Hash)
			}
			prompt := "No prompt is set"
			if p, err := s.PromptComponent(); err != nil {
				prompt = color.Red.Sprintf("invalid (%v)", err)
			} else if p != nil {
				prompt = ansiText(p)
			}
			required := color.Yellow.Sprint("optional")
			if s.Required {
				required = color.Red.Sprint("required")
			}
			printf(c, "URL:      %s\n", color.Green.Sprint(s.URL))
			printf(c, "ID:       %s\n", pack.ID(s.URL))
			printf(c, "Hash:     %s\n", hash)
			printf(c, "Required: %s\n", required)
			printf(c, "Rehash:   %t\n", s.RehashOnStart)
			printf(c, "Prompt:   %s\n", prompt)
			return nil
		},
	}
}

var digestFlags = []cli.Flag{
	&cli.Int64Flag{
		Name:  "max-size",
		Usage: "Maximum pack size in bytes",
		Value: pack.DefaultMaxSize,
	},
	&cli.DurationFlag{
		Name:  "timeout",
		Usage: "Download timeout",
		Value: pack.DefaultTimeout,
	},
}

func newDigester(c *cli.Context) *pack.Digester {
	return pack.NewDigester(pack.DigesterOptions{
		MaxSize: c.Int64("max-size"),
		Timeout: c.Duration("timeout"),
	})
}

func hashCommand() *cli.Command {
	return &cli.Command{
		Name:      "hash",
		Usage:     "Compute the SHA-1 hash of a pack",
		ArgsUsage: "[url]",
		Description: `Without an argument the configured pack is hashed and the hash is saved
to the settings file. With an url argument the hash is only printed.`,
		Flags: digestFlags,
		Action: func(c *cli.Context) error {
			if c.Args().Len() > 1 {
				return cli.Exit("expected at most one url argument", 1)
			}
			if rawURL := c.Args().First(); rawURL != "" {
				if _, err := settings.ParseURL(rawURL); err != nil {
					return cli.Exit(err, 1)
				}
				hash, err := newDigester(c).Digest(ctx(c), rawURL)
				if err != nil {
					return cli.Exit(fmt.Errorf("error hashing pack: %w", err), 1)
				}
				printf(c, "%s\n", hex.EncodeToString(hash))
				return nil
			}

			store, err := openStore(c)
			if err != nil {
				return err
			}
			return rehash(c, store)
		},
	}
}

// rehash updates the hash of the configured pack and prints the outcome.
func rehash(c *cli.Context, store *settings.Store) error {
	m, err := pack.NewManager(pack.Options{
		Logger: logr.FromContextOrDiscard(c.Context),
		Store:  store,
		Hasher: newDigester(c),
	})
	if err != nil {
		return cli.Exit(err, 1)
	}
	res, err := m.UpdateHash(ctx(c)).Wait(ctx(c))
	if err != nil {
		return cli.Exit(err, 1)
	}
	switch res.Outcome {
	case pack.Updated:
		printf(c, "%s\n", res.HashString())
	case pack.Disabled:
		printf(c, "No resourcepack is set\n")
	default:
		return cli.Exit(fmt.Errorf("error hashing pack: %w", res.Err), 1)
	}
	return nil
}

func setCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Set the pack url and compute its hash",
		ArgsUsage: "<url>",
		Flags: append([]cli.Flag{
			&cli.BoolFlag{
				Name:  "no-hash",
				Usage: "Only save the url, the proxy computes the hash",
			},
		}, digestFlags...),
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 {
				return cli.Exit("expected exactly one url argument", 1)
			}
			rawURL := c.Args().First()
			if _, err := settings.ParseURL(rawURL); err != nil {
				return cli.Exit(err, 1)
			}
			store, err := openStore(c)
			if err != nil {
				return err
			}
			err = update(c, store, func(s *settings.Settings) error {
				if s.URL != rawURL {
					s.URL = rawURL
					s.Hash = ""
				}
				return nil
			})
			if err != nil {
				return err
			}
			printf(c, "Pack URL has been updated\n")
			if c.Bool("no-hash") {
				return nil
			}
			return rehash(c, store)
		},
	}
}

func removeCommand() *cli.Command {
	return &cli.Command{
		Name:  "remove",
		Usage: "Remove the pack",
		Action: func(c *cli.Context) error {
			store, err := openStore(c)
			if err != nil {
				return err
			}
			err = update(c, store, func(s *settings.Settings) error {
				s.URL = ""
				s.Hash = ""
				return nil
			})
			if err != nil {
				return err
			}
			printf(c, "Pack has been removed\n")
			return nil
		},
	}
}

func requiredCommand() *cli.Command {
	return &cli.Command{
		Name:      "required",
		Usage:     "Show or set whether the pack is required",
		ArgsUsage: "[true|false]",
		Action: func(c *cli.Context) error {
			store, err := openStore(c)
			if err != nil {
				return err
			}
			if c.Args().Len() == 0 {
				printf(c, "Pack is %s\n", requiredWord(store.Get().Required))
				return nil
			}
			required, err := strconv.ParseBool(c.Args().First())
			if err != nil {
				return cli.Exit(fmt.Errorf("invalid value %q, expected true or false", c.Args().First()), 1)
			}
			err = update(c, store, func(s *settings.Settings) error {
				s.Required = required
				return nil
			})
			if err != nil {
				return err
			}
			printf(c, "Pack is now %s\n", requiredWord(required))
			return nil
		},
	}
}

func requiredWord(required bool) string {
	if required {
		return "required"
	}
	return "optional"
}

func promptCommand() *cli.Command {
	return &cli.Command{
		Name:      "prompt",
		Usage:     "Show, set or clear the pack prompt",
		ArgsUsage: "[text...]",
		Description: `The prompt accepts a JSON text component or legacy text with '&' color codes:

	packctl prompt '&aPlease accept our &lresource pack'
	packctl prompt '{"text":"Please accept","color":"gold"}'`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "clear",
				Usage: "Remove the prompt",
			},
		},
		Action: func(c *cli.Context) error {
			store, err := openStore(c)
			if err != nil {
				return err
			}
			if c.Bool("clear") {
				err = update(c, store, func(s *settings.Settings) error {
					return s.SetPrompt(nil)
				})
				if err != nil {
					return err
				}
				printf(c, "Prompt has been removed\n")
				return nil
			}
			if c.Args().Len() == 0 {
				s := store.Get()
				p, err := s.PromptComponent()
				if err != nil {
					return cli.Exit(err, 1)
				}
				if p == nil {
					printf(c, "No prompt is set\n")
					return nil
				}
				printf(c, "Current Prompt is: %s\n", ansiText(p))
				return nil
			}

			p, err := settings.ParsePrompt(strings.Join(c.Args().Slice(), " "))
			if err != nil {
				return cli.Exit(err, 1)
			}
			if p == nil {
				return cli.Exit("prompt is blank, use --clear to remove it", 1)
			}
			err = update(c, store, func(s *settings.Settings) error {
				return s.SetPrompt(p)
			})
			if err != nil {
				return err
			}
			printf(c, "Prompt has been set to: %s\n", ansiText(p))
			return nil
		},
	}
}
