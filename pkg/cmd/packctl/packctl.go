// Package packctl implements the packctl command line tool that manages
// the resource pack settings file without a running proxy.
package packctl

import (
	"context"
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"go.minekube.com/serverpacks/pkg/settings"
)

// Execute runs App() and exits on error.
func Execute() {
	if err := App().Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// App returns the packctl cli application.
func App() *cli.App {
	app := cli.NewApp()
	app.Name = "packctl"
	app.Usage = "Manage the server resource pack settings"
	app.Description = `Reads and changes the settings file used by the ServerPacks proxy plugin.
A running proxy picks up changes automatically.`
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "settings",
			Aliases: []string{"s"},
			Usage:   "Settings file path",
			Value:   settings.DefaultFile,
			EnvVars: []string{"SERVERPACKS_FILE"},
		},
		&cli.BoolFlag{
			Name:    "debug",
			Aliases: []string{"d"},
			Usage:   "Enable debug logging",
			EnvVars: []string{"SERVERPACKS_DEBUG"},
		},
	}
	app.Before = func(c *cli.Context) error {
		log, err := newLogger(c.Bool("debug"))
		if err != nil {
			return cli.Exit(fmt.Errorf("error initializing logger: %w", err), 1)
		}
		c.Context = logr.NewContext(c.Context, log)
		return nil
	}
	app.Commands = []*cli.Command{
		configCommand(),
		infoCommand(),
		hashCommand(),
		setCommand(),
		removeCommand(),
		requiredCommand(),
		promptCommand(),
	}
	return app
}

func newLogger(debug bool) (logr.Logger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}

	l, err := cfg.Build()
	if err != nil {
		return logr.Discard(), err
	}
	return zapr.NewLogger(l).WithName("packctl"), nil
}

func openStore(c *cli.Context) (*settings.Store, error) {
	store, err := settings.Open(settings.Options{Path: c.String("settings")})
	if err != nil {
		return nil, cli.Exit(fmt.Errorf("error loading settings: %w", err), 1)
	}
	s := store.Get()
	warns, _ := s.Validate()
	log := logr.FromContextOrDiscard(c.Context)
	for _, w := range warns {
		log.Info("settings validation warning", "warn", w)
	}
	return store, nil
}

func update(c *cli.Context, store *settings.Store, fn func(*settings.Settings) error) error {
	if _, err := store.Update(fn); err != nil {
		return cli.Exit(fmt.Errorf("error saving settings: %w", err), 1)
	}
	return nil
}

func printf(c *cli.Context, format string, a ...any) {
	_, _ = fmt.Fprintf(c.App.Writer, format, a...)
}

func ctx(c *cli.Context) context.Context {
	if c.Context == nil {
		return context.Background()
	}
	return c.Context
}
