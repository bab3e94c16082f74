package packctl

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/urfave/cli/v2"

	"go.minekube.com/serverpacks/pkg/configs"
)

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Output the default settings file",
		Description: `Output the default settings file to stdout or a file.
You can redirect to a file or use the --write flag:

	packctl config > serverpacks.yml
	packctl config --write           # Writes to the --settings path`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "write",
				Aliases: []string{"w"},
				Usage:   "Write to the settings file instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing settings file",
			},
		},
		Action: func(c *cli.Context) error {
			if !c.Bool("write") {
				_, err := c.App.Writer.Write(configs.DefaultSettingsBytes)
				if err != nil {
					return cli.Exit(fmt.Errorf("error writing settings: %w", err), 1)
				}
				return nil
			}

			outputFile := c.String("settings")
			if !c.Bool("force") {
				if _, err := os.Stat(outputFile); err == nil {
					return cli.Exit(fmt.Sprintf("%s already exists, use --force to overwrite", outputFile), 1)
				} else if !errors.Is(err, fs.ErrNotExist) {
					return cli.Exit(err, 1)
				}
			}
			if err := os.WriteFile(outputFile, configs.DefaultSettingsBytes, 0o644); err != nil {
				return cli.Exit(fmt.Errorf("error writing settings to %q: %w", outputFile, err), 1)
			}
			printf(c, "Settings written to %s\n", outputFile)
			return nil
		},
	}
}
