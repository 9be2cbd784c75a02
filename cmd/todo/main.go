package main

import (
	"context"
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"todo/internal/config"
)

func newCommand() *cli.Command {
	return &cli.Command{
		Name:   "todo",
		Usage:  "Personal task tracker with ranked search and an interactive editor",
		Action: overviewAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Sources: cli.EnvVars(config.EnvConfigPath),
			},
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Todo file, overrides todo_path and discovery",
			},
		},
		Commands: []*cli.Command{
			searchCommand(),
			addCommand(),
			editCommand(),
			listCommand(),
			updateCommand(),
			deleteCommand(),
			showCommand(),
			statsCommand(),
		},
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "todo: %v\n", err)
		os.Exit(1)
	}
}
