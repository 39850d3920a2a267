package main

import "github.com/urfave/cli/v3"

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Initialize database and run migrations",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

func importCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import the Top 2000 catalog and edition history",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Re-import even when the catalog is already populated",
			},
		},
		Action: r.Import,
	}
}

func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Poll the station and track song transitions",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "serve",
				Usage: "Also serve the HTTP API",
			},
		},
		Action: r.Run,
	}
}

func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "watch",
		Usage:  "Follow the countdown in an interactive terminal view",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Watch,
	}
}

func currentCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "current",
		Usage: "Show the last detected song",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format: plain, markdown",
				Value: "plain",
			},
		},
		Action: r.Current,
	}
}

func upcomingCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "upcoming",
		Usage: "Show the songs playing next",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:  "count",
				Usage: "Number of upcoming songs to show",
				Value: 0,
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format: plain, csv, markdown",
				Value: "plain",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write CSV output to a file instead of stdout",
			},
		},
		Action: r.Upcoming,
	}
}

func rulesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "rules",
		Usage: "Manage notification rules",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Add a notification rule",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "type",
						Usage:    "Rule type: artist, title, position_range",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "pattern",
						Usage:    "Substring to match, case-insensitive",
						Required: true,
					},
				},
				Action: r.RulesAdd,
			},
			{
				Name:  "list",
				Usage: "List notification rules in evaluation order",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "enabled",
						Usage: "Show enabled rules only",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.RulesList,
			},
			{
				Name:  "remove",
				Usage: "Remove a notification rule",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Rule ID to remove",
						Required: true,
					},
				},
				Action: r.RulesRemove,
			},
			{
				Name:  "enable",
				Usage: "Enable a notification rule",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Rule ID to enable",
						Required: true,
					},
				},
				Action: r.RulesEnable,
			},
			{
				Name:  "disable",
				Usage: "Disable a notification rule",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Rule ID to disable",
						Required: true,
					},
				},
				Action: r.RulesDisable,
			},
		},
	}
}

func settingsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Manage notification settings",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the current notification settings",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.SettingsShow,
			},
			{
				Name:  "set",
				Usage: "Update notification settings",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringSliceFlag{
						Name:  "target",
						Usage: "Notification target, repeatable (replaces the stored list)",
					},
					&cli.BoolFlag{
						Name:  "notify-current",
						Usage: "Notify when a new song is detected",
					},
					&cli.BoolFlag{
						Name:  "notify-upcoming",
						Usage: "Notify ahead of upcoming songs",
					},
					&cli.IntSliceFlag{
						Name:  "offset",
						Usage: "Upcoming notification offset, repeatable (replaces the stored list)",
					},
				},
				Action: r.SettingsSet,
			},
		},
	}
}
