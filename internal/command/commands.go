package command

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/urfave/cli/v3"

	"namesync/internal/config"
	"namesync/internal/journal"
	"namesync/internal/logging"
)

func runCommand(deps Dependencies) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "scan the workspace, then watch for added projects until interrupted",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := open(ctx, cmd, deps, logging.ModeWatch)
			if err != nil {
				return err
			}
			defer s.close()

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary, err := s.orch.Run(ctx)
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
			}
			s.out.ScanSummary(summary.Scan)
			s.out.Info("%s", summary.PrintSummary())
			if summary.HasErrors() {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

func scanCommand(deps Dependencies) *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "validate every open project once",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "fail-on-problems",
				Usage: "exit with status 3 when a project is flagged",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := open(ctx, cmd, deps, logging.ModeCLI)
			if err != nil {
				return err
			}
			defer s.close()

			summary, err := s.orch.Scan(ctx)
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
			}
			s.out.ScanSummary(summary)
			if cmd.Bool("fail-on-problems") && summary.Flagged() > 0 {
				return cli.Exit("", 3)
			}
			return nil
		},
	}
}

func problemsCommand(deps Dependencies) *cli.Command {
	return &cli.Command{
		Name:  "problems",
		Usage: "list project name problems",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := open(ctx, cmd, deps, logging.ModeCLI)
			if err != nil {
				return err
			}
			defer s.close()

			problems, err := s.orch.Problems()
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
			}
			s.out.Problems(problems)
			return nil
		},
	}
}

func ignoreCommand(deps Dependencies) *cli.Command {
	return &cli.Command{
		Name:  "ignore",
		Usage: "show or change the \"ignore renaming\" setting of projects",
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "print the setting of every project, or of the named ones",
				ArgsUsage: "[project...]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					s, err := open(ctx, cmd, deps, logging.ModeCLI)
					if err != nil {
						return err
					}
					defer s.close()

					rows, err := s.orch.IgnoreStatus(cmd.Args().Slice()...)
					if err != nil {
						return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
					}
					s.out.IgnoreTable(rows)
					return nil
				},
			},
			{
				Name:      "set",
				Usage:     "store the setting and revalidate the project",
				ArgsUsage: "<project>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "value",
						Usage: "ignore renaming (use --value=false to keep reporting)",
						Value: true,
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					name, err := requireArg(cmd, "project")
					if err != nil {
						return err
					}
					s, err := open(ctx, cmd, deps, logging.ModeCLI)
					if err != nil {
						return err
					}
					defer s.close()

					outcome, err := s.orch.SetIgnore(ctx, name, cmd.Bool("value"))
					if err != nil {
						return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
					}
					s.out.Info("%s: ignore=%s (%s)", name, strconv.FormatBool(cmd.Bool("value")), outcome)
					return nil
				},
			},
			{
				Name:      "reset",
				Usage:     "restore the default setting and revalidate the project",
				ArgsUsage: "<project>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					name, err := requireArg(cmd, "project")
					if err != nil {
						return err
					}
					s, err := open(ctx, cmd, deps, logging.ModeCLI)
					if err != nil {
						return err
					}
					defer s.close()

					outcome, err := s.orch.ResetIgnore(ctx, name)
					if err != nil {
						return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
					}
					s.out.Info("%s: ignore=false (%s)", name, outcome)
					return nil
				},
			},
		},
	}
}

func closeCommand(deps Dependencies) *cli.Command {
	return &cli.Command{
		Name:      "close",
		Usage:     "close a project; it is skipped until reopened",
		ArgsUsage: "<project>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name, err := requireArg(cmd, "project")
			if err != nil {
				return err
			}
			s, err := open(ctx, cmd, deps, logging.ModeCLI)
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.orch.CloseProject(name); err != nil {
				return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
			}
			s.out.Info("Closed %s", name)
			return nil
		},
	}
}

func openCommand(deps Dependencies) *cli.Command {
	return &cli.Command{
		Name:      "open",
		Usage:     "reopen a closed project",
		ArgsUsage: "<project>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name, err := requireArg(cmd, "project")
			if err != nil {
				return err
			}
			s, err := open(ctx, cmd, deps, logging.ModeCLI)
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.orch.OpenProject(name); err != nil {
				return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
			}
			s.out.Info("Opened %s", name)
			return nil
		},
	}
}

func historyCommand(deps Dependencies) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "print the validation history",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "project", Usage: "only events of this project"},
			&cli.StringFlag{Name: "type", Usage: "only events of this type, e.g. VALIDATED"},
			&cli.StringFlag{Name: "run", Usage: "only events of this run ID"},
			&cli.IntFlag{Name: "limit", Usage: "keep only the last N events", Value: 50},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := open(ctx, cmd, deps, logging.ModeCLI)
			if err != nil {
				return err
			}
			defer s.close()

			events, skipped, err := s.orch.History(journal.Filter{
				Project:   cmd.String("project"),
				EventType: journal.EventType(cmd.String("type")),
				RunID:     journal.RunID(cmd.String("run")),
				Limit:     int(cmd.Int("limit")),
			})
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
			}
			if skipped > 0 {
				s.out.Error("Warning: skipped %d unreadable journal line(s)", skipped)
			}
			s.out.History(events)
			return nil
		},
	}
}

func initCommand(deps Dependencies) *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "write a configuration file with the defaults",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "link",
				Usage: "add a linked project location (NAME=LOCATION or LOCATION)",
			},
			&cli.BoolFlag{Name: "force", Usage: "overwrite an existing file"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			workspace, configPath, err := resolvePaths(cmd)
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
			}
			if _, err := os.Stat(configPath); err == nil && !cmd.Bool("force") {
				return cli.Exit(fmt.Sprintf("%s already exists (use --force)", configPath), 1)
			}
			cfg, err := config.LoadOrCreate(configPath, workspace)
			if err != nil && !cmd.Bool("force") {
				return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
			}
			if cfg == nil {
				cfg = &config.Configuration{Workspace: workspace}
				cfg.ApplyDefaults()
			}
			for _, raw := range cmd.StringSlice("link") {
				cfg.AddLinkedProject(parseLink(raw))
			}
			if err := config.Save(cfg, configPath); err != nil {
				return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
			}
			fmt.Fprintf(deps.Stdout, "Wrote %s\n", configPath)
			return nil
		},
	}
}

// parseLink reads NAME=LOCATION. A value without "=" or with a URI scheme before the
// first "=" is a bare location.
func parseLink(raw string) config.LinkedProject {
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '=':
			return config.LinkedProject{Name: raw[:i], Location: raw[i+1:]}
		case ':', '/', '\\':
			return config.LinkedProject{Location: raw}
		}
	}
	return config.LinkedProject{Location: raw}
}
