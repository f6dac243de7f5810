// Package command builds the namesync command line.
package command

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"namesync/internal/config"
	"namesync/internal/logging"
	"namesync/internal/monitor"
	"namesync/internal/orchestrator"
	"namesync/internal/output"
	"namesync/internal/ui"
)

const appName = "namesync"

// Dependencies are the process streams and hooks the commands run against.
type Dependencies struct {
	Version string
	Stdin   *os.File
	Stdout  io.Writer
	Stderr  io.Writer
	// Asker replaces the terminal prompt of the run command.
	Asker ui.Asker
	// Ready is passed on to orchestrator.Options.
	Ready func(*monitor.Summary)
}

// DefaultDependencies returns the dependencies of a normal process.
func DefaultDependencies(version string) Dependencies {
	return Dependencies{
		Version: version,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// NewApp constructs the root command.
func NewApp(deps Dependencies) *cli.Command {
	if deps.Stdout == nil {
		deps.Stdout = io.Discard
	}
	if deps.Stderr == nil {
		deps.Stderr = io.Discard
	}
	return &cli.Command{
		Name:      appName,
		Usage:     "keep project names in sync with their folders",
		Version:   deps.Version,
		Writer:    deps.Stdout,
		ErrWriter: deps.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "workspace",
				Aliases: []string{"w"},
				Usage:   "workspace root (default: current directory)",
				Sources: cli.EnvVars("NAMESYNC_WORKSPACE"),
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "configuration file (default: <workspace>/" + config.DefaultFileName + ")",
				Sources: cli.EnvVars("NAMESYNC_CONFIG"),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "list every project",
			},
		},
		Commands: []*cli.Command{
			runCommand(deps),
			scanCommand(deps),
			problemsCommand(deps),
			ignoreCommand(deps),
			closeCommand(deps),
			openCommand(deps),
			historyCommand(deps),
			initCommand(deps),
		},
	}
}

// session is one command's view of the workspace.
type session struct {
	cfg     *config.Configuration
	orch    *orchestrator.Orchestrator
	out     *output.Output
	closers []func() error
}

func (s *session) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i]()
	}
}

func resolvePaths(cmd *cli.Command) (workspace, configPath string, err error) {
	workspace = cmd.String("workspace")
	if workspace == "" {
		if workspace, err = os.Getwd(); err != nil {
			return "", "", err
		}
	}
	if workspace, err = filepath.Abs(workspace); err != nil {
		return "", "", err
	}
	configPath = cmd.String("config")
	if configPath == "" {
		configPath = filepath.Join(workspace, config.DefaultFileName)
	}
	return workspace, configPath, nil
}

func loadConfig(cmd *cli.Command, deps Dependencies) (*config.Configuration, error) {
	workspace, configPath, err := resolvePaths(cmd)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}
	cfg, err := config.LoadOrCreate(configPath, workspace)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}

	result := config.ValidateConfig(cfg)
	for _, w := range result.Warnings {
		fmt.Fprintf(deps.Stderr, "Warning: %s: %s\n", w.Field, w.Message)
	}
	if !result.Valid {
		for _, e := range result.Errors {
			fmt.Fprintf(deps.Stderr, "Error: %s: %s\n", e.Field, e.Message)
		}
		return nil, cli.Exit("invalid configuration", 1)
	}
	return cfg, nil
}

// open loads the configuration, installs the logger and creates the orchestrator.
func open(ctx context.Context, cmd *cli.Command, deps Dependencies, mode logging.Mode) (*session, error) {
	cfg, err := loadConfig(cmd, deps)
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg}

	logger, closeLogger, err := logging.Init(ctx, cfg.Logging, logging.InitOptions{
		App:     appName,
		Version: deps.Version,
		Mode:    mode,
		Dir:     cfg.StateDirectory,
		Stderr:  deps.Stderr,
	})
	if err != nil {
		if mode == logging.ModeWatch {
			return nil, cli.Exit(fmt.Sprintf("init logging: %v", err), 1)
		}
		logger = slog.New(slog.NewTextHandler(deps.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		slog.SetDefault(logger)
		logger.Error("init logging failed; using stderr fallback", "err", err)
	} else if closeLogger != nil {
		s.closers = append(s.closers, closeLogger)
	}

	s.out = output.New(output.Config{
		Verbose:   cmd.Bool("verbose"),
		Writer:    deps.Stdout,
		ErrWriter: deps.Stderr,
		IsTTY:     isTerminal(deps.Stdout),
	})
	orch, err := orchestrator.New(cfg, orchestrator.Options{
		Output: s.out,
		Logger: logger,
		Input:  deps.Stdin,
		Asker:  deps.Asker,
		Ready:  deps.Ready,
	})
	if err != nil {
		s.close()
		return nil, cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}
	s.orch = orch
	s.closers = append(s.closers, orch.Close)
	return s, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func requireArg(cmd *cli.Command, what string) (string, error) {
	arg := cmd.Args().First()
	if arg == "" {
		return "", cli.Exit(fmt.Sprintf("missing %s argument", what), 2)
	}
	return arg, nil
}
