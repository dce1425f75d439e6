// SpacePad - SpaceMouse to keyboard translation
// Turns 3Dconnexion SpaceMouse motion into key presses for games.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/config"
	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/logging"
)

var version = "0.3.0"

var app = &cli.App{
	Name:                 "spacepad",
	Usage:                "translate SpaceMouse motion into keyboard input",
	Version:              version,
	HideHelpCommand:      true,
	EnableBashCompletion: true,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "debug",
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
		&cli.StringFlag{
			Name:  "config-dir",
			Usage: "read settings and profiles from `DIR` instead of the per-user config directory",
		},
		&cli.BoolFlag{
			Name:  "no-color",
			Usage: "disable colored output",
		},
	},
	Commands: []*cli.Command{
		runCommand,
		devicesCommand,
		watchCommand,
		profilesCommand,
		schemaCommand,
		autostartCommand,
	},
	DefaultCommand: "run",
}

// env is the state shared by every command
type env struct {
	logger *zap.SugaredLogger
	cfgMgr *config.Manager
	store  *config.Store
}

func setup(c *cli.Context) (*env, error) {
	if c.Bool("no-color") {
		color.NoColor = true
	}
	logger := logging.New(logging.Options{Debug: c.Bool("debug"), NoColor: c.Bool("no-color")})

	var (
		cfgMgr *config.Manager
		err    error
	)
	if dir := c.String("config-dir"); dir != "" {
		cfgMgr, err = config.NewManagerAt(dir, logger)
	} else {
		cfgMgr, err = config.NewManager(logger)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}
	if err := cfgMgr.Load(); err != nil {
		logger.Warnf("Config: Failed to load settings, using defaults: %v", err)
	}

	// the settings file may add a log file
	if cfg := cfgMgr.Get(); cfg.LogFile != "" {
		logger = logging.New(logging.Options{Debug: c.Bool("debug"), NoColor: c.Bool("no-color"), File: cfg.LogFile})
	}

	store, err := config.NewStore(cfgMgr.ProfilesDir(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open profiles: %w", err)
	}
	return &env{logger: logger, cfgMgr: cfgMgr, store: store}, nil
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "spacepad: %v\n", err)
		os.Exit(1)
	}
}
