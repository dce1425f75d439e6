package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/invopop/jsonschema"
	"github.com/urfave/cli/v2"

	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/config"
	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/device"
	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/intent"
	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/mapper"
	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/motion"
)

var backendFlag = &cli.StringFlag{
	Name:  "backend",
	Usage: "device reader: hid or evdev",
}

var devicesCommand = &cli.Command{
	Name:  "devices",
	Usage: "list connected SpaceMouse devices",
	Flags: []cli.Flag{backendFlag},
	Action: func(c *cli.Context) error {
		e, err := setup(c)
		if err != nil {
			return err
		}
		backend := c.String("backend")
		if backend == "" {
			backend = e.cfgMgr.Get().Backend
		}
		infos, err := device.List(backend)
		if err != nil {
			return err
		}
		if len(infos) == 0 {
			fmt.Fprintln(c.App.Writer, "No SpaceMouse found")
			return nil
		}
		fmt.Fprintln(c.App.Writer, "Connected devices:")
		for _, name := range device.UniqueNames(infos) {
			fmt.Fprintf(c.App.Writer, "  %s\n", name)
		}
		if c.Bool("debug") {
			fmt.Fprintln(c.App.Writer, "Interfaces:")
			for _, info := range infos {
				fmt.Fprintf(c.App.Writer, "  %s\n", info)
			}
		}
		return nil
	},
}

var watchCommand = &cli.Command{
	Name:  "watch",
	Usage: "print device motion and the intents it maps to, without sending keys",
	Flags: []cli.Flag{
		backendFlag,
		&cli.StringFlag{
			Name:  "device",
			Usage: "select a device by product `NAME` or path",
		},
		&cli.StringFlag{
			Name:    "profile",
			Aliases: []string{"p"},
			Usage:   "map with profile `NAME` instead of the active one",
		},
	},
	Action: watchAction,
}

func watchAction(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	cfg := e.cfgMgr.Get()
	backend := c.String("backend")
	if backend == "" {
		backend = cfg.Backend
	}
	name := c.String("profile")
	if name == "" {
		name = cfg.ActiveProfile
	}
	profile, err := e.store.Load(name)
	if err != nil {
		return err
	}

	source, err := device.New(backend, device.Options{Match: c.String("device"), Logger: e.logger})
	if err != nil {
		return err
	}
	if err := source.Connect(); err != nil {
		return err
	}
	defer source.Disconnect()
	color.New(color.FgGreen, color.Bold).Fprintf(c.App.Writer, "Watching %s with profile %s (Ctrl+C to stop)\n", source.Name(), profile.Name)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ticker := time.NewTicker(cfg.PollInterval())
	defer ticker.Stop()

	var last string
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		sample, err := source.Poll()
		if errors.Is(err, motion.ErrNotConnected) {
			return err
		}
		line := watchLine(sample, mapper.MapToIntents(sample, profile), err)
		if line != last {
			fmt.Fprintln(c.App.Writer, line)
			last = line
		}
	}
}

var (
	axisColor   = color.New(color.FgWhite)
	intentColor = color.New(color.FgCyan, color.Bold)
	errorColor  = color.New(color.FgRed)
)

// watchLine renders one sample for the watch command
func watchLine(s motion.Sample, intents intent.Set, err error) string {
	if err != nil {
		return errorColor.Sprintf("error: %v", err)
	}
	var b strings.Builder
	b.WriteString(axisColor.Sprint(s.String()))
	if intents.Len() > 0 {
		b.WriteString("  ")
		b.WriteString(intentColor.Sprint(strings.Join(intents.Strings(), " ")))
	}
	return b.String()
}

var schemaCommand = &cli.Command{
	Name:  "schema",
	Usage: "print the JSON schema of profile files",
	Action: func(c *cli.Context) error {
		return writeSchema(c.App.Writer)
	},
}

func writeSchema(w io.Writer) error {
	r := &jsonschema.Reflector{ExpandedStruct: true}
	schema := r.Reflect(&config.Profile{})
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(schema)
}
