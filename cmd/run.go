package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/api"
	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/autostart"
	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/autoswitch"
	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/config"
	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/controller"
	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/device"
	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/hotkey"
	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/input"
	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/network"
	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/switcher"
	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/tray"
)

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "translate device motion into key presses until interrupted",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "log key events instead of sending them",
		},
		&cli.StringFlag{
			Name:  "backend",
			Usage: "device reader: hid or evdev",
		},
		&cli.StringFlag{
			Name:  "device",
			Usage: "select a device by product `NAME` or path",
		},
		&cli.StringFlag{
			Name:    "profile",
			Aliases: []string{"p"},
			Usage:   "start with profile `NAME`",
		},
		&cli.BoolFlag{
			Name:  "no-tray",
			Usage: "run without the system tray icon",
		},
	},
	Action: runAction,
}

// remote combines the actions accepted from MQTT commands
type remote struct {
	*switcher.Switcher
	*controller.Controller
}

func runAction(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	logger := e.logger

	cfg := e.cfgMgr.Get()
	if v := c.String("backend"); v != "" {
		cfg.Backend = v
	}
	if v := c.String("device"); v != "" {
		cfg.Device = v
	}
	if v := c.String("profile"); v != "" {
		cfg.ActiveProfile = v
	}
	logger.Infof("SpacePad %s starting (backend %s)", version, cfg.Backend)

	profile, err := e.store.Load(cfg.ActiveProfile)
	if err != nil {
		logger.Warnf("Profiles: Falling back to %s: %v", config.DefaultProfileName, err)
		if profile, err = e.store.Load(config.DefaultProfileName); err != nil {
			return err
		}
	}
	live, err := config.NewLive(profile)
	if err != nil {
		return err
	}
	logger.Infof("Profiles: Active profile is %s", profile.Name)

	idle := cfg.IdleTimeout()
	if idle == 0 {
		idle = -1
	}
	source, err := device.New(cfg.Backend, device.Options{
		Match:       cfg.Device,
		IdleTimeout: idle,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	var sink input.Sink
	if c.Bool("dry-run") {
		sink = input.NewLogSink(logger)
	} else if sink, err = input.NewSystemSink(logger); err != nil {
		if errors.Is(err, input.ErrPermissionDenied) {
			return fmt.Errorf("%w (use --dry-run to test without sending keys)", err)
		}
		return err
	}
	defer sink.Close()

	ctl := controller.New(source, sink, live, controller.Options{
		PollInterval:      cfg.PollInterval(),
		ReconnectInterval: cfg.ReconnectInterval(),
		DisconnectAfter:   cfg.DisconnectAfter,
		Logger:            logger,
	})
	sw := switcher.New(e.store, live, e.cfgMgr, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		if err := config.Watch(ctx, e.store, sw, logger); err != nil {
			logger.Warnf("Profiles: Hot reload disabled: %v", err)
		}
	}()

	if cfg.APIEnabled {
		srv := api.NewServer(ctl, sw, cfg.APIToken, logger)
		ctl.OnStatus(srv.BroadcastStatus)
		sw.OnSwitch(srv.BroadcastProfile)
		go func() {
			if err := srv.Start(ctx, cfg.APIPort); err != nil {
				logger.Warnf("API: Continuing without the local API: %v", err)
			}
		}()
	}

	if cfg.MQTTBroker != "" {
		pub, err := network.NewPublisher(network.Options{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID,
			Topic:    cfg.MQTTTopic,
			Logger:   logger,
		})
		if err != nil {
			logger.Warnf("MQTT: Continuing without status publishing: %v", err)
		} else {
			defer pub.Close()
			ctl.OnStatus(pub.PublishStatus)
			sw.OnSwitch(pub.PublishProfile)
			pub.PublishProfile(profile.Name)
			if err := pub.HandleCommands(remote{sw, ctl}); err != nil {
				logger.Warnf("MQTT: %v", err)
			}
		}
	}

	if cfg.AutoSwitch {
		if autoswitch.Supported() {
			go autoswitch.New(sw, autoswitch.Options{Logger: logger}).Run(ctx)
		} else {
			logger.Debugf("AutoSwitch: Foreground process detection is not available on this platform")
		}
	}

	if cfg.PauseHotkey != "" {
		hk := hotkey.NewManager(logger)
		err := hk.Register(cfg.PauseHotkey, func() {
			if _, err := ctl.TogglePaused(); err != nil {
				logger.Warnf("Hotkey: %v", err)
			}
		})
		if err == nil {
			err = hk.Start()
		}
		if err != nil {
			logger.Warnf("Hotkey: Pause hotkey %s disabled: %v", cfg.PauseHotkey, err)
		}
	}

	if cfg.StartOnBoot != autostart.IsEnabled() {
		if err := setAutostart(cfg.StartOnBoot); err != nil {
			logger.Warnf("Autostart: %v", err)
		}
	}

	done := make(chan error, 1)
	go func() { done <- ctl.Run(ctx) }()

	if !c.Bool("no-tray") {
		t := tray.New(ctl, sw, logger)
		ctl.OnStatus(t.Update)
		sw.OnSwitch(t.ProfileChanged)
		go func() {
			<-ctx.Done()
			t.Stop()
		}()
		t.Run(cancel)
	}

	err = <-done
	if err != nil {
		logger.Errorf("Shutdown: Some keys could not be released: %v", err)
	}
	logger.Infof("SpacePad stopped")
	return err
}

func setAutostart(enabled bool) error {
	if enabled {
		return autostart.Enable()
	}
	return autostart.Disable()
}

var autostartCommand = &cli.Command{
	Name:  "autostart",
	Usage: "manage starting on login",
	Subcommands: []*cli.Command{
		{
			Name:  "enable",
			Usage: "start on login",
			Action: func(c *cli.Context) error {
				return updateAutostart(c, true)
			},
		},
		{
			Name:  "disable",
			Usage: "do not start on login",
			Action: func(c *cli.Context) error {
				return updateAutostart(c, false)
			},
		},
		{
			Name:  "status",
			Usage: "show whether starting on login is enabled",
			Action: func(c *cli.Context) error {
				fmt.Fprintf(c.App.Writer, "autostart enabled: %v\n", autostart.IsEnabled())
				return nil
			},
		},
	},
}

func updateAutostart(c *cli.Context, enabled bool) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	if err := setAutostart(enabled); err != nil {
		return err
	}
	return e.cfgMgr.Update(func(cfg *config.Config) { cfg.StartOnBoot = enabled })
}
