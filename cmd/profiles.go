package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/config"
)

var profilesCommand = &cli.Command{
	Name:            "profiles",
	Aliases:         []string{"profile"},
	Usage:           "manage mapping profiles",
	HideHelpCommand: true,
	Subcommands: []*cli.Command{
		{
			Name:   "list",
			Usage:  "list stored profiles",
			Action: profilesList,
		},
		{
			Name:      "show",
			Usage:     "print a profile as JSON",
			ArgsUsage: "[name]",
			Action:    profilesShow,
		},
		{
			Name:      "save",
			Usage:     "copy a profile under a new name",
			ArgsUsage: "<new-name>",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "from", Usage: "copy profile `NAME` instead of the active one"},
			},
			Action: profilesSave,
		},
		{
			Name:      "rename",
			Usage:     "rename a profile",
			ArgsUsage: "<old-name> <new-name>",
			Action: withStore(2, func(c *cli.Context, e *env) error {
				if err := e.store.Rename(c.Args().Get(0), c.Args().Get(1)); err != nil {
					return err
				}
				if e.cfgMgr.Get().ActiveProfile == c.Args().Get(0) {
					return activate(e, c.Args().Get(1))
				}
				return nil
			}),
		},
		{
			Name:      "delete",
			Usage:     "delete a profile",
			ArgsUsage: "<name>",
			Action: withStore(1, func(c *cli.Context, e *env) error {
				name := c.Args().First()
				if err := e.store.Delete(name); err != nil {
					return err
				}
				if e.cfgMgr.Get().ActiveProfile == name {
					return activate(e, config.DefaultProfileName)
				}
				return nil
			}),
		},
		{
			Name:      "import",
			Usage:     "validate and store a profile file",
			ArgsUsage: "<file> <name>",
			Action: withStore(2, func(c *cli.Context, e *env) error {
				p, err := e.store.Import(c.Args().Get(0), c.Args().Get(1))
				if err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "Imported profile %s\n", p.Name)
				return nil
			}),
		},
		{
			Name:      "export",
			Usage:     "write a profile to a file",
			ArgsUsage: "<name> <file>",
			Action: withStore(2, func(c *cli.Context, e *env) error {
				return e.store.Export(c.Args().Get(0), c.Args().Get(1))
			}),
		},
		{
			Name:      "link",
			Usage:     "switch to a profile automatically while a process is in the foreground",
			ArgsUsage: "<name> <process>",
			Action: withStore(1, func(c *cli.Context, e *env) error {
				p, err := e.store.Link(c.Args().Get(0), c.Args().Get(1))
				if err != nil {
					return err
				}
				if p.Process == "" {
					fmt.Fprintf(c.App.Writer, "Profile %s is no longer linked\n", p.Name)
				} else {
					fmt.Fprintf(c.App.Writer, "Profile %s is linked to %s\n", p.Name, p.Process)
				}
				return nil
			}),
		},
		{
			Name:      "activate",
			Usage:     "make a profile active on the next start",
			ArgsUsage: "<name>",
			Action: withStore(1, func(c *cli.Context, e *env) error {
				if _, err := e.store.Load(c.Args().First()); err != nil {
					return err
				}
				return activate(e, c.Args().First())
			}),
		},
	},
}

// withStore checks the argument count and sets up the environment
func withStore(nargs int, fn func(*cli.Context, *env) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() < nargs {
			return cli.ShowSubcommandHelp(c)
		}
		e, err := setup(c)
		if err != nil {
			return err
		}
		return fn(c, e)
	}
}

func activate(e *env, name string) error {
	return e.cfgMgr.Update(func(cfg *config.Config) { cfg.ActiveProfile = name })
}

func profilesList(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	names, err := e.store.List()
	if err != nil {
		return err
	}
	active := e.cfgMgr.Get().ActiveProfile
	linked := map[string]string{}
	for _, p := range e.store.LoadAll() {
		linked[p.Name] = p.Process
	}

	bold := color.New(color.Bold)
	for _, name := range names {
		marker := "  "
		line := name
		if name == active {
			marker = "* "
			line = bold.Sprint(name)
		}
		if proc := linked[name]; proc != "" {
			line += color.HiBlackString(" (%s)", proc)
		}
		fmt.Fprintln(c.App.Writer, marker+line)
	}
	return nil
}

func profilesShow(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	name := c.Args().First()
	if name == "" {
		name = e.cfgMgr.Get().ActiveProfile
	}
	p, err := e.store.Load(name)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

func profilesSave(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.ShowSubcommandHelp(c)
	}
	e, err := setup(c)
	if err != nil {
		return err
	}
	from := c.String("from")
	if from == "" {
		from = e.cfgMgr.Get().ActiveProfile
	}
	p, err := e.store.Load(from)
	if err != nil {
		return err
	}
	newName := c.Args().First()
	if _, err := e.store.Load(newName); err == nil {
		return fmt.Errorf("%w: %s", config.ErrProfileExists, newName)
	} else if !errors.Is(err, config.ErrProfileNotFound) {
		return err
	}
	p.Name = newName
	p.Process = ""
	if err := e.store.Save(p); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Saved %s as %s\n", from, newName)
	return nil
}
