package main

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bodgit/overlay"
	"github.com/bodgit/overlay/bitmap"
	"github.com/bodgit/overlay/coords"
	"github.com/bodgit/overlay/palette"
	"github.com/bodgit/overlay/tile"
	"github.com/urfave/cli/v2"
)

const defaultDB = "overlay.db"

var errSwitch = errors.New("expected on or off")

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func openStore(c *cli.Context) (*overlay.Store, *overlay.DB, error) {
	db, err := overlay.NewDB(c.String("db"))
	if err != nil {
		return nil, nil, err
	}

	cfg := overlay.DefaultConfig()
	cfg.Author = c.String("author")
	cfg.MaxFactor = c.Int("max-factor")
	cfg.FullExamples = c.Bool("full-examples")

	s, err := overlay.New(db, newLogger(c), cfg)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	return s, db, nil
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	default:
		return false, errSwitch
	}
}

// withStore wraps an action needing the store, handling the argument count
// and mapping errors to exit codes.
func withStore(args int, fn func(*cli.Context, *overlay.Store) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() < args {
			cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
		}

		s, db, err := openStore(c)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		defer db.Close()

		if err := fn(c, s); err != nil {
			return cli.NewExitError(err, 1)
		}

		return nil
	}
}

func setEnabled(enabled bool) cli.ActionFunc {
	return withStore(1, func(c *cli.Context, s *overlay.Store) error {
		for _, key := range c.Args().Slice() {
			if err := s.SetEnabled(key, enabled); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
		}
		return nil
	})
}

func percent(n, d int) float64 {
	if d == 0 {
		return 100
	}
	return float64(n) * 100 / float64(d)
}

func main() {
	app := cli.NewApp()

	app.Name = "overlay"
	app.Usage = "Pixel art template tracking utility"
	app.Version = overlay.Version

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"OVERLAY_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to database",
		},
		&cli.StringFlag{
			Name:    "author",
			EnvVars: []string{"OVERLAY_AUTHOR"},
			Value:   overlay.DefaultConfig().Author,
			Usage:   "author id of new templates",
		},
		&cli.IntFlag{
			Name:  "max-factor",
			Value: overlay.DefaultConfig().MaxFactor,
			Usage: "largest upsample factor for new templates",
		},
		&cli.BoolFlag{
			Name:  "full-examples",
			Usage: "keep every wrong pixel example rather than a sample",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "add",
			Usage:     "Add a template",
			ArgsUsage: "FILE TX,TY,PX,PY",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "name",
					Usage: "template name, defaults to the file name",
				},
				&cli.StringFlag{
					Name:  "anchor",
					Value: tile.TopLeft.String(),
					Usage: "which point of the image is placed at the coordinates",
				},
			},
			Action: withStore(2, func(c *cli.Context, s *overlay.Store) error {
				file := c.Args().Get(0)

				p, err := coords.ParseCoords(c.Args().Get(1))
				if err != nil {
					return err
				}

				anchor, err := tile.ParseAnchor(c.String("anchor"))
				if err != nil {
					return err
				}

				b, err := ioutil.ReadFile(file)
				if err != nil {
					return err
				}

				name := c.String("name")
				if name == "" {
					name = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
				}

				t, err := s.CreateTemplate(b, name, p, anchor)
				if err != nil {
					return err
				}

				fmt.Println(t.StorageKey())

				return nil
			}),
		},
		{
			Name:      "import",
			Usage:     "Import templates",
			ArgsUsage: "FILE",
			Action: withStore(1, func(c *cli.Context, s *overlay.Store) error {
				b, err := ioutil.ReadFile(c.Args().First())
				if err != nil {
					return err
				}

				n, err := s.Import(b)
				if err != nil {
					return err
				}

				fmt.Printf("Imported %d templates\n", n)

				return nil
			}),
		},
		{
			Name:      "export",
			Usage:     "Export templates",
			ArgsUsage: "[FILE]",
			Action: withStore(0, func(c *cli.Context, s *overlay.Store) error {
				b, err := s.Export()
				if err != nil {
					return err
				}

				if c.NArg() == 0 {
					_, err = os.Stdout.Write(b)
					return err
				}

				return ioutil.WriteFile(c.Args().First(), b, 0644)
			}),
		},
		{
			Name:  "list",
			Usage: "List templates and their progress",
			Action: withStore(0, func(c *cli.Context, s *overlay.Store) error {
				p := s.Progress()
				for _, t := range s.Templates() {
					tp := p.Templates[t.StorageKey()]
					state := "enabled"
					if !t.Enabled {
						state = "disabled"
					}
					fmt.Printf("%s\t%s\t%s\t%s\t%d/%d (%.1f%%)\n", t.StorageKey(), t.Name, t.Origin, state, tp.Painted, tp.Required, percent(tp.Painted, tp.Required))
				}
				fmt.Printf("total\t%d/%d (%.1f%%), %d wrong\n", p.Painted, p.Required, percent(p.Painted, p.Required), p.Wrong)
				return nil
			}),
		},
		{
			Name:      "delete",
			Usage:     "Delete templates",
			ArgsUsage: "KEY...",
			Action: withStore(1, func(c *cli.Context, s *overlay.Store) error {
				for _, key := range c.Args().Slice() {
					if err := s.DeleteTemplate(key); err != nil {
						return fmt.Errorf("%s: %w", key, err)
					}
				}
				return nil
			}),
		},
		{
			Name:      "enable",
			Usage:     "Enable templates",
			ArgsUsage: "KEY...",
			Action:    setEnabled(true),
		},
		{
			Name:      "disable",
			Usage:     "Disable templates",
			ArgsUsage: "KEY...",
			Action:    setEnabled(false),
		},
		{
			Name:      "color",
			Usage:     "Show or hide a color across all templates",
			ArgsUsage: "R,G,B on|off",
			Action: withStore(2, func(c *cli.Context, s *overlay.Store) error {
				k, err := palette.ParseKey(c.Args().Get(0))
				if err != nil {
					return err
				}
				on, err := parseSwitch(c.Args().Get(1))
				if err != nil {
					return err
				}
				return s.SetColorEnabled(k, on)
			}),
		},
		{
			Name:      "memory",
			Usage:     "Toggle memory saving mode",
			ArgsUsage: "on|off",
			Action: withStore(1, func(c *cli.Context, s *overlay.Store) error {
				on, err := parseSwitch(c.Args().First())
				if err != nil {
					return err
				}
				return s.SetMemorySavingMode(on)
			}),
		},
		{
			Name:      "errors",
			Usage:     "Toggle the error overlay",
			ArgsUsage: "on|off",
			Action: withStore(1, func(c *cli.Context, s *overlay.Store) error {
				on, err := parseSwitch(c.Args().First())
				if err != nil {
					return err
				}
				return s.SetShowErrors(on)
			}),
		},
		{
			Name:        "scan",
			Usage:       "Diff a directory of canvas tiles",
			Description: "Tiles are read from DIRECTORY/<tileX>/<tileY>.png",
			ArgsUsage:   "DIRECTORY",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "out",
					Usage: "directory to write the overlays to",
				},
			},
			Action: withStore(1, func(c *cli.Context, s *overlay.Store) error {
				if err := s.Scan(c.Args().First(), c.String("out")); err != nil {
					return err
				}

				p := s.Progress()
				fmt.Printf("%d/%d (%.1f%%), %d wrong\n", p.Painted, p.Required, percent(p.Painted, p.Required), p.Wrong)

				return nil
			}),
		},
		{
			Name:      "prepare",
			Usage:     "Snap an image to the palette",
			ArgsUsage: "IN OUT",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "premium",
					Usage: "include the premium colors",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				f, err := os.Open(c.Args().Get(0))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer f.Close()

				m, _, err := image.Decode(f)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				b, err := bitmap.EncodeBytes(palette.Snap(m, c.Bool("premium")))
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				if err := ioutil.WriteFile(c.Args().Get(1), b, 0644); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "locate",
			Usage:     "Print the latitude and longitude of a pixel",
			ArgsUsage: "TX,TY,PX,PY",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				p, err := coords.ParseCoords(c.Args().First())
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				lat, lon := coords.TileToGeo(p)
				fmt.Printf("%f,%f\n", lat, lon)

				return nil
			},
		},
		{
			Name:      "geo",
			Usage:     "Print the pixel at a latitude and longitude",
			ArgsUsage: "LAT LON",
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				lat, err := strconv.ParseFloat(c.Args().Get(0), 64)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				lon, err := strconv.ParseFloat(c.Args().Get(1), 64)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				fmt.Println(coords.GeoToTile(lat, lon))

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
