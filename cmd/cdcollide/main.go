package main

import (
	"os"

	"github.com/urfave/cli"
)

func main() {
	if err := run(os.Args); err != nil {
		os.Exit(1)
	}
}

// run executes the command line args and logs the error that stopped it.
func run(args []string) error {
	err := newApp().Run(args)
	if err != nil {
		logger.Error(err)
	}
	return err
}

func newApp() *cli.App {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "cdcollide"
	app.Usage = "inspect and query compiled collision maps"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:      "info",
			Usage:     "print the sections and entities of a map",
			ArgsUsage: "map.cdmap",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "entities, e",
					Usage: "also list entity key/values",
				},
			},
			Action: Info,
		},
		{
			Name:  "trace",
			Usage: "trace a ray or a swept shape through a map",
			Description: `
Load a map, link its world and every brush entity into a broad phase and trace
from --from to --to. The closest hit is printed.`,
			ArgsUsage: "map.cdmap",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "from",
					Value: "0,0,0",
					Usage: "trace start as x,y,z",
				},
				cli.StringFlag{
					Name:  "to",
					Value: "0,0,0",
					Usage: "trace end as x,y,z",
				},
				cli.StringFlag{
					Name:  "shape",
					Value: "point",
					Usage: "swept shape: point, box or sphere",
				},
				cli.Float64Flag{
					Name:  "size",
					Value: 16,
					Usage: "box half extent or sphere radius",
				},
				cli.StringFlag{
					Name:  "mask",
					Value: "solid",
					Usage: "solidity mask, e.g. solid, shot, ladder|trigger",
				},
				cli.StringFlag{
					Name:  "index",
					Value: "bvh",
					Usage: "broad phase: bvh or grid",
				},
			},
			Action: Trace,
		},
		{
			Name:      "synth",
			Usage:     "write a test map: a closed room with a ladder and a door",
			ArgsUsage: "out.cdmap",
			Flags: []cli.Flag{
				cli.Float64Flag{
					Name:  "size",
					Value: 256,
					Usage: "half width of the room",
				},
				cli.Float64Flag{
					Name:  "height",
					Value: 128,
					Usage: "room height",
				},
				cli.BoolFlag{
					Name:  "zstd",
					Usage: "compress the output",
				},
			},
			Action: Synth,
		},
	}

	return app
}
