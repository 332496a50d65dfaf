package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/achilleasa/starmap/cmd"
	"github.com/achilleasa/starmap/starmap"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "starmap"
	app.Usage = "generate stellar regions and query them through bounding volume hierarchies"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "set the log level (debug, info, notice, warning, error)",
		},
		cli.BoolFlag{
			Name:  "trace-placement",
			Usage: "log every placed system when running with -vv",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "generate",
			Usage: "generate a starmap and print its statistics",
			Description: `
Fill a region of space with stellar systems. Spectral classes are processed
from heaviest to lightest and each class draws stars from its own solar mass
pool. Systems are placed at random positions that do not overlap any system
placed before them.

The generated systems can be written to a JSON file with --out.`,
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:  "out, o",
					Usage: "write the generated systems to this JSON file",
				},
				cli.BoolFlag{
					Name:  "indent",
					Usage: "indent the JSON output",
				},
			}, cmd.GeneratorFlags...),
			Action: cmd.Generate,
		},
		{
			Name:      "neighbors",
			Usage:     "list the systems around a point",
			ArgsUsage: "x,y,z",
			Flags: append([]cli.Flag{
				cli.Float64Flag{
					Name:  "radius, r",
					Value: 4,
					Usage: "search radius",
				},
			}, cmd.GeneratorFlags...),
			Action: cmd.Neighbors,
		},
		{
			Name:  "cull",
			Usage: "sweep a camera through a generated starmap and count visible systems",
			Description: `
Place a camera at the center of the generated region and rotate it between two
yaw angles. Every frame the systems inside the view frustum are collected with
a frustum sweep of the placement index.

With --static the systems are also partitioned into a static BVH and every
frame is culled against both hierarchies.`,
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "frames",
					Value: 24,
					Usage: "number of frames",
				},
				cli.Float64Flag{
					Name:  "from-yaw",
					Value: 0,
					Usage: "initial camera yaw in degrees",
				},
				cli.Float64Flag{
					Name:  "to-yaw",
					Value: 360,
					Usage: "final camera yaw in degrees",
				},
				cli.Float64Flag{
					Name:  "pitch",
					Value: 0,
					Usage: "camera pitch in degrees",
				},
				cli.Float64Flag{
					Name:  "fov",
					Value: 60,
					Usage: "vertical field of view in degrees",
				},
				cli.Float64Flag{
					Name:  "far",
					Value: 40,
					Usage: "far plane distance",
				},
				cli.StringFlag{
					Name:  "easing",
					Value: "in-out-quad",
					Usage: fmt.Sprintf("camera easing (%s)", strings.Join(starmap.EasingNames(), ", ")),
				},
				cli.BoolFlag{
					Name:  "static",
					Usage: "also cull against a static BVH",
				},
				cli.IntFlag{
					Name:  "leaf-size",
					Value: 4,
					Usage: "static BVH ranges smaller than this become leaves",
				},
				cli.StringFlag{
					Name:  "split",
					Value: "median",
					Usage: "static BVH split strategy (median or sah)",
				},
			}, cmd.GeneratorFlags...),
			Action: cmd.Cull,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
