package main

import (
	"fmt"
	"os"

	"github.com/achilleasa/raybox/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "raybox"
	app.Usage = "compile scene descriptions into GPU-ready geometry buffers"
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
			Usage: "set log level (debug, info, notice, warning, error)",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "compile",
			Usage: "compile a scene description into a binary compressed format",
			Description: `
Parse a scene description, build a BVH tree for every model to optimize ray
intersection tests and package scene elements in a GPU-friendly format.

The optimized scene data is written to a zip archive with one entry per
buffer (vertices, faces, materials, bvh nodes, models and spheres).`,
			ArgsUsage: "scene_file1.scene scene_file2.scene ...",
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:  "out, o",
					Usage: "output archive; only valid when compiling a single scene",
				},
			}, cmd.CompilerFlags...),
			Action: cmd.CompileScene,
		},
		{
			Name:      "info",
			Usage:     "print scene statistics",
			ArgsUsage: "scene_file.{scene,zip}",
			Flags:     cmd.CompilerFlags,
			Action:    cmd.ShowSceneInfo,
		},
		{
			Name:        "bvh",
			Usage:       "dump and validate the BVH of a scene model",
			Description: `Print the flattened BVH nodes of a model and check their miss links, bounding boxes and face ranges.`,
			ArgsUsage:   "scene_file.{scene,zip}",
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "model, m",
					Value: 0,
					Usage: "index of the model to dump",
				},
			}, cmd.CompilerFlags...),
			Action: cmd.DumpBvh,
		},
		{
			Name:      "normals",
			Usage:     "generate smooth vertex normals for a PLY mesh",
			ArgsUsage: "in.ply out.ply",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "force, f",
					Usage: "replace existing normals",
				},
			},
			Action: cmd.GenerateNormals,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		os.Exit(1)
	}
}
