package cmd

import (
	"os"

	"github.com/achilleasa/raybox/asset/compiler/input"
	"github.com/achilleasa/raybox/asset/scene/reader"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Generate smooth vertex normals for a PLY mesh.
func GenerateNormals(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	if ctx.NArg() != 2 {
		return errors.New("expected an input and an output PLY file")
	}

	mesh, err := reader.ReadMesh(ctx.Args().Get(0))
	if err != nil {
		return err
	}

	if mesh.HasNormals() && !ctx.Bool("force") {
		logger.Warningf("mesh %s already defines normals; use --force to overwrite them", mesh.Name)
	} else {
		mesh.GenerateNormals()
	}

	return writeMesh(ctx.Args().Get(1), mesh)
}

func writeMesh(plyFile string, mesh *input.Mesh) error {
	f, err := os.Create(plyFile)
	if err != nil {
		return err
	}

	if err = reader.WritePLY(f, mesh); err != nil {
		f.Close()
		return errors.Wrapf(err, "could not write %s", plyFile)
	}

	logger.Noticef("wrote %d vertices and %d faces to %s", len(mesh.Vertices), len(mesh.Faces), plyFile)
	return f.Close()
}
