package cmd

import (
	"strings"

	"github.com/achilleasa/raybox/asset/assembler"
	"github.com/achilleasa/raybox/asset/compiler/input"
	"github.com/achilleasa/raybox/asset/scene/reader"
	"github.com/achilleasa/raybox/asset/scene/writer"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Compile scene descriptions into zip archives holding the GPU buffers.
func CompileScene(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	if ctx.NArg() == 0 {
		return errors.New("missing scene description file")
	}

	opts, err := compilerOptions(ctx)
	if err != nil {
		return err
	}

	for idx := 0; idx < ctx.NArg(); idx++ {
		sceneFile := ctx.Args().Get(idx)
		if !strings.HasSuffix(sceneFile, ".scene") {
			logger.Warningf("skipping unsupported file %s", sceneFile)
			continue
		}

		logger.Noticef("parsing and compiling scene: %s", sceneFile)
		asm := assembler.New(assembler.LoaderFunc(func() (*input.Scene, error) {
			return reader.ReadDefinition(sceneFile)
		}), opts)

		snapshot, err := asm.Rebuild()
		if err != nil {
			return err
		}

		// Display compiled scene info
		logger.Noticef("scene information:\n%s", snapshot.Scene.Stats())

		zipFile := strings.TrimSuffix(sceneFile, ".scene") + ".zip"
		if out := ctx.String("out"); out != "" && ctx.NArg() == 1 {
			zipFile = out
		}
		if err = writer.WriteScene(snapshot.Scene, zipFile); err != nil {
			return err
		}
		logger.Noticef("wrote compiled scene (%d bytes of buffers) to %s", snapshot.Buffers.Size(), zipFile)
	}

	return nil
}
