package cmd

import (
	"github.com/achilleasa/raybox/asset/scene/reader"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Display scene info. Scene descriptions are compiled on the fly.
func ShowSceneInfo(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	if ctx.NArg() != 1 {
		return errors.New("missing scene file")
	}

	opts, err := compilerOptions(ctx)
	if err != nil {
		return err
	}

	sc, err := reader.ReadScene(ctx.Args().First(), opts)
	if err != nil {
		return err
	}

	// Display compiled scene info
	logger.Noticef("scene information:\n%s", sc.Stats())

	return nil
}
