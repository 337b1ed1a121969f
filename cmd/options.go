package cmd

import (
	"github.com/achilleasa/raybox/asset/compiler"
	"github.com/achilleasa/raybox/asset/compiler/bvh"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Flags shared by all commands that compile scene descriptions.
var CompilerFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "leaf-size",
		Value: compiler.DefaultLeafThreshold,
		Usage: "max number of faces in a BVH leaf",
	},
	cli.StringFlag{
		Name:  "layout",
		Value: bvh.RightFirst.String(),
		Usage: "BVH child flattening order (right-first or left-first)",
	},
	cli.BoolFlag{
		Name:  "verify",
		Usage: "validate each flattened BVH",
	},
}

func compilerOptions(ctx *cli.Context) (compiler.Options, error) {
	opts := compiler.DefaultOptions()
	opts.LeafThreshold = ctx.Int("leaf-size")
	if opts.LeafThreshold < 1 {
		return opts, errors.Errorf("leaf size must be at least 1; got %d", opts.LeafThreshold)
	}
	opts.Verify = ctx.Bool("verify")

	order, err := bvh.ParseChildOrder(ctx.String("layout"))
	if err != nil {
		return opts, err
	}
	opts.Order = order

	return opts, nil
}
