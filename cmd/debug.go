package cmd

import (
	"bytes"
	"fmt"

	"github.com/achilleasa/raybox/asset/compiler/bvh"
	"github.com/achilleasa/raybox/asset/scene"
	"github.com/achilleasa/raybox/asset/scene/reader"
	"github.com/achilleasa/raybox/types"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Dump the flattened BVH nodes of a scene model and validate them.
func DumpBvh(ctx *cli.Context) error {
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

	modelIndex := ctx.Int("model")
	nodes, err := modelNodes(sc, modelIndex)
	if err != nil {
		return err
	}
	info := sc.ModelList[modelIndex]

	summary, err := bvh.Validate(sc.BvhNodeList, info.FirstNodeIndex, info.LastNodeIndex, bvh.NoMiss)
	if err != nil {
		logger.Errorf("model %d BVH failed validation: %s", modelIndex, err.Error())
	} else {
		logger.Noticef(
			"model %d: %d nodes, %d leafs, max depth %d, faces [%d, %d)",
			modelIndex, summary.Nodes, summary.Leafs, summary.MaxDepth, summary.FirstFace, summary.LastFace,
		)
	}

	logger.Noticef("model %d BVH nodes:\n%s", modelIndex, bvhTable(nodes, info.FirstNodeIndex))
	return err
}

// Get the BVH nodes of a model. Compiled archives may be corrupt so the node
// range is checked against the node list.
func modelNodes(sc *scene.Scene, modelIndex int) ([]scene.BvhNode, error) {
	if modelIndex < 0 || modelIndex >= len(sc.ModelList) {
		return nil, errors.Errorf("model index %d out of range; scene contains %d models", modelIndex, len(sc.ModelList))
	}

	info := sc.ModelList[modelIndex]
	if info.FirstNodeIndex < 0 || info.LastNodeIndex < info.FirstNodeIndex || int(info.LastNodeIndex) >= len(sc.BvhNodeList) {
		return nil, errors.Errorf("model %d node range [%d, %d] is invalid; scene contains %d BVH nodes", modelIndex, info.FirstNodeIndex, info.LastNodeIndex, len(sc.BvhNodeList))
	}
	return sc.BvhNodeList[info.FirstNodeIndex : info.LastNodeIndex+1], nil
}

func bvhTable(nodes []scene.BvhNode, offset int32) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Node", "Min", "Max", "Leaf", "Faces", "Miss"})

	for index, node := range nodes {
		leaf, faces := "", ""
		if node.IsLeaf() {
			leaf = "*"
			faces = fmt.Sprintf("[%d, %d)", node.FirstFaceIndex, node.LastFaceIndex)
		}
		table.Append([]string{
			fmt.Sprint(offset + int32(index)),
			fmtVec(node.Min),
			fmtVec(node.Max),
			leaf,
			faces,
			fmt.Sprint(node.MissIndex),
		})
	}

	table.Render()
	return buf.String()
}

func fmtVec(v types.Vec3) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v[0], v[1], v[2])
}
