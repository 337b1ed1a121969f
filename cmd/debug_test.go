package cmd

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/achilleasa/raybox/asset/scene"
	"github.com/achilleasa/raybox/asset/scene/writer"
	"github.com/achilleasa/raybox/types"
	"github.com/urfave/cli"
)

func bvhFlags() []cli.Flag {
	return append([]cli.Flag{cli.IntFlag{Name: "model, m"}}, CompilerFlags...)
}

func leafNode(first, last int32) scene.BvhNode {
	node := scene.BvhNode{MissIndex: -1}
	node.SetBBox([2]types.Vec3{{0, 0, 0}, {1, 1, 0}})
	node.SetFaces(first, last)
	return node
}

func TestModelNodes(t *testing.T) {
	sc := &scene.Scene{
		BvhNodeList: []scene.BvhNode{leafNode(0, 2), leafNode(2, 4)},
		ModelList: []scene.ModelInfo{
			{VertexCount: 4, FaceCount: 2, FirstNodeIndex: 1, LastNodeIndex: 1},
			{VertexCount: 4, FaceCount: 2, FirstNodeIndex: 1, LastNodeIndex: 5},
			{VertexCount: 4, FaceCount: 2, FirstNodeIndex: -1, LastNodeIndex: 0},
			{VertexCount: 4, FaceCount: 2, FirstNodeIndex: 1, LastNodeIndex: 0},
		},
	}

	nodes, err := modelNodes(sc, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 1 || nodes[0].FirstFaceIndex != 2 {
		t.Fatalf("expected the second node; got %+v", nodes)
	}

	type spec struct {
		model    int
		expError string
	}
	specs := []spec{
		{1, "model 1 node range [1, 5] is invalid"},
		{2, "model 2 node range [-1, 0] is invalid"},
		{3, "model 3 node range [1, 0] is invalid"},
		{4, "model index 4 out of range"},
		{-1, "model index -1 out of range"},
	}
	for index, s := range specs {
		_, err := modelNodes(sc, s.model)
		if err == nil || !strings.Contains(err.Error(), s.expError) {
			t.Fatalf("[spec %d] expected error containing %q; got %v", index, s.expError, err)
		}
	}
}

func TestDumpBvhCorruptArchive(t *testing.T) {
	zipFile := filepath.Join(t.TempDir(), "corrupt.zip")
	err := writer.WriteScene(&scene.Scene{
		BvhNodeList: []scene.BvhNode{leafNode(0, 2)},
		ModelList:   []scene.ModelInfo{{VertexCount: 4, FaceCount: 2, FirstNodeIndex: 0, LastNodeIndex: 5}},
	}, zipFile)
	if err != nil {
		t.Fatal(err)
	}

	err = DumpBvh(newContext(t, bvhFlags(), "--model", "0", zipFile))
	if err == nil || !strings.Contains(err.Error(), "node range [0, 5] is invalid") {
		t.Fatalf("expected an invalid node range error; got %v", err)
	}
}

func TestDumpBvh(t *testing.T) {
	zipFile := filepath.Join(t.TempDir(), "quad.zip")
	err := writer.WriteScene(&scene.Scene{
		FaceList:    []scene.Face{scene.NewFace(0, 2, 1), scene.NewFace(0, 3, 2)},
		BvhNodeList: []scene.BvhNode{leafNode(0, 2)},
		ModelList:   []scene.ModelInfo{{VertexCount: 4, FaceCount: 2, FirstNodeIndex: 0, LastNodeIndex: 0}},
	}, zipFile)
	if err != nil {
		t.Fatal(err)
	}

	if err = DumpBvh(newContext(t, bvhFlags(), zipFile)); err != nil {
		t.Fatalf("expected a single leaf BVH to validate; got %v", err)
	}
}
