package compiler

import (
	"testing"

	"github.com/achilleasa/raybox/asset/compiler/bvh"
	"github.com/achilleasa/raybox/asset/compiler/input"
	"github.com/achilleasa/raybox/asset/scene"
	"github.com/achilleasa/raybox/types"
	"github.com/pkg/errors"
)

type unsupportedElement struct{}

func (unsupportedElement) MaterialNames() []string { return nil }

func testScene() *input.Scene {
	ps := input.NewScene()
	for _, name := range []string{"white", "red", "green", "light", "glass", "unused"} {
		ps.Materials = append(ps.Materials, &input.Material{
			Name:  name,
			Props: scene.Material{Color: types.Vec3{1, 1, 1}, RefractionIndex: 1},
		})
	}
	ps.Material("light").Props.EmissionStrength = 10

	ps.Elements = append(ps.Elements,
		&input.CornellBox{
			Size:  types.Vec3{5, 5, 5},
			Walls: [input.NumWalls]string{"red", "green", "white", "white", "white", "white"},
			Light: "light",
		},
		&input.Model{
			Mesh:      cubeMesh(),
			Transform: input.Transform{Offset: types.Vec3{0, -0.1, 0}, Scale: 0.5, Angle: 30},
			Material:  "glass",
		},
		&input.Sphere{Center: types.Vec3{-1, -0.5, 0}, Radius: 0.5, Material: "glass"},
	)
	return ps
}

func TestCompile(t *testing.T) {
	for _, order := range []bvh.ChildOrder{bvh.RightFirst, bvh.LeftFirst} {
		opts := DefaultOptions()
		opts.Order = order
		opts.Verify = true

		sc, err := Compile(testScene(), opts)
		if err != nil {
			t.Fatalf("[%s] %v", order, err)
		}

		if len(sc.ModelList) != 8 {
			t.Fatalf("[%s] expected 8 models; got %d", order, len(sc.ModelList))
		}
		if len(sc.MaterialList) != 8 {
			t.Fatalf("[%s] expected one material per model; got %d", order, len(sc.MaterialList))
		}
		if len(sc.SphereList) != 1 {
			t.Fatalf("[%s] expected 1 sphere; got %d", order, len(sc.SphereList))
		}
		if len(sc.FaceList) != 7*2+12 || len(sc.VertexList) != 7*4+8 {
			t.Fatalf("[%s] unexpected geometry: %d faces, %d vertices", order, len(sc.FaceList), len(sc.VertexList))
		}

		// Model node ranges are contiguous and do not overlap
		var nextNode int32
		for modelIndex, info := range sc.ModelList {
			if info.FirstNodeIndex != nextNode {
				t.Fatalf("[%s] expected model %d to start at node %d; got %d", order, modelIndex, nextNode, info.FirstNodeIndex)
			}
			if info.MaterialIndex != int32(modelIndex) {
				t.Fatalf("[%s] expected model %d material index to be %d; got %d", order, modelIndex, modelIndex, info.MaterialIndex)
			}
			nextNode = info.LastNodeIndex + 1
		}
		if nextNode != int32(len(sc.BvhNodeList)) {
			t.Fatalf("[%s] expected model node ranges to cover all %d nodes; got %d", order, len(sc.BvhNodeList), nextNode)
		}
	}
}

func TestCompileModelLeafThreshold(t *testing.T) {
	ps := testScene()
	ps.Elements[1].(*input.Model).LeafThreshold = 12

	sc, err := Compile(ps, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	info := sc.ModelList[7]
	if info.FirstNodeIndex != info.LastNodeIndex {
		t.Fatalf("expected model with leaf threshold 12 to compile into a single node; got [%d, %d]", info.FirstNodeIndex, info.LastNodeIndex)
	}
	if node := sc.BvhNodeList[info.FirstNodeIndex]; !node.IsLeaf() || node.FaceCount() != 12 {
		t.Fatalf("expected a single leaf with 12 faces; got leaf: %t, faces: %d", node.IsLeaf(), node.FaceCount())
	}
}

func TestCompileUsesDefaultLeafThreshold(t *testing.T) {
	sc, err := Compile(testScene(), Options{})
	if err != nil {
		t.Fatal(err)
	}

	info := sc.ModelList[7]
	for index := info.FirstNodeIndex; index <= info.LastNodeIndex; index++ {
		node := sc.BvhNodeList[index]
		if node.IsLeaf() && node.FaceCount() > DefaultLeafThreshold {
			t.Fatalf("expected leafs to hold at most %d faces; got %d", DefaultLeafThreshold, node.FaceCount())
		}
	}
}

func TestCompileMarksUsedMaterials(t *testing.T) {
	ps := testScene()
	if _, err := Compile(ps, DefaultOptions()); err != nil {
		t.Fatal(err)
	}

	for _, mat := range ps.Materials {
		if expUsed := mat.Name != "unused"; mat.Used != expUsed {
			t.Fatalf("expected material %q used flag to be %t", mat.Name, expUsed)
		}
	}
}

func TestCompileErrors(t *testing.T) {
	ps := testScene()
	ps.Elements = append(ps.Elements, &input.Quad{Material: "missing"})
	_, err := Compile(ps, DefaultOptions())
	if errors.Cause(err) != ErrUnknownMaterial {
		t.Fatalf("expected to get ErrUnknownMaterial; got %v", err)
	}

	ps = testScene()
	ps.Elements[0].(*input.CornellBox).Walls[input.BackWall] = "missing"
	_, err = Compile(ps, DefaultOptions())
	if errors.Cause(err) != ErrUnknownMaterial {
		t.Fatalf("expected to get ErrUnknownMaterial for a cornell box wall; got %v", err)
	}

	ps = testScene()
	ps.Elements = append(ps.Elements, unsupportedElement{})
	if _, err = Compile(ps, DefaultOptions()); err == nil {
		t.Fatal("expected an error for an unsupported element type")
	}

	ps = testScene()
	ps.Elements[1].(*input.Model).Mesh = input.NewMesh("empty")
	_, err = Compile(ps, DefaultOptions())
	if errors.Cause(err) != bvh.ErrNoFaces {
		t.Fatalf("expected to get ErrNoFaces; got %v", err)
	}
}
