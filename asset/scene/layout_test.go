package scene

import (
	"encoding/binary"
	"math"
	"reflect"
	"strings"
	"testing"
	"unsafe"

	"github.com/achilleasa/raybox/types"
)

func TestRecordSizes(t *testing.T) {
	type spec struct {
		name   string
		record interface{}
		memSz  uintptr
		expSz  int
	}
	specs := []spec{
		{"Vertex", Vertex{}, unsafe.Sizeof(Vertex{}), SizeofVertex},
		{"Face", Face{}, unsafe.Sizeof(Face{}), SizeofFace},
		{"Material", Material{}, unsafe.Sizeof(Material{}), SizeofMaterial},
		{"BvhNode", BvhNode{}, unsafe.Sizeof(BvhNode{}), SizeofBvhNode},
		{"ModelInfo", ModelInfo{}, unsafe.Sizeof(ModelInfo{}), SizeofModelInfo},
		{"Sphere", Sphere{}, unsafe.Sizeof(Sphere{}), SizeofSphere},
	}

	for _, s := range specs {
		if got := binary.Size(s.record); got != s.expSz {
			t.Fatalf("expected encoded %s size to be %d; got %d", s.name, s.expSz, got)
		}
		if int(s.memSz) != s.expSz {
			t.Fatalf("expected in-memory %s size to be %d; got %d", s.name, s.expSz, s.memSz)
		}
		if s.expSz%16 != 0 {
			t.Fatalf("expected %s stride to be 16-byte aligned; got %d", s.name, s.expSz)
		}
	}
}

func readF32(buf []byte, offset int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[offset:]))
}

func readI32(buf []byte, offset int) int32 {
	return int32(binary.LittleEndian.Uint32(buf[offset:]))
}

func TestBvhNodeFieldOffsets(t *testing.T) {
	node := BvhNode{}
	node.SetBBox([2]types.Vec3{{1, 2, 3}, {4, 5, 6}})
	node.SetFaces(7, 9)
	node.MissIndex = -1

	buffers, err := Encode(&Scene{BvhNodeList: []BvhNode{node}})
	if err != nil {
		t.Fatal(err)
	}
	buf := buffers.BvhNodes
	if len(buf) != SizeofBvhNode {
		t.Fatalf("expected encoded node to take %d bytes; got %d", SizeofBvhNode, len(buf))
	}

	if readF32(buf, 0) != 1 || readF32(buf, 4) != 2 || readF32(buf, 8) != 3 {
		t.Fatal("expected bbox min at offset 0")
	}
	if readI32(buf, 12) != 7 {
		t.Fatalf("expected first face index at offset 12; got %d", readI32(buf, 12))
	}
	if readF32(buf, 16) != 4 || readF32(buf, 20) != 5 || readF32(buf, 24) != 6 {
		t.Fatal("expected bbox max at offset 16")
	}
	if readI32(buf, 28) != 9 {
		t.Fatalf("expected last face index at offset 28; got %d", readI32(buf, 28))
	}
	if readI32(buf, 32) != 1 {
		t.Fatalf("expected leaf flag at offset 32; got %d", readI32(buf, 32))
	}
	if readI32(buf, 36) != -1 {
		t.Fatalf("expected miss index at offset 36; got %d", readI32(buf, 36))
	}
}

func TestVertexAndMaterialFieldOffsets(t *testing.T) {
	sc := &Scene{
		VertexList: []Vertex{NewVertex(types.Vec3{1, 2, 3}, types.Vec3{0, 1, 0})},
		MaterialList: []Material{{
			Color:                 types.Vec3{0.1, 0.2, 0.3},
			Smoothness:            0.5,
			EmissionColor:         types.Vec3{1, 1, 1},
			EmissionStrength:      10,
			RefractionProbability: 0.25,
			RefractionIndex:       1.5,
		}},
		ModelList: []ModelInfo{{VertexCount: 4, FaceCount: 2, MaterialIndex: 3, FirstNodeIndex: 5, LastNodeIndex: 6}},
	}

	buffers, err := Encode(sc)
	if err != nil {
		t.Fatal(err)
	}

	if readF32(buffers.Vertices, 8) != 3 || readF32(buffers.Vertices, 20) != 1 {
		t.Fatal("expected vertex normal to start at offset 16")
	}
	if readF32(buffers.Materials, 12) != 0.5 || readF32(buffers.Materials, 28) != 10 ||
		readF32(buffers.Materials, 32) != 0.25 || readF32(buffers.Materials, 36) != 1.5 {
		t.Fatal("unexpected material field offsets")
	}
	for index, exp := range []int32{4, 2, 3, 5, 6} {
		if got := readI32(buffers.ModelInfos, 4*index); got != exp {
			t.Fatalf("expected model info field %d to be %d; got %d", index, exp, got)
		}
	}
}

func TestEncodeDecode(t *testing.T) {
	mat := Material{Color: types.Vec3{1, 0, 0}, RefractionIndex: 1}
	node := BvhNode{MissIndex: -1}
	node.SetFaces(0, 2)
	sc := &Scene{
		VertexList: []Vertex{
			NewVertex(types.Vec3{0, 0, 0}, types.Vec3{0, 0, 1}),
			NewVertex(types.Vec3{1, 0, 0}, types.Vec3{0, 0, 1}),
			NewVertex(types.Vec3{1, 1, 0}, types.Vec3{0, 0, 1}),
			NewVertex(types.Vec3{0, 1, 0}, types.Vec3{0, 0, 1}),
		},
		FaceList:     []Face{NewFace(0, 2, 1), NewFace(0, 3, 2)},
		MaterialList: []Material{mat},
		BvhNodeList:  []BvhNode{node},
		ModelList:    []ModelInfo{{VertexCount: 4, FaceCount: 2}},
		SphereList:   []Sphere{{Center: types.Vec3{0, 1, 0}, Radius: 0.5, Material: mat}},
	}

	buffers, err := Encode(sc)
	if err != nil {
		t.Fatal(err)
	}

	expSize := 4*SizeofVertex + 2*SizeofFace + SizeofMaterial + SizeofBvhNode + SizeofModelInfo + SizeofSphere
	if buffers.Size() != expSize {
		t.Fatalf("expected encoded buffers to take %d bytes; got %d", expSize, buffers.Size())
	}

	decoded, err := Decode(buffers)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(sc, decoded) {
		t.Fatalf("expected decoded scene to match original\n%#v\n%#v", sc, decoded)
	}
}

func TestDecodeTruncatedBuffer(t *testing.T) {
	_, err := Decode(&Buffers{BvhNodes: make([]byte, SizeofBvhNode+3)})
	if err == nil || !strings.Contains(err.Error(), "bvh.bin") {
		t.Fatalf("expected a decode error for truncated bvh buffer; got %v", err)
	}
}

func TestStats(t *testing.T) {
	sc := &Scene{
		VertexList: make([]Vertex, 4),
		FaceList:   make([]Face, 2),
	}

	stats := sc.Stats()
	for _, exp := range []string{"Vertices", "Faces", "BVH nodes", "Materials", "160 bytes"} {
		if !strings.Contains(stats, exp) {
			t.Fatalf("expected stats output to contain %q; got\n%s", exp, stats)
		}
	}
}

func TestVertexOffset(t *testing.T) {
	sc := &Scene{
		ModelList: []ModelInfo{{VertexCount: 4}, {VertexCount: 8}, {VertexCount: 3}},
	}

	for modelIndex, exp := range []int32{0, 4, 12, 15} {
		if got := sc.VertexOffset(modelIndex); got != exp {
			t.Fatalf("expected vertex offset for model %d to be %d; got %d", modelIndex, exp, got)
		}
	}
}
