package scene

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"github.com/achilleasa/raybox/types"
	"github.com/olekukonko/tablewriter"
)

// All records below are read by the ray intersection kernels by byte offset
// using std430 rules. Vec3 fields are therefore always followed by a 4-byte
// scalar or an explicit pad so that every record is a multiple of 16 bytes.

// A vertex position and its shading normal.
type Vertex struct {
	Position types.Vec3
	_        float32

	Normal types.Vec3
	_      float32
}

// Create a vertex.
func NewVertex(position, normal types.Vec3) Vertex {
	return Vertex{Position: position, Normal: normal}
}

// A triangle face. Indices are relative to the first vertex of the model
// that owns the face.
type Face struct {
	Indices [3]int32
	_       int32
}

// Create a face from three vertex indices.
func NewFace(i0, i1, i2 int32) Face {
	return Face{Indices: [3]int32{i0, i1, i2}}
}

// A surface material. Materials are referenced by index from models and
// embedded in spheres.
type Material struct {
	Color      types.Vec3
	Smoothness float32

	EmissionColor    types.Vec3
	EmissionStrength float32

	RefractionProbability float32
	RefractionIndex       float32
	_                     [2]float32
}

// Bvh nodes are visited by the traversal kernel in array order. When the
// node bbox test succeeds the kernel continues with the next node; otherwise
// it jumps to MissIndex. A MissIndex of -1 means that the hierarchy has been
// exhausted.
//
// For leaf nodes the faces in [FirstFaceIndex, LastFaceIndex) are tested.
// Internal nodes always have two children; the first child is stored right
// after its parent and the second child at the first child's MissIndex.
type BvhNode struct {
	Min            types.Vec3
	FirstFaceIndex int32

	Max           types.Vec3
	LastFaceIndex int32

	LeafFlag  uint32
	MissIndex int32
	_         [2]int32
}

// Set bounding box.
func (n *BvhNode) SetBBox(bbox [2]types.Vec3) {
	n.Min = bbox[0]
	n.Max = bbox[1]
}

// Get bounding box.
func (n *BvhNode) BBox() [2]types.Vec3 {
	return [2]types.Vec3{n.Min, n.Max}
}

// Flag node as a leaf containing the faces in [first, last).
func (n *BvhNode) SetFaces(first, last int32) {
	n.LeafFlag = 1
	n.FirstFaceIndex = first
	n.LastFaceIndex = last
}

// Returns true if this is a leaf node.
func (n *BvhNode) IsLeaf() bool {
	return n.LeafFlag != 0
}

// Get the number of faces stored in a leaf.
func (n *BvhNode) FaceCount() int32 {
	return n.LastFaceIndex - n.FirstFaceIndex
}

// Per-model information that allows the kernels to locate the model's
// vertices, faces and BVH sub-tree. Both node indices are inclusive.
type ModelInfo struct {
	VertexCount    int32
	FaceCount      int32
	MaterialIndex  int32
	FirstNodeIndex int32
	LastNodeIndex  int32
	_              [3]int32
}

// An analytic sphere primitive.
type Sphere struct {
	Center types.Vec3
	Radius float32

	Material Material
}

// The compiled scene. All lists are append-only while the scene is being
// compiled.
type Scene struct {
	VertexList   []Vertex
	FaceList     []Face
	MaterialList []Material
	BvhNodeList  []BvhNode
	ModelList    []ModelInfo
	SphereList   []Sphere
}

// Get the index of the first vertex of a model. Face indices of the model are
// relative to this offset.
func (sc *Scene) VertexOffset(modelIndex int) int32 {
	var offset int32
	for index := 0; index < modelIndex && index < len(sc.ModelList); index++ {
		offset += sc.ModelList[index].VertexCount
	}
	return offset
}

// Build a tabular representation of scene statistics.
func (sc *Scene) Stats() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Asset Type", "Asset", "Count", "Size"})
	table.Append([]string{"Geometry", "---", "", fmtSize(sc.VertexList, sc.FaceList, sc.BvhNodeList)})
	table.Append([]string{"", "Vertices", fmt.Sprint(len(sc.VertexList)), fmtSize(sc.VertexList)})
	table.Append([]string{"", "Faces", fmt.Sprint(len(sc.FaceList)), fmtSize(sc.FaceList)})
	table.Append([]string{"", "BVH nodes", fmt.Sprint(len(sc.BvhNodeList)), fmtSize(sc.BvhNodeList)})
	table.Append([]string{" ", " ", " ", " "})
	table.Append([]string{"Objects", "---", "", fmtSize(sc.ModelList, sc.SphereList)})
	table.Append([]string{"", "Models", fmt.Sprint(len(sc.ModelList)), fmtSize(sc.ModelList)})
	table.Append([]string{"", "Spheres", fmt.Sprint(len(sc.SphereList)), fmtSize(sc.SphereList)})
	table.Append([]string{" ", " ", " ", " "})
	table.Append([]string{"Materials", "---", fmt.Sprint(len(sc.MaterialList)), fmtSize(sc.MaterialList)})
	table.SetFooter([]string{"Total", " ", " ", strings.TrimLeft(fmtSize(sc.VertexList, sc.FaceList, sc.BvhNodeList, sc.ModelList, sc.SphereList, sc.MaterialList), " ")})

	table.Render()
	return buf.String()
}

// Sum the total space used by a set of slices and return back a formatted
// value with the appropriate byte/kb/mb unit.
func fmtSize(items ...interface{}) string {
	var totalBytes float32 = 0.0
	for _, item := range items {
		t := reflect.TypeOf(item)
		v := reflect.ValueOf(item)
		if v.Len() == 0 {
			continue
		}

		totalBytes += float32(int(t.Elem().Size()) * v.Len())
	}

	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", int(totalBytes))
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", totalBytes/1e3)
	}
	return fmt.Sprintf("%5.1f mb", totalBytes/1e6)
}
