package input

import (
	"github.com/achilleasa/raybox/asset"
	"github.com/achilleasa/raybox/asset/scene"
	"github.com/achilleasa/raybox/types"
)

// A named surface material.
type Material struct {
	Name string

	// Material properties as written to the material buffer.
	Props scene.Material

	// True if material is referenced by scene geometry.
	Used bool
}

// A mesh vertex. Normals may be zero when the source did not provide them.
type Vertex struct {
	Position types.Vec3
	Normal   types.Vec3
}

// A triangle mesh. Face indices refer to the Vertices slice.
type Mesh struct {
	Name     string
	Vertices []Vertex
	Faces    [][3]int32
}

// Create a new mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:     name,
		Vertices: make([]Vertex, 0),
		Faces:    make([][3]int32, 0),
	}
}

// Returns true if any vertex in the mesh defines a non-zero normal.
func (m *Mesh) HasNormals() bool {
	for _, v := range m.Vertices {
		if v.Normal != (types.Vec3{}) {
			return true
		}
	}
	return false
}

// Replace vertex normals with the average of the normals of the faces that
// share each vertex. Face normals are not normalized before accumulation so
// larger faces contribute more. Vertices not referenced by any face end up
// with a zero normal. Face indices must be valid.
func (m *Mesh) GenerateNormals() {
	for index := range m.Vertices {
		m.Vertices[index].Normal = types.Vec3{}
	}

	for _, face := range m.Faces {
		v0 := m.Vertices[face[0]].Position
		e01 := m.Vertices[face[1]].Position.Sub(v0)
		e02 := m.Vertices[face[2]].Position.Sub(v0)
		faceNormal := e01.Cross(e02)
		for _, vertexIndex := range face {
			m.Vertices[vertexIndex].Normal = m.Vertices[vertexIndex].Normal.Add(faceNormal)
		}
	}

	for index := range m.Vertices {
		m.Vertices[index].Normal = m.Vertices[index].Normal.Normalize()
	}
}

// A rigid transformation applied to model vertices. Vertices are first
// rotated by Angle degrees around the +Y axis, then uniformly scaled and
// finally translated by Offset.
type Transform struct {
	Offset types.Vec3
	Scale  float32
	Angle  float32
}

// The identity transformation.
func IdentityTransform() Transform {
	return Transform{Scale: 1}
}

// Apply the transformation to a position.
func (t Transform) Position(p types.Vec3) types.Vec3 {
	if t.Angle != 0 {
		p = t.rotation().Rotate(p)
	}
	return p.Mul(t.Scale).Add(t.Offset)
}

// Apply the rotation part of the transformation to a normal.
func (t Transform) Normal(n types.Vec3) types.Vec3 {
	if t.Angle == 0 {
		return n
	}
	return t.rotation().Rotate(n)
}

func (t Transform) rotation() types.Quat {
	return types.QuatFromAxisAngle(types.Vec3{0, 1, 0}, types.Radians(t.Angle))
}

// An Element is a piece of scene geometry that references materials by name.
type Element interface {
	// The names of the materials used by this element.
	MaterialNames() []string
}

// A planar quad. Corners are listed in winding order.
type Quad struct {
	Corners  [4]types.Vec3
	Normal   types.Vec3
	Material string
}

func (q *Quad) MaterialNames() []string { return []string{q.Material} }

// A mesh instance.
type Model struct {
	Mesh      *Mesh
	Transform Transform
	Material  string

	// Overrides the compiler leaf threshold when positive.
	LeafThreshold int
}

func (m *Model) MaterialNames() []string { return []string{m.Material} }

// An analytic sphere.
type Sphere struct {
	Center   types.Vec3
	Radius   float32
	Material string
}

func (s *Sphere) MaterialNames() []string { return []string{s.Material} }

// Cornell box wall order.
const (
	LeftWall = iota
	RightWall
	BottomWall
	TopWall
	BackWall
	FrontWall
	NumWalls
)

// An axis-aligned box enclosure with a ceiling light.
type CornellBox struct {
	Center types.Vec3
	Size   types.Vec3

	// Material for each wall indexed by the wall constants.
	Walls [NumWalls]string
	Light string
}

func (c *CornellBox) MaterialNames() []string {
	return append(append([]string{}, c.Walls[:]...), c.Light)
}

// The scene contains all elements that are processed by the scene compiler.
type Scene struct {
	Materials []*Material
	Elements  []Element

	// Location of the scene description; used to resolve mesh paths.
	Resource *asset.Resource
}

// Create a new scene.
func NewScene() *Scene {
	return &Scene{
		Materials: make([]*Material, 0),
		Elements:  make([]Element, 0),
	}
}

// Lookup a material by name. Returns nil if the material is not defined.
func (sc *Scene) Material(name string) *Material {
	for _, mat := range sc.Materials {
		if mat.Name == name {
			return mat
		}
	}
	return nil
}
