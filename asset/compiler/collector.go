package compiler

import (
	"github.com/achilleasa/raybox/asset/compiler/bvh"
	"github.com/achilleasa/raybox/asset/compiler/input"
	"github.com/achilleasa/raybox/asset/scene"
	"github.com/achilleasa/raybox/log"
	"github.com/achilleasa/raybox/types"
	"github.com/pkg/errors"
)

var ErrFaceIndexOutOfRange = errors.New("compiler: face references a vertex outside the mesh")

// The Collector accumulates the vertex, face, material, bvh node and model
// lists of a compiled scene. Each object is appended in one step and owns a
// contiguous range in every list; failed additions leave the lists untouched.
type Collector struct {
	logger log.Logger
	order  bvh.ChildOrder
	scene  *scene.Scene
}

// Create a collector that flattens model BVH trees using the given child order.
func NewCollector(order bvh.ChildOrder) *Collector {
	return &Collector{
		logger: log.New("collector"),
		order:  order,
		scene:  &scene.Scene{},
	}
}

// Get the collected scene.
func (c *Collector) Scene() *scene.Scene {
	return c.scene
}

// Add a planar quad and return its model index. The quad is stored as the
// faces (0, 2, 1) and (0, 3, 2) inside a single leaf node.
func (c *Collector) AddQuad(corners [4]types.Vec3, normal types.Vec3, mat scene.Material) int {
	sc := c.scene

	bbox := types.EmptyBBox()
	for _, corner := range corners {
		bbox = types.ExpandBBox(bbox, corner)
		sc.VertexList = append(sc.VertexList, scene.NewVertex(corner, normal))
	}

	firstFace := int32(len(sc.FaceList))
	sc.FaceList = append(sc.FaceList, scene.NewFace(0, 2, 1), scene.NewFace(0, 3, 2))

	nodeIndex := int32(len(sc.BvhNodeList))
	node := scene.BvhNode{MissIndex: bvh.NoMiss}
	node.SetBBox(bbox)
	node.SetFaces(firstFace, firstFace+2)
	sc.BvhNodeList = append(sc.BvhNodeList, node)

	return c.appendModel(4, 2, mat, nodeIndex, nodeIndex)
}

// Add a transformed copy of mesh, partition its faces into a BVH tree and
// return the new model index.
func (c *Collector) AddModel(mesh *input.Mesh, xform input.Transform, mat scene.Material, leafThreshold int) (int, error) {
	if len(mesh.Faces) == 0 {
		return -1, errors.Wrapf(bvh.ErrNoFaces, "model %q", mesh.Name)
	}

	vertexCount := int32(len(mesh.Vertices))
	for faceIndex, face := range mesh.Faces {
		for _, vertexIndex := range face {
			if vertexIndex < 0 || vertexIndex >= vertexCount {
				return -1, errors.Wrapf(ErrFaceIndexOutOfRange, "model %q: face %d references vertex %d (vertex count %d)", mesh.Name, faceIndex, vertexIndex, vertexCount)
			}
		}
	}

	positions := make([]types.Vec3, len(mesh.Vertices))
	vertices := make([]scene.Vertex, len(mesh.Vertices))
	bbox := types.EmptyBBox()
	var nonFinite int
	for index, v := range mesh.Vertices {
		positions[index] = xform.Position(v.Position)
		if !positions[index].IsFinite() {
			nonFinite++
		}
		vertices[index] = scene.NewVertex(positions[index], xform.Normal(v.Normal))
		bbox = types.ExpandBBox(bbox, positions[index])
	}
	if nonFinite > 0 {
		c.logger.Warningf("model %q: %d vertices have non-finite positions after transformation", mesh.Name, nonFinite)
	}

	faces := make([]scene.Face, len(mesh.Faces))
	centroids := make([]types.Vec3, len(mesh.Faces))
	for index, face := range mesh.Faces {
		faces[index] = scene.NewFace(face[0], face[1], face[2])
		centroids[index] = positions[face[0]].Add(positions[face[1]]).Add(positions[face[2]]).Mul(1.0 / 3.0)
	}

	c.logger.Infof(`building BVH tree for "%s" (%d vertices, %d faces)`, mesh.Name, len(vertices), len(faces))
	tree, faceList, err := bvh.Build(bbox, faces, centroids, positions, leafThreshold, c.scene.FaceList)
	if err != nil {
		return -1, errors.Wrapf(err, "model %q", mesh.Name)
	}

	sc := c.scene
	sc.FaceList = faceList
	sc.VertexList = append(sc.VertexList, vertices...)

	firstNode := int32(len(sc.BvhNodeList))
	sc.BvhNodeList = bvh.Flatten(tree, bvh.NoMiss, c.order, sc.BvhNodeList)
	lastNode := int32(len(sc.BvhNodeList) - 1)

	return c.appendModel(vertexCount, int32(len(faces)), mat, firstNode, lastNode), nil
}

// Add an analytic sphere and return its index.
func (c *Collector) AddSphere(center types.Vec3, radius float32, mat scene.Material) int {
	c.scene.SphereList = append(c.scene.SphereList, scene.Sphere{
		Center:   center,
		Radius:   radius,
		Material: mat,
	})
	return len(c.scene.SphereList) - 1
}

// Append the model material and its info record; returns the model index.
func (c *Collector) appendModel(vertexCount, faceCount int32, mat scene.Material, firstNode, lastNode int32) int {
	sc := c.scene
	matIndex := int32(len(sc.MaterialList))
	sc.MaterialList = append(sc.MaterialList, mat)

	sc.ModelList = append(sc.ModelList, scene.ModelInfo{
		VertexCount:    vertexCount,
		FaceCount:      faceCount,
		MaterialIndex:  matIndex,
		FirstNodeIndex: firstNode,
		LastNodeIndex:  lastNode,
	})
	return len(sc.ModelList) - 1
}
