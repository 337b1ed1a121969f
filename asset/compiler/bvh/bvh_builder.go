package bvh

import (
	"time"

	"github.com/achilleasa/raybox/asset/scene"
	"github.com/achilleasa/raybox/log"
	"github.com/achilleasa/raybox/types"
	"github.com/pkg/errors"
)

type Axis uint8

const (
	XAxis Axis = iota
	YAxis
	ZAxis

	// If every side of a node bbox is shorter than this threshold the
	// builder emits a leaf regardless of the number of faces. This stops
	// the recursion for coincident or zero-volume geometry.
	minSideLength float32 = 1e-5
)

var (
	ErrNoFaces              = errors.New("bvh: no faces to partition")
	ErrInvalidLeafThreshold = errors.New("bvh: leaf threshold must be at least 1")
	ErrCentroidMismatch     = errors.New("bvh: face and centroid counts differ")
)

// A node of a BVH tree under construction. Nodes are stored in an arena
// (Tree.Nodes) and reference their children by index; a parent is the sole
// owner of its two children.
type Node struct {
	BBox [2]types.Vec3

	// Set for leaf nodes together with the [FirstFace, LastFace) range
	// into the face list passed to Build.
	Leaf      bool
	FirstFace int32
	LastFace  int32

	// Child indices; -1 for leafs.
	Left  int32
	Right int32

	// Number of nodes in the sub-tree rooted at this node (including itself).
	Size int32
}

// A BVH tree produced by Build. The tree only lives until it is flattened.
type Tree struct {
	Nodes []Node
	Root  int32
}

// Get the number of nodes in the tree.
func (t *Tree) Len() int {
	return len(t.Nodes)
}

type workItem struct {
	face     scene.Face
	centroid types.Vec3
}

type stats struct {
	nodes    int
	leafs    int
	maxDepth int
}

type builder struct {
	logger log.Logger

	// Tree nodes stored as a contiguous arena.
	nodes []Node

	// The global face list. Leaf faces are appended here.
	faceList []scene.Face

	// Transformed vertex positions indexed by the face indices.
	positions []types.Vec3

	// Partitions with this many faces or less become leafs.
	leafThreshold int

	stats stats
}

// Partition a set of faces into a binary BVH tree.
//
// The bbox argument must enclose all vertices referenced by faces. Each face
// is paired with the centroid at the same index. As leafs are created their
// faces are appended to faceList; the updated list is returned together with
// the tree and the leaf face ranges index into it.
//
// Nodes are split at the center of their longest side (ties resolve X, Y, Z).
// Faces whose centroid lies strictly past the center go right; everything else
// goes left. If a split leaves a side empty, the last face of the other side
// is moved over so that the face count strictly decreases at every level.
func Build(bbox [2]types.Vec3, faces []scene.Face, centroids []types.Vec3, positions []types.Vec3, leafThreshold int, faceList []scene.Face) (*Tree, []scene.Face, error) {
	if len(faces) == 0 {
		return nil, faceList, ErrNoFaces
	}
	if leafThreshold < 1 {
		return nil, faceList, errors.Wrapf(ErrInvalidLeafThreshold, "got %d", leafThreshold)
	}
	if len(faces) != len(centroids) {
		return nil, faceList, errors.Wrapf(ErrCentroidMismatch, "%d faces, %d centroids", len(faces), len(centroids))
	}

	workList := make([]workItem, len(faces))
	for index, face := range faces {
		workList[index] = workItem{face: face, centroid: centroids[index]}
	}

	b := &builder{
		logger:        log.New("bvh builder"),
		nodes:         make([]Node, 0, 2*len(faces)/leafThreshold+1),
		faceList:      faceList,
		positions:     positions,
		leafThreshold: leafThreshold,
	}

	start := time.Now()
	root := b.partition(bbox, workList, 0)
	b.logger.Debugf(
		"BVH tree build time: %d ms, faces: %d, maxDepth: %d, nodes: %d, leafs: %d",
		time.Since(start).Nanoseconds()/1e6,
		len(faces), b.stats.maxDepth, b.stats.nodes, b.stats.leafs,
	)

	return &Tree{Nodes: b.nodes, Root: root}, b.faceList, nil
}

// Partition workList and return the index of the created node.
func (b *builder) partition(bbox [2]types.Vec3, workList []workItem, depth int) int32 {
	if depth > b.stats.maxDepth {
		b.stats.maxDepth = depth
	}

	nodeIndex := int32(len(b.nodes))
	b.nodes = append(b.nodes, Node{BBox: bbox, Left: -1, Right: -1, Size: 1})
	b.stats.nodes++

	side := bbox[1].Sub(bbox[0])
	if len(workList) <= b.leafThreshold ||
		(side[0] < minSideLength && side[1] < minSideLength && side[2] < minSideLength) {
		b.createLeaf(nodeIndex, workList)
		return nodeIndex
	}

	axis := splitAxis(side)
	splitPoint := bbox[0][axis] + side[axis]*0.5

	leftWorkList := make([]workItem, 0, len(workList))
	rightWorkList := make([]workItem, 0, len(workList))
	for _, item := range workList {
		if item.centroid[axis] > splitPoint {
			rightWorkList = append(rightWorkList, item)
		} else {
			leftWorkList = append(leftWorkList, item)
		}
	}

	// Never generate empty partitions
	if len(leftWorkList) == 0 {
		last := len(rightWorkList) - 1
		leftWorkList = append(leftWorkList, rightWorkList[last])
		rightWorkList = rightWorkList[:last]
	} else if len(rightWorkList) == 0 {
		last := len(leftWorkList) - 1
		rightWorkList = append(rightWorkList, leftWorkList[last])
		leftWorkList = leftWorkList[:last]
	}

	// Children are bound by the vertices of their own faces rather than
	// by a split of this node's bbox.
	rightBBox := b.faceBBox(rightWorkList)
	leftBBox := b.faceBBox(leftWorkList)

	right := b.partition(rightBBox, rightWorkList, depth+1)
	left := b.partition(leftBBox, leftWorkList, depth+1)

	node := &b.nodes[nodeIndex]
	node.Right = right
	node.Left = left
	node.Size = 1 + b.nodes[right].Size + b.nodes[left].Size

	return nodeIndex
}

// Setup the given node as a leaf containing all faces in the work list.
func (b *builder) createLeaf(nodeIndex int32, workList []workItem) {
	first := int32(len(b.faceList))
	for _, item := range workList {
		b.faceList = append(b.faceList, item.face)
	}

	node := &b.nodes[nodeIndex]
	node.Leaf = true
	node.FirstFace = first
	node.LastFace = int32(len(b.faceList))

	b.stats.leafs++
}

// Calculate the bbox of all vertices referenced by the work list faces.
func (b *builder) faceBBox(workList []workItem) [2]types.Vec3 {
	bbox := types.EmptyBBox()
	for _, item := range workList {
		for _, vertexIndex := range item.face.Indices {
			bbox = types.ExpandBBox(bbox, b.positions[vertexIndex])
		}
	}
	return bbox
}

// Select the axis with the longest side. Ties are resolved in X, Y, Z order.
func splitAxis(side types.Vec3) Axis {
	switch {
	case side[0] >= side[1] && side[0] >= side[2]:
		return XAxis
	case side[1] >= side[2]:
		return YAxis
	default:
		return ZAxis
	}
}
