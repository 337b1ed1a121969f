package bvh

import (
	"fmt"

	"github.com/achilleasa/raybox/asset/scene"
	"github.com/pkg/errors"
)

// ChildOrder selects which child of an internal node is emitted first when a
// tree is flattened.
type ChildOrder uint8

const (
	// Emit the right child first. This matches the order in which Build
	// creates leafs so leaf face ranges increase monotonically with the
	// node index.
	RightFirst ChildOrder = iota

	// Emit the left child first.
	LeftFirst
)

// NoMiss is the miss index of a root node; reaching it ends traversal.
const NoMiss int32 = -1

func (o ChildOrder) String() string {
	switch o {
	case RightFirst:
		return "right-first"
	case LeftFirst:
		return "left-first"
	}
	return fmt.Sprintf("ChildOrder(%d)", o)
}

// Map a layout name to a ChildOrder.
func ParseChildOrder(name string) (ChildOrder, error) {
	switch name {
	case "right-first", "right":
		return RightFirst, nil
	case "left-first", "left":
		return LeftFirst, nil
	}
	return RightFirst, errors.Errorf("bvh: unknown child order %q", name)
}

// Flatten appends the tree nodes to nodeList in depth-first pre-order and
// returns the updated list.
//
// Each node is immediately followed by its sub-tree so a traversal that fails
// a node bbox test can skip the entire sub-tree with a single forward jump to
// the node's MissIndex:
//   - the root receives rootMiss (typically NoMiss)
//   - the first emitted child jumps to where its sibling's sub-tree begins
//   - the second emitted child inherits its parent's miss index
//
// Miss indices are absolute indices into nodeList.
func Flatten(tree *Tree, rootMiss int32, order ChildOrder, nodeList []scene.BvhNode) []scene.BvhNode {
	return flatten(tree, tree.Root, rootMiss, order, nodeList)
}

func flatten(tree *Tree, nodeIndex, missIndex int32, order ChildOrder, nodeList []scene.BvhNode) []scene.BvhNode {
	node := &tree.Nodes[nodeIndex]

	out := scene.BvhNode{MissIndex: missIndex}
	out.SetBBox(node.BBox)
	if node.Leaf {
		out.SetFaces(node.FirstFace, node.LastFace)
		return append(nodeList, out)
	}
	nodeList = append(nodeList, out)

	first, second := node.Right, node.Left
	if order == LeftFirst {
		first, second = node.Left, node.Right
	}

	// The first child sub-tree occupies the slots right after this node;
	// skipping it lands on the second child.
	firstMiss := int32(len(nodeList)) + tree.Nodes[first].Size
	nodeList = flatten(tree, first, firstMiss, order, nodeList)
	return flatten(tree, second, missIndex, order, nodeList)
}
