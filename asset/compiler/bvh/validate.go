package bvh

import (
	"sort"

	"github.com/achilleasa/raybox/asset/scene"
	"github.com/achilleasa/raybox/types"
	"github.com/pkg/errors"
)

// Summary describes a flattened BVH that passed validation.
type Summary struct {
	Nodes    int
	Leafs    int
	MaxDepth int

	// The face range [first, last) covered by the leafs.
	FirstFace int32
	LastFace  int32
}

type validator struct {
	nodeList []scene.BvhNode
	first    int32
	last     int32
	rootMiss int32

	leafRanges [][2]int32
	summary    Summary
}

// Validate re-derives the tree stored in nodeList[first:last+1] and checks the
// invariants that stackless traversal depends on:
//   - the root miss index equals rootMiss
//   - every other miss index is either rootMiss or points forward, at most
//     one slot past the end of the range
//   - every internal node has two children; the first is stored right after
//     it and the second where the first child's sub-tree ends
//   - the second child inherits its parent's miss index
//   - parent bboxes contain the bboxes of their children
//   - leaf face ranges are non-empty and together cover a contiguous range
//     without overlaps
//
// The child emission order does not need to be known.
func Validate(nodeList []scene.BvhNode, first, last, rootMiss int32) (Summary, error) {
	if first < 0 || last < first || int(last) >= len(nodeList) {
		return Summary{}, errors.Errorf("bvh: invalid node range [%d, %d] for %d nodes", first, last, len(nodeList))
	}

	v := &validator{
		nodeList: nodeList,
		first:    first,
		last:     last,
		rootMiss: rootMiss,
	}

	if nodeList[first].MissIndex != rootMiss {
		return Summary{}, errors.Errorf("bvh: root node %d has miss index %d; expected %d", first, nodeList[first].MissIndex, rootMiss)
	}

	size, err := v.check(first, 0)
	if err != nil {
		return Summary{}, err
	}
	if size != last-first+1 {
		return Summary{}, errors.Errorf("bvh: tree rooted at %d spans %d nodes; expected %d", first, size, last-first+1)
	}

	if err = v.checkLeafRanges(); err != nil {
		return Summary{}, err
	}

	v.summary.Nodes = int(size)
	return v.summary, nil
}

// Check the sub-tree rooted at index and return its node count.
func (v *validator) check(index int32, depth int) (int32, error) {
	if index < v.first || index > v.last {
		return 0, errors.Errorf("bvh: node index %d outside of range [%d, %d]", index, v.first, v.last)
	}
	if depth > v.summary.MaxDepth {
		v.summary.MaxDepth = depth
	}

	node := &v.nodeList[index]
	if index != v.first && node.MissIndex != v.rootMiss {
		if node.MissIndex <= index {
			return 0, errors.Errorf("bvh: node %d has backward miss index %d", index, node.MissIndex)
		}
		if node.MissIndex > v.last+1 {
			return 0, errors.Errorf("bvh: node %d miss index %d jumps past the end of the tree", index, node.MissIndex)
		}
	}

	if node.IsLeaf() {
		if node.FirstFaceIndex < 0 || node.FirstFaceIndex >= node.LastFaceIndex {
			return 0, errors.Errorf("bvh: leaf %d has invalid face range [%d, %d)", index, node.FirstFaceIndex, node.LastFaceIndex)
		}
		v.leafRanges = append(v.leafRanges, [2]int32{node.FirstFaceIndex, node.LastFaceIndex})
		v.summary.Leafs++
		return 1, nil
	}

	firstChild := index + 1
	firstSize, err := v.check(firstChild, depth+1)
	if err != nil {
		return 0, err
	}
	if v.nodeList[firstChild].MissIndex != firstChild+firstSize {
		return 0, errors.Errorf("bvh: node %d miss index %d does not point past its sub-tree (%d)", firstChild, v.nodeList[firstChild].MissIndex, firstChild+firstSize)
	}

	secondChild := firstChild + firstSize
	if secondChild > v.last {
		return 0, errors.Errorf("bvh: internal node %d is missing its second child", index)
	}
	if v.nodeList[secondChild].MissIndex != node.MissIndex {
		return 0, errors.Errorf("bvh: node %d miss index %d does not match parent miss index %d", secondChild, v.nodeList[secondChild].MissIndex, node.MissIndex)
	}
	secondSize, err := v.check(secondChild, depth+1)
	if err != nil {
		return 0, err
	}

	for _, child := range []int32{firstChild, secondChild} {
		if !types.BBoxContains(node.BBox(), v.nodeList[child].BBox()) {
			return 0, errors.Errorf("bvh: bbox of node %d does not contain the bbox of child %d", index, child)
		}
	}

	return 1 + firstSize + secondSize, nil
}

func (v *validator) checkLeafRanges() error {
	sort.Slice(v.leafRanges, func(i, j int) bool {
		return v.leafRanges[i][0] < v.leafRanges[j][0]
	})

	for index := 1; index < len(v.leafRanges); index++ {
		if v.leafRanges[index][0] != v.leafRanges[index-1][1] {
			return errors.Errorf(
				"bvh: leaf face ranges [%d, %d) and [%d, %d) are not contiguous",
				v.leafRanges[index-1][0], v.leafRanges[index-1][1], v.leafRanges[index][0], v.leafRanges[index][1],
			)
		}
	}

	v.summary.FirstFace = v.leafRanges[0][0]
	v.summary.LastFace = v.leafRanges[len(v.leafRanges)-1][1]
	return nil
}
