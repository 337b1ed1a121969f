package compiler

import (
	"github.com/achilleasa/raybox/asset/compiler/input"
	"github.com/achilleasa/raybox/asset/scene"
	"github.com/achilleasa/raybox/types"
)

// Vertical gap between the ceiling and the light quad.
const lightCeilingGap = 1e-5

// Add an axis-aligned box enclosure centered at center together with a
// ceiling light. Walls are added in left, right, bottom, top, back, front
// order followed by the light. The light quad covers a third of the ceiling
// along X and Z. Returns the model indices of the added quads.
func (c *Collector) AddCornellBox(center, size types.Vec3, walls [input.NumWalls]scene.Material, light scene.Material) []int {
	half := size.Mul(0.5)
	corner := func(sx, sy, sz float32) types.Vec3 {
		return center.Add(types.Vec3{sx * half[0], sy * half[1], sz * half[2]})
	}

	a := corner(-1, -1, -1)
	b := corner(-1, -1, 1)
	cc := corner(1, -1, 1)
	d := corner(1, -1, -1)
	e := corner(-1, 1, -1)
	f := corner(-1, 1, 1)
	g := corner(1, 1, 1)
	h := corner(1, 1, -1)

	quads := []struct {
		corners [4]types.Vec3
		normal  types.Vec3
	}{
		input.LeftWall:   {[4]types.Vec3{a, b, f, e}, types.Vec3{-1, 0, 0}},
		input.RightWall:  {[4]types.Vec3{d, h, g, cc}, types.Vec3{1, 0, 0}},
		input.BottomWall: {[4]types.Vec3{a, d, cc, b}, types.Vec3{0, -1, 0}},
		input.TopWall:    {[4]types.Vec3{e, f, g, h}, types.Vec3{0, 1, 0}},
		input.BackWall:   {[4]types.Vec3{a, e, h, d}, types.Vec3{0, 0, -1}},
		input.FrontWall:  {[4]types.Vec3{b, cc, g, f}, types.Vec3{0, 0, 1}},
	}

	modelIndices := make([]int, 0, len(quads)+1)
	for wall, q := range quads {
		modelIndices = append(modelIndices, c.AddQuad(q.corners, q.normal, walls[wall]))
	}

	// Shrink the ceiling towards its center and lower it below the top wall
	lightCorner := func(p types.Vec3) types.Vec3 {
		return types.Vec3{
			center[0] + (p[0]-center[0])/3,
			p[1] - lightCeilingGap,
			center[2] + (p[2]-center[2])/3,
		}
	}
	modelIndices = append(modelIndices, c.AddQuad(
		[4]types.Vec3{lightCorner(e), lightCorner(f), lightCorner(g), lightCorner(h)},
		types.Vec3{0, -1, 0},
		light,
	))

	return modelIndices
}
