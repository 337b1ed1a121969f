package types

import (
	"math"
	"testing"
)

func approxEqual(a, b Vec3) bool {
	for i := 0; i < 3; i++ {
		if math.Abs(float64(a[i]-b[i])) > 1e-5 {
			return false
		}
	}
	return true
}

func TestQuatRotateAboutY(t *testing.T) {
	type spec struct {
		in    Vec3
		angle float32
		out   Vec3
	}
	specs := []spec{
		{Vec3{1, 0, 0}, 90, Vec3{0, 0, -1}},
		{Vec3{0, 0, 1}, 90, Vec3{1, 0, 0}},
		{Vec3{0, 1, 0}, 45, Vec3{0, 1, 0}},
		{Vec3{1, 2, 3}, 0, Vec3{1, 2, 3}},
		{Vec3{1, 0, 0}, 180, Vec3{-1, 0, 0}},
	}

	for idx, s := range specs {
		q := QuatFromAxisAngle(Vec3{0, 1, 0}, Radians(s.angle))
		got := q.Rotate(s.in)
		if !approxEqual(got, s.out) {
			t.Fatalf("[spec %d] expected rotated vector to be %v; got %v", idx, s.out, got)
		}
	}
}

func TestBBoxHelpers(t *testing.T) {
	bbox := EmptyBBox()
	bbox = ExpandBBox(bbox, Vec3{1, -2, 3})
	bbox = ExpandBBox(bbox, Vec3{-1, 2, 0})

	expBBox := [2]Vec3{{-1, -2, 0}, {1, 2, 3}}
	if bbox != expBBox {
		t.Fatalf("expected bbox to be %v; got %v", expBBox, bbox)
	}

	if !BBoxContains(bbox, [2]Vec3{{0, 0, 1}, {1, 2, 2}}) {
		t.Fatal("expected bbox to contain inner box")
	}
	if BBoxContains(bbox, [2]Vec3{{0, 0, 1}, {1, 2.5, 2}}) {
		t.Fatal("expected bbox not to contain box exceeding its Y extent")
	}
}

func TestIsFinite(t *testing.T) {
	if !(Vec3{1, 2, 3}).IsFinite() {
		t.Fatal("expected vector to be finite")
	}
	nan := float32(math.NaN())
	if (Vec3{1, nan, 3}).IsFinite() {
		t.Fatal("expected vector with NaN component not to be finite")
	}
	inf := float32(math.Inf(1))
	if (Vec3{inf, 0, 0}).IsFinite() {
		t.Fatal("expected vector with Inf component not to be finite")
	}
}
