package geom

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func floatEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}

func TestSupport(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
		dir   mgl64.Vec3
		want  float64
	}{
		{"point", PointShape(), mgl64.Vec3{1, 2, 3}, 0},
		{"aabb along x", AABBShape(mgl64.Vec3{}, mgl64.Vec3{1, 2, 3}), mgl64.Vec3{1, 0, 0}, 1},
		{"aabb along -z", AABBShape(mgl64.Vec3{}, mgl64.Vec3{1, 2, 3}), mgl64.Vec3{0, 0, -1}, 3},
		{"aabb diagonal", AABBShape(mgl64.Vec3{}, mgl64.Vec3{1, 2, 3}), mgl64.Vec3{1, -1, 1}, 6},
		{"aabb off center", AABBShape(mgl64.Vec3{0, 0, 5}, mgl64.Vec3{1, 1, 1}), mgl64.Vec3{0, 0, 1}, 6},
		{"sphere", SphereShape(2), mgl64.Vec3{0, 3, 4}, 10},
		{"capsule along axis", CapsuleShape(mgl64.Vec3{0, 0, -1}, mgl64.Vec3{0, 0, 1}, 0.5), mgl64.Vec3{0, 0, 1}, 1.5},
		{"capsule across axis", CapsuleShape(mgl64.Vec3{0, 0, -1}, mgl64.Vec3{0, 0, 1}, 0.5), mgl64.Vec3{1, 0, 0}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Support(tt.shape, tt.dir); !floatEqual(got, tt.want, 1e-12) {
				t.Errorf("Support = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSupportMatchesSupportPoint(t *testing.T) {
	shapes := []Shape{
		PointShape(),
		AABBShape(mgl64.Vec3{1, -2, 0.5}, mgl64.Vec3{3, 1, 2}),
		SphereShape(1.5),
		CapsuleShape(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 2, 0}, 0.75),
	}
	dirs := []mgl64.Vec3{
		{1, 0, 0}, {0, -1, 0}, {0, 0, 1},
		mgl64.Vec3{1, 1, 1}.Normalize(), mgl64.Vec3{-2, 0.5, 3}.Normalize(),
	}

	for _, shape := range shapes {
		for _, dir := range dirs {
			want := SupportPoint(shape, dir).Dot(dir)
			if got := Support(shape, dir); !floatEqual(got, want, 1e-9) {
				t.Errorf("%v: Support(%v) = %v, SupportPoint gives %v", shape.Type, dir, got, want)
			}
		}
	}
}

func TestAxialSupport(t *testing.T) {
	aabb := AABBShape(mgl64.Vec3{1, 0, 0}, mgl64.Vec3{2, 3, 4})

	for axis := 0; axis < 3; axis++ {
		var unit mgl64.Vec3
		unit[axis] = 1

		if got, want := AxialSupport(aabb, axis, true), Support(aabb, unit); !floatEqual(got, want, 1e-12) {
			t.Errorf("axis %d positive: %v, want %v", axis, got, want)
		}
		if got, want := AxialSupport(aabb, axis, false), Support(aabb, unit.Mul(-1)); !floatEqual(got, want, 1e-12) {
			t.Errorf("axis %d negative: %v, want %v", axis, got, want)
		}
	}

	if AxialSupport(PointShape(), 2, true) != 0 {
		t.Errorf("point shape has no extent")
	}
}

func TestMinkowskiSum(t *testing.T) {
	b := MinMax3{Mins: mgl64.Vec3{0, 0, 0}, Maxs: mgl64.Vec3{1, 1, 1}}

	tests := []struct {
		name  string
		shape Shape
		want  MinMax3
	}{
		{"point", PointShape(), b},
		{
			"centered box",
			AABBShape(mgl64.Vec3{}, mgl64.Vec3{0.5, 1, 2}),
			MinMax3{Mins: mgl64.Vec3{-0.5, -1, -2}, Maxs: mgl64.Vec3{1.5, 2, 3}},
		},
		{
			"raised box",
			AABBShape(mgl64.Vec3{0, 0, 1}, mgl64.Vec3{1, 1, 1}),
			MinMax3{Mins: mgl64.Vec3{-1, -1, -2}, Maxs: mgl64.Vec3{2, 2, 1}},
		},
		{
			"sphere",
			SphereShape(1),
			MinMax3{Mins: mgl64.Vec3{-1, -1, -1}, Maxs: mgl64.Vec3{2, 2, 2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MinkowskiSum(b, tt.shape); got != tt.want {
				t.Errorf("MinkowskiSum = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMakeRay(t *testing.T) {
	ray := MakeRayStartEnd(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 10})
	if ray.Length != 10 || ray.Direction != (mgl64.Vec3{0, 0, 1}) {
		t.Errorf("unexpected ray %+v", ray)
	}
	if !math.IsInf(ray.InvDir.X(), 1) || ray.InvDir.Z() != 1 {
		t.Errorf("unexpected InvDir %v", ray.InvDir)
	}
	if ray.End() != (mgl64.Vec3{0, 0, 10}) {
		t.Errorf("End = %v", ray.End())
	}

	zero := MakeRayStartEnd(mgl64.Vec3{1, 2, 3}, mgl64.Vec3{1, 2, 3})
	if zero.Length != 0 || zero.Direction != (mgl64.Vec3{}) {
		t.Errorf("zero length ray should have no direction: %+v", zero)
	}
}

func TestSolidityString(t *testing.T) {
	if SolidNotSolid.String() != "notsolid" {
		t.Errorf("got %q", SolidNotSolid.String())
	}
	if SolidSolid.String() != "playerclip|weaponclip" {
		t.Errorf("got %q", SolidSolid.String())
	}
	if !SolidShot.Blocks(SolidWallbangable) || SolidShot.Blocks(SolidLadder) {
		t.Errorf("unexpected Blocks result for %v", SolidShot)
	}
}

func TestParseSolidity(t *testing.T) {
	tests := []struct {
		in      string
		want    Solidity
		wantErr bool
	}{
		{"notsolid", SolidNotSolid, false},
		{"solid", SolidSolid, false},
		{"ladder|trigger", SolidLadder | SolidTrigger, false},
		{" Shot | ladder ", SolidShot | SolidLadder, false},
		{"everything", SolidEverything, false},
		{"lava", SolidNotSolid, true},
	}

	for _, tt := range tests {
		got, err := ParseSolidity(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSolidity(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSolidity(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, s := range []Solidity{SolidSolid, SolidShot, SolidEverything, SolidLadder} {
		if back, err := ParseSolidity(s.String()); err != nil || back != s {
			t.Errorf("ParseSolidity(%q) = %v, %v", s.String(), back, err)
		}
	}
}
