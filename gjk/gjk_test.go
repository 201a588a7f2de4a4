package gjk

import (
	"testing"

	"github.com/akmonengine/collide/geom"
	"github.com/go-gl/mathgl/mgl64"
)

func sphereAt(position mgl64.Vec3, radius float64) Placed {
	return Placed{Shape: geom.SphereShape(radius), Origin: position}
}

func boxAt(position, extents mgl64.Vec3) Placed {
	return Placed{Shape: geom.AABBShape(mgl64.Vec3{}, extents), Origin: position}
}

func capsuleAt(position, a, b mgl64.Vec3, radius float64) Placed {
	return Placed{Shape: geom.CapsuleShape(a, b, radius), Origin: position}
}

func TestMinkowskiSupport(t *testing.T) {
	a := sphereAt(mgl64.Vec3{0, 0, 0}, 1)
	b := sphereAt(mgl64.Vec3{3, 0, 0}, 1)

	// max(A.x) - min(B.x) = 1 - 2
	if got := MinkowskiSupport(a, b, mgl64.Vec3{1, 0, 0}); got.X() != -1 {
		t.Errorf("support along +x = %v, want -1", got.X())
	}
	// min(A.x) - max(B.x) = -1 - 4
	if got := MinkowskiSupport(a, b, mgl64.Vec3{-1, 0, 0}); got.X() != -5 {
		t.Errorf("support along -x = %v, want -5", got.X())
	}
}

func TestPlaced(t *testing.T) {
	c := capsuleAt(mgl64.Vec3{10, 0, 0}, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 4}, 1)

	if got := c.Support(mgl64.Vec3{0, 0, 1}); got != (mgl64.Vec3{10, 0, 5}) {
		t.Errorf("Support = %v", got)
	}
	if got := c.Center(); got != (mgl64.Vec3{10, 0, 2}) {
		t.Errorf("Center = %v", got)
	}
}

func TestIntersect(t *testing.T) {
	tests := []struct {
		name string
		a, b Convex
		want bool
	}{
		{"overlapping spheres", sphereAt(mgl64.Vec3{}, 1), sphereAt(mgl64.Vec3{1.5, 0, 0}, 1), true},
		{"concentric spheres", sphereAt(mgl64.Vec3{}, 1), sphereAt(mgl64.Vec3{}, 1), true},
		{"far spheres", sphereAt(mgl64.Vec3{}, 1), sphereAt(mgl64.Vec3{10, 0, 0}, 1), false},
		{"barely separated spheres", sphereAt(mgl64.Vec3{}, 1), sphereAt(mgl64.Vec3{2.1, 0, 0}, 1), false},
		{"diagonal spheres", sphereAt(mgl64.Vec3{}, 1), sphereAt(mgl64.Vec3{3, 3, 3}, 1), false},

		{"overlapping boxes", boxAt(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}), boxAt(mgl64.Vec3{1.5, 0, 0}, mgl64.Vec3{1, 1, 1}), true},
		{"nested boxes", boxAt(mgl64.Vec3{}, mgl64.Vec3{2, 2, 2}), boxAt(mgl64.Vec3{0, 1, 1}, mgl64.Vec3{1, 1, 1}), true},
		{"separated boxes", boxAt(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}), boxAt(mgl64.Vec3{2.1, 0, 0}, mgl64.Vec3{1, 1, 1}), false},

		{"sphere in box", boxAt(mgl64.Vec3{}, mgl64.Vec3{2, 2, 2}), sphereAt(mgl64.Vec3{}, 0.5), true},
		{"sphere on box corner", boxAt(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}), sphereAt(mgl64.Vec3{1.5, 1.5, 1.5}, 1), true},
		{"sphere beside box", boxAt(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}), sphereAt(mgl64.Vec3{2.5, 0, 0}, 0.4), false},
		// the corner is sqrt(3)*0.5 away, more than the radius
		{"sphere off box corner", boxAt(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}), sphereAt(mgl64.Vec3{1.5, 1.5, 1.5}, 0.8), false},

		{
			"capsule through box",
			boxAt(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}),
			capsuleAt(mgl64.Vec3{0, 0, -5}, mgl64.Vec3{}, mgl64.Vec3{0, 0, 10}, 0.25),
			true,
		},
		{
			"capsule beside box",
			boxAt(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}),
			capsuleAt(mgl64.Vec3{2, 0, -5}, mgl64.Vec3{}, mgl64.Vec3{0, 0, 10}, 0.5),
			false,
		},
		{
			"crossed capsules",
			capsuleAt(mgl64.Vec3{}, mgl64.Vec3{-5, 0, 0}, mgl64.Vec3{5, 0, 0}, 0.5),
			capsuleAt(mgl64.Vec3{0, 0, 0.8}, mgl64.Vec3{0, -5, 0}, mgl64.Vec3{0, 5, 0}, 0.5),
			true,
		},
		{
			"stacked capsules",
			capsuleAt(mgl64.Vec3{}, mgl64.Vec3{-5, 0, 0}, mgl64.Vec3{5, 0, 0}, 0.5),
			capsuleAt(mgl64.Vec3{0, 0, 1.2}, mgl64.Vec3{0, -5, 0}, mgl64.Vec3{0, 5, 0}, 0.5),
			false,
		},

		{"large overlapping spheres", sphereAt(mgl64.Vec3{}, 1e10), sphereAt(mgl64.Vec3{1.5e10, 0, 0}, 1e10), true},
		{"small overlapping spheres", sphereAt(mgl64.Vec3{}, 0.001), sphereAt(mgl64.Vec3{0.0015, 0, 0}, 0.001), true},
		{"coincident points", boxAt(mgl64.Vec3{}, mgl64.Vec3{}), boxAt(mgl64.Vec3{}, mgl64.Vec3{}), true},
		{"overlapping flat boxes", boxAt(mgl64.Vec3{}, mgl64.Vec3{1, 1, 0}), boxAt(mgl64.Vec3{0.5, 0.5, 0}, mgl64.Vec3{1, 1, 0}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Intersect(tt.a, tt.b); got != tt.want {
				t.Errorf("Intersect = %v, want %v", got, tt.want)
			}
			if got := Intersect(tt.b, tt.a); got != tt.want {
				t.Errorf("Intersect (swapped) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLine(t *testing.T) {
	t.Run("origin beside the segment keeps both points", func(t *testing.T) {
		s := Simplex{Points: [4]mgl64.Vec3{{-1, 1, 0}, {1, 1, 0}}, Count: 2}
		direction := mgl64.Vec3{0, 1, 0}

		if line(&s, &direction) {
			t.Error("segment does not pass through the origin")
		}
		if s.Count != 2 {
			t.Errorf("Count = %d, want 2", s.Count)
		}
		if direction.Y() >= 0 {
			t.Errorf("direction %v should point back toward the origin", direction)
		}
	})

	t.Run("origin on the segment", func(t *testing.T) {
		s := Simplex{Points: [4]mgl64.Vec3{{-1, 0, 0}, {1, 0, 0}}, Count: 2}
		direction := mgl64.Vec3{0, 1, 0}

		if !line(&s, &direction) {
			t.Error("segment passes through the origin")
		}
	})

	t.Run("origin behind the newest point", func(t *testing.T) {
		s := Simplex{Points: [4]mgl64.Vec3{{3, 0, 0}, {1, 0, 0}}, Count: 2}
		direction := mgl64.Vec3{-1, 0, 0}

		if line(&s, &direction) {
			t.Error("segment does not contain the origin")
		}
		if s.Count != 1 || s.Points[0] != (mgl64.Vec3{1, 0, 0}) {
			t.Errorf("simplex should reduce to the newest point, got %+v", s)
		}
		if direction != (mgl64.Vec3{-1, 0, 0}) {
			t.Errorf("direction = %v", direction)
		}
	})

	t.Run("degenerate segment", func(t *testing.T) {
		s := Simplex{Points: [4]mgl64.Vec3{{1e-15, 0, 0}, {1e-15, 1e-15, 0}}, Count: 2}
		direction := mgl64.Vec3{0, 1, 0}

		if !line(&s, &direction) {
			t.Error("near-identical points at the origin should count as contact")
		}
	})
}

func TestTriangle(t *testing.T) {
	tests := []struct {
		name      string
		points    [3]mgl64.Vec3
		wantCount int
	}{
		{"origin over the face", [3]mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 0.5}}, 3},
		{"origin in AB region", [3]mgl64.Vec3{{3, 3, 0}, {0, 2, 0}, {2, 0, 0}}, 2},
		{"origin in AC region", [3]mgl64.Vec3{{0, 2, 0}, {3, 3, 0}, {2, 0, 0}}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Simplex{Count: 3}
			copy(s.Points[:], tt.points[:])
			direction := mgl64.Vec3{0, 0, 1}

			if triangle(&s, &direction) {
				t.Error("a triangle never contains the origin")
			}
			if s.Count != tt.wantCount {
				t.Errorf("Count = %d, want %d", s.Count, tt.wantCount)
			}
		})
	}
}

func TestTetrahedron(t *testing.T) {
	t.Run("origin inside", func(t *testing.T) {
		s := Simplex{Points: [4]mgl64.Vec3{{-1, -1, -1}, {1, 1, -1}, {1, -1, 1}, {-1, 1, 1}}, Count: 4}
		direction := mgl64.Vec3{0, 0, 1}

		if !tetrahedron(&s, &direction) {
			t.Error("tetrahedron surrounds the origin")
		}
	})

	t.Run("origin outside", func(t *testing.T) {
		s := Simplex{Points: [4]mgl64.Vec3{{5, 5, 5}, {6, 5, 5}, {5, 6, 5}, {5, 5, 6}}, Count: 4}
		direction := mgl64.Vec3{0, 0, 1}

		if tetrahedron(&s, &direction) {
			t.Error("tetrahedron is far from the origin")
		}
		if s.Count > 3 {
			t.Errorf("Count = %d, want at most 3", s.Count)
		}
	})

	t.Run("collinear points", func(t *testing.T) {
		s := Simplex{Points: [4]mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {3, 0, 0}}, Count: 4}
		direction := mgl64.Vec3{0, 1, 0}

		if tetrahedron(&s, &direction) {
			t.Error("flat simplex away from the origin cannot contain it")
		}
	})
}

func BenchmarkIntersect_Spheres(b *testing.B) {
	a := sphereAt(mgl64.Vec3{}, 1)
	c := sphereAt(mgl64.Vec3{1.5, 0, 0}, 1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Intersect(a, c)
	}
}

func BenchmarkIntersect_BoxCapsule(b *testing.B) {
	a := boxAt(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1})
	c := capsuleAt(mgl64.Vec3{0, 0, -5}, mgl64.Vec3{}, mgl64.Vec3{0, 0, 10}, 0.25)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Intersect(a, c)
	}
}
