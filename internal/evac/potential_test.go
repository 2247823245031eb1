package evac

import (
	"math"
	"testing"
)

func TestPotential_ZeroAtExitNegativeElsewhere(t *testing.T) {
	g, _ := NewGrid(13, 7, Pos{12, 3})
	pf := NewPotential(g, 3, 10)
	if got := pf.At(Pos{12, 3}); got != 0 {
		t.Fatalf("potential at exit=%v want 0", got)
	}
	if got := pf.At(Pos{0, 3}); got >= 0 {
		t.Fatalf("potential away from exit=%v want < 0", got)
	}
}

func TestPotential_AxialRowIsPlainDistance(t *testing.T) {
	g, _ := NewGrid(13, 7, Pos{12, 3})
	pf := NewPotential(g, 1, 10)
	for x := 0; x < 12; x++ {
		if got, want := pf.Distance(Pos{x, 3}), float64(12-x); got != want {
			t.Fatalf("distance (%d,3)=%v want %v", x, got, want)
		}
	}
}

func TestPotential_LateralOffsetCostsMore(t *testing.T) {
	g, _ := NewGrid(13, 7, Pos{12, 3})
	pf := NewPotential(g, 1, 10)
	// similar Euclidean distance, one axial and one mostly lateral
	axial := pf.Distance(Pos{9, 3})
	lateral := pf.Distance(Pos{11, 0})
	if lateral <= axial {
		t.Fatalf("lateral %v should exceed axial %v", lateral, axial)
	}
	want := math.Sqrt(1 + 10*9.0/1)
	if got := pf.Distance(Pos{11, 0}); math.Abs(got-want) > 1e-12 {
		t.Fatalf("distance (11,0)=%v want %v", got, want)
	}
}

func TestPotential_DegenerateLineIsZero(t *testing.T) {
	g, _ := NewGrid(9, 9, Pos{4, 4})
	pf := NewPotential(g, 3, 10)
	for y := 0; y < 9; y++ {
		got := pf.Distance(Pos{4, y})
		if math.IsNaN(got) || math.IsInf(got, 0) || got != 0 {
			t.Fatalf("distance on exit column (4,%d)=%v want 0", y, got)
		}
	}
}

func TestPotential_YAxisExit(t *testing.T) {
	g, _ := NewGrid(7, 6, Pos{3, 5})
	pf := NewPotential(g, 1, 10)
	if got := pf.Distance(Pos{3, 0}); got != 5 {
		t.Fatalf("distance straight above bottom exit=%v want 5", got)
	}
	if pf.Distance(Pos{0, 4}) <= pf.Distance(Pos{3, 3}) {
		t.Fatal("off-axis cell next to the door should be farther than an on-axis cell two rows up")
	}
}

func TestPotential_StrengthScales(t *testing.T) {
	g, _ := NewGrid(13, 7, Pos{12, 3})
	weak, strong := NewPotential(g, 1, 10), NewPotential(g, 4, 10)
	p := Pos{2, 5}
	if math.Abs(strong.At(p)-4*weak.At(p)) > 1e-9 {
		t.Fatalf("strength must scale linearly: %v vs %v", strong.At(p), weak.At(p))
	}
}

func TestPotential_LateralCostFadesWithDistance(t *testing.T) {
	g, _ := NewGrid(24, 13, Pos{23, 6})
	pf := NewPotential(g, 1, 10)
	near := pf.Distance(Pos{22, 7}) - pf.Distance(Pos{22, 6})
	far := pf.Distance(Pos{8, 7}) - pf.Distance(Pos{8, 6})
	if far >= near/10 {
		t.Fatalf("one row off axis costs %v far away and %v next to the door", far, near)
	}
	// a blocked axis cell can be walked around without a steep climb
	if step := pf.Distance(Pos{15, 5}) - pf.Distance(Pos{15, 6}); step > 0.1 {
		t.Fatalf("sidestep at x=15 costs %v", step)
	}
}

func TestRun_ObstacleOnExitAxisIsBypassed(t *testing.T) {
	s := mustNew(t, 24, 13, Pos{23, 6}, DefaultParams(), WithSeed(1),
		WithWalls(Pos{16, 5}, Pos{16, 6}, Pos{16, 7}))
	mustPopulate(t, s, Pos{10, 6})
	if res := s.Run(500); !res.Done {
		t.Fatalf("agent behind the pillar never got out: %+v", res)
	}
}
