package evac

import (
	"errors"
	"testing"
)

func TestNewGrid_BoundaryExitIsADoor(t *testing.T) {
	g, err := NewGrid(13, 7, Pos{12, 3})
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	if g.Axis != AxisX {
		t.Fatalf("axis=%v want AxisX", g.Axis)
	}
	for y := 0; y < 7; y++ {
		k, _ := g.Kind(Pos{12, y})
		want := Wall
		if y == 3 {
			want = Exit
		}
		if k != want {
			t.Fatalf("cell (12,%d) kind=%s want %s", y, k, want)
		}
	}
	if k, _ := g.Kind(Pos{0, 3}); k != Floor {
		t.Fatalf("opposite edge should stay floor, got %s", k)
	}
}

func TestNewGrid_TopEdgeExitUsesYAxis(t *testing.T) {
	g, err := NewGrid(6, 4, Pos{2, 0})
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	if g.Axis != AxisY {
		t.Fatalf("axis=%v want AxisY", g.Axis)
	}
	if k, _ := g.Kind(Pos{0, 0}); k != Wall {
		t.Fatalf("(0,0) kind=%s want wall", k)
	}
}

func TestNewGrid_InteriorExitAddsNoWalls(t *testing.T) {
	g, err := NewGrid(5, 5, Pos{2, 2})
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			if k, _ := g.Kind(Pos{x, y}); k == Wall {
				t.Fatalf("unexpected wall at (%d,%d)", x, y)
			}
		}
	}
}

func TestNewGrid_Invalid(t *testing.T) {
	cases := []struct {
		name string
		w, h int
		exit Pos
	}{
		{"zero width", 0, 3, Pos{0, 0}},
		{"negative height", 3, -1, Pos{0, 0}},
		{"exit outside", 3, 3, Pos{3, 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewGrid(tc.w, tc.h, tc.exit); !errors.Is(err, ErrInvalidPosition) {
				t.Fatalf("err=%v want ErrInvalidPosition", err)
			}
		})
	}
}

func TestGrid_LookupsOutsideBounds(t *testing.T) {
	g, _ := NewGrid(3, 3, Pos{2, 1})
	if g.Cell(Pos{-1, 0}) != nil || g.Cell(Pos{0, 3}) != nil {
		t.Fatal("out-of-bounds lookups must return nil")
	}
	if g.Passable(Pos{5, 5}) || g.Occupied(Pos{5, 5}) {
		t.Fatal("out-of-bounds cells are neither passable nor occupied")
	}
	if k, ok := g.Kind(Pos{9, 9}); ok || k != Wall {
		t.Fatalf("Kind outside grid = %s,%v want wall,false", k, ok)
	}
}

func TestGrid_SetWall(t *testing.T) {
	g, _ := NewGrid(4, 4, Pos{3, 1})
	if err := g.SetWall(Pos{3, 1}); !errors.Is(err, ErrInvalidPosition) {
		t.Fatalf("wall on exit: err=%v", err)
	}
	if err := g.SetWall(Pos{4, 0}); !errors.Is(err, ErrInvalidPosition) {
		t.Fatalf("wall outside: err=%v", err)
	}
	if err := g.SetWall(Pos{1, 1}); err != nil {
		t.Fatalf("SetWall: %v", err)
	}
	if g.Passable(Pos{1, 1}) {
		t.Fatal("wall must not be passable")
	}
}

func TestUpdatePredictions_CountsHeadings(t *testing.T) {
	s := mustNew(t, 6, 5, Pos{5, 2}, params(0))
	mustPopulate(t, s, Pos{1, 1}, Pos{1, 3}, Pos{0, 2})
	agentAt(s, Pos{1, 1}).Heading = Direction{1, 1}
	agentAt(s, Pos{1, 3}).Heading = Direction{1, -1}
	// (0,2) keeps the default heading and also points at (1,2)

	s.grid.UpdatePredictions()
	if got := s.grid.Cell(Pos{2, 2}).Prediction; got != 2 {
		t.Fatalf("prediction at (2,2)=%d want 2", got)
	}
	if got := s.grid.Cell(Pos{1, 2}).Prediction; got != 1 {
		t.Fatalf("prediction at (1,2)=%d want 1", got)
	}

	agentAt(s, Pos{1, 1}).Heading = Stay
	s.grid.UpdatePredictions()
	if got := s.grid.Cell(Pos{2, 2}).Prediction; got != 1 {
		t.Fatalf("prediction must be rebuilt, got %d want 1", got)
	}
	if got := s.grid.Cell(Pos{1, 1}).Prediction; got != 1 {
		t.Fatalf("a staying agent predicts its own cell, got %d", got)
	}
}
