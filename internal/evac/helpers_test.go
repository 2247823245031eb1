package evac

import "testing"

// params returns defaults with the anticipation and crowding terms off, so
// a test geometry fully determines the candidate moves.
func params(mu float64) Params {
	p := DefaultParams()
	p.Beta = 0
	p.Gamma = 0
	p.Mu = mu
	return p
}

func mustNew(t *testing.T, w, h int, exit Pos, p Params, opts ...Option) *Simulation {
	t.Helper()
	s, err := New(w, h, exit, p, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func mustPopulate(t *testing.T, s *Simulation, at ...Pos) {
	t.Helper()
	if err := s.Populate(at); err != nil {
		t.Fatalf("Populate: %v", err)
	}
}

// corridor is a one-cell-wide horizontal passage on row 1 of a width x 3
// room, exit at the right end.
func corridor(t *testing.T, width int, p Params, opts ...Option) *Simulation {
	t.Helper()
	var walls []Pos
	for x := 0; x < width-1; x++ {
		walls = append(walls, Pos{x, 0}, Pos{x, 2})
	}
	opts = append([]Option{WithWalls(walls...)}, opts...)
	return mustNew(t, width, 3, Pos{width - 1, 1}, p, opts...)
}

// funnel is a 5x3 room in which agents at (2,0) and (2,2) can only step
// into (3,1).
func funnel(t *testing.T, p Params, opts ...Option) *Simulation {
	t.Helper()
	walls := WithWalls(Pos{1, 0}, Pos{3, 0}, Pos{1, 1}, Pos{2, 1}, Pos{1, 2}, Pos{3, 2})
	s := mustNew(t, 5, 3, Pos{4, 1}, p, append([]Option{walls}, opts...)...)
	mustPopulate(t, s, Pos{2, 0}, Pos{2, 2})
	return s
}

func agentAt(s *Simulation, p Pos) *Agent {
	c := s.grid.Cell(p)
	if c == nil {
		return nil
	}
	return c.Occupant
}

func agentByID(s *Simulation, id int) *Agent {
	for _, a := range s.agents {
		if a.ID == id {
			return a
		}
	}
	return nil
}
