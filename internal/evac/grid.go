package evac

import "fmt"

type Kind uint8

const (
	Floor Kind = iota
	Wall
	Exit
)

func (k Kind) String() string {
	switch k {
	case Floor:
		return "floor"
	case Wall:
		return "wall"
	case Exit:
		return "exit"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Agent is an occupant. It always sits in exactly one cell of the grid
// until it steps onto the exit and leaves the simulation.
type Agent struct {
	ID         int       `json:"id"`
	Pos        Pos       `json:"pos"`
	Heading    Direction `json:"heading"`
	NextAction float64   `json:"next_action"`
}

type Cell struct {
	Kind     Kind
	Occupant *Agent
	// Prediction counts occupied neighbours whose heading points here.
	// Rebuilt at the start of every round.
	Prediction int
}

func (c *Cell) IsOccupied() bool { return c.Occupant != nil }

// Axis is the direction along which distance to the exit is measured.
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
)

// Grid is the fixed-size room. Cells are created once and never removed.
type Grid struct {
	Width  int
	Height int
	Exit   Pos
	Axis   Axis

	cells []Cell
}

// NewGrid builds a floor-only room with a single exit. An exit on the
// boundary is a door: the rest of that boundary line becomes wall.
func NewGrid(width, height int, exit Pos) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: grid %dx%d", ErrInvalidPosition, width, height)
	}
	g := &Grid{Width: width, Height: height, Exit: exit, cells: make([]Cell, width*height)}
	if !g.In(exit) {
		return nil, fmt.Errorf("%w: exit %v outside %dx%d grid", ErrInvalidPosition, exit, width, height)
	}
	g.Cell(exit).Kind = Exit

	switch {
	case width > 1 && (exit.X == 0 || exit.X == width-1):
		g.Axis = AxisX
		for y := 0; y < height; y++ {
			if y != exit.Y {
				g.Cell(Pos{exit.X, y}).Kind = Wall
			}
		}
	case height > 1 && (exit.Y == 0 || exit.Y == height-1):
		g.Axis = AxisY
		for x := 0; x < width; x++ {
			if x != exit.X {
				g.Cell(Pos{x, exit.Y}).Kind = Wall
			}
		}
	default:
		g.Axis = AxisX
	}
	return g, nil
}

func (g *Grid) In(p Pos) bool { return p.X >= 0 && p.X < g.Width && p.Y >= 0 && p.Y < g.Height }

// Cell returns nil for coordinates outside the grid.
func (g *Grid) Cell(p Pos) *Cell {
	if !g.In(p) {
		return nil
	}
	return &g.cells[p.Y*g.Width+p.X]
}

func (g *Grid) Kind(p Pos) (Kind, bool) {
	c := g.Cell(p)
	if c == nil {
		return Wall, false
	}
	return c.Kind, true
}

// Passable reports whether p could ever be a move target.
func (g *Grid) Passable(p Pos) bool {
	c := g.Cell(p)
	return c != nil && c.Kind != Wall
}

// Occupied is the crowding indicator of the transition rule. The exit
// absorbs agents, so it is never occupied.
func (g *Grid) Occupied(p Pos) bool {
	c := g.Cell(p)
	return c != nil && c.Kind != Exit && c.Occupant != nil
}

func (g *Grid) SetWall(p Pos) error {
	c := g.Cell(p)
	switch {
	case c == nil:
		return fmt.Errorf("%w: wall %v outside grid", ErrInvalidPosition, p)
	case c.Kind == Exit:
		return fmt.Errorf("%w: wall %v covers the exit", ErrInvalidPosition, p)
	case c.Occupant != nil:
		return fmt.Errorf("%w: wall %v is occupied", ErrInvalidPosition, p)
	}
	c.Kind = Wall
	return nil
}

// FreeFloor lists unoccupied floor cells in row-major order.
func (g *Grid) FreeFloor() []Pos {
	var out []Pos
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			c := &g.cells[y*g.Width+x]
			if c.Kind == Floor && c.Occupant == nil {
				out = append(out, Pos{x, y})
			}
		}
	}
	return out
}
