package evac

import "fmt"

// Pos is a cell coordinate; X grows to the right, Y grows downwards.
type Pos struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Pos) Add(d Direction) Pos { return Pos{p.X + d.DX, p.Y + d.DY} }
func (p Pos) Sub(q Pos) Direction { return Direction{p.X - q.X, p.Y - q.Y} }
func (p Pos) String() string      { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }
func (p Pos) less(q Pos) bool     { return p.Y < q.Y || (p.Y == q.Y && p.X < q.X) }
func (p Pos) pair() [2]int        { return [2]int{p.X, p.Y} }

// Direction is a unit step in the Moore neighbourhood, or Stay.
type Direction struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

func (d Direction) Diagonal() bool { return d.DX != 0 && d.DY != 0 }
func (d Direction) pair() [2]int   { return [2]int{d.DX, d.DY} }

var (
	Stay = Direction{}
	// DefaultHeading is what an agent announces before its first decision.
	DefaultHeading = Direction{DX: 1}
)

// Moves is the sampling order of the eight neighbours. Changing it changes
// every seeded run.
var Moves = [8]Direction{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

const stayIndex = len(Moves)

// Candidates are the outcomes of a transition draw: Moves followed by Stay.
var Candidates = [len(Moves) + 1]Direction{
	Moves[0], Moves[1], Moves[2], Moves[3], Moves[4], Moves[5], Moves[6], Moves[7], Stay,
}
