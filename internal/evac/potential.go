package evac

import "math"

// Potential is the static attraction towards the exit. The distance is
// sqrt(a² + lateralWeight·l²/|a|) for axial offset a and lateral offset l,
// so lateral offset matters near the door and fades with axial distance.
type Potential struct {
	exit     Pos
	axis     Axis
	strength float64
	lateral  float64

	width  int
	values []float64
}

func NewPotential(g *Grid, strength, lateralWeight float64) *Potential {
	pf := &Potential{
		exit:     g.Exit,
		axis:     g.Axis,
		strength: strength,
		lateral:  lateralWeight,
		width:    g.Width,
		values:   make([]float64, g.Width*g.Height),
	}
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			pf.values[y*g.Width+x] = -strength * pf.Distance(Pos{x, y})
		}
	}
	return pf
}

// Distance is the corridor metric to the exit. Cells on the exit's own
// transverse line (axial offset 0) get 0; in a room whose exit is a door in
// the boundary those cells are the wall around the door.
func (pf *Potential) Distance(p Pos) float64 {
	a, l := p.X-pf.exit.X, p.Y-pf.exit.Y
	if pf.axis == AxisY {
		a, l = l, a
	}
	if a == 0 {
		return 0
	}
	fa := math.Abs(float64(a))
	fl := float64(l)
	return math.Sqrt(fa*fa + pf.lateral*fl*fl/fa)
}

// At returns the potential of an in-bounds cell: 0 at the exit, negative elsewhere.
func (pf *Potential) At(p Pos) float64 {
	return pf.values[p.Y*pf.width+p.X]
}
