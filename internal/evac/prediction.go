package evac

// UpdatePredictions rebuilds every cell's Prediction from the headings the
// occupants announced in the previous round. It must run before any agent
// decides in the current round.
func (g *Grid) UpdatePredictions() {
	for i := range g.cells {
		g.cells[i].Prediction = 0
	}
	for i := range g.cells {
		a := g.cells[i].Occupant
		if a == nil {
			continue
		}
		if c := g.Cell(a.Pos.Add(a.Heading)); c != nil {
			c.Prediction++
		}
	}
}
