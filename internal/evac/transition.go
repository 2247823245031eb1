package evac

import (
	"math"
	"math/rand"

	"evacsim/internal/util"
)

// Distribution holds one probability per entry of Candidates.
type Distribution [len(Candidates)]float64

func (d Distribution) Of(dir Direction) float64 {
	for i, c := range Candidates {
		if c == dir {
			return d[i]
		}
	}
	return 0
}

// Transition is the movement rule: attraction exp(alpha·U), damped by
// (1-beta) when the target is occupied and by (1-gamma) when other agents
// announced they are heading there.
type Transition struct {
	grid  *Grid
	field *Potential
	alpha float64
	beta  float64
	gamma float64
}

func NewTransition(g *Grid, field *Potential, p Params) *Transition {
	return &Transition{grid: g, field: field, alpha: p.Alpha, beta: p.Beta, gamma: p.Gamma}
}

// UnnormalizedWeight is the raw weight of moving from `from` along d. It is
// 0 for Stay, for targets outside the grid and for walls.
func (tr *Transition) UnnormalizedWeight(from Pos, d Direction) float64 {
	return tr.weight(from, d, 0)
}

func (tr *Transition) weight(from Pos, d Direction, shift float64) float64 {
	if d == Stay {
		return 0
	}
	src := tr.grid.Cell(from)
	to := from.Add(d)
	if src == nil || !tr.grid.Passable(to) {
		return 0
	}
	w := math.Exp(tr.alpha * (tr.field.At(to) - shift))
	if tr.grid.Occupied(to) {
		w *= 1 - tr.beta
	}
	if tr.reacts(src, to, d) {
		w *= 1 - tr.gamma
	}
	return w
}

// reacts is the anticipation indicator: someone other than the deciding
// agent itself announced a move into `to`.
func (tr *Transition) reacts(src *Cell, to Pos, d Direction) bool {
	n := tr.grid.Cell(to).Prediction
	if src.Occupant != nil && src.Occupant.Heading == d {
		n--
	}
	return n > 0
}

// Probabilities normalizes the weights of the eight moves. When every move
// is blocked the whole mass goes to Stay.
//
// Weights are evaluated relative to the best reachable potential; the
// common factor cancels in the normalization and keeps far-away cells from
// underflowing to zero.
func (tr *Transition) Probabilities(from Pos) Distribution {
	var dist Distribution
	shift := math.Inf(-1)
	for _, d := range Moves {
		if to := from.Add(d); tr.grid.Passable(to) {
			shift = math.Max(shift, tr.field.At(to))
		}
	}
	sum := 0.0
	if !math.IsInf(shift, -1) {
		for i, d := range Moves {
			dist[i] = tr.weight(from, d, shift)
			sum += dist[i]
		}
	}
	if sum == 0 {
		dist = Distribution{}
		dist[stayIndex] = 1
		return dist
	}
	for i := range Moves {
		dist[i] /= sum
	}
	return dist
}

// Choose draws a direction from Probabilities.
func (tr *Transition) Choose(rng *rand.Rand, from Pos) Direction {
	dist := tr.Probabilities(from)
	i := util.WeightedChoice(rng, dist[:])
	if i < 0 {
		return Stay
	}
	return Candidates[i]
}
