package evac

import "math"

// timeEps absorbs rounding between sums of whole and 1.5 periods.
const timeEps = 1e-9

// Due returns the agents whose NextAction equals the minimum over all
// agents, keeping the input order. Everyone else is left untouched for the
// round.
func Due(agents []*Agent) []*Agent {
	if len(agents) == 0 {
		return nil
	}
	lo := math.Inf(1)
	for _, a := range agents {
		if a.NextAction < lo {
			lo = a.NextAction
		}
	}
	var due []*Agent
	for _, a := range agents {
		if a.NextAction-lo <= timeEps {
			due = append(due, a)
		}
	}
	return due
}
