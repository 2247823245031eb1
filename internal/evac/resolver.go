package evac

import (
	"fmt"
	"math/rand"
	"sort"
)

// Resolver owns the per-round resolution buffer (claims on empty cells)
// and the persistent bind relation (agents waiting behind an occupant).
// Committed grid state only changes inside Resolve.
type Resolver struct {
	grid   *Grid
	rng    *rand.Rand
	mu     float64
	period float64
	depth  int

	claims map[Pos][]*Agent
	// binds maps an occupied cell to the agents that want to enter it;
	// boundTo is the reverse edge, one per bound agent.
	binds   map[Pos][]*Agent
	boundTo map[*Agent]Pos
	moved   map[*Agent]bool

	emit   func(typ string, payload map[string]any)
	onExit func(a *Agent)
}

func NewResolver(g *Grid, rng *rand.Rand, p Params) *Resolver {
	return &Resolver{
		grid:    g,
		rng:     rng,
		mu:      p.Mu,
		period:  p.Period,
		depth:   p.ChainDepth,
		claims:  map[Pos][]*Agent{},
		binds:   map[Pos][]*Agent{},
		boundTo: map[*Agent]Pos{},
		moved:   map[*Agent]bool{},
		emit:    func(string, map[string]any) {},
		onExit:  func(*Agent) {},
	}
}

// Claim registers a's request to move into the empty cell `to`.
func (r *Resolver) Claim(a *Agent, to Pos) {
	r.claims[to] = append(r.claims[to], a)
}

// Bind records that a wants the cell currently held by another agent.
func (r *Resolver) Bind(a *Agent, blocker Pos) {
	r.Unbind(a)
	r.binds[blocker] = append(r.binds[blocker], a)
	r.boundTo[a] = blocker
	r.emit("Bind", map[string]any{"id": a.ID, "from": a.Pos.pair(), "to": blocker.pair()})
}

// Unbind drops a's outstanding bind. Agents are unbound when activated,
// before they decide again.
func (r *Resolver) Unbind(a *Agent) {
	at, ok := r.boundTo[a]
	if !ok {
		return
	}
	delete(r.boundTo, a)
	list := r.binds[at]
	for i, b := range list {
		if b == a {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(r.binds, at)
	} else {
		r.binds[at] = list
	}
}

// BoundTo reports the cell a is waiting for, if any.
func (r *Resolver) BoundTo(a *Agent) (Pos, bool) {
	p, ok := r.boundTo[a]
	return p, ok
}

// Pending is the number of claims registered this round.
func (r *Resolver) Pending() int {
	n := 0
	for _, l := range r.claims {
		n += len(l)
	}
	return n
}

// Resolve adjudicates every claimed cell in row-major order: one claimant
// moves, or with probability mu nobody does. Each move releases the chain
// of agents bound behind the mover.
func (r *Resolver) Resolve() {
	targets := make([]Pos, 0, len(r.claims))
	for p := range r.claims {
		targets = append(targets, p)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].less(targets[j]) })

	for _, to := range targets {
		r.resolveCell(to, r.claims[to])
	}
	clear(r.claims)
}

func (r *Resolver) resolveCell(to Pos, claimants []*Agent) {
	switch len(claimants) {
	case 0:
		return
	case 1:
		r.advance(claimants[0], to)
		return
	}
	ids := make([]int, len(claimants))
	for i, a := range claimants {
		ids[i] = a.ID
	}
	r.emit("Conflict", map[string]any{"cell": to.pair(), "ids": ids})
	if r.rng.Float64() < r.mu {
		r.emit("Yield", map[string]any{"cell": to.pair(), "ids": ids})
		return
	}
	r.advance(claimants[r.rng.Intn(len(claimants))], to)
}

// advance moves a into `to` and then walks the release chain: the agent
// bound to the cell just vacated follows immediately, which vacates its
// own cell, and so on for at most depth releases.
func (r *Resolver) advance(a *Agent, to Pos) {
	vacated := r.move(a, to)
	for depth := 0; depth < r.depth; depth++ {
		bound := r.binds[vacated]
		if len(bound) == 0 {
			return
		}
		next := bound[0]
		if len(bound) > 1 {
			next = bound[r.rng.Intn(len(bound))]
		}
		delete(r.binds, vacated)
		for _, b := range bound {
			delete(r.boundTo, b)
		}
		r.emit("Release", map[string]any{"id": next.ID, "into": vacated.pair(), "depth": depth + 1})
		vacated = r.move(next, vacated)
	}
}

// move commits a single step and returns the cell left behind.
func (r *Resolver) move(a *Agent, to Pos) Pos {
	from := a.Pos
	src, dst := r.grid.Cell(from), r.grid.Cell(to)
	if src == nil || src.Occupant != a {
		panic(fmt.Errorf("%w: agent %d is not at %v", ErrInconsistentState, a.ID, from))
	}
	if dst == nil || dst.Kind == Wall || (dst.Kind != Exit && dst.Occupant != nil) {
		panic(fmt.Errorf("%w: agent %d cannot enter %v", ErrInconsistentState, a.ID, to))
	}
	if r.moved[a] {
		panic(fmt.Errorf("%w: agent %d moved twice in one round", ErrInconsistentState, a.ID))
	}

	d := to.Sub(from)
	penalty := 1.0
	if d.Diagonal() {
		penalty = 1.5
	}
	src.Occupant = nil
	src.Prediction = 0
	delete(r.boundTo, a)
	r.moved[a] = true
	a.NextAction += r.period * penalty
	a.Pos = to

	if dst.Kind == Exit {
		r.emit("Exit", map[string]any{"id": a.ID, "from": from.pair()})
		r.onExit(a)
		return from
	}
	dst.Occupant = a
	r.emit("Move", map[string]any{"id": a.ID, "from": from.pair(), "to": to.pair(), "dir": d.pair()})
	return from
}

// Settle closes the round: activated agents that did not move wait one
// period, and the per-round buffer is emptied.
func (r *Resolver) Settle(activated []*Agent) {
	for _, a := range activated {
		if !r.moved[a] {
			a.NextAction += r.period
		}
	}
	clear(r.moved)
	clear(r.claims)
}
