package evac

import (
	"fmt"
	"math/rand"

	"evacsim/internal/util"
)

// Simulation runs the round-based evacuation of one room. It is not safe
// for concurrent use; independent simulations may run in parallel.
type Simulation struct {
	grid     *Grid
	field    *Potential
	rule     *Transition
	resolver *Resolver
	params   Params

	rng  *rand.Rand
	emit func(Event)

	agents    []*Agent
	nextID    int
	steps     int
	now       float64
	evacuated int
}

type Option func(*Simulation) error

// WithSeed replaces the generator. Every random draw of the run (direction
// sampling, conflict winners, yielding) comes from it.
func WithSeed(seed int64) Option {
	return func(s *Simulation) error {
		s.rng = util.New(seed)
		return nil
	}
}

func WithWalls(walls ...Pos) Option {
	return func(s *Simulation) error {
		for _, w := range walls {
			if err := s.grid.SetWall(w); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithEmit installs the event hook.
func WithEmit(emit func(Event)) Option {
	return func(s *Simulation) error {
		if emit != nil {
			s.emit = emit
		}
		return nil
	}
}

// New initializes an empty room of width x height cells with one exit.
func New(width, height int, exit Pos, p Params, opts ...Option) (*Simulation, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	g, err := NewGrid(width, height, exit)
	if err != nil {
		return nil, err
	}
	s := &Simulation{
		grid:   g,
		params: p,
		rng:    util.New(1),
		emit:   func(Event) {},
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.field = NewPotential(g, p.Strength, p.LateralWeight)
	s.rule = NewTransition(g, s.field, p)
	s.resolver = NewResolver(g, s.rng, p)
	s.resolver.emit = func(typ string, payload map[string]any) {
		s.emit(Event{Step: s.steps, T: s.now, Type: typ, Payload: payload})
	}
	s.resolver.onExit = s.remove
	return s, nil
}

// Populate places one agent on each position. Positions must be distinct,
// free floor cells; nothing is placed if any of them is not.
func (s *Simulation) Populate(positions []Pos) error {
	seen := make(map[Pos]bool, len(positions))
	for _, p := range positions {
		c := s.grid.Cell(p)
		switch {
		case c == nil:
			return fmt.Errorf("%w: agent %v outside %dx%d grid", ErrInvalidPosition, p, s.grid.Width, s.grid.Height)
		case c.Kind != Floor:
			return fmt.Errorf("%w: agent %v on %s cell", ErrInvalidPosition, p, c.Kind)
		case c.Occupant != nil || seen[p]:
			return fmt.Errorf("%w: agent %v given twice", ErrInvalidPosition, p)
		}
		seen[p] = true
	}
	for _, p := range positions {
		a := &Agent{ID: s.nextID, Pos: p, Heading: DefaultHeading, NextAction: s.now}
		s.nextID++
		s.grid.Cell(p).Occupant = a
		s.agents = append(s.agents, a)
	}
	return nil
}

// PopulateRandom places n agents on distinct free floor cells drawn from
// the simulation's generator.
func (s *Simulation) PopulateRandom(n int) error {
	free := s.grid.FreeFloor()
	if n < 0 || n > len(free) {
		return fmt.Errorf("%w: %d agents for %d free cells", ErrInvalidPosition, n, len(free))
	}
	s.rng.Shuffle(len(free), func(i, j int) { free[i], free[j] = free[j], free[i] })
	return s.Populate(free[:n])
}

type decision struct {
	agent *Agent
	dir   Direction
}

// Step runs one round and returns the number of agents still present.
//
// Phases: predictions are rebuilt from last round's headings; every due
// agent drops its old bind and draws a direction against that frozen state;
// the draws become claims (empty target), binds (occupied target) or stays;
// the resolver applies claims and release chains; the round is settled.
func (s *Simulation) Step() int {
	due := Due(s.agents)
	if len(due) == 0 {
		return 0
	}
	s.steps++
	s.now = due[0].NextAction

	s.grid.UpdatePredictions()

	decisions := make([]decision, 0, len(due))
	for _, a := range due {
		s.resolver.Unbind(a)
		decisions = append(decisions, decision{agent: a, dir: s.rule.Choose(s.rng, a.Pos)})
	}

	for _, d := range decisions {
		a := d.agent
		a.Heading = d.dir
		to := a.Pos.Add(d.dir)
		switch {
		case d.dir == Stay:
			s.emit(Event{Step: s.steps, T: s.now, Type: "Stay", Payload: map[string]any{"id": a.ID, "at": a.Pos.pair()}})
		case !s.grid.Passable(to):
			// zero-weight directions are never drawn
			panic(fmt.Errorf("%w: agent %d drew blocked direction %v", ErrInconsistentState, a.ID, d.dir))
		case s.grid.Occupied(to):
			s.resolver.Bind(a, to)
		default:
			s.resolver.Claim(a, to)
		}
	}

	s.resolver.Resolve()
	s.resolver.Settle(due)
	return len(s.agents)
}

// Run steps until everyone is out or maxSteps rounds have run (maxSteps <= 0
// means no cap).
func (s *Simulation) Run(maxSteps int) Result {
	curve := []int{len(s.agents)}
	for !s.IsDone() && (maxSteps <= 0 || s.steps < maxSteps) {
		curve = append(curve, s.Step())
	}
	return Result{
		Steps:     s.steps,
		Evacuated: s.evacuated,
		Remaining: len(s.agents),
		Done:      s.IsDone(),
		Time:      s.now,
		Curve:     curve,
	}
}

func (s *Simulation) remove(a *Agent) {
	for i, b := range s.agents {
		if b == a {
			s.agents = append(s.agents[:i], s.agents[i+1:]...)
			break
		}
	}
	s.evacuated++
}

// Snapshot copies the current occupancy and cell kinds.
func (s *Simulation) Snapshot() Snapshot {
	g := s.grid
	snap := make(Snapshot, g.Height)
	for y := range snap {
		row := make([]Code, g.Width)
		for x := range row {
			c := g.Cell(Pos{x, y})
			switch {
			case c.Kind == Wall:
				row[x] = CodeWall
			case c.Kind == Exit:
				row[x] = CodeExit
			case c.Occupant != nil:
				row[x] = CodeOccupied
			default:
				row[x] = CodeFloor
			}
		}
		snap[y] = row
	}
	return snap
}

func (s *Simulation) IsDone() bool      { return len(s.agents) == 0 }
func (s *Simulation) Steps() int        { return s.steps }
func (s *Simulation) Remaining() int    { return len(s.agents) }
func (s *Simulation) Evacuated() int    { return s.evacuated }
func (s *Simulation) Time() float64     { return s.now }
func (s *Simulation) Params() Params    { return s.params }
func (s *Simulation) Grid() *Grid       { return s.grid }
func (s *Simulation) Field() *Potential { return s.field }
func (s *Simulation) Rule() *Transition { return s.rule }

// Agents returns copies of the agents still present, in ID order.
func (s *Simulation) Agents() []Agent {
	out := make([]Agent, len(s.agents))
	for i, a := range s.agents {
		out[i] = *a
	}
	return out
}
