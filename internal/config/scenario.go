package config

import "evacsim/internal/evac"

// Scenario is one room description: geometry, population and model constants.
type Scenario struct {
	Name         string       `yaml:"name"`
	Seed         int64        `yaml:"seed"`
	MaxSteps     int          `yaml:"max_steps"`
	Grid         GridConfig   `yaml:"grid"`
	Exit         Point        `yaml:"exit"`
	Walls        []Point      `yaml:"walls"`
	WallRects    []Rect       `yaml:"wall_rects"`
	Agents       []Point      `yaml:"agents"`
	RandomAgents int          `yaml:"random_agents"`
	Params       ParamsConfig `yaml:"params"`
}

type GridConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Point is written as a two element sequence, [x, y].
type Point [2]int

func (p Point) Pos() evac.Pos { return evac.Pos{X: p[0], Y: p[1]} }

// Rect is an inclusive block of wall cells.
type Rect struct {
	X0 int `yaml:"x0"`
	Y0 int `yaml:"y0"`
	X1 int `yaml:"x1"`
	Y1 int `yaml:"y1"`
}

func (r Rect) Cells() []evac.Pos {
	x0, x1 := min(r.X0, r.X1), max(r.X0, r.X1)
	y0, y1 := min(r.Y0, r.Y1), max(r.Y0, r.Y1)
	out := make([]evac.Pos, 0, (x1-x0+1)*(y1-y0+1))
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			out = append(out, evac.Pos{X: x, Y: y})
		}
	}
	return out
}

type ParamsConfig struct {
	Alpha         float64 `yaml:"alpha"`
	Beta          float64 `yaml:"beta"`
	Gamma         float64 `yaml:"gamma"`
	Mu            float64 `yaml:"mu"`
	Period        float64 `yaml:"period"`
	Strength      float64 `yaml:"strength"`
	LateralWeight float64 `yaml:"lateral_weight"`
	ChainDepth    int     `yaml:"chain_depth"`
}

func (c ParamsConfig) Engine() evac.Params {
	return evac.Params{
		Alpha:         c.Alpha,
		Beta:          c.Beta,
		Gamma:         c.Gamma,
		Mu:            c.Mu,
		Period:        c.Period,
		Strength:      c.Strength,
		LateralWeight: c.LateralWeight,
		ChainDepth:    c.ChainDepth,
	}
}

const DefaultMaxSteps = 1000

// Default is the scenario every document is decoded on top of, so fields
// missing from the file keep these values.
func Default() *Scenario {
	p := evac.DefaultParams()
	return &Scenario{
		Seed:     1,
		MaxSteps: DefaultMaxSteps,
		Params: ParamsConfig{
			Alpha:         p.Alpha,
			Beta:          p.Beta,
			Gamma:         p.Gamma,
			Mu:            p.Mu,
			Period:        p.Period,
			Strength:      p.Strength,
			LateralWeight: p.LateralWeight,
			ChainDepth:    p.ChainDepth,
		},
	}
}

// WallCells lists explicit walls followed by the cells of every rectangle.
func (s *Scenario) WallCells() []evac.Pos {
	out := make([]evac.Pos, 0, len(s.Walls))
	for _, w := range s.Walls {
		out = append(out, w.Pos())
	}
	for _, r := range s.WallRects {
		out = append(out, r.Cells()...)
	}
	return out
}

// Build initializes and populates a simulation. Options are applied after
// the scenario's own seed and walls, so a caller's WithSeed wins.
func (s *Scenario) Build(opts ...evac.Option) (*evac.Simulation, error) {
	base := []evac.Option{evac.WithSeed(s.Seed), evac.WithWalls(s.WallCells()...)}
	sim, err := evac.New(s.Grid.Width, s.Grid.Height, s.Exit.Pos(), s.Params.Engine(), append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	agents := make([]evac.Pos, len(s.Agents))
	for i, a := range s.Agents {
		agents[i] = a.Pos()
	}
	if err := sim.Populate(agents); err != nil {
		return nil, err
	}
	if s.RandomAgents > 0 {
		if err := sim.PopulateRandom(s.RandomAgents); err != nil {
			return nil, err
		}
	}
	return sim, nil
}
