package evac

import (
	"fmt"
	"math"
)

// Params are the model constants.
type Params struct {
	Alpha  float64 `json:"alpha"`  // attraction to the exit, >= 0
	Beta   float64 `json:"beta"`   // crowding aversion, [0,1]
	Gamma  float64 `json:"gamma"`  // anticipation aversion, [0,1]
	Mu     float64 `json:"mu"`     // probability nobody wins a contested cell, [0,1]
	Period float64 `json:"period"` // time cost of an orthogonal step, > 0

	Strength      float64 `json:"strength"`       // scale of the potential field
	LateralWeight float64 `json:"lateral_weight"` // cost of lateral offset from the exit axis
	ChainDepth    int     `json:"chain_depth"`    // releases allowed behind one move
}

func DefaultParams() Params {
	return Params{
		Alpha:         1,
		Beta:          1,
		Gamma:         1,
		Mu:            0.2,
		Period:        1,
		Strength:      10,
		LateralWeight: 10,
		ChainDepth:    4,
	}
}

func (p Params) Validate() error {
	unit := func(name string, v float64) error {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("%w: %s=%v not in [0,1]", ErrInvalidParameter, name, v)
		}
		return nil
	}
	nonNeg := func(name string, v float64) error {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %s=%v must be a finite value >= 0", ErrInvalidParameter, name, v)
		}
		return nil
	}
	if err := nonNeg("alpha", p.Alpha); err != nil {
		return err
	}
	for _, c := range []struct {
		name string
		v    float64
	}{{"beta", p.Beta}, {"gamma", p.Gamma}, {"mu", p.Mu}} {
		if err := unit(c.name, c.v); err != nil {
			return err
		}
	}
	if math.IsNaN(p.Period) || math.IsInf(p.Period, 0) || p.Period <= 0 {
		return fmt.Errorf("%w: period=%v must be > 0", ErrInvalidParameter, p.Period)
	}
	if err := nonNeg("strength", p.Strength); err != nil {
		return err
	}
	if err := nonNeg("lateral_weight", p.LateralWeight); err != nil {
		return err
	}
	if p.ChainDepth < 0 {
		return fmt.Errorf("%w: chain_depth=%d must be >= 0", ErrInvalidParameter, p.ChainDepth)
	}
	return nil
}
