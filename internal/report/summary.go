package report

import (
	"math"
	"sort"
	"sync"

	"evacsim/internal/evac"
)

// Summary condenses a batch of runs of one scenario.
type Summary struct {
	Scenario  string  `json:"scenario"`
	Runs      int     `json:"runs"`
	Finished  int     `json:"finished"`
	MeanSteps float64 `json:"mean_steps"`
	MinSteps  int     `json:"min_steps"`
	MaxSteps  int     `json:"max_steps"`
	P50Steps  int     `json:"p50_steps"`
	P90Steps  int     `json:"p90_steps"`
	MeanTime  float64 `json:"mean_time"`
	// MeanCurve[i] averages the occupants left after i steps; runs that
	// ended early contribute their final count.
	MeanCurve []float64 `json:"mean_curve"`
}

// Summarize aggregates results. Step statistics only cover runs that
// emptied the room.
func Summarize(scenario string, results []evac.Result) Summary {
	s := Summary{Scenario: scenario, Runs: len(results)}
	var steps []int
	longest := 0
	sumSteps, sumTime := 0, 0.0
	for _, r := range results {
		longest = max(longest, len(r.Curve))
		if !r.Done {
			continue
		}
		s.Finished++
		steps = append(steps, r.Steps)
		sumSteps += r.Steps
		sumTime += r.Time
	}
	if s.Finished > 0 {
		sort.Ints(steps)
		s.MeanSteps = float64(sumSteps) / float64(s.Finished)
		s.MeanTime = sumTime / float64(s.Finished)
		s.MinSteps = steps[0]
		s.MaxSteps = steps[len(steps)-1]
		s.P50Steps = percentile(steps, 0.5)
		s.P90Steps = percentile(steps, 0.9)
	}
	if len(results) == 0 {
		return s
	}
	s.MeanCurve = make([]float64, longest)
	for _, r := range results {
		if len(r.Curve) == 0 {
			continue
		}
		for i := range s.MeanCurve {
			v := r.Curve[len(r.Curve)-1]
			if i < len(r.Curve) {
				v = r.Curve[i]
			}
			s.MeanCurve[i] += float64(v)
		}
	}
	for i := range s.MeanCurve {
		s.MeanCurve[i] /= float64(len(results))
	}
	return s
}

// percentile uses the nearest-rank method on sorted values.
func percentile(sorted []int, q float64) int {
	rank := int(math.Ceil(q*float64(len(sorted)))) - 1
	rank = max(0, min(rank, len(sorted)-1))
	return sorted[rank]
}

// Aggregator collects results from concurrent workers. Results are kept by
// run index so the summary does not depend on completion order.
type Aggregator struct {
	mu      sync.Mutex
	results []evac.Result
	seen    []bool
}

func NewAggregator(runs int) *Aggregator {
	return &Aggregator{results: make([]evac.Result, runs), seen: make([]bool, runs)}
}

func (a *Aggregator) Add(i int, r evac.Result) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.results[i] = r
	a.seen[i] = true
}

func (a *Aggregator) Summary(scenario string) Summary {
	a.mu.Lock()
	defer a.mu.Unlock()
	var rs []evac.Result
	for i, ok := range a.seen {
		if ok {
			rs = append(rs, a.results[i])
		}
	}
	return Summarize(scenario, rs)
}
