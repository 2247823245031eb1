package main

import (
	"context"
	"log/slog"
	"sync"

	"evacsim/internal/config"
	"evacsim/internal/evac"
	"evacsim/internal/indexdb"
	"evacsim/internal/report"
	"evacsim/internal/util"
)

// runBatch runs o.n simulations of sc on a worker pool. Run i uses seed
// util.Derive(sc.Seed, i), so the batch is reproducible for any worker count.
func runBatch(ctx context.Context, sc *config.Scenario, o options) (report.Summary, error) {
	var idx *indexdb.SQLiteIndex
	var batchID string
	if o.index != "" {
		var err error
		if idx, err = indexdb.OpenSQLite(o.index); err != nil {
			return report.Summary{}, err
		}
		defer idx.Close()
		batchID, err = idx.BeginBatch(ctx, indexdb.Batch{
			Scenario: sc.Name,
			BaseSeed: sc.Seed,
			Runs:     o.n,
			Params:   sc.Params.Engine(),
		})
		if err != nil {
			return report.Summary{}, err
		}
		slog.Info("indexing batch", "db", o.index, "batch", batchID)
	}

	agg := report.NewAggregator(o.n)
	var mu sync.Mutex
	var firstErr error
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	workers := max(1, min(o.workers, o.n))
	wg := sync.WaitGroup{}
	jobs := make(chan int, o.n)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					return
				}
				seed := util.Derive(sc.Seed, i)
				sim, err := sc.Build(evac.WithSeed(seed))
				if err != nil {
					fail(err)
					return
				}
				res := sim.Run(sc.MaxSteps)
				agg.Add(i, res)
				slog.Debug("run finished", "worker", workerID, "run", i, "seed", seed, "steps", res.Steps, "done", res.Done)

				if idx != nil {
					run := indexdb.Run{
						BatchID:   batchID,
						Index:     i,
						Seed:      seed,
						Steps:     res.Steps,
						Evacuated: res.Evacuated,
						Remaining: res.Remaining,
						Done:      res.Done,
						Time:      res.Time,
					}
					if _, err := idx.RecordRun(ctx, run, res.Curve); err != nil {
						fail(err)
						return
					}
				}
			}
		}(w)
	}
	for i := 0; i < o.n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return report.Summary{}, firstErr
	}
	if err := ctx.Err(); err != nil {
		return report.Summary{}, err
	}
	return agg.Summary(sc.Name), nil
}
