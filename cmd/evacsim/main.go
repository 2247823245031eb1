package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"evacsim/internal/config"
	"evacsim/internal/evac"
	"evacsim/internal/record"
	"evacsim/internal/render"
	"evacsim/internal/report"
	"evacsim/internal/util"
)

type options struct {
	scenario string
	out      string
	seed     int64
	n        int
	workers  int
	maxSteps int
	saveLog  bool
	record   string
	plot     string
	index    string
	ascii    bool
}

func main() {
	var o options
	var verbose bool
	flag.StringVar(&o.scenario, "scenario", "scenarios/room.yaml", "scenario file")
	flag.StringVar(&o.out, "out", "out.json", "output file (single) or summary file (batch)")
	flag.Int64Var(&o.seed, "seed", 0, "seed (0 = scenario seed)")
	flag.IntVar(&o.n, "n", 1, "number of simulations")
	flag.IntVar(&o.workers, "workers", 8, "batch workers")
	flag.IntVar(&o.maxSteps, "max-steps", 0, "step cap (0 = scenario max_steps)")
	flag.BoolVar(&o.saveLog, "log", false, "save the engine event log when n==1")
	flag.StringVar(&o.record, "record", "", "write frames to this .jsonl.zst file when n==1")
	flag.StringVar(&o.plot, "plot", "", "write the evacuation curve PNG here")
	flag.StringVar(&o.index, "index", "", "SQLite file indexing batch runs")
	flag.BoolVar(&o.ascii, "ascii", false, "print every frame to stdout when n==1")
	flag.BoolVar(&verbose, "v", false, "debug logging")
	flag.Parse()

	logger := util.NewLogger(os.Stderr, verbose)
	slog.SetDefault(logger)

	sc, err := config.Load(o.scenario)
	if err != nil {
		fatal("load scenario", err)
	}
	if o.seed != 0 {
		sc.Seed = o.seed
	}
	if o.maxSteps > 0 {
		sc.MaxSteps = o.maxSteps
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if o.n <= 1 {
		res, err := runSingle(sc, o)
		if err != nil {
			fatal("run", err)
		}
		if err := os.WriteFile(o.out, evac.MarshalPretty(res), 0644); err != nil {
			fatal("write result", err)
		}
		if o.plot != "" {
			if err := report.SaveCurvePNG(o.plot, sc.Name, report.IntSeries(sc.Name, res.Curve)); err != nil {
				fatal("plot", err)
			}
		}
		slog.Info("single run finished",
			"scenario", sc.Name, "seed", sc.Seed, "done", res.Done,
			"steps", res.Steps, "time", res.Time, "evacuated", res.Evacuated, "out", o.out)
		return
	}

	sum, err := runBatch(ctx, sc, o)
	if err != nil {
		fatal("batch", err)
	}
	if err := os.WriteFile(o.out, evac.MarshalPretty(sum), 0644); err != nil {
		fatal("write summary", err)
	}
	if o.plot != "" && len(sum.MeanCurve) > 0 {
		s := report.Series{Name: fmt.Sprintf("mean of %d runs", sum.Runs), Values: sum.MeanCurve}
		if err := report.SaveCurvePNG(o.plot, sc.Name, s); err != nil {
			fatal("plot", err)
		}
	}
	slog.Info("batch finished",
		"scenario", sc.Name, "runs", sum.Runs, "finished", sum.Finished,
		"mean_steps", sum.MeanSteps, "min_steps", sum.MinSteps, "max_steps", sum.MaxSteps, "out", o.out)
}

// runSingle steps one simulation frame by frame so it can be recorded and
// printed as it goes.
func runSingle(sc *config.Scenario, o options) (evac.Result, error) {
	var events []evac.Event
	var opts []evac.Option
	if o.saveLog {
		opts = append(opts, evac.WithEmit(func(ev evac.Event) { events = append(events, ev) }))
	}
	sim, err := sc.Build(opts...)
	if err != nil {
		return evac.Result{}, err
	}

	var src record.Source = record.NewLive(sim, sc.MaxSteps)
	if o.record != "" {
		w, err := record.Create(o.record, header(sc, sim))
		if err != nil {
			return evac.Result{}, err
		}
		defer func() {
			if err := w.Close(); err != nil {
				slog.Error("close recording", "path", o.record, "err", err)
			}
		}()
		src = record.Tee(src, w)
	}

	var curve []int
	for {
		f, ok, err := src.Next()
		if err != nil {
			return evac.Result{}, err
		}
		if !ok {
			break
		}
		curve = append(curve, f.Remaining)
		if o.ascii {
			if err := render.WriteText(os.Stdout, f); err != nil {
				return evac.Result{}, err
			}
		}
	}
	return evac.Result{
		Steps:     sim.Steps(),
		Evacuated: sim.Evacuated(),
		Remaining: sim.Remaining(),
		Done:      sim.IsDone(),
		Time:      sim.Time(),
		Curve:     curve,
		Events:    events,
	}, nil
}

func header(sc *config.Scenario, sim *evac.Simulation) record.Header {
	return record.Header{
		Scenario: sc.Name,
		Seed:     sc.Seed,
		Width:    sc.Grid.Width,
		Height:   sc.Grid.Height,
		Exit:     sc.Exit.Pos(),
		Agents:   sim.Remaining(),
		Params:   sim.Params(),
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}
