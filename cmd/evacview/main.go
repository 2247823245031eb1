package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/gdamore/tcell/v2"

	"evacsim/internal/config"
	"evacsim/internal/record"
	"evacsim/internal/render"
	"evacsim/internal/util"
)

func main() {
	var (
		scenarioPath = flag.String("scenario", "scenarios/room.yaml", "scenario file to simulate live")
		replayPath   = flag.String("replay", "", "play back a recording instead of simulating")
		recordPath   = flag.String("record", "", "also record the live run to this file")
		seed         = flag.Int64("seed", 0, "seed (0 = scenario seed)")
		interval     = flag.Duration("interval", 150*time.Millisecond, "time between frames")
		logPath      = flag.String("logfile", "", "debug log file (the terminal is taken by the viewer)")
	)
	flag.Parse()

	logOut := os.Stderr
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			slog.Error("open log file", "err", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	slog.SetDefault(util.NewLogger(logOut, *logPath != ""))

	src, title, closeSrc, err := openSource(*scenarioPath, *replayPath, *recordPath, *seed)
	if err != nil {
		slog.Error("open source", "err", err)
		os.Exit(1)
	}
	defer closeSrc()

	screen, err := tcell.NewScreen()
	if err != nil {
		slog.Error("create screen", "err", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		slog.Error("init screen", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	v := render.NewViewer(screen, src, title, *interval)
	err = v.Run(ctx)
	screen.Fini()
	if err != nil {
		slog.Error("viewer", "err", err)
		os.Exit(1)
	}
	f := v.Frame()
	slog.Info("viewer closed", "title", title, "step", f.Step, "remaining", f.Remaining, "evacuated", f.Evacuated)
}

func openSource(scenarioPath, replayPath, recordPath string, seed int64) (record.Source, string, func(), error) {
	if replayPath != "" {
		r, err := record.Open(replayPath)
		if err != nil {
			return nil, "", nil, err
		}
		title := r.Header().Scenario + " (replay)"
		return record.NewReplay(r), title, func() { _ = r.Close() }, nil
	}

	sc, err := config.Load(scenarioPath)
	if err != nil {
		return nil, "", nil, err
	}
	if seed != 0 {
		sc.Seed = seed
	}
	sim, err := sc.Build()
	if err != nil {
		return nil, "", nil, err
	}
	var src record.Source = record.NewLive(sim, sc.MaxSteps)
	if recordPath == "" {
		return src, sc.Name, func() {}, nil
	}
	w, err := record.Create(recordPath, record.Header{
		Scenario: sc.Name,
		Seed:     sc.Seed,
		Width:    sc.Grid.Width,
		Height:   sc.Grid.Height,
		Exit:     sc.Exit.Pos(),
		Agents:   sim.Remaining(),
		Params:   sim.Params(),
	})
	if err != nil {
		return nil, "", nil, err
	}
	closeW := func() {
		if err := w.Close(); err != nil {
			slog.Error("close recording", "path", recordPath, "err", err)
		}
	}
	return record.Tee(src, w), sc.Name, closeW, nil
}
