package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"

	"evacsim/internal/config"
	"evacsim/internal/record"
	"evacsim/internal/stream"
	"evacsim/internal/util"
)

func main() {
	var (
		addr         = flag.String("addr", ":8080", "listen address")
		scenarioPath = flag.String("scenario", "scenarios/room.yaml", "scenario file")
		seed         = flag.Int64("seed", 0, "seed (0 = scenario seed)")
		interval     = flag.Duration("interval", 200*time.Millisecond, "time between frames")
		waitClient   = flag.Bool("wait", true, "hold the run until the first client connects")
		linger       = flag.Duration("linger", 30*time.Second, "keep serving this long after the run ends")
		verbose      = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	logger := util.NewLogger(os.Stderr, *verbose)
	slog.SetDefault(logger)

	sc, err := config.Load(*scenarioPath)
	if err != nil {
		fatal("load scenario", err)
	}
	if *seed != 0 {
		sc.Seed = *seed
	}
	sim, err := sc.Build()
	if err != nil {
		fatal("build scenario", err)
	}

	header := record.Header{
		Version:  record.Version,
		RunID:    uuid.NewString(),
		Scenario: sc.Name,
		Seed:     sc.Seed,
		Width:    sc.Grid.Width,
		Height:   sc.Grid.Height,
		Exit:     sc.Exit.Pos(),
		Agents:   sim.Remaining(),
		Params:   sim.Params(),
	}
	hub := stream.NewHub(header, logger.With("run", header.RunID))

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.Handler())
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"header":  header,
			"clients": hub.Clients(),
		})
	})
	srv := &http.Server{Addr: *addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		slog.Info("serving", "addr", *addr, "scenario", sc.Name, "agents", header.Agents)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("listen", "err", err)
			stop()
		}
	}()

	if *waitClient && !waitForClient(ctx, hub) {
		shutdown(srv)
		return
	}
	err = stream.Pump(ctx, record.NewLive(sim, sc.MaxSteps), hub, *interval)
	switch {
	case errors.Is(err, context.Canceled):
		slog.Info("run interrupted", "step", sim.Steps())
	case err != nil:
		slog.Error("pump", "err", err)
	default:
		slog.Info("run finished", "steps", sim.Steps(), "evacuated", sim.Evacuated(), "done", sim.IsDone())
		select {
		case <-ctx.Done():
		case <-time.After(*linger):
		}
	}
	shutdown(srv)
}

func waitForClient(ctx context.Context, hub *stream.Hub) bool {
	t := time.NewTicker(50 * time.Millisecond)
	defer t.Stop()
	for hub.Clients() == 0 {
		select {
		case <-ctx.Done():
			return false
		case <-t.C:
		}
	}
	return true
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown", "err", err)
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}
