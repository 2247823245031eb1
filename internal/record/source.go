package record

import (
	"io"

	"evacsim/internal/evac"
)

// Source yields frames in step order. ok is false once the run is over.
type Source interface {
	Next() (f Frame, ok bool, err error)
}

// Live steps a simulation. The first frame is the initial state; the
// source ends when the room is empty or maxSteps rounds have run
// (maxSteps <= 0 means no cap).
type Live struct {
	Sim      *evac.Simulation
	MaxSteps int
	started  bool
}

func NewLive(sim *evac.Simulation, maxSteps int) *Live {
	return &Live{Sim: sim, MaxSteps: maxSteps}
}

func (l *Live) Next() (Frame, bool, error) {
	if !l.started {
		l.started = true
		return FrameOf(l.Sim), true, nil
	}
	if l.Sim.IsDone() || (l.MaxSteps > 0 && l.Sim.Steps() >= l.MaxSteps) {
		return Frame{}, false, nil
	}
	l.Sim.Step()
	return FrameOf(l.Sim), true, nil
}

// Replay reads frames back from a recording.
type Replay struct{ r *Reader }

func NewReplay(r *Reader) *Replay { return &Replay{r: r} }

func (p *Replay) Header() Header { return p.r.Header() }

func (p *Replay) Next() (Frame, bool, error) {
	f, err := p.r.Next()
	if err == io.EOF {
		return Frame{}, false, nil
	}
	if err != nil {
		return Frame{}, false, err
	}
	return f, true, nil
}

type tee struct {
	src Source
	w   *Writer
}

// Tee writes every frame src yields to w.
func Tee(src Source, w *Writer) Source { return &tee{src: src, w: w} }

func (t *tee) Next() (Frame, bool, error) {
	f, ok, err := t.src.Next()
	if err != nil || !ok {
		return f, ok, err
	}
	if err := t.w.WriteFrame(f); err != nil {
		return f, false, err
	}
	return f, true, nil
}
