package render

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"evacsim/internal/evac"
	"evacsim/internal/record"
)

var (
	styleFloor  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleWall   = tcell.StyleDefault.Foreground(tcell.ColorSilver)
	styleExit   = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	styleAgent  = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleStatus = tcell.StyleDefault.Foreground(tcell.ColorWhite).Reverse(true)
	styleHelp   = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

var cellRunes = map[byte]rune{
	evac.CodeFloor.Glyph():    '·',
	evac.CodeWall.Glyph():     '█',
	evac.CodeExit.Glyph():     'E',
	evac.CodeOccupied.Glyph(): 'o',
}

// Viewer shows a frame source on a terminal. Space pauses, n steps once
// while paused, q or Esc quits.
type Viewer struct {
	screen   tcell.Screen
	src      record.Source
	title    string
	interval time.Duration

	frame  record.Frame
	paused bool
	done   bool
}

func NewViewer(screen tcell.Screen, src record.Source, title string, interval time.Duration) *Viewer {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	return &Viewer{screen: screen, src: src, title: title, interval: interval}
}

func (v *Viewer) Frame() record.Frame { return v.frame }
func (v *Viewer) Paused() bool        { return v.paused }
func (v *Viewer) Done() bool          { return v.done }

// Advance pulls the next frame. It reports false once the source is spent.
func (v *Viewer) Advance() (bool, error) {
	if v.done {
		return false, nil
	}
	f, ok, err := v.src.Next()
	if err != nil {
		v.done = true
		return false, err
	}
	if !ok {
		v.done = true
		return false, nil
	}
	v.frame = f
	return true, nil
}

// Handle applies one terminal event and reports whether the viewer should
// keep running.
func (v *Viewer) Handle(ev tcell.Event) (bool, error) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false, nil
		}
		if ev.Key() != tcell.KeyRune {
			return true, nil
		}
		switch ev.Rune() {
		case 'q':
			return false, nil
		case ' ':
			v.paused = !v.paused
		case 'n':
			if v.paused {
				if _, err := v.Advance(); err != nil {
					return false, err
				}
			}
		}
	case *tcell.EventResize:
		v.screen.Sync()
	}
	return true, nil
}

func (v *Viewer) Draw() {
	v.screen.Clear()
	state := "running"
	switch {
	case v.done:
		state = "finished"
	case v.paused:
		state = "paused"
	}
	status := fmt.Sprintf(" %s  step %d  t=%.1f  remaining %d  evacuated %d  [%s] ",
		v.title, v.frame.Step, v.frame.T, v.frame.Remaining, v.frame.Evacuated, state)
	v.puts(0, 0, status, styleStatus)

	for y, row := range v.frame.Cells {
		for x := 0; x < len(row); x++ {
			r, ok := cellRunes[row[x]]
			if !ok {
				r = '?'
			}
			v.screen.SetContent(x, y+1, r, nil, styleFor(row[x]))
		}
	}
	v.puts(0, len(v.frame.Cells)+2, "space pause  n step  q quit", styleHelp)
	v.screen.Show()
}

func styleFor(glyph byte) tcell.Style {
	switch glyph {
	case evac.CodeWall.Glyph():
		return styleWall
	case evac.CodeExit.Glyph():
		return styleExit
	case evac.CodeOccupied.Glyph():
		return styleAgent
	}
	return styleFloor
}

func (v *Viewer) puts(x, y int, s string, style tcell.Style) {
	for _, r := range s {
		v.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// Run draws the first frame and then advances once per interval until the
// user quits or ctx ends. A finished run stays on screen until quit.
func (v *Viewer) Run(ctx context.Context) error {
	if _, err := v.Advance(); err != nil {
		return err
	}
	v.Draw()

	events := make(chan tcell.Event, 16)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			select {
			case <-done:
				return
			default:
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			keep, err := v.Handle(ev)
			if err != nil {
				return err
			}
			if !keep {
				return nil
			}
			v.Draw()
		case <-ticker.C:
			if v.paused || v.done {
				continue
			}
			if _, err := v.Advance(); err != nil {
				return err
			}
			v.Draw()
		}
	}
}
