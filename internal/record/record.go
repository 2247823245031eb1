// Package record stores a run as zstd-compressed JSON lines: one header
// line followed by one frame per step.
package record

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"evacsim/internal/evac"
)

const Version = 1

var ErrNoHeader = errors.New("record: missing header line")

type Header struct {
	Version  int         `json:"version"`
	RunID    string      `json:"run_id,omitempty"`
	Scenario string      `json:"scenario"`
	Seed     int64       `json:"seed"`
	Width    int         `json:"width"`
	Height   int         `json:"height"`
	Exit     evac.Pos    `json:"exit"`
	Agents   int         `json:"agents"`
	Params   evac.Params `json:"params"`
}

// Frame is the state after a step. Cells holds one glyph row per grid row.
type Frame struct {
	Step      int      `json:"step"`
	T         float64  `json:"t"`
	Remaining int      `json:"remaining"`
	Evacuated int      `json:"evacuated"`
	Cells     []string `json:"cells"`
}

// FrameOf captures the current state of s.
func FrameOf(s *evac.Simulation) Frame {
	return Frame{
		Step:      s.Steps(),
		T:         s.Time(),
		Remaining: s.Remaining(),
		Evacuated: s.Evacuated(),
		Cells:     s.Snapshot().Rows(),
	}
}

// Snapshot decodes the frame's cells.
func (f Frame) Snapshot() (evac.Snapshot, error) { return evac.ParseRows(f.Cells) }

type line struct {
	Header *Header `json:"header,omitempty"`
	Frame  *Frame  `json:"frame,omitempty"`
}

type Writer struct {
	mu     sync.Mutex
	f      *os.File
	enc    *zstd.Encoder
	w      *bufio.Writer
	frames int
}

// Create opens path (creating parent directories) and writes the header.
func Create(path string, h Header) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(f, h)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w.f = f
	return w, nil
}

// NewWriter writes the header to out. Closing the Writer does not close out.
func NewWriter(out io.Writer, h Header) (*Writer, error) {
	enc, err := zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, err
	}
	if h.Version == 0 {
		h.Version = Version
	}
	w := &Writer{enc: enc, w: bufio.NewWriterSize(enc, 128*1024)}
	if err := w.writeLine(line{Header: &h}); err != nil {
		_ = enc.Close()
		return nil, err
	}
	return w, nil
}

func (w *Writer) WriteFrame(f Frame) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.writeLine(line{Frame: &f}); err != nil {
		return err
	}
	w.frames++
	return nil
}

// Frames is the number of frames written so far.
func (w *Writer) Frames() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frames
}

func (w *Writer) writeLine(l line) error {
	if w.w == nil {
		return errors.New("record: writer closed")
	}
	b, err := json.Marshal(l)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var err error
	if w.w != nil {
		err = w.w.Flush()
		w.w = nil
	}
	if w.enc != nil {
		if cerr := w.enc.Close(); err == nil {
			err = cerr
		}
		w.enc = nil
	}
	if w.f != nil {
		if cerr := w.f.Close(); err == nil {
			err = cerr
		}
		w.f = nil
	}
	return err
}

type Reader struct {
	f      *os.File
	dec    *zstd.Decoder
	sc     *bufio.Scanner
	header Header
}

func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	r.f = f
	return r, nil
}

// NewReader decompresses in and reads the header line.
func NewReader(in io.Reader) (*Reader, error) {
	dec, err := zstd.NewReader(in)
	if err != nil {
		return nil, err
	}
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	r := &Reader{dec: dec, sc: sc}

	l, err := r.next()
	if err != nil {
		dec.Close()
		if err == io.EOF {
			return nil, ErrNoHeader
		}
		return nil, err
	}
	if l.Header == nil {
		dec.Close()
		return nil, ErrNoHeader
	}
	r.header = *l.Header
	return r, nil
}

func (r *Reader) Header() Header { return r.header }

// Next returns the following frame, or io.EOF after the last one.
func (r *Reader) Next() (Frame, error) {
	l, err := r.next()
	if err != nil {
		return Frame{}, err
	}
	if l.Frame == nil {
		return Frame{}, fmt.Errorf("record: line without frame")
	}
	return *l.Frame, nil
}

func (r *Reader) next() (line, error) {
	var l line
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return l, err
		}
		return l, io.EOF
	}
	if err := json.Unmarshal(r.sc.Bytes(), &l); err != nil {
		return l, fmt.Errorf("record: decode line: %w", err)
	}
	return l, nil
}

func (r *Reader) Close() error {
	r.dec.Close()
	if r.f != nil {
		return r.f.Close()
	}
	return nil
}

// ReadAll loads a whole recording.
func ReadAll(path string) (Header, []Frame, error) {
	r, err := Open(path)
	if err != nil {
		return Header{}, nil, err
	}
	defer r.Close()
	var frames []Frame
	for {
		f, err := r.Next()
		if err == io.EOF {
			return r.header, frames, nil
		}
		if err != nil {
			return r.header, frames, err
		}
		frames = append(frames, f)
	}
}
