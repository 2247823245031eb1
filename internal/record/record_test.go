package record

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"

	"evacsim/internal/evac"
)

func newSim(t *testing.T) *evac.Simulation {
	t.Helper()
	s, err := evac.New(13, 7, evac.Pos{X: 12, Y: 3}, evac.DefaultParams(), evac.WithSeed(8))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.PopulateRandom(15); err != nil {
		t.Fatalf("PopulateRandom: %v", err)
	}
	return s
}

func TestWriterReader_RecordsARun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs", "room.jsonl.zst")
	s := newSim(t)
	w, err := Create(path, Header{Scenario: "room", Seed: 8, Width: 13, Height: 7, Exit: evac.Pos{X: 12, Y: 3}, Agents: 15, Params: s.Params()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	want := []Frame{FrameOf(s)}
	if err := w.WriteFrame(want[0]); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	for i := 0; i < 30 && !s.IsDone(); i++ {
		s.Step()
		f := FrameOf(s)
		want = append(want, f)
		if err := w.WriteFrame(f); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}
	if w.Frames() != len(want) {
		t.Fatalf("Frames()=%d want %d", w.Frames(), len(want))
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	h, got, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if h.Version != Version || h.Scenario != "room" || h.Params != s.Params() {
		t.Fatalf("header=%+v", h)
	}
	if len(got) != len(want) {
		t.Fatalf("read %d frames want %d", len(got), len(want))
	}
	last := got[len(got)-1]
	snap, err := last.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.String() != s.Snapshot().String() || last.Remaining != s.Remaining() || last.Step != s.Steps() {
		t.Fatalf("last frame does not match the simulation:\n%s\n\n%s", snap, s.Snapshot())
	}
}

func TestWriter_OutputIsZstd(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, Header{Scenario: "x"})
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.WriteFrame(Frame{Step: 1, Cells: []string{"..E"}}); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	dec, err := zstd.NewReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("zstd: %v", err)
	}
	defer dec.Close()
	plain, err := io.ReadAll(dec)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if n := bytes.Count(plain, []byte("\n")); n != 2 {
		t.Fatalf("%d lines want 2:\n%s", n, plain)
	}
	if err := w.WriteFrame(Frame{}); err == nil {
		t.Fatal("write after Close should fail")
	}
}

func TestReader_RejectsMissingHeader(t *testing.T) {
	var buf bytes.Buffer
	enc, _ := zstd.NewWriter(&buf)
	_, _ = enc.Write([]byte(`{"frame":{"step":1,"cells":["."]}}` + "\n"))
	_ = enc.Close()
	if _, err := NewReader(bytes.NewReader(buf.Bytes())); !errors.Is(err, ErrNoHeader) {
		t.Fatalf("err=%v want ErrNoHeader", err)
	}

	buf.Reset()
	enc, _ = zstd.NewWriter(&buf)
	_ = enc.Close()
	if _, err := NewReader(bytes.NewReader(buf.Bytes())); !errors.Is(err, ErrNoHeader) {
		t.Fatalf("empty stream err=%v want ErrNoHeader", err)
	}
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.jsonl.zst"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err=%v", err)
	}
}
