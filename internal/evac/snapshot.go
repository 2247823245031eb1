package evac

import (
	"fmt"
	"strings"
)

// Code is the per-cell value handed to renderers.
type Code uint8

const (
	CodeFloor Code = iota
	CodeOccupied
	CodeWall
	CodeExit
)

var glyphs = [...]byte{CodeFloor: '.', CodeOccupied: 'o', CodeWall: '#', CodeExit: 'E'}

func (c Code) Glyph() byte {
	if int(c) < len(glyphs) {
		return glyphs[c]
	}
	return '?'
}

// Snapshot is a read-only copy of the grid, indexed [y][x].
type Snapshot [][]Code

func (s Snapshot) Width() int {
	if len(s) == 0 {
		return 0
	}
	return len(s[0])
}

func (s Snapshot) Height() int { return len(s) }

func (s Snapshot) At(p Pos) Code { return s[p.Y][p.X] }

// Occupants counts occupied cells.
func (s Snapshot) Occupants() int {
	n := 0
	for _, row := range s {
		for _, c := range row {
			if c == CodeOccupied {
				n++
			}
		}
	}
	return n
}

// Rows renders one string per grid row using Code glyphs.
func (s Snapshot) Rows() []string {
	out := make([]string, len(s))
	for y, row := range s {
		b := make([]byte, len(row))
		for x, c := range row {
			b[x] = c.Glyph()
		}
		out[y] = string(b)
	}
	return out
}

func (s Snapshot) String() string { return strings.Join(s.Rows(), "\n") }

// ParseRows is the inverse of Rows.
func ParseRows(rows []string) (Snapshot, error) {
	s := make(Snapshot, len(rows))
	for y, r := range rows {
		if y > 0 && len(r) != len(rows[0]) {
			return nil, fmt.Errorf("row %d has width %d, want %d", y, len(r), len(rows[0]))
		}
		s[y] = make([]Code, len(r))
		for x := 0; x < len(r); x++ {
			switch r[x] {
			case '.':
				s[y][x] = CodeFloor
			case 'o':
				s[y][x] = CodeOccupied
			case '#':
				s[y][x] = CodeWall
			case 'E':
				s[y][x] = CodeExit
			default:
				return nil, fmt.Errorf("row %d col %d: unknown glyph %q", y, x, r[x])
			}
		}
	}
	return s, nil
}
