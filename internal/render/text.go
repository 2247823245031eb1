// Package render draws frames for people: plain text for logs and pipes,
// and a tcell terminal viewer.
package render

import (
	"fmt"
	"io"
	"strings"

	"evacsim/internal/record"
)

// WriteText prints a status line followed by the grid rows.
func WriteText(w io.Writer, f record.Frame) error {
	_, err := fmt.Fprintf(w, "step %d  t=%.1f  remaining %d  evacuated %d\n%s\n",
		f.Step, f.T, f.Remaining, f.Evacuated, strings.Join(f.Cells, "\n"))
	return err
}
