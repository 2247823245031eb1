package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Series is one evacuation curve: occupants left after each step.
type Series struct {
	Name   string
	Values []float64
}

func IntSeries(name string, curve []int) Series {
	v := make([]float64, len(curve))
	for i, n := range curve {
		v[i] = float64(n)
	}
	return Series{Name: name, Values: v}
}

var palette = []drawing.Color{
	chart.ColorBlue,
	chart.ColorRed,
	chart.ColorGreen,
	{R: 255, G: 165, B: 0, A: 255},
	chart.ColorBlack,
}

// WriteCurvePNG renders the series as a line chart of remaining occupants
// against step.
func WriteCurvePNG(w io.Writer, title string, series ...Series) error {
	if len(series) == 0 {
		return fmt.Errorf("plot: no series")
	}
	longest, top := 0, 0.0
	for _, s := range series {
		longest = max(longest, len(s.Values))
		for _, v := range s.Values {
			top = max(top, v)
		}
	}
	if longest == 0 {
		return fmt.Errorf("plot: empty series")
	}

	out := make([]chart.Series, 0, len(series))
	for i, s := range series {
		xs := make([]float64, len(s.Values))
		for j := range xs {
			xs[j] = float64(j)
		}
		ys := s.Values
		if len(ys) == 1 {
			// a single point has no line; draw it flat over one step
			xs, ys = []float64{0, 1}, []float64{ys[0], ys[0]}
		}
		out = append(out, chart.ContinuousSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: ys,
			Style:   chart.Style{StrokeColor: palette[i%len(palette)], StrokeWidth: 3.0},
		})
	}

	graph := chart.Chart{
		Title:  title,
		Width:  960,
		Height: 480,
		XAxis: chart.XAxis{
			Name:  "step",
			Style: chart.Style{FontSize: 10.0},
			Range: &chart.ContinuousRange{Min: 0, Max: float64(max(longest-1, 1))},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%d", int(v.(float64)))
			},
		},
		YAxis: chart.YAxis{
			Name:  "occupants",
			Style: chart.Style{FontSize: 10.0},
			Range: &chart.ContinuousRange{Min: 0, Max: max(top, 1)},
		},
		Series: out,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return graph.Render(chart.PNG, w)
}

// SaveCurvePNG writes the chart to path, creating parent directories.
func SaveCurvePNG(path, title string, series ...Series) error {
	var buf bytes.Buffer
	if err := WriteCurvePNG(&buf, title, series...); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
