package feature

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// melGrid adapts a frames-by-bands matrix to the heatmap grid
// interface, with frames on the x axis and bands on the y axis.
type melGrid struct {
	frames [][]float64
}

func (g melGrid) Dims() (int, int) { return len(g.frames), len(g.frames[0]) }
func (g melGrid) X(c int) float64  { return float64(c) }
func (g melGrid) Y(r int) float64  { return float64(r) }
func (g melGrid) Z(c, r int) float64 {
	return g.frames[c][r]
}

// saveMelPlot renders a log mel filterbank as a PNG heatmap.
func saveMelPlot(frames [][]float64, title, path string) error {
	if len(frames) == 0 || len(frames[0]) == 0 {
		return fmt.Errorf("cannot plot empty filterbank")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "frame"
	p.Y.Label.Text = "mel band"

	palette := moreland.SmoothBlueRed().Palette(255)
	heatMap := plotter.NewHeatMap(melGrid{frames: frames}, palette)
	p.Add(heatMap)

	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}
