package report

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// DefaultHeatmapCycles caps the number of cycle columns in the period heatmap.
const DefaultHeatmapCycles = 200

// gradient is a palette.Palette over a fixed list of colors.
type gradient []color.Color

func (g gradient) Colors() []color.Color { return g }

// Green for periods close to a source's mean, red for the largest deviations.
var deviationPalette = gradient{
	color.RGBA{R: 0x00, G: 0x64, B: 0x00, A: 255},
	color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 255},
	color.RGBA{R: 0xdb, G: 0xdb, B: 0x8d, A: 255},
	color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 255},
	color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 255},
}

var nanColor = color.Gray{Y: 200}

// periodGrid lays out one row per source and one column per cycle. Each cell
// is the relative deviation of that cycle's period from the source mean, in
// percent; missing cycles are NaN.
type periodGrid struct {
	rows [][]float64
	cols int
}

func (g *periodGrid) Dims() (c, r int)   { return g.cols, len(g.rows) }
func (g *periodGrid) X(c int) float64    { return float64(c) }
func (g *periodGrid) Y(r int) float64    { return float64(r) }
func (g *periodGrid) Z(c, r int) float64 { return g.rows[r][c] }

func newPeriodGrid(tables []Table, maxCycles int) (*periodGrid, float64) {
	g := &periodGrid{}
	for _, t := range tables {
		g.cols = max(g.cols, min(len(t.Summary.Periods), maxCycles))
	}

	var maxAbs float64
	for _, t := range tables {
		row := make([]float64, g.cols)
		mean := t.Summary.MeanPeriod
		for c := range row {
			row[c] = math.NaN()
			if c < len(t.Summary.Periods) && mean > 0 {
				dev := 100 * math.Abs(t.Summary.Periods[c]-mean) / mean
				row[c] = dev
				maxAbs = math.Max(maxAbs, dev)
			}
		}
		g.rows = append(g.rows, row)
	}
	return g, maxAbs
}

// CreatePeriodHeatmap draws how far each cycle's period strays from its
// source's mean period, for all sources side by side.
func CreatePeriodHeatmap(tables []Table, maxCycles int) ([]byte, error) {
	if maxCycles <= 0 {
		maxCycles = DefaultHeatmapCycles
	}
	grid, maxDev := newPeriodGrid(tables, maxCycles)
	if grid.cols == 0 || len(grid.rows) == 0 {
		return nil, fmt.Errorf("no complete cycles to plot heatmap")
	}

	p := plot.New()
	p.Title.Text = "Cycle period deviation from mean (%)"
	p.X.Label.Text = "Cycle"
	p.Y.Label.Text = "Source"

	yTicks := make([]plot.Tick, len(tables))
	for i, t := range tables {
		yTicks[i] = plot.Tick{Value: float64(i), Label: truncateRunes(t.Source, 24)}
	}
	p.Y.Tick.Marker = plot.ConstantTicks(yTicks)
	p.Y.Min = -0.5
	p.Y.Max = float64(len(tables)) - 0.5
	p.X.Min = -0.5
	p.X.Max = float64(grid.cols) - 0.5

	hm := plotter.NewHeatMap(grid, deviationPalette)
	hm.Min = 0
	hm.Max = maxDev
	if hm.Max <= hm.Min {
		hm.Max = hm.Min + 1
	}
	hm.NaN = nanColor
	p.Add(hm)

	return renderPNG(p, vg.Points(1000), vg.Points(500))
}
