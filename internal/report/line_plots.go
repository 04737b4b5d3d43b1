package report

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/user/zerocross_analyzer_go/internal/analysis"
)

// DefaultPlotSamples caps the number of waveform points drawn per plot.
const DefaultPlotSamples = 2000

var (
	waveColor    = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 255}
	risingColor  = color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 255}
	fallingColor = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 255}
)

// CreateWaveformPlot draws the voltage trace of one source with a marker at
// every retained crossing, and returns it as PNG bytes.
func CreateWaveformPlot(table Table, maxPoints int) ([]byte, error) {
	if len(table.Samples) == 0 {
		return nil, fmt.Errorf("no samples to plot for %s", table.Source)
	}
	if maxPoints <= 0 {
		maxPoints = DefaultPlotSamples
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Waveform and zero crossings (%s)", table.Source)
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Voltage (V)"
	p.Add(plotter.NewGrid())

	pts := decimate(table.Samples, maxPoints)
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to create waveform line for %s: %w", table.Source, err)
	}
	line.Color = waveColor
	line.LineStyle.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add("Voltage", line)

	zero, err := plotter.NewLine(plotter.XYs{
		{X: table.Samples[0].Time, Y: 0},
		{X: table.Samples[len(table.Samples)-1].Time, Y: 0},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create zero line: %w", err)
	}
	zero.Color = color.Gray{Y: 128}
	zero.LineStyle.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
	p.Add(zero)

	var rising, falling plotter.XYs
	for _, e := range table.Events {
		if e.Direction == analysis.Rising {
			rising = append(rising, plotter.XY{X: e.Time, Y: 0})
		} else {
			falling = append(falling, plotter.XY{X: e.Time, Y: 0})
		}
	}
	if err := addMarkers(p, rising, "Rising", risingColor, draw.TriangleGlyph{}); err != nil {
		return nil, err
	}
	if err := addMarkers(p, falling, "Falling", fallingColor, draw.CircleGlyph{}); err != nil {
		return nil, err
	}

	p.Legend.Top = true
	p.Legend.XOffs = vg.Points(-10)

	return renderPNG(p, vg.Points(800), vg.Points(400))
}

func addMarkers(p *plot.Plot, pts plotter.XYs, label string, c color.Color, shape draw.GlyphDrawer) error {
	if len(pts) == 0 {
		return nil
	}
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("failed to create %s markers: %w", label, err)
	}
	sc.GlyphStyle.Color = c
	sc.GlyphStyle.Shape = shape
	sc.GlyphStyle.Radius = vg.Points(3)
	p.Add(sc)
	p.Legend.Add(label, sc)
	return nil
}

// decimate reduces samples to at most maxPoints by keeping the minimum and
// maximum of each bucket, so peaks survive the reduction.
func decimate(samples []analysis.Sample, maxPoints int) plotter.XYs {
	n := len(samples)
	if n <= maxPoints || maxPoints < 4 {
		pts := make(plotter.XYs, n)
		for i, s := range samples {
			pts[i] = plotter.XY{X: s.Time, Y: s.Voltage}
		}
		return pts
	}

	buckets := maxPoints / 2
	size := int(math.Ceil(float64(n) / float64(buckets)))
	pts := make(plotter.XYs, 0, maxPoints)
	for start := 0; start < n; start += size {
		end := min(start+size, n)
		lo, hi := start, start
		for i := start + 1; i < end; i++ {
			if samples[i].Voltage < samples[lo].Voltage {
				lo = i
			}
			if samples[i].Voltage > samples[hi].Voltage {
				hi = i
			}
		}
		if lo > hi {
			lo, hi = hi, lo
		}
		pts = append(pts, plotter.XY{X: samples[lo].Time, Y: samples[lo].Voltage})
		if hi != lo {
			pts = append(pts, plotter.XY{X: samples[hi].Time, Y: samples[hi].Voltage})
		}
	}
	return pts
}

func renderPNG(p *plot.Plot, w, h vg.Length) ([]byte, error) {
	writer, err := p.WriterTo(w, h, "png")
	if err != nil {
		return nil, fmt.Errorf("failed to create plot writer: %w", err)
	}
	buf := new(bytes.Buffer)
	if _, err := writer.WriteTo(buf); err != nil {
		return nil, fmt.Errorf("failed to write plot to buffer: %w", err)
	}
	return buf.Bytes(), nil
}
