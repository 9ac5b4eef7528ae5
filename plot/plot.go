// Package plot renders a timemap over the waveform it was computed from.
package plot

import (
	"fmt"
	"image/color"
	"io"
	"path/filepath"
	"strings"

	gonumplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/RyanBlaney/sonido-timemap/algorithms/temporal"
	"github.com/RyanBlaney/sonido-timemap/audio"
	"github.com/RyanBlaney/sonido-timemap/fileutil"
	"github.com/RyanBlaney/sonido-timemap/timemap"
)

// maxEnvelopePoints bounds the resolution of the drawn waveform.
const maxEnvelopePoints = 4000

var (
	waveColor  = color.RGBA{R: 90, G: 90, B: 90, A: 255}
	onsetColor = color.RGBA{R: 214, G: 39, B: 40, A: 200}
	beatColor  = color.RGBA{R: 31, G: 119, B: 180, A: 200}
)

// Options sizes the rendered figure. Format is any gonum/plot image format
// ("png", "svg", "pdf", "eps", "jpg", "tiff").
type Options struct {
	Width  vg.Length
	Height vg.Length
	Format string
}

// DefaultOptions returns a 15 x 6 inch PNG.
func DefaultOptions() Options {
	return Options{Width: 15 * vg.Inch, Height: 6 * vg.Inch, Format: "png"}
}

// Render draws the waveform envelope with onset markers labeled by pitch and
// dashed beat markers.
func Render(w *audio.Waveform, tm *timemap.Timemap, opts Options) (io.WriterTo, error) {
	p := gonumplot.New()
	p.Title.Text = title(tm)
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Amplitude"

	mono := w.Mono()
	hop := max(1, len(mono)/maxEnvelopePoints)
	peaks := temporal.NewEnvelope().ComputePeak(mono, hop, hop)

	upper := make(plotter.XYs, len(peaks))
	lower := make(plotter.XYs, len(peaks))
	yMax := 0.0
	for i, v := range peaks {
		x := float64(i*hop) / float64(w.SampleRate())
		upper[i] = plotter.XY{X: x, Y: v}
		lower[i] = plotter.XY{X: x, Y: -v}
		yMax = max(yMax, v)
	}
	if yMax == 0 {
		yMax = 1
	}

	for _, xy := range []plotter.XYs{upper, lower} {
		if len(xy) == 0 {
			continue
		}
		line, err := plotter.NewLine(xy)
		if err != nil {
			return nil, fmt.Errorf("waveform line: %w", err)
		}
		line.Color = waveColor
		line.Width = vg.Points(0.5)
		p.Add(line)
	}

	if err := addMarkers(p, tm.Onsets, yMax, onsetColor, nil, "Onsets"); err != nil {
		return nil, err
	}
	dashes := []vg.Length{vg.Points(4), vg.Points(3)}
	if err := addMarkers(p, tm.Beats, yMax, beatColor, dashes, "Beats"); err != nil {
		return nil, err
	}

	if len(tm.PitchInfo) > 0 {
		xys := make(plotter.XYs, len(tm.PitchInfo))
		names := make([]string, len(tm.PitchInfo))
		for i, pi := range tm.PitchInfo {
			xys[i] = plotter.XY{X: pi.Time, Y: yMax * 1.05}
			names[i] = pi.Pitch
		}
		labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: names})
		if err != nil {
			return nil, fmt.Errorf("pitch labels: %w", err)
		}
		p.Add(labels)
	}

	p.Y.Min = -yMax * 1.1
	p.Y.Max = yMax * 1.15
	p.X.Min = 0
	p.X.Max = max(w.Duration(), tm.Metadata.Duration)
	p.Legend.Top = true

	format := opts.Format
	if format == "" {
		format = "png"
	}
	wt, err := p.WriterTo(opts.Width, opts.Height, format)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return wt, nil
}

func addMarkers(p *gonumplot.Plot, times []float64, yMax float64, c color.Color, dashes []vg.Length, legend string) error {
	for i, t := range times {
		line, err := plotter.NewLine(plotter.XYs{{X: t, Y: -yMax}, {X: t, Y: yMax}})
		if err != nil {
			return fmt.Errorf("%s marker: %w", strings.ToLower(legend), err)
		}
		line.Color = c
		line.Width = vg.Points(0.8)
		line.Dashes = dashes
		p.Add(line)
		if i == 0 {
			p.Legend.Add(legend, line)
		}
	}
	return nil
}

func title(tm *timemap.Timemap) string {
	name := filepath.Base(tm.Metadata.AudioFile)
	return fmt.Sprintf("%s  (tempo %.1f BPM, %d onsets, %d beats)", name, tm.Metadata.Tempo, len(tm.Onsets), len(tm.Beats))
}

// FormatForPath maps a file extension to a gonum/plot format name.
func FormatForPath(path string) (string, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "png", "svg", "pdf", "eps", "tiff":
		return ext, nil
	case "jpg", "jpeg":
		return "jpg", nil
	case "tif":
		return "tiff", nil
	}
	return "", fmt.Errorf("unsupported plot format %q", filepath.Ext(path))
}

// Save renders to path, choosing the format from its extension.
func Save(path string, w *audio.Waveform, tm *timemap.Timemap, opts Options) error {
	format, err := FormatForPath(path)
	if err != nil {
		return err
	}
	opts.Format = format
	wt, err := Render(w, tm, opts)
	if err != nil {
		return err
	}
	return fileutil.WriteAtomic(path, func(out io.Writer) error {
		_, err := wt.WriteTo(out)
		return err
	})
}
