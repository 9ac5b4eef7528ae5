package analysis

import (
	"fmt"

	"github.com/RyanBlaney/sonido-timemap/audio"
	"github.com/RyanBlaney/sonido-timemap/logging"
	"github.com/RyanBlaney/sonido-timemap/timemap"
)

// Generator runs the full onset, beat and pitch analysis and assembles a
// timemap.
type Generator struct {
	onsets *OnsetAnalyzer
	pitch  *PitchAnnotator
	logger logging.Logger
}

// NewGenerator wires the analysis stages to one capability.
func NewGenerator(capability SignalAnalysisCapability) *Generator {
	return &Generator{
		onsets: NewOnsetAnalyzer(capability),
		pitch:  NewPitchAnnotator(capability),
		logger: logging.WithFields(logging.Fields{
			"component": "timemap_generator",
		}),
	}
}

// Generate analyzes w. Nothing is returned unless every stage succeeds.
func (g *Generator) Generate(w *audio.Waveform) (*timemap.Timemap, error) {
	g.logger.Info("Loaded audio", logging.Fields{
		"source":      w.Source(),
		"sample_rate": w.SampleRate(),
		"duration":    fmt.Sprintf("%.2fs", w.Duration()),
	})

	mono := w.Mono()
	if err := checkLength(len(mono), g.onsets.capability.FrameSize()); err != nil {
		return nil, err
	}

	result, err := g.onsets.analyzeMono(mono, w.SampleRate())
	if err != nil {
		return nil, err
	}

	pitch, err := g.pitch.Annotate(mono, w.SampleRate(), result.OnsetFrames, result.OnsetTimes)
	if err != nil {
		return nil, err
	}

	meta := timemap.Metadata{
		AudioFile:  w.Source(),
		Duration:   w.Duration(),
		SampleRate: w.SampleRate(),
		Tempo:      result.Tempo,
	}
	return timemap.Build(meta, result.OnsetTimes, result.BeatTimes, pitch)
}

// BeatTimes runs only the onset and beat stages and returns beat times in
// seconds.
func (g *Generator) BeatTimes(w *audio.Waveform) ([]float64, float64, error) {
	result, err := g.onsets.Analyze(w)
	if err != nil {
		return nil, 0, err
	}
	return result.BeatTimes, result.Tempo, nil
}
