package analysis

import (
	"fmt"

	"github.com/RyanBlaney/sonido-timemap/algorithms/chroma"
	"github.com/RyanBlaney/sonido-timemap/timemap"
)

// PitchAnnotator labels onsets with the strongest chroma pitch class.
type PitchAnnotator struct {
	capability SignalAnalysisCapability
}

// NewPitchAnnotator creates an annotator on top of capability.
func NewPitchAnnotator(capability SignalAnalysisCapability) *PitchAnnotator {
	return &PitchAnnotator{capability: capability}
}

// Annotate returns one annotation per onset. onsetTimes[i] is the time of
// onsetFrames[i].
func (p *PitchAnnotator) Annotate(mono []float64, sampleRate int, onsetFrames []int, onsetTimes []float64) ([]timemap.PitchAnnotation, error) {
	if len(onsetFrames) != len(onsetTimes) {
		return nil, fmt.Errorf("%d onset frames but %d onset times", len(onsetFrames), len(onsetTimes))
	}
	annotations := make([]timemap.PitchAnnotation, 0, len(onsetFrames))
	if len(onsetFrames) == 0 {
		return annotations, nil
	}

	chromagram, err := p.capability.Chroma(mono, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("chroma: %w", err)
	}
	rows, cols := chromagram.Dims()
	if rows != chroma.NumPitchClasses {
		return nil, fmt.Errorf("chroma has %d rows, want %d", rows, chroma.NumPitchClasses)
	}

	for i, frame := range onsetFrames {
		if frame < 0 || frame >= cols {
			return nil, &OutOfRangeFrameError{Frame: frame, Frames: cols}
		}
		pc, confidence := chroma.Dominant(chromagram, frame)
		annotations = append(annotations, timemap.PitchAnnotation{
			Time:       onsetTimes[i],
			Pitch:      chroma.PitchClassNames[pc],
			Confidence: confidence,
		})
	}

	return annotations, nil
}
