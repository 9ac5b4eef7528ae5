package analysis

import "fmt"

// InsufficientAudioError reports input shorter than one analysis frame.
type InsufficientAudioError struct {
	Samples  int
	Required int
}

func (e *InsufficientAudioError) Error() string {
	return fmt.Sprintf("audio too short for analysis: %d samples, need at least %d", e.Samples, e.Required)
}

// OutOfRangeFrameError reports an onset frame with no chroma column.
type OutOfRangeFrameError struct {
	Frame  int
	Frames int
}

func (e *OutOfRangeFrameError) Error() string {
	return fmt.Sprintf("onset frame %d outside chroma range [0, %d)", e.Frame, e.Frames)
}
