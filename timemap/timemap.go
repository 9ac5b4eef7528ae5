// Package timemap holds the analysis result written for downstream tools:
// onset and beat times plus the dominant pitch class at every onset.
package timemap

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"

	"github.com/RyanBlaney/sonido-timemap/fileutil"
)

// PitchClasses lists the valid pitch labels in chroma order.
var PitchClasses = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// IsPitchClass reports whether name is one of PitchClasses.
func IsPitchClass(name string) bool {
	return slices.Contains(PitchClasses, name)
}

// Metadata describes the analyzed audio.
type Metadata struct {
	AudioFile  string  `json:"audio_file"`
	Duration   float64 `json:"duration"`
	SampleRate int     `json:"sample_rate"`
	Tempo      float64 `json:"tempo"`
}

// PitchAnnotation is the dominant pitch class at one onset.
type PitchAnnotation struct {
	Time       float64 `json:"time"`
	Pitch      string  `json:"pitch"`
	Confidence float64 `json:"confidence"`
}

// Timemap is the serialized analysis result. PitchInfo[i] annotates
// Onsets[i].
type Timemap struct {
	Metadata  Metadata          `json:"metadata"`
	Onsets    []float64         `json:"onsets"`
	Beats     []float64         `json:"beats"`
	PitchInfo []PitchAnnotation `json:"pitch_info"`
}

// Build assembles a validated Timemap from copies of its inputs. Empty inputs
// produce empty, non-nil slices.
func Build(meta Metadata, onsets, beats []float64, pitch []PitchAnnotation) (*Timemap, error) {
	tm := &Timemap{
		Metadata:  meta,
		Onsets:    append(make([]float64, 0, len(onsets)), onsets...),
		Beats:     append(make([]float64, 0, len(beats)), beats...),
		PitchInfo: append(make([]PitchAnnotation, 0, len(pitch)), pitch...),
	}
	if err := tm.Validate(); err != nil {
		return nil, err
	}
	return tm, nil
}

// Validate checks the structural invariants of a timemap.
func (t *Timemap) Validate() error {
	var errs []error

	m := t.Metadata
	if m.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample_rate must be positive: %d", m.SampleRate))
	}
	if !finite(m.Duration) || m.Duration < 0 {
		errs = append(errs, fmt.Errorf("duration must be a non-negative number: %v", m.Duration))
	}
	if !finite(m.Tempo) || m.Tempo < 0 {
		errs = append(errs, fmt.Errorf("tempo must be a non-negative number: %v", m.Tempo))
	}

	if err := checkTimes("onsets", t.Onsets); err != nil {
		errs = append(errs, err)
	}
	if err := checkTimes("beats", t.Beats); err != nil {
		errs = append(errs, err)
	}

	if len(t.PitchInfo) != len(t.Onsets) {
		errs = append(errs, fmt.Errorf("pitch_info has %d entries for %d onsets", len(t.PitchInfo), len(t.Onsets)))
	} else {
		for i, p := range t.PitchInfo {
			if p.Time != t.Onsets[i] {
				errs = append(errs, fmt.Errorf("pitch_info[%d].time %v does not match onset %v", i, p.Time, t.Onsets[i]))
			}
			if !IsPitchClass(p.Pitch) {
				errs = append(errs, fmt.Errorf("pitch_info[%d].pitch %q is not a pitch class", i, p.Pitch))
			}
			if !finite(p.Confidence) || p.Confidence < 0 {
				errs = append(errs, fmt.Errorf("pitch_info[%d].confidence must be a non-negative number: %v", i, p.Confidence))
			}
		}
	}

	return errors.Join(errs...)
}

func checkTimes(name string, times []float64) error {
	for i, v := range times {
		if !finite(v) || v < 0 {
			return fmt.Errorf("%s[%d] = %v is not a non-negative time", name, i, v)
		}
		if i > 0 && v < times[i-1] {
			return fmt.Errorf("%s are not non-decreasing at index %d (%v < %v)", name, i, v, times[i-1])
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Encode writes t as two-space indented JSON.
func Encode(w io.Writer, t *Timemap) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t)
}

// Write stores t at path, creating parent directories. The file only appears
// once fully written.
func Write(path string, t *Timemap) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("refusing to write invalid timemap: %w", err)
	}
	return fileutil.WriteAtomic(path, func(w io.Writer) error {
		return Encode(w, t)
	})
}

// Read loads and validates a timemap file.
func Read(path string) (*Timemap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var t Timemap
	if err := json.NewDecoder(f).Decode(&t); err != nil {
		return nil, fmt.Errorf("parse timemap %s: %w", path, err)
	}
	if t.Onsets == nil {
		t.Onsets = []float64{}
	}
	if t.Beats == nil {
		t.Beats = []float64{}
	}
	if t.PitchInfo == nil {
		t.PitchInfo = []PitchAnnotation{}
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid timemap %s: %w", path, err)
	}
	return &t, nil
}
