// Package segment chops a waveform into fixed-duration or beat-aligned pieces
// and writes them as numbered WAV files.
package segment

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/RyanBlaney/sonido-timemap/audio"
	"github.com/RyanBlaney/sonido-timemap/fileutil"
	"github.com/RyanBlaney/sonido-timemap/logging"
	"github.com/RyanBlaney/sonido-timemap/transcode"
)

// Mode selects how segment boundaries are placed.
type Mode string

const (
	ModeTime Mode = "time"
	ModeBeat Mode = "beat"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeTime, ModeBeat:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown segment mode %q (want %q or %q)", s, ModeTime, ModeBeat)
}

// Segment is a copy of samples [Start, End) of the source waveform, with the
// source's sample rate and channel layout.
type Segment struct {
	Index int
	Start int
	End   int
	Audio *audio.Waveform
}

// ByDuration cuts floor(duration / seconds) consecutive segments of
// seconds each. A trailing remainder shorter than seconds is dropped.
func ByDuration(w *audio.Waveform, seconds float64) ([]Segment, error) {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return nil, fmt.Errorf("segment duration must be positive: %v", seconds)
	}

	sr := float64(w.SampleRate())
	count := int(w.Duration() / seconds)

	segments := make([]Segment, 0, count)
	for i := range count {
		start := int(float64(i) * seconds * sr)
		end := int(float64(i+1) * seconds * sr)
		segments = append(segments, newSegment(w, i, start, end))
	}
	return segments, nil
}

// ByBeats cuts segments spanning beatsPerSegment beats each: segment i runs
// from beat i*G to beat (i+1)*G. The last beat is always a boundary, never a
// start, so at most floor((B-G)/G) segments are produced and none when B <= G.
// Cutting stops at the first segment that would start at or past the end of
// w; an end boundary past the end is clamped to it.
func ByBeats(w *audio.Waveform, beatTimes []float64, beatsPerSegment int) ([]Segment, error) {
	if beatsPerSegment <= 0 {
		return nil, fmt.Errorf("beats per segment must be positive: %d", beatsPerSegment)
	}

	g := beatsPerSegment
	count := 0
	if len(beatTimes) > g {
		count = (len(beatTimes) - g) / g
	}

	sr := float64(w.SampleRate())
	segments := make([]Segment, 0, count)
	for i := range count {
		start := int(beatTimes[i*g] * sr)
		if start >= w.Len() {
			break
		}
		end := int(beatTimes[(i+1)*g] * sr)
		segments = append(segments, newSegment(w, i, start, end))
	}
	return segments, nil
}

func newSegment(w *audio.Waveform, index, start, end int) Segment {
	n := w.Len()
	start = max(0, min(start, n))
	end = max(start, min(end, n))
	return Segment{Index: index, Start: start, End: end, Audio: w.Slice(start, end)}
}

// Prefix names the files of one chop run: time_<seconds>s or beat_<G>.
// Seconds always carry a decimal point or exponent, so 2 becomes "2.0".
func Prefix(mode Mode, seconds float64, beatsPerSegment int) string {
	if mode == ModeBeat {
		return "beat_" + strconv.Itoa(beatsPerSegment)
	}
	return "time_" + formatSeconds(seconds) + "s"
}

func formatSeconds(v float64) string {
	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// FileName returns <prefix>_NNNN.wav.
func FileName(prefix string, index int) string {
	return fmt.Sprintf("%s_%04d.wav", prefix, index)
}

// WriteAll writes every segment into dir as 16-bit PCM WAV and returns the
// written paths. dir is created here, after the segments exist.
func WriteAll(dir, prefix string, segments []Segment) ([]string, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "segmenter",
		"function":  "WriteAll",
	})

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %q: %w", dir, err)
	}

	paths := make([]string, 0, len(segments))
	for _, seg := range segments {
		path := filepath.Join(dir, FileName(prefix, seg.Index))
		err := fileutil.WriteFileAtomic(path, func(f *os.File) error {
			return transcode.WriteWAV(f, seg.Audio)
		})
		if err != nil {
			return paths, &transcode.EncodeError{Path: path, Err: err}
		}
		logger.Debug("Saved segment", logging.Fields{"path": path})
		paths = append(paths, path)
	}
	return paths, nil
}
