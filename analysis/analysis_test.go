package analysis

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-timemap/audio"
	"github.com/RyanBlaney/sonido-timemap/timemap"
)

// fakeCapability returns scripted results and records what it was given.
type fakeCapability struct {
	frameSize int
	hopSize   int
	envelope  []float64
	onsets    []int
	tempo     float64
	beats     []int
	chroma    *mat.Dense
	err       error

	chromaCalls int
	gotSamples  int
}

func (f *fakeCapability) FrameSize() int { return f.frameSize }
func (f *fakeCapability) HopSize() int   { return f.hopSize }

func (f *fakeCapability) OnsetEnvelope(samples []float64, _ int) ([]float64, error) {
	f.gotSamples = len(samples)
	return f.envelope, f.err
}

func (f *fakeCapability) OnsetFrames([]float64, int) ([]int, error) {
	return f.onsets, nil
}

func (f *fakeCapability) BeatTrack([]float64, int) (float64, []int, error) {
	return f.tempo, f.beats, nil
}

func (f *fakeCapability) Chroma([]float64, int) (*mat.Dense, error) {
	f.chromaCalls++
	return f.chroma, nil
}

func newFake() *fakeCapability {
	c := mat.NewDense(12, 10, nil)
	c.Set(9, 2, 1.0) // A at frame 2
	c.Set(0, 5, 0.7) // C at frame 5
	c.Set(7, 5, 0.7) // G ties with C
	return &fakeCapability{
		frameSize: 4,
		hopSize:   100,
		envelope:  make([]float64, 10),
		onsets:    []int{5, 2},
		tempo:     90,
		beats:     []int{1, 3, 5, 7},
		chroma:    c,
	}
}

func waveform(t *testing.T, n, sampleRate int) *audio.Waveform {
	t.Helper()
	w, err := audio.New([][]float64{make([]float64, n), make([]float64, n)}, sampleRate, "test.wav")
	if err != nil {
		t.Fatalf("audio.New: %v", err)
	}
	return w
}

func TestGenerateWithFakeCapability(t *testing.T) {
	fake := newFake()
	tm, err := NewGenerator(fake).Generate(waveform(t, 1000, 1000))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if got, want := tm.Onsets, []float64{0.2, 0.5}; !reflect.DeepEqual(got, want) {
		t.Errorf("Onsets = %v, want %v", got, want)
	}
	if got, want := tm.Beats, []float64{0.1, 0.3, 0.5, 0.7}; !reflect.DeepEqual(got, want) {
		t.Errorf("Beats = %v, want %v", got, want)
	}
	want := []timemap.PitchAnnotation{
		{Time: 0.2, Pitch: "A", Confidence: 1},
		{Time: 0.5, Pitch: "C", Confidence: 0.7},
	}
	if !reflect.DeepEqual(tm.PitchInfo, want) {
		t.Errorf("PitchInfo = %+v, want %+v", tm.PitchInfo, want)
	}
	if tm.Metadata != (timemap.Metadata{AudioFile: "test.wav", Duration: 1, SampleRate: 1000, Tempo: 90}) {
		t.Errorf("Metadata = %+v", tm.Metadata)
	}
	if fake.gotSamples != 1000 {
		t.Errorf("capability saw %d samples, want the 1000-sample mono mix", fake.gotSamples)
	}
}

func TestGenerateNoOnsets(t *testing.T) {
	fake := newFake()
	fake.onsets = nil
	fake.beats = nil
	fake.tempo = 0

	tm, err := NewGenerator(fake).Generate(waveform(t, 1000, 1000))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if tm.Onsets == nil || len(tm.Onsets) != 0 || tm.Beats == nil || len(tm.PitchInfo) != 0 {
		t.Errorf("expected empty non-nil arrays, got %+v", tm)
	}
	if fake.chromaCalls != 0 {
		t.Errorf("chroma computed %d times for zero onsets", fake.chromaCalls)
	}
}

func TestGenerateInsufficientAudio(t *testing.T) {
	_, err := NewGenerator(newFake()).Generate(waveform(t, 3, 1000))
	var short *InsufficientAudioError
	if !errors.As(err, &short) {
		t.Fatalf("err = %v, want InsufficientAudioError", err)
	}
	if short.Samples != 3 || short.Required != 4 {
		t.Errorf("error = %+v", short)
	}
}

func TestGenerateOutOfRangeFrame(t *testing.T) {
	fake := newFake()
	fake.onsets = []int{2, 10}

	_, err := NewGenerator(fake).Generate(waveform(t, 1000, 1000))
	var oor *OutOfRangeFrameError
	if !errors.As(err, &oor) {
		t.Fatalf("err = %v, want OutOfRangeFrameError", err)
	}
	if oor.Frame != 10 || oor.Frames != 10 {
		t.Errorf("error = %+v", oor)
	}
}

func TestGenerateCapabilityError(t *testing.T) {
	fake := newFake()
	fake.err = errors.New("boom")
	if _, err := NewGenerator(fake).Generate(waveform(t, 1000, 1000)); !errors.Is(err, fake.err) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
}

func TestFramesToTimes(t *testing.T) {
	got := FramesToTimes([]int{0, 43, 86}, 512, 22050)
	if got[0] != 0 || math.Abs(got[1]-43*512.0/22050) > 1e-12 || math.Abs(got[2]-86*512.0/22050) > 1e-12 {
		t.Errorf("FramesToTimes = %v", got)
	}
}

func TestParamsValidate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("DefaultParams invalid: %v", err)
	}
	bad := DefaultParams()
	bad.HopSize = 4096
	if err := bad.Validate(); err == nil {
		t.Error("expected error for hop larger than frame")
	}
	bad = DefaultParams()
	bad.ChromaNorm = "l2"
	if _, err := NewNative(bad); err == nil {
		t.Error("expected error for unknown chroma norm")
	}
}

func TestNativeSilenceYieldsEmptyTimemap(t *testing.T) {
	native, err := NewNative(DefaultParams())
	if err != nil {
		t.Fatalf("NewNative: %v", err)
	}
	tm, err := NewGenerator(native).Generate(waveform(t, 22050, 22050))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(tm.Onsets) != 0 || len(tm.Beats) != 0 || len(tm.PitchInfo) != 0 {
		t.Errorf("silence produced events: %+v", tm)
	}
	if tm.Metadata.Tempo != 0 {
		t.Errorf("Tempo = %v, want 0", tm.Metadata.Tempo)
	}
}

func TestNativeClickTrack(t *testing.T) {
	const sr = 22050
	samples := make([]float64, 6*sr)
	for k := 0; k < 12; k++ {
		// a decaying 440 Hz burst every half second
		start := int((0.25 + 0.5*float64(k)) * sr)
		for i := 0; i < 2000 && start+i < len(samples); i++ {
			samples[start+i] = math.Exp(-float64(i)/400) * math.Sin(2*math.Pi*440*float64(i)/sr)
		}
	}
	w, err := audio.New([][]float64{samples}, sr, "clicks.wav")
	if err != nil {
		t.Fatalf("audio.New: %v", err)
	}

	native, err := NewNative(DefaultParams())
	if err != nil {
		t.Fatalf("NewNative: %v", err)
	}
	tm, err := NewGenerator(native).Generate(w)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(tm.Onsets) != 12 {
		t.Fatalf("got %d onsets, want 12: %v", len(tm.Onsets), tm.Onsets)
	}
	for k, onset := range tm.Onsets {
		if want := 0.25 + 0.5*float64(k); math.Abs(onset-want) > 0.05 {
			t.Errorf("onset %d at %.4f s, want %.2f s", k, onset, want)
		}
	}
	if len(tm.PitchInfo) != len(tm.Onsets) {
		t.Fatalf("%d pitch annotations for %d onsets", len(tm.PitchInfo), len(tm.Onsets))
	}
	for i, p := range tm.PitchInfo {
		if p.Time != tm.Onsets[i] {
			t.Errorf("pitch_info[%d].time = %v, onset = %v", i, p.Time, tm.Onsets[i])
		}
		if p.Pitch != "A" || math.Abs(p.Confidence-1) > 1e-9 {
			t.Errorf("pitch_info[%d] = %s (%.4f), want A (1.0)", i, p.Pitch, p.Confidence)
		}
	}
	// The half-second period falls between lags 21 and 22 frames; the
	// estimator reports the lag-22 grid value 60*(22050/512)/22.
	if want := 60 * (float64(sr) / 512) / 22; math.Abs(tm.Metadata.Tempo-want) > 0.01 {
		t.Errorf("Tempo = %.4f, want %.2f", tm.Metadata.Tempo, want)
	}
	for i := 1; i < len(tm.Beats); i++ {
		if tm.Beats[i] < tm.Beats[i-1] {
			t.Fatalf("beats decrease at %d: %v", i, tm.Beats)
		}
	}
}
