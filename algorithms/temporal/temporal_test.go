package temporal

import (
	"math"
	"reflect"
	"testing"
)

const (
	testRate = 22050
	testHop  = 512
)

func impulseEnvelope(length, first, every int) []float64 {
	env := make([]float64, length)
	for i := first; i < length; i += every {
		env[i] = 1
	}
	return env
}

func TestDefaultPeakPickParams(t *testing.T) {
	got := DefaultPeakPickParams(testRate, testHop)
	want := PeakPickParams{PreMax: 1, PostMax: 1, PreAvg: 4, PostAvg: 5, Delta: 0.07, Wait: 1}
	if got != want {
		t.Fatalf("DefaultPeakPickParams = %+v, want %+v", got, want)
	}
}

func TestPeakPick(t *testing.T) {
	x := []float64{0, 0, 1, 0, 0, 0, 0, 0, 0.8, 0, 0, 0}
	p := PeakPickParams{PreMax: 1, PostMax: 1, PreAvg: 4, PostAvg: 5, Delta: 0.07, Wait: 1}
	if got, want := PeakPick(x, p), []int{2, 8}; !reflect.DeepEqual(got, want) {
		t.Errorf("PeakPick = %v, want %v", got, want)
	}

	plateau := []float64{0, 0, 1, 1, 0, 0}
	if got, want := PeakPick(plateau, p), []int{2}; !reflect.DeepEqual(got, want) {
		t.Errorf("PeakPick(plateau) = %v, want %v", got, want)
	}

	if got := PeakPick(make([]float64, 10), p); len(got) != 0 {
		t.Errorf("PeakPick(zeros) = %v, want none", got)
	}
}

func TestBacktrack(t *testing.T) {
	energy := []float64{0.5, 0.2, 0.1, 0.4, 1.0, 0.3, 0.0, 0.6, 0.9}
	got := Backtrack([]int{1, 4, 8}, energy)
	if want := []int{0, 2, 6}; !reflect.DeepEqual(got, want) {
		t.Errorf("Backtrack = %v, want %v", got, want)
	}
}

func TestStrengthAndDetectClickTrack(t *testing.T) {
	signal := make([]float64, 4*testRate)
	var clicks []int
	for k := range 8 {
		s := int((0.25 + 0.5*float64(k)) * testRate)
		signal[s] = 1
		clicks = append(clicks, s)
	}

	od := NewOnsetDetection(2048, testHop)
	env, err := od.Strength(signal, testRate)
	if err != nil {
		t.Fatalf("Strength: %v", err)
	}
	if want := len(signal)/testHop + 1; len(env) != want {
		t.Fatalf("len(env) = %d, want %d", len(env), want)
	}
	for i, v := range env {
		if v < 0 {
			t.Fatalf("env[%d] = %v is negative", i, v)
		}
	}
	if env[0] != 0 {
		t.Errorf("env[0] = %v, want 0", env[0])
	}

	onsets := od.Detect(env, testRate)
	if len(onsets) != len(clicks) {
		t.Fatalf("detected %d onsets %v, want %d", len(onsets), onsets, len(clicks))
	}
	for i, frame := range onsets {
		got := float64(frame*testHop) / testRate
		want := float64(clicks[i]) / testRate
		if math.Abs(got-want) > 0.1 {
			t.Errorf("onset %d at %.3fs, want near %.3fs", i, got, want)
		}
	}
}

func TestStrengthRejectsEmpty(t *testing.T) {
	if _, err := NewOnsetDetection(2048, testHop).Strength(nil, testRate); err == nil {
		t.Fatal("expected error for empty signal")
	}
}

func TestDetectSilence(t *testing.T) {
	od := NewOnsetDetection(2048, testHop)
	if got := od.Detect(make([]float64, 50), testRate); got == nil || len(got) != 0 {
		t.Errorf("Detect(zeros) = %#v, want empty non-nil", got)
	}
}

func TestTempoEstimate(t *testing.T) {
	te := NewTempoEstimation(testHop, 120)
	got := te.Estimate(impulseEnvelope(400, 0, 20), testRate)
	want := 60.0 * testRate / testHop / 20
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Estimate = %v, want %v", got, want)
	}
	if got := te.Estimate(make([]float64, 400), testRate); got != 0 {
		t.Errorf("Estimate(silence) = %v, want 0", got)
	}
}

func TestBeatTrackerFollowsImpulses(t *testing.T) {
	env := impulseEnvelope(391, 10, 20)
	bpm := 60.0 * testRate / testHop / 20

	beats := NewBeatTracker(testHop, 100).Track(env, testRate, bpm)

	var want []int
	for f := 10; f < 391; f += 20 {
		want = append(want, f)
	}
	if !reflect.DeepEqual(beats, want) {
		t.Errorf("Track = %v, want %v", beats, want)
	}
}

func TestBeatTrackerSilence(t *testing.T) {
	bt := NewBeatTracker(testHop, 100)
	if got := bt.Track(make([]float64, 100), testRate, 120); got == nil || len(got) != 0 {
		t.Errorf("Track(silence) = %#v, want empty non-nil", got)
	}
	if got := bt.Track(impulseEnvelope(100, 0, 20), testRate, 0); len(got) != 0 {
		t.Errorf("Track(bpm=0) = %v, want none", got)
	}
}

func TestLeadingSilenceTrimsExactly(t *testing.T) {
	ch := make([]float64, 2*testRate)
	for i := testRate; i < len(ch); i++ {
		ch[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/testRate)
	}

	sd := NewSilenceDetection(10)
	if got := sd.TrimPoint([][]float64{ch}, testRate, 16); got != testRate {
		t.Errorf("TrimPoint = %d, want %d", got, testRate)
	}
	if got := sd.TrimPoint([][]float64{make([]float64, 1000)}, testRate, 16); got != 0 {
		t.Errorf("TrimPoint(silence) = %d, want 0", got)
	}
	quiet := make([]float64, 1000)
	for i := range quiet {
		quiet[i] = 1e-4
	}
	if got := sd.LeadingSilence([][]float64{quiet}, testRate, -20); got != len(quiet) {
		t.Errorf("LeadingSilence(all quiet) = %d, want %d", got, len(quiet))
	}
}

func TestDBFS(t *testing.T) {
	full := [][]float64{{1, -1, 1, -1}}
	if got := DBFS(full, 0, 4); math.Abs(got) > 1e-12 {
		t.Errorf("DBFS(full scale) = %v, want 0", got)
	}
	if got := DBFS(full, 2, 2); !math.IsInf(got, -1) {
		t.Errorf("DBFS(empty range) = %v, want -Inf", got)
	}
}

func TestComputePeak(t *testing.T) {
	got := NewEnvelope().ComputePeak([]float64{0.1, -0.9, 0.3, 0.2, -0.4}, 2, 2)
	if want := []float64{0.9, 0.3, 0.4}; !reflect.DeepEqual(got, want) {
		t.Errorf("ComputePeak = %v, want %v", got, want)
	}
}
