package timemap

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func sampleMeta() Metadata {
	return Metadata{AudioFile: "song.mp3", Duration: 10, SampleRate: 22050, Tempo: 120}
}

func TestBuildCopiesInputs(t *testing.T) {
	onsets := []float64{0.5, 1.0}
	beats := []float64{0.5, 1.0, 1.5}
	pitch := []PitchAnnotation{{Time: 0.5, Pitch: "A", Confidence: 1}, {Time: 1.0, Pitch: "C#", Confidence: 0.4}}

	tm, err := Build(sampleMeta(), onsets, beats, pitch)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	onsets[0] = 99
	pitch[0].Pitch = "B"
	if tm.Onsets[0] != 0.5 || tm.PitchInfo[0].Pitch != "A" {
		t.Errorf("Build did not copy its inputs: %+v", tm)
	}
}

func TestBuildEmptyEncodesArrays(t *testing.T) {
	tm, err := Build(sampleMeta(), nil, nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var buf bytes.Buffer
	if err := Encode(&buf, tm); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out := buf.String()
	for _, key := range []string{`"onsets": []`, `"beats": []`, `"pitch_info": []`} {
		if !strings.Contains(out, key) {
			t.Errorf("encoded timemap missing %s:\n%s", key, out)
		}
	}
	if !strings.Contains(out, "\n  \"metadata\": {") {
		t.Errorf("expected two-space indentation:\n%s", out)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		onsets []float64
		beats  []float64
		pitch  []PitchAnnotation
		meta   func(*Metadata)
		want   string
	}{
		{
			name:   "misaligned count",
			onsets: []float64{1},
			want:   "pitch_info has 0 entries for 1 onsets",
		},
		{
			name:   "time mismatch",
			onsets: []float64{1},
			pitch:  []PitchAnnotation{{Time: 2, Pitch: "C"}},
			want:   "does not match onset",
		},
		{
			name:   "bad pitch",
			onsets: []float64{1},
			pitch:  []PitchAnnotation{{Time: 1, Pitch: "H"}},
			want:   "is not a pitch class",
		},
		{
			name:   "negative confidence",
			onsets: []float64{1},
			pitch:  []PitchAnnotation{{Time: 1, Pitch: "C", Confidence: -0.1}},
			want:   "confidence",
		},
		{
			name:  "decreasing beats",
			beats: []float64{1, 0.5},
			want:  "beats are not non-decreasing",
		},
		{
			name:  "negative beat",
			beats: []float64{-1},
			want:  "not a non-negative time",
		},
		{
			name: "zero sample rate",
			meta: func(m *Metadata) { m.SampleRate = 0 },
			want: "sample_rate",
		},
		{
			name: "nan tempo",
			meta: func(m *Metadata) { m.Tempo = math.NaN() },
			want: "tempo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := sampleMeta()
			if tt.meta != nil {
				tt.meta(&meta)
			}
			_, err := Build(meta, tt.onsets, tt.beats, tt.pitch)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestWriteRead(t *testing.T) {
	tm, err := Build(sampleMeta(), []float64{0.25, 0.25, 1}, []float64{0.5},
		[]PitchAnnotation{
			{Time: 0.25, Pitch: "E", Confidence: 1},
			{Time: 0.25, Pitch: "E", Confidence: 1},
			{Time: 1, Pitch: "G", Confidence: 0.5},
		})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out", "timemap.json")
	if err := Write(path, tm); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !reflect.DeepEqual(got, tm) {
		t.Errorf("Read = %+v, want %+v", got, tm)
	}
}

func TestReadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	doc := map[string]any{
		"metadata":   map[string]any{"audio_file": "x", "duration": 1, "sample_rate": 22050, "tempo": 0},
		"onsets":     []float64{1},
		"beats":      []float64{},
		"pitch_info": []any{},
	}
	data, _ := json.Marshal(doc)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Read(path); err == nil {
		t.Fatal("expected error for misaligned timemap")
	}
}

func TestReadMissingArrays(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minimal.json")
	if err := os.WriteFile(path, []byte(`{"metadata":{"audio_file":"a","duration":1,"sample_rate":8000,"tempo":0}}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tm, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if tm.Onsets == nil || tm.Beats == nil || tm.PitchInfo == nil {
		t.Errorf("expected non-nil slices, got %+v", tm)
	}
}
