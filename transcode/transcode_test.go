package transcode

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/RyanBlaney/sonido-timemap/audio"
)

const probeJSON = `{"streams":[{"codec_type":"audio","codec_name":"mp3","codec_long_name":"MP3 (MPEG audio layer 3)","sample_rate":"8000","channels":2,"duration":"0.000250","bit_rate":"128000"}]}`

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func stubTools(t *testing.T, ffmpegBody string) *DecoderConfig {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs are not executable on windows")
	}
	dir := t.TempDir()
	config := DefaultDecoderConfig()
	config.FFprobePath = writeScript(t, dir, "ffprobe", "cat <<'JSON'\n"+probeJSON+"\nJSON\n")
	config.FFmpegPath = writeScript(t, dir, "ffmpeg", "if [ \"$1\" = \"-version\" ]; then exit 0; fi\n"+ffmpegBody)
	config.Timeout = 10 * time.Second
	return config
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("not really audio"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
}

func newStereo(t *testing.T) *audio.Waveform {
	t.Helper()
	w, err := audio.New([][]float64{
		{0, 0.5, -0.25, 1},
		{0.125, -0.5, 0.25, -1},
	}, 8000, "test")
	if err != nil {
		t.Fatalf("audio.New: %v", err)
	}
	return w
}

func TestWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rt.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	original := newStereo(t)
	if err := WriteWAV(f, original); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	r, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()

	got, bitDepth, err := ReadWAV(r, path)
	if err != nil {
		t.Fatalf("ReadWAV: %v", err)
	}
	if bitDepth != WAVBitDepth {
		t.Errorf("bitDepth = %d, want %d", bitDepth, WAVBitDepth)
	}
	if got.SampleRate() != 8000 || got.NumChannels() != 2 || got.Len() != 4 {
		t.Fatalf("layout = %d Hz, %d ch, %d samples", got.SampleRate(), got.NumChannels(), got.Len())
	}
	for c := range 2 {
		want := original.Channel(c)
		for i, v := range got.Channel(c) {
			if math.Abs(v-want[i]) > 1e-3 {
				t.Errorf("channel %d sample %d = %v, want %v", c, i, v, want[i])
			}
		}
	}
}

func TestDecodeFileNativeWAVMixesToMono(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := WriteWAV(f, newStereo(t)); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}
	_ = f.Close()

	config := AnalysisDecoderConfig(0)
	config.FFmpegPath = "definitely-not-a-real-ffmpeg"
	config.FFprobePath = "definitely-not-a-real-ffprobe"

	w, meta, err := NewDecoder(config).DecodeFile(context.Background(), path)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if w.NumChannels() != 1 || w.SampleRate() != 8000 {
		t.Fatalf("got %d ch at %d Hz", w.NumChannels(), w.SampleRate())
	}
	if meta.Channels != 2 || meta.Codec != "pcm_s16le" {
		t.Errorf("metadata = %+v", meta)
	}
	if v := w.Channel(0)[1]; math.Abs(v) > 1e-3 {
		t.Errorf("mono sample 1 = %v, want 0", v)
	}
}

func TestStreamInfoNativeWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := WriteWAV(f, newStereo(t)); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}
	_ = f.Close()

	config := DefaultDecoderConfig()
	config.FFmpegPath = "definitely-not-a-real-ffmpeg"
	config.FFprobePath = "definitely-not-a-real-ffprobe"

	meta, err := NewDecoder(config).StreamInfo(context.Background(), path)
	if err != nil {
		t.Fatalf("StreamInfo: %v", err)
	}
	if meta.SampleRate != 8000 || meta.Channels != 2 || meta.Codec != "pcm_s16le" || meta.Format != "wav" {
		t.Errorf("metadata = %+v", meta)
	}
	if math.Abs(meta.Duration-4.0/8000) > 1e-6 {
		t.Errorf("Duration = %v, want %v", meta.Duration, 4.0/8000)
	}

	mp3 := filepath.Join(t.TempDir(), "song.mp3")
	touch(t, mp3)
	_, err = NewDecoder(config).StreamInfo(context.Background(), mp3)
	var missing *MissingCapabilityError
	if !errors.As(err, &missing) {
		t.Errorf("compressed input err = %v, want MissingCapabilityError", err)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*DecoderConfig)
		ok     bool
	}{
		{"default", func(*DecoderConfig) {}, true},
		{"negative rate", func(c *DecoderConfig) { c.TargetSampleRate = -1 }, false},
		{"too many channels", func(c *DecoderConfig) { c.TargetChannels = 9 }, false},
		{"zero timeout", func(c *DecoderConfig) { c.Timeout = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultDecoderConfig()
			tt.mutate(config)
			err := NewDecoder(config).ValidateConfig()
			if (err == nil) != tt.ok {
				t.Errorf("ValidateConfig() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestDecodeFileInputNotFound(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.mp3")
	_, _, err := NewDecoder(nil).DecodeFile(context.Background(), missing)

	var notFound *InputNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("err = %v, want InputNotFoundError", err)
	}
	if notFound.Path != missing {
		t.Errorf("Path = %q, want %q", notFound.Path, missing)
	}
}

func TestDecodeFileMissingCapability(t *testing.T) {
	input := filepath.Join(t.TempDir(), "song.mp3")
	touch(t, input)

	config := DefaultDecoderConfig()
	config.FFmpegPath = "definitely-not-a-real-ffmpeg"

	_, _, err := NewDecoder(config).DecodeFile(context.Background(), input)
	var missing *MissingCapabilityError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingCapabilityError", err)
	}
	if len(missing.Binaries) == 0 || missing.Binaries[0] != "definitely-not-a-real-ffmpeg" {
		t.Errorf("Binaries = %v", missing.Binaries)
	}
	if !strings.Contains(missing.Guidance(), "ffmpeg") {
		t.Errorf("Guidance() = %q", missing.Guidance())
	}
}

func TestDecodeFileThroughFFmpeg(t *testing.T) {
	// Two float64 samples, 1.0 and 0.5, little endian.
	config := stubTools(t, `printf '\000\000\000\000\000\000\360\077\000\000\000\000\000\000\340\077'`+"\n")
	config.TargetSampleRate = 8000
	config.TargetChannels = 1

	input := filepath.Join(t.TempDir(), "song.mp3")
	touch(t, input)

	w, meta, err := NewDecoder(config).DecodeFile(context.Background(), input)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if meta.Codec != "mp3" || meta.Channels != 2 || meta.Bitrate != 128000 {
		t.Errorf("metadata = %+v", meta)
	}
	if got, want := w.Channel(0), []float64{1, 0.5}; !reflect.DeepEqual(got, want) {
		t.Errorf("samples = %v, want %v", got, want)
	}
	if w.SampleRate() != 8000 {
		t.Errorf("SampleRate = %d, want 8000", w.SampleRate())
	}
}

func TestDecodeFileFFmpegFailure(t *testing.T) {
	config := stubTools(t, "echo 'Invalid data found when processing input' >&2\nexit 1\n")
	input := filepath.Join(t.TempDir(), "broken.mp3")
	touch(t, input)

	_, _, err := NewDecoder(config).DecodeFile(context.Background(), input)
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("err = %v, want DecodeError", err)
	}
	if !strings.Contains(err.Error(), "Invalid data") {
		t.Errorf("error %q does not carry ffmpeg stderr", err)
	}
}

func TestParseFFprobeOutput(t *testing.T) {
	meta, err := parseFFprobeOutput([]byte(probeJSON))
	if err != nil {
		t.Fatalf("parseFFprobeOutput: %v", err)
	}
	if meta.SampleRate != 8000 || meta.Channels != 2 || meta.Codec != "mp3" {
		t.Errorf("meta = %+v", meta)
	}

	tests := []struct {
		name string
		json string
	}{
		{"garbage", "not json"},
		{"no streams", `{"streams":[]}`},
		{"video", `{"streams":[{"codec_type":"video","sample_rate":"8000","channels":1}]}`},
		{"bad rate", `{"streams":[{"codec_type":"audio","sample_rate":"abc","channels":1}]}`},
		{"no channels", `{"streams":[{"codec_type":"audio","sample_rate":"8000","channels":0}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseFFprobeOutput([]byte(tt.json)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestCodecArgs(t *testing.T) {
	tests := []struct {
		path string
		opts EncodeOptions
		want []string
	}{
		{"a.mp3", EncodeOptions{}, []string{"-c:a", "libmp3lame", "-b:a", "320k"}},
		{"a.mp3", EncodeOptions{Bitrate: 192000}, []string{"-c:a", "libmp3lame", "-b:a", "192k"}},
		{"a.M4A", EncodeOptions{}, []string{"-c:a", "aac", "-b:a", "320k"}},
		{"a.flac", EncodeOptions{Codec: "mp3"}, []string{"-c:a", "flac"}},
		{"a.mka", EncodeOptions{Codec: "opus"}, []string{"-c:a", "libopus", "-b:a", "320k"}},
		{"a.mka", EncodeOptions{Codec: "alac"}, []string{"-c:a", "alac"}},
		{"a.raw", EncodeOptions{}, []string{"-c:a", "pcm_s16le"}},
	}
	for _, tt := range tests {
		if got := codecArgs(tt.path, tt.opts); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("codecArgs(%q, %+v) = %v, want %v", tt.path, tt.opts, got, tt.want)
		}
	}
}

func TestEncodeFileWAV(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "out.wav")
	if err := NewEncoder(nil).EncodeFile(context.Background(), newStereo(t), out, EncodeOptions{Codec: "pcm_s16le"}); err != nil {
		t.Fatalf("EncodeFile: %v", err)
	}
	w, _, err := NewDecoder(nil).DecodeFile(context.Background(), out)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if w.NumChannels() != 2 || w.Len() != 4 {
		t.Errorf("read back %d ch, %d samples", w.NumChannels(), w.Len())
	}
}

func TestEncodeFileWAVIgnoresSourceCodec(t *testing.T) {
	config := DefaultDecoderConfig()
	config.FFmpegPath = filepath.Join(t.TempDir(), "no-ffmpeg")
	out := filepath.Join(t.TempDir(), "clip.wav")
	if err := NewEncoder(config).EncodeFile(context.Background(), newStereo(t), out, EncodeOptions{Codec: "mp3", Bitrate: 128000}); err != nil {
		t.Fatalf("EncodeFile: %v", err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	if _, depth, err := ReadWAV(f, out); err != nil || depth != WAVBitDepth {
		t.Errorf("ReadWAV depth=%d err=%v", depth, err)
	}
}

func TestEncodeFileThroughFFmpeg(t *testing.T) {
	config := stubTools(t, "cat > /dev/null\nfor last; do :; done\nprintf 'ENCODED' > \"$last\"\n")
	out := filepath.Join(t.TempDir(), "clip.mp3")

	if err := NewEncoder(config).EncodeFile(context.Background(), newStereo(t), out, EncodeOptions{Codec: "mp3"}); err != nil {
		t.Fatalf("EncodeFile: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "ENCODED" {
		t.Errorf("output = %q", data)
	}
}

func TestEncodeFileFailureLeavesNoOutput(t *testing.T) {
	config := stubTools(t, "cat > /dev/null\necho 'Unknown encoder' >&2\nexit 1\n")
	dir := t.TempDir()
	out := filepath.Join(dir, "clip.mp3")

	err := NewEncoder(config).EncodeFile(context.Background(), newStereo(t), out, EncodeOptions{})
	var encodeErr *EncodeError
	if !errors.As(err, &encodeErr) {
		t.Fatalf("err = %v, want EncodeError", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected no files, found %d", len(entries))
	}
}
