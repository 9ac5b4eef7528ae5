package transcode

import (
	"fmt"
	"strings"
)

// InputNotFoundError reports a missing input path. It is raised before any
// decoding starts.
type InputNotFoundError struct {
	Path string
}

func (e *InputNotFoundError) Error() string {
	return fmt.Sprintf("input file %q not found", e.Path)
}

// MissingCapabilityError reports that a required external binary is absent or
// does not run.
type MissingCapabilityError struct {
	Binaries []string
	Detail   string
}

func (e *MissingCapabilityError) Error() string {
	msg := fmt.Sprintf("required audio tooling unavailable: %s", strings.Join(e.Binaries, ", "))
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

// Guidance returns installation advice suitable for printing to a user.
func (e *MissingCapabilityError) Guidance() string {
	return "install FFmpeg (which provides ffmpeg and ffprobe) and make sure it is on PATH, " +
		"or point [decoder] ffmpeg_path / ffprobe_path in the config file at the binaries; " +
		"e.g. `apt install ffmpeg` or `brew install ffmpeg`"
}

// DecodeError wraps a failed decode of Path.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// EncodeError wraps a failed encode to Path.
type EncodeError struct {
	Path string
	Err  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s: %v", e.Path, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}
