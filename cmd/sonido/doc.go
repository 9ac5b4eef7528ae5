// Command sonido analyzes and slices audio files.
//
// Subcommands generate onset/beat/pitch timemaps (timemap), render them over
// the waveform (plot), print them (show), cut leading samples (extract),
// chop recordings into fixed-length or beat-aligned WAV segments (chop) and
// report on the external ffmpeg tooling (doctor). Settings are read from
// TOML; see `sonido config init`.
package main
