package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-timemap/analysis"
	"github.com/RyanBlaney/sonido-timemap/audio"
	"github.com/RyanBlaney/sonido-timemap/config"
	"github.com/RyanBlaney/sonido-timemap/timemap"
	"github.com/RyanBlaney/sonido-timemap/transcode"
)

func newTimemapCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "timemap <audio> <output.json>",
		Short: "Write onset, beat and pitch timings of an audio file as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, output := args[0], args[1]
			if err := transcode.CheckInput(input); err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			w, err := decodeForAnalysis(cmd.Context(), cfg, input)
			if err != nil {
				return err
			}
			generator, err := newGenerator(cfg)
			if err != nil {
				return err
			}
			tm, err := generator.Generate(w)
			if err != nil {
				return err
			}
			if err := timemap.Write(output, tm); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote timemap to %s (%d onsets, %d beats, tempo %.1f BPM)\n",
				output, len(tm.Onsets), len(tm.Beats), tm.Metadata.Tempo)
			return nil
		},
	}
}

func decodeForAnalysis(ctx context.Context, cfg *config.Config, path string) (*audio.Waveform, error) {
	w, _, err := transcode.NewDecoder(cfg.AnalysisDecoderConfig()).DecodeFile(ctx, path)
	return w, err
}

func newGenerator(cfg *config.Config) (*analysis.Generator, error) {
	native, err := analysis.NewNative(cfg.AnalysisParams())
	if err != nil {
		return nil, err
	}
	return analysis.NewGenerator(native), nil
}
