package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-timemap/logging"
	"github.com/RyanBlaney/sonido-timemap/sample"
	"github.com/RyanBlaney/sonido-timemap/transcode"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var trimSilence bool

	cmd := &cobra.Command{
		Use:   "extract <input> <output> <seconds>",
		Short: "Cut the first seconds of a recording into a new file",
		Long: "Extract writes the first <seconds> of <input> to <output>, encoded with the\n" +
			"codec implied by the output extension or, failing that, the input's codec.\n" +
			"With --trim-silence the excerpt starts after any leading near-silence.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, output := args[0], args[1]
			seconds, err := strconv.ParseFloat(args[2], 64)
			if err != nil || seconds <= 0 {
				return fmt.Errorf("seconds must be a positive number, got %q", args[2])
			}
			if err := transcode.CheckInput(input); err != nil {
				return err
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dc := cfg.DecoderConfig()
			decoder := transcode.NewDecoder(dc)
			if transcode.NeedsFFmpeg(input) || transcode.NeedsFFmpeg(output) {
				if err := decoder.CheckAvailability(); err != nil {
					return err
				}
			}

			w, meta, err := decoder.DecodeFile(cmd.Context(), input)
			if err != nil {
				return err
			}

			opts := sample.DefaultOptions(seconds)
			opts.TrimSilence = trimSilence
			opts.SilenceOffsetDB = cfg.Sample.SilenceOffsetDB
			opts.ChunkMs = cfg.Sample.ChunkMs
			result, err := sample.Extract(w, opts)
			if err != nil {
				return err
			}

			encoder := transcode.NewEncoder(dc)
			encodeOpts := transcode.EncodeOptions{Codec: meta.Codec, Bitrate: meta.Bitrate}
			if err := encoder.EncodeFile(cmd.Context(), result.Audio, output, encodeOpts); err != nil {
				return err
			}

			logging.Info("Extracted sample", logging.Fields{
				"input":        input,
				"output":       output,
				"trim_seconds": fmt.Sprintf("%.3f", float64(result.TrimSamples)/float64(w.SampleRate())),
				"duration":     fmt.Sprintf("%.3f", result.Audio.Duration()),
			})
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %.3fs sample to %s\n", result.Audio.Duration(), output)
			return nil
		},
	}

	cmd.Flags().BoolVar(&trimSilence, "trim-silence", false, "Skip leading silence before extracting")
	return cmd
}
