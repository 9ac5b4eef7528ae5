package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-timemap/audio"
	"github.com/RyanBlaney/sonido-timemap/config"
	"github.com/RyanBlaney/sonido-timemap/logging"
	"github.com/RyanBlaney/sonido-timemap/segment"
	"github.com/RyanBlaney/sonido-timemap/transcode"
)

type chopOptions struct {
	outputDir       string
	duration        float64
	mode            string
	beatsPerSegment int
}

func newChopCommand(ctx *commandContext) *cobra.Command {
	def := config.Default().Segment
	opts := chopOptions{
		outputDir:       def.OutputDir,
		duration:        def.Duration,
		mode:            def.Mode,
		beatsPerSegment: def.BeatsPerSegment,
	}

	cmd := &cobra.Command{
		Use:   "chop <input>",
		Short: "Split a recording into fixed-length or beat-aligned WAV segments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			if err := transcode.CheckInput(input); err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("output") {
				opts.outputDir = cfg.Segment.OutputDir
			}
			if !flags.Changed("duration") {
				opts.duration = cfg.Segment.Duration
			}
			if !flags.Changed("mode") {
				opts.mode = cfg.Segment.Mode
			}
			if !flags.Changed("beats") {
				opts.beatsPerSegment = cfg.Segment.BeatsPerSegment
			}

			mode, err := segment.ParseMode(opts.mode)
			if err != nil {
				return err
			}
			switch {
			case mode == segment.ModeTime && opts.duration <= 0:
				return fmt.Errorf("duration must be positive, got %v", opts.duration)
			case mode == segment.ModeBeat && opts.beatsPerSegment <= 0:
				return fmt.Errorf("beats per segment must be positive, got %d", opts.beatsPerSegment)
			}

			w, _, err := transcode.NewDecoder(cfg.DecoderConfig()).DecodeFile(cmd.Context(), input)
			if err != nil {
				return err
			}

			var segments []segment.Segment
			switch mode {
			case segment.ModeBeat:
				times, err := trackBeats(cfg, w)
				if err != nil {
					return err
				}
				segments, err = segment.ByBeats(w, times, opts.beatsPerSegment)
				if err != nil {
					return err
				}
			default:
				segments, err = segment.ByDuration(w, opts.duration)
				if err != nil {
					return err
				}
			}

			prefix := segment.Prefix(mode, opts.duration, opts.beatsPerSegment)
			paths, err := segment.WriteAll(opts.outputDir, prefix, segments)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(paths) == 0 {
				fmt.Fprintln(out, "No segments produced")
				return nil
			}
			rows := make([][]string, len(segments))
			sr := float64(w.SampleRate())
			for i, s := range segments {
				rows[i] = []string{
					fmt.Sprintf("%d", s.Index),
					filepath.Base(paths[i]),
					fmt.Sprintf("%.3f", float64(s.Start)/sr),
					fmt.Sprintf("%.3f", float64(s.End-s.Start)/sr),
				}
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "File", "Start (s)", "Length (s)"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignRight},
			))
			fmt.Fprintf(out, "Wrote %d segments to %s\n", len(paths), opts.outputDir)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.outputDir, "output", "o", opts.outputDir, "Directory for segment files")
	flags.Float64VarP(&opts.duration, "duration", "d", opts.duration, "Segment length in seconds (time mode)")
	flags.StringVarP(&opts.mode, "mode", "m", opts.mode, "Segmentation mode: time or beat")
	flags.IntVarP(&opts.beatsPerSegment, "beats", "b", opts.beatsPerSegment, "Beats per segment (beat mode)")
	return cmd
}

// trackBeats tracks beats on a mono copy of w at the analysis rate. The times
// apply unchanged to w itself.
func trackBeats(cfg *config.Config, w *audio.Waveform) ([]float64, error) {
	analysisAudio := w.MonoWaveform()
	if rate := cfg.Analysis.SampleRate; rate > 0 && rate != analysisAudio.SampleRate() {
		resampled, err := analysisAudio.Resample(rate)
		if err != nil {
			return nil, err
		}
		analysisAudio = resampled
	}
	generator, err := newGenerator(cfg)
	if err != nil {
		return nil, err
	}
	times, tempo, err := generator.BeatTimes(analysisAudio)
	if err != nil {
		return nil, err
	}
	logging.Info("Tracked beats", logging.Fields{
		"beats": len(times),
		"tempo": fmt.Sprintf("%.2f", tempo),
	})
	return times, nil
}
