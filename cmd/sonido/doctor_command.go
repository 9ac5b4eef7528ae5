package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-timemap/deps"
	"github.com/RyanBlaney/sonido-timemap/transcode"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor [audio]",
		Short: "Check that ffmpeg and ffprobe are available",
		Long: "Doctor reports the external binaries used for compressed formats. WAV\n" +
			"input and segment output work without them. Given an audio file, it also\n" +
			"reports the file's stream properties without decoding it.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				meta, err := transcode.NewDecoder(cfg.DecoderConfig()).StreamInfo(cmd.Context(), args[0])
				var missingErr *transcode.MissingCapabilityError
				switch {
				case errors.As(err, &missingErr):
					fmt.Fprintf(out, "Cannot read stream properties of %s without ffprobe.\n\n", args[0])
				case err != nil:
					return err
				default:
					renderStreamProperties(out, args[0], meta)
				}
			}

			statuses := deps.CheckBinaries(deps.FFmpegRequirements(cfg.Decoder.FFmpegPath, cfg.Decoder.FFprobePath))

			rows := make([][]string, len(statuses))
			for i, s := range statuses {
				location := s.Path
				if !s.Available {
					location = s.Detail
				}
				rows[i] = []string{s.Name, yesNo(s.Available), location, s.Description}
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Tool", "Available", "Path", "Used for"},
				rows,
				nil,
			))

			missing := deps.Missing(statuses)
			if len(missing) == 0 {
				return nil
			}
			names := make([]string, len(missing))
			for i, s := range missing {
				names[i] = s.Command
			}
			return &transcode.MissingCapabilityError{Binaries: names}
		},
	}
}

func renderStreamProperties(out io.Writer, path string, meta *transcode.AudioMetadata) {
	bitrate := "-"
	if meta.Bitrate > 0 {
		bitrate = fmt.Sprintf("%d kb/s", meta.Bitrate/1000)
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Stream", "Value"},
		[][]string{
			{"File", path},
			{"Format", meta.Format},
			{"Codec", meta.Codec},
			{"Sample rate", fmt.Sprintf("%d Hz", meta.SampleRate)},
			{"Channels", strconv.Itoa(meta.Channels)},
			{"Duration", fmt.Sprintf("%.3fs", meta.Duration)},
			{"Bitrate", bitrate},
		},
		[]columnAlignment{alignLeft, alignLeft},
	))
}
