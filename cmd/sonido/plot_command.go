package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-timemap/plot"
	"github.com/RyanBlaney/sonido-timemap/timemap"
	"github.com/RyanBlaney/sonido-timemap/transcode"
)

func newPlotCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "plot <audio> <timemap.json> [output.png]",
		Short: "Render a timemap over the waveform",
		Long: "Plot draws the waveform envelope with onset and beat markers. The image\n" +
			"format follows the output extension (png, svg, pdf, eps, jpg, tiff); the\n" +
			"default output is the timemap path with a .png extension.",
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, tmPath := args[0], args[1]
			output := strings.TrimSuffix(tmPath, filepath.Ext(tmPath)) + ".png"
			if len(args) == 3 {
				output = args[2]
			}
			if _, err := plot.FormatForPath(output); err != nil {
				return err
			}
			for _, path := range []string{input, tmPath} {
				if err := transcode.CheckInput(path); err != nil {
					return err
				}
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			tm, err := timemap.Read(tmPath)
			if err != nil {
				return err
			}
			w, err := decodeForAnalysis(cmd.Context(), cfg, input)
			if err != nil {
				return err
			}
			if err := plot.Save(output, w, tm, plot.DefaultOptions()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote plot to %s\n", output)
			return nil
		},
	}
}
