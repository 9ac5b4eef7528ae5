package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-timemap/timemap"
	"github.com/RyanBlaney/sonido-timemap/transcode"
)

func newShowCommand() *cobra.Command {
	var listOnsets bool

	cmd := &cobra.Command{
		Use:         "show <timemap.json>",
		Short:       "Summarize a timemap file",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := transcode.CheckInput(args[0]); err != nil {
				return err
			}
			tm, err := timemap.Read(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			meta := tm.Metadata
			fmt.Fprintln(out, renderTable(
				[]string{"Field", "Value"},
				[][]string{
					{"Audio file", meta.AudioFile},
					{"Duration", fmt.Sprintf("%.3fs", meta.Duration)},
					{"Sample rate", fmt.Sprintf("%d Hz", meta.SampleRate)},
					{"Tempo", fmt.Sprintf("%.2f BPM", meta.Tempo)},
					{"Onsets", fmt.Sprintf("%d", len(tm.Onsets))},
					{"Beats", fmt.Sprintf("%d", len(tm.Beats))},
					{"Pitch histogram", pitchHistogram(tm.PitchInfo)},
				},
				[]columnAlignment{alignLeft, alignLeft},
			))

			if listOnsets && len(tm.PitchInfo) > 0 {
				rows := make([][]string, len(tm.PitchInfo))
				for i, p := range tm.PitchInfo {
					rows[i] = []string{
						fmt.Sprintf("%d", i),
						fmt.Sprintf("%.3f", p.Time),
						p.Pitch,
						fmt.Sprintf("%.3f", p.Confidence),
					}
				}
				fmt.Fprintln(out, renderTable(
					[]string{"#", "Time (s)", "Pitch", "Confidence"},
					rows,
					[]columnAlignment{alignRight, alignRight, alignLeft, alignRight},
				))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&listOnsets, "onsets", false, "List every onset with its pitch")
	return cmd
}

// pitchHistogram renders per-class onset counts in pitch-class order,
// omitting classes that never occur.
func pitchHistogram(pitch []timemap.PitchAnnotation) string {
	counts := make(map[string]int, len(timemap.PitchClasses))
	for _, p := range pitch {
		counts[p.Pitch]++
	}
	var s string
	for _, name := range timemap.PitchClasses {
		if counts[name] == 0 {
			continue
		}
		if s != "" {
			s += " "
		}
		s += fmt.Sprintf("%s:%d", name, counts[name])
	}
	if s == "" {
		return "-"
	}
	return s
}
