package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/narrate/narration/backends/espeak"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"
)

var voicesCmd = &cobra.Command{
	Use:     "voices [QUERY]",
	Short:   "List the installed espeak voices",
	Long:    paragraph(fmt.Sprintf("\n%s the voices espeak can use, optionally fuzzy-filtered by QUERY. Map a locale to one of them with narration.espeak.voices in the config file.", keyword("List"))),
	Example: paragraph("narrate voices\nnarrate voices hindi"),
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b := espeak.New(narrationCfg.Espeak, log.WithPrefix("espeak"))
		voices, err := b.Voices(cmd.Context())
		if err != nil {
			return err //nolint:wrapcheck
		}

		if len(args) == 1 {
			voices = filterVoices(voices, args[0])
		}
		return printVoices(cmd.OutOrStdout(), voices)
	},
}

type voiceSource []espeak.Voice

func (v voiceSource) String(i int) string { return v[i].Language + " " + v[i].Name }
func (v voiceSource) Len() int            { return len(v) }

// filterVoices returns the voices matching query, best match first.
func filterVoices(voices []espeak.Voice, query string) []espeak.Voice {
	matches := fuzzy.FindFrom(query, voiceSource(voices))
	out := make([]espeak.Voice, 0, len(matches))
	for _, m := range matches {
		out = append(out, voices[m.Index])
	}
	return out
}

func printVoices(w io.Writer, voices []espeak.Voice) error {
	if len(voices) == 0 {
		_, err := fmt.Fprintln(w, "No voices found.")
		return err //nolint:wrapcheck
	}
	for _, v := range voices {
		if _, err := fmt.Fprintf(w, "%-14s %-3s %s\n", v.Language, v.Gender, v.Name); err != nil {
			return err //nolint:wrapcheck
		}
	}
	return nil
}
