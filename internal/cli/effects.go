package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ivlev/slideshow/internal/config"
	"github.com/ivlev/slideshow/internal/effects"
)

func effectsCmd(e *env) *cobra.Command {
	var export string

	cmd := &cobra.Command{
		Use:   "effects",
		Short: "Print the transition played for every mode and effect",
		Long: `Print the outgoing and incoming curves for every mode/effect pair,
including overrides from --effects. Translation is in image widths.

--export writes the resolved table as a YAML effect file that can be edited
and passed back with --effects.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := effects.Load(e.v.GetString(keyEffects))
			if err != nil {
				return fmt.Errorf("load effect table: %w", err)
			}

			tf := &effects.TableFile{Version: "1"}
			for _, mode := range config.TransitionModes() {
				fmt.Fprintln(cmd.OutOrStdout(), mode.String())
				for _, effect := range config.TransitionEffects() {
					pair, ok := table.Lookup(mode, effect)
					if !ok {
						fmt.Fprintf(cmd.OutOrStdout(), "  %-11s %s\n", effect, faint("pause"))
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "  %-11s out %s  in %s\n", effect, formatTrack(pair.Out), formatTrack(pair.In))
					tf.Entries = append(tf.Entries, effects.Entry{Mode: mode, Effect: &effect, Out: pair.Out, In: pair.In})
				}
			}

			if export != "" {
				if err := effects.WriteTable(tf, export); err != nil {
					return fmt.Errorf("export effect table: %w", err)
				}
				info(cmd.OutOrStdout(), "Effect table written to %s", export)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&export, "export", "", "write the resolved table to this YAML file")
	return cmd
}

func formatTrack(t effects.Track) string {
	if len(t) == 0 {
		return "-"
	}
	parts := make([]string, len(t))
	for i, c := range t {
		parts[i] = fmt.Sprintf("%s %g→%g", c.Property, c.From, c.To)
	}
	return strings.Join(parts, ", ")
}
