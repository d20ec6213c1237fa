package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/slideshow/internal/config"
)

func settingsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the saved settings",
	}
	cmd.AddCommand(settingsShowCmd(e), settingsSetCmd(e), settingsResetCmd(e))
	return cmd
}

func settingsShowCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := e.store(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return printSettings(cmd, store.Path(), store.Load())
		},
	}
}

func settingsSetCmd(e *env) *cobra.Command {
	var (
		folder  string
		seconds int
		shuffle bool
		mode    string
		effect  string
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change individual settings",
		Long: `Change individual settings and save them. Only the given flags change.

Examples:
  slideshow settings set --folder ~/Wallpapers --seconds 10
  slideshow settings set --mode Slide
  slideshow settings set --mode FullReplace --effect ZoomIn --shuffle=false`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := e.store(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			s := store.Load()

			flags := cmd.Flags()
			if flags.Changed("folder") {
				s.ImageFolderPath = folder
			}
			if flags.Changed("seconds") {
				s.ImageDisplayTimeSeconds = seconds
			}
			if flags.Changed("shuffle") {
				s.Shuffle = shuffle
			}
			if flags.Changed("mode") {
				if s.TransitionMode, err = config.ParseTransitionMode(mode); err != nil {
					return err
				}
			}
			if flags.Changed("effect") {
				if s.TransitionEffect, err = config.ParseTransitionEffect(effect); err != nil {
					return err
				}
			}

			if err := store.Save(s); err != nil {
				return fmt.Errorf("save settings: %w", err)
			}
			info(cmd.OutOrStdout(), "Settings saved to %s", store.Path())
			return printSettings(cmd, "", s)
		},
	}

	f := cmd.Flags()
	f.StringVar(&folder, "folder", "", "image folder")
	f.IntVar(&seconds, "seconds", 0, "seconds each image stays on screen")
	f.BoolVar(&shuffle, "shuffle", true, "shuffle the folder")
	f.StringVar(&mode, "mode", "", "transition mode: FullReplace, PartialOverlay, Slide, Scale or Rotate")
	f.StringVar(&effect, "effect", "", "transition effect: Fade, SlideLeft, SlideRight, ZoomIn, ZoomOut or Rotate")
	return cmd
}

func settingsResetCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the default settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := e.store(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := store.Save(config.Defaults()); err != nil {
				return fmt.Errorf("save settings: %w", err)
			}
			info(cmd.OutOrStdout(), "Default settings written to %s", store.Path())
			return nil
		},
	}
}

func printSettings(cmd *cobra.Command, path string, s config.Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	if path != "" {
		fmt.Fprintln(cmd.OutOrStdout(), faint("# " + path))
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}
