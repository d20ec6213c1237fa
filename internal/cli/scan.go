package cli

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/slideshow/internal/source"
)

func scanCmd(e *env) *cobra.Command {
	var folder string
	var seed int64

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List the images the slideshow would show, in display order",
		Long: `List the images of the configured folder in the order the slideshow
would show them. With shuffle enabled the order changes on every run unless
--seed is given.

Examples:
  slideshow scan
  slideshow scan --folder ~/Wallpapers --seed 1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			store, err := e.store(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			s := store.Load()
			if folder != "" {
				s.ImageFolderPath = folder
			}
			if seed == 0 {
				seed = time.Now().UnixNano()
			}

			cat, err := source.Scan(s.ImageFolderPath, s.Shuffle, rand.New(rand.NewSource(seed)))
			if err != nil {
				return err
			}
			if cat.Len() == 0 {
				warn(out, "No images found in %s", s.ImageFolderPath)
				return nil
			}

			info(out, "Found %d images in %s", cat.Len(), s.ImageFolderPath)
			for i, p := range cat.Paths() {
				fmt.Fprintf(cmd.OutOrStdout(), "%4d  %s\n", i+1, p)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&folder, "folder", "", "scan this folder instead of the configured one")
	cmd.Flags().Int64Var(&seed, "seed", 0, "shuffle seed (default random)")
	return cmd
}
