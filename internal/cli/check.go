package cli

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/slideshow/internal/source"
	"github.com/ivlev/slideshow/internal/system"
)

func checkCmd(e *env) *cobra.Command {
	var folder string
	var workers int

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Decode every image in the folder and report unreadable files",
		Long: `Decode every image of the configured folder in parallel. Files that
fail here would be dropped from the rotation when the slideshow reaches them.
Exits non-zero when at least one file is unreadable.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			logger := e.logger(cmd.ErrOrStderr())
			system.InitResourceLimits(logger)

			store, err := e.store(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			s := store.Load()
			if folder != "" {
				s.ImageFolderPath = folder
			}

			cat, err := source.Scan(s.ImageFolderPath, false, nil)
			if err != nil {
				return err
			}
			if cat.Len() == 0 {
				warn(out, "No images found in %s", s.ImageFolderPath)
				return nil
			}
			if workers <= 0 {
				workers = system.WorkerCount()
			}
			info(out, "Checking %d images with %d workers", cat.Len(), workers)

			decoder := &source.FileDecoder{}
			paths := cat.Paths()
			failures := make([]error, len(paths))

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(workers)
			var mu sync.Mutex
			for i, p := range paths {
				g.Go(func() error {
					img, err := decoder.Decode(ctx, p)
					mu.Lock()
					defer mu.Unlock()
					if err != nil {
						failures[i] = err
						fmt.Fprintf(out, "%s %s %s\n", failMark(), p, faint(err.Error()))
						return nil
					}
					b := img.Bounds()
					fmt.Fprintf(out, "%s %s %s\n", okMark(), p, faint(fmt.Sprintf("%dx%d", b.Dx(), b.Dy())))
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			bad := 0
			for _, err := range failures {
				if err != nil {
					bad++
				}
			}
			if bad > 0 {
				warn(out, "%d of %d images are unreadable", bad, len(paths))
				return fmt.Errorf("%d unreadable images", bad)
			}
			info(out, "All %d images are readable", len(paths))
			return nil
		},
	}

	cmd.Flags().StringVar(&folder, "folder", "", "check this folder instead of the configured one")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel decodes (default one per CPU)")
	return cmd
}
