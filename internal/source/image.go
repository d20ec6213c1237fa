package source

import (
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ivlev/slideshow/internal/config"
)

// SupportedExtensions are matched case-insensitively against file names.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png", ".bmp"}

// IsSupported reports whether name has one of SupportedExtensions.
func IsSupported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return slices.Contains(SupportedExtensions, ext)
}

// Catalog is the ordered, cyclic list of images for one session.
type Catalog struct {
	paths []string
}

// NewCatalog wraps paths without copying or filtering them.
func NewCatalog(paths []string) *Catalog {
	return &Catalog{paths: paths}
}

// Scan lists the supported images directly inside folder. A folder that does
// not exist produces an empty catalog. With shuffle set the order is a
// uniform random permutation drawn from rng.
func Scan(folder string, shuffle bool, rng *rand.Rand) (*Catalog, error) {
	dir, err := config.ExpandPath(folder)
	if err != nil {
		return &Catalog{}, err
	}

	fi, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Catalog{}, nil
		}
		return &Catalog{}, fmt.Errorf("stat image folder: %w", err)
	}
	if !fi.IsDir() {
		return &Catalog{}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return &Catalog{}, fmt.Errorf("read image folder: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if IsSupported(entry.Name()) {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}

	if shuffle {
		if rng == nil {
			rng = rand.New(rand.NewSource(rand.Int63()))
		}
		Shuffle(paths, rng)
	}

	return &Catalog{paths: paths}, nil
}

// Shuffle permutes paths in place with Fisher-Yates, walking from the last
// index down to 1 and swapping each position with a uniformly chosen index
// at or before it.
func Shuffle(paths []string, rng *rand.Rand) {
	for i := len(paths) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		paths[i], paths[j] = paths[j], paths[i]
	}
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.paths)
}

// At returns the path at index i modulo Len. It panics on an empty catalog.
func (c *Catalog) At(i int) string {
	n := len(c.paths)
	return c.paths[((i%n)+n)%n]
}

// Paths returns a copy of the current order.
func (c *Catalog) Paths() []string {
	if c == nil {
		return nil
	}
	return slices.Clone(c.paths)
}

// IndexOf returns the position of path or -1.
func (c *Catalog) IndexOf(path string) int {
	if c == nil {
		return -1
	}
	return slices.Index(c.paths, path)
}

// Remove drops path and reports the index it held. The relative order of
// the remaining entries is unchanged.
func (c *Catalog) Remove(path string) (int, bool) {
	i := c.IndexOf(path)
	if i < 0 {
		return -1, false
	}
	c.paths = slices.Delete(c.paths, i, i+1)
	return i, true
}
