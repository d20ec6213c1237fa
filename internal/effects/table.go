package effects

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/slideshow/internal/config"
)

// Key identifies one mode/effect combination.
type Key struct {
	Mode   config.TransitionMode
	Effect config.TransitionEffect
}

// Table maps mode/effect combinations to curve pairs. An exact entry wins
// over an entry registered for the whole mode.
type Table struct {
	exact map[Key]Pair
	mode  map[config.TransitionMode]Pair
}

func newTable() *Table {
	return &Table{
		exact: make(map[Key]Pair),
		mode:  make(map[config.TransitionMode]Pair),
	}
}

// Lookup resolves the pair for mode and effect.
func (t *Table) Lookup(mode config.TransitionMode, effect config.TransitionEffect) (Pair, bool) {
	if t == nil {
		return Pair{}, false
	}
	if p, ok := t.exact[Key{Mode: mode, Effect: effect}]; ok {
		return p, true
	}
	p, ok := t.mode[mode]
	return p, ok
}

// With returns a copy of t with entries layered on top.
func (t *Table) With(entries ...Entry) *Table {
	out := newTable()
	for k, v := range t.exact {
		out.exact[k] = v
	}
	for k, v := range t.mode {
		out.mode[k] = v
	}
	for _, e := range entries {
		p := Pair{Out: e.Out, In: e.In}
		if e.Effect == nil {
			out.mode[e.Mode] = p
			// A mode-wide override replaces the stock per-effect entries too.
			for k := range out.exact {
				if k.Mode == e.Mode {
					delete(out.exact, k)
				}
			}
			continue
		}
		out.exact[Key{Mode: e.Mode, Effect: *e.Effect}] = p
	}
	return out
}

// TableFile is the YAML layout of a custom effect table.
type TableFile struct {
	Version string  `yaml:"version"`
	Entries []Entry `yaml:"entries"`
}

// Entry overrides one combination, or every effect of a mode when Effect
// is omitted.
type Entry struct {
	Mode   config.TransitionMode    `yaml:"mode"`
	Effect *config.TransitionEffect `yaml:"effect,omitempty"`
	Out    Track                    `yaml:"out"`
	In     Track                    `yaml:"in"`
}

func (e Entry) validate() error {
	if !e.Mode.Valid() {
		return fmt.Errorf("invalid mode %d", int(e.Mode))
	}
	if e.Effect != nil && !e.Effect.Valid() {
		return fmt.Errorf("invalid effect %d", int(*e.Effect))
	}
	if len(e.Out) == 0 && len(e.In) == 0 {
		return fmt.Errorf("%s: entry has no curves", e.Mode)
	}
	return nil
}

// ReadTable reads a custom effect table from a YAML file.
func ReadTable(path string) (*TableFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tf TableFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse effect table: %w", err)
	}
	for i, e := range tf.Entries {
		if err := e.validate(); err != nil {
			return nil, fmt.Errorf("effect table entry %d: %w", i+1, err)
		}
	}
	return &tf, nil
}

// WriteTable writes a custom effect table to a YAML file.
func WriteTable(tf *TableFile, path string) error {
	data, err := yaml.Marshal(tf)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Load returns Builtin, extended with the table at path when path is set.
func Load(path string) (*Table, error) {
	table := Builtin()
	if path == "" {
		return table, nil
	}
	tf, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	return table.With(tf.Entries...), nil
}
