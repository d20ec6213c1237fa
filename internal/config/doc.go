// Package config holds the slideshow Settings record and its persistence.
//
// # Settings
//
// Settings carries the folder to show, how long each image stays on screen,
// whether the folder is shuffled and which transition plays between images.
// Defaults returns a record that is always valid:
//
//   - imageFolderPath: ~/Pictures
//   - imageDisplayTimeSeconds: 5
//   - shuffle: true
//   - transitionMode: FullReplace
//   - transitionEffect: Fade
//
// # Store
//
// A Store reads and writes one file. The encoding follows the extension:
// .yaml/.yml (default), .toml or .json. Load never fails: a missing,
// malformed or out-of-schema file is replaced by Defaults and the defaults
// are written back so the next start finds a clean file. Keys missing from
// an otherwise valid file keep their default value.
//
// Save returns write failures to the caller; the running slideshow keeps its
// in-memory settings when that happens.
//
//	store, err := config.NewStore("", logger)
//	settings := store.Load()
//	settings.Shuffle = false
//	if err := store.Save(settings); err != nil {
//		logger.Warn("save failed", "error", err)
//	}
package config
