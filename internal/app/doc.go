// Package app wires the settings store, effect table, decoder, rotation
// controller and terminal window into one running slideshow.
package app
