// Package ui is the full-screen terminal window of the slideshow.
//
// Frames produced by the engine are composited with renderer.Compositor and
// drawn with half-block characters, two image rows per terminal row. Any key
// press or a click outside the settings button quits. Moving the mouse shows
// the settings button for a few seconds; clicking it pauses the rotation and
// opens the settings editor, whose accept and cancel map to
// Controller.ApplySettings and Controller.Resume.
package ui
