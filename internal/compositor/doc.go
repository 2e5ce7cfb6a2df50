// Package compositor turns a caption layout plan into a finished video.
//
// BuildFilterGraph is pure: it maps a plan onto an ffmpeg filter_complex that
// loops and crops the background to the frame, draws the title for the whole
// video and enables each caption only during its window. Caption text is
// handed to drawtext through textfile= so story text never needs escaping.
// Renderer runs ffmpeg and publishes the output atomically.
package compositor
