// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect runs ffprobe and returns the parsed Result. AudioDuration is the
// entry point the pipeline uses to time captions against a voiceover.
package ffprobe
