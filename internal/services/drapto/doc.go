// Package drapto wraps the Drapto Go library so a finished reel can be
// archived as AV1 alongside the H.264 delivery file.
//
// Library is the only Client implementation; its reporter adapter flattens
// Drapto's callbacks into ProgressUpdate values that the pipeline logs.
package drapto
