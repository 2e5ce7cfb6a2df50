// Package preflight provides readiness checks for the binaries, directories
// and credentials storyreel depends on.
//
// The pipeline calls RunLocal before each render and stops on any blocking
// failure so a run does not spend API quota only to fail at compositing. The
// "storyreel status" command calls RunAll, which adds a live LLM health check.
// Optional results (Reddit OAuth, Pexels with a default background) are shown
// but never block.
package preflight
