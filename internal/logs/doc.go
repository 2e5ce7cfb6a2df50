// Package logs reads the per-run JSON log files written by the pipeline.
//
// Tail returns the last lines of a file with bounded memory, Follow polls for
// lines appended after an offset, and Parse/Format turn slog JSON records into
// one-line summaries for `storyreel logs`.
package logs
