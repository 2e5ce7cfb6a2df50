// Package logging builds the slog loggers storyreel uses.
//
// Console output is a single line per record with the component pulled to
// the front; JSON output uses ts/level/msg keys. NewRunLogger tees a logger
// into a per-run JSON file that the logs package can tail later, and
// PruneRunLogs removes run files past the retention window.
package logging
