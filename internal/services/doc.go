// Package services defines shared utilities consumed by the pipeline stages
// and their external integrations (Reddit, the LLM, speech synthesis, stock
// footage, encoders).
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent run statuses (failed vs review).
//
// Adapters live in subpackages and return errors built with Wrap so callers
// can classify them with errors.Is.
package services
