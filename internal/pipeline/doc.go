// Package pipeline orchestrates a storyreel run from story to rendered video.
//
// Stages run in order: story, narration, then voiceover and background in
// parallel, then plan and render, with an optional archive encode. Each run
// gets a RunContext carrying its ID, request, logger and work directory;
// collaborators are injected through Options so tests can replace any remote
// service. Story, narration, voiceover and background outputs are cached in
// the store keyed by a digest of their inputs, and Request.Refresh bypasses
// the cache. Renders into the same output directory are serialized with a
// file lock.
package pipeline
