// Package api serves caption planning and run history over HTTP.
//
// The router is built on chi. POST /api/plan validates its body with
// validator struct tags and answers 422 when the planner rejects the
// duration. Every route except /api/health requires the configured bearer
// token when paths.api_token is set. Payloads use camelCase keys and
// millisecond RFC3339 timestamps.
package api
