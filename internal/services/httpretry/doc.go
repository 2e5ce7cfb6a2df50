// Package httpretry holds the retry policy shared by the HTTP service
// clients (narration rewrite, speech synthesis, story listing).
//
// Requests are retried on HTTP 408, 429 and 5xx responses, on network
// timeouts, and on errors marked with Temporary. Backoff doubles from
// BaseDelay up to MaxDelay; a Retry-After header takes precedence but is
// still capped at MaxDelay. Context cancellation stops retries at once.
package httpretry
