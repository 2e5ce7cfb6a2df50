// Package notifications pushes render and failure alerts to ntfy.
//
// A bare topic name publishes to ntfy.sh while a full URL targets a self-hosted
// server. Without a topic NewService returns a no-op so callers never need to
// check whether notifications are enabled.
package notifications
