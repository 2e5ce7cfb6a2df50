// Package llm rewrites Reddit stories into narration through an OpenRouter
// or OpenAI compatible chat completion endpoint.
//
// Complete sends a single chat turn. RewriteStory wraps it with the
// storyteller prompt and cuts the source to its first 500 words unless told
// otherwise. HealthCheck asks for a fixed one-word reply and is what
// preflight uses to prove the key and model work.
//
// Retries follow httpretry: 408, 429, 5xx, network timeouts and replies with
// no content are attempted again, five times by default.
package llm
