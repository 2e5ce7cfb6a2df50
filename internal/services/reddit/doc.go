// Package reddit fetches the top self post of a subreddit for narration.
//
// With client credentials the client uses the OAuth API (application-only
// token, refreshed shortly before expiry); without them it reads the public
// JSON listing. Requests share a golang.org/x/time/rate limiter so a burst of
// runs stays inside Reddit's request budget.
package reddit
