// Package main hosts the storyreel CLI.
//
// Commands plan caption layouts, render videos through the pipeline, inspect
// the artifact cache and run ledger, report preflight status, and serve the
// HTTP API. Configuration and the store are resolved once per invocation in
// commandContext so subcommands stay declarative.
package main
