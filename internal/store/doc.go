// Package store persists the artifact cache index and the run ledger in SQLite.
//
// Cached stage outputs are addressed by Key{Stage, Digest}, where the digest
// hashes everything that influenced the output. Blobs live on disk under
// cache_dir/blobs/<aa>/<sha256><ext> and are shared between keys with identical
// content. The same database records every pipeline run so the CLI and HTTP API
// can report history.
//
// The schema is versioned; a mismatch surfaces ErrSchemaMismatch rather than
// attempting an in-place migration.
package store
