package store

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Stage names a cacheable pipeline step.
type Stage string

const (
	StageStory      Stage = "story"
	StageNarration  Stage = "narration"
	StageVoiceover  Stage = "voiceover"
	StageBackground Stage = "background"
)

// Key addresses one cached artifact. Digest is the SHA-256 of the stage inputs.
type Key struct {
	Stage  Stage
	Digest string
}

func (k Key) String() string {
	digest := k.Digest
	if len(digest) > 12 {
		digest = digest[:12]
	}
	return string(k.Stage) + "/" + digest
}

func (k Key) validate() error {
	if strings.TrimSpace(string(k.Stage)) == "" {
		return errors.New("artifact key stage is required")
	}
	if strings.TrimSpace(k.Digest) == "" {
		return errors.New("artifact key digest is required")
	}
	return nil
}

// Digest hashes the given inputs into a cache key digest. Parts are separated
// so that ("ab", "c") and ("a", "bc") produce different digests.
func Digest(parts ...string) string {
	h := sha256.New()
	for _, part := range parts {
		_, _ = io.WriteString(h, part)
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Artifact describes a cached blob.
type Artifact struct {
	Key        Key
	Path       string
	BlobSHA    string
	SizeBytes  int64
	Ext        string
	CreatedAt  time.Time
	AccessedAt time.Time
}

const artifactColumns = "stage, digest, blob_sha, size_bytes, ext, created_at, accessed_at"

func (s *Store) scanArtifact(scanner interface{ Scan(dest ...any) error }) (Artifact, error) {
	var (
		stage, digest, blobSHA string
		size                   int64
		ext                    sql.NullString
		createdRaw, accessRaw  string
	)
	if err := scanner.Scan(&stage, &digest, &blobSHA, &size, &ext, &createdRaw, &accessRaw); err != nil {
		return Artifact{}, err
	}
	art := Artifact{
		Key:       Key{Stage: Stage(stage), Digest: digest},
		BlobSHA:   blobSHA,
		SizeBytes: size,
		Ext:       ext.String,
		Path:      s.blobPath(blobSHA, ext.String),
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		art.CreatedAt = created
	}
	if accessed, err := parseTimeString(accessRaw); err == nil {
		art.AccessedAt = accessed
	}
	return art, nil
}

func (s *Store) blobPath(sha, ext string) string {
	prefix := sha
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	return filepath.Join(s.blobDir, prefix, sha+ext)
}

// Get returns the artifact stored under key. A row whose blob disappeared from
// disk is dropped and reported as a miss.
func (s *Store) Get(ctx context.Context, key Key) (Artifact, bool, error) {
	ctx = ensureContext(ctx)
	if err := key.validate(); err != nil {
		return Artifact{}, false, err
	}
	row := s.db.QueryRowContext(ctx,
		"SELECT "+artifactColumns+" FROM artifacts WHERE stage = ? AND digest = ?",
		string(key.Stage), key.Digest)
	art, err := s.scanArtifact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Artifact{}, false, nil
	}
	if err != nil {
		return Artifact{}, false, fmt.Errorf("get artifact %s: %w", key, err)
	}

	if _, statErr := os.Stat(art.Path); statErr != nil {
		if errors.Is(statErr, fs.ErrNotExist) {
			if _, delErr := s.Delete(ctx, key); delErr != nil {
				return Artifact{}, false, delErr
			}
			return Artifact{}, false, nil
		}
		return Artifact{}, false, fmt.Errorf("stat artifact blob: %w", statErr)
	}

	now := s.timestamp()
	if _, err := s.execWithRetry(ctx,
		"UPDATE artifacts SET accessed_at = ? WHERE stage = ? AND digest = ?",
		now, string(key.Stage), key.Digest); err != nil {
		return Artifact{}, false, fmt.Errorf("touch artifact %s: %w", key, err)
	}
	if touched, err := parseTimeString(now); err == nil {
		art.AccessedAt = touched
	}
	return art, true, nil
}

// Put copies the file at src into the blob store and indexes it under key,
// replacing any previous entry. The source file is left in place.
func (s *Store) Put(ctx context.Context, key Key, src string) (Artifact, error) {
	ctx = ensureContext(ctx)
	if err := key.validate(); err != nil {
		return Artifact{}, err
	}
	in, err := os.Open(src)
	if err != nil {
		return Artifact{}, fmt.Errorf("open artifact source: %w", err)
	}
	defer in.Close()
	return s.put(ctx, key, in, filepath.Ext(src))
}

// PutBytes stores data under key with the given file extension.
func (s *Store) PutBytes(ctx context.Context, key Key, data []byte, ext string) (Artifact, error) {
	ctx = ensureContext(ctx)
	if err := key.validate(); err != nil {
		return Artifact{}, err
	}
	return s.put(ctx, key, bytes.NewReader(data), ext)
}

func (s *Store) put(ctx context.Context, key Key, r io.Reader, ext string) (Artifact, error) {
	if err := os.MkdirAll(s.blobDir, 0o755); err != nil {
		return Artifact{}, fmt.Errorf("create blob dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.blobDir, ".incoming-*")
	if err != nil {
		return Artifact{}, fmt.Errorf("create blob temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, hasher), r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return Artifact{}, fmt.Errorf("write blob: %w", err)
	}
	sha := hex.EncodeToString(hasher.Sum(nil))

	dest := s.blobPath(sha, ext)
	if _, statErr := os.Stat(dest); errors.Is(statErr, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return Artifact{}, fmt.Errorf("create blob shard: %w", err)
		}
		if err := os.Rename(tmpPath, dest); err != nil {
			return Artifact{}, fmt.Errorf("commit blob: %w", err)
		}
	}

	previous, hadPrevious, err := s.lookup(ctx, key)
	if err != nil {
		return Artifact{}, err
	}

	now := s.timestamp()
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO artifacts (stage, digest, blob_sha, size_bytes, ext, created_at, accessed_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(stage, digest) DO UPDATE SET
            blob_sha = excluded.blob_sha,
            size_bytes = excluded.size_bytes,
            ext = excluded.ext,
            created_at = excluded.created_at,
            accessed_at = excluded.accessed_at`,
		string(key.Stage), key.Digest, sha, size, nullableString(ext), now, now,
	); err != nil {
		return Artifact{}, fmt.Errorf("index artifact %s: %w", key, err)
	}
	if hadPrevious && (previous.BlobSHA != sha || previous.Ext != ext) {
		if err := s.removeBlobIfOrphaned(ctx, previous.BlobSHA, previous.Ext); err != nil {
			return Artifact{}, err
		}
	}

	stamp, _ := parseTimeString(now)
	return Artifact{
		Key:        key,
		Path:       dest,
		BlobSHA:    sha,
		SizeBytes:  size,
		Ext:        ext,
		CreatedAt:  stamp,
		AccessedAt: stamp,
	}, nil
}

func (s *Store) lookup(ctx context.Context, key Key) (Artifact, bool, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+artifactColumns+" FROM artifacts WHERE stage = ? AND digest = ?",
		string(key.Stage), key.Digest)
	art, err := s.scanArtifact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Artifact{}, false, nil
	}
	if err != nil {
		return Artifact{}, false, fmt.Errorf("lookup artifact %s: %w", key, err)
	}
	return art, true, nil
}

// List returns cached artifacts, most recently used first. An empty stage lists all.
func (s *Store) List(ctx context.Context, stage Stage) ([]Artifact, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + artifactColumns + " FROM artifacts"
	var args []any
	if stage != "" {
		query += " WHERE stage = ?"
		args = append(args, string(stage))
	}
	query += " ORDER BY accessed_at DESC, stage, digest"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []Artifact
	for rows.Next() {
		art, err := s.scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		artifacts = append(artifacts, art)
	}
	return artifacts, rows.Err()
}

// Delete removes the index entry for key and its blob when no other entry shares it.
func (s *Store) Delete(ctx context.Context, key Key) (bool, error) {
	ctx = ensureContext(ctx)
	art, ok, err := s.lookup(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if _, err := s.execWithRetry(ctx,
		"DELETE FROM artifacts WHERE stage = ? AND digest = ?",
		string(key.Stage), key.Digest); err != nil {
		return false, fmt.Errorf("delete artifact %s: %w", key, err)
	}
	if err := s.removeBlobIfOrphaned(ctx, art.BlobSHA, art.Ext); err != nil {
		return true, err
	}
	return true, nil
}

// Prune removes artifacts that have not been used within olderThan and
// returns how many entries were dropped.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int, error) {
	ctx = ensureContext(ctx)
	cutoff := s.now().Add(-olderThan).UTC().Format(time.RFC3339Nano)

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+artifactColumns+" FROM artifacts WHERE accessed_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("select stale artifacts: %w", err)
	}
	var stale []Artifact
	for rows.Next() {
		art, scanErr := s.scanArtifact(rows)
		if scanErr != nil {
			rows.Close()
			return 0, fmt.Errorf("scan artifact: %w", scanErr)
		}
		stale = append(stale, art)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	removed := 0
	for _, art := range stale {
		ok, err := s.Delete(ctx, art.Key)
		if err != nil {
			return removed, err
		}
		if ok {
			removed++
		}
	}
	return removed, nil
}

// Clear drops every artifact and deletes the blob directory.
func (s *Store) Clear(ctx context.Context) (int, error) {
	ctx = ensureContext(ctx)
	res, err := s.execWithRetry(ctx, "DELETE FROM artifacts")
	if err != nil {
		return 0, fmt.Errorf("clear artifacts: %w", err)
	}
	if err := os.RemoveAll(s.blobDir); err != nil {
		return 0, fmt.Errorf("remove blob dir: %w", err)
	}
	affected, _ := res.RowsAffected()
	return int(affected), nil
}

func (s *Store) removeBlobIfOrphaned(ctx context.Context, sha, ext string) error {
	var refs int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM artifacts WHERE blob_sha = ? AND COALESCE(ext, '') = ?",
		sha, ext).Scan(&refs); err != nil {
		return fmt.Errorf("count blob references: %w", err)
	}
	if refs > 0 {
		return nil
	}
	if err := os.Remove(s.blobPath(sha, ext)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove blob: %w", err)
	}
	return nil
}
