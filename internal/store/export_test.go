package store

import (
	"fmt"
	"time"
)

// SetClock overrides the timestamp source for deterministic tests.
func SetClock(s *Store, now func() time.Time) {
	s.now = now
}

// SetSchemaVersion overwrites the recorded schema version.
func SetSchemaVersion(s *Store, version int) error {
	_, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", version))
	return err
}
