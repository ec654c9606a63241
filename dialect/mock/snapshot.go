package mock

import (
	"fmt"
	"os"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Snapshot is a point-in-time capture of a mock database's statement log,
// taken for golden-file comparison across test runs.
type Snapshot struct {
	Dialect    string    `msgpack:"dialect"`
	TakenAt    time.Time `msgpack:"taken_at"`
	Statements []string  `msgpack:"statements"`
}

// Snapshot drains the statement log into a snapshot.
func (db *DB) Snapshot() Snapshot {
	return Snapshot{
		Dialect:    db.Dialect(),
		TakenAt:    time.Now().UTC(),
		Statements: db.Statements(),
	}
}

// WriteSnapshot serializes the snapshot to path.
func WriteSnapshot(path string, s Snapshot) error {
	buf, err := msgpack.Marshal(s)
	if err != nil {
		return fmt.Errorf("mock: encoding snapshot: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("mock: writing snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot loads a snapshot written by WriteSnapshot.
func ReadSnapshot(path string) (Snapshot, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("mock: reading snapshot: %w", err)
	}
	var s Snapshot
	if err := msgpack.Unmarshal(buf, &s); err != nil {
		return Snapshot{}, fmt.Errorf("mock: decoding snapshot: %w", err)
	}
	return s, nil
}
