package analytics

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// ExportVersion is written into every snapshot.
const ExportVersion = "1.0"

// Snapshot is the portable export document.
type Snapshot struct {
	ExportDate time.Time `json:"exportDate"`
	Version    string    `json:"version"`
	UserData   *Record   `json:"userData"`
}

// Export captures the current record.
func (s *Store) Export(ctx context.Context) Snapshot {
	rec := s.Query(ctx)
	return Snapshot{
		ExportDate: s.now(),
		Version:    ExportVersion,
		UserData:   &rec,
	}
}

// ExportJSON encodes Export as indented JSON.
func (s *Store) ExportJSON(ctx context.Context) ([]byte, error) {
	return json.MarshalIndent(s.Export(ctx), "", "  ")
}

// Import replaces the persisted record with the snapshot's. The snapshot is
// validated first; nothing is written when it is rejected.
func (s *Store) Import(ctx context.Context, snap Snapshot) error {
	if err := validateSnapshot(snap); err != nil {
		return err
	}
	rec := snap.UserData.clone()
	rec.UserID = s.userID
	migrate(&rec, s.userID, s.now(), s.newID)

	s.mu.Lock()
	defer s.mu.Unlock()
	wasDirty := s.dirty
	if err := s.flush(ctx, rec); err != nil {
		s.dirty = wasDirty
		return err
	}
	s.cache = &rec
	s.pending = nil
	s.logger.Info("analytics imported", "user", s.userID, "tests", len(rec.TestHistory))
	return nil
}

// ImportJSON decodes and imports a snapshot document.
func (s *Store) ImportJSON(ctx context.Context, data []byte) error {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return invalidSnapshot("decode: %v", err)
	}
	return s.Import(ctx, snap)
}

func validateSnapshot(snap Snapshot) error {
	if snap.Version == "" {
		return invalidSnapshot("missing version")
	}
	if major, _, _ := strings.Cut(snap.Version, "."); major != "1" {
		return invalidSnapshot("unsupported version %q", snap.Version)
	}
	if snap.UserData == nil {
		return invalidSnapshot("missing userData")
	}
	if snap.UserData.SchemaVersion > SchemaVersion {
		return invalidSnapshot("schema version %d is newer than %d", snap.UserData.SchemaVersion, SchemaVersion)
	}
	seen := make(map[string]struct{}, len(snap.UserData.TestHistory))
	for i, r := range snap.UserData.TestHistory {
		if r.ID == "" {
			return invalidSnapshot("testHistory[%d] has no id", i)
		}
		if _, dup := seen[r.ID]; dup {
			return invalidSnapshot("duplicate result id %q", r.ID)
		}
		seen[r.ID] = struct{}{}
		if r.Timestamp.IsZero() {
			return invalidSnapshot("testHistory[%d] has no timestamp", i)
		}
		if r.WPM < 0 || r.Accuracy < 0 || r.Accuracy > 100 {
			return invalidSnapshot("testHistory[%d] has out of range metrics", i)
		}
	}
	return nil
}
