package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/verte-zerg/typeclock/internal/kv"
	"github.com/verte-zerg/typeclock/internal/logging"
	"github.com/verte-zerg/typeclock/internal/model"
)

// KeyPrefix prefixes the key-value entry of every user record.
const KeyPrefix = "typing_analytics_"

// Key returns the storage key of a user's record.
func Key(userID string) string {
	return KeyPrefix + userID
}

// Store reads and writes one user's record. Several Stores may share a
// backend; each keeps its own cache.
type Store struct {
	mu      sync.Mutex
	backend kv.Store
	userID  string
	logger  *log.Logger
	now     func() time.Time
	newID   func() string

	// cache holds the last record this Store produced. It stays authoritative
	// while dirty, i.e. until a failed write has been retried successfully.
	cache *Record
	dirty bool
	// pending holds results that arrived while the stored record could not
	// be read. They are merged by the next Put that reads it.
	pending []StoredResult
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for degraded reads.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides result id generation.
func WithIDGenerator(next func() string) Option {
	return func(s *Store) {
		if next != nil {
			s.newID = next
		}
	}
}

// New returns a Store for userID on top of backend.
func New(userID string, backend kv.Store, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		userID:  userID,
		logger:  logging.Discard(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ForUser returns a Store for another user sharing backend and options.
func (s *Store) ForUser(userID string) *Store {
	return &Store{
		backend: s.backend,
		userID:  userID,
		logger:  s.logger,
		now:     s.now,
		newID:   s.newID,
	}
}

// UserID returns the user this Store serves.
func (s *Store) UserID() string {
	return s.userID
}

// Users lists the ids of every user with a stored record, in ascending
// order. The backend must implement kv.Lister.
func (s *Store) Users(ctx context.Context) ([]string, error) {
	lister, ok := s.backend.(kv.Lister)
	if !ok {
		return nil, fmt.Errorf("backend %T cannot list users", s.backend)
	}
	keys, err := lister.Keys(ctx, KeyPrefix)
	if err != nil {
		return nil, &StorageError{Op: "list", Key: KeyPrefix, Err: err}
	}
	users := make([]string, 0, len(keys))
	for _, k := range keys {
		users = append(users, strings.TrimPrefix(k, KeyPrefix))
	}
	return users, nil
}

// Query returns the current record. Missing, unreadable or corrupt data
// yields a default record; it never fails.
func (s *Store) Query(ctx context.Context) Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, _ := s.load(ctx)
	return rec.clone()
}

// Save assigns an id and timestamp to result and appends it to the history.
// On a write failure the returned StoredResult can be retried with Put.
func (s *Store) Save(ctx context.Context, result model.SessionResult) (StoredResult, error) {
	ts := s.now()
	stored := StoredResult{
		ID:            s.newID(),
		Timestamp:     ts,
		Date:          dateKey(ts),
		SessionResult: result,
	}
	return stored, s.Put(ctx, stored)
}

// Put appends an already identified result. Putting an id that is already in
// the history only flushes the record, so retries never double count.
// When the stored record cannot be read and nothing is cached, Put keeps
// the result pending and returns a read StorageError instead of
// overwriting the stored history.
func (s *Store) Put(ctx context.Context, stored StoredResult) error {
	if stored.ID == "" {
		stored.ID = s.newID()
	}
	if stored.Timestamp.IsZero() {
		stored.Timestamp = s.now()
	}
	if stored.Date == "" {
		stored.Date = dateKey(stored.Timestamp)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	loaded, err := s.load(ctx)
	if err != nil && s.cache == nil {
		if !slices.ContainsFunc(s.pending, func(p StoredResult) bool { return p.ID == stored.ID }) {
			s.pending = append(s.pending, stored)
		}
		return err
	}
	rec := loaded.clone()
	added := false
	for _, r := range append(s.pending, stored) {
		if rec.indexOf(r.ID) >= 0 {
			continue
		}
		rec.TestHistory = append(rec.TestHistory, r)
		updatePersonalBests(&rec.PersonalBests, r)
		added = true
	}
	if added {
		rec.Statistics = computeStatistics(rec.TestHistory)
		rec.Aggregates = rebuildAggregates(rec.TestHistory)
		rec.LastUpdated = s.now()
	}
	s.cache = &rec
	s.pending = nil
	return s.flush(ctx, rec)
}

// RecentResults returns up to limit results, newest first. A non-positive
// limit returns all of them.
func (s *Store) RecentResults(ctx context.Context, limit int) []StoredResult {
	rec := s.Query(ctx)
	out := rec.TestHistory
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ProgressPoint is one bucket of a progress series.
type ProgressPoint struct {
	Key string `json:"key"`
	Aggregate
}

// ProgressSeries returns the last limit buckets of period in ascending key
// order. A non-positive limit returns all of them.
func (s *Store) ProgressSeries(ctx context.Context, period Period, limit int) ([]ProgressPoint, error) {
	rec := s.Query(ctx)
	var buckets map[string]Aggregate
	switch period {
	case PeriodDaily:
		buckets = rec.Aggregates.Daily
	case PeriodWeekly:
		buckets = rec.Aggregates.Weekly
	case PeriodMonthly:
		buckets = rec.Aggregates.Monthly
	default:
		return nil, ErrUnknownPeriod
	}
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if limit > 0 && len(keys) > limit {
		keys = keys[len(keys)-limit:]
	}
	points := make([]ProgressPoint, 0, len(keys))
	for _, k := range keys {
		points = append(points, ProgressPoint{Key: k, Aggregate: buckets[k]})
	}
	return points, nil
}

// Clear deletes the persisted record.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := Key(s.userID)
	if err := s.backend.Remove(ctx, key); err != nil {
		return &StorageError{Op: "remove", Key: key, Err: err}
	}
	s.cache = nil
	s.dirty = false
	s.pending = nil
	s.logger.Info("analytics cleared", "user", s.userID)
	return nil
}

// load returns the record to operate on. When the stored record cannot be
// read or decoded it returns the fallback record together with a
// StorageError. Caller holds mu.
func (s *Store) load(ctx context.Context) (Record, error) {
	if s.dirty && s.cache != nil {
		return *s.cache, nil
	}
	key := Key(s.userID)
	raw, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		s.logger.Warn("analytics read failed, using defaults", "key", key, "err", err)
		return s.fallback(), &StorageError{Op: "read", Key: key, Err: err}
	}
	if !ok {
		return newRecord(s.userID, s.now()), nil
	}
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		s.logger.Warn("analytics record is corrupt, using defaults", "key", key, "err", err)
		return s.fallback(), &StorageError{Op: "decode", Key: key, Err: err}
	}
	migrate(&rec, s.userID, s.now(), s.newID)
	return rec, nil
}

func (s *Store) fallback() Record {
	if s.cache != nil {
		return *s.cache
	}
	return newRecord(s.userID, s.now())
}

// flush writes rec. Caller holds mu.
func (s *Store) flush(ctx context.Context, rec Record) error {
	key := Key(s.userID)
	data, err := json.Marshal(rec)
	if err != nil {
		return &StorageError{Op: "encode", Key: key, Err: err}
	}
	if err := s.backend.Set(ctx, key, string(data)); err != nil {
		s.dirty = true
		s.logger.Error("analytics write failed", "key", key, "err", err)
		return &StorageError{Op: "write", Key: key, Err: err}
	}
	s.dirty = false
	return nil
}
