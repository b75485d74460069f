package analytics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/typeclock/internal/kv"
	"github.com/verte-zerg/typeclock/internal/model"
)

type testClock struct {
	t time.Time
}

func (c *testClock) now() time.Time {
	return c.t
}

func (c *testClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("r%d", n)
	}
}

type faultyKV struct {
	*kv.Memory
	getErr    error
	setErr    error
	removeErr error
}

func (f *faultyKV) Get(ctx context.Context, key string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	return f.Memory.Get(ctx, key)
}

func (f *faultyKV) Set(ctx context.Context, key, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.Memory.Set(ctx, key, value)
}

func (f *faultyKV) Remove(ctx context.Context, key string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	return f.Memory.Remove(ctx, key)
}

func newTestStore(backend kv.Store) (*Store, *testClock) {
	clock := &testClock{t: time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)}
	st := New("alice", backend, WithClock(clock.now), WithIDGenerator(sequentialIDs()))
	return st, clock
}

func sampleResult(wpm, accuracy int) model.SessionResult {
	return model.SessionResult{
		WPM:             wpm,
		RawWPM:          wpm + 2,
		Accuracy:        accuracy,
		WordAccuracy:    accuracy,
		CorrectChars:    wpm * 5,
		IncorrectChars:  2,
		Consistency:     80,
		DurationSeconds: 60,
		ElapsedSeconds:  60,
		Mode:            model.ModeWords,
		WPMHistory:      []int{wpm, wpm},
	}
}

func TestQueryReturnsDefaultRecord(t *testing.T) {
	st, clock := newTestStore(kv.NewMemory())

	rec := st.Query(context.Background())
	assert.Equal(t, SchemaVersion, rec.SchemaVersion)
	assert.Equal(t, "alice", rec.UserID)
	assert.Equal(t, clock.now(), rec.CreatedAt)
	assert.Empty(t, rec.TestHistory)
	assert.Equal(t, 0, rec.Statistics.TotalTests)
	assert.Equal(t, model.ModeWords, rec.Statistics.FavoriteMode)
	assert.Equal(t, 60, rec.Statistics.FavoriteDuration)
	assert.Equal(t, 0, rec.PersonalBests.WPM.Value)
}

func TestSaveAssignsIdentity(t *testing.T) {
	st, clock := newTestStore(kv.NewMemory())

	stored, err := st.Save(context.Background(), sampleResult(40, 95))
	require.NoError(t, err)
	assert.Equal(t, "r1", stored.ID)
	assert.Equal(t, clock.now(), stored.Timestamp)
	assert.Equal(t, "2024-03-04", stored.Date)
	assert.Equal(t, 40, stored.WPM)
}

func TestPersonalBestsOnlyRise(t *testing.T) {
	ctx := context.Background()
	st, clock := newTestStore(kv.NewMemory())

	for _, wpm := range []int{40, 55, 30} {
		_, err := st.Save(ctx, sampleResult(wpm, 90))
		require.NoError(t, err)
		clock.advance(time.Hour)
	}

	rec := st.Query(ctx)
	require.Len(t, rec.TestHistory, 3)
	assert.Equal(t, Best{Value: 55, ResultID: "r2", Date: "2024-03-04"}, rec.PersonalBests.WPM)
	assert.Equal(t, 90, rec.PersonalBests.Accuracy.Value)
	assert.Equal(t, "r1", rec.PersonalBests.Accuracy.ResultID)
}

func TestStatisticsRecomputed(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestStore(kv.NewMemory())

	first := sampleResult(40, 90)
	second := sampleResult(51, 95)
	second.Mode = model.ModeCustom
	second.DurationSeconds = 30
	second.ElapsedSeconds = 30

	_, err := st.Save(ctx, first)
	require.NoError(t, err)
	_, err = st.Save(ctx, second)
	require.NoError(t, err)

	stats := st.Query(ctx).Statistics
	assert.Equal(t, 2, stats.TotalTests)
	assert.Equal(t, 90, stats.TotalTimeTyping)
	assert.Equal(t, first.TotalChars()+second.TotalChars(), stats.TotalCharactersTyped)
	assert.Equal(t, 46, stats.AverageWPM)
	assert.Equal(t, 93, stats.AverageAccuracy)
	// Ties go to the first value seen.
	assert.Equal(t, model.ModeWords, stats.FavoriteMode)
	assert.Equal(t, 60, stats.FavoriteDuration)
	assert.Zero(t, stats.ImprovementRate)
}

func TestRoundHalfUp(t *testing.T) {
	cases := map[float64]float64{2.5: 3, -2.5: -2, -0.5: 0, 1.49: 1, -1.51: -2}
	for in, want := range cases {
		assert.Equal(t, want, roundHalfUp(in), "round(%v)", in)
	}
	assert.Equal(t, -1, roundDiv(-3, 2))
	assert.Equal(t, 2, roundDiv(3, 2))
}

func TestImprovementRateNeedsTwentyResults(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestStore(kv.NewMemory())

	for i := 0; i < 10; i++ {
		_, err := st.Save(ctx, sampleResult(30, 90))
		require.NoError(t, err)
	}
	for i := 0; i < 9; i++ {
		_, err := st.Save(ctx, sampleResult(50, 90))
		require.NoError(t, err)
	}
	assert.Zero(t, st.Query(ctx).Statistics.ImprovementRate)

	_, err := st.Save(ctx, sampleResult(50, 90))
	require.NoError(t, err)
	assert.InDelta(t, 20.0, st.Query(ctx).Statistics.ImprovementRate, 1e-9)
}

func TestAggregates(t *testing.T) {
	ctx := context.Background()
	st, clock := newTestStore(kv.NewMemory())
	clock.t = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	_, err := st.Save(ctx, sampleResult(40, 90))
	require.NoError(t, err)
	clock.t = time.Date(2024, 1, 7, 9, 0, 0, 0, time.UTC)
	_, err = st.Save(ctx, sampleResult(60, 100))
	require.NoError(t, err)
	clock.t = time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	_, err = st.Save(ctx, sampleResult(50, 97))
	require.NoError(t, err)

	agg := st.Query(ctx).Aggregates
	assert.Len(t, agg.Daily, 3)
	assert.Equal(t, Aggregate{TestCount: 1, AverageWPM: 40, AverageAccuracy: 90, BestWPM: 40}, agg.Daily["2024-01-01"])
	assert.Equal(t, Aggregate{TestCount: 2, AverageWPM: 50, AverageAccuracy: 95, BestWPM: 60}, agg.Weekly["2024-W01"])
	assert.Equal(t, 1, agg.Weekly["2024-W05"].TestCount)
	assert.Equal(t, 2, agg.Monthly["2024-01"].TestCount)
	assert.Equal(t, 1, agg.Monthly["2024-02"].TestCount)
}

func TestWeekKeyUsesISOYear(t *testing.T) {
	assert.Equal(t, "2020-W53", weekKey("2021-01-01"))
	assert.Equal(t, "2025-W01", weekKey("2024-12-30"))
	assert.Equal(t, "2024-W10", weekKey("2024-03-04"))
	assert.Equal(t, "", weekKey("garbage"))
}

func TestRecentResultsNewestFirst(t *testing.T) {
	ctx := context.Background()
	st, clock := newTestStore(kv.NewMemory())

	for i := 0; i < 3; i++ {
		_, err := st.Save(ctx, sampleResult(30+i, 90))
		require.NoError(t, err)
		clock.advance(time.Minute)
	}

	recent := st.RecentResults(ctx, 2)
	require.Len(t, recent, 2)
	assert.Equal(t, "r3", recent[0].ID)
	assert.Equal(t, "r2", recent[1].ID)
	assert.Len(t, st.RecentResults(ctx, 0), 3)
}

func TestProgressSeries(t *testing.T) {
	ctx := context.Background()
	st, clock := newTestStore(kv.NewMemory())

	for i := 0; i < 4; i++ {
		_, err := st.Save(ctx, sampleResult(30+10*i, 90))
		require.NoError(t, err)
		clock.advance(24 * time.Hour)
	}

	points, err := st.ProgressSeries(ctx, PeriodDaily, 2)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "2024-03-06", points[0].Key)
	assert.Equal(t, "2024-03-07", points[1].Key)
	assert.Equal(t, 60, points[1].BestWPM)

	monthly, err := st.ProgressSeries(ctx, PeriodMonthly, 0)
	require.NoError(t, err)
	require.Len(t, monthly, 1)
	assert.Equal(t, 4, monthly[0].TestCount)

	_, err = st.ProgressSeries(ctx, Period("yearly"), 5)
	assert.ErrorIs(t, err, ErrUnknownPeriod)
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("weekly")
	require.NoError(t, err)
	assert.Equal(t, PeriodWeekly, p)

	_, err = ParsePeriod("hourly")
	assert.ErrorIs(t, err, ErrUnknownPeriod)
}

func TestUsersAreIsolated(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	alice, _ := newTestStore(backend)
	bob := alice.ForUser("bob")

	_, err := alice.Save(ctx, sampleResult(40, 90))
	require.NoError(t, err)

	assert.Empty(t, bob.Query(ctx).TestHistory)
	assert.Equal(t, "bob", bob.UserID())
	assert.Len(t, alice.Query(ctx).TestHistory, 1)
	_, ok, err := backend.Get(ctx, "typing_analytics_alice")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUsersListsStoredRecords(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	require.NoError(t, backend.Set(ctx, "unrelated", "x"))
	alice, _ := newTestStore(backend)

	users, err := alice.Users(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	for _, st := range []*Store{alice.ForUser("carol"), alice} {
		_, err := st.Save(ctx, sampleResult(40, 90))
		require.NoError(t, err)
	}
	users, err = alice.Users(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "carol"}, users)
}

func TestUsersNeedsListingBackend(t *testing.T) {
	// Embedding the interface hides Memory's Keys method.
	type plainKV struct{ kv.Store }
	st, _ := newTestStore(plainKV{Store: kv.NewMemory()})
	_, err := st.Users(context.Background())
	assert.Error(t, err)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	st, _ := newTestStore(backend)

	_, err := st.Save(ctx, sampleResult(40, 90))
	require.NoError(t, err)
	require.NoError(t, st.Clear(ctx))

	assert.Equal(t, 0, backend.Len())
	assert.Empty(t, st.Query(ctx).TestHistory)
}

func TestClearFailure(t *testing.T) {
	ctx := context.Background()
	backend := &faultyKV{Memory: kv.NewMemory()}
	st, _ := newTestStore(backend)

	_, err := st.Save(ctx, sampleResult(40, 90))
	require.NoError(t, err)

	backend.removeErr = errors.New("disk gone")
	err = st.Clear(ctx)
	assert.ErrorIs(t, err, ErrStorage)
	assert.Len(t, st.Query(ctx).TestHistory, 1)
}

func TestReadFailureFallsBackToDefaults(t *testing.T) {
	ctx := context.Background()
	backend := &faultyKV{Memory: kv.NewMemory(), getErr: errors.New("unavailable")}
	st, _ := newTestStore(backend)

	rec := st.Query(ctx)
	assert.Equal(t, "alice", rec.UserID)
	assert.Empty(t, rec.TestHistory)
}

func TestReadFailureUsesCachedRecord(t *testing.T) {
	ctx := context.Background()
	backend := &faultyKV{Memory: kv.NewMemory()}
	st, _ := newTestStore(backend)

	_, err := st.Save(ctx, sampleResult(40, 90))
	require.NoError(t, err)

	backend.getErr = errors.New("unavailable")
	assert.Len(t, st.Query(ctx).TestHistory, 1)
}

func TestCorruptRecordFallsBack(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	require.NoError(t, backend.Set(ctx, Key("alice"), "{not json"))
	st, _ := newTestStore(backend)

	rec := st.Query(ctx)
	assert.Empty(t, rec.TestHistory)

	// The unreadable document is not replaced by a save.
	stored, err := st.Save(ctx, sampleResult(40, 90))
	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "decode", storageErr.Op)
	raw, _, err := backend.Get(ctx, Key("alice"))
	require.NoError(t, err)
	assert.Equal(t, "{not json", raw)

	require.NoError(t, st.Clear(ctx))
	require.NoError(t, st.Put(ctx, stored))
	assert.Len(t, st.Query(ctx).TestHistory, 1)
}

func TestSaveDuringReadFailureKeepsHistory(t *testing.T) {
	ctx := context.Background()
	backend := &faultyKV{Memory: kv.NewMemory()}
	seed, _ := newTestStore(backend)
	for _, wpm := range []int{50, 60, 45} {
		_, err := seed.Save(ctx, sampleResult(wpm, 95))
		require.NoError(t, err)
	}

	st := New("alice", backend, WithIDGenerator(func() string { return "late" }))
	backend.getErr = errors.New("database is locked")
	stored, err := st.Save(ctx, sampleResult(30, 90))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorage)
	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "read", storageErr.Op)

	// A repeated attempt while reads fail stays pending without duplicating.
	require.Error(t, st.Put(ctx, stored))

	backend.getErr = nil
	rec := st.Query(ctx)
	require.Len(t, rec.TestHistory, 3)
	assert.Equal(t, 60, rec.PersonalBests.WPM.Value)

	require.NoError(t, st.Put(ctx, stored))
	rec = New("alice", backend).Query(ctx)
	require.Len(t, rec.TestHistory, 4)
	assert.Equal(t, 4, rec.Statistics.TotalTests)
	assert.Equal(t, 60, rec.PersonalBests.WPM.Value)
	assert.Equal(t, "late", rec.TestHistory[3].ID)
}

func TestWriteFailureKeepsResultForRetry(t *testing.T) {
	ctx := context.Background()
	backend := &faultyKV{Memory: kv.NewMemory(), setErr: errors.New("quota exceeded")}
	st, _ := newTestStore(backend)

	stored, err := st.Save(ctx, sampleResult(40, 90))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorage)
	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "write", storageErr.Op)
	assert.Equal(t, "r1", stored.ID)

	// The in-memory record keeps the result while the backend is failing.
	assert.Len(t, st.Query(ctx).TestHistory, 1)
	assert.Equal(t, 0, backend.Len())

	backend.setErr = nil
	require.NoError(t, st.Put(ctx, stored))
	require.NoError(t, st.Put(ctx, stored))

	rec := st.Query(ctx)
	require.Len(t, rec.TestHistory, 1)
	assert.Equal(t, 1, rec.Statistics.TotalTests)
	assert.Equal(t, 1, backend.Len())
}

func TestMigratesLegacyRecord(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	legacy := `{
  "userId": "alice",
  "testHistory": [
    {"id": "old", "timestamp": "2023-12-31T23:00:00Z", "wpm": 42, "accuracy": 96}
  ]
}`
	require.NoError(t, backend.Set(ctx, Key("alice"), legacy))
	st, _ := newTestStore(backend)

	rec := st.Query(ctx)
	assert.Equal(t, SchemaVersion, rec.SchemaVersion)
	require.Len(t, rec.TestHistory, 1)
	assert.Equal(t, "2023-12-31", rec.TestHistory[0].Date)
	assert.Equal(t, model.ModeWords, rec.TestHistory[0].Mode)
	assert.Equal(t, 1, rec.Aggregates.Daily["2023-12-31"].TestCount)
	assert.Equal(t, 1, rec.Aggregates.Weekly["2023-W52"].TestCount)
	assert.Equal(t, 60, rec.Statistics.FavoriteDuration)
}

func TestMostFrequentPrefersFirstOnTie(t *testing.T) {
	assert.Equal(t, 30, mostFrequent([]int{30, 60, 60, 30}))
	assert.Equal(t, 60, mostFrequent([]int{30, 60, 60}))
	assert.Equal(t, "", mostFrequent([]string(nil)))
}
