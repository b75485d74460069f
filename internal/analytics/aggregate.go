package analytics

import (
	"fmt"
	"math"
	"time"

	"github.com/verte-zerg/typeclock/internal/model"
)

// Period selects an aggregate granularity.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// ParsePeriod validates a period name.
func ParsePeriod(value string) (Period, error) {
	switch p := Period(value); p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, value)
	}
}

const improvementWindow = 10

func dateKey(ts time.Time) string {
	return ts.UTC().Format("2006-01-02")
}

func weekKey(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return ""
	}
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func monthKey(date string) string {
	if len(date) < 7 {
		return ""
	}
	return date[:7]
}

type bucket struct {
	count    int
	wpm      int
	accuracy int
	best     int
}

func (b *bucket) add(r StoredResult) {
	b.count++
	b.wpm += r.WPM
	b.accuracy += r.Accuracy
	if r.WPM > b.best {
		b.best = r.WPM
	}
}

func (b bucket) aggregate() Aggregate {
	return Aggregate{
		TestCount:       b.count,
		AverageWPM:      roundDiv(b.wpm, b.count),
		AverageAccuracy: roundDiv(b.accuracy, b.count),
		BestWPM:         b.best,
	}
}

func rebuildAggregates(history []StoredResult) Aggregates {
	daily := map[string]*bucket{}
	weekly := map[string]*bucket{}
	monthly := map[string]*bucket{}
	add := func(m map[string]*bucket, key string, r StoredResult) {
		if key == "" {
			return
		}
		b, ok := m[key]
		if !ok {
			b = &bucket{}
			m[key] = b
		}
		b.add(r)
	}
	for _, r := range history {
		date := r.Date
		if date == "" {
			date = dateKey(r.Timestamp)
		}
		add(daily, date, r)
		add(weekly, weekKey(date), r)
		add(monthly, monthKey(date), r)
	}
	return Aggregates{
		Daily:   flatten(daily),
		Weekly:  flatten(weekly),
		Monthly: flatten(monthly),
	}
}

func flatten(in map[string]*bucket) map[string]Aggregate {
	out := make(map[string]Aggregate, len(in))
	for k, b := range in {
		out[k] = b.aggregate()
	}
	return out
}

func computeStatistics(history []StoredResult) Statistics {
	stats := Statistics{
		FavoriteMode:     defaultFavoriteMode,
		FavoriteDuration: defaultFavoriteDuration,
	}
	if len(history) == 0 {
		return stats
	}
	var wpm, accuracy int
	modes := make([]model.Mode, 0, len(history))
	durations := make([]int, 0, len(history))
	for _, r := range history {
		stats.TotalTests++
		stats.TotalTimeTyping += r.ElapsedSeconds
		stats.TotalCharactersTyped += r.TotalChars()
		wpm += r.WPM
		accuracy += r.Accuracy
		modes = append(modes, r.Mode)
		durations = append(durations, r.DurationSeconds)
	}
	stats.AverageWPM = roundDiv(wpm, len(history))
	stats.AverageAccuracy = roundDiv(accuracy, len(history))
	stats.FavoriteMode = mostFrequent(modes)
	stats.FavoriteDuration = mostFrequent(durations)
	stats.ImprovementRate = improvementRate(history)
	return stats
}

// improvementRate compares the mean WPM of the last ten results against the
// first ten. Histories shorter than two windows report zero.
func improvementRate(history []StoredResult) float64 {
	if len(history) < 2*improvementWindow {
		return 0
	}
	first := meanWPM(history[:improvementWindow])
	last := meanWPM(history[len(history)-improvementWindow:])
	return roundHalfUp((last-first)*100) / 100
}

// roundHalfUp rounds halves toward positive infinity, so -2.5 becomes -2.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

func meanWPM(rs []StoredResult) float64 {
	sum := 0
	for _, r := range rs {
		sum += r.WPM
	}
	return float64(sum) / float64(len(rs))
}

// mostFrequent returns the most common value; ties go to the value seen first.
func mostFrequent[T comparable](values []T) T {
	counts := make(map[T]int, len(values))
	var best T
	bestCount := 0
	for _, v := range values {
		counts[v]++
	}
	for _, v := range values {
		if counts[v] > bestCount {
			best = v
			bestCount = counts[v]
		}
	}
	return best
}

func updatePersonalBests(pb *PersonalBests, r StoredResult) {
	raise := func(slot *Best, value int) {
		if value > slot.Value {
			*slot = Best{Value: value, ResultID: r.ID, Date: r.Date}
		}
	}
	raise(&pb.WPM, r.WPM)
	raise(&pb.Accuracy, r.Accuracy)
	raise(&pb.Consistency, r.Consistency)
}

func roundDiv(sum, n int) int {
	if n == 0 {
		return 0
	}
	return int(roundHalfUp(float64(sum) / float64(n)))
}
