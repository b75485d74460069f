// Package analytics persists typing results per user and derives personal
// bests, running statistics and time-bucketed aggregates from them.
package analytics

import (
	"slices"
	"time"

	"github.com/verte-zerg/typeclock/internal/model"
)

// SchemaVersion is the current persisted record layout.
const SchemaVersion = 1

const (
	defaultFavoriteMode     = model.ModeWords
	defaultFavoriteDuration = 60
)

// Best is one personal-best slot.
type Best struct {
	Value    int    `json:"value"`
	ResultID string `json:"testId,omitempty"`
	Date     string `json:"date,omitempty"`
}

// PersonalBests holds the highest values seen per metric.
type PersonalBests struct {
	WPM         Best `json:"wpm"`
	Accuracy    Best `json:"accuracy"`
	Consistency Best `json:"consistency"`
}

// Statistics are recomputed from the full history on every save.
type Statistics struct {
	TotalTests           int        `json:"totalTests"`
	TotalTimeTyping      int        `json:"totalTimeTyping"`
	TotalCharactersTyped int        `json:"totalCharactersTyped"`
	AverageWPM           int        `json:"averageWpm"`
	AverageAccuracy      int        `json:"averageAccuracy"`
	FavoriteMode         model.Mode `json:"favoriteTestMode"`
	FavoriteDuration     int        `json:"favoriteTestDuration"`
	ImprovementRate      float64    `json:"improvementRate"`
}

// Aggregate is the rollup of one period bucket.
type Aggregate struct {
	TestCount       int `json:"tests"`
	AverageWPM      int `json:"averageWpm"`
	AverageAccuracy int `json:"averageAccuracy"`
	BestWPM         int `json:"bestWpm"`
}

// Aggregates maps period keys to rollups for each granularity.
type Aggregates struct {
	Daily   map[string]Aggregate `json:"daily"`
	Weekly  map[string]Aggregate `json:"weekly"`
	Monthly map[string]Aggregate `json:"monthly"`
}

// StoredResult is a saved session result with its identity.
type StoredResult struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Date      string    `json:"date"`
	model.SessionResult
}

// Record is the persisted analytics document of one user.
type Record struct {
	SchemaVersion int            `json:"schemaVersion"`
	UserID        string         `json:"userId"`
	CreatedAt     time.Time      `json:"createdAt"`
	LastUpdated   time.Time      `json:"lastUpdated"`
	PersonalBests PersonalBests  `json:"personalBests"`
	Statistics    Statistics     `json:"statistics"`
	TestHistory   []StoredResult `json:"testHistory"`
	Aggregates    Aggregates     `json:"aggregates"`
}

func newRecord(userID string, now time.Time) Record {
	return Record{
		SchemaVersion: SchemaVersion,
		UserID:        userID,
		CreatedAt:     now,
		LastUpdated:   now,
		Statistics: Statistics{
			FavoriteMode:     defaultFavoriteMode,
			FavoriteDuration: defaultFavoriteDuration,
		},
		TestHistory: []StoredResult{},
		Aggregates:  emptyAggregates(),
	}
}

func emptyAggregates() Aggregates {
	return Aggregates{
		Daily:   map[string]Aggregate{},
		Weekly:  map[string]Aggregate{},
		Monthly: map[string]Aggregate{},
	}
}

// migrate fills fields that older or hand-edited documents may lack.
func migrate(r *Record, userID string, now time.Time, newID func() string) {
	if r.UserID == "" {
		r.UserID = userID
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.LastUpdated.IsZero() {
		r.LastUpdated = r.CreatedAt
	}
	if r.Statistics.FavoriteMode == "" {
		r.Statistics.FavoriteMode = defaultFavoriteMode
	}
	if r.Statistics.FavoriteDuration == 0 {
		r.Statistics.FavoriteDuration = defaultFavoriteDuration
	}
	if r.TestHistory == nil {
		r.TestHistory = []StoredResult{}
	}
	for i := range r.TestHistory {
		h := &r.TestHistory[i]
		if h.ID == "" {
			h.ID = newID()
		}
		if h.Date == "" && !h.Timestamp.IsZero() {
			h.Date = dateKey(h.Timestamp)
		}
		if h.Mode == "" {
			h.Mode = model.ModeWords
		}
	}
	if r.Aggregates.Daily == nil {
		r.Aggregates.Daily = map[string]Aggregate{}
	}
	if r.Aggregates.Weekly == nil {
		r.Aggregates.Weekly = map[string]Aggregate{}
	}
	if r.Aggregates.Monthly == nil {
		r.Aggregates.Monthly = map[string]Aggregate{}
	}
	if r.SchemaVersion < SchemaVersion {
		// v0 documents carried no derived fields we can trust.
		r.PersonalBests = PersonalBests{}
		for _, h := range r.TestHistory {
			updatePersonalBests(&r.PersonalBests, h)
		}
		r.Statistics = computeStatistics(r.TestHistory)
		r.Aggregates = rebuildAggregates(r.TestHistory)
		r.SchemaVersion = SchemaVersion
	}
}

func (r Record) clone() Record {
	out := r
	out.TestHistory = make([]StoredResult, len(r.TestHistory))
	for i, h := range r.TestHistory {
		h.WPMHistory = slices.Clone(h.WPMHistory)
		h.Attempts = slices.Clone(h.Attempts)
		out.TestHistory[i] = h
	}
	out.Aggregates = Aggregates{
		Daily:   cloneBuckets(r.Aggregates.Daily),
		Weekly:  cloneBuckets(r.Aggregates.Weekly),
		Monthly: cloneBuckets(r.Aggregates.Monthly),
	}
	return out
}

func cloneBuckets(in map[string]Aggregate) map[string]Aggregate {
	out := make(map[string]Aggregate, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (r Record) indexOf(id string) int {
	for i, h := range r.TestHistory {
		if h.ID == id {
			return i
		}
	}
	return -1
}
