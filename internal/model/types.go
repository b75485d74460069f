// Package model defines shared data structures.
package model

import "time"

// Mode selects where the target words come from.
type Mode string

const (
	// ModeWords draws random words from a dictionary.
	ModeWords Mode = "words"
	// ModeCustom types a user-supplied text.
	ModeCustom Mode = "custom"
)

// Phase is the lifecycle position of a typing session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseActive
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseActive:
		return "active"
	case PhaseCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Config defines practice settings.
type Config struct {
	Mode            Mode
	DurationSeconds int
	Words           int
	CustomText      string
	CapsPct         float64
	PunctPct        float64
	PunctSet        string
}

// StatsConfig defines options for analytics output.
type StatsConfig struct {
	Period string
	Limit  int
	Recent int
}

// WordAttempt is the finalized result of one target word.
type WordAttempt struct {
	Target         string    `json:"word"`
	Typed          string    `json:"typed"`
	Correct        bool      `json:"correct"`
	CorrectChars   int       `json:"correctChars"`
	IncorrectChars int       `json:"incorrectChars"`
	HasErrors      bool      `json:"hasErrors"`
	CompletedAt    time.Time `json:"timestamp"`
}

// SessionState is a read-only projection of a running session.
type SessionState struct {
	Phase              Phase
	ElapsedSeconds     int
	RemainingSeconds   int
	CurrentWordIndex   int
	CurrentTarget      string
	CurrentInput       string
	CurrentWordErrors  int
	CorrectCharTotal   int
	IncorrectCharTotal int
	WPMSamples         []int
	Attempts           []WordAttempt

	WPM          int
	Accuracy     int
	WordAccuracy int
	Consistency  int
}

// SessionResult is the immutable summary of a completed session.
type SessionResult struct {
	WPM                 int           `json:"wpm"`
	RawWPM              int           `json:"rawWpm"`
	Accuracy            int           `json:"accuracy"`
	WordAccuracy        int           `json:"wordAccuracy"`
	CorrectChars        int           `json:"correctChars"`
	IncorrectChars      int           `json:"incorrectChars"`
	Consistency         int           `json:"consistency"`
	DurationSeconds     int           `json:"duration"`
	ElapsedSeconds      int           `json:"timeElapsed"`
	Mode                Mode          `json:"mode"`
	CustomTextRef       string        `json:"customText,omitempty"`
	WPMHistory          []int         `json:"wpmHistory"`
	Attempts            []WordAttempt `json:"typedWords"`
	TotalWordsAttempted int           `json:"totalWords"`
	CorrectWords        int           `json:"correctWords"`
	PeakWPM             int           `json:"peakWpm"`
	AverageWPM          int           `json:"averageWpm"`
	StartedAt           time.Time     `json:"startedAt"`
	EndedAt             time.Time     `json:"endedAt"`
}

// TotalChars returns correct plus incorrect characters.
func (r SessionResult) TotalChars() int {
	return r.CorrectChars + r.IncorrectChars
}
