// Package session implements the typing-session state machine.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/verte-zerg/typeclock/internal/metrics"
	"github.com/verte-zerg/typeclock/internal/model"
	"github.com/verte-zerg/typeclock/internal/wordsource"
)

// OverflowSlack is how many characters past the target length a word may grow.
const OverflowSlack = 10

// ErrInvalidTransition is returned when an operation is not valid in the current phase.
var ErrInvalidTransition = errors.New("invalid session transition")

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithExtendBatch sets how many words are requested when a generated list runs out.
func WithExtendBatch(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.extendBatch = n
		}
	}
}

// Engine consumes keystrokes and ticks against a word list. It is not safe
// for concurrent use; callers deliver events serially.
type Engine struct {
	words       *wordsource.List
	mode        model.Mode
	customText  string
	duration    int
	extendBatch int
	now         func() time.Time
	eventAt     time.Time

	phase      model.Phase
	startedAt  time.Time
	endedAt    time.Time
	elapsed    int
	wordIndex  int
	input      []rune
	wordErrors int
	correct    int
	incorrect  int
	samples    []int
	attempts   []model.WordAttempt
	result     *model.SessionResult
}

// New creates an idle engine for cfg over words.
func New(cfg model.Config, words *wordsource.List, opts ...Option) (*Engine, error) {
	if words == nil || words.Len() == 0 {
		return nil, &wordsource.ValidationError{Field: "words", Reason: "word list must not be empty"}
	}
	if cfg.DurationSeconds <= 0 {
		return nil, &wordsource.ValidationError{Field: "duration", Reason: "must be a positive number of seconds"}
	}
	mode := cfg.Mode
	if mode == "" {
		mode = model.ModeWords
	}
	e := &Engine{
		words:       words,
		mode:        mode,
		duration:    cfg.DurationSeconds,
		extendBatch: wordsource.DefaultWordCount,
		now:         time.Now,
	}
	if mode == model.ModeCustom {
		e.customText = cfg.CustomText
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Phase returns the current lifecycle phase.
func (e *Engine) Phase() model.Phase {
	return e.phase
}

// Words returns the target list.
func (e *Engine) Words() *wordsource.List {
	return e.words
}

// Start moves an idle session to active. Starting an active session is a no-op.
func (e *Engine) Start() error {
	switch e.phase {
	case model.PhaseIdle:
		e.phase = model.PhaseActive
		e.startedAt = e.timestamp()
		return nil
	case model.PhaseActive:
		return nil
	default:
		return fmt.Errorf("start in phase %s: %w", e.phase, ErrInvalidTransition)
	}
}

// ApplyCharacter appends ch to the current word. A space is treated as ApplySpace.
// It reports whether the keystroke was accepted.
func (e *Engine) ApplyCharacter(ch rune) bool {
	if ch == ' ' {
		return e.ApplySpace()
	}
	if e.phase == model.PhaseCompleted {
		return false
	}
	if e.phase == model.PhaseIdle {
		_ = e.Start()
	}
	target := e.target()
	if len(e.input) >= len(target)+OverflowSlack {
		return false
	}
	e.input = append(e.input, ch)
	e.wordErrors = countErrors(e.input, target)
	return true
}

// ApplyBackspace removes the last character of the current word.
func (e *Engine) ApplyBackspace() bool {
	if e.phase == model.PhaseCompleted || len(e.input) == 0 {
		return false
	}
	e.input = e.input[:len(e.input)-1]
	e.wordErrors = countErrors(e.input, e.target())
	return true
}

// ApplySpace completes the current word. It is ignored while the word is empty.
func (e *Engine) ApplySpace() bool {
	if e.phase == model.PhaseCompleted || len(e.input) == 0 {
		return false
	}
	if e.phase == model.PhaseIdle {
		_ = e.Start()
	}
	e.completeWord()
	if e.wordIndex >= e.words.Len() && !e.words.Extend(e.extendBatch) {
		e.complete()
	}
	return true
}

// Tick advances the session clock by one second while active.
func (e *Engine) Tick() {
	if e.phase != model.PhaseActive {
		return
	}
	e.elapsed++
	e.samples = append(e.samples, metrics.WPM(e.attempts, float64(e.elapsed)))
	if e.duration-e.elapsed <= 0 {
		e.complete()
	}
}

// End completes the session immediately, keeping the word in progress as an attempt.
func (e *Engine) End() {
	if e.phase == model.PhaseCompleted {
		return
	}
	if e.phase == model.PhaseIdle {
		e.startedAt = e.timestamp()
	}
	e.complete()
}

// Snapshot returns a copy of the live state.
func (e *Engine) Snapshot() model.SessionState {
	remaining := e.duration - e.elapsed
	if remaining < 0 {
		remaining = 0
	}
	correctWords := countCorrect(e.attempts)
	st := model.SessionState{
		Phase:              e.phase,
		ElapsedSeconds:     e.elapsed,
		RemainingSeconds:   remaining,
		CurrentWordIndex:   e.wordIndex,
		CurrentInput:       string(e.input),
		CurrentWordErrors:  e.wordErrors,
		CorrectCharTotal:   e.correct,
		IncorrectCharTotal: e.incorrect,
		WPMSamples:         append([]int(nil), e.samples...),
		Attempts:           append([]model.WordAttempt(nil), e.attempts...),
		WPM:                metrics.WPM(e.attempts, float64(e.elapsed)),
		Accuracy:           metrics.Accuracy(e.correct, e.incorrect),
		WordAccuracy:       metrics.WordAccuracy(correctWords, len(e.attempts)),
		Consistency:        metrics.Consistency(e.samples),
	}
	if e.wordIndex < e.words.Len() {
		st.CurrentTarget = e.words.At(e.wordIndex)
	}
	return st
}

// Finish returns the final result. It fails with ErrInvalidTransition until
// the session has completed.
func (e *Engine) Finish() (model.SessionResult, error) {
	if e.phase != model.PhaseCompleted || e.result == nil {
		return model.SessionResult{}, fmt.Errorf("finish in phase %s: %w", e.phase, ErrInvalidTransition)
	}
	res := *e.result
	res.WPMHistory = append([]int(nil), e.result.WPMHistory...)
	res.Attempts = append([]model.WordAttempt(nil), e.result.Attempts...)
	return res, nil
}

func (e *Engine) target() []rune {
	if e.wordIndex >= e.words.Len() {
		return nil
	}
	return []rune(e.words.At(e.wordIndex))
}

func (e *Engine) completeWord() {
	target := e.target()
	correct, incorrect := scoreWord(target, e.input)
	attempt := model.WordAttempt{
		Target:         string(target),
		Typed:          string(e.input),
		Correct:        string(e.input) == string(target),
		CorrectChars:   correct,
		IncorrectChars: incorrect,
		HasErrors:      e.wordErrors > 0 || len(e.input) < len(target),
		CompletedAt:    e.timestamp(),
	}
	// The space separating this word from the previous one.
	if len(e.attempts) > 0 {
		e.correct++
	}
	e.correct += correct
	e.incorrect += incorrect
	e.attempts = append(e.attempts, attempt)
	e.wordIndex++
	e.input = nil
	e.wordErrors = 0
}

func (e *Engine) complete() {
	if len(e.input) > 0 && e.wordIndex < e.words.Len() {
		e.completeWord()
	}
	e.phase = model.PhaseCompleted
	e.endedAt = e.timestamp()
	e.result = e.buildResult()
}

func (e *Engine) buildResult() *model.SessionResult {
	elapsed := float64(e.elapsed)
	correctWords := countCorrect(e.attempts)
	return &model.SessionResult{
		WPM:                 metrics.WPM(e.attempts, elapsed),
		RawWPM:              metrics.RawWPM(e.correct+e.incorrect, elapsed),
		Accuracy:            metrics.Accuracy(e.correct, e.incorrect),
		WordAccuracy:        metrics.WordAccuracy(correctWords, len(e.attempts)),
		CorrectChars:        e.correct,
		IncorrectChars:      e.incorrect,
		Consistency:         metrics.Consistency(e.samples),
		DurationSeconds:     e.duration,
		ElapsedSeconds:      e.elapsed,
		Mode:                e.mode,
		CustomTextRef:       e.customText,
		WPMHistory:          append([]int(nil), e.samples...),
		Attempts:            append([]model.WordAttempt(nil), e.attempts...),
		TotalWordsAttempted: len(e.attempts),
		CorrectWords:        correctWords,
		PeakWPM:             metrics.PeakWPM(e.samples),
		AverageWPM:          metrics.AverageWPM(e.samples),
		StartedAt:           e.startedAt,
		EndedAt:             e.endedAt,
	}
}

func (e *Engine) timestamp() time.Time {
	if !e.eventAt.IsZero() {
		return e.eventAt
	}
	return e.now()
}

// scoreWord compares typed against target position by position. Extra and
// missing characters are incorrect.
func scoreWord(target, typed []rune) (correct, incorrect int) {
	n := len(target)
	if len(typed) > n {
		n = len(typed)
	}
	for i := 0; i < n; i++ {
		if i < len(target) && i < len(typed) && target[i] == typed[i] {
			correct++
			continue
		}
		incorrect++
	}
	return correct, incorrect
}

func countErrors(input, target []rune) int {
	errs := 0
	for i, r := range input {
		if i >= len(target) || r != target[i] {
			errs++
		}
	}
	return errs
}

func countCorrect(attempts []model.WordAttempt) int {
	n := 0
	for _, a := range attempts {
		if a.Correct {
			n++
		}
	}
	return n
}
