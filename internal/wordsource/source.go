package wordsource

import (
	"github.com/verte-zerg/typeclock/internal/model"
)

// DefaultWordCount is the size of a generated batch.
const DefaultWordCount = 100

// List is the ordered target sequence of a session. Entries never change once
// produced; generated lists may grow at the end on request.
type List struct {
	words []string
	more  func(n int) []string
}

// NewList returns a fixed list over words.
func NewList(words []string) *List {
	return &List{words: append([]string(nil), words...)}
}

// Len returns the number of words currently available.
func (l *List) Len() int {
	return len(l.words)
}

// At returns the word at index i.
func (l *List) At(i int) string {
	return l.words[i]
}

// Words returns a copy of the current sequence.
func (l *List) Words() []string {
	return append([]string(nil), l.words...)
}

// Extendable reports whether Extend can grow the list.
func (l *List) Extendable() bool {
	return l.more != nil
}

// Extend appends n more words. It returns false for fixed lists.
func (l *List) Extend(n int) bool {
	if l.more == nil || n <= 0 {
		return false
	}
	next := l.more(n)
	if len(next) == 0 {
		return false
	}
	l.words = append(l.words, next...)
	return true
}

// Generate builds the target list for cfg. Words mode draws cfg.Words words
// from dict and stays extendable; custom mode tokenizes cfg.CustomText and
// fails with a *ValidationError when the text is outside the limits.
func Generate(cfg model.Config, dict []string, gen *Generator) (*List, error) {
	switch cfg.Mode {
	case model.ModeCustom:
		if _, err := ValidateCustomText(cfg.CustomText); err != nil {
			return nil, err
		}
		return NewList(Tokenize(cfg.CustomText)), nil
	case model.ModeWords, "":
		if len(dict) == 0 {
			return nil, newValidationError("dictionary", "must not be empty")
		}
		count := cfg.Words
		if count <= 0 {
			count = DefaultWordCount
		}
		if gen == nil {
			gen = NewGenerator()
		}
		words, last := gen.generate(dict, count, "")
		l := &List{words: words}
		l.more = func(n int) []string {
			var next []string
			next, last = gen.generate(dict, n, last)
			return next
		}
		return l, nil
	default:
		return nil, newValidationError("mode", "unknown mode %q", cfg.Mode)
	}
}
