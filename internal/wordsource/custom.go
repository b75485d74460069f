package wordsource

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// MinCustomChars is the shortest accepted custom text after normalization.
	MinCustomChars = 50
	// MaxCustomChars is the longest accepted custom text after normalization.
	MaxCustomChars = 2000
	// MinCustomWords is the fewest words accepted in a custom text.
	MinCustomWords = 10
)

// ValidationError reports input that cannot be used to build a session.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

func newValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

var typographic = strings.NewReplacer(
	"“", `"`,
	"”", `"`,
	"„", `"`,
	"‘", "'",
	"’", "'",
	"‚", "'",
	"…", "...",
	"—", "--",
	"–", "-",
)

// Tokenize normalizes typographic punctuation and splits text on whitespace.
func Tokenize(text string) []string {
	return strings.Fields(typographic.Replace(text))
}

// TextStats describes an accepted custom text.
type TextStats struct {
	Words int
	Chars int
}

// ValidateCustomText checks a custom text against the length and word limits.
func ValidateCustomText(text string) (TextStats, error) {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return TextStats{}, newValidationError("custom text", "text is required")
	}
	chars := utf8.RuneCountInString(strings.Join(tokens, " "))
	if chars < MinCustomChars {
		return TextStats{}, newValidationError("custom text", "must be at least %d characters long", MinCustomChars)
	}
	if chars > MaxCustomChars {
		return TextStats{}, newValidationError("custom text", "must be at most %d characters long", MaxCustomChars)
	}
	if len(tokens) < MinCustomWords {
		return TextStats{}, newValidationError("custom text", "must contain at least %d words", MinCustomWords)
	}
	return TextStats{Words: len(tokens), Chars: chars}, nil
}

// Sample is a built-in custom text.
type Sample struct {
	Title string
	Text  string
}

// SampleTexts returns the built-in custom texts.
func SampleTexts() []Sample {
	return []Sample{
		{
			Title: "Classic Literature",
			Text:  "It was the best of times, it was the worst of times, it was the age of wisdom, it was the age of foolishness, it was the epoch of belief, it was the epoch of incredulity, it was the season of Light, it was the season of Darkness, it was the spring of hope, it was the winter of despair.",
		},
		{
			Title: "Technology",
			Text:  "The rapid advancement of artificial intelligence and machine learning technologies has transformed the way we interact with computers and process information. From natural language processing to computer vision, these technologies are reshaping industries and creating new possibilities for innovation and human-computer collaboration.",
		},
		{
			Title: "Science",
			Text:  "The scientific method is a systematic approach to understanding the natural world through observation, hypothesis formation, experimentation, and analysis. This process has led to countless discoveries and innovations that have improved human life and expanded our knowledge of the universe around us.",
		},
	}
}
