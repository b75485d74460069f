// Package metrics contains the pure scoring functions used by sessions and analytics.
package metrics

import (
	"math"

	"github.com/verte-zerg/typeclock/internal/model"
)

// CharsPerWord is the standard word length used by WPM.
const CharsPerWord = 5

// CorrectWordChars counts characters of correctly typed words plus one
// separating space for every correct word that is not the last attempt.
func CorrectWordChars(attempts []model.WordAttempt) int {
	total := 0
	for i, a := range attempts {
		if !a.Correct {
			continue
		}
		total += len([]rune(a.Target))
		if i < len(attempts)-1 {
			total++
		}
	}
	return total
}

// WPM returns words per minute counting only correctly typed words.
func WPM(attempts []model.WordAttempt, elapsedSeconds float64) int {
	return perMinute(float64(CorrectWordChars(attempts))/CharsPerWord, elapsedSeconds)
}

// RawWPM returns words per minute over every typed character, right or wrong.
func RawWPM(totalChars int, elapsedSeconds float64) int {
	return perMinute(float64(totalChars)/CharsPerWord, elapsedSeconds)
}

// NetWPM subtracts one word per incorrect character from the raw word count.
func NetWPM(correct, incorrect int, elapsedSeconds float64) int {
	words := float64(correct+incorrect)/CharsPerWord - float64(incorrect)
	if words < 0 {
		words = 0
	}
	return perMinute(words, elapsedSeconds)
}

func perMinute(words, elapsedSeconds float64) int {
	if elapsedSeconds <= 0 || math.IsNaN(elapsedSeconds) || math.IsInf(elapsedSeconds, 0) {
		return 0
	}
	v := words / (elapsedSeconds / 60)
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return int(math.Floor(v))
}

// Accuracy returns the character accuracy percentage, 100 when nothing was typed.
func Accuracy(correct, incorrect int) int {
	return percent(correct, correct+incorrect)
}

// WordAccuracy returns the share of correct words, 100 when no word was attempted.
func WordAccuracy(correctWords, totalWords int) int {
	return percent(correctWords, totalWords)
}

func percent(part, whole int) int {
	if part < 0 {
		part = 0
	}
	if whole <= 0 {
		return 100
	}
	if part > whole {
		part = whole
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

// Consistency maps the coefficient of variation of per-second WPM samples to 0..100.
// No samples yields 0, a single sample yields 100.
func Consistency(samples []int) int {
	switch len(samples) {
	case 0:
		return 0
	case 1:
		return 100
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s)
	}
	mean := sum / float64(len(samples))
	var variance float64
	for _, s := range samples {
		d := float64(s) - mean
		variance += d * d
	}
	variance /= float64(len(samples))
	cv := 0.0
	if mean != 0 {
		cv = math.Sqrt(variance) / mean
	}
	if math.IsNaN(cv) || math.IsInf(cv, 0) {
		return 0
	}
	score := math.Round(100 - cv*100)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return int(score)
}

// PeakWPM returns the highest sample, or 0 for an empty history.
func PeakWPM(samples []int) int {
	peak := 0
	for _, s := range samples {
		if s > peak {
			peak = s
		}
	}
	return peak
}

// AverageWPM returns the rounded mean sample, or 0 for an empty history.
func AverageWPM(samples []int) int {
	if len(samples) == 0 {
		return 0
	}
	sum := 0
	for _, s := range samples {
		sum += s
	}
	return int(math.Round(float64(sum) / float64(len(samples))))
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}
