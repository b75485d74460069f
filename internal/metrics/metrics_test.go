package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/verte-zerg/typeclock/internal/model"
)

func attempts(words ...string) []model.WordAttempt {
	out := make([]model.WordAttempt, 0, len(words))
	for _, w := range words {
		out = append(out, model.WordAttempt{Target: w, Typed: w, Correct: true})
	}
	return out
}

func TestCorrectWordCharsCountsSeparators(t *testing.T) {
	assert.Equal(t, 11, CorrectWordChars(attempts("the", "cat", "sat")))
	assert.Equal(t, 0, CorrectWordChars(nil))

	mixed := attempts("the", "cat", "sat")
	mixed[1].Correct = false
	assert.Equal(t, 7, CorrectWordChars(mixed))

	lastWrong := attempts("the", "cat")
	lastWrong[1].Correct = false
	assert.Equal(t, 4, CorrectWordChars(lastWrong))
}

func TestWPM(t *testing.T) {
	assert.Equal(t, 2, WPM(attempts("the", "cat", "sat"), 60))
	assert.Equal(t, 26, WPM(attempts("the", "cat", "sat"), 5))
	assert.Equal(t, 0, WPM(attempts("the"), 0))
	assert.Equal(t, 0, WPM(attempts("the"), -3))
	assert.Equal(t, 0, WPM(attempts("the"), math.NaN()))
	assert.Equal(t, 0, WPM(attempts("the"), math.Inf(1)))
	assert.Equal(t, 0, WPM(nil, 30))
}

func TestRawAndNetWPM(t *testing.T) {
	assert.Equal(t, 60, RawWPM(300, 60))
	assert.Equal(t, 0, RawWPM(300, 0))
	assert.Equal(t, 50, NetWPM(290, 10, 60))
	assert.Equal(t, 0, NetWPM(0, 50, 60))
}

func TestAccuracy(t *testing.T) {
	assert.Equal(t, 100, Accuracy(0, 0))
	assert.Equal(t, 100, Accuracy(11, 0))
	assert.Equal(t, 0, Accuracy(0, 7))
	assert.Equal(t, 67, Accuracy(2, 1))
	assert.Equal(t, 50, Accuracy(3, 3))
	for c := 0; c < 30; c++ {
		for i := 0; i < 30; i++ {
			got := Accuracy(c, i)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 100)
		}
	}
}

func TestWordAccuracy(t *testing.T) {
	assert.Equal(t, 100, WordAccuracy(0, 0))
	assert.Equal(t, 75, WordAccuracy(3, 4))
}

func TestConsistency(t *testing.T) {
	assert.Equal(t, 0, Consistency(nil))
	assert.Equal(t, 100, Consistency([]int{42}))
	assert.Equal(t, 100, Consistency([]int{50, 50, 50}))
	assert.Equal(t, 100, Consistency([]int{0, 0}))
	assert.Equal(t, 50, Consistency([]int{10, 30}))
	assert.Equal(t, 0, Consistency([]int{0, 100}))
	assert.Equal(t, 0, Consistency([]int{0, 0, 300}))
}

func TestConsistencyBounds(t *testing.T) {
	series := [][]int{
		{1, 2, 3, 4, 5},
		{100, 0, 100, 0},
		{7, 7, 8},
		{0, 1},
		{1000, 1, 1, 1, 1},
	}
	for _, s := range series {
		got := Consistency(s)
		assert.GreaterOrEqual(t, got, 0, "samples %v", s)
		assert.LessOrEqual(t, got, 100, "samples %v", s)
	}
}

func TestPeakAndAverage(t *testing.T) {
	assert.Equal(t, 0, PeakWPM(nil))
	assert.Equal(t, 0, AverageWPM(nil))
	assert.Equal(t, 60, PeakWPM([]int{20, 60, 40}))
	assert.Equal(t, 40, AverageWPM([]int{20, 60, 40}))
}

func TestMovingAverage(t *testing.T) {
	assert.Equal(t, []float64{1, 1.5, 2.5, 3.5}, MovingAverage([]float64{1, 2, 3, 4}, 2))
	assert.Equal(t, []float64{1, 2}, MovingAverage([]float64{1, 2}, 1))
	assert.Empty(t, MovingAverage(nil, 3))
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, "Novice", LevelFor(0).Name)
	assert.Equal(t, "Beginner", LevelFor(20).Name)
	assert.Equal(t, "Intermediate", LevelFor(59).Name)
	assert.Equal(t, "Advanced", LevelFor(60).Name)
	assert.Equal(t, "Expert", LevelFor(120).Name)
}
