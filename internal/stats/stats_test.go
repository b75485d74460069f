package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/verte-zerg/typeclock/internal/analytics"
	"github.com/verte-zerg/typeclock/internal/model"
)

func TestSparkline(t *testing.T) {
	if got := Sparkline(nil); got != "" {
		t.Fatalf("expected empty sparkline, got %q", got)
	}
	got := Sparkline([]float64{0, 4, 8})
	if got != " ▄█" {
		t.Fatalf("unexpected sparkline %q", got)
	}
	flat := Sparkline([]float64{3, 3, 3})
	if utf8.RuneCountInString(flat) != 3 || flat != strings.Repeat("▄", 3) {
		t.Fatalf("unexpected flat sparkline %q", flat)
	}
}

func TestPlotSeries(t *testing.T) {
	var buf bytes.Buffer
	err := PlotSeries(&buf, "Test Plot", []Series{
		{Name: "A", Values: []float64{10, 20, 30, 20, 10}},
		{Name: "B", Values: []float64{10, 10, 20, 30, 40}},
		{Name: "empty"},
	}, 12, 4, false)
	if err != nil {
		t.Fatalf("PlotSeries failed: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 1+4+1 {
		t.Fatalf("expected 6 lines, got %d: %q", len(lines), lines)
	}
	if !strings.Contains(lines[0], "Test Plot") {
		t.Fatalf("expected title, got %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "40 ┤") {
		t.Fatalf("expected top axis label, got %q", lines[1])
	}
	if !strings.HasPrefix(lines[4], "10 ┤") {
		t.Fatalf("expected bottom axis label, got %q", lines[4])
	}
	if utf8.RuneCountInString(lines[2]) != 4+12 {
		t.Fatalf("unexpected row width: %q", lines[2])
	}
	if strings.Contains(lines[5], "empty") || !strings.Contains(lines[5], "A") {
		t.Fatalf("unexpected legend: %q", lines[5])
	}
}

func TestPlotSeriesNothingToDraw(t *testing.T) {
	var buf bytes.Buffer
	if err := PlotSeries(&buf, "t", []Series{{Name: "none"}}, 10, 4, false); err != nil {
		t.Fatalf("PlotSeries failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestPlotWidthFor(t *testing.T) {
	if got := PlotWidthFor(80, 3); got != 80-3-2 {
		t.Fatalf("unexpected width %d", got)
	}
	if got := PlotWidthFor(0, 3); got != minPlotWidth {
		t.Fatalf("expected min width, got %d", got)
	}
	if got := PlotWidthFor(8, 3); got != minPlotWidth {
		t.Fatalf("expected min width, got %d", got)
	}
}

func storedResult(id string, wpm int, attempts ...model.WordAttempt) analytics.StoredResult {
	ts := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	return analytics.StoredResult{
		ID:        id,
		Timestamp: ts,
		Date:      "2024-03-04",
		SessionResult: model.SessionResult{
			WPM:             wpm,
			RawWPM:          wpm + 3,
			Accuracy:        96,
			Consistency:     88,
			DurationSeconds: 60,
			ElapsedSeconds:  60,
			Mode:            model.ModeWords,
			WPMHistory:      []int{wpm - 5, wpm, wpm + 5},
			Attempts:        attempts,
		},
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	rec := analytics.Record{
		UserID: "alice",
		Statistics: analytics.Statistics{
			TotalTests:           3,
			TotalTimeTyping:      180,
			TotalCharactersTyped: 900,
			AverageWPM:           45,
			AverageAccuracy:      94,
			FavoriteMode:         model.ModeWords,
			FavoriteDuration:     60,
		},
		PersonalBests: analytics.PersonalBests{
			WPM: analytics.Best{Value: 55, ResultID: "r2", Date: "2024-03-04"},
		},
	}
	if err := RenderSummary(&buf, rec); err != nil {
		t.Fatalf("RenderSummary failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"alice", "Tests: 3", "3m0s", "Avg WPM: 45", "Intermediate", "n/a", "WPM 55", "2024-03-04"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in summary:\n%s", want, out)
		}
	}
}

func TestRenderSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, analytics.Record{}); err != nil {
		t.Fatalf("RenderSummary failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No results yet.") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestRenderRecent(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderRecent(&buf, []analytics.StoredResult{storedResult("r1", 52), storedResult("r2", 61)}); err != nil {
		t.Fatalf("RenderRecent failed: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	// title, header, rule, two rows
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d: %q", len(lines), lines)
	}
	if !strings.Contains(lines[3], "52") || !strings.Contains(lines[3], "60/60s") {
		t.Fatalf("unexpected row %q", lines[3])
	}
}

func TestRenderProgress(t *testing.T) {
	var buf bytes.Buffer
	points := []analytics.ProgressPoint{
		{Key: "2024-W09", Aggregate: analytics.Aggregate{TestCount: 2, AverageWPM: 40, AverageAccuracy: 93, BestWPM: 44}},
		{Key: "2024-W10", Aggregate: analytics.Aggregate{TestCount: 5, AverageWPM: 48, AverageAccuracy: 95, BestWPM: 57}},
	}
	if err := RenderProgress(&buf, analytics.PeriodWeekly, points, 20, 4, false); err != nil {
		t.Fatalf("RenderProgress failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Progress (weekly)", "57 ┤", "2024-W10", "Avg WPM", "Trend"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRenderProgressEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderProgress(&buf, analytics.PeriodDaily, nil, 20, 4, false); err != nil {
		t.Fatalf("RenderProgress failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No progress data yet.") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestTopMissedWords(t *testing.T) {
	miss := func(word string) model.WordAttempt { return model.WordAttempt{Target: word, Correct: false} }
	hit := func(word string) model.WordAttempt { return model.WordAttempt{Target: word, Correct: true} }
	results := []analytics.StoredResult{
		storedResult("r1", 40, miss("the"), hit("cat"), miss("sat")),
		storedResult("r2", 42, miss("the"), miss("cat"), hit("the")),
	}

	top := TopMissedWords(results, 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 words, got %d", len(top))
	}
	if top[0] != (MissedWord{Word: "the", Misses: 2, Seen: 3}) {
		t.Fatalf("unexpected first word %+v", top[0])
	}
	if top[1].Word != "cat" {
		t.Fatalf("expected alphabetical tie break, got %+v", top[1])
	}
	if TopMissedWords(results, 0) != nil {
		t.Fatalf("expected nil for n=0")
	}

	var buf bytes.Buffer
	if err := RenderMissedWords(&buf, top); err != nil {
		t.Fatalf("RenderMissedWords failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Most missed words") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}
