package stats

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/typeclock/internal/analytics"
	"github.com/verte-zerg/typeclock/internal/metrics"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
)

func writeLines(w io.Writer, lines ...string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderSummary prints totals, averages and personal bests.
func RenderSummary(w io.Writer, rec analytics.Record) error {
	s := rec.Statistics
	if s.TotalTests == 0 {
		return writeLines(w, headerStyle.Render("Summary"), "No results yet.", "")
	}
	typing := (time.Duration(s.TotalTimeTyping) * time.Second).String()
	level := metrics.LevelFor(s.AverageWPM)
	improvement := "n/a (needs 20 tests)"
	if s.TotalTests >= 20 {
		improvement = fmt.Sprintf("%+.2f wpm", s.ImprovementRate)
	}
	pb := rec.PersonalBests
	return writeLines(w,
		headerStyle.Render(fmt.Sprintf("Summary for %s", rec.UserID)),
		fmt.Sprintf("Tests: %d   Time typing: %s   Characters: %d", s.TotalTests, typing, s.TotalCharactersTyped),
		fmt.Sprintf("Avg WPM: %d   Avg accuracy: %d%%   Level: %s", s.AverageWPM, s.AverageAccuracy, level.Name),
		fmt.Sprintf("Favorite: %s, %ds   Improvement: %s", s.FavoriteMode, s.FavoriteDuration, improvement),
		"",
		headerStyle.Render("Personal bests"),
		fmt.Sprintf("WPM %d %s", pb.WPM.Value, bestDate(pb.WPM)),
		fmt.Sprintf("Accuracy %d%% %s", pb.Accuracy.Value, bestDate(pb.Accuracy)),
		fmt.Sprintf("Consistency %d%% %s", pb.Consistency.Value, bestDate(pb.Consistency)),
		"",
	)
}

func bestDate(b analytics.Best) string {
	if b.Date == "" {
		return ""
	}
	return mutedStyle.Render("(" + b.Date + ")")
}

// RenderRecent prints one table row per result.
func RenderRecent(w io.Writer, results []analytics.StoredResult) error {
	if len(results) == 0 {
		return writeLines(w, headerStyle.Render("Recent tests"), "No results yet.", "")
	}
	headers := []string{"When", "Mode", "Time", "WPM", "Raw", "Acc", "Cons", "Trend"}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.Timestamp.Local().Format("2006-01-02 15:04"),
			string(r.Mode),
			fmt.Sprintf("%d/%ds", r.ElapsedSeconds, r.DurationSeconds),
			strconv.Itoa(r.WPM),
			strconv.Itoa(r.RawWPM),
			fmt.Sprintf("%d%%", r.Accuracy),
			fmt.Sprintf("%d%%", r.Consistency),
			Sparkline(Floats(r.WPMHistory)),
		})
	}
	rightAlign := map[int]bool{2: true, 3: true, 4: true, 5: true, 6: true}
	if err := writeLines(w, headerStyle.Render("Recent tests")); err != nil {
		return err
	}
	if err := writeLines(w, formatTable(headers, rows, rightAlign)...); err != nil {
		return err
	}
	return writeLines(w, "")
}

// trendWindow is the number of buckets averaged into the progress trend line.
const trendWindow = 3

// RenderProgress plots average and best WPM per bucket with a rolling trend
// and lists the buckets.
func RenderProgress(w io.Writer, period analytics.Period, points []analytics.ProgressPoint, width, height int, useColor bool) error {
	title := fmt.Sprintf("Progress (%s)", period)
	if len(points) == 0 {
		return writeLines(w, headerStyle.Render(title), "No progress data yet.", "")
	}
	avg := make([]float64, len(points))
	best := make([]float64, len(points))
	rows := make([][]string, 0, len(points))
	for i, p := range points {
		avg[i] = float64(p.AverageWPM)
		best[i] = float64(p.BestWPM)
		rows = append(rows, []string{
			p.Key,
			strconv.Itoa(p.TestCount),
			strconv.Itoa(p.AverageWPM),
			strconv.Itoa(p.BestWPM),
			fmt.Sprintf("%d%%", p.AverageAccuracy),
		})
	}
	if err := PlotSeries(w, title, []Series{
		{Name: "Avg WPM", Values: avg},
		{Name: "Best WPM", Values: best},
		{Name: "Trend", Values: metrics.MovingAverage(avg, trendWindow)},
	}, width, height, useColor); err != nil {
		return err
	}
	headers := []string{"Period", "Tests", "Avg WPM", "Best WPM", "Avg acc"}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true}
	if err := writeLines(w, ""); err != nil {
		return err
	}
	if err := writeLines(w, formatTable(headers, rows, rightAlign)...); err != nil {
		return err
	}
	return writeLines(w, "")
}

// RenderMissedWords prints the most frequently mistyped words.
func RenderMissedWords(w io.Writer, missed []MissedWord) error {
	if len(missed) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(missed))
	for _, m := range missed {
		rows = append(rows, []string{m.Word, strconv.Itoa(m.Misses), strconv.Itoa(m.Seen)})
	}
	if err := writeLines(w, headerStyle.Render("Most missed words")); err != nil {
		return err
	}
	if err := writeLines(w, formatTable([]string{"Word", "Misses", "Seen"}, rows, map[int]bool{1: true, 2: true})...); err != nil {
		return err
	}
	return writeLines(w, "")
}

// RenderUsers prints one row per user record and marks current.
func RenderUsers(w io.Writer, current string, records []analytics.Record) error {
	if len(records) == 0 {
		return writeLines(w, headerStyle.Render("Users"), "No users yet.", "")
	}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		name := rec.UserID
		if name == current {
			name += " *"
		}
		last := ""
		if !rec.LastUpdated.IsZero() {
			last = rec.LastUpdated.Local().Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{
			name,
			strconv.Itoa(rec.Statistics.TotalTests),
			strconv.Itoa(rec.Statistics.AverageWPM),
			strconv.Itoa(rec.PersonalBests.WPM.Value),
			last,
		})
	}
	if err := writeLines(w, headerStyle.Render("Users")); err != nil {
		return err
	}
	headers := []string{"User", "Tests", "Avg WPM", "Best WPM", "Last test"}
	if err := writeLines(w, formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true})...); err != nil {
		return err
	}
	return writeLines(w, "")
}
