package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/typeclock/internal/model"
)

// wordsPerPage is how many target words are shown at once; the view flips to
// the next page when the cursor leaves the current one.
const wordsPerPage = 40

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

func newStyledRune(r rune, style func(...string) string, isSpace bool) styledRune {
	return styledRune{s: style(string(r)), width: runewidth.RuneWidth(r), isSpace: isSpace}
}

// pageStart returns the index of the first word on the page holding index.
func pageStart(index int) int {
	return (index / wordsPerPage) * wordsPerPage
}

// buildWordRunes styles the words of one page. Finished words are coloured by
// their attempt, the current word by the live input and later words as pending.
func buildWordRunes(words []string, attempts []model.WordAttempt, current int, input string) []styledRune {
	start := pageStart(current)
	end := min(start+wordsPerPage, len(words))
	out := make([]styledRune, 0, (end-start)*6)
	for i := start; i < end; i++ {
		if i > start {
			out = append(out, newStyledRune(' ', pendingStyle.Render, true))
		}
		switch {
		case i < len(attempts):
			out = appendTyped(out, []rune(words[i]), []rune(attempts[i].Typed), -1)
		case i == current:
			out = appendTyped(out, []rune(words[i]), []rune(input), len([]rune(input)))
		default:
			for _, r := range words[i] {
				out = append(out, newStyledRune(r, pendingStyle.Render, false))
			}
		}
	}
	return out
}

// appendTyped renders target against typed. cursor is the position to
// underline, or -1 for a finished word.
func appendTyped(out []styledRune, target, typed []rune, cursor int) []styledRune {
	n := max(len(target), len(typed))
	for i := 0; i < n; i++ {
		switch {
		case i < len(typed) && i < len(target):
			style := incorrectStyle
			if typed[i] == target[i] {
				style = correctStyle
			}
			out = append(out, newStyledRune(target[i], style.Render, false))
		case i < len(typed):
			out = append(out, newStyledRune(typed[i], extraStyle.Render, false))
		case cursor < 0:
			out = append(out, newStyledRune(target[i], missedStyle.Render, false))
		case i == cursor:
			out = append(out, newStyledRune(target[i], cursorStyle.Render, false))
		default:
			out = append(out, newStyledRune(target[i], currentWordStyle.Render, false))
		}
	}
	if cursor >= n {
		out = append(out, newStyledRune(' ', cursorStyle.Render, false))
	}
	return out
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

// wrapStyledRunes breaks lines at spaces so no line exceeds width cells.
// Words wider than a line are split.
func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var out strings.Builder
	var line []styledRune
	lineWidth := 0
	lastSpace := -1
	flush := func(upTo, resumeAt int) {
		out.WriteString(renderStyledRunes(line[:upTo]))
		out.WriteByte('\n')
		line = append([]styledRune(nil), line[resumeAt:]...)
		lineWidth = 0
		lastSpace = -1
		for i, item := range line {
			lineWidth += item.width
			if item.isSpace {
				lastSpace = i
			}
		}
	}
	for _, item := range runes {
		if item.isSpace && lineWidth+item.width > width {
			flush(len(line), len(line))
			continue
		}
		for lineWidth+item.width > width && len(line) > 0 {
			if lastSpace >= 0 {
				flush(lastSpace, lastSpace+1)
			} else {
				flush(len(line), len(line))
			}
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpace = len(line) - 1
		}
	}
	out.WriteString(renderStyledRunes(line))
	return out.String()
}
