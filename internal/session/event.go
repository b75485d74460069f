package session

import "time"

// EventKind tags a recorded input.
type EventKind int

const (
	EventChar EventKind = iota
	EventBackspace
	EventTick
	EventEnd
)

// Event is one recorded input. At is optional; when set it replaces the wall
// clock for any timestamp the event produces.
type Event struct {
	Kind EventKind
	Char rune
	At   time.Time
}

// Apply dispatches a recorded event and reports whether it changed the session.
func (e *Engine) Apply(ev Event) bool {
	e.eventAt = ev.At
	defer func() { e.eventAt = time.Time{} }()

	switch ev.Kind {
	case EventChar:
		return e.ApplyCharacter(ev.Char)
	case EventBackspace:
		return e.ApplyBackspace()
	case EventTick:
		before := e.elapsed
		e.Tick()
		return e.elapsed != before
	case EventEnd:
		before := e.phase
		e.End()
		return e.phase != before
	default:
		return false
	}
}

// Replay applies events in order.
func (e *Engine) Replay(events []Event) {
	for _, ev := range events {
		e.Apply(ev)
	}
}

// Keys converts typed text into character events, one per rune. '\b' becomes
// a backspace.
func Keys(text string) []Event {
	events := make([]Event, 0, len(text))
	for _, r := range text {
		if r == '\b' {
			events = append(events, Event{Kind: EventBackspace})
			continue
		}
		events = append(events, Event{Kind: EventChar, Char: r})
	}
	return events
}

// Ticks returns n tick events.
func Ticks(n int) []Event {
	events := make([]Event, n)
	for i := range events {
		events[i] = Event{Kind: EventTick}
	}
	return events
}
