package metrics

// Level is a named speed band.
type Level struct {
	Name        string
	Description string
}

var levels = []struct {
	min   int
	level Level
}{
	{80, Level{Name: "Expert", Description: "Exceptional typing speed!"}},
	{60, Level{Name: "Advanced", Description: "Great typing speed!"}},
	{40, Level{Name: "Intermediate", Description: "Good typing speed!"}},
	{20, Level{Name: "Beginner", Description: "Keep practicing!"}},
}

// LevelFor returns the speed band for a WPM value.
func LevelFor(wpm int) Level {
	for _, l := range levels {
		if wpm >= l.min {
			return l.level
		}
	}
	return Level{Name: "Novice", Description: "Just getting started!"}
}
