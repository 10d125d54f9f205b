package editor

import (
	"strings"
	"unicode/utf8"
)

// WordsPerMinute is the reading speed used for the read time estimate.
const WordsPerMinute = 200

// Stats summarizes a buffer for a status bar.
type Stats struct {
	Chars       int
	Lines       int
	ReadMinutes int
}

// ComputeStats counts runes, newline-separated lines, and estimates the
// reading time from space-separated words, rounding up.
func ComputeStats(v string) Stats {
	words := len(strings.Split(v, " "))
	return Stats{
		Chars:       utf8.RuneCountInString(v),
		Lines:       len(strings.Split(v, "\n")),
		ReadMinutes: (words + WordsPerMinute - 1) / WordsPerMinute,
	}
}

// Stats summarizes the current buffer.
func (e *Editor) Stats() Stats {
	return ComputeStats(e.Value())
}
