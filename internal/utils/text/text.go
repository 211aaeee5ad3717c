// Package text provides utilities for text processing shared across the
// summarizer and notification payload builders.
package text

import "strings"

// readingWordsPerMinute is the assumed adult reading speed used for the
// article read-time estimate.
const readingWordsPerMinute = 200

// ReadTimeMinutes estimates how many minutes reading the text takes,
// assuming 200 words per minute. Never returns less than 1 so every stored
// article carries a usable read time.
func ReadTimeMinutes(text string) int {
	words := len(strings.Fields(text))
	minutes := (words + readingWordsPerMinute - 1) / readingWordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

// CountRunes counts the number of Unicode characters (runes) in the given
// text. It correctly handles multi-byte characters by counting runes instead
// of bytes, so summary-length accounting is consistent across languages.
func CountRunes(text string) int {
	return len([]rune(text))
}

// LimitWords truncates text to at most maxWords whitespace-separated words.
// When truncation happens an ellipsis is appended. This bounds the size of
// push-notification bodies, which carry the article summary.
//
//	LimitWords("one two three", 2)  // "one two…"
//	LimitWords("one two", 5)        // "one two" (unchanged)
//	LimitWords("", 5)               // ""
func LimitWords(text string, maxWords int) string {
	if text == "" || maxWords <= 0 {
		return ""
	}
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return text
	}
	return strings.Join(words[:maxWords], " ") + "…"
}

// TruncateRunes shortens text to at most maxRunes characters, rune-safe.
// Used for notification titles, which providers cap aggressively.
func TruncateRunes(text string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes])
}
