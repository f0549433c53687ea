package agent

import (
	"strings"
	"unicode/utf8"
)

const (
	titleWords    = 5
	titleMaxRunes = 50
)

// DeriveTitle builds a conversation title from the first words of text.
func DeriveTitle(text string) string {
	words := strings.Fields(text)
	if len(words) > titleWords {
		words = words[:titleWords]
	}
	title := strings.Join(words, " ")
	if utf8.RuneCountInString(title) <= titleMaxRunes {
		return title
	}
	runes := []rune(title)
	return strings.TrimSpace(string(runes[:titleMaxRunes-3])) + "..."
}
