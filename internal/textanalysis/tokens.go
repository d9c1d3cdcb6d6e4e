// Package textanalysis holds the lexical heuristics shared by the client-side
// trackers and the backend profile updater.
package textanalysis

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	nonWord        = regexp.MustCompile(`[^\p{L}\p{N}_']+`)
	sentenceBreaks = regexp.MustCompile(`[.!?]+`)
)

// Words lowercases text, strips non-word characters and splits on whitespace.
func Words(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.Trim(nonWord.ReplaceAllString(f, ""), "'")
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

// Sentences splits on runs of . ! ? and drops empty fragments.
func Sentences(text string) []string {
	parts := sentenceBreaks.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isLetter(r rune) bool { return unicode.IsLetter(r) }

func toLower(r rune) rune { return unicode.ToLower(r) }
