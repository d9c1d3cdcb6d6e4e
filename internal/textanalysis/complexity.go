package textanalysis

import (
	"math"
	"strings"
)

// AverageSentenceLength is words per sentence; 0 for empty text.
func AverageSentenceLength(text string) float64 {
	sentences := Sentences(text)
	if len(sentences) == 0 {
		return 0
	}
	words := 0
	for _, s := range sentences {
		words += len(strings.Fields(s))
	}
	return float64(words) / float64(len(sentences))
}

// TypeTokenRatio is unique lowercase tokens over total tokens.
func TypeTokenRatio(text string) float64 {
	words := Words(text)
	if len(words) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		seen[w] = struct{}{}
	}
	return float64(len(seen)) / float64(len(words))
}

// Complexity is alpha*ASL + beta*TTR.
func Complexity(text string, alpha, beta float64) (asl, ttr, score float64) {
	asl = AverageSentenceLength(text)
	ttr = TypeTokenRatio(text)
	return asl, ttr, alpha*asl + beta*ttr
}

// Syllables estimates syllables in a word by counting vowel groups, dropping a
// silent trailing "e". Every word has at least one.
func Syllables(word string) int {
	w := strings.ToLower(word)
	n := 0
	prevVowel := false
	for _, r := range w {
		v := strings.ContainsRune("aeiouy", r)
		if v && !prevVowel {
			n++
		}
		prevVowel = v
	}
	if strings.HasSuffix(w, "e") && !strings.HasSuffix(w, "le") && n > 1 {
		n--
	}
	if n == 0 {
		n = 1
	}
	return n
}

// FleschReadingEase scores readability; higher is easier. Empty text scores 100.
func FleschReadingEase(text string) float64 {
	words := Words(text)
	sentences := len(Sentences(text))
	if len(words) == 0 || sentences == 0 {
		return 100
	}
	syl := 0
	for _, w := range words {
		syl += Syllables(w)
	}
	wps := float64(len(words)) / float64(sentences)
	spw := float64(syl) / float64(len(words))
	return math.Round((206.835-1.015*wps-84.6*spw)*100) / 100
}
