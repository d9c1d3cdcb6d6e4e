package textanalysis

import (
	"regexp"
	"strings"
	"unicode"
)

// Speller decides whether a single lowercase word is spelled correctly.
type Speller interface {
	Correct(word string) bool
}

// SpellerFunc adapts a function to Speller.
type SpellerFunc func(word string) bool

func (f SpellerFunc) Correct(word string) bool { return f(word) }

// misspellings maps common misspellings to their correction.
var misspellings = map[string]string{
	"teh": "the", "recieve": "receive", "seperate": "separate", "occured": "occurred",
	"definately": "definitely", "neccessary": "necessary", "accomodate": "accommodate",
	"begining": "beginning", "beleive": "believe", "calender": "calendar",
	"wierd": "weird", "untill": "until", "tommorow": "tomorrow", "goverment": "government",
	"enviroment": "environment", "publically": "publicly", "arguement": "argument",
	"existance": "existence", "grammer": "grammar", "occassion": "occasion",
	"thier": "their", "truely": "truly", "alot": "a lot", "wich": "which",
}

// informal holds chat abbreviations counted as mistakes.
var informal = map[string]struct{}{
	"u": {}, "ur": {}, "pls": {}, "plz": {}, "thx": {}, "tnx": {},
	"omg": {}, "wtf": {}, "lol": {}, "rofl": {}, "btw": {}, "imo": {}, "tbh": {}, "fyi": {},
	"b4": {}, "gr8": {}, "idk": {}, "ty": {}, "np": {}, "r": {},
}

// LexiconSpeller flags known misspellings and chat abbreviations. Anything it
// does not know is considered correct.
type LexiconSpeller struct{}

func (LexiconSpeller) Correct(word string) bool {
	if _, bad := misspellings[word]; bad {
		return false
	}
	_, bad := informal[word]
	return !bad
}

// Suggest returns the known correction for word, if any.
func Suggest(word string) (string, bool) {
	c, ok := misspellings[strings.ToLower(word)]
	return c, ok
}

var missingSpace = regexp.MustCompile(`[.!?,][A-Za-z]`)

// GrammarReport counts mistakes in a prompt.
type GrammarReport struct {
	Words     int
	Mistakes  int
	Frequency float64 // Mistakes/Words, 0 when Words is 0
	Accuracy  float64 // 1-Frequency clamped to 0..1
}

// Checker combines a Speller with a few punctuation and capitalisation rules.
type Checker struct {
	Speller Speller
}

func NewChecker(sp Speller) *Checker {
	if sp == nil {
		sp = LexiconSpeller{}
	}
	return &Checker{Speller: sp}
}

// Check counts misspelled words, lowercase sentence starts and missing spaces
// after punctuation.
func (c *Checker) Check(text string) GrammarReport {
	words := Words(text)
	r := GrammarReport{Words: len(words), Accuracy: 1}
	if r.Words == 0 {
		return r
	}
	for _, w := range words {
		if !c.Speller.Correct(w) {
			r.Mistakes++
		}
	}
	for _, s := range Sentences(text) {
		if first := []rune(s)[0]; unicode.IsLower(first) {
			r.Mistakes++
		}
	}
	r.Mistakes += len(missingSpace.FindAllStringIndex(text, -1))
	r.Frequency = float64(r.Mistakes) / float64(r.Words)
	r.Accuracy = clamp(1-r.Frequency, 0, 1)
	return r
}
