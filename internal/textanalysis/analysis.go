package textanalysis

import "strings"

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`a an the and or but if of at by for with about against between into
through during before after above below to from up down in out on off over under again further then once
here there when where why how all any both each few more most other some such no nor not only own same so
than too very s t can will just don should now i me my myself we our ours you your yours he him his she her
it its they them their what which who whom this that these those am is are was were be been being have has
had having do does did doing would could`) {
		stopWords[w] = struct{}{}
	}
}

// VocabularyDiversity blends type-token ratio, hapax ratio and the share of
// non stop-words into a 0..1 score.
func VocabularyDiversity(text string) float64 {
	words := Words(text)
	if len(words) == 0 {
		return 0.5
	}
	freq := make(map[string]int, len(words))
	stop := 0
	for _, w := range words {
		freq[w]++
		if _, ok := stopWords[w]; ok {
			stop++
		}
	}
	hapax := 0
	for _, n := range freq {
		if n == 1 {
			hapax++
		}
	}
	ttr := float64(len(freq)) / float64(len(words))
	hapaxRatio := float64(hapax) / float64(len(freq))
	stopRatio := float64(stop) / float64(len(words))
	return ttr*0.4 + hapaxRatio*0.3 + (1-stopRatio)*0.3
}

// Analysis is everything the profile updater reads from one prompt.
type Analysis struct {
	WordCount           int
	FleschReadingEase   float64
	VocabularyDiversity float64
	Sentiment           Sentiment
	Tone                Tone
	Grammar             GrammarReport
}

// Analyzer bundles the heuristics with a grammar Checker.
type Analyzer struct {
	checker *Checker
}

func NewAnalyzer(sp Speller) *Analyzer {
	return &Analyzer{checker: NewChecker(sp)}
}

func (a *Analyzer) Analyze(text string) Analysis {
	return Analysis{
		WordCount:           len(Words(text)),
		FleschReadingEase:   FleschReadingEase(text),
		VocabularyDiversity: VocabularyDiversity(text),
		Sentiment:           ScoreSentiment(text),
		Tone:                ReadTone(text),
		Grammar:             a.checker.Check(text),
	}
}
