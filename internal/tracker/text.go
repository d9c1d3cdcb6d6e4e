package tracker

import (
	"humaine-chatbot/internal/textanalysis"
)

type SentimentTracker struct {
	*MetricTracker
}

func NewSentimentTracker(opts ...Option) *SentimentTracker {
	return &SentimentTracker{NewMetricTracker(NameSentiment, opts...)}
}

// Track scores text with the sentiment lexicon. The normalized score is the
// raw score divided by the token count.
func (t *SentimentTracker) Track(text string) (Record, bool) {
	s := textanalysis.ScoreSentiment(text)
	if s.Tokens == 0 {
		return nil, false
	}
	r := Record{
		"sentiment_score":            s.Score,
		"normalized_sentiment_score": s.Comparative,
	}
	t.AddValue(r)
	return r, true
}

type GrammarTracker struct {
	*MetricTracker
	speller textanalysis.Speller
}

func NewGrammarTracker(sp textanalysis.Speller, opts ...Option) *GrammarTracker {
	if sp == nil {
		sp = textanalysis.LexiconSpeller{}
	}
	return &GrammarTracker{MetricTracker: NewMetricTracker(NameGrammar, opts...), speller: sp}
}

// Track counts words failing the spell check. Text without words is skipped.
func (t *GrammarTracker) Track(text string) (Record, bool) {
	words := textanalysis.Words(text)
	if len(words) == 0 {
		return nil, false
	}
	mistakes := 0
	for _, w := range words {
		if !t.speller.Correct(w) {
			mistakes++
		}
	}
	r := Record{
		"total_words_count":              len(words),
		"mistakes_count":                 mistakes,
		"grammatical_mistakes_frequency": float64(mistakes) / float64(len(words)),
	}
	t.AddValue(r)
	return r, true
}

const (
	DefaultAlpha = 0.5
	DefaultBeta  = 0.5
)

type LanguageComplexityTracker struct {
	*MetricTracker
	alpha, beta float64
}

func NewLanguageComplexityTracker(alpha, beta float64, opts ...Option) *LanguageComplexityTracker {
	return &LanguageComplexityTracker{MetricTracker: NewMetricTracker(NameLanguageComplexity, opts...), alpha: alpha, beta: beta}
}

// Track emits alpha*average_sentence_length + beta*type_token_ratio.
func (t *LanguageComplexityTracker) Track(text string) (Record, bool) {
	if len(textanalysis.Words(text)) == 0 {
		return nil, false
	}
	asl, ttr, c := textanalysis.Complexity(text, t.alpha, t.beta)
	r := Record{
		"average_sentence_length": asl,
		"type_token_ratio":        ttr,
		"complexity":              c,
	}
	t.AddValue(r)
	return r, true
}
