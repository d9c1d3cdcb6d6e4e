package textanalysis

import (
	"math"
	"testing"
)

func TestWords(t *testing.T) {
	got := Words("Hello, World!  It's   fine.")
	want := []string{"hello", "world", "it's", "fine"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("word %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestScoreSentiment(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		score       int
		comparative float64
	}{
		{"empty", "", 0, 0},
		{"neutral", "tell me about go", 0, 0},
		{"positive", "this is great", 4, 4.0 / 3},
		{"mixed", "good but bad", 0, 0},
		{"emoji", "thanks 😀", 6, 3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := ScoreSentiment(tc.text)
			if s.Score != tc.score {
				t.Errorf("score: expected %d, got %d", tc.score, s.Score)
			}
			if math.Abs(s.Comparative-tc.comparative) > 1e-9 {
				t.Errorf("comparative: expected %v, got %v", tc.comparative, s.Comparative)
			}
		})
	}
}

func TestReadTone(t *testing.T) {
	if got := ReadTone("I love this, it is AMAZING!!!"); got.Label != LabelPositive || got.Enthusiasm != LevelHigh {
		t.Errorf("expected positive/high, got %s/%s", got.Label, got.Enthusiasm)
	}
	if got := ReadTone("this is terrible and I hate it"); got.Label != LabelNegative {
		t.Errorf("expected negative, got %s", got.Label)
	}
	if got := ReadTone("what time is it"); got.Label != LabelNeutral || got.Enthusiasm != LevelLow {
		t.Errorf("expected neutral/low, got %s/%s", got.Label, got.Enthusiasm)
	}
}

func TestChecker(t *testing.T) {
	c := NewChecker(nil)

	t.Run("clean text", func(t *testing.T) {
		r := c.Check("The weather is nice today.")
		if r.Mistakes != 0 || r.Accuracy != 1 {
			t.Errorf("expected no mistakes, got %+v", r)
		}
	})

	t.Run("misspellings and slang", func(t *testing.T) {
		r := c.Check("I recieve teh package btw.")
		if r.Words != 5 {
			t.Fatalf("expected 5 words, got %d", r.Words)
		}
		if r.Mistakes != 3 {
			t.Errorf("expected 3 mistakes, got %d", r.Mistakes)
		}
	})

	t.Run("lowercase start and missing space", func(t *testing.T) {
		r := c.Check("hello there.How are you?")
		if r.Mistakes != 2 {
			t.Errorf("expected 2 mistakes, got %d", r.Mistakes)
		}
	})

	t.Run("empty text", func(t *testing.T) {
		r := c.Check("   ")
		if r.Words != 0 || r.Frequency != 0 {
			t.Errorf("expected zero report, got %+v", r)
		}
	})
}

func TestComplexity(t *testing.T) {
	asl, ttr, score := Complexity("The cat sat. The cat ran.", 0.5, 0.5)
	if asl != 3 {
		t.Errorf("asl: expected 3, got %v", asl)
	}
	if math.Abs(ttr-4.0/6) > 1e-9 {
		t.Errorf("ttr: expected %v, got %v", 4.0/6, ttr)
	}
	if math.Abs(score-(1.5+ttr/2)) > 1e-9 {
		t.Errorf("score: unexpected %v", score)
	}
	if a, tt, s := Complexity("", 0.5, 0.5); a != 0 || tt != 0 || s != 0 {
		t.Errorf("expected zeros for empty text")
	}
}

func TestSyllables(t *testing.T) {
	for word, want := range map[string]int{"the": 1, "hello": 2, "simple": 2, "make": 1, "rhythm": 1, "beautiful": 3} {
		if got := Syllables(word); got != want {
			t.Errorf("%s: expected %d, got %d", word, want, got)
		}
	}
}

func TestFleschReadingEase(t *testing.T) {
	easy := FleschReadingEase("The cat sat on the mat.")
	hard := FleschReadingEase("Notwithstanding considerable institutional opposition, comprehensive epistemological reconsideration necessitates interdisciplinary collaboration.")
	if easy < 80 {
		t.Errorf("expected easy text >= 80, got %v", easy)
	}
	if hard >= 50 {
		t.Errorf("expected hard text < 50, got %v", hard)
	}
}

func TestVocabularyDiversity(t *testing.T) {
	low := VocabularyDiversity("the the the the the the")
	high := VocabularyDiversity("quantum entanglement challenges classical locality assumptions")
	if low >= 0.4 {
		t.Errorf("expected repetitive text < 0.4, got %v", low)
	}
	if high <= 0.8 {
		t.Errorf("expected rich text > 0.8, got %v", high)
	}
}
