package textanalysis

import "strings"

// wordScores is an AFINN-style lexicon rated -5..5.
var wordScores = map[string]int{
	"excellent": 5, "amazing": 5, "outstanding": 5, "fantastic": 5, "brilliant": 5,
	"wonderful": 4, "great": 4, "awesome": 4, "perfect": 4, "superb": 4,
	"good": 3, "nice": 3, "fine": 3, "okay": 2, "alright": 2,
	"love": 5, "adore": 5, "enjoy": 4, "like": 3, "appreciate": 4,
	"helpful": 4, "useful": 4, "beneficial": 4, "valuable": 4,
	"excited": 4, "happy": 4, "pleased": 4, "satisfied": 3, "joy": 4,
	"impressed": 4, "surprised": 3, "interested": 3, "thanks": 2, "thank": 2,

	"terrible": -5, "awful": -5, "horrible": -5, "dreadful": -5, "atrocious": -5,
	"bad": -3, "poor": -3, "worse": -4, "worst": -5, "sad": -2,
	"hate": -5, "despise": -5, "loathe": -5, "dislike": -3, "disappointed": -3,
	"frustrated": -3, "angry": -4, "annoyed": -3, "irritated": -3,
	"confused": -2, "lost": -2, "unsure": -2, "uncertain": -2,
	"useless": -4, "pointless": -4, "worthless": -4, "meaningless": -4,
	"boring": -3, "tedious": -3, "monotonous": -3, "repetitive": -2,
	"difficult": -2, "hard": -2, "challenging": -1, "complex": -1,
}

var emojiScores = map[string]int{
	"😀": 4, "😃": 4, "😄": 4, "😁": 4, "😆": 4, "😅": 3, "😂": 4, "🤣": 4,
	"😊": 4, "😇": 4, "🙂": 3, "🙃": 2, "😉": 3, "😌": 3, "😍": 5, "🥰": 5,
	"😘": 4, "😋": 3, "😎": 3, "🤩": 4, "🥳": 4, "🤗": 3, "👍": 3, "💯": 3,
	"✅": 3, "❤️": 4, "💕": 4, "💖": 4,
	"😒": -2, "😞": -3, "😔": -3, "😟": -2, "😕": -2, "🙁": -2, "☹️": -3,
	"😣": -3, "😖": -3, "😫": -3, "😩": -3, "🥺": -1, "😢": -3, "😭": -4,
	"😤": -2, "😠": -3, "😡": -4, "🤬": -5, "🤯": -2, "😱": -3, "😨": -3,
	"😰": -3, "😥": -2, "😓": -2, "🤢": -4, "🤮": -5, "💔": -4, "👎": -3,
	"❌": -3, "🆘": -3, "💢": -3,
}

// Sentiment is the result of lexicon scoring. Comparative is Score divided by
// the number of tokens and is 0 for empty input.
type Sentiment struct {
	Score       int
	Comparative float64
	Tokens      int
	Positive    []string
	Negative    []string
}

// ScoreSentiment sums the lexicon ratings of every word and emoji in text.
func ScoreSentiment(text string) Sentiment {
	var s Sentiment
	for _, w := range Words(text) {
		s.Tokens++
		if v, ok := wordScores[w]; ok {
			s.Score += v
			switch {
			case v > 0:
				s.Positive = append(s.Positive, w)
			case v < 0:
				s.Negative = append(s.Negative, w)
			}
		}
	}
	for e, v := range emojiScores {
		if n := strings.Count(text, e); n > 0 {
			s.Score += v * n
			s.Tokens += n
		}
	}
	if s.Tokens > 0 {
		s.Comparative = float64(s.Score) / float64(s.Tokens)
	}
	return s
}

const (
	LabelPositive = "positive"
	LabelNegative = "negative"
	LabelNeutral  = "neutral"

	LevelHigh   = "high"
	LevelMedium = "medium"
	LevelLow    = "low"
)

// Tone is the coarse reading of a prompt used to pick a response style.
type Tone struct {
	Label       string
	Score       float64 // -1..1
	Enthusiasm  string
	Exclamation int
	Questions   int
	CapsRatio   float64
}

// ReadTone labels text positive/negative/neutral and estimates enthusiasm from
// exclamation marks and capital letters.
func ReadTone(text string) Tone {
	s := ScoreSentiment(text)
	t := Tone{
		Exclamation: strings.Count(text, "!"),
		Questions:   strings.Count(text, "?"),
	}
	runes := []rune(text)
	if len(runes) > 0 {
		caps := 0
		for _, r := range runes {
			if isLetter(r) && r != toLower(r) {
				caps++
			}
		}
		t.CapsRatio = float64(caps) / float64(len(runes))
	}
	if s.Tokens > 0 {
		t.Score = clamp(float64(len(s.Positive)-len(s.Negative))/float64(s.Tokens)*10, -1, 1)
	}
	switch {
	case t.Score > 0.3:
		t.Label = LabelPositive
	case t.Score < -0.3:
		t.Label = LabelNegative
	default:
		t.Label = LabelNeutral
	}
	switch {
	case t.Exclamation > 2 || t.CapsRatio > 0.1:
		t.Enthusiasm = LevelHigh
	case t.Exclamation > 0 || t.CapsRatio > 0.05:
		t.Enthusiasm = LevelMedium
	default:
		t.Enthusiasm = LevelLow
	}
	return t
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
