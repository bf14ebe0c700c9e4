package emotion

import govader "github.com/jonreiter/govader"

// VaderScorer scores text with the VADER sentiment lexicon. The compound
// score maps directly onto the polarity contract ([-1, 1]); subjectivity is
// derived as the non-neutral proportion of the text ([0, 1]).
type VaderScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVaderScorer builds a scorer with the default VADER lexicon.
func NewVaderScorer() *VaderScorer {
	return &VaderScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Score implements Scorer. Empty text scores (0, 0).
func (s *VaderScorer) Score(text string) (polarity, subjectivity float64) {
	if text == "" {
		return 0, 0
	}
	scores := s.analyzer.PolarityScores(text)
	polarity = clamp(scores.Compound, -1, 1)
	subjectivity = clamp(1-scores.Neutral, 0, 1)
	return polarity, subjectivity
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
