package emotion

import "strings"

// Scorer produces sentiment scores for a span of text.
// Polarity is in [-1, 1], subjectivity in [0, 1].
type Scorer interface {
	Score(text string) (polarity, subjectivity float64)
}

// keywordList pairs a label with its trigger substrings. Matching is
// case-insensitive and positional: a trigger anywhere in the text counts.
type keywordList struct {
	label    Label
	triggers []string
}

// keywordLists are scanned in this order; the first list with a hit wins,
// so Angry outranks Fear outranks Sad outranks Happy when triggers co-occur.
var keywordLists = []keywordList{
	{Angry, []string{"angry", "furious", "rage", "hate", "annoyed", "irritated"}},
	{Fear, []string{"afraid", "scared", "terrified", "fear", "panic", "anxious"}},
	{Sad, []string{"sad", "unhappy", "depressed", "miserable", "heartbroken", "crying"}},
	{Happy, []string{"happy", "great", "joy", "glad", "wonderful", "excited", "awesome", "love"}},
}

// Classifier assigns an emotion label to text. Keyword triggers take
// priority; otherwise the sentiment scorer decides via polarity and
// subjectivity thresholds. Classify is pure and total: every input,
// including the empty string, resolves to a label.
type Classifier struct {
	scorer Scorer
}

// NewClassifier creates a classifier backed by the given sentiment scorer.
func NewClassifier(scorer Scorer) *Classifier {
	return &Classifier{scorer: scorer}
}

// Classify maps text to an emotion label.
func (c *Classifier) Classify(text string) Label {
	lower := strings.ToLower(text)

	for _, kl := range keywordLists {
		for _, trigger := range kl.triggers {
			if strings.Contains(lower, trigger) {
				return kl.label
			}
		}
	}

	polarity, subjectivity := c.scorer.Score(lower)
	switch {
	case polarity >= 0.5:
		return VeryHappy
	case polarity >= 0.2:
		return Happy
	case polarity <= -0.5:
		return VerySad
	case polarity <= -0.2:
		return Sad
	case subjectivity >= 0.6:
		return Emotional
	default:
		return Neutral
	}
}
