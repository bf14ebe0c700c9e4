package emotion

import "strings"

// Window geometry for transcript segmentation. Each span covers windowWords
// transcript words and is assigned a fixed synthetic duration; the offsets
// are not derived from real audio timing.
const (
	windowWords    = 5
	windowDuration = 3 // seconds per span
)

// Span is a contiguous slice of the transcript's words with synthetic time
// bounds and one emotion label. Spans are immutable once produced.
type Span struct {
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Text    string `json:"text"`
	Emotion Label  `json:"emotion"`
}

// Timeline is an ordered sequence of spans in transcript order.
type Timeline []Span

// Segmenter splits transcripts into fixed-size word windows and labels each
// window with the classifier.
type Segmenter struct {
	classifier *Classifier
}

// NewSegmenter creates a segmenter using the given classifier.
func NewSegmenter(classifier *Classifier) *Segmenter {
	return &Segmenter{classifier: classifier}
}

// Segment splits text on whitespace into non-overlapping windows of five
// words (the last window may be shorter) and classifies each. An empty
// transcript yields an empty timeline.
func (s *Segmenter) Segment(text string) Timeline {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	timeline := make(Timeline, 0, (len(words)+windowWords-1)/windowWords)
	for i := 0; i < len(words); i += windowWords {
		end := i + windowWords
		if end > len(words) {
			end = len(words)
		}
		part := strings.Join(words[i:end], " ")
		start := (i / windowWords) * windowDuration
		timeline = append(timeline, Span{
			Start:   start,
			End:     start + windowDuration,
			Text:    part,
			Emotion: s.classifier.Classify(part),
		})
	}
	return timeline
}
