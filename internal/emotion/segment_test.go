package emotion

import (
	"strings"
	"testing"
)

func newTestSegmenter() *Segmenter {
	return NewSegmenter(NewClassifier(stubScorer{}))
}

func TestSegment_WindowGeometry(t *testing.T) {
	s := newTestSegmenter()

	tests := []struct {
		name      string
		wordCount int
		wantSpans int
	}{
		{"empty", 0, 0},
		{"single_word", 1, 1},
		{"exact_window", 5, 1},
		{"one_over", 6, 2},
		{"two_full", 10, 2},
		{"ragged_tail", 12, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			words := make([]string, tt.wordCount)
			for i := range words {
				words[i] = "word"
			}
			timeline := s.Segment(strings.Join(words, " "))
			if len(timeline) != tt.wantSpans {
				t.Fatalf("span count = %d, want %d", len(timeline), tt.wantSpans)
			}
			for i, span := range timeline {
				if span.Start != i*3 || span.End != i*3+3 {
					t.Errorf("span %d offsets = (%d, %d), want (%d, %d)",
						i, span.Start, span.End, i*3, i*3+3)
				}
			}
		})
	}
}

func TestSegment_SpanContents(t *testing.T) {
	s := newTestSegmenter()

	timeline := s.Segment("one two three four five six seven")
	if len(timeline) != 2 {
		t.Fatalf("span count = %d, want 2", len(timeline))
	}
	if timeline[0].Text != "one two three four five" {
		t.Errorf("span 0 text = %q", timeline[0].Text)
	}
	if timeline[1].Text != "six seven" {
		t.Errorf("span 1 text = %q", timeline[1].Text)
	}
}

func TestSegment_CollapsesWhitespace(t *testing.T) {
	s := newTestSegmenter()

	timeline := s.Segment("  one \t two\n three  ")
	if len(timeline) != 1 {
		t.Fatalf("span count = %d, want 1", len(timeline))
	}
	if timeline[0].Text != "one two three" {
		t.Errorf("span text = %q, want %q", timeline[0].Text, "one two three")
	}
}

func TestSegment_WhitespaceOnlyIsEmpty(t *testing.T) {
	s := newTestSegmenter()
	if timeline := s.Segment("   \n\t "); len(timeline) != 0 {
		t.Errorf("span count = %d, want 0", len(timeline))
	}
}
