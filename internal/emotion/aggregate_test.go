package emotion

import (
	"reflect"
	"testing"
)

func spansOf(labels ...Label) Timeline {
	timeline := make(Timeline, len(labels))
	for i, l := range labels {
		timeline[i] = Span{Start: i * 3, End: i*3 + 3, Text: "x", Emotion: l}
	}
	return timeline
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name         string
		timeline     Timeline
		wantHist     Histogram
		wantDominant Label
	}{
		{
			"empty_is_nodata",
			nil,
			Histogram{},
			NoData,
		},
		{
			"single_span",
			spansOf(Happy),
			Histogram{Happy: 1},
			Happy,
		},
		{
			"clear_majority",
			spansOf(Sad, Happy, Sad, Neutral, Sad),
			Histogram{Sad: 3, Happy: 1, Neutral: 1},
			Sad,
		},
		{
			"tie_breaks_to_first_in_timeline",
			spansOf(Neutral, Angry, Angry, Neutral),
			Histogram{Neutral: 2, Angry: 2},
			Neutral,
		},
		{
			"later_label_wins_on_strict_majority",
			spansOf(Neutral, Fear, Fear),
			Histogram{Neutral: 1, Fear: 2},
			Fear,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hist, dominant := Aggregate(tt.timeline)
			if !reflect.DeepEqual(hist, tt.wantHist) {
				t.Errorf("histogram = %v, want %v", hist, tt.wantHist)
			}
			if dominant != tt.wantDominant {
				t.Errorf("dominant = %v, want %v", dominant, tt.wantDominant)
			}
		})
	}
}

func TestAggregate_CountsSumToTimelineLength(t *testing.T) {
	timeline := spansOf(Happy, Sad, Happy, Emotional, Neutral, Happy, Sad)
	hist, _ := Aggregate(timeline)

	sum := 0
	for _, n := range hist {
		sum += n
	}
	if sum != len(timeline) {
		t.Errorf("histogram sum = %d, want %d", sum, len(timeline))
	}
	for _, span := range timeline {
		if _, ok := hist[span.Emotion]; !ok {
			t.Errorf("label %v missing from histogram", span.Emotion)
		}
	}
}
