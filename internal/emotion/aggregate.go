package emotion

// Histogram maps each label present in a timeline to its occurrence count.
// Keys are exactly the distinct labels of the timeline; counts sum to the
// timeline length.
type Histogram map[Label]int

// Aggregate tallies label frequencies across the timeline and returns the
// dominant label. Ties break deterministically: among labels sharing the
// maximum count, the one whose first span occurs earliest in the timeline
// wins. An empty timeline yields an empty histogram and NoData.
func Aggregate(timeline Timeline) (Histogram, Label) {
	if len(timeline) == 0 {
		return Histogram{}, NoData
	}

	hist := make(Histogram, 4)
	firstSeen := make([]Label, 0, 4)
	for _, span := range timeline {
		if _, ok := hist[span.Emotion]; !ok {
			firstSeen = append(firstSeen, span.Emotion)
		}
		hist[span.Emotion]++
	}

	dominant := firstSeen[0]
	for _, label := range firstSeen[1:] {
		if hist[label] > hist[dominant] {
			dominant = label
		}
	}
	return hist, dominant
}
