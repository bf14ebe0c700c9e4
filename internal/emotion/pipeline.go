package emotion

// ReportResult is the full output of one pipeline run, consumed by the
// rendering and persistence layers.
type ReportResult struct {
	Transcript string    `json:"transcript"`
	Dominant   Label     `json:"dominant_emotion"`
	Timeline   Timeline  `json:"timeline"`
	Histogram  Histogram `json:"histogram"`
}

// Pipeline runs transcript segmentation and aggregation. It holds no state
// across runs and is safe for concurrent use.
type Pipeline struct {
	segmenter *Segmenter
}

// NewPipeline wires a pipeline from a sentiment scorer.
func NewPipeline(scorer Scorer) *Pipeline {
	return &Pipeline{segmenter: NewSegmenter(NewClassifier(scorer))}
}

// Run segments and aggregates the raw transcript. It never fails: a
// transcription-failure sentinel string is classified like any other text.
func (p *Pipeline) Run(transcript string) ReportResult {
	timeline := p.segmenter.Segment(transcript)
	hist, dominant := Aggregate(timeline)
	return ReportResult{
		Transcript: transcript,
		Dominant:   dominant,
		Timeline:   timeline,
		Histogram:  hist,
	}
}
