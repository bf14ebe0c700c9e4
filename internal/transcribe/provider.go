package transcribe

import "context"

// Sentinel is the transcript substituted when speech recognition fails.
// The emotion pipeline treats it as ordinary text.
const Sentinel = "Could not recognize speech"

// Provider is the interface for speech-to-text backends.
type Provider interface {
	Transcribe(ctx context.Context, audioPath string) (*Response, error)
	Name() string  // "whisper", "elevenlabs"
	Model() string // model identifier for DB/logs
}

// Response is the common transcription result from any provider.
type Response struct {
	Text     string
	Language string
	Duration float64 // audio duration in seconds, 0 if unknown
}
