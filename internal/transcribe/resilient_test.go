package transcribe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// flakyProvider fails a fixed number of times before succeeding.
type flakyProvider struct {
	failures int
	calls    int
}

func (p *flakyProvider) Transcribe(ctx context.Context, audioPath string) (*Response, error) {
	p.calls++
	if p.calls <= p.failures {
		return nil, errors.New("connection refused")
	}
	return &Response{Text: "hello there"}, nil
}

func (p *flakyProvider) Name() string  { return "flaky" }
func (p *flakyProvider) Model() string { return "test" }

func TestResilient_RecoversFromTransientFailure(t *testing.T) {
	p := &flakyProvider{failures: 2}
	r := NewResilient(p, 5*time.Second, zerolog.Nop())

	resp, err := r.Transcribe(context.Background(), "clip.wav")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if resp.Text != "hello there" {
		t.Errorf("Text = %q", resp.Text)
	}
	if p.calls != 3 {
		t.Errorf("calls = %d, want 3", p.calls)
	}
}

func TestResilient_ReportsUnrecognizedAfterBudget(t *testing.T) {
	p := &flakyProvider{failures: 1 << 30}
	r := NewResilient(p, 50*time.Millisecond, zerolog.Nop())

	_, err := r.Transcribe(context.Background(), "clip.wav")
	if !errors.Is(err, ErrUnrecognized) {
		t.Errorf("err = %v, want ErrUnrecognized", err)
	}
}

func TestResilient_ContextCancelIsPermanent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &flakyProvider{failures: 1 << 30}
	r := NewResilient(p, time.Minute, zerolog.Nop())

	start := time.Now()
	_, err := r.Transcribe(ctx, "clip.wav")
	if err == nil {
		t.Fatal("Transcribe succeeded with cancelled context")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("retried for %v after cancellation", elapsed)
	}
}
