package transcribe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// ErrUnrecognized is returned when speech recognition has definitively
// failed after retries. Callers substitute the Sentinel transcript and
// complete the report rather than aborting.
var ErrUnrecognized = errors.New("speech not recognized")

// Resilient wraps a Provider with exponential-backoff retries for transient
// transport failures. It still implements Provider.
type Resilient struct {
	inner      Provider
	maxElapsed time.Duration
	log        zerolog.Logger
}

// NewResilient wraps the provider. maxElapsed bounds the total retry time.
func NewResilient(inner Provider, maxElapsed time.Duration, log zerolog.Logger) *Resilient {
	return &Resilient{
		inner:      inner,
		maxElapsed: maxElapsed,
		log:        log.With().Str("provider", inner.Name()).Logger(),
	}
}

func (r *Resilient) Name() string  { return r.inner.Name() }
func (r *Resilient) Model() string { return r.inner.Model() }

// Transcribe retries the inner provider until it succeeds or the retry
// budget is exhausted, then reports ErrUnrecognized. Context cancellation
// is permanent.
func (r *Resilient) Transcribe(ctx context.Context, audioPath string) (*Response, error) {
	var resp *Response
	var lastErr error

	op := func() error {
		var err error
		resp, err = r.inner.Transcribe(ctx, audioPath)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			r.log.Warn().Err(err).Str("audio", audioPath).Msg("transcription attempt failed")
			return err
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = r.maxElapsed

	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnrecognized, lastErr)
	}
	return resp, nil
}
