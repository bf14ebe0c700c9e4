package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/snarg/voxmood/internal/database"
	"github.com/snarg/voxmood/internal/emotion"
	"github.com/snarg/voxmood/internal/events"
	"github.com/snarg/voxmood/internal/metrics"
	"github.com/snarg/voxmood/internal/mqttclient"
	"github.com/snarg/voxmood/internal/report"
	"github.com/snarg/voxmood/internal/storage"
	"github.com/snarg/voxmood/internal/transcribe"
)

// ReportStore is the persistence surface the analyzer needs.
type ReportStore interface {
	InsertReport(ctx context.Context, row *database.ReportRow) error
}

// Options configures the analyzer service.
type Options struct {
	Store           ReportStore
	Blobs           storage.Store
	Provider        transcribe.Provider
	Pipeline        *emotion.Pipeline
	Bus             *events.Bus
	MQTT            *mqttclient.Client // nil when no broker configured
	PreprocessAudio bool
	Log             zerolog.Logger
}

// Service runs the full analysis for one audio file: store the upload,
// normalize, transcribe, classify, render, persist, publish. Each call is
// independent and runs to completion; the service holds no per-request state.
type Service struct {
	opts Options
	pdf  *report.PDFRenderer
	xlsx *report.XLSXExporter
	log  zerolog.Logger
}

// NewService creates an analyzer service.
func NewService(opts Options) *Service {
	return &Service{
		opts: opts,
		pdf:  report.NewPDFRenderer(),
		xlsx: report.NewXLSXExporter(),
		log:  opts.Log,
	}
}

// Analyze processes one uploaded audio blob and returns the stored report.
// Transcription failure degrades the report (sentinel transcript) instead of
// aborting; any other failure is returned.
func (s *Service) Analyze(ctx context.Context, userID *int64, audioData []byte, filename, source string) (*database.ReportRow, error) {
	metrics.UploadsTotal.Inc()
	start := time.Now()

	id := uuid.NewString()
	day := time.Now().UTC().Format("2006-01-02")

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".wav"
	}
	audioKey := fmt.Sprintf("%s/%s%s", day, id, ext)
	if err := s.opts.Blobs.Save(ctx, audioKey, audioData, contentTypeFor(ext)); err != nil {
		return nil, fmt.Errorf("store audio: %w", err)
	}

	s.opts.Bus.Publish("report.started", map[string]any{
		"report_id": id,
		"filename":  filename,
		"source":    source,
	})
	metrics.EventsPublishedTotal.Inc()

	transcript, degraded, sttErr := s.transcribeBlob(ctx, audioKey, audioData, ext)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if degraded {
		s.log.Warn().Err(sttErr).Str("report_id", id).Msg("transcription degraded, using sentinel transcript")
		metrics.TranscriptionsTotal.WithLabelValues("degraded").Inc()
	} else {
		metrics.TranscriptionsTotal.WithLabelValues("ok").Inc()
	}

	result := s.opts.Pipeline.Run(transcript)
	for _, span := range result.Timeline {
		metrics.ClassificationsTotal.WithLabelValues(span.Emotion.String()).Inc()
	}

	pdfKey, err := s.renderPDF(ctx, day, id, result)
	if err != nil {
		return nil, err
	}
	xlsxKey, err := s.renderXLSX(ctx, day, id, result)
	if err != nil {
		return nil, err
	}

	timelineJSON, err := json.Marshal(result.Timeline)
	if err != nil {
		return nil, fmt.Errorf("marshal timeline: %w", err)
	}
	histJSON, err := json.Marshal(result.Histogram)
	if err != nil {
		return nil, fmt.Errorf("marshal histogram: %w", err)
	}

	row := &database.ReportRow{
		ID:              id,
		UserID:          userID,
		Transcript:      result.Transcript,
		DominantEmotion: result.Dominant.String(),
		Histogram:       histJSON,
		Timeline:        timelineJSON,
		AudioKey:        audioKey,
		PDFKey:          pdfKey,
		XLSXKey:         xlsxKey,
		Provider:        s.opts.Provider.Name(),
		Model:           s.opts.Provider.Model(),
		Source:          source,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.opts.Store.InsertReport(ctx, row); err != nil {
		return nil, err
	}

	eventType := "report.completed"
	if degraded {
		eventType = "report.degraded"
	}
	payload := map[string]any{
		"report_id":        id,
		"dominant_emotion": row.DominantEmotion,
		"spans":            len(result.Timeline),
		"source":           source,
		"duration_ms":      time.Since(start).Milliseconds(),
	}
	s.opts.Bus.Publish(eventType, payload)
	metrics.EventsPublishedTotal.Inc()
	if s.opts.MQTT != nil {
		s.opts.MQTT.PublishReport(payload)
	}

	s.log.Info().
		Str("report_id", id).
		Str("dominant", row.DominantEmotion).
		Int("spans", len(result.Timeline)).
		Bool("degraded", degraded).
		Dur("duration", time.Since(start)).
		Msg("analysis complete")

	return row, nil
}

// AnalyzeFile reads an audio file from disk and analyzes it. Used by the
// drop-directory watcher.
func (s *Service) AnalyzeFile(ctx context.Context, path string) (*database.ReportRow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}
	return s.Analyze(ctx, nil, data, filepath.Base(path), "watch")
}

// transcribeBlob resolves a local path for the stored audio (downloading to
// a temp file when the backend is remote), optionally preprocesses it, and
// runs the STT provider. A recognition failure yields the sentinel
// transcript with degraded=true.
func (s *Service) transcribeBlob(ctx context.Context, audioKey string, audioData []byte, ext string) (string, bool, error) {
	path := s.opts.Blobs.LocalPath(audioKey)
	if path == "" {
		tmp, err := os.CreateTemp("", "voxmood-stt-*"+ext)
		if err != nil {
			return transcribe.Sentinel, true, err
		}
		defer os.Remove(tmp.Name())
		if _, err := tmp.Write(audioData); err != nil {
			tmp.Close()
			return transcribe.Sentinel, true, err
		}
		tmp.Close()
		path = tmp.Name()
	}

	if s.opts.PreprocessAudio {
		processed, cleanup, err := transcribe.Preprocess(ctx, path)
		if err != nil {
			s.log.Warn().Err(err).Msg("preprocessing failed, using original audio")
		} else {
			defer cleanup()
			path = processed
		}
	}

	resp, err := s.opts.Provider.Transcribe(ctx, path)
	if err != nil {
		return transcribe.Sentinel, true, err
	}
	return strings.TrimSpace(resp.Text), false, nil
}

func (s *Service) renderPDF(ctx context.Context, day, id string, result emotion.ReportResult) (string, error) {
	var buf bytes.Buffer
	if err := s.pdf.Render(&buf, result); err != nil {
		return "", fmt.Errorf("render pdf: %w", err)
	}
	key := fmt.Sprintf("%s/%s.pdf", day, id)
	if err := s.opts.Blobs.Save(ctx, key, buf.Bytes(), "application/pdf"); err != nil {
		return "", fmt.Errorf("store pdf: %w", err)
	}
	metrics.ReportsRenderedTotal.Inc()
	return key, nil
}

func (s *Service) renderXLSX(ctx context.Context, day, id string, result emotion.ReportResult) (string, error) {
	var buf bytes.Buffer
	if err := s.xlsx.Export(&buf, result); err != nil {
		return "", fmt.Errorf("export xlsx: %w", err)
	}
	key := fmt.Sprintf("%s/%s.xlsx", day, id)
	if err := s.opts.Blobs.Save(ctx, key, buf.Bytes(),
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"); err != nil {
		return "", fmt.Errorf("store xlsx: %w", err)
	}
	return key, nil
}

// OpenBlob exposes stored files (audio, pdf, xlsx) to the HTTP layer.
func (s *Service) OpenBlob(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.opts.Blobs.Open(ctx, key)
}

func contentTypeFor(ext string) string {
	switch ext {
	case ".wav":
		return "audio/wav"
	case ".mp3":
		return "audio/mpeg"
	case ".m4a":
		return "audio/mp4"
	case ".flac":
		return "audio/flac"
	case ".ogg":
		return "audio/ogg"
	default:
		return "application/octet-stream"
	}
}
