package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/snarg/voxmood/internal/database"
	"github.com/snarg/voxmood/internal/emotion"
	"github.com/snarg/voxmood/internal/events"
	"github.com/snarg/voxmood/internal/storage"
	"github.com/snarg/voxmood/internal/transcribe"
)

type mockReportStore struct {
	mu   sync.Mutex
	rows []*database.ReportRow
}

func (m *mockReportStore) InsertReport(_ context.Context, row *database.ReportRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, row)
	return nil
}

func (m *mockReportStore) last(t *testing.T) *database.ReportRow {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.rows) == 0 {
		t.Fatal("no report inserted")
	}
	return m.rows[len(m.rows)-1]
}

type stubProvider struct {
	text string
	err  error
}

func (p *stubProvider) Transcribe(_ context.Context, _ string) (*transcribe.Response, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &transcribe.Response{Text: p.text}, nil
}

func (p *stubProvider) Name() string  { return "stub" }
func (p *stubProvider) Model() string { return "stub-1" }

func newTestService(t *testing.T, provider transcribe.Provider) (*Service, *mockReportStore, storage.Store, *events.Bus) {
	t.Helper()
	store := &mockReportStore{}
	blobs := storage.NewLocalStore(t.TempDir())
	bus := events.NewBus(16)
	svc := NewService(Options{
		Store:    store,
		Blobs:    blobs,
		Provider: provider,
		Pipeline: emotion.NewPipeline(emotion.NewVaderScorer()),
		Bus:      bus,
		Log:      zerolog.Nop(),
	})
	return svc, store, blobs, bus
}

func TestAnalyze_StoresReportAndArtifacts(t *testing.T) {
	svc, store, blobs, _ := newTestService(t, &stubProvider{text: "I am so happy today great news"})

	row, err := svc.Analyze(context.Background(), nil, []byte("fake-wav"), "call.wav", "upload")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if row.DominantEmotion != emotion.Happy.String() {
		t.Errorf("dominant = %q, want %q", row.DominantEmotion, emotion.Happy)
	}
	if row.Provider != "stub" || row.Model != "stub-1" {
		t.Errorf("provider/model = %q/%q", row.Provider, row.Model)
	}
	if row.Source != "upload" {
		t.Errorf("source = %q, want upload", row.Source)
	}

	var timeline emotion.Timeline
	if err := json.Unmarshal(row.Timeline, &timeline); err != nil {
		t.Fatalf("unmarshal timeline: %v", err)
	}
	if len(timeline) != 2 {
		t.Errorf("timeline length = %d, want 2", len(timeline))
	}

	for _, key := range []string{row.AudioKey, row.PDFKey, row.XLSXKey} {
		if key == "" {
			t.Fatal("missing blob key on report row")
		}
		if !blobs.Exists(context.Background(), key) {
			t.Errorf("blob %q not stored", key)
		}
	}

	rc, err := blobs.Open(context.Background(), row.AudioKey)
	if err != nil {
		t.Fatalf("open audio: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if !bytes.Equal(data, []byte("fake-wav")) {
		t.Error("stored audio does not match upload")
	}

	if store.last(t).ID != row.ID {
		t.Error("returned row not persisted")
	}
}

func TestAnalyze_DegradesOnTranscriptionFailure(t *testing.T) {
	svc, _, _, bus := newTestService(t, &stubProvider{err: errors.New("stt down")})

	ch, cancel := bus.Subscribe(events.Filter{Types: []string{"report.degraded"}})
	defer cancel()

	row, err := svc.Analyze(context.Background(), nil, []byte("noise"), "noise.wav", "upload")
	if err != nil {
		t.Fatalf("Analyze() error = %v, want degraded report", err)
	}
	if row.Transcript != transcribe.Sentinel {
		t.Errorf("transcript = %q, want sentinel", row.Transcript)
	}
	if row.DominantEmotion != emotion.Neutral.String() {
		t.Errorf("dominant = %q, want %q", row.DominantEmotion, emotion.Neutral)
	}

	select {
	case e := <-ch:
		if e.Type != "report.degraded" {
			t.Errorf("event type = %q", e.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("no report.degraded event published")
	}
}

func TestAnalyze_PublishesLifecycleEvents(t *testing.T) {
	svc, _, _, bus := newTestService(t, &stubProvider{text: "all good"})

	ch, cancel := bus.Subscribe(events.Filter{})
	defer cancel()

	if _, err := svc.Analyze(context.Background(), nil, []byte("x"), "x.wav", "upload"); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	var types []string
	for len(types) < 2 {
		select {
		case e := <-ch:
			types = append(types, e.Type)
		case <-time.After(time.Second):
			t.Fatalf("events received so far: %v", types)
		}
	}
	if types[0] != "report.started" || types[1] != "report.completed" {
		t.Errorf("event order = %v", types)
	}
}

func TestAnalyze_AttributesUser(t *testing.T) {
	svc, store, _, _ := newTestService(t, &stubProvider{text: "fine"})

	uid := int64(42)
	if _, err := svc.Analyze(context.Background(), &uid, []byte("x"), "x.wav", "upload"); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	row := store.last(t)
	if row.UserID == nil || *row.UserID != 42 {
		t.Errorf("user_id = %v, want 42", row.UserID)
	}
}

func TestAnalyzeFile_ReadsFromDisk(t *testing.T) {
	svc, store, _, _ := newTestService(t, &stubProvider{text: "dropped file"})

	dir := t.TempDir()
	path := filepath.Join(dir, "drop.wav")
	if err := os.WriteFile(path, []byte("dropped-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	row, err := svc.AnalyzeFile(context.Background(), path)
	if err != nil {
		t.Fatalf("AnalyzeFile() error = %v", err)
	}
	if row.Source != "watch" {
		t.Errorf("source = %q, want watch", row.Source)
	}
	if store.last(t).ID != row.ID {
		t.Error("report not persisted")
	}
}

func TestPool_ProcessesQueuedJobs(t *testing.T) {
	svc, store, _, _ := newTestService(t, &stubProvider{text: "queued"})

	dir := t.TempDir()
	for _, name := range []string{"a.wav", "b.wav"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	pool := NewPool(svc, 2, 8, zerolog.Nop())
	pool.Start(context.Background(), 2)
	pool.Enqueue(Job{Path: filepath.Join(dir, "a.wav")})
	pool.Enqueue(Job{Path: filepath.Join(dir, "b.wav")})
	pool.Stop()

	_, completed, failed, _ := pool.Stats()
	if completed != 2 || failed != 0 {
		t.Errorf("completed=%d failed=%d, want 2/0", completed, failed)
	}
	store.mu.Lock()
	n := len(store.rows)
	store.mu.Unlock()
	if n != 2 {
		t.Errorf("persisted %d reports, want 2", n)
	}
}

func TestPool_CountsFailures(t *testing.T) {
	svc, _, _, _ := newTestService(t, &stubProvider{text: "n/a"})

	pool := NewPool(svc, 1, 4, zerolog.Nop())
	pool.Start(context.Background(), 1)
	pool.Enqueue(Job{Path: filepath.Join(t.TempDir(), "missing.wav")})
	pool.Stop()

	_, completed, failed, _ := pool.Stats()
	if failed != 1 || completed != 0 {
		t.Errorf("completed=%d failed=%d, want 0/1", completed, failed)
	}
}
