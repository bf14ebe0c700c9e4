package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/snarg/voxmood/internal/database"
)

type mockReportSource struct {
	rows      map[string]*database.ReportRow
	gotFilter database.ReportFilter
}

func (m *mockReportSource) GetReport(_ context.Context, id string) (*database.ReportRow, error) {
	if row, ok := m.rows[id]; ok {
		return row, nil
	}
	return nil, database.ErrNotFound
}

func (m *mockReportSource) ListReports(_ context.Context, f database.ReportFilter) ([]database.ReportRow, error) {
	m.gotFilter = f
	var out []database.ReportRow
	for _, r := range m.rows {
		out = append(out, *r)
	}
	return out, nil
}

type mockBlobs struct {
	data map[string][]byte
}

func (m *mockBlobs) OpenBlob(_ context.Context, key string) (io.ReadCloser, error) {
	if d, ok := m.data[key]; ok {
		return io.NopCloser(bytes.NewReader(d)), nil
	}
	return nil, io.ErrUnexpectedEOF
}

func newReportsRouter(src ReportSource, blobs BlobOpener) http.Handler {
	h := NewReportsHandler(src, blobs, nil, zerolog.Nop())
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func TestReports_Get(t *testing.T) {
	src := &mockReportSource{rows: map[string]*database.ReportRow{
		"r1": {ID: "r1", DominantEmotion: "Sad", Histogram: json.RawMessage(`{"Sad":3}`)},
	}}
	router := newReportsRouter(src, &mockBlobs{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/r1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got database.ReportRow
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.DominantEmotion != "Sad" {
		t.Errorf("dominant = %q", got.DominantEmotion)
	}
}

func TestReports_GetNotFound(t *testing.T) {
	router := newReportsRouter(&mockReportSource{}, &mockBlobs{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/missing", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestReports_ListPassesFilter(t *testing.T) {
	src := &mockReportSource{rows: map[string]*database.ReportRow{}}
	router := newReportsRouter(src, &mockBlobs{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports?dominant=Angry&limit=10&offset=20", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if src.gotFilter.Dominant != "Angry" || src.gotFilter.Limit != 10 || src.gotFilter.Offset != 20 {
		t.Errorf("filter = %+v", src.gotFilter)
	}
	if !strings.Contains(rec.Body.String(), `"reports":[]`) {
		t.Errorf("empty list should serialize as []: %s", rec.Body.String())
	}
}

func TestReports_ListRejectsBadPagination(t *testing.T) {
	router := newReportsRouter(&mockReportSource{}, &mockBlobs{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports?limit=0", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestReports_PDFStream(t *testing.T) {
	src := &mockReportSource{rows: map[string]*database.ReportRow{
		"r1": {ID: "r1", PDFKey: "d/r1.pdf"},
	}}
	blobs := &mockBlobs{data: map[string][]byte{"d/r1.pdf": []byte("%PDF-1.4 fake")}}
	router := newReportsRouter(src, blobs)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/r1/pdf", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content-type = %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "%PDF") {
		t.Error("body is not the stored PDF")
	}
}

func TestReports_ExportDisposition(t *testing.T) {
	src := &mockReportSource{rows: map[string]*database.ReportRow{
		"r1": {ID: "r1", XLSXKey: "d/r1.xlsx"},
	}}
	blobs := &mockBlobs{data: map[string][]byte{"d/r1.xlsx": []byte("PKfake")}}
	router := newReportsRouter(src, blobs)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/r1/export", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment") {
		t.Errorf("disposition = %q", cd)
	}
}

func TestReports_ArtifactMissing(t *testing.T) {
	src := &mockReportSource{rows: map[string]*database.ReportRow{
		"r1": {ID: "r1"}, // no PDF key
	}}
	router := newReportsRouter(src, &mockBlobs{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/r1/pdf", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
