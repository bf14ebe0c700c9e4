package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/snarg/voxmood/internal/database"
)

// ReportSource is the subset of database operations the report endpoints need.
type ReportSource interface {
	GetReport(ctx context.Context, id string) (*database.ReportRow, error)
	ListReports(ctx context.Context, f database.ReportFilter) ([]database.ReportRow, error)
}

// BlobOpener streams stored artifacts (audio, PDF, XLSX) by key.
type BlobOpener interface {
	OpenBlob(ctx context.Context, key string) (io.ReadCloser, error)
}

// ReportsHandler serves stored reports and their rendered artifacts.
type ReportsHandler struct {
	reports  ReportSource
	blobs    BlobOpener
	sessions SessionUser
	log      zerolog.Logger
}

func NewReportsHandler(reports ReportSource, blobs BlobOpener, sessions SessionUser, log zerolog.Logger) *ReportsHandler {
	return &ReportsHandler{
		reports:  reports,
		blobs:    blobs,
		sessions: sessions,
		log:      log.With().Str("handler", "reports").Logger(),
	}
}

// Routes registers report routes on the given router.
func (h *ReportsHandler) Routes(r chi.Router) {
	r.Get("/reports", h.List)
	r.Get("/reports/{id}", h.Get)
	r.Get("/reports/{id}/pdf", h.PDF)
	r.Get("/reports/{id}/export", h.Export)
	r.Get("/reports/{id}/audio", h.Audio)
}

// List handles GET /api/v1/reports. Supports dominant-emotion filtering,
// pagination, and ?mine=true for the logged-in user's own reports.
func (h *ReportsHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := ParsePagination(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := database.ReportFilter{Limit: p.Limit, Offset: p.Offset}
	if v, ok := QueryString(r, "dominant"); ok {
		filter.Dominant = v
	}
	if r.URL.Query().Get("mine") == "true" && h.sessions != nil {
		if id := h.sessions.CurrentUserID(r.Context()); id != 0 {
			filter.UserID = &id
		}
	}

	rows, err := h.reports.ListReports(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("list reports failed")
		WriteError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}
	if rows == nil {
		rows = []database.ReportRow{}
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"reports": rows,
		"limit":   p.Limit,
		"offset":  p.Offset,
		"count":   len(rows),
	})
}

// Get handles GET /api/v1/reports/{id}.
func (h *ReportsHandler) Get(w http.ResponseWriter, r *http.Request) {
	row, ok := h.lookup(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, row)
}

// PDF handles GET /api/v1/reports/{id}/pdf, streaming the rendered report.
func (h *ReportsHandler) PDF(w http.ResponseWriter, r *http.Request) {
	row, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.stream(w, r, row.PDFKey, "application/pdf",
		fmt.Sprintf("inline; filename=%q", row.ID+".pdf"))
}

// Export handles GET /api/v1/reports/{id}/export, streaming the XLSX workbook.
func (h *ReportsHandler) Export(w http.ResponseWriter, r *http.Request) {
	row, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.stream(w, r, row.XLSXKey,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		fmt.Sprintf("attachment; filename=%q", row.ID+".xlsx"))
}

// Audio handles GET /api/v1/reports/{id}/audio, streaming the original upload.
func (h *ReportsHandler) Audio(w http.ResponseWriter, r *http.Request) {
	row, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.stream(w, r, row.AudioKey, "application/octet-stream", "")
}

func (h *ReportsHandler) lookup(w http.ResponseWriter, r *http.Request) (*database.ReportRow, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "missing report id")
		return nil, false
	}
	row, err := h.reports.GetReport(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "report not found")
		return nil, false
	}
	if err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("get report failed")
		WriteError(w, http.StatusInternalServerError, "failed to load report")
		return nil, false
	}
	return row, true
}

func (h *ReportsHandler) stream(w http.ResponseWriter, r *http.Request, key, contentType, disposition string) {
	if key == "" {
		WriteError(w, http.StatusNotFound, "artifact not available")
		return
	}
	rc, err := h.blobs.OpenBlob(r.Context(), key)
	if err != nil {
		h.log.Error().Err(err).Str("key", key).Msg("open blob failed")
		WriteError(w, http.StatusNotFound, "artifact not available")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	if disposition != "" {
		w.Header().Set("Content-Disposition", disposition)
	}
	io.Copy(w, rc)
}
