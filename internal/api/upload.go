package api

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/snarg/voxmood/internal/database"
)

const maxUploadBytes = 32 << 20

var allowedUploadExts = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".flac": true,
	".ogg":  true,
}

// Analyzer runs the full analysis for one uploaded audio blob.
type Analyzer interface {
	Analyze(ctx context.Context, userID *int64, audioData []byte, filename, source string) (*database.ReportRow, error)
}

// UploadHandler accepts audio uploads and runs them through the analyzer
// synchronously. The response is the completed report.
type UploadHandler struct {
	analyzer Analyzer
	sessions SessionUser
	log      zerolog.Logger
}

func NewUploadHandler(analyzer Analyzer, sessions SessionUser, log zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		analyzer: analyzer,
		sessions: sessions,
		log:      log.With().Str("handler", "upload").Logger(),
	}
}

// Routes registers the upload endpoint.
func (h *UploadHandler) Routes(r chi.Router) {
	r.Post("/uploads", h.Upload)
}

// Upload handles POST /api/v1/uploads. Accepts a multipart form with an
// "audio" file field.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteErrorDetail(w, http.StatusBadRequest, "invalid multipart form", err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("audio")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "missing audio file field")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedUploadExts[ext] {
		WriteErrorDetail(w, http.StatusUnsupportedMediaType, "unsupported audio format", header.Filename)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "failed to read audio file")
		return
	}
	if len(data) == 0 {
		WriteError(w, http.StatusBadRequest, "empty audio file")
		return
	}

	var userID *int64
	if h.sessions != nil {
		if id := h.sessions.CurrentUserID(r.Context()); id != 0 {
			userID = &id
		}
	}

	row, err := h.analyzer.Analyze(r.Context(), userID, data, header.Filename, "upload")
	if err != nil {
		h.log.Error().Err(err).Str("filename", header.Filename).Msg("upload analysis failed")
		WriteError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	WriteJSON(w, http.StatusCreated, row)
}
