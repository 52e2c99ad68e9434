package handlers

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
)

// IngestService is the slice of the ingest service this handler needs
type IngestService interface {
	IngestArchive(ctx context.Context, reader io.ReaderAt, size int64, email string) (bool, string)
	IngestFolder(ctx context.Context, path, email string) (bool, string)
}

// TakeoutHandler handles saved-places archive and folder ingestion
type TakeoutHandler struct {
	ingest IngestService
	logger arbor.ILogger
}

func NewTakeoutHandler(ingest IngestService, logger arbor.ILogger) *TakeoutHandler {
	return &TakeoutHandler{
		ingest: ingest,
		logger: logger,
	}
}

// maxUploadBytes caps Takeout archive uploads at 256MB
const maxUploadBytes = 256 << 20

// UploadHandler handles POST /api/takeout/upload - multipart archive upload
func (h *TakeoutHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid multipart upload")
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	if email == "" {
		WriteError(w, http.StatusBadRequest, "email is required")
		return
	}

	file, header, err := r.FormFile("archive")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "archive file is required")
		return
	}
	defer file.Close()

	h.logger.Info().
		Str("email", email).
		Str("file", header.Filename).
		Int64("size", header.Size).
		Msg("Takeout archive upload received")

	ok, message := h.ingest.IngestArchive(r.Context(), file, header.Size, email)
	if !ok {
		WriteError(w, http.StatusUnprocessableEntity, message)
		return
	}
	WriteSuccess(w, message)
}

type folderRequest struct {
	Path  string `json:"path" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// FolderHandler handles POST /api/takeout/folder - ingest CSVs from a local path
func (h *TakeoutHandler) FolderHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req folderRequest
	if err := DecodeAndValidate(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Info().
		Str("email", req.Email).
		Str("path", req.Path).
		Msg("Folder ingest requested")

	ok, message := h.ingest.IngestFolder(r.Context(), req.Path, req.Email)
	if !ok {
		WriteError(w, http.StatusUnprocessableEntity, message)
		return
	}
	WriteSuccess(w, message)
}
