package handler

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/iho/acctledger/internal/adapter/http/dto"
	"github.com/iho/acctledger/internal/adapter/tabular"
	"github.com/iho/acctledger/internal/domain"
	"github.com/iho/acctledger/internal/usecase"
)

// ImportFormField is the multipart field carrying the CSV file.
const ImportFormField = "csv_file"

// ImportService defines the behavior needed by ImportHandler.
type ImportService interface {
	Import(ctx context.Context, rows []usecase.ImportRow) *usecase.ImportReport
}

// ImportHandler handles bulk account imports.
type ImportHandler struct {
	importUC ImportService
	maxBytes int64
}

// NewImportHandler creates a new ImportHandler accepting uploads of at most
// maxBytes.
func NewImportHandler(importUC ImportService, maxBytes int64) *ImportHandler {
	return &ImportHandler{importUC: importUC, maxBytes: maxBytes}
}

// Import reads a CSV upload, either as the csv_file field of a multipart
// form or as the raw request body, and imports every row.
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	body, closeBody, err := h.source(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large", err.Error(), domain.KindMalformedFile)
			return
		}

		writeError(w, http.StatusBadRequest, "invalid upload", err.Error(), domain.KindMalformedFile)
		return
	}
	defer closeBody()

	rows, err := tabular.ReadAccountRows(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large", err.Error(), domain.KindMalformedFile)
			return
		}

		writeDomainError(w, "invalid import file", err)
		return
	}

	report := h.importUC.Import(r.Context(), rows)

	writeJSON(w, http.StatusOK, dto.ImportReportFromUseCase(report))
}

func (h *ImportHandler) source(r *http.Request) (io.Reader, func(), error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, func() {}, nil
	}

	file, _, err := r.FormFile(ImportFormField)
	if err != nil {
		return nil, nil, err
	}

	return file, func() { file.Close() }, nil
}
