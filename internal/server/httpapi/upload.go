package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/refgate/internal/common"
	"github.com/dmitrijs2005/refgate/internal/server/credentials"
	"github.com/dmitrijs2005/refgate/internal/server/saga"
	"github.com/dmitrijs2005/refgate/internal/validation"
)

const (
	formFileKey = "file"
	// multipart framing allowance on top of the file itself
	formOverhead = 1 << 20
)

var newRequestID = func() string { return uuid.NewString() }

// uploadBody extends the saga envelope with the identifiers older upload
// clients read.
type uploadBody struct {
	saga.Envelope
	FileID   string `json:"fileId"`
	FileName string `json:"fileName"`
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.cfg.CheckRuntime(); err != nil {
		h.log.Error(ctx, "runtime configuration invalid", "error", err)
		writeError(w, http.StatusInternalServerError, common.CodeServerMisconfigured, common.MessageUnexpected)
		return
	}

	limit := h.maxUpload()
	r.Body = http.MaxBytesReader(w, r.Body, limit+formOverhead)
	if err := r.ParseMultipartForm(limit + formOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeUploadError(w, http.StatusBadRequest, common.CodeValidationFailed, common.MessageFileTooLarge, "", "")
			return
		}
		writeUploadError(w, http.StatusBadRequest, common.CodeValidationFailed, common.MessageNoFile, "", "")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(formFileKey)
	if err != nil {
		writeUploadError(w, http.StatusBadRequest, common.CodeValidationFailed, common.MessageNoFile, "", "")
		return
	}
	defer file.Close()

	if header.Size == 0 {
		writeUploadError(w, http.StatusBadRequest, common.CodeValidationFailed, common.MessageNoFile, header.Filename, "")
		return
	}
	if header.Size > limit {
		writeUploadError(w, http.StatusBadRequest, common.CodeValidationFailed, common.MessageFileTooLarge, header.Filename, "")
		return
	}

	sourceType, mimeType, err := credentials.CheckDeclaredType(header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		writeUploadError(w, http.StatusBadRequest, common.CodeValidationFailed, common.MessageInvalidType, header.Filename, "")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		h.log.Error(ctx, "read multipart file failed", "error", err)
		writeUploadError(w, http.StatusBadRequest, common.CodeValidationFailed, common.MessageNoFile, header.Filename, "")
		return
	}
	if int64(len(data)) > limit {
		writeUploadError(w, http.StatusBadRequest, common.CodeValidationFailed, common.MessageFileTooLarge, header.Filename, "")
		return
	}

	requestID := newRequestID()
	bucket := h.cfg.Bucket
	path := common.UploadPathPrefix + requestID + "/" + credentials.SanitizeFileName(header.Filename)

	if err := h.store.UploadBytes(ctx, bucket, path, data, mimeType); err != nil {
		h.log.Warn(ctx, "server upload failed", "request_id", requestID, "path", path, "error", err)
		if errors.Is(err, common.ErrAlreadyExists) {
			writeUploadError(w, http.StatusConflict, common.CodeStorageConflict, common.MessageUploadFailed, header.Filename, requestID)
			return
		}
		writeUploadError(w, http.StatusBadGateway, common.CodeStorageUploadFailed, common.MessageUploadFailed, header.Filename, requestID)
		return
	}

	res := h.analyzer.Run(ctx, &validation.Payload{
		RequestID:   requestID,
		ExtractMode: common.ExtractModeBackendReferences,
		Document: validation.Document{
			SourceType: sourceType,
			FileName:   header.Filename,
			MimeType:   mimeType,
		},
		Storage: validation.Storage{
			Provider: h.store.Provider(),
			Bucket:   bucket,
			Path:     path,
		},
	})

	out := uploadBody{Envelope: res.Body, FileID: requestID, FileName: header.Filename}
	if res.Status == http.StatusOK {
		out.Message = common.MessageUploadForwarded
	}
	writeJSON(w, res.Status, out)
}

func (h *Handler) maxUpload() int64 {
	if h.cfg.MaxObjectSize > 0 {
		return h.cfg.MaxObjectSize
	}
	return common.MaxFileSize
}

// writeUploadError reports a failure outside the saga. requestID is empty
// until one has been allocated.
func writeUploadError(w http.ResponseWriter, status int, code, msg, fileName, requestID string) {
	writeJSON(w, status, uploadBody{
		Envelope: saga.Envelope{Message: msg, Code: code, RequestID: requestID},
		FileID:   requestID,
		FileName: fileName,
	})
}
