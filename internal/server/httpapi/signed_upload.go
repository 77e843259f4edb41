package httpapi

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/refgate/internal/common"
	"github.com/dmitrijs2005/refgate/internal/server/credentials"
	"github.com/dmitrijs2005/refgate/internal/validation"
)

// credentialBody is the signed upload response. FilePath duplicates Path
// for older clients.
type credentialBody struct {
	Success                bool              `json:"success"`
	Message                string            `json:"message"`
	Bucket                 string            `json:"bucket"`
	RequestID              string            `json:"requestId"`
	Path                   string            `json:"path"`
	FilePath               string            `json:"filePath"`
	SignedURL              string            `json:"signedUrl"`
	Method                 string            `json:"method"`
	Headers                map[string]string `json:"headers"`
	ClientExpiresInSeconds int               `json:"clientExpiresInSeconds"`
	ClientExpiresAt        time.Time         `json:"clientExpiresAt"`
}

func (h *Handler) signedUpload(w http.ResponseWriter, r *http.Request) {
	if err := h.cfg.CheckRuntime(); err != nil {
		h.log.Error(r.Context(), "runtime configuration invalid", "error", err)
		writeError(w, http.StatusInternalServerError, common.CodeServerMisconfigured, common.MessageUnexpected)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, common.CodeInvalidJSON, common.MessageInvalidJSON)
		return
	}

	req, err := validation.DecodeUploadRequest(body)
	if err != nil {
		h.writeInputError(w, err, common.MessageInvalidRequest)
		return
	}

	cred, err := h.issuer.IssueUploadCredential(r.Context(), credentials.UploadRequest{
		FileName:            req.FileName,
		DeclaredContentType: req.ContentType,
	})
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			h.writeInputError(w, err, common.MessageInvalidType)
			return
		}
		out := statusBody{Message: common.MessageSigningFailed, Code: common.CodeStorageSigningFailed}
		var serr *credentials.SigningError
		if errors.As(err, &serr) {
			out.RequestID = serr.RequestID
		}
		writeJSON(w, http.StatusBadGateway, out)
		return
	}

	writeJSON(w, http.StatusOK, credentialBody{
		Success:                true,
		Message:                common.MessageSignedURLCreated,
		Bucket:                 cred.Bucket,
		RequestID:              cred.RequestID,
		Path:                   cred.Path,
		FilePath:               cred.Path,
		SignedURL:              cred.SignedURL,
		Method:                 cred.Method,
		Headers:                cred.Headers,
		ClientExpiresInSeconds: int(cred.ExpiresIn / time.Second),
		ClientExpiresAt:        cred.ExpiresAt.UTC(),
	})
}

// writeInputError reports a decoding or validation failure as a 400.
func (h *Handler) writeInputError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, common.ErrMalformedJSON) {
		writeError(w, http.StatusBadRequest, common.CodeInvalidJSON, common.MessageInvalidJSON)
		return
	}
	var verr *validation.Error
	if errors.As(err, &verr) {
		writeIssues(w, msg, verr.Issues)
		return
	}
	writeError(w, http.StatusBadRequest, common.CodeValidationFailed, msg)
}
