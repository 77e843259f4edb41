package httpapi

import (
	"context"
	"io"
	"net/http"

	"github.com/dmitrijs2005/refgate/internal/common"
	"github.com/dmitrijs2005/refgate/internal/validation"
)

func (h *Handler) cleanup(w http.ResponseWriter, r *http.Request) {
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

	req, err := validation.DecodeCleanup(body)
	if err != nil {
		h.writeInputError(w, err, common.MessageInvalidRequest)
		return
	}

	if req.Bucket != h.cfg.Bucket {
		writeError(w, http.StatusBadRequest, common.CodeInvalidBucket, common.MessageInvalidBucket)
		return
	}

	ctx := context.WithoutCancel(r.Context())
	if h.cfg.CleanupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.CleanupTimeout)
		defer cancel()
	}
	h.store.DeleteObject(ctx, req.Bucket, req.Path)
	h.log.Info(r.Context(), "cleanup attempted", "path", req.Path)

	writeJSON(w, http.StatusOK, statusBody{OK: true, Success: true, Message: common.MessageCleanupAttempted})
}
