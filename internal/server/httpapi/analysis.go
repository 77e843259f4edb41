package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/refgate/internal/common"
	"github.com/dmitrijs2005/refgate/internal/server/jobs"
	"github.com/dmitrijs2005/refgate/internal/validation"
)

func (h *Handler) startAnalysis(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, common.CodeInvalidJSON, common.MessageInvalidJSON)
		return
	}

	res := h.analyzer.StartAnalysis(r.Context(), body)
	writeJSON(w, res.Status, res.Body)
}

type analysisBody struct {
	OK      bool      `json:"ok"`
	Success bool      `json:"success"`
	Job     *jobs.Job `json:"job"`
}

func (h *Handler) analysis(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "requestId")
	if !validation.IsUUID(id) {
		writeIssues(w, common.MessageInvalidRequest, []validation.Issue{{Field: "requestId", Message: "must be a UUID"}})
		return
	}

	job, err := h.ledger.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeError(w, http.StatusNotFound, common.CodeNotFound, common.MessageNotFound)
			return
		}
		h.log.Error(r.Context(), "ledger read failed", "request_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, common.CodeInternalError, common.MessageUnexpected)
		return
	}

	writeJSON(w, http.StatusOK, analysisBody{OK: true, Success: true, Job: job})
}
