package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/refgate/internal/common"
	"github.com/dmitrijs2005/refgate/internal/validation"
)

// statusBody is the envelope for responses outside the saga.
type statusBody struct {
	OK        bool               `json:"ok"`
	Success   bool               `json:"success"`
	Message   string             `json:"message"`
	Code      string             `json:"code,omitempty"`
	RequestID string             `json:"requestId,omitempty"`
	Issues    []validation.Issue `json:"issues,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", common.MimeTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, statusBody{Message: msg, Code: code})
}

func writeIssues(w http.ResponseWriter, msg string, issues []validation.Issue) {
	writeJSON(w, http.StatusBadRequest, statusBody{Message: msg, Code: common.CodeValidationFailed, Issues: issues})
}
