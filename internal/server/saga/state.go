package saga

import (
	"encoding/json"

	"github.com/dmitrijs2005/refgate/internal/validation"
)

// State is a saga stage. An attempt moves forward through Validating,
// Downloading, Verifying and Dispatching and ends in Completed or Failed.
type State string

const (
	StateValidating  State = "validating"
	StateDownloading State = "downloading"
	StateVerifying   State = "verifying"
	StateDispatching State = "dispatching"
	StateCompleted   State = "completed"
	StateFailed      State = "failed"
)

// Envelope is the JSON body returned for an analysis attempt.
type Envelope struct {
	OK        bool                `json:"ok"`
	Success   bool                `json:"success"`
	Message   string              `json:"message"`
	Code      string              `json:"code,omitempty"`
	RequestID string              `json:"requestId,omitempty"`
	Storage   *validation.Storage `json:"storage,omitempty"`
	Backend   json.RawMessage     `json:"backend,omitempty"`
	Issues    []validation.Issue  `json:"issues,omitempty"`
}

// Result is the outcome of one attempt. FailedStage is empty on success.
type Result struct {
	Status      int
	Body        Envelope
	State       State
	FailedStage State
	Compensated bool
}
