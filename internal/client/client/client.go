package client

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/refgate/internal/validation"
)

// Client is the gateway API as seen by the CLI.
type Client interface {
	Health(ctx context.Context) error
	RequestUploadCredential(ctx context.Context, fileName, contentType string) (*Credential, error)
	PutObject(ctx context.Context, cred *Credential, data []byte) error
	StartAnalysis(ctx context.Context, p *validation.Payload) (*Envelope, error)
	UploadFile(ctx context.Context, fileName, contentType string, data []byte) (*UploadResult, error)
	Cleanup(ctx context.Context, bucket, path string) error
	Analysis(ctx context.Context, requestID string) (*Analysis, error)
}

// Credential is a signed upload credential.
type Credential struct {
	Bucket                 string            `json:"bucket"`
	RequestID              string            `json:"requestId"`
	Path                   string            `json:"path"`
	SignedURL              string            `json:"signedUrl"`
	Method                 string            `json:"method"`
	Headers                map[string]string `json:"headers"`
	ClientExpiresInSeconds int               `json:"clientExpiresInSeconds"`
	ClientExpiresAt        time.Time         `json:"clientExpiresAt"`
}

// Expired reports whether the client-side deadline has passed at now.
func (c *Credential) Expired(now time.Time) bool {
	return !c.ClientExpiresAt.IsZero() && !now.Before(c.ClientExpiresAt)
}

// Envelope is the uniform reply of the analysis endpoints.
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

// UploadResult is the reply of a server-performed upload.
type UploadResult struct {
	Envelope
	FileID   string `json:"fileId"`
	FileName string `json:"fileName"`
}

// Analysis is a ledger entry.
type Analysis struct {
	RequestID     string    `json:"requestId"`
	Provider      string    `json:"provider"`
	Bucket        string    `json:"bucket"`
	Path          string    `json:"path"`
	FileName      string    `json:"fileName"`
	SourceType    string    `json:"sourceType"`
	Status        string    `json:"status"`
	FailedStage   string    `json:"failedStage"`
	Code          string    `json:"code"`
	BackendStatus int       `json:"backendStatus"`
	SHA256        string    `json:"sha256"`
	Compensated   bool      `json:"compensated"`
	Attempts      int       `json:"attempts"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
