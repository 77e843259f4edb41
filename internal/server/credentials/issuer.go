// Package credentials issues single-use upload credentials: a fresh request
// id, a sanitized object path and a non-overwriting signed URL.
package credentials

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/refgate/internal/common"
	"github.com/dmitrijs2005/refgate/internal/logging"
	"github.com/dmitrijs2005/refgate/internal/server/storage"
	"github.com/dmitrijs2005/refgate/internal/validation"
)

var (
	newRequestID = func() string { return uuid.NewString() }
	timeNow      = time.Now

	unsafeChars = regexp.MustCompile(`[^\w.\-() ]`)
	whitespace  = regexp.MustCompile(`\s+`)
	dotRuns     = regexp.MustCompile(`\.{2,}`)
)

// SigningError reports a store failure after a request id was allocated.
type SigningError struct {
	RequestID string
	Err       error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("create signed upload url for %s: %v", e.RequestID, e.Err)
}

func (e *SigningError) Unwrap() error { return e.Err }

// UploadRequest is what a client declares before uploading.
type UploadRequest struct {
	FileName            string
	DeclaredContentType string
}

// UploadCredential authorizes exactly one upload to Path.
type UploadCredential struct {
	RequestID string
	Bucket    string
	Path      string
	SignedURL string
	Method    string
	Headers   map[string]string
	// ExpiresAt is the client-visible expiry; the store signature may
	// outlive it.
	ExpiresAt     time.Time
	ExpiresIn     time.Duration
	StorageExpiry time.Time
}

// Issuer mints upload credentials for a single bucket.
type Issuer struct {
	gateway      storage.Gateway
	bucket       string
	signedTTL    time.Duration
	clientExpiry time.Duration
	log          logging.Logger
}

func NewIssuer(g storage.Gateway, bucket string, signedTTL, clientExpiry time.Duration, l logging.Logger) *Issuer {
	return &Issuer{
		gateway:      g,
		bucket:       bucket,
		signedTTL:    signedTTL,
		clientExpiry: clientExpiry,
		log:          l.With("module", "credentials"),
	}
}

// IssueUploadCredential validates the declared file, then asks the store
// for a non-overwriting signed URL at {bucket}/{requestId}/{sanitized name}.
// Validation failures never reach the store.
func (i *Issuer) IssueUploadCredential(ctx context.Context, req UploadRequest) (*UploadCredential, error) {
	if _, _, err := CheckDeclaredType(req.FileName, req.DeclaredContentType); err != nil {
		return nil, err
	}

	requestID := newRequestID()
	path := fmt.Sprintf("%s/%s/%s", i.bucket, requestID, SanitizeFileName(req.FileName))

	signed, err := i.gateway.CreateSignedUploadURL(ctx, i.bucket, path, storage.SignOptions{
		ContentType: req.DeclaredContentType,
		Expires:     i.signedTTL,
		Overwrite:   false,
	})
	if err != nil {
		i.log.Error(ctx, "signed upload url failed", "request_id", requestID, "path", path, "error", err)
		return nil, &SigningError{RequestID: requestID, Err: err}
	}

	i.log.Info(ctx, "upload credential issued", "request_id", requestID, "path", path)

	return &UploadCredential{
		RequestID:     requestID,
		Bucket:        i.bucket,
		Path:          path,
		SignedURL:     signed.URL,
		Method:        signed.Method,
		Headers:       signed.Headers,
		ExpiresAt:     timeNow().Add(i.clientExpiry),
		ExpiresIn:     i.clientExpiry,
		StorageExpiry: signed.ExpiresAt,
	}, nil
}

// CheckDeclaredType derives the source type from the file extension
// (case-insensitive) and requires contentType to be its canonical content
// type. It is a declarative check; the bytes are not sniffed.
func CheckDeclaredType(fileName, contentType string) (sourceType, mimeType string, err error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	sourceType, ok := common.SourceTypeForExtension(ext)
	if !ok {
		return "", "", &validation.Error{Issues: []validation.Issue{{Field: "fileName", Message: common.MessageInvalidType}}}
	}
	mimeType, _ = common.MimeTypeForSourceType(sourceType)
	if contentType != mimeType {
		return "", "", &validation.Error{Issues: []validation.Issue{{Field: "contentType", Message: fmt.Sprintf("must be %q for %s files", mimeType, ext)}}}
	}
	return sourceType, mimeType, nil
}

// SanitizeFileName keeps word characters, dots, dashes, parentheses and
// spaces, replaces everything else with "_" and collapses whitespace and
// runs of dots, so the result never contains "..". An empty result becomes
// "upload".
func SanitizeFileName(name string) string {
	cleaned := unsafeChars.ReplaceAllString(name, "_")
	cleaned = dotRuns.ReplaceAllString(cleaned, ".")
	cleaned = strings.TrimSpace(whitespace.ReplaceAllString(cleaned, " "))
	if cleaned == "" || cleaned == "." {
		return "upload"
	}
	return cleaned
}
