// Package common contains shared constants and sentinel errors used across
// refgate components.
package common

import "time"

// ExtractModeBackendReferences is the only extraction mode the analysis
// backend accepts.
const ExtractModeBackendReferences = "backend_extract_references"

// Source types accepted for analysis.
const (
	SourceTypePDF  = "pdf"
	SourceTypeDOCX = "docx"
)

// Canonical content types for the accepted source types.
const (
	MimeTypePDF  = "application/pdf"
	MimeTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeTypeJSON = "application/json"
)

// File extensions accepted for upload, lower case with the leading dot.
const (
	ExtensionPDF  = ".pdf"
	ExtensionDOCX = ".docx"
)

// Storage provider literals carried in storage.provider.
const (
	ProviderS3    = "s3"
	ProviderAzure = "azure"
)

// UploadPathPrefix namespaces objects written by the server itself.
// Cleanup requests are only honoured under this prefix.
const UploadPathPrefix = "uploads/"

// MaxFileSize is the largest document accepted for analysis.
const MaxFileSize = 10 * 1024 * 1024

// DefaultClientExpiry is the client-visible lifetime of an upload credential.
const DefaultClientExpiry = 60 * time.Second

// AnalysisStartRoute is the sub-route of the analysis backend receiving
// hash-stamped payloads.
const AnalysisStartRoute = "/api/analysis/start"

// SourceTypeForExtension maps a lower-case extension to its source type.
func SourceTypeForExtension(ext string) (string, bool) {
	switch ext {
	case ExtensionPDF:
		return SourceTypePDF, true
	case ExtensionDOCX:
		return SourceTypeDOCX, true
	}
	return "", false
}

// MimeTypeForSourceType returns the canonical content type of a source type.
func MimeTypeForSourceType(sourceType string) (string, bool) {
	switch sourceType {
	case SourceTypePDF:
		return MimeTypePDF, true
	case SourceTypeDOCX:
		return MimeTypeDOCX, true
	}
	return "", false
}

// Machine-readable codes carried in the "code" field of error responses.
const (
	CodeInvalidJSON           = "invalid_json"
	CodeValidationFailed      = "validation_failed"
	CodeInvalidBucket         = "invalid_bucket"
	CodeStorageDownloadFailed = "storage_download_failed"
	CodeIntegrityFailed       = "integrity_failed"
	CodeBackendFailed         = "backend_failed"
	CodeBackendUnreachable    = "backend_unreachable"
	CodeServerMisconfigured   = "server_misconfigured"
	CodeInternalError         = "internal_error"
	CodeRateLimited           = "rate_limited"
	CodeStorageSigningFailed  = "storage_signing_failed"
	CodeStorageConflict       = "storage_conflict"
	CodeStorageUploadFailed   = "storage_upload_failed"
	CodeNotFound              = "not_found"
)

// User-facing messages shared by the HTTP handlers.
const (
	MessageAnalysisStarted  = "Analysis started successfully."
	MessageBackendFailed    = "Backend request failed."
	MessageInvalidRequest   = "Invalid request."
	MessageInvalidJSON      = "Invalid JSON body."
	MessageInvalidBucket    = "Invalid storage bucket."
	MessageDownloadFailed   = "Failed to download uploaded file."
	MessageUnexpected       = "An unexpected server error occurred."
	MessageSignedURLCreated = "Signed upload URL created."
	MessageCleanupAttempted = "Cleanup attempted."
	MessageFileTooLarge     = "File exceeds the maximum size of 10 MB."
	MessageNoFile           = "No file selected."
	MessageInvalidType      = "Only PDF and DOCX files are allowed."
	MessageUploadForwarded  = "File uploaded and forwarded to backend successfully."
	MessageUploadFailed     = "Storage upload failed."
	MessageTooManyRequests  = "Too many requests."
	MessageSigningFailed    = "Failed to create signed upload URL."
	MessageNotFound         = "Analysis not found."
)
