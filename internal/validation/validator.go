// Package validation decodes and checks every request body accepted by
// refgate. Decoding fails closed: unknown fields, wrong types and trailing
// data reject the whole body.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/refgate/internal/common"
)

var sha256Pattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// Validator checks analysis payloads against the storage provider the
// process is configured for.
type Validator struct {
	provider string
}

func New(provider string) *Validator {
	if provider == "" {
		provider = common.ProviderS3
	}
	return &Validator{provider: provider}
}

// DecodeBase parses a client payload. Integrity is optional here; when
// present it must still be well formed.
func (v *Validator) DecodeBase(body []byte) (*Payload, error) {
	var p Payload
	if err := decodeStrict(body, &p); err != nil {
		return nil, err
	}
	if err := v.CheckBase(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DecodeFull parses a payload that must carry an integrity digest.
func (v *Validator) DecodeFull(body []byte) (*Payload, error) {
	var p Payload
	if err := decodeStrict(body, &p); err != nil {
		return nil, err
	}
	if err := v.CheckFull(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CheckBase validates every field of p except the integrity requirement.
func (v *Validator) CheckBase(p *Payload) error {
	var is issues
	v.check(p, &is)
	return is.err()
}

// CheckFull validates p and requires a well-formed integrity digest.
func (v *Validator) CheckFull(p *Payload) error {
	var is issues
	v.check(p, &is)
	if p.Integrity == nil {
		is.add("integrity", "required")
	}
	return is.err()
}

func (v *Validator) check(p *Payload, is *issues) {
	idOK := checkRequestID(p.RequestID, is)

	if p.ExtractMode != common.ExtractModeBackendReferences {
		is.add("extractMode", fmt.Sprintf("must be %q", common.ExtractModeBackendReferences))
	}

	expectedMime, sourceOK := common.MimeTypeForSourceType(p.Document.SourceType)
	if !sourceOK {
		is.add("document.sourceType", "must be one of pdf, docx")
	}
	if strings.TrimSpace(p.Document.FileName) == "" {
		is.add("document.fileName", "required")
	}
	switch {
	case p.Document.MimeType != common.MimeTypePDF && p.Document.MimeType != common.MimeTypeDOCX:
		is.add("document.mimeType", "must be a PDF or DOCX content type")
	case sourceOK && p.Document.MimeType != expectedMime:
		is.add("document.mimeType", "does not match document.sourceType")
	}

	if p.Storage.Provider != v.provider {
		is.add("storage.provider", fmt.Sprintf("must be %q", v.provider))
	}
	if p.Storage.Bucket == "" {
		is.add("storage.bucket", "required")
	}
	if checkObjectPath(p.Storage.Path, "storage.path", is) && idOK && !strings.Contains(p.Storage.Path, p.RequestID) {
		is.add("storage.path", "must contain requestId")
	}

	if p.Integrity != nil && !sha256Pattern.MatchString(p.Integrity.SHA256) {
		is.add("integrity.sha256", "must be 64 lowercase hex characters")
	}
}

// DecodeCleanup parses a cleanup request. Only server uploads below
// common.UploadPathPrefix and direct uploads at {bucket}/{uuid}/{name} may
// be removed.
func DecodeCleanup(body []byte) (*CleanupRequest, error) {
	var r CleanupRequest
	if err := decodeStrict(body, &r); err != nil {
		return nil, err
	}
	var is issues
	if r.Bucket == "" {
		is.add("bucket", "required")
	}
	if checkObjectPath(r.Path, "path", &is) && !cleanablePath(r.Bucket, r.Path) {
		is.add("path", fmt.Sprintf("must start with '%s' or '{bucket}/{uuid}/'", common.UploadPathPrefix))
	}
	if err := is.err(); err != nil {
		return nil, err
	}
	return &r, nil
}

// DecodeUploadRequest parses a credential request. Extension and content
// type rules belong to the issuer.
func DecodeUploadRequest(body []byte) (*UploadRequest, error) {
	var r UploadRequest
	if err := decodeStrict(body, &r); err != nil {
		return nil, err
	}
	var is issues
	if strings.TrimSpace(r.FileName) == "" {
		is.add("fileName", "required")
	}
	if r.ContentType == "" {
		is.add("contentType", "required")
	}
	if err := is.err(); err != nil {
		return nil, err
	}
	return &r, nil
}

// IsUUID reports whether s is a UUID in canonical 8-4-4-4-12 form.
func IsUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

func cleanablePath(bucket, path string) bool {
	if strings.HasPrefix(path, common.UploadPathPrefix) {
		return true
	}
	if bucket == "" {
		return false
	}
	rest, ok := strings.CutPrefix(path, bucket+"/")
	if !ok {
		return false
	}
	id, name, ok := strings.Cut(rest, "/")
	return ok && IsUUID(id) && name != "" && !strings.Contains(name, "/")
}

func checkRequestID(id string, is *issues) bool {
	if id == "" {
		is.add("requestId", "required")
		return false
	}
	if !IsUUID(id) {
		is.add("requestId", "must be a UUID")
		return false
	}
	return true
}

func checkObjectPath(path, field string, is *issues) bool {
	switch {
	case path == "":
		is.add(field, "required")
	case strings.HasPrefix(path, "/"):
		is.add(field, "must be relative")
	case strings.Contains(path, ".."), strings.ContainsAny(path, "\\\x00"):
		is.add(field, "contains unsafe characters")
	default:
		return true
	}
	return false
}

func decodeStrict(body []byte, dst any) error {
	if !json.Valid(body) {
		return common.ErrMalformedJSON
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &Error{Issues: []Issue{decodeIssue(err)}}
	}
	return nil
}

func decodeIssue(err error) Issue {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field == "" {
			return Issue{Message: "expected a JSON object"}
		}
		return Issue{Field: typeErr.Field, Message: "expected " + typeErr.Type.String()}
	}
	msg := err.Error()
	if field, ok := strings.CutPrefix(msg, "json: unknown field "); ok {
		return Issue{Field: strings.Trim(field, `"`), Message: "unknown field"}
	}
	return Issue{Message: msg}
}
