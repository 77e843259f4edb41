package validation

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/refgate/internal/common"
)

const testRequestID = "3f1c7c1e-5a4b-4d6e-9f3a-2b8c9d0e1f2a"

func validBody(t *testing.T, mutate func(m map[string]any)) []byte {
	t.Helper()
	m := map[string]any{
		"requestId":   testRequestID,
		"extractMode": common.ExtractModeBackendReferences,
		"document": map[string]any{
			"sourceType": "pdf",
			"fileName":   "refs.pdf",
			"mimeType":   common.MimeTypePDF,
		},
		"storage": map[string]any{
			"provider": common.ProviderS3,
			"bucket":   "documents",
			"path":     "documents/" + testRequestID + "/refs.pdf",
		},
	}
	if mutate != nil {
		mutate(m)
	}
	b, err := json.Marshal(m)
	require.NoError(t, err)
	return b
}

func issueFields(t *testing.T, err error) []string {
	t.Helper()
	var verr *Error
	require.ErrorAs(t, err, &verr)
	fields := make([]string, 0, len(verr.Issues))
	for _, is := range verr.Issues {
		fields = append(fields, is.Field)
	}
	return fields
}

func TestDecodeBase_Valid(t *testing.T) {
	v := New(common.ProviderS3)

	p, err := v.DecodeBase(validBody(t, nil))
	require.NoError(t, err)
	assert.Equal(t, testRequestID, p.RequestID)
	assert.Equal(t, "documents", p.Storage.Bucket)
	assert.Nil(t, p.Integrity)
}

func TestDecodeBase_Violations(t *testing.T) {
	v := New(common.ProviderS3)

	tests := []struct {
		name   string
		mutate func(m map[string]any)
		field  string
	}{
		{"missing request id", func(m map[string]any) { delete(m, "requestId") }, "requestId"},
		{"non uuid request id", func(m map[string]any) { m["requestId"] = "abc" }, "requestId"},
		{"uuid without hyphens", func(m map[string]any) { m["requestId"] = strings.ReplaceAll(testRequestID, "-", "") }, "requestId"},
		{"wrong extract mode", func(m map[string]any) { m["extractMode"] = "client_side" }, "extractMode"},
		{"unknown source type", func(m map[string]any) { m["document"].(map[string]any)["sourceType"] = "txt" }, "document.sourceType"},
		{"empty file name", func(m map[string]any) { m["document"].(map[string]any)["fileName"] = " " }, "document.fileName"},
		{"unknown mime", func(m map[string]any) { m["document"].(map[string]any)["mimeType"] = "text/plain" }, "document.mimeType"},
		{"mime disagrees with source", func(m map[string]any) { m["document"].(map[string]any)["mimeType"] = common.MimeTypeDOCX }, "document.mimeType"},
		{"other provider", func(m map[string]any) { m["storage"].(map[string]any)["provider"] = "supabase" }, "storage.provider"},
		{"empty bucket", func(m map[string]any) { m["storage"].(map[string]any)["bucket"] = "" }, "storage.bucket"},
		{"empty path", func(m map[string]any) { m["storage"].(map[string]any)["path"] = "" }, "storage.path"},
		{"absolute path", func(m map[string]any) { m["storage"].(map[string]any)["path"] = "/" + testRequestID + "/a.pdf" }, "storage.path"},
		{"traversal", func(m map[string]any) { m["storage"].(map[string]any)["path"] = "documents/../" + testRequestID }, "storage.path"},
		{"path without request id", func(m map[string]any) { m["storage"].(map[string]any)["path"] = "documents/other/refs.pdf" }, "storage.path"},
		{"bad digest", func(m map[string]any) { m["integrity"] = map[string]any{"sha256": strings.Repeat("A", 64)} }, "integrity.sha256"},
		{"unknown top-level field", func(m map[string]any) { m["debug"] = true }, "debug"},
		{"wrong type", func(m map[string]any) { m["requestId"] = 42 }, "requestId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := v.DecodeBase(validBody(t, tt.mutate))
			require.Error(t, err)
			assert.Nil(t, p)
			assert.True(t, errors.Is(err, common.ErrValidation))
			assert.Contains(t, issueFields(t, err), tt.field)
		})
	}
}

func TestDecodeBase_ReportsAllIssues(t *testing.T) {
	v := New(common.ProviderS3)

	_, err := v.DecodeBase([]byte(`{}`))
	fields := issueFields(t, err)
	for _, f := range []string{"requestId", "extractMode", "document.sourceType", "document.fileName", "document.mimeType", "storage.provider", "storage.bucket", "storage.path"} {
		assert.Contains(t, fields, f)
	}
}

func TestDecodeBase_MalformedJSON(t *testing.T) {
	v := New(common.ProviderS3)

	for _, body := range []string{"", "{", `{"requestId": }`, `{} {}`} {
		_, err := v.DecodeBase([]byte(body))
		assert.ErrorIs(t, err, common.ErrMalformedJSON, "body %q", body)
		assert.False(t, errors.Is(err, common.ErrValidation))
	}
}

func TestDecodeBase_NotAnObject(t *testing.T) {
	_, err := New(common.ProviderS3).DecodeBase([]byte(`[]`))
	require.ErrorIs(t, err, common.ErrValidation)
	assert.Contains(t, err.Error(), "expected a JSON object")
}

func TestDecodeFull(t *testing.T) {
	v := New(common.ProviderS3)
	digest := strings.Repeat("ab", 32)

	_, err := v.DecodeFull(validBody(t, nil))
	assert.Contains(t, issueFields(t, err), "integrity")

	p, err := v.DecodeFull(validBody(t, func(m map[string]any) {
		m["integrity"] = map[string]any{"sha256": digest}
	}))
	require.NoError(t, err)
	require.NotNil(t, p.Integrity)
	assert.Equal(t, digest, p.Integrity.SHA256)
}

func TestNew_DefaultsProvider(t *testing.T) {
	_, err := New("").DecodeBase(validBody(t, nil))
	assert.NoError(t, err)

	_, err = New(common.ProviderAzure).DecodeBase(validBody(t, nil))
	assert.Contains(t, issueFields(t, err), "storage.provider")
}

func TestDecodeCleanup(t *testing.T) {
	r, err := DecodeCleanup([]byte(`{"bucket":"documents","path":"uploads/` + testRequestID + `/refs.pdf"}`))
	require.NoError(t, err)
	assert.Equal(t, "documents", r.Bucket)

	r, err = DecodeCleanup([]byte(`{"bucket":"documents","path":"documents/` + testRequestID + `/refs.pdf"}`))
	require.NoError(t, err)
	assert.Equal(t, "documents/"+testRequestID+"/refs.pdf", r.Path)

	for _, path := range []string{
		"other/" + testRequestID + "/refs.pdf",
		"documents/not-a-uuid/refs.pdf",
		"documents/" + testRequestID + "/",
		"documents/" + testRequestID + "/nested/refs.pdf",
		"documents/" + testRequestID,
		"refs.pdf",
	} {
		_, err = DecodeCleanup([]byte(`{"bucket":"documents","path":"` + path + `"}`))
		assert.Equal(t, []string{"path"}, issueFields(t, err), "path %q", path)
	}

	_, err = DecodeCleanup([]byte(`{"bucket":"","path":"uploads/../x"}`))
	assert.ElementsMatch(t, []string{"bucket", "path"}, issueFields(t, err))

	_, err = DecodeCleanup([]byte(`{"bucket":"documents","path":"uploads/a","force":true}`))
	assert.Equal(t, []string{"force"}, issueFields(t, err))

	_, err = DecodeCleanup([]byte(`nope`))
	assert.ErrorIs(t, err, common.ErrMalformedJSON)
}

func TestDecodeUploadRequest(t *testing.T) {
	r, err := DecodeUploadRequest([]byte(`{"fileName":"refs.pdf","contentType":"application/pdf"}`))
	require.NoError(t, err)
	assert.Equal(t, "refs.pdf", r.FileName)

	_, err = DecodeUploadRequest([]byte(`{"fileName":""}`))
	assert.ElementsMatch(t, []string{"fileName", "contentType"}, issueFields(t, err))
}

func TestPayloadClone(t *testing.T) {
	p := &Payload{RequestID: testRequestID, Integrity: &Integrity{SHA256: "x"}}
	c := p.Clone()
	c.Integrity.SHA256 = "y"
	assert.Equal(t, "x", p.Integrity.SHA256)
}

func TestError_Message(t *testing.T) {
	err := &Error{Issues: []Issue{{Field: "a", Message: "required"}, {Message: "expected a JSON object"}}}
	assert.Equal(t, "validation error: a: required; expected a JSON object", err.Error())
}
