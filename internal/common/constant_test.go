package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSourceTypeForExtension(t *testing.T) {
	tests := []struct {
		ext    string
		want   string
		wantOK bool
	}{
		{ExtensionPDF, SourceTypePDF, true},
		{ExtensionDOCX, SourceTypeDOCX, true},
		{".doc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			got, ok := SourceTypeForExtension(tt.ext)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestMimeTypeForSourceType(t *testing.T) {
	m, ok := MimeTypeForSourceType(SourceTypeDOCX)
	assert.True(t, ok)
	assert.Equal(t, MimeTypeDOCX, m)

	_, ok = MimeTypeForSourceType("txt")
	assert.False(t, ok)
}
