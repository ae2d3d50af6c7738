package httputil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid HTTPS", "https://example.com/path", false},
		{"HTTP rejected", "http://example.com/path", true},
		{"javascript scheme rejected", "javascript:alert(1)", true},
		{"empty string", "", true},
		{"no host", "https://", true},
		{"valid with query", "https://example.com/path?q=test&a=b", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			assert.Equal(t, tt.wantErr, err != nil, "ValidateURL(%q) error = %v", tt.url, err)
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"normal filename", "en.vtt", "en.vtt"},
		{"path traversal", "../../etc/passwd", "passwd"},
		{"null bytes", "sub\x00.vtt", "sub.vtt"},
		{"Windows special chars", "sub<>:\"|?*.vtt", "sub_______.vtt"},
		{"empty string", "", "untitled"},
		{"just dot", ".", "untitled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestFilenameFromURL(t *testing.T) {
	assert.Equal(t, "en.vtt", FilenameFromURL("https://cdn.example.com/subs/en.vtt?token=abc", "subtitle.vtt"))
	assert.Equal(t, "subtitle.vtt", FilenameFromURL("https://cdn.example.com/", "subtitle.vtt"))
}
