package handlers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilenameStripsControlCharsAndCRLF(t *testing.T) {
	got := sanitizeFilename("report\r\n.txt\x00")
	assert.NotContains(t, got, "\r")
	assert.NotContains(t, got, "\n")
	assert.NotContains(t, got, "\x00")
}

func TestSanitizeFilenameReplacesPathAndReservedChars(t *testing.T) {
	got := sanitizeFilename(`../../etc:passwd*?"<>|`)
	assert.NotContains(t, got, "/")
	assert.NotContains(t, got, ":")
	assert.NotContains(t, got, "*")
	assert.NotContains(t, got, `"`)
}

func TestContentDispositionHeaderASCIIName(t *testing.T) {
	header := contentDispositionHeader("quarterly-report.pdf")
	assert.Equal(t, `attachment; filename="quarterly-report.pdf"`, header)
}

func TestContentDispositionHeaderNonASCIIEmitsBoth(t *testing.T) {
	header := contentDispositionHeader("résumé.pdf")
	assert.True(t, strings.HasPrefix(header, `attachment; filename="`))
	assert.Contains(t, header, "filename*=UTF-8''")
	assert.NotContains(t, header, "é")
}

func TestContentDispositionHeaderRejectsInjection(t *testing.T) {
	header := contentDispositionHeader("evil\r\nSet-Cookie: a=b.txt")
	assert.NotContains(t, header, "\r")
	assert.NotContains(t, header, "\n")
}
