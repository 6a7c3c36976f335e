// Package extract converts uploaded documents to plain text so they can
// be segmented and verified.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for uploads that are neither plain
// text, PDF, DOCX, nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported document format")

var pdfMagic = []byte("%PDF-")

// Extract returns the text content of an uploaded file. The format is
// chosen by the filename extension, except that content starting with the
// PDF magic bytes is always parsed as PDF regardless of its name.
func Extract(filename string, content []byte) (string, error) {
	if bytes.HasPrefix(content, pdfMagic) {
		return fromPDF(content)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md", "":
		return fromPlain(content)
	case ".pdf":
		return fromPDF(content)
	case ".docx":
		return fromDOCX(content)
	case ".xlsx":
		return fromXLSX(content)
	default:
		return "", fmt.Errorf("%q: %w", filename, ErrUnsupportedFormat)
	}
}

// Preview returns the first n runes of text, for echoing back what an
// upload decoded to.
func Preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
