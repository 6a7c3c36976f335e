package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const docxDocumentPath = "word/document.xml"

// textRun matches <w:t>text</w:t> with or without attributes. Pulling the
// text runs directly keeps extraction independent of paragraph markup.
var textRun = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

// fromDOCX extracts the text runs of the main document part of a .docx
// archive, joined with spaces.
func fromDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open DOCX: not a zip: %w", err)
	}

	var docXML []byte
	for _, f := range zr.File {
		if f.Name != docxDocumentPath {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open DOCX: %s: %w", f.Name, err)
		}
		docXML, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("read DOCX: %s: %w", f.Name, err)
		}
		break
	}
	if docXML == nil {
		return "", fmt.Errorf("open DOCX: %s not found", docxDocumentPath)
	}

	runs := textRun.FindAllStringSubmatch(string(docXML), -1)
	var b strings.Builder
	for _, run := range runs {
		text := strings.TrimSpace(run[1])
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(text)
	}
	return b.String(), nil
}
