package ingest

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// ExtractPDF returns the plain text of a PDF file.
func ExtractPDF(path string) (string, error) {
	f, rdr, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf %s: %w", path, err)
	}
	defer f.Close()

	reader, err := rdr.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read pdf text from %s: %w", path, err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return "", fmt.Errorf("failed to buffer pdf text from %s: %w", path, err)
	}

	text := buf.String()
	if text == "" {
		return "", fmt.Errorf("no text extracted from %s", path)
	}
	return text, nil
}
