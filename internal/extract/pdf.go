package extract

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// readPDF extracts the text layer of a PDF. Scanned documents without a text
// layer come back empty; the caller treats empty extraction as "nothing to
// index" for that file.
func readPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf text layer: %w", err)
	}
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", err
	}
	return buf.String(), nil
}
