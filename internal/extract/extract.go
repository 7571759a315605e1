// Package extract converts supported document formats to plain text. The
// dispatch over formats is closed: every supported extension maps to one
// extraction function, anything else fails with domain.ErrUnsupportedFormat.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docrag/internal/domain"
)

// docTypes maps a lower-cased file extension to its document type label as
// recorded in chunk metadata.
var docTypes = map[string]string{
	".txt":      "text",
	".md":       "markdown",
	".markdown": "markdown",
	".pdf":      "pdf",
	".docx":     "docx",
	".html":     "html",
	".htm":      "html",
}

// Supported reports whether the file's extension is in the supported set.
func Supported(path string) bool {
	_, ok := docTypes[strings.ToLower(filepath.Ext(path))]
	return ok
}

// DocType returns the document type label for a path, or "" if unsupported.
func DocType(path string) string {
	return docTypes[strings.ToLower(filepath.Ext(path))]
}

// File extracts the plain text of the document at path and returns it with
// the document type label. Missing files yield domain.ErrNotFound,
// unrecognized extensions domain.ErrUnsupportedFormat.
func File(path string) (string, string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	docType, ok := docTypes[ext]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, ext)
	}
	if _, err := os.Stat(path); err != nil {
		return "", "", fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}

	var (
		text string
		err  error
	)
	switch docType {
	case "text":
		text, err = readText(path)
	case "markdown":
		text, err = readMarkdown(path)
	case "pdf":
		text, err = readPDF(path)
	case "docx":
		text, err = readDocx(path)
	case "html":
		text, err = readHTML(path)
	}
	if err != nil {
		return "", "", fmt.Errorf("extract %s: %w", path, err)
	}
	return text, docType, nil
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}
	return string(data), nil
}
