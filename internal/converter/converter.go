// Package converter defines the document-conversion collaborator consumed by
// the job orchestrator, plus a native implementation covering text-based
// formats. Heavyweight parsing (OCR, DOCX layout, image classification) is
// expected to live behind the same interface in an external engine.
package converter

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnsupportedFormat is returned for file extensions the converter cannot
// handle.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Request carries the conversion parameters for one file.
type Request struct {
	FilePath      string
	Profile       string
	OCREngine     string
	OCRLanguage   string
	ForceOCR      bool
	ExportFormats []string
	ChunkSize     int
	ChunkOverlap  int
}

// Document is the structured view of a converted file.
type Document struct {
	Title      string
	Source     string
	Paragraphs []string
}

// Result holds the rendered output formats plus the structured document.
type Result struct {
	Formats  map[string]string
	Document *Document
}

// Converter turns a file on disk into LLM-oriented output formats. Any error
// is treated as a job failure by the orchestrator.
type Converter interface {
	Convert(ctx context.Context, req Request) (*Result, error)
}

func unsupported(ext string) error {
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}
