// Package extract turns files of the supported formats into plain text.
//
// Dispatch is a closed table keyed by Format; the format of a file is derived
// from its lower-cased extension. Unknown extensions are read as plain text.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"voicerag/internal/domain"
	"voicerag/internal/logger"
)

// Format identifies an extraction strategy.
type Format string

const (
	FormatText Format = "text"
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
	FormatJSON Format = "json"
)

// ErrMissingCapability is returned when the handler for a format is not available
// in this build or has been disabled.
var ErrMissingCapability = errors.New("missing extraction capability")

var extensions = map[string]Format{
	".txt":  FormatText,
	".md":   FormatText,
	".log":  FormatText,
	".rst":  FormatText,
	".pdf":  FormatPDF,
	".docx": FormatDOCX,
	".xlsx": FormatXLSX,
	".csv":  FormatCSV,
	".html": FormatHTML,
	".htm":  FormatHTML,
	".json": FormatJSON,
}

// FormatOf returns the strategy used for path.
func FormatOf(path string) Format {
	if f, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return f
	}
	return FormatText
}

// strategy reads one file of a given format. A nil strategy means the
// handler was compiled out.
type strategy func(path string) (string, error)

// buildTags names the tag that removes each optional handler.
var buildTags = map[Format]string{
	FormatPDF:  "nopdf",
	FormatDOCX: "nodocx",
	FormatXLSX: "noxlsx",
}

// Extractor dispatches files to format strategies.
type Extractor struct {
	table    map[Format]strategy
	disabled map[Format]bool
	log      *logrus.Entry
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger.
func WithLogger(log *logrus.Entry) Option {
	return func(e *Extractor) { e.log = log }
}

// Without disables the handlers for the given formats. Files of those formats
// fail with ErrMissingCapability.
func Without(formats ...Format) Option {
	return func(e *Extractor) {
		for _, f := range formats {
			e.disabled[f] = true
		}
	}
}

// New creates an Extractor with every handler compiled into this build.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		table: map[Format]strategy{
			FormatText: extractText,
			FormatPDF:  pdfHandler,
			FormatDOCX: docxHandler,
			FormatXLSX: xlsxHandler,
			FormatCSV:  extractCSV,
			FormatHTML: extractHTML,
			FormatJSON: extractJSON,
		},
		disabled: map[Format]bool{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = logger.OrDiscard(e.log)
	return e
}

// Supports reports whether the handler for f is available.
func (e *Extractor) Supports(f Format) bool {
	return e.table[f] != nil && !e.disabled[f]
}

// Extract reads the file at path and returns its text.
func (e *Extractor) Extract(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("file %s: %w", path, domain.ErrNotFound)
		}
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory: %w", path, domain.ErrInvalidArgument)
	}

	format := FormatOf(path)
	if !e.Supports(format) {
		return "", missingCapability(format, e.disabled[format])
	}
	text, err := e.table[format](path)
	if err != nil {
		return "", fmt.Errorf("extract %s (%s): %w", filepath.Base(path), format, err)
	}
	e.log.WithFields(logrus.Fields{
		"file":   filepath.Base(path),
		"format": string(format),
		"chars":  len(text),
	}).Debug("extracted text")
	return text, nil
}

func missingCapability(f Format, disabled bool) error {
	if disabled {
		return fmt.Errorf("%s handler is disabled, remove it from extract.disabled_formats to enable it: %w", f, ErrMissingCapability)
	}
	return fmt.Errorf("%s handler is not compiled in, rebuild without the %q build tag: %w", f, buildTags[f], ErrMissingCapability)
}
