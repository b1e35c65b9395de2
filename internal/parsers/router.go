package parsers

import (
	"path/filepath"
	"strings"

	"conciliador/pkg/errors"
	"conciliador/pkg/logger"
)

// Router dispatches file content to the parser matching its extension.
type Router struct {
	tabular *TabularParser
	ofx     *OFXParser
	cnab    *CNABParser
	log     logger.Logger
}

// NewRouter creates a router with one parser instance per supported format.
func NewRouter() *Router {
	return &Router{
		tabular: NewTabularParser(),
		ofx:     NewOFXParser(),
		cnab:    NewCNABParser(),
		log:     logger.GetGlobalLogger().WithComponent("router"),
	}
}

// Parse routes the content by the filename's extension. Files with an
// unknown extension get one last chance as CNAB, since bank return files
// are often delivered with bank-specific suffixes; anything else fails
// with an unsupported-format error.
func (r *Router) Parse(content []byte, filename string) (*ParseResult, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	r.log.WithFields(logger.Fields{
		"filename":  filename,
		"extension": ext,
		"bytes":     len(content),
	}).Info("Routing file to parser")

	switch ext {
	case ".csv":
		return r.tabular.ParseCSV(content, filename)
	case ".xlsx", ".xls":
		return r.tabular.ParseXLSX(content, filename)
	case ".ofx":
		return r.ofx.Parse(content, filename)
	case ".ret", ".rem", ".cnab":
		return r.cnab.Parse(content, filename)
	}

	if _, ok := DetectCNABLength(content); ok {
		return r.cnab.Parse(content, filename)
	}

	return nil, errors.ParseFailure(errors.CodeUnsupportedFormat, filename, nil).
		WithSuggestion("Supported formats: CSV, XLSX, OFX and CNAB 240/400 return files")
}
