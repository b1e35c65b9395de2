package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CategoryParse, CodeTooFewRows, "test message")

	if err.Category != CategoryParse {
		t.Errorf("Expected category %s, got %s", CategoryParse, err.Category)
	}

	if err.Code != CodeTooFewRows {
		t.Errorf("Expected code %s, got %s", CodeTooFewRows, err.Code)
	}

	if err.Message != "test message" {
		t.Errorf("Expected message 'test message', got '%s'", err.Message)
	}

	if err.StackTrace == nil {
		t.Error("Expected stack trace to be captured")
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("underlying failure")
	err := Wrap(cause, CategoryFile, CodeFileCorrupted, "wrapped message")

	if err.Cause != cause {
		t.Error("Expected cause to be preserved")
	}

	if !errors.Is(err, cause) {
		t.Error("Expected errors.Is to find the cause through Unwrap")
	}

	if Wrap(nil, CategoryFile, CodeFileCorrupted, "msg") != nil {
		t.Error("Expected wrapping nil to return nil")
	}
}

func TestError_WithSuggestion(t *testing.T) {
	err := New(CategoryParse, CodeEncodingError, "could not decode").
		WithSuggestion("use UTF-8")

	msg := err.Error()
	if !strings.Contains(msg, "could not decode") {
		t.Errorf("Expected message in error string, got '%s'", msg)
	}
	if !strings.Contains(msg, "use UTF-8") {
		t.Errorf("Expected suggestion in error string, got '%s'", msg)
	}
}

func TestError_WithContext(t *testing.T) {
	err := New(CategoryParse, CodeNoValueColumn, "msg").
		WithContext("filename", "cobranca.csv").
		WithContext("rows", 10)

	if err.Context["filename"] != "cobranca.csv" {
		t.Errorf("Expected filename context, got %v", err.Context["filename"])
	}
	if err.Context["rows"] != 10 {
		t.Errorf("Expected rows context, got %v", err.Context["rows"])
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name     string
		category ErrorCategory
		expected int
	}{
		{"file error", CategoryFile, 2},
		{"parse error", CategoryParse, 3},
		{"validation error", CategoryValidation, 3},
		{"configuration error", CategoryConfiguration, 4},
		{"conciliation error", CategoryConciliation, 5},
		{"internal error", CategoryInternal, 5},
		{"unknown category", ErrorCategory("other"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.category, CodeUnexpectedError, "test")
			if code := err.GetExitCode(); code != tt.expected {
				t.Errorf("Expected exit code %d, got %d", tt.expected, code)
			}
		})
	}
}

func TestParseFailure(t *testing.T) {
	tests := []struct {
		name     string
		code     ErrorCode
		contains string
	}{
		{"unsupported format", CodeUnsupportedFormat, "unsupported file format"},
		{"encoding", CodeEncodingError, "could not decode"},
		{"too few rows", CodeTooFewRows, "at least a header row"},
		{"no value column", CodeNoValueColumn, "value/amount column"},
		{"no transactions", CodeNoTransactions, "no transactions"},
		{"unrecognized cnab", CodeUnrecognizedCNAB, "CNAB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseFailure(tt.code, "upload.dat", nil)

			if err.Category != CategoryParse {
				t.Errorf("Expected parse category, got %s", err.Category)
			}
			if err.Code != tt.code {
				t.Errorf("Expected code %s, got %s", tt.code, err.Code)
			}
			if !strings.Contains(err.Message, tt.contains) {
				t.Errorf("Expected message to contain '%s', got '%s'", tt.contains, err.Message)
			}
			if err.Context["filename"] != "upload.dat" {
				t.Error("Expected filename in context")
			}
			if err.Suggestion == "" {
				t.Error("Expected a suggestion to be set")
			}
		})
	}
}

func TestFileError(t *testing.T) {
	err := FileError(CodeFileNotFound, "/tmp/missing.csv", nil)

	if err.Category != CategoryFile {
		t.Errorf("Expected file category, got %s", err.Category)
	}
	if !strings.Contains(err.Message, "/tmp/missing.csv") {
		t.Errorf("Expected path in message, got '%s'", err.Message)
	}
}

func TestAsConciliadorError(t *testing.T) {
	original := New(CategoryParse, CodeTooFewRows, "inner")
	wrapped := fmt.Errorf("outer: %w", original)

	extracted, ok := AsConciliadorError(wrapped)
	if !ok {
		t.Fatal("Expected to extract ConciliadorError from chain")
	}
	if extracted != original {
		t.Error("Expected extracted error to be the original")
	}

	if _, ok := AsConciliadorError(fmt.Errorf("plain")); ok {
		t.Error("Expected plain error not to extract")
	}
}

func TestWrapIfNeeded(t *testing.T) {
	original := New(CategoryParse, CodeTooFewRows, "inner")

	if got := WrapIfNeeded(original, CategoryInternal, CodeUnexpectedError, "m"); got != original {
		t.Error("Expected existing ConciliadorError to pass through")
	}

	plain := fmt.Errorf("plain")
	got := WrapIfNeeded(plain, CategoryInternal, CodeUnexpectedError, "wrapped")
	if got.Category != CategoryInternal {
		t.Errorf("Expected internal category, got %s", got.Category)
	}
	if got.Cause != plain {
		t.Error("Expected cause to be set")
	}

	if WrapIfNeeded(nil, CategoryInternal, CodeUnexpectedError, "m") != nil {
		t.Error("Expected nil to pass through")
	}
}
