package parsers

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Encoding fallback chains. Tabular files are usually exported as UTF-8 with
// Latin-1 strays; CNAB returns are Latin-1 first by bank convention.
var (
	tabularEncodings = []string{"utf-8", "iso-8859-1", "windows-1252"}
	cnabEncodings    = []string{"iso-8859-1", "windows-1252", "utf-8"}
)

// decodeText decodes raw bytes trying each named encoding in order. It
// returns the decoded text and the encoding that succeeded, or an error when
// none of them could decode the content.
func decodeText(content []byte, encodings []string) (string, string, error) {
	for _, name := range encodings {
		switch name {
		case "utf-8":
			if utf8.Valid(content) {
				return string(content), name, nil
			}
		case "iso-8859-1":
			if decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(content); err == nil {
				return string(decoded), name, nil
			}
		case "windows-1252":
			if decoded, err := charmap.Windows1252.NewDecoder().Bytes(content); err == nil {
				return string(decoded), name, nil
			}
		}
	}
	return "", "", fmt.Errorf("content is not valid in any of %v", encodings)
}

// splitNonEmptyLines normalizes line endings to \n and drops blank lines.
// Row errors are keyed by the 1-based index into the returned slice.
func splitNonEmptyLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
