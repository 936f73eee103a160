package csvsource

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var (
	htmlTagRegex   = regexp.MustCompile(`<[^>]+>`)
	quotedSepRegex = regexp.MustCompile(`";+"`)
	quoteRunRegex  = regexp.MustCompile(`"+`)
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CleanHTMLTags removes markup Panorama embeds in exported cells, collapses
// quoted separators ("";"" -> ;) and repeated quotes, and trims whitespace.
func CleanHTMLTags(text string) string {
	cleaned := htmlTagRegex.ReplaceAllString(text, "")
	cleaned = quotedSepRegex.ReplaceAllString(cleaned, ";")
	cleaned = quoteRunRegex.ReplaceAllString(cleaned, `"`)
	return strings.TrimSpace(cleaned)
}

// CleanCSV copies a CSV export from r to w with every cell passed through
// CleanHTMLTags. A leading UTF-8 byte order mark is dropped.
func CleanCSV(r io.Reader, w io.Writer) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	writer := csv.NewWriter(w)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("parse csv: %w", err)
		}

		for i, cell := range row {
			row[i] = CleanHTMLTags(cell)
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
