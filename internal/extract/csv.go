package extract

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"
)

// extractCSV writes one line per row, fields joined by ", ". Blank input
// lines are rows without fields and come out as empty lines.
func extractCSV(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var lines []string
	var prev int64
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		end := r.InputOffset()
		// The reader skips blank lines; recover them from the newlines
		// consumed beyond the record's own.
		seg := data[prev:end]
		blank := bytes.Count(seg, []byte("\n"))
		for _, field := range record {
			blank -= strings.Count(field, "\n")
		}
		if bytes.HasSuffix(seg, []byte("\n")) {
			blank--
		}
		for ; blank > 0; blank-- {
			lines = append(lines, "")
		}
		lines = append(lines, strings.Join(record, ", "))
		prev = end
	}
	for n := bytes.Count(data[prev:], []byte("\n")); n > 0; n-- {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n"), nil
}
