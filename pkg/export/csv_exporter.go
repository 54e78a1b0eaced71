package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVExporter renders a single-column email list into CSV bytes: one
// address per line, trailing newline, no header row. Downstream mail
// clients expect exactly this shape for the emails.csv attachment.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the email list.
func (e *CSVExporter) Render(emails []string) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	for _, email := range emails {
		if err := writer.Write([]string{email}); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
