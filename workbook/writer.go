package workbook

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV writes headers followed by rows with standard CSV quoting.
func WriteCSV(w io.Writer, headers []string, rows [][]string) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("writing rows: %w", err)
	}

	return nil
}

func EncodeCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer

	if err := WriteCSV(&buf, headers, rows); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
