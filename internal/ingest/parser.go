package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/codares/order-ingestion/internal/domain"
)

const expectedColumnCount = 6

var expectedHeader = []string{
	"orderNumber", "clientId", "deliveryDate", "status", "zoneId", "requiresRefrigeration",
}

// trueLiterals is the liberal, case-insensitive boolean acceptance set.
// Anything outside trueLiterals is false.
var trueLiterals = map[string]struct{}{
	"true": {}, "1": {}, "si": {}, "sí": {},
}

// ParseRecords decodes a raw multipart upload into an ordered sequence
// of Row. Returns domain.ErrValidation wrapping FORMAT_INVALID for any
// structural failure: missing/malformed header, wrong column count, or
// an empty data set.
func ParseRecords(data []byte) ([]domain.Row, error) {
	data = stripBOM(data)

	reader := csv.NewReader(bufio.NewReader(bytes.NewReader(data)))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: FORMAT_INVALID: file is empty", domain.ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: FORMAT_INVALID: failed to read header: %v", domain.ErrValidation, err)
	}

	if err := validateHeader(header); err != nil {
		return nil, err
	}

	var rows []domain.Row

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: FORMAT_INVALID: failed to read row: %v", domain.ErrValidation, err)
		}

		// FieldPos reports the record's actual physical line, so a blank
		// interior line (silently skipped by csv.Reader before it ever
		// returns a record) doesn't throw off the numbering of the rows
		// that follow it.
		lineNumber, _ := reader.FieldPos(0)

		if isBlankRecord(record) {
			continue
		}

		record = padRecord(record, expectedColumnCount)

		rows = append(rows, domain.Row{
			LineNumber:            lineNumber,
			OrderNumber:           strings.TrimSpace(record[0]),
			ClientID:              strings.TrimSpace(record[1]),
			DeliveryDate:          strings.TrimSpace(record[2]),
			Status:                strings.TrimSpace(record[3]),
			ZoneID:                strings.TrimSpace(record[4]),
			RequiresRefrigeration: parseBoolean(record[5]),
		})
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: FORMAT_INVALID: file contains no data rows", domain.ErrValidation)
	}

	return rows, nil
}

func validateHeader(header []string) error {
	if len(header) != expectedColumnCount {
		return fmt.Errorf("%w: FORMAT_INVALID: expected %d columns, got %d", domain.ErrValidation, expectedColumnCount, len(header))
	}
	for i, name := range header {
		if !strings.EqualFold(strings.TrimSpace(name), expectedHeader[i]) {
			return fmt.Errorf("%w: FORMAT_INVALID: expected column %q at position %d, got %q", domain.ErrValidation, expectedHeader[i], i+1, name)
		}
	}
	return nil
}

func isBlankRecord(record []string) bool {
	if len(record) == 0 {
		return true
	}
	if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
		return true
	}
	return false
}

func padRecord(record []string, width int) []string {
	if len(record) >= width {
		return record
	}
	padded := make([]string, width)
	copy(padded, record)
	return padded
}

func parseBoolean(value string) bool {
	normalized := strings.ToLower(strings.TrimSpace(value))
	_, ok := trueLiterals[normalized]
	return ok
}

func stripBOM(b []byte) []byte {
	bom := []byte{0xEF, 0xBB, 0xBF}
	if len(b) >= 3 && bytes.Equal(b[:3], bom) {
		return b[3:]
	}
	return b
}
