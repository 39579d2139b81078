package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/karvio/emissions-service/internal/model"
)

var ErrNoHeader = errors.New("document has no usable header row")

// ParseCSV reads an uploaded CSV document into activity records. Rows that
// cannot be mapped are counted and skipped, never fatal.
func ParseCSV(data []byte, companyID uuid.UUID) ([]model.ActivityRecord, int, error) {
	if !utf8.Valid(data) {
		data = latin1ToUTF8(data)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, 0, ErrNoHeader
	}
	index := headerIndex(header)
	if len(index) == 0 {
		return nil, 0, ErrNoHeader
	}

	var records []model.ActivityRecord
	skipped := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		record, ok := recordFromRow(row, index, companyID)
		if !ok {
			skipped++
			continue
		}
		records = append(records, record)
	}
	return records, skipped, nil
}

// latin1ToUTF8 re-encodes bytes that fail UTF-8 validation; Latin-1 maps
// byte-for-byte onto the first 256 code points.
func latin1ToUTF8(data []byte) []byte {
	buf := make([]rune, len(data))
	for i, b := range data {
		buf[i] = rune(b)
	}
	return []byte(string(buf))
}
