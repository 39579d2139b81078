package ingest

import (
	"bytes"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/karvio/emissions-service/internal/model"
)

// ParseXLSX reads the first sheet of an uploaded workbook into activity
// records, with the same header aliasing and row skipping as ParseCSV.
func ParseXLSX(data []byte, companyID uuid.UUID) ([]model.ActivityRecord, int, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, 0, ErrNoHeader
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, 0, err
	}
	if len(rows) == 0 {
		return nil, 0, ErrNoHeader
	}

	index := headerIndex(rows[0])
	if len(index) == 0 {
		return nil, 0, ErrNoHeader
	}

	var records []model.ActivityRecord
	skipped := 0
	for _, row := range rows[1:] {
		record, ok := recordFromRow(row, index, companyID)
		if !ok {
			skipped++
			continue
		}
		records = append(records, record)
	}
	return records, skipped, nil
}
