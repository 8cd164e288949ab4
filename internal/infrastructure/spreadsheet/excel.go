// Package spreadsheet parses uploaded recommendation sheets into rows the
// engine can process.
package spreadsheet

import (
	"bytes"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/qiyas/continuity/internal/application/continuity"
	"github.com/qiyas/continuity/pkg/errors"
)

// Expected column order in the uploaded sheet. The first row is a header.
const (
	colMainArea = iota
	colElement
	colSubDomain
	colCurrentStatus
	colRecommendation
	columnCount
)

// ExcelReader streams rows from the first sheet of an xlsx workbook. Rows
// whose first cell is blank are skipped.
type ExcelReader struct {
	rows []continuity.Row
	pos  int
}

// NewExcelReader parses the workbook bytes eagerly. Malformed workbooks and
// workbooks without a sheet fail here rather than mid-batch.
func NewExcelReader(raw []byte) (*ExcelReader, error) {
	if len(raw) == 0 {
		return nil, errors.New(errors.ErrCodeUploadEmptySheet, "empty workbook")
	}

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUploadSheetMalformed, "failed to open workbook")
	}
	defer f.Close() //nolint:errcheck

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New(errors.ErrCodeUploadSheetMalformed, "workbook has no sheets")
	}

	cells, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUploadSheetMalformed, "failed to read sheet rows")
	}

	rows := make([]continuity.Row, 0, len(cells))
	for i, rowCells := range cells {
		if i == 0 {
			continue // header
		}
		row := toRow(i+1, rowCells)
		if row.MainArea == "" {
			continue
		}
		rows = append(rows, row)
	}

	return &ExcelReader{rows: rows}, nil
}

// Read returns the next data row; ok is false when the sheet is exhausted.
func (r *ExcelReader) Read() (continuity.Row, bool, error) {
	if r.pos >= len(r.rows) {
		return continuity.Row{}, false, nil
	}
	row := r.rows[r.pos]
	r.pos++
	return row, true, nil
}

// Len reports the number of data rows in the sheet.
func (r *ExcelReader) Len() int {
	return len(r.rows)
}

func toRow(line int, cells []string) continuity.Row {
	return continuity.Row{
		Line:           line,
		MainArea:       cellAt(cells, colMainArea),
		Element:        cellAt(cells, colElement),
		SubDomain:      cellAt(cells, colSubDomain),
		CurrentStatus:  cellAt(cells, colCurrentStatus),
		Recommendation: cellAt(cells, colRecommendation),
	}
}

func cellAt(cells []string, idx int) string {
	if idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}
