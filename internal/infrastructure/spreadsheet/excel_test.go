package spreadsheet

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/qiyas/continuity/internal/application/continuity"
	apperrors "github.com/qiyas/continuity/pkg/errors"
)

func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestNewExcelReader_ReadsDataRows(t *testing.T) {
	raw := buildWorkbook(t, [][]interface{}{
		{"main_area", "element", "sub_domain", "current_status", "recommendation"},
		{"الحوكمة", "السياسات", "إدارة الوثائق", "جزئي", "تحديث السياسة"},
		{"الحوكمة", "السياسات", "المراجعة الدورية", "ممتثل", ""},
	})

	reader, err := NewExcelReader(raw)
	require.NoError(t, err)
	assert.Equal(t, 2, reader.Len())

	row, ok, err := reader.Read()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, continuity.Row{
		Line:           2,
		MainArea:       "الحوكمة",
		Element:        "السياسات",
		SubDomain:      "إدارة الوثائق",
		CurrentStatus:  "جزئي",
		Recommendation: "تحديث السياسة",
	}, row)

	row, ok, err = reader.Read()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "المراجعة الدورية", row.SubDomain)

	_, ok, err = reader.Read()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewExcelReader_SkipsBlankLeadingCell(t *testing.T) {
	raw := buildWorkbook(t, [][]interface{}{
		{"main_area", "element", "sub_domain", "current_status", "recommendation"},
		{"", "يتجاهل", "يتجاهل", "", ""},
		{"الحوكمة", "السياسات", "إدارة الوثائق", "جزئي", "توصية"},
	})

	reader, err := NewExcelReader(raw)
	require.NoError(t, err)
	require.Equal(t, 1, reader.Len())

	row, ok, err := reader.Read()
	require.NoError(t, err)
	require.True(t, ok)
	// Line numbers follow sheet position, skipped rows included.
	assert.Equal(t, 3, row.Line)
}

func TestNewExcelReader_ShortRows(t *testing.T) {
	raw := buildWorkbook(t, [][]interface{}{
		{"main_area", "element", "sub_domain", "current_status", "recommendation"},
		{"الحوكمة", "السياسات"},
	})

	reader, err := NewExcelReader(raw)
	require.NoError(t, err)

	row, ok, err := reader.Read()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "الحوكمة", row.MainArea)
	assert.Empty(t, row.SubDomain)
	assert.Empty(t, row.Recommendation)
}

func TestNewExcelReader_TrimsWhitespace(t *testing.T) {
	raw := buildWorkbook(t, [][]interface{}{
		{"main_area", "element", "sub_domain", "current_status", "recommendation"},
		{"  الحوكمة ", " السياسات", "إدارة الوثائق ", " جزئي ", " توصية "},
	})

	reader, err := NewExcelReader(raw)
	require.NoError(t, err)

	row, _, err := reader.Read()
	require.NoError(t, err)
	assert.Equal(t, "الحوكمة", row.MainArea)
	assert.Equal(t, "توصية", row.Recommendation)
}

func TestNewExcelReader_HeaderOnly(t *testing.T) {
	raw := buildWorkbook(t, [][]interface{}{
		{"main_area", "element", "sub_domain", "current_status", "recommendation"},
	})

	reader, err := NewExcelReader(raw)
	require.NoError(t, err)
	assert.Equal(t, 0, reader.Len())

	_, ok, err := reader.Read()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewExcelReader_EmptyPayload(t *testing.T) {
	_, err := NewExcelReader(nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUploadEmptySheet))
}

func TestNewExcelReader_MalformedWorkbook(t *testing.T) {
	_, err := NewExcelReader([]byte("not a zip archive"))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUploadSheetMalformed))
}
