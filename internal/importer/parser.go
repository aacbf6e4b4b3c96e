package importer

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ParseWorkbook loads the active sheet of an xlsx workbook into a
// row-major grid of cell strings. Only the first sheet matters; users
// upload single-sheet catalog exports.
func ParseWorkbook(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}
