package tabular

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// readXLSX returns the rows of the first sheet.
func readXLSX(r io.Reader) ([][]string, []int, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, ErrNoHeader
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	// Leading empty rows are not a header.
	start := 0
	for start < len(rows) && len(rows[start]) == 0 {
		start++
	}
	lines := make([]int, 0, len(rows)-start)
	for i := start; i < len(rows); i++ {
		lines = append(lines, i+1)
	}
	return rows[start:], lines, nil
}
