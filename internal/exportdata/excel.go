package exportdata

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const sheetName = "gemsieve export"

// WriteExcel writes rows to a single-sheet workbook, header row bold, via
// excelize — the pack's Excel library, named for this exact purpose in
// the export surface.
func WriteExcel(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetName)

	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("exportdata: build header style: %w", err)
	}

	for col, name := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, boldStyle); err != nil {
			return err
		}
	}

	for i, r := range rows {
		rowNum := i + 2
		values := r.values()
		for col, val := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, val); err != nil {
				return err
			}
		}
	}

	return f.Write(w)
}
