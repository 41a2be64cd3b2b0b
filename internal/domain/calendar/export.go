package calendar

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/wardroster/wardroster/internal/platform/dates"
)

var weekdayHeaders = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Export writes the month as an .xlsx workbook: a grid sheet laid out like
// the screen and a flat sheet with one row per assignment.
func (s *Service) Export(ctx context.Context, w io.Writer, year int, month time.Month, periodID *uuid.UUID) error {
	m, err := s.Month(ctx, year, month, periodID)
	if err != nil {
		return err
	}
	f, err := WriteWorkbook(m)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SheetName is the name of the grid sheet, e.g. "2024-02".
func (m Month) SheetName() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// WriteWorkbook renders m. The caller closes the returned file.
func WriteWorkbook(m Month) (*excelize.File, error) {
	f := excelize.NewFile()
	grid := m.SheetName()
	index, err := f.NewSheet(grid)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	if err := writeGrid(f, grid, m); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeList(f, "Assignments", m); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
}

func writeGrid(f *excelize.File, sheet string, m Month) error {
	hs, err := headerStyle(f)
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	cellStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
	})
	if err != nil {
		return fmt.Errorf("create cell style: %w", err)
	}

	for col, h := range weekdayHeaders {
		if err := setCell(f, sheet, col+1, 1, h, hs); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheet, "A", "G", 28); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	for w, week := range m.Weeks() {
		row := w + 2
		for col, c := range week {
			if c.Empty() {
				continue
			}
			if err := setCell(f, sheet, col+1, row, cellText(c), cellStyle); err != nil {
				return err
			}
		}
	}
	return nil
}

func cellText(c Cell) string {
	lines := []string{strconv.Itoa(c.Day)}
	for _, a := range c.Assignments {
		lines = append(lines, fmt.Sprintf("%s · %s · %s", a.ShiftName, a.NurseName, a.AreaName))
	}
	return strings.Join(lines, "\n")
}

func writeList(f *excelize.File, sheet string, m Month) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	hs, err := headerStyle(f)
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	headers := []string{"Date", "Shift", "Category", "Nurse", "Area"}
	for col, h := range headers {
		if err := setCell(f, sheet, col+1, 1, h, hs); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheet, "A", "E", 20); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	row := 2
	for _, c := range m.Cells {
		for _, a := range c.Assignments {
			values := []interface{}{dates.Format(a.Date), a.ShiftName, string(a.ShiftCategory), a.NurseName, a.AreaName}
			for col, v := range values {
				if err := setCell(f, sheet, col+1, row, v, 0); err != nil {
					return err
				}
			}
			row++
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze panes: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, value interface{}, style int) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		return fmt.Errorf("set cell %s: %w", cell, err)
	}
	if style != 0 {
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return fmt.Errorf("set style %s: %w", cell, err)
		}
	}
	return nil
}
