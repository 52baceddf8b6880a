package history

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/evaluation-console/internal/models"
	"github.com/SAP-F-2025/evaluation-console/internal/report"
)

const exportSheet = "Evaluations"

var exportHeaders = []string{
	"Date", "Student", "Roll No", "Teacher", "Question",
	"Marks Awarded", "Max Marks", "Percentage", "Grade", "Feedback",
	"Model Answer", "Student Answer",
}

// WriteXLSX writes records as one worksheet, one row per evaluation, in the
// order given. Missing numbers are left blank rather than written as zero.
func WriteXLSX(w io.Writer, records []models.EvaluationRecord, loc *time.Location) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"6366F1"}},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for col, header := range exportHeaders {
		if err := setCell(f, col+1, 1, header); err != nil {
			return err
		}
	}
	if err := f.SetRowStyle(exportSheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, rec := range records {
		row := i + 2
		values := []interface{}{
			report.FormatDate(rec.CreatedAt, loc),
			rec.StudentName,
			rec.StudentRollNo,
			rec.TeacherName,
			rec.Question,
			floatOrBlank(rec.MarksAwarded),
			intOrBlank(rec.MaxMarks),
			floatOrBlank(rec.Percentage),
			rec.Grade,
			rec.Feedback,
			report.DisplayFileRef(rec.ModelAnswer),
			report.DisplayFileRef(rec.StudentAnswer),
		}
		for col, v := range values {
			if err := setCell(f, col+1, row, v); err != nil {
				return err
			}
		}
	}

	if err := f.SetColWidth(exportSheet, "A", "L", 18); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetPanes(exportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, v interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetCellValue(exportSheet, cell, v); err != nil {
		return fmt.Errorf("set %s: %w", cell, err)
	}
	return nil
}

func floatOrBlank(f *float64) interface{} {
	if f == nil {
		return ""
	}
	return *f
}

func intOrBlank(i *int) interface{} {
	if i == nil {
		return ""
	}
	return *i
}
