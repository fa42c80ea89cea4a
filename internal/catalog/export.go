package catalog

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const examSheet = "Exams"

var examColumns = []any{
	"Exam", "Type", "Exam Date", "Registration Deadline", "Eligibility", "Urgency", "Description", "Website",
}

// WriteExamWorkbook writes the calendar as an .xlsx workbook with one row
// per exam.
func WriteExamWorkbook(w io.Writer, calendar []ExamStatus) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", examSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	if err := f.SetSheetRow(examSheet, "A1", &examColumns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(examColumns))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(examSheet, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}
	if err := f.SetColWidth(examSheet, "A", lastCol, 24); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}

	for i, e := range calendar {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			e.Name, e.Type, e.Date, e.RegistrationDeadline, e.Eligibility, string(e.Tier), e.Description, e.Website,
		}
		if err := f.SetSheetRow(examSheet, cell, &row); err != nil {
			return fmt.Errorf("writing exam %s: %w", e.Name, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
