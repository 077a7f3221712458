package services

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/navia-app/navia/models"
)

const xlsxTimeLayout = "2006-01-02 15:04"

// WriteApplicationsXLSX renders the applications as a single-sheet workbook.
func WriteApplicationsXLSX(w io.Writer, apps []models.JobApplication) error {
	headers := []string{"Company", "Job Title", "Status", "Applied", "Updated", "Location", "Salary Range", "URL", "Notes"}
	rows := make([][]interface{}, 0, len(apps))
	for _, a := range apps {
		rows = append(rows, []interface{}{
			a.CompanyName,
			a.JobTitle,
			string(a.Status),
			a.AppliedDate.Format(xlsxTimeLayout),
			a.UpdatedDate.Format(xlsxTimeLayout),
			a.Location,
			a.SalaryRange,
			a.ApplicationURL,
			a.Notes,
		})
	}
	return writeSheet(w, "Applications", headers, rows)
}

// WritePracticeXLSX renders daily stats, newest first, as a workbook.
func WritePracticeXLSX(w io.Writer, stats []models.DailyStat) error {
	headers := []string{"Date", "Goal", "Answered", "Score", "Streak", "Goal Met"}
	rows := make([][]interface{}, 0, len(stats))
	for _, s := range stats {
		met := "no"
		if s.GoalMet() {
			met = "yes"
		}
		rows = append(rows, []interface{}{s.Date, s.Goal, s.Answered, s.Score, s.Streak, met})
	}
	return writeSheet(w, "Practice", headers, rows)
}

func writeSheet(w io.Writer, sheet string, headers []string, rows [][]interface{}) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("write header %s: %w", cell, err)
		}
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
