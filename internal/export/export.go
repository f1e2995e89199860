// Package export renders defect rows into downloadable report files. Both
// formats share one column layout so a CSV and an XLSX of the same filter are
// cell-for-cell identical.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/buildops/defect-tracker/internal/core/domain"
)

const sheetName = "Defects"

// Header returns the column titles in output order.
func Header() []string {
	return []string{"ID", "Title", "Project", "Stage", "Status", "Priority", "Assignee", "Due date", "Created"}
}

// Row renders one defect into the shared column layout. Empty optional
// fields render as empty cells, not "nil" or zero values.
func Row(d *domain.Defect) []string {
	due := ""
	if d.DueDate != nil {
		due = d.DueDate.Format("2006-01-02")
	}
	return []string{
		fmt.Sprintf("%d", d.ID),
		d.Title,
		d.ProjectName,
		d.StageName,
		d.Status.Label(),
		d.Priority.Label(),
		d.AssigneeUsername,
		due,
		d.CreatedAt.UTC().Format("2006-01-02 15:04"),
	}
}

// Filename builds the download name, e.g. defects_20260115_093000.csv.
func Filename(format string, now time.Time) string {
	return fmt.Sprintf("defects_%s.%s", now.UTC().Format("20060102_150405"), format)
}

// WriteCSV streams the rows as CSV with a header line.
func WriteCSV(w io.Writer, defects []*domain.Defect) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return err
	}
	for _, d := range defects {
		if err := cw.Write(Row(d)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX renders the rows into a single-sheet workbook.
func WriteXLSX(w io.Writer, defects []*domain.Defect) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	header := Header()
	for col, title := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, title); err != nil {
			return err
		}
	}

	for i, d := range defects {
		for col, value := range Row(d) {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return err
			}
		}
	}

	return f.Write(w)
}
