// Package export writes leads out as an Excel workbook for the admin download.
package export

import (
	"fmt"
	"io"

	"github.com/osr-alliance/backend-lead-capture/store"
	"github.com/xuri/excelize/v2"
)

const (
	SheetName   = "Leads"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Header is the first row of the sheet, one column per lead field
var Header = []string{
	"id",
	"created_at",
	"category",
	"status",
	"company_name",
	"owner_name",
	"business_type",
	"start_year",
	"sales_range",
	"employee_count",
	"urgent_issue",
	"loan_status",
	"contact_method",
	"phone",
	"contact_time",
	"memo",
}

// Workbook builds the workbook; leads are written in the order given. The caller closes the file.
func Workbook(leads []store.Lead) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	lastCol, err := excelize.ColumnNumberToName(len(Header))
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", headerStyle); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	for i, l := range leads {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		row := leadRow(l)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write lead %d: %w", l.ID, err)
		}
	}

	return f, nil
}

// Write writes the workbook of leads to w
func Write(w io.Writer, leads []store.Lead) error {
	f, err := Workbook(leads)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func leadRow(l store.Lead) []interface{} {
	return []interface{}{
		l.ID,
		l.CreatedAt,
		l.Category,
		l.Status,
		str(l.CompanyName),
		str(l.OwnerName),
		str(l.BusinessType),
		str(l.StartYear),
		str(l.SalesRange),
		str(l.EmployeeCount),
		str(l.UrgentIssue),
		str(l.LoanStatus),
		str(l.ContactMethod),
		str(l.Phone),
		str(l.ContactTime),
		l.Memo,
	}
}

// null fields become empty cells
func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
