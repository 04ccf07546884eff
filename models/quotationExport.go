package models

import (
	"context"
	"fmt"
	"io"
	"time"

	"bitbucket.org/mmdatafocus/quotes_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Quotations"

var quotationExportHeadings = []string{
	"Code", "EmissionDate", "DueDate", "Estado", "ClientDocument", "ClientName",
	"Subtotal", "Tax", "Discount", "Total", "LineCount",
}

type quotationExportRow struct {
	Code                 string
	EmissionDate         time.Time
	DueDate              *time.Time
	Estado               DocumentStatus
	Subtotal             decimal.Decimal
	Tax                  decimal.Decimal
	Discount             decimal.Decimal
	Total                decimal.Decimal
	ClientDocumentType   string
	ClientDocumentNumber string
	ClientName           string
	LineCount            int
}

func (s *GormStore) quotationExportRows(ctx context.Context, from *time.Time, to *time.Time) ([]quotationExportRow, error) {
	dbCtx := s.db.WithContext(ctx).Table("quotations").
		Select(`quotations.code, quotations.emission_date, quotations.due_date, quotations.estado,
	quotations.subtotal, quotations.tax, quotations.discount, quotations.total,
	clients.document_type AS client_document_type,
	clients.document_number AS client_document_number,
	clients.name AS client_name,
	(SELECT COUNT(*) FROM quotation_details WHERE quotation_details.quotation_id = quotations.id) AS line_count`).
		Joins("LEFT JOIN clients ON clients.id = quotations.client_id")
	if from != nil {
		dbCtx = dbCtx.Where("quotations.emission_date >= ?", *from)
	}
	if to != nil {
		dbCtx = dbCtx.Where("quotations.emission_date < ?", *to)
	}
	var rows []quotationExportRow
	if err := dbCtx.Order("quotations.emission_date, quotations.id").Scan(&rows).Error; err != nil {
		return nil, utils.StoreError("export quotations", err)
	}
	return rows, nil
}

// ExportQuotations writes an xlsx workbook of quotations emitted in [from, to).
// Nil bounds are open.
func (s *GormStore) ExportQuotations(ctx context.Context, w io.Writer, from *time.Time, to *time.Time) (int, error) {
	rows, err := s.quotationExportRows(ctx, from, to)
	if err != nil {
		return 0, err
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return 0, err
	}

	// Add headers
	for i, h := range quotationExportHeadings {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return 0, err
		}
		f.SetCellValue(exportSheet, cell, h)
	}

	// Add data
	for i, r := range rows {
		rowNo := fmt.Sprint(i + 2)
		dueDate := ""
		if r.DueDate != nil {
			dueDate = r.DueDate.Format(utils.DateLayout)
		}
		f.SetCellValue(exportSheet, "A"+rowNo, r.Code)
		f.SetCellValue(exportSheet, "B"+rowNo, r.EmissionDate.Format(utils.DateLayout))
		f.SetCellValue(exportSheet, "C"+rowNo, dueDate)
		f.SetCellValue(exportSheet, "D"+rowNo, string(r.Estado))
		f.SetCellValue(exportSheet, "E"+rowNo, r.ClientDocumentType+" "+r.ClientDocumentNumber)
		f.SetCellValue(exportSheet, "F"+rowNo, r.ClientName)
		f.SetCellValue(exportSheet, "G"+rowNo, r.Subtotal.InexactFloat64())
		f.SetCellValue(exportSheet, "H"+rowNo, r.Tax.InexactFloat64())
		f.SetCellValue(exportSheet, "I"+rowNo, r.Discount.InexactFloat64())
		f.SetCellValue(exportSheet, "J"+rowNo, r.Total.InexactFloat64())
		f.SetCellValue(exportSheet, "K"+rowNo, r.LineCount)
	}

	if err := f.Write(w); err != nil {
		return 0, err
	}
	return len(rows), nil
}
