package reports

import (
	"fmt"
	"io"
	"time"

	"github.com/mroshb/engage_app/internal/models"
	"github.com/xuri/excelize/v2"
)

// ReceiptsSheet is the name of the single worksheet in a receipt export.
const ReceiptsSheet = "Receipts"

var receiptHeader = []interface{}{
	"Transaction ID", "Session ID", "Buyer ID", "Item", "Cost", "Confirmed By", "Confirmed At (UTC)",
}

// WriteReceipts renders receipts as an .xlsx workbook into w.
func WriteReceipts(w io.Writer, receipts []models.Receipt) error {
	f, err := buildWorkbook(receipts)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// SaveReceipts writes the workbook to path.
func SaveReceipts(path string, receipts []models.Receipt) error {
	f, err := buildWorkbook(receipts)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func buildWorkbook(receipts []models.Receipt) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", ReceiptsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	if err := f.SetSheetRow(ReceiptsSheet, "A1", &receiptHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		f.SetCellStyle(ReceiptsSheet, "A1", "G1", bold)
	}

	var total int64
	for i, r := range receipts {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		row := []interface{}{
			r.TransactionID,
			r.SessionID,
			r.BuyerID,
			r.Item,
			r.Cost,
			r.AdminID,
			r.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := f.SetSheetRow(ReceiptsSheet, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
		total += r.Cost
	}

	totalRow := len(receipts) + 2
	f.SetCellValue(ReceiptsSheet, fmt.Sprintf("D%d", totalRow), "Total")
	f.SetCellValue(ReceiptsSheet, fmt.Sprintf("E%d", totalRow), total)

	f.SetColWidth(ReceiptsSheet, "A", "C", 38)
	f.SetColWidth(ReceiptsSheet, "D", "D", 28)
	f.SetColWidth(ReceiptsSheet, "F", "F", 38)
	f.SetColWidth(ReceiptsSheet, "G", "G", 22)

	return f, nil
}
