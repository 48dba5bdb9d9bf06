package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// Receipt is the content of a payment receipt
type Receipt struct {
	AssociationName string
	ReceiptNumber   string
	PaidAt          time.Time
	OwnerName       string
	PropertyAddress string
	AccountID       uint
	CardLastFour    string
	AmountCents     int64
	BalanceCents    int64
}

// FormatCents renders cents as dollars, e.g. 12345 -> "$123.45"
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

// RenderReceipt writes the receipt as a single page A4 PDF
func RenderReceipt(r Receipt) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle("Payment receipt "+r.ReceiptNumber, true)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 18)
	doc.CellFormat(0, 12, r.AssociationName, "", 1, "C", false, 0, "")
	doc.SetFont("Helvetica", "", 13)
	doc.CellFormat(0, 8, "Payment receipt", "", 1, "C", false, 0, "")
	doc.Ln(8)

	rows := [][2]string{
		{"Receipt number", r.ReceiptNumber},
		{"Date", r.PaidAt.Format("January 2, 2006 15:04")},
		{"Owner", r.OwnerName},
		{"Property", r.PropertyAddress},
		{"Account", fmt.Sprintf("#%d", r.AccountID)},
		{"Card", "**** **** **** " + r.CardLastFour},
		{"Amount paid", FormatCents(r.AmountCents)},
		{"Remaining balance", FormatCents(r.BalanceCents)},
	}

	for _, row := range rows {
		doc.SetFont("Helvetica", "B", 11)
		doc.CellFormat(55, 9, row[0], "1", 0, "L", false, 0, "")
		doc.SetFont("Helvetica", "", 11)
		doc.CellFormat(0, 9, row[1], "1", 1, "L", false, 0, "")
	}

	doc.Ln(10)
	doc.SetFont("Helvetica", "I", 9)
	doc.MultiCell(0, 5, "Only the last four digits of the card are retained. Keep this receipt for your records.", "", "L", false)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}
