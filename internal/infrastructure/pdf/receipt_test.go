package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "$0.00", FormatCents(0))
	assert.Equal(t, "$123.45", FormatCents(12345))
	assert.Equal(t, "$0.05", FormatCents(5))
	assert.Equal(t, "-$10.50", FormatCents(-1050))
}

func TestRenderReceipt(t *testing.T) {
	data, err := RenderReceipt(Receipt{
		AssociationName: "Oak Hills HOA",
		ReceiptNumber:   "RCPT-123",
		PaidAt:          time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		OwnerName:       "Jane Doe",
		PropertyAddress: "12 Oak St",
		AccountID:       7,
		CardLastFour:    "4242",
		AmountCents:     15000,
		BalanceCents:    0,
	})
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}
