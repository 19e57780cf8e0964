package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type saleRecordJSON struct {
	InvoiceNumber string      `json:"invoice_number"`
	ProductName   string      `json:"product_name"`
	Quantity      int         `json:"quantity"`
	UnitPrice     json.Number `json:"unit_price"`
	Total         json.Number `json:"total"`
	PaymentMethod string      `json:"payment_method"`
	Date          string      `json:"date"`
}

// MarshalJSON writes prices as plain JSON numbers and the date in
// SaleDateLayout, matching ledgers produced by earlier versions of the tool.
func (r SaleRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(saleRecordJSON{
		InvoiceNumber: r.InvoiceNumber,
		ProductName:   r.ProductName,
		Quantity:      r.Quantity,
		UnitPrice:     json.Number(r.UnitPrice.String()),
		Total:         json.Number(r.Total.String()),
		PaymentMethod: r.PaymentMethod,
		Date:          r.Date.Format(SaleDateLayout),
	})
}

// UnmarshalJSON is lenient: ledgers may contain entries written by hand or
// by other tools, and a bad field must not make the whole history unreadable.
func (r *SaleRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var out SaleRecord
	decodeString(raw["invoice_number"], &out.InvoiceNumber)
	decodeString(raw["product_name"], &out.ProductName)
	decodeString(raw["payment_method"], &out.PaymentMethod)
	if qty, ok := raw["quantity"]; ok {
		_ = json.Unmarshal(qty, &out.Quantity)
	}
	out.UnitPrice = decodeDecimal(raw["unit_price"])
	out.Total = decodeDecimal(raw["total"])

	var date string
	decodeString(raw["date"], &date)
	out.Date = parseSaleDate(date)

	*r = out
	return nil
}

func decodeString(raw json.RawMessage, dst *string) {
	if len(raw) == 0 {
		return
	}
	_ = json.Unmarshal(raw, dst)
}

func decodeDecimal(raw json.RawMessage) decimal.Decimal {
	if len(raw) == 0 {
		return decimal.Zero
	}
	text := strings.Trim(string(raw), `"`)
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseSaleDate(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if t, err := time.ParseInLocation(SaleDateLayout, value, time.Local); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return time.Time{}
}
