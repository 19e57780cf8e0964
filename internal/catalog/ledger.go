package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"

	"kasirinaja/shopbot/internal/domain"
)

// DefaultLedger is written when no ledger record exists yet.
func DefaultLedger() json.RawMessage {
	return json.RawMessage(`[]`)
}

// LedgerEntries splits a ledger document into its raw entries. A lone
// object counts as one entry; absent or null means no entries.
func LedgerEntries(raw json.RawMessage) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	switch trimmed[0] {
	case '{':
		return []json.RawMessage{trimmed}, nil
	case '[':
		var entries []json.RawMessage
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("%w: ledger: %v", ErrMalformed, err)
		}
		return entries, nil
	default:
		return nil, fmt.Errorf("%w: ledger must be a list of sales", ErrMalformed)
	}
}

// DecodeLedger returns the sales in insertion order.
func DecodeLedger(raw json.RawMessage) ([]domain.SaleRecord, error) {
	entries, err := LedgerEntries(raw)
	if err != nil {
		return nil, err
	}

	sales := make([]domain.SaleRecord, 0, len(entries))
	for i, entry := range entries {
		var rec domain.SaleRecord
		if err := json.Unmarshal(entry, &rec); err != nil {
			return nil, fmt.Errorf("%w: sale %d: %v", ErrMalformed, i, err)
		}
		sales = append(sales, rec)
	}
	return sales, nil
}

// AppendSale adds rec to the end of the ledger document. Existing entries
// are carried over as they are, including fields this tool does not know.
func AppendSale(raw json.RawMessage, rec domain.SaleRecord) (json.RawMessage, error) {
	entries, err := LedgerEntries(raw)
	if err != nil {
		return nil, err
	}

	next, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode sale %s: %w", rec.InvoiceNumber, err)
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	for _, entry := range entries {
		buf.Write(entry)
		buf.WriteByte(',')
	}
	buf.Write(next)
	buf.WriteByte(']')
	return buf.Bytes(), nil
}
