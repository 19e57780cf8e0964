package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SaleDateLayout is the second-precision timestamp format written to the ledger.
const SaleDateLayout = "2006-01-02 15:04:05"

type Product struct {
	Name  string
	Price decimal.Decimal
	Stock int

	// Extra keeps fields of the stored object this tool does not manage so
	// that rewriting the catalog never drops them.
	Extra map[string]json.RawMessage
}

// SaleRecord is one invoice in the ledger. It is never modified once written.
type SaleRecord struct {
	InvoiceNumber string
	ProductName   string
	Quantity      int
	UnitPrice     decimal.Decimal
	Total         decimal.Decimal
	PaymentMethod string
	Date          time.Time
}

type ShapeKind int

const (
	ShapeMultiple ShapeKind = iota
	ShapeSingle
)

func (k ShapeKind) String() string {
	if k == ShapeSingle {
		return "single"
	}
	return "multiple"
}

// CatalogShape remembers whether the catalog record was a lone object or a
// list so it can be written back in the same form.
type CatalogShape struct {
	Kind     ShapeKind
	Products []*Product
}

func SingleCatalog(p *Product) CatalogShape {
	return CatalogShape{Kind: ShapeSingle, Products: []*Product{p}}
}

func MultipleCatalog(products []*Product) CatalogShape {
	if products == nil {
		products = []*Product{}
	}
	return CatalogShape{Kind: ShapeMultiple, Products: products}
}

const (
	PaymentCash = "CASH"
	PaymentCard = "CARD"
	PaymentUPI  = "UPI"
)

// NormalizePaymentMethod upper-cases free text and defaults blank input to cash.
func NormalizePaymentMethod(raw string) string {
	method := strings.ToUpper(strings.TrimSpace(raw))
	if method == "" {
		return PaymentCash
	}
	return method
}

// IsKnownPaymentMethod reports whether method is one of the listed methods.
func IsKnownPaymentMethod(method string) bool {
	switch method {
	case PaymentCash, PaymentCard, PaymentUPI:
		return true
	default:
		return false
	}
}

// DefaultProduct is written when no catalog record exists yet.
func DefaultProduct() *Product {
	return &Product{
		Name:  "Galaxy A-17",
		Price: decimal.NewFromInt(20000),
		Stock: 20,
	}
}
