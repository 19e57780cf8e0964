package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"kasirinaja/shopbot/internal/domain"
)

const DefaultCurrency = "₹"

var helpLines = []string{
	"Things you can type:",
	"  show products | list products | products   list the catalog",
	"  <product>                                  show a product and select it",
	"  show <product> | price of <product>        show a product and select it",
	"  how many <product> [in stock]              show stock for a product",
	"  what is the price of <product>             show price for a product",
	"  sell <qty> <product> | sell <product> <qty>",
	"                                             record a sale",
	"  <qty> <product>                            record a sale",
	"  <qty>                                      sell the selected product",
	"  show sales | sales [for <product>]         list sales, newest first",
	"  show last sale | last sale                 show the newest sale",
	"  help | ?                                   show this help",
	"  exit | quit                                leave",
}

// Renderer writes operator-facing output.
type Renderer struct {
	w        io.Writer
	theme    Theme
	currency string
}

func NewRenderer(w io.Writer, plain bool, currency string) *Renderer {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Renderer{w: w, theme: NewTheme(w, plain), currency: currency}
}

func (r *Renderer) Welcome() {
	r.line(r.theme.paint(r.theme.Title, "Shop assistant ready.") + " Type 'help' to see what I understand.")
}

func (r *Renderer) Help() {
	r.line(r.theme.paint(r.theme.Title, helpLines[0]))
	for _, l := range helpLines[1:] {
		r.line(l)
	}
}

func (r *Renderer) Products(products []*domain.Product) {
	if len(products) == 0 {
		r.line(r.theme.paint(r.theme.Muted, "No products in the catalog."))
		return
	}
	r.line(r.theme.paint(r.theme.Title, "Products:"))
	for _, p := range products {
		r.line(" - " + r.productLine(p))
	}
}

func (r *Renderer) Product(p *domain.Product) {
	r.line(r.productLine(p))
}

func (r *Renderer) productLine(p *domain.Product) string {
	return fmt.Sprintf("%s  |  Price: %s  |  Stock: %d",
		r.theme.paint(r.theme.Name, p.Name), r.money(p.Price), p.Stock)
}

func (r *Renderer) Sales(sales []domain.SaleRecord) {
	for _, s := range sales {
		date := "-"
		if !s.Date.IsZero() {
			date = s.Date.Format(domain.SaleDateLayout)
		}
		r.line(fmt.Sprintf("%s | %s x%d @%s = %s | %s | %s",
			r.theme.paint(r.theme.Muted, s.InvoiceNumber),
			s.ProductName,
			s.Quantity,
			r.money(s.UnitPrice),
			r.money(s.Total),
			s.PaymentMethod,
			date,
		))
	}
}

func (r *Renderer) SaleRecorded(rec domain.SaleRecord) {
	r.line(r.theme.paint(r.theme.Success, "Sale recorded: "+rec.InvoiceNumber))
	r.line(fmt.Sprintf("%s x%d | Total %s", rec.ProductName, rec.Quantity, r.money(rec.Total)))
}

func (r *Renderer) Info(msg string) {
	r.line(msg)
}

func (r *Renderer) Problem(msg string) {
	r.line(r.theme.paint(r.theme.Warning, msg))
}

func (r *Renderer) money(d decimal.Decimal) string {
	return r.currency + d.String()
}

func (r *Renderer) line(s string) {
	fmt.Fprintln(r.w, strings.TrimRight(s, " "))
}
