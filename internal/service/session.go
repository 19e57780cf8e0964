package service

import (
	"kasirinaja/shopbot/internal/domain"
	"kasirinaja/shopbot/internal/matcher"
)

// Session is the state of one operator run: the catalog snapshot, the
// ledger as last read and the product follow-up input refers to.
type Session struct {
	Catalog  domain.CatalogShape
	Ledger   []domain.SaleRecord
	Selected *domain.Product
}

func (s *Session) Products() []*domain.Product {
	return s.Catalog.Products
}

// RecentSales returns the ledger newest first. A non-empty filter keeps
// only sales whose product name contains it, ignoring case.
func (s *Session) RecentSales(filter string) []domain.SaleRecord {
	out := make([]domain.SaleRecord, 0, len(s.Ledger))
	for i := len(s.Ledger) - 1; i >= 0; i-- {
		rec := s.Ledger[i]
		if filter != "" && !matcher.Contains(rec.ProductName, filter) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func (s *Session) LastSale() (domain.SaleRecord, bool) {
	if len(s.Ledger) == 0 {
		return domain.SaleRecord{}, false
	}
	return s.Ledger[len(s.Ledger)-1], true
}
