package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"kasirinaja/shopbot/internal/catalog"
	"kasirinaja/shopbot/internal/domain"
	"kasirinaja/shopbot/internal/store"
	"kasirinaja/shopbot/internal/xid"
)

var (
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNoProductSelected = errors.New("no product selected")
)

// InsufficientStockError reports how much of the product is left.
type InsufficientStockError struct {
	Product   string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("%s: requested %d, available %d: %s", e.Product, e.Requested, e.Available, ErrInsufficientStock)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// Keys names the two records the service reads and writes.
type Keys struct {
	Catalog string
	Ledger  string
}

func DefaultKeys() Keys {
	return Keys{Catalog: "product", Ledger: "sale"}
}

type Service struct {
	store  store.Store
	keys   Keys
	logger *slog.Logger
	now    func() time.Time
}

func New(st store.Store, keys Keys, logger *slog.Logger) *Service {
	defaults := DefaultKeys()
	if keys.Catalog == "" {
		keys.Catalog = defaults.Catalog
	}
	if keys.Ledger == "" {
		keys.Ledger = defaults.Ledger
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		store:  st,
		keys:   keys,
		logger: logger.With("component", "service"),
		now:    time.Now,
	}
}

// Bootstrap loads the catalog and ledger, writing the defaults for any
// record that does not exist yet.
func (s *Service) Bootstrap(ctx context.Context) (*Session, error) {
	shape, err := s.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	ledgerRaw, err := s.store.Load(ctx, s.keys.Ledger)
	if errors.Is(err, store.ErrNotFound) {
		ledgerRaw = catalog.DefaultLedger()
		if err := s.store.Save(ctx, s.keys.Ledger, ledgerRaw); err != nil {
			return nil, fmt.Errorf("write default ledger: %w", err)
		}
		s.logger.Info("created empty ledger", "key", s.keys.Ledger)
	} else if errors.Is(err, store.ErrInvalidRecord) {
		return nil, fmt.Errorf("ledger %q: %w: %w", s.keys.Ledger, catalog.ErrMalformed, err)
	} else if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	sales, err := catalog.DecodeLedger(ledgerRaw)
	if err != nil {
		return nil, fmt.Errorf("ledger %q: %w", s.keys.Ledger, err)
	}

	sess := &Session{Catalog: shape, Ledger: sales}
	if len(shape.Products) == 1 {
		sess.Selected = shape.Products[0]
	}

	s.logger.Debug("session ready", "products", len(shape.Products), "shape", shape.Kind, "sales", len(sales))
	return sess, nil
}

func (s *Service) loadCatalog(ctx context.Context) (domain.CatalogShape, error) {
	raw, err := s.store.Load(ctx, s.keys.Catalog)
	if errors.Is(err, store.ErrNotFound) {
		shape := catalog.Default()
		encoded, err := catalog.EncodeCatalog(shape)
		if err != nil {
			return domain.CatalogShape{}, err
		}
		if err := s.store.Save(ctx, s.keys.Catalog, encoded); err != nil {
			return domain.CatalogShape{}, fmt.Errorf("write default catalog: %w", err)
		}
		s.logger.Info("created default catalog", "key", s.keys.Catalog, "product", shape.Products[0].Name)
		return shape, nil
	}
	if errors.Is(err, store.ErrInvalidRecord) {
		return domain.CatalogShape{}, fmt.Errorf("catalog %q: %w: %w", s.keys.Catalog, catalog.ErrMalformed, err)
	}
	if err != nil {
		return domain.CatalogShape{}, fmt.Errorf("load catalog: %w", err)
	}

	shape, err := catalog.DecodeCatalog(raw)
	if err != nil {
		return domain.CatalogShape{}, fmt.Errorf("catalog %q: %w", s.keys.Catalog, err)
	}
	return shape, nil
}

// Sell records a sale of qty units of product, which must belong to
// sess.Catalog. The stock change and the new ledger are written in one
// batch; if that write fails the session is left as it was.
func (s *Service) Sell(ctx context.Context, sess *Session, product *domain.Product, qty int, payment string) (domain.SaleRecord, error) {
	if product == nil {
		return domain.SaleRecord{}, ErrNoProductSelected
	}
	if qty <= 0 {
		return domain.SaleRecord{}, ErrInvalidQuantity
	}
	if qty > product.Stock {
		return domain.SaleRecord{}, &InsufficientStockError{
			Product:   product.Name,
			Requested: qty,
			Available: product.Stock,
		}
	}

	now := s.now().Truncate(time.Second)
	rec := domain.SaleRecord{
		InvoiceNumber: xid.NewInvoiceNumber(now),
		ProductName:   product.Name,
		Quantity:      qty,
		UnitPrice:     product.Price,
		Total:         product.Price.Mul(decimal.NewFromInt(int64(qty))),
		PaymentMethod: domain.NormalizePaymentMethod(payment),
		Date:          now,
	}

	if !domain.IsKnownPaymentMethod(rec.PaymentMethod) {
		s.logger.Debug("accepting unlisted payment method", "payment", rec.PaymentMethod)
	}

	product.Stock -= qty
	ledgerRaw, err := s.persistSale(ctx, sess, rec)
	if err != nil {
		product.Stock += qty
		s.logger.Warn("sale not recorded", "product", product.Name, "qty", qty, "err", err)
		return domain.SaleRecord{}, err
	}

	sales, err := catalog.DecodeLedger(ledgerRaw)
	if err != nil {
		s.logger.Warn("could not re-read ledger after sale", "err", err)
		sales = append(sess.Ledger, rec)
	}
	sess.Ledger = sales
	sess.Selected = product

	s.logAudit(ctx, "sale", rec.InvoiceNumber, fmt.Sprintf(
		"product=%s,qty=%d,total=%s,payment=%s",
		rec.ProductName,
		rec.Quantity,
		rec.Total.String(),
		rec.PaymentMethod,
	))

	return rec, nil
}

// persistSale writes the catalog as it is in sess together with the stored
// ledger plus rec. The ledger is re-read first so entries added by another
// writer since startup are kept.
func (s *Service) persistSale(ctx context.Context, sess *Session, rec domain.SaleRecord) (json.RawMessage, error) {
	catalogRaw, err := catalog.EncodeCatalog(sess.Catalog)
	if err != nil {
		return nil, fmt.Errorf("encode catalog: %w", err)
	}

	current, _, err := store.LoadOr(ctx, s.store, s.keys.Ledger, catalog.DefaultLedger())
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	ledgerRaw, err := catalog.AppendSale(current, rec)
	if err != nil {
		return nil, fmt.Errorf("append sale: %w", err)
	}

	if err := s.store.SaveBatch(ctx, []store.Record{
		{Key: s.keys.Catalog, Value: catalogRaw},
		{Key: s.keys.Ledger, Value: ledgerRaw},
	}); err != nil {
		return nil, fmt.Errorf("save sale: %w", err)
	}
	return ledgerRaw, nil
}

func (s *Service) logAudit(_ context.Context, action string, entityID string, detail string) {
	s.logger.Info("audit",
		"id", xid.New("audit"),
		"action", action,
		"entity", entityID,
		"detail", detail,
		"at", s.now().UTC(),
	)
}
