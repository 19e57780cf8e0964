package service

import (
	"context"
	"encoding/json"
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kasirinaja/shopbot/internal/catalog"
	"kasirinaja/shopbot/internal/store"
	"kasirinaja/shopbot/internal/store/file"
	"kasirinaja/shopbot/internal/store/memory"
)

const widgetCatalog = `[{"name":"Widget","price":10,"stock":5},{"name":"Gadget","price":7.5,"stock":2}]`

func newTestService(t *testing.T, st store.Store) *Service {
	t.Helper()
	svc := New(st, DefaultKeys(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 14, 30, 15, 500, time.Local) }
	return svc
}

func bootstrap(t *testing.T, svc *Service) *Session {
	t.Helper()
	sess, err := svc.Bootstrap(context.Background())
	if err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	return sess
}

type failingStore struct {
	*memory.Store
}

func (f failingStore) SaveBatch(context.Context, []store.Record) error {
	return errors.New("disk full")
}

func TestBootstrapWritesDefaults(t *testing.T) {
	st := memory.New()
	sess := bootstrap(t, newTestService(t, st))

	if len(sess.Products()) != 1 || sess.Products()[0].Name != "Galaxy A-17" {
		t.Fatalf("expected default product, got %+v", sess.Products())
	}
	if sess.Selected == nil || sess.Selected.Name != "Galaxy A-17" {
		t.Fatalf("expected the only product to be selected")
	}

	raw, err := st.Load(context.Background(), "product")
	if err != nil {
		t.Fatalf("catalog not written: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("default catalog is not an object: %v", err)
	}
	if doc["price"] != float64(20000) || doc["stock"] != float64(20) {
		t.Fatalf("unexpected default catalog %s", raw)
	}

	raw, err = st.Load(context.Background(), "sale")
	if err != nil || string(raw) != "[]" {
		t.Fatalf("expected empty ledger, got %s (%v)", raw, err)
	}
}

func TestBootstrapMultipleCatalogHasNoSelection(t *testing.T) {
	st := memory.NewSeeded(map[string]string{"product": widgetCatalog})
	sess := bootstrap(t, newTestService(t, st))

	if sess.Selected != nil {
		t.Fatalf("expected no selection, got %s", sess.Selected.Name)
	}
	if len(sess.Ledger) != 0 {
		t.Fatalf("expected empty ledger")
	}
}

func TestBootstrapRejectsMalformedCatalog(t *testing.T) {
	for _, doc := range []string{`"Widget"`, `42`, `[{"name":"Widget","price":1,"stock":-1}]`} {
		st := memory.NewSeeded(map[string]string{"product": doc})
		_, err := newTestService(t, st).Bootstrap(context.Background())
		if !errors.Is(err, catalog.ErrMalformed) {
			t.Fatalf("expected ErrMalformed for %s, got %v", doc, err)
		}
	}
}

func TestBootstrapRejectsBlankCatalogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "product.json")
	if err := os.WriteFile(path, []byte(" \n"), 0o644); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	st, err := file.New(dir, file.FormatJSON)
	if err != nil {
		t.Fatalf("open file store: %v", err)
	}

	_, err = newTestService(t, st).Bootstrap(context.Background())
	if !errors.Is(err, catalog.ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read catalog: %v", err)
	}
	if string(data) != " \n" {
		t.Fatalf("blank catalog was overwritten with %q", data)
	}
	if _, err := os.Stat(filepath.Join(dir, "sale.json")); !os.IsNotExist(err) {
		t.Fatalf("ledger must not be created when the catalog is malformed, stat err=%v", err)
	}
}

func TestBootstrapRejectsBlankLedgerFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "sale.json"), nil, 0o644); err != nil {
		t.Fatalf("seed ledger: %v", err)
	}
	st, err := file.New(dir, file.FormatJSON)
	if err != nil {
		t.Fatalf("open file store: %v", err)
	}

	_, err = newTestService(t, st).Bootstrap(context.Background())
	if !errors.Is(err, catalog.ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestBootstrapAcceptsSingleObjectLedger(t *testing.T) {
	st := memory.NewSeeded(map[string]string{
		"product": widgetCatalog,
		"sale":    `{"invoice_number":"INV-1","product_name":"Widget","quantity":1,"unit_price":10,"total":10,"payment_method":"CASH","date":"2025-02-01 09:00:00"}`,
	})
	sess := bootstrap(t, newTestService(t, st))

	if len(sess.Ledger) != 1 || sess.Ledger[0].InvoiceNumber != "INV-1" {
		t.Fatalf("expected one ledger entry, got %+v", sess.Ledger)
	}
}

func TestSellUpdatesStockAndLedger(t *testing.T) {
	st := memory.NewSeeded(map[string]string{"product": widgetCatalog, "sale": `[]`})
	svc := newTestService(t, st)
	sess := bootstrap(t, svc)
	widget := sess.Products()[0]

	rec, err := svc.Sell(context.Background(), sess, widget, 2, "cash")
	if err != nil {
		t.Fatalf("sell failed: %v", err)
	}
	if rec.Total.String() != "20" || rec.PaymentMethod != "CASH" {
		t.Fatalf("unexpected sale %+v", rec)
	}
	if !strings.HasPrefix(rec.InvoiceNumber, "INV-20250301-") {
		t.Fatalf("unexpected invoice %s", rec.InvoiceNumber)
	}
	if rec.Date.Nanosecond() != 0 {
		t.Fatalf("expected second precision date, got %v", rec.Date)
	}
	if widget.Stock != 3 {
		t.Fatalf("expected stock 3, got %d", widget.Stock)
	}
	if len(sess.Ledger) != 1 || sess.Selected != widget {
		t.Fatalf("session not refreshed after sale")
	}

	raw, _ := st.Load(context.Background(), "product")
	shape, err := catalog.DecodeCatalog(raw)
	if err != nil {
		t.Fatalf("decode stored catalog: %v", err)
	}
	if shape.Products[0].Stock != 3 || shape.Products[1].Stock != 2 {
		t.Fatalf("stored catalog not updated: %s", raw)
	}

	raw, _ = st.Load(context.Background(), "sale")
	sales, err := catalog.DecodeLedger(raw)
	if err != nil || len(sales) != 1 || sales[0].InvoiceNumber != rec.InvoiceNumber {
		t.Fatalf("stored ledger not updated: %s (%v)", raw, err)
	}
}

func TestSellTotalsUseExactDecimal(t *testing.T) {
	st := memory.NewSeeded(map[string]string{"product": `{"name":"Cable","price":0.1,"stock":10}`})
	svc := newTestService(t, st)
	sess := bootstrap(t, svc)

	rec, err := svc.Sell(context.Background(), sess, sess.Selected, 3, "")
	if err != nil {
		t.Fatalf("sell failed: %v", err)
	}
	if rec.Total.String() != "0.3" {
		t.Fatalf("expected exact total 0.3, got %s", rec.Total)
	}

	raw, _ := st.Load(context.Background(), "product")
	if !strings.HasPrefix(strings.TrimSpace(string(raw)), "{") {
		t.Fatalf("single product catalog must stay an object: %s", raw)
	}
}

func TestSellRejectsInvalidQuantity(t *testing.T) {
	st := memory.NewSeeded(map[string]string{"product": widgetCatalog, "sale": `[]`})
	svc := newTestService(t, st)
	sess := bootstrap(t, svc)
	writes := st.Writes()

	for _, qty := range []int{0, -3} {
		_, err := svc.Sell(context.Background(), sess, sess.Products()[0], qty, "CASH")
		if !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("expected ErrInvalidQuantity for %d, got %v", qty, err)
		}
	}
	if sess.Products()[0].Stock != 5 || len(sess.Ledger) != 0 || st.Writes() != writes {
		t.Fatalf("state changed on rejected sale")
	}
}

func TestSellRejectsInsufficientStock(t *testing.T) {
	st := memory.NewSeeded(map[string]string{"product": widgetCatalog, "sale": `[]`})
	svc := newTestService(t, st)
	sess := bootstrap(t, svc)
	writes := st.Writes()

	_, err := svc.Sell(context.Background(), sess, sess.Products()[1], 3, "CASH")
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	var stockErr *InsufficientStockError
	if !errors.As(err, &stockErr) || stockErr.Available != 2 {
		t.Fatalf("expected available 2, got %v", err)
	}
	if sess.Products()[1].Stock != 2 || len(sess.Ledger) != 0 || st.Writes() != writes {
		t.Fatalf("state changed on rejected sale")
	}
}

func TestSellWithoutProduct(t *testing.T) {
	svc := newTestService(t, memory.New())
	sess := bootstrap(t, svc)

	if _, err := svc.Sell(context.Background(), sess, nil, 1, "CASH"); !errors.Is(err, ErrNoProductSelected) {
		t.Fatalf("expected ErrNoProductSelected, got %v", err)
	}
}

func TestSellRollsBackOnWriteFailure(t *testing.T) {
	mem := memory.NewSeeded(map[string]string{"product": widgetCatalog, "sale": `[]`})
	svc := newTestService(t, failingStore{mem})
	sess := bootstrap(t, svc)
	widget := sess.Products()[0]

	if _, err := svc.Sell(context.Background(), sess, widget, 2, "CASH"); err == nil {
		t.Fatalf("expected write failure")
	}
	if widget.Stock != 5 {
		t.Fatalf("expected stock restored to 5, got %d", widget.Stock)
	}
	if len(sess.Ledger) != 0 || sess.Selected != nil {
		t.Fatalf("session changed after failed sale")
	}
}

func TestSellKeepsEntriesWrittenByOthers(t *testing.T) {
	st := memory.NewSeeded(map[string]string{"product": widgetCatalog, "sale": `[]`})
	svc := newTestService(t, st)
	sess := bootstrap(t, svc)

	external := `[{"invoice_number":"INV-EXT","product_name":"Gadget","quantity":1,"unit_price":7.5,"total":7.5,"payment_method":"CARD","date":"2025-03-01 10:00:00","terminal":"t2"}]`
	if err := st.Save(context.Background(), "sale", json.RawMessage(external)); err != nil {
		t.Fatalf("seed external sale: %v", err)
	}

	if _, err := svc.Sell(context.Background(), sess, sess.Products()[0], 1, "UPI"); err != nil {
		t.Fatalf("sell failed: %v", err)
	}
	if len(sess.Ledger) != 2 || sess.Ledger[0].InvoiceNumber != "INV-EXT" {
		t.Fatalf("expected external entry kept, got %+v", sess.Ledger)
	}

	raw, _ := st.Load(context.Background(), "sale")
	if !strings.Contains(string(raw), `"terminal":"t2"`) {
		t.Fatalf("foreign field dropped: %s", raw)
	}
}

func TestInvoiceNumbersAreDistinct(t *testing.T) {
	st := memory.NewSeeded(map[string]string{"product": `{"name":"Widget","price":1,"stock":100}`})
	svc := newTestService(t, st)
	sess := bootstrap(t, svc)

	seen := make(map[string]bool)
	for i := 0; i < 25; i++ {
		rec, err := svc.Sell(context.Background(), sess, sess.Selected, 1, "CASH")
		if err != nil {
			t.Fatalf("sell %d failed: %v", i, err)
		}
		if seen[rec.InvoiceNumber] {
			t.Fatalf("duplicate invoice %s", rec.InvoiceNumber)
		}
		seen[rec.InvoiceNumber] = true
	}
	if len(sess.Ledger) != 25 || sess.Selected.Stock != 75 {
		t.Fatalf("unexpected state: ledger=%d stock=%d", len(sess.Ledger), sess.Selected.Stock)
	}
}

func TestRecentSalesFilterAndOrder(t *testing.T) {
	st := memory.NewSeeded(map[string]string{"product": widgetCatalog, "sale": `[]`})
	svc := newTestService(t, st)
	sess := bootstrap(t, svc)
	ctx := context.Background()

	first, _ := svc.Sell(ctx, sess, sess.Products()[0], 1, "CASH")
	_, _ = svc.Sell(ctx, sess, sess.Products()[1], 1, "CASH")
	third, _ := svc.Sell(ctx, sess, sess.Products()[0], 2, "CARD")

	widgets := sess.RecentSales("widget")
	if len(widgets) != 2 || widgets[0].InvoiceNumber != third.InvoiceNumber || widgets[1].InvoiceNumber != first.InvoiceNumber {
		t.Fatalf("unexpected filtered sales %+v", widgets)
	}
	if all := sess.RecentSales(""); len(all) != 3 {
		t.Fatalf("expected 3 sales, got %d", len(all))
	}

	last, ok := sess.LastSale()
	if !ok || last.InvoiceNumber != third.InvoiceNumber {
		t.Fatalf("unexpected last sale %+v", last)
	}
}

func TestSellAcceptsUnlistedPaymentMethod(t *testing.T) {
	var logs bytes.Buffer
	st := memory.NewSeeded(map[string]string{"product": widgetCatalog})
	svc := newTestService(t, st)
	svc.logger = slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sess := bootstrap(t, svc)

	rec, err := svc.Sell(context.Background(), sess, sess.Products()[0], 1, " voucher ")
	if err != nil {
		t.Fatalf("sell failed: %v", err)
	}
	if rec.PaymentMethod != "VOUCHER" {
		t.Fatalf("expected upper-cased method, got %q", rec.PaymentMethod)
	}
	if !strings.Contains(logs.String(), "unlisted payment method") {
		t.Fatalf("expected unlisted method to be logged, got %s", logs.String())
	}

	logs.Reset()
	if _, err := svc.Sell(context.Background(), sess, sess.Products()[0], 1, "upi"); err != nil {
		t.Fatalf("sell failed: %v", err)
	}
	if strings.Contains(logs.String(), "unlisted payment method") {
		t.Fatalf("listed method must not be flagged: %s", logs.String())
	}
}
