// Package agent turns operator input into catalog queries and sales.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"kasirinaja/shopbot/internal/domain"
	"kasirinaja/shopbot/internal/matcher"
	"kasirinaja/shopbot/internal/service"
)

// ErrExit is returned by Handle when the operator asked to leave.
var ErrExit = errors.New("exit requested")

const PaymentPrompt = "Payment method (CASH/CARD/UPI) [CASH]: "

const (
	msgGoodbye           = "Goodbye!"
	msgNotFound          = "Product not found."
	msgNotFoundHint      = "Product not found. Try 'show products' to see names."
	msgNoSelection       = "No product selected. Type product name first or use 'sell <qty> <product>'."
	msgInvalidQuantity   = "Quantity must be positive."
	msgMissingQuantity   = "Quantity must be a whole number, e.g. 'sell 2 <product>'."
	msgNoSales           = "No sales recorded yet."
	msgNoMatchingSales   = "No sales match that query."
	msgNoLastSale        = "No sales yet."
	msgNotUnderstood     = "Sorry - I didn't understand. Try 'help' for examples."
	msgInsufficientStock = "Not enough stock. Available: %d"
)

// Presenter shows results to the operator.
type Presenter interface {
	Help()
	Products(products []*domain.Product)
	Product(p *domain.Product)
	Sales(sales []domain.SaleRecord)
	SaleRecorded(rec domain.SaleRecord)
	Info(msg string)
	Problem(msg string)
}

// Prompter asks the operator a follow-up question.
type Prompter interface {
	Prompt(ctx context.Context, label string) (string, error)
}

type Seller interface {
	Sell(ctx context.Context, sess *service.Session, product *domain.Product, qty int, payment string) (domain.SaleRecord, error)
}

type Interpreter struct {
	seller  Seller
	sess    *service.Session
	matcher *matcher.Matcher
	out     Presenter
	prompt  Prompter
	logger  *slog.Logger
}

func New(seller Seller, sess *service.Session, m *matcher.Matcher, out Presenter, prompt Prompter, logger *slog.Logger) *Interpreter {
	if m == nil {
		m = matcher.New(matcher.DefaultCutoff)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Interpreter{
		seller:  seller,
		sess:    sess,
		matcher: m,
		out:     out,
		prompt:  prompt,
		logger:  logger.With("component", "agent"),
	}
}

// Handle interprets one input line. Unrecognized input is answered, not
// returned as an error; the only errors are ErrExit, a failed payment
// prompt and a sale that could not be saved.
func (in *Interpreter) Handle(ctx context.Context, line string) error {
	intent, ruleName := classify(line)
	if intent.Kind == IntentNone {
		return nil
	}
	in.logger.Debug("classified input", "rule", ruleName, "intent", intent.Kind, "name", intent.Name, "qty", intent.Quantity)

	switch intent.Kind {
	case IntentHelp:
		in.out.Help()
	case IntentExit:
		in.out.Info(msgGoodbye)
		return ErrExit
	case IntentListProducts:
		in.out.Products(in.sess.Products())
	case IntentShowSales:
		in.showSales(intent.Name)
	case IntentLastSale:
		rec, ok := in.sess.LastSale()
		if !ok {
			in.out.Info(msgNoLastSale)
			return nil
		}
		in.out.Sales([]domain.SaleRecord{rec})
	case IntentQueryProduct:
		if !in.showProduct(intent.Name) {
			in.out.Problem(msgNotFound)
		}
	case IntentSell, IntentQuickSell:
		p := in.resolve(intent.Name)
		if p == nil {
			// no fallback to the selected product here
			if in.sess.Selected != nil {
				in.out.Problem(msgNotFoundHint)
			} else {
				in.out.Problem(msgNotFound)
			}
			return nil
		}
		return in.sell(ctx, p, intent.Quantity)
	case IntentSellSelected:
		if in.sess.Selected == nil {
			in.out.Problem(msgNoSelection)
			return nil
		}
		return in.sell(ctx, in.sess.Selected, intent.Quantity)
	case IntentSellMissingQuantity:
		in.out.Problem(msgMissingQuantity)
	case IntentResolveName:
		if !in.showProduct(intent.Name) {
			in.out.Info(msgNotUnderstood)
		}
	default:
		in.out.Info(msgNotUnderstood)
	}
	return nil
}

func (in *Interpreter) resolve(query string) *domain.Product {
	return in.matcher.Match(in.sess.Products(), query)
}

func (in *Interpreter) showProduct(query string) bool {
	p := in.resolve(query)
	if p == nil {
		return false
	}
	in.sess.Selected = p
	in.out.Product(p)
	return true
}

func (in *Interpreter) showSales(filter string) {
	if len(in.sess.Ledger) == 0 {
		in.out.Info(msgNoSales)
		return
	}
	sales := in.sess.RecentSales(filter)
	if len(sales) == 0 {
		in.out.Info(msgNoMatchingSales)
		return
	}
	in.out.Sales(sales)
}

func (in *Interpreter) sell(ctx context.Context, p *domain.Product, qty int) error {
	method, err := in.prompt.Prompt(ctx, PaymentPrompt)
	if err != nil {
		return fmt.Errorf("read payment method: %w", err)
	}

	rec, err := in.seller.Sell(ctx, in.sess, p, qty, method)
	var stockErr *service.InsufficientStockError
	switch {
	case err == nil:
		in.out.SaleRecorded(rec)
		return nil
	case errors.Is(err, service.ErrInvalidQuantity):
		in.out.Problem(msgInvalidQuantity)
		return nil
	case errors.As(err, &stockErr):
		in.out.Problem(fmt.Sprintf(msgInsufficientStock, stockErr.Available))
		return nil
	case errors.Is(err, service.ErrNoProductSelected):
		in.out.Problem(msgNoSelection)
		return nil
	default:
		return fmt.Errorf("record sale: %w", err)
	}
}
