// Package console is the operator's terminal: it reads input lines,
// passes them to the interpreter and renders what comes back.
package console

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"kasirinaja/shopbot/internal/agent"
	"kasirinaja/shopbot/internal/domain"
)

const InputPrompt = "You: "

type Handler interface {
	Handle(ctx context.Context, line string) error
}

type REPL struct {
	reader  Reader
	handler Handler
	out     *Renderer
	logger  *slog.Logger
}

func NewREPL(reader Reader, handler Handler, out *Renderer, logger *slog.Logger) *REPL {
	if logger == nil {
		logger = slog.Default()
	}
	return &REPL{
		reader:  reader,
		handler: handler,
		out:     out,
		logger:  logger.With("component", "console"),
	}
}

// Run prints the welcome banner and the catalog, then handles lines until
// the operator exits, input ends or ctx is cancelled. Each of those is a
// normal end and returns nil.
func (r *REPL) Run(ctx context.Context, products []*domain.Product) error {
	r.out.Welcome()
	r.out.Products(products)

	for {
		line, err := r.reader.Prompt(ctx, InputPrompt)
		if err != nil {
			if isHangup(ctx, err) {
				r.farewell()
				return nil
			}
			return err
		}

		err = r.handler.Handle(ctx, line)
		switch {
		case err == nil:
		case errors.Is(err, agent.ErrExit):
			return nil
		case isHangup(ctx, err):
			r.farewell()
			return nil
		default:
			r.logger.Error("command failed", "input", line, "err", err)
			r.out.Problem("Could not complete that: " + err.Error())
		}
	}
}

func (r *REPL) farewell() {
	r.out.Info("")
	r.out.Info("Bye!")
}

// isHangup reports whether err means the operator went away: Ctrl+C, a
// signal that cancelled ctx, or closed input.
func isHangup(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, ErrInterrupted) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, context.Canceled)
}
