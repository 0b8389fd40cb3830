package scanning

import (
	"context"
	"log/slog"

	"github.com/zombor/book-scanner/internal/catalog"
)

// Interpreter implements Scanner on top of a catalog.
type Interpreter struct {
	finder catalog.Finder
}

var _ Scanner = (*Interpreter)(nil)

// NewInterpreter creates an Interpreter backed by finder.
func NewInterpreter(finder catalog.Finder) *Interpreter {
	return &Interpreter{finder: finder}
}

// Interpret routes barcodes to an identifier lookup and text to a free-text
// search, keeping only the first result. A miss or a transport failure is a
// terminal outcome for the scan and carries a not-found notice.
func (i *Interpreter) Interpret(ctx context.Context, event Event) (Outcome, error) {
	if err := event.Validate(); err != nil {
		return Outcome{}, err
	}

	var res catalog.Result
	switch event.Kind {
	case KindBarcode:
		res = i.finder.FindByIdentifier(ctx, NormalizeBarcode(event.Value))
	case KindText:
		res = i.finder.FindByText(ctx, event.Value)
	}

	outcome := Outcome{Event: event, Status: res.Status, Err: res.Err}
	if book, ok := res.First(); ok {
		outcome.Book = &book
		return outcome, nil
	}

	slog.Info("No catalog match for scan",
		"kind", event.Kind,
		"value", event.Value,
		"status", res.Status.String(),
	)
	notice := NotFoundNotice(event.Value)
	outcome.Notice = &notice
	return outcome, nil
}
