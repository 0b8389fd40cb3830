package scanning

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zombor/book-scanner/internal/catalog"
)

// Kind identifies what a capture surface decoded
type Kind string

const (
	KindBarcode Kind = "barcode"
	KindText    Kind = "text"
	KindCover   Kind = "cover" // accepted by the model, never routed
)

// Barcode symbologies produced by the capture surface
const (
	SymbologyEAN13 = "ean13"
	SymbologyEAN8  = "ean8"
	SymbologyUPCA  = "upc_a"
	SymbologyUPCE  = "upc_e"
)

var (
	ErrUnsupportedKind   = errors.New("unsupported scan kind")
	ErrEmptyValue        = errors.New("scan value is empty")
	ErrInvalidConfidence = errors.New("scan confidence must be between 0 and 1")
)

// Bounds locates a decode within the camera frame. Display/debug only.
type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Event is a single successful decode from the capture surface. It is
// consumed once by a Scanner and not persisted.
type Event struct {
	Kind       Kind    `json:"kind"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Symbology  string  `json:"symbology,omitempty"`
	Bounds     *Bounds `json:"bounds,omitempty"`
}

// Validate checks the event can be routed.
func (e Event) Validate() error {
	switch e.Kind {
	case KindBarcode, KindText:
	case KindCover:
		return fmt.Errorf("%w: %s", ErrUnsupportedKind, e.Kind)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedKind, string(e.Kind))
	}
	if strings.TrimSpace(e.Value) == "" {
		return ErrEmptyValue
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		return ErrInvalidConfidence
	}
	return nil
}

// Outcome is the result of interpreting one Event.
type Outcome struct {
	Event  Event
	Book   *catalog.Book
	Status catalog.Status
	Err    error   // transport or decode failure, diagnostic only
	Notice *Notice // set when no book was found
}

// Found reports whether the lookup produced a book.
func (o Outcome) Found() bool {
	return o.Book != nil
}

// Scanner turns scan events into catalog lookups.
type Scanner interface {
	// Interpret routes the event to the catalog. Misses and transport
	// failures are reported through the Outcome; only events that cannot be
	// routed return an error.
	Interpret(ctx context.Context, event Event) (Outcome, error)
}
