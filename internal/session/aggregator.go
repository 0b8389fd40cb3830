package session

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/zombor/book-scanner/internal/catalog"
	"github.com/zombor/book-scanner/internal/scanning"
)

// TextSearcher runs free-text catalog searches.
type TextSearcher interface {
	LookupByText(ctx context.Context, query string) []catalog.Book
}

// DetectedEntry associates a scanned book with the scan that produced it.
type DetectedEntry struct {
	Book          catalog.Book   `json:"book"`
	Scan          scanning.Event `json:"originating_scan"`
	IsHighlighted bool           `json:"is_highlighted"`
}

// State is a consistent copy of an Aggregator's collections.
type State struct {
	Detected []DetectedEntry
	Results  []catalog.Book
	Query    string
	Busy     bool
}

// Aggregator owns the detected collection and the current search result set
// for one scanning session.
//
// Detected entries are unique by book ID and kept in insertion order. The
// search result set is replaced wholesale by every search, and highlight
// flags are recomputed from it each time. The lock is never held across a
// catalog call, so overlapping searches both complete and the last one to
// land wins.
type Aggregator struct {
	searcher TextSearcher

	mu       sync.Mutex
	detected []DetectedEntry
	ids      map[string]struct{}
	results  []catalog.Book
	query    string
	inFlight int
}

// NewAggregator creates an empty Aggregator.
func NewAggregator(searcher TextSearcher) *Aggregator {
	return &Aggregator{
		searcher: searcher,
		ids:      make(map[string]struct{}),
		results:  []catalog.Book{},
	}
}

// RecordScan appends the looked-up book to the detected collection. A nil
// book or a book whose ID is already present leaves the collection
// untouched; the first scan of a book wins. It reports whether an entry was
// added.
func (a *Aggregator) RecordScan(event scanning.Event, book *catalog.Book) bool {
	if book == nil {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.ids[book.ID]; exists {
		return false
	}
	a.ids[book.ID] = struct{}{}
	a.detected = append(a.detected, DetectedEntry{
		Book: *book,
		Scan: event,
	})
	return true
}

// SetQuery records the pending query text without searching.
func (a *Aggregator) SetQuery(query string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.query = query
}

// RunSearch replaces the search result set with the catalog's answer for
// query and recomputes every highlight flag. A blank query is a no-op and
// issues no catalog call; ran reports whether a search happened.
func (a *Aggregator) RunSearch(ctx context.Context, query string) (results []catalog.Book, ran bool) {
	if strings.TrimSpace(query) == "" {
		return nil, false
	}

	a.mu.Lock()
	a.query = query
	a.inFlight++
	a.mu.Unlock()

	found := a.searcher.LookupByText(ctx, query)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.inFlight--

	a.results = make([]catalog.Book, len(found))
	copy(a.results, found)

	matched := make(map[string]struct{}, len(found))
	for _, book := range found {
		matched[book.ID] = struct{}{}
	}
	for i := range a.detected {
		_, ok := matched[a.detected[i].Book.ID]
		a.detected[i].IsHighlighted = ok
	}

	return slices.Clone(a.results), true
}

// ClearAll empties both collections and the pending query in one step.
func (a *Aggregator) ClearAll() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.detected = nil
	a.ids = make(map[string]struct{})
	a.results = []catalog.Book{}
	a.query = ""
}

// Snapshot returns a copy of the current state.
func (a *Aggregator) Snapshot() State {
	a.mu.Lock()
	defer a.mu.Unlock()

	return State{
		Detected: slices.Clone(a.detected),
		Results:  slices.Clone(a.results),
		Query:    a.query,
		Busy:     a.inFlight > 0,
	}
}

// Find returns a book from either collection, detected entries first.
func (a *Aggregator) Find(bookID string) (catalog.Book, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, entry := range a.detected {
		if entry.Book.ID == bookID {
			return entry.Book, true
		}
	}
	for _, book := range a.results {
		if book.ID == bookID {
			return book, true
		}
	}
	return catalog.Book{}, false
}
