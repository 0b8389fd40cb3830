package session

import (
	"fmt"
	"strings"

	"github.com/zombor/book-scanner/internal/catalog"
)

const (
	emptyStateText    = "Point your camera at books to scan them"
	emptyStateSubtext = "Or search for a specific book above"
)

// Card is the list rendering of a single book.
type Card struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Authors       string `json:"authors"`
	CoverImageURL string `json:"cover_image_url,omitempty"`
	Placeholder   bool   `json:"placeholder"` // no cover, show the book icon
	Rating        string `json:"rating,omitempty"`
	ISBN          string `json:"isbn,omitempty"`
	Highlighted   bool   `json:"highlighted"`
}

// NewCard renders a book as a card.
func NewCard(book catalog.Book) Card {
	card := Card{
		ID:            book.ID,
		Title:         book.Title,
		Authors:       joinAuthors(book.Authors),
		CoverImageURL: book.CoverImageURL,
		Placeholder:   book.CoverImageURL == "",
		ISBN:          book.ISBN,
	}
	if book.Rating != nil {
		card.Rating = fmt.Sprintf("%.1f", *book.Rating)
	}
	return card
}

// EmptyState is shown when both collections are empty.
type EmptyState struct {
	Text    string `json:"text"`
	Subtext string `json:"subtext"`
}

// View is the scanning/search screen rendered from one consistent snapshot.
type View struct {
	SessionID     string      `json:"session_id"`
	Query         string      `json:"query"`
	Scanning      bool        `json:"scanning"`
	CameraDenied  bool        `json:"camera_denied"`
	Busy          bool        `json:"busy"`
	SearchResults []Card      `json:"search_results"`
	Detected      []Card      `json:"detected"`
	DetectedCount int         `json:"detected_count"`
	ShowClear     bool        `json:"show_clear"`
	EmptyState    *EmptyState `json:"empty_state,omitempty"`
}

// Render builds the view for a session.
func Render(s *Session) View {
	state := s.Aggregator().Snapshot()

	view := View{
		SessionID:     s.ID,
		Query:         state.Query,
		Scanning:      s.Scanning(),
		CameraDenied:  s.CameraDenied(),
		Busy:          state.Busy,
		SearchResults: make([]Card, 0, len(state.Results)),
		Detected:      make([]Card, 0, len(state.Detected)),
		DetectedCount: len(state.Detected),
	}
	for _, book := range state.Results {
		view.SearchResults = append(view.SearchResults, NewCard(book))
	}
	for _, entry := range state.Detected {
		card := NewCard(entry.Book)
		card.Highlighted = entry.IsHighlighted
		view.Detected = append(view.Detected, card)
	}

	view.ShowClear = len(state.Detected) > 0 || len(state.Results) > 0
	if !view.ShowClear {
		view.EmptyState = &EmptyState{Text: emptyStateText, Subtext: emptyStateSubtext}
	}
	return view
}

// Selection is what the screen shows when a card is selected.
type Selection struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Authors []string `json:"authors"`
	Summary string   `json:"summary"`
}

// NewSelection describes a selected book.
func NewSelection(book catalog.Book) Selection {
	return Selection{
		ID:      book.ID,
		Title:   book.Title,
		Authors: book.Authors,
		Summary: fmt.Sprintf("%s by %s", book.Title, joinAuthors(book.Authors)),
	}
}

func joinAuthors(authors []string) string {
	if len(authors) == 0 {
		return catalog.UnknownAuthor
	}
	return strings.Join(authors, ", ")
}
