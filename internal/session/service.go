package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/book-scanner/internal/catalog"
	"github.com/zombor/book-scanner/internal/scanning"
)

// DefaultScanCooldown matches the capture surface's pause between decodes.
const DefaultScanCooldown = 2 * time.Second

// IDGenerator generates unique IDs for sessions
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates random UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// ScanStatus describes what happened to a scan.
type ScanStatus string

const (
	ScanAdded      ScanStatus = "added"
	ScanDuplicate  ScanStatus = "duplicate"
	ScanNotFound   ScanStatus = "not_found"
	ScanSuppressed ScanStatus = "suppressed"
)

// ScanResult is the response to a scan.
type ScanResult struct {
	Status ScanStatus       `json:"status"`
	Book   *catalog.Book    `json:"book,omitempty"`
	Notice *scanning.Notice `json:"notice,omitempty"`
	View   View             `json:"view"`
}

// SearchResult is the response to a search.
type SearchResult struct {
	Ran    bool             `json:"ran"`
	Notice *scanning.Notice `json:"notice,omitempty"`
	View   View             `json:"view"`
}

// Service coordinates sessions, the scan interpreter and the catalog
type Service struct {
	store        Store
	scanner      scanning.Scanner
	lookup       catalog.Lookup
	idGenerator  IDGenerator
	timeSource   TimeSource
	scanCooldown time.Duration
}

// NewService creates a new Service with default ID generator and time source
func NewService(store Store, scanner scanning.Scanner, lookup catalog.Lookup) *Service {
	return NewServiceWithDeps(store, scanner, lookup, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(store Store, scanner scanning.Scanner, lookup catalog.Lookup, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		store:        store,
		scanner:      scanner,
		lookup:       lookup,
		idGenerator:  idGen,
		timeSource:   timeSrc,
		scanCooldown: DefaultScanCooldown,
	}
}

// SetScanCooldown changes the duplicate-decode window. Zero disables it.
func (s *Service) SetScanCooldown(d time.Duration) {
	s.scanCooldown = d
}

// StartSession opens a new scanning session
func (s *Service) StartSession() (*Session, error) {
	sess := New(s.idGenerator.Generate(), s.timeSource.Now(), s.lookup)
	if err := s.store.SaveSession(sess); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	slog.Info("Session started", "session", sess.ID)
	return sess, nil
}

// EndSession discards a session and everything it collected
func (s *Service) EndSession(id string) error {
	if _, err := s.store.GetSession(id); err != nil {
		return fmt.Errorf("getting session: %w", err)
	}
	if err := s.store.DeleteSession(id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	slog.Info("Session ended", "session", id)
	return nil
}

// GetSession retrieves a session and marks it as active
func (s *Service) GetSession(id string) (*Session, error) {
	sess, err := s.store.GetSession(id)
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	sess.touch(s.timeSource.Now())
	return sess, nil
}

// View renders a session
func (s *Service) View(id string) (View, error) {
	sess, err := s.GetSession(id)
	if err != nil {
		return View{}, err
	}
	return Render(sess), nil
}

// SetScanMode toggles the scan mode of a session
func (s *Service) SetScanMode(id string, enabled bool) (View, error) {
	sess, err := s.GetSession(id)
	if err != nil {
		return View{}, err
	}
	if err := sess.SetScanning(enabled); err != nil {
		return View{}, err
	}
	return Render(sess), nil
}

// SetCameraPermission records the camera permission answer. A denial
// returns the notice to show; search stays available.
func (s *Service) SetCameraPermission(id string, granted bool) (View, *scanning.Notice, error) {
	sess, err := s.GetSession(id)
	if err != nil {
		return View{}, nil, err
	}
	sess.SetCameraPermission(granted)
	if granted {
		return Render(sess), nil, nil
	}
	slog.Warn("Camera permission denied", "session", id)
	notice := scanning.CameraPermissionNotice()
	return Render(sess), &notice, nil
}

// Scan interprets a scan event and records the result in the session
func (s *Service) Scan(ctx context.Context, id string, event scanning.Event) (*ScanResult, error) {
	sess, err := s.GetSession(id)
	if err != nil {
		return nil, err
	}
	if sess.CameraDenied() {
		return nil, ErrCameraDenied
	}
	if !sess.Scanning() {
		return nil, ErrScanningDisabled
	}

	if !sess.admitScan(event.Value, s.timeSource.Now(), s.scanCooldown) {
		return &ScanResult{Status: ScanSuppressed, View: Render(sess)}, nil
	}

	outcome, err := s.scanner.Interpret(ctx, event)
	if err != nil {
		slog.Error("Failed to process scan result",
			"session", id,
			"kind", event.Kind,
			"value", event.Value,
			"error", err,
		)
		return nil, fmt.Errorf("interpreting scan: %w", err)
	}

	result := &ScanResult{Book: outcome.Book, Notice: outcome.Notice}
	switch {
	case !outcome.Found():
		result.Status = ScanNotFound
	case sess.Aggregator().RecordScan(outcome.Event, outcome.Book):
		result.Status = ScanAdded
	default:
		result.Status = ScanDuplicate
	}
	result.View = Render(sess)
	return result, nil
}

// Search runs a free-text search in a session. A blank query changes nothing.
func (s *Service) Search(ctx context.Context, id string, query string) (*SearchResult, error) {
	sess, err := s.GetSession(id)
	if err != nil {
		return nil, err
	}

	results, ran := sess.Aggregator().RunSearch(ctx, query)
	result := &SearchResult{Ran: ran}
	if ran && len(results) == 0 {
		notice := scanning.NoResultsNotice(query)
		result.Notice = &notice
	}
	result.View = Render(sess)
	return result, nil
}

// Clear empties both collections and the pending query
func (s *Service) Clear(id string) (View, error) {
	sess, err := s.GetSession(id)
	if err != nil {
		return View{}, err
	}
	sess.Aggregator().ClearAll()
	return Render(sess), nil
}

// Select describes a book from the session, fetching it from the catalog
// when it is in neither collection
func (s *Service) Select(ctx context.Context, id string, bookID string) (Selection, error) {
	sess, err := s.GetSession(id)
	if err != nil {
		return Selection{}, err
	}
	if book, ok := sess.Aggregator().Find(bookID); ok {
		return NewSelection(book), nil
	}
	book, ok := s.lookup.GetByID(ctx, bookID)
	if !ok {
		return Selection{}, fmt.Errorf("%w: %s", ErrBookNotFound, bookID)
	}
	return NewSelection(book), nil
}

// ExpireIdle ends sessions that have been idle longer than maxIdle and
// returns how many were removed
func (s *Service) ExpireIdle(maxIdle time.Duration) (int, error) {
	sessions, err := s.store.ListSessions()
	if err != nil {
		return 0, fmt.Errorf("listing sessions: %w", err)
	}

	cutoff := s.timeSource.Now().Add(-maxIdle)
	removed := 0
	for _, sess := range sessions {
		if !sess.LastSeen().Before(cutoff) {
			continue
		}
		if err := s.store.DeleteSession(sess.ID); err != nil {
			return removed, fmt.Errorf("deleting session %s: %w", sess.ID, err)
		}
		removed++
	}
	if removed > 0 {
		slog.Info("Expired idle sessions", "count", removed)
	}
	return removed, nil
}
