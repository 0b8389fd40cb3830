package session

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrScanningDisabled = errors.New("scan mode is off")
	ErrCameraDenied     = errors.New("camera permission denied")
	ErrBookNotFound     = errors.New("book not found")
)

// Session is one user's scanning session: the aggregator plus the screen
// state around it (scan mode, camera permission, duplicate-decode window).
type Session struct {
	ID        string
	CreatedAt time.Time

	aggregator *Aggregator

	mu            sync.Mutex
	scanning      bool
	cameraDenied  bool
	lastScanValue string
	lastScanAt    time.Time
	lastSeen      time.Time
}

// New creates a session with scan mode off.
func New(id string, now time.Time, searcher TextSearcher) *Session {
	return &Session{
		ID:         id,
		CreatedAt:  now,
		aggregator: NewAggregator(searcher),
		lastSeen:   now,
	}
}

// Aggregator returns the session's result aggregator.
func (s *Session) Aggregator() *Aggregator {
	return s.aggregator
}

// Scanning reports whether scan mode is on.
func (s *Session) Scanning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanning
}

// CameraDenied reports whether the camera permission was refused.
func (s *Session) CameraDenied() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cameraDenied
}

// SetScanning toggles scan mode. Scan mode cannot be turned on once the
// camera permission has been denied.
func (s *Session) SetScanning(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if enabled && s.cameraDenied {
		return ErrCameraDenied
	}
	s.scanning = enabled
	return nil
}

// SetCameraPermission records the capture surface's permission answer.
// A denial turns scan mode off for the rest of the session.
func (s *Session) SetCameraPermission(granted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cameraDenied = !granted
	if !granted {
		s.scanning = false
	}
}

// admitScan reports whether a decode should be processed. A repeat of the
// previous value within cooldown is suppressed.
func (s *Session) admitScan(value string, now time.Time, cooldown time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cooldown > 0 && value == s.lastScanValue && now.Sub(s.lastScanAt) < cooldown {
		return false
	}
	s.lastScanValue = value
	s.lastScanAt = now
	return true
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

// LastSeen returns the time of the last request against the session.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
