package preview

import (
	"log/slog"
	"sync"
	"time"

	"github.com/devplayground/playground/pkg/core"
	"github.com/google/uuid"
)

// Surface is one rendered preview. A new surface is created for every
// render; only the most recent one is live.
type Surface struct {
	ID        string    `json:"surface"`
	Document  string    `json:"document"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewSurface builds a standalone surface with a fresh id. It belongs to
// no session, so nothing is disposed when it is created.
func NewSurface(bundle core.SourceBundle, now time.Time) Surface {
	id := uuid.New().String()
	return Surface{
		ID:        id,
		Document:  BuildDocument(bundle, id),
		CreatedAt: now,
	}
}

// ErrorHandler receives errors raised by the live surface.
type ErrorHandler func(surfaceID string, err core.RenderError)

// Session owns the live surface of one editing session. Renders are
// serialised and the last one wins.
type Session struct {
	mu       sync.Mutex
	current  *Surface
	disposed int
	onError  ErrorHandler
	logger   *slog.Logger
	now      func() time.Time
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithErrorHandler sets the callback for errors from the live surface.
func WithErrorHandler(fn ErrorHandler) SessionOption {
	return func(s *Session) { s.onError = fn }
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSession creates a session with no live surface.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Render disposes the previous surface and returns a new one built
// from bundle.
func (s *Session) Render(bundle core.SourceBundle) Surface {
	surface := NewSurface(bundle, s.now())

	s.mu.Lock()
	if s.current != nil {
		s.disposed++
	}
	s.current = &surface
	s.mu.Unlock()

	s.logger.Debug("surface rendered", slog.String("surface", surface.ID), slog.Any("languages", bundle.Languages()))
	return surface
}

// Report delivers an error raised by surfaceID. It returns false, and
// drops the error, when the surface is no longer live.
func (s *Session) Report(surfaceID, message string) bool {
	s.mu.Lock()
	live := s.current != nil && s.current.ID == surfaceID
	handler := s.onError
	s.mu.Unlock()

	if !live {
		s.logger.Debug("dropped error from disposed surface", slog.String("surface", surfaceID))
		return false
	}

	if handler != nil {
		handler(surfaceID, core.RenderError{Message: message})
	}
	return true
}

// Current returns the live surface, if any.
func (s *Session) Current() (Surface, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Surface{}, false
	}
	return *s.current, true
}

// IsCurrent reports whether surfaceID is the live surface.
func (s *Session) IsCurrent(surfaceID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil && s.current.ID == surfaceID
}

// Dispose drops the live surface. Later reports for it are ignored.
func (s *Session) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.disposed++
		s.current = nil
	}
}

// Disposed returns how many surfaces this session has torn down.
func (s *Session) Disposed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}
