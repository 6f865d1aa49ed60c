// Package preview orchestrates time-boxed, render-only presentation
// of decrypted content. A session moves through
// Initializing → Decrypting → Rendering → Active → Expired|Closed;
// the permission gate runs before any decryption is attempted, and
// every exit path clears the render surface and stops the timers.
// Sessions are never resumed or extended: re-opening a document
// always creates a brand-new session.
package preview

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/docseal/docseal/envelope"
	"github.com/docseal/docseal/internal/util"
	"github.com/docseal/docseal/internal/uuid"
	"github.com/docseal/docseal/resolver"
)

// State is a session lifecycle state.
type State int

const (
	StateInitializing State = iota
	StateDecrypting
	StateRendering
	StateActive
	StateExpired
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateDecrypting:
		return "decrypting"
	case StateRendering:
		return "rendering"
	case StateActive:
		return "active"
	case StateExpired:
		return "expired"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// RenderMode selects the presentation style of a session.
type RenderMode int

const (
	// RenderViewOnly is the locked-down mode: no extraction path.
	RenderViewOnly RenderMode = iota
)

// Source resolves ciphertext to validated plaintext. Satisfied by
// *resolver.Resolver.
type Source interface {
	Resolve(ctx context.Context, cipherText []byte, env *envelope.Envelope) (*resolver.Plaintext, error)
}

// Session is one time-boxed preview. After the render step completes
// the session holds no plaintext; the surface is the only place the
// content lives, and it is cleared on expiry and close.
type Session struct {
	mu          sync.Mutex
	id          string
	documentID  string
	renderMode  RenderMode
	state       State
	err         error
	expiresAt   time.Time
	surface     Surface
	warnTimer   *time.Timer
	expireTimer *time.Timer
	done        chan struct{}
}

// Open creates and starts a new preview session. The permission gate
// runs first: without the read capability, or with an
// extraction-capable set in view-only mode, it fails with
// ErrPermissionDenied before any decryption is attempted. A failed
// decrypt leaves the session Expired with the error attached.
func Open(ctx context.Context, src Source, documentID string, cipherText []byte, env *envelope.Envelope, perms PermissionSet, surface Surface, opts ...Option) (*Session, error) {
	o := sessionOptions{
		ttl:            DefaultTTL,
		warnThreshold:  DefaultWarningThreshold,
		maxRenderBytes: DefaultMaxRenderBytes,
	}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Session{
		id:         uuid.New(),
		documentID: documentID,
		renderMode: RenderViewOnly,
		state:      StateInitializing,
		surface:    surface,
		done:       make(chan struct{}),
	}

	if !perms.Has(CapabilityRead) {
		return nil, fmt.Errorf("%w: read capability required", ErrPermissionDenied)
	}
	if perms.Has(CapabilityDownload) {
		// A view-only session must refuse capability sets that allow
		// file extraction; the caller passes a reduced set instead.
		return nil, fmt.Errorf("%w: view-only session cannot carry the download capability", ErrPermissionDenied)
	}

	s.state = StateDecrypting
	pt, err := src.Resolve(ctx, cipherText, env)
	if err != nil {
		s.state = StateExpired
		s.err = err
		s.id = ""
		close(s.done)
		return s, err
	}

	s.state = StateRendering
	content := pt.Bytes
	truncated := false
	if len(content) > o.maxRenderBytes {
		content = content[:o.maxRenderBytes]
		truncated = true
	}
	if err := surface.Render(content, pt.MimeType, truncated); err != nil {
		util.WipeBytes(pt.Bytes)
		s.state = StateExpired
		s.err = err
		s.id = ""
		close(s.done)
		surface.Clear()
		return s, fmt.Errorf("rendering preview: %w", err)
	}
	// The surface owns presentation now; the session keeps no
	// plaintext reference past this point.
	util.WipeBytes(pt.Bytes)

	s.mu.Lock()
	s.state = StateActive
	s.expiresAt = time.Now().Add(o.ttl)

	if o.onWarning != nil && o.warnThreshold < o.ttl {
		remaining := o.warnThreshold
		s.warnTimer = time.AfterFunc(o.ttl-o.warnThreshold, func() {
			o.onWarning(remaining)
		})
	}
	s.expireTimer = time.AfterFunc(o.ttl, s.expire)
	s.mu.Unlock()

	return s, nil
}

// ID returns the session id, or the empty string once the session has
// been invalidated.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// DocumentID returns the previewed document's identifier.
func (s *Session) DocumentID() string {
	return s.documentID
}

// RenderMode returns the session's presentation mode.
func (s *Session) RenderMode() RenderMode {
	return s.renderMode
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error attached to a failed session, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// ExpiresAt returns the expiry deadline of an active session.
func (s *Session) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt
}

// Done returns a channel closed when the session reaches a terminal
// state, whether by expiry, Close, or a failed open.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close ends the session explicitly. Cleanup is identical to expiry:
// surface cleared, timers stopped, session id invalidated. Closing a
// session that already reached a terminal state is a no-op.
func (s *Session) Close() {
	s.teardown(StateClosed, nil)
}

func (s *Session) expire() {
	s.teardown(StateExpired, ErrSessionExpired)
}

func (s *Session) teardown(terminal State, err error) {
	s.mu.Lock()
	if s.state == StateExpired || s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = terminal
	s.err = err
	s.id = ""
	if s.warnTimer != nil {
		s.warnTimer.Stop()
		s.warnTimer = nil
	}
	if s.expireTimer != nil {
		s.expireTimer.Stop()
		s.expireTimer = nil
	}
	surface := s.surface
	close(s.done)
	s.mu.Unlock()

	if surface != nil {
		surface.Clear()
	}
}
