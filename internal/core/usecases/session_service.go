package usecases

import (
	"context"
	"log/slog"
	"sync"

	"areascope/internal/core/domain"
	"areascope/internal/core/ports"
)

// DefaultSession is the session id used when a client does not name one.
const DefaultSession = "default"

// AreaCounter is the slice of the area store the mode machine needs: edit and
// erase modes require at least one existing area.
type AreaCounter interface {
	Count() int
}

// Session holds the interaction state of one map client. The mode lives in a
// single lock-guarded cell so that long-lived gesture handlers always read
// the value current at dispatch time, never one captured at registration.
type Session struct {
	id string

	mu         sync.RWMutex
	mode       domain.Mode
	step       domain.Step
	drawBuffer domain.Ring
}

// Mode returns the current interaction mode.
func (s *Session) Mode() domain.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Step returns the current workflow step.
func (s *Session) Step() domain.Step {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.step
}

// DrawBuffer returns a snapshot of the in-progress sketch.
func (s *Session) DrawBuffer() domain.Ring {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.drawBuffer.Clone()
}

// setMode replaces the mode after tearing down the previous mode's transient
// state. Mode switches are never additive.
func (s *Session) setMode(m domain.Mode) {
	s.mu.Lock()
	s.drawBuffer = nil
	s.mode = m
	s.mu.Unlock()
}

// SessionService tracks per-client interaction sessions and enforces the
// mode transition rules.
type SessionService struct {
	mu       sync.Mutex
	sessions map[string]*Session

	areas     AreaCounter
	notices   *NoticeService
	publisher ports.EventPublisher
}

// NewSessionService creates a new SessionService.
func NewSessionService(areas AreaCounter, notices *NoticeService) *SessionService {
	return &SessionService{
		sessions: make(map[string]*Session),
		areas:    areas,
		notices:  notices,
	}
}

// SetPublisher wires the event bus. Optional.
func (s *SessionService) SetPublisher(p ports.EventPublisher) { s.publisher = p }

// Get returns the session for the given id, creating it on first use.
func (s *SessionService) Get(id string) *Session {
	if id == "" {
		id = DefaultSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		sess = &Session{id: id, mode: domain.Idle(), step: domain.StepDefine}
		s.sessions[id] = sess
	}
	return sess
}

// CurrentMode reads the latest mode of the session.
func (s *SessionService) CurrentMode(sessionID string) domain.Mode {
	return s.Get(sessionID).Mode()
}

// StartDrawing enters polygon-draw mode, clearing any stale sketch.
func (s *SessionService) StartDrawing(ctx context.Context, sessionID string) {
	sess := s.Get(sessionID)
	sess.setMode(domain.Drawing())
	s.publishMode(ctx, sess)
	s.notify("Click to start drawing, drag to create polygon, double-click to finish")
}

// FinishDrawing exits draw mode after a completed or aborted gesture. Draw
// mode self-exits after a single polygon, unlike erase mode.
func (s *SessionService) FinishDrawing(ctx context.Context, sessionID string) {
	sess := s.Get(sessionID)
	if sess.Mode().Kind != domain.ModeDrawing {
		return
	}
	sess.setMode(domain.Idle())
	s.publishMode(ctx, sess)
}

// StartEditing enters edit mode with no target selected. Rejected with a
// notice when no areas exist.
func (s *SessionService) StartEditing(ctx context.Context, sessionID string) error {
	if s.areas.Count() == 0 {
		s.notify("No areas to edit - draw one first")
		return domain.ErrNoAreas
	}
	sess := s.Get(sessionID)
	sess.setMode(domain.Editing(0))
	s.publishMode(ctx, sess)
	s.notify("Click on an area to edit its edges")
	return nil
}

// SelectEditTarget picks the area whose vertices will be edited. Only valid
// while editing with no target yet; the first selection wins until editing is
// explicitly stopped.
func (s *SessionService) SelectEditTarget(ctx context.Context, sessionID string, areaID int64) bool {
	sess := s.Get(sessionID)

	sess.mu.Lock()
	if sess.mode.Kind != domain.ModeEditing || sess.mode.Target != 0 {
		sess.mu.Unlock()
		return false
	}
	sess.mode = domain.Editing(areaID)
	sess.mu.Unlock()

	s.publishMode(ctx, sess)
	s.notify("Editing area - drag vertices to adjust shape")
	return true
}

// StopEditing releases the edit target and returns to idle.
func (s *SessionService) StopEditing(ctx context.Context, sessionID string) {
	sess := s.Get(sessionID)
	sess.setMode(domain.Idle())
	s.publishMode(ctx, sess)
	s.notify("Editing stopped")
}

// StartErasing enters erase mode. Erase is sticky: it stays active across
// deletions until explicitly cancelled. Rejected when no areas exist.
func (s *SessionService) StartErasing(ctx context.Context, sessionID string) error {
	if s.areas.Count() == 0 {
		s.notify("No areas to erase - draw one first")
		return domain.ErrNoAreas
	}
	sess := s.Get(sessionID)
	sess.setMode(domain.Erasing())
	s.publishMode(ctx, sess)
	s.notify("Erase mode active - click on areas to delete them")
	return nil
}

// Cancel returns the session to idle from any mode, clearing all transient
// buffers and the edit target.
func (s *SessionService) Cancel(ctx context.Context, sessionID string) {
	sess := s.Get(sessionID)
	sess.setMode(domain.Idle())
	s.publishMode(ctx, sess)
	s.notify("Operation cancelled")
}

// Confirm moves the workflow to the complete step. Requires at least one
// area.
func (s *SessionService) Confirm(ctx context.Context, sessionID string) error {
	if s.areas.Count() == 0 {
		s.notify("Please create at least one area first.")
		return domain.ErrNoAreas
	}

	sess := s.Get(sessionID)
	sess.mu.Lock()
	sess.drawBuffer = nil
	sess.mode = domain.Idle()
	sess.step = domain.StepComplete
	sess.mu.Unlock()

	s.publishMode(ctx, sess)
	s.notify("Areas confirmed! Moving to project scope definition.")
	return nil
}

// AdvanceToSearch moves a session from the define step to the search step
// after a successful locate.
func (s *SessionService) AdvanceToSearch(sessionID string) {
	sess := s.Get(sessionID)
	sess.mu.Lock()
	if sess.step == domain.StepDefine {
		sess.step = domain.StepSearch
	}
	sess.mu.Unlock()
}

// NoteAreaCreated advances the workflow to the complete step when the first
// area is created.
func (s *SessionService) NoteAreaCreated(sessionID string, total int) {
	if total != 1 {
		return
	}
	sess := s.Get(sessionID)
	sess.mu.Lock()
	sess.step = domain.StepComplete
	sess.mu.Unlock()
}

// AppendDrawPoint records an in-progress sketch vertex. The buffer is purely
// transient and cleared on every mode switch.
func (s *SessionService) AppendDrawPoint(sessionID string, p domain.GeoPoint) {
	sess := s.Get(sessionID)
	sess.mu.Lock()
	if sess.mode.Kind == domain.ModeDrawing {
		sess.drawBuffer = append(sess.drawBuffer, p)
	}
	sess.mu.Unlock()
}

// AreaDeleted implements ModeObserver: a session editing the deleted area
// falls back to idle so no mode ever references a dead id.
func (s *SessionService) AreaDeleted(id int64) {
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.mu.Lock()
		dangling := sess.mode.Kind == domain.ModeEditing && sess.mode.Target == id
		if dangling {
			sess.drawBuffer = nil
			sess.mode = domain.Idle()
		}
		sess.mu.Unlock()
		if dangling {
			slog.Debug("edit target deleted, session back to idle", "session", sess.id, "area", id)
			s.publishMode(context.Background(), sess)
		}
	}
}

func (s *SessionService) publishMode(ctx context.Context, sess *Session) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishModeChange(ctx, sess.id, sess.Mode()); err != nil {
		slog.Warn("publish mode change", "error", err, "session", sess.id)
	}
}

func (s *SessionService) notify(msg string) {
	if s.notices != nil {
		s.notices.Show(msg)
	}
}
