// Package session owns the per-turn file state derived from a stream.
package session

import (
	"maps"

	"atelier/internal/patch"
	"atelier/internal/toolcall"

	"go.uber.org/zap"
)

// State tracks where a session is in its lifetime. There is no transition
// back to StateStreaming.
type State int

const (
	StateIdle State = iota
	StateStreaming
	StateBuilding
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateBuilding:
		return "building"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Session is the authoritative path to content mapping for one streamed
// turn, seeded from the project store. It is single-owner: one goroutine
// drives it for the turn's lifetime, so it carries no locking.
type Session struct {
	project    string
	files      map[string]string
	state      State
	ops        int
	editMisses int
	logger     *zap.Logger
}

func New(project string, seed map[string]string, logger *zap.Logger) *Session {
	files := make(map[string]string, len(seed))
	maps.Copy(files, seed)
	return &Session{
		project: project,
		files:   files,
		state:   StateIdle,
		logger:  logger,
	}
}

func (s *Session) Project() string { return s.project }
func (s *Session) State() State    { return s.state }

// Ops counts every operation observed, applied or not. The build trigger
// keys off this, matching what the stream described rather than what stuck.
func (s *Session) Ops() int { return s.ops }

// EditMisses counts edits that arrived for paths the session never saw.
// A non-zero value usually points at an upstream ordering problem.
func (s *Session) EditMisses() int { return s.editMisses }

// Apply mutates the file state with one operation, in arrival order. It
// returns the resulting content for creates and edits, and whether the
// state actually changed. An edit for an unknown path and a delete of an
// absent path both leave the state untouched.
func (s *Session) Apply(op toolcall.Op) (string, bool) {
	s.ops++

	switch op := op.(type) {
	case toolcall.Create:
		s.files[op.Path] = op.Content
		return op.Content, true

	case toolcall.Edit:
		current, ok := s.files[op.Path]
		if !ok {
			s.editMisses++
			s.logger.Warn("edit for path never created",
				zap.String("project", s.project),
				zap.String("path", op.Path),
			)
			return "", false
		}
		updated := patch.Apply(current, op.Diff)
		s.files[op.Path] = updated
		return updated, true

	case toolcall.Delete:
		if _, ok := s.files[op.Path]; !ok {
			s.logger.Debug("delete for absent path",
				zap.String("project", s.project),
				zap.String("path", op.Path),
			)
			return "", false
		}
		delete(s.files, op.Path)
		return "", true
	}

	return "", false
}

// Snapshot returns a copy of the file state safe to hand to the store or
// the build service.
func (s *Session) Snapshot() map[string]string {
	snapshot := make(map[string]string, len(s.files))
	maps.Copy(snapshot, s.files)
	return snapshot
}

// Start moves the session into streaming. Only valid from idle.
func (s *Session) Start() {
	s.transition(StateIdle, StateStreaming)
}

// BeginBuild marks the synchronous build phase after the finish event.
func (s *Session) BeginBuild() {
	s.transition(StateStreaming, StateBuilding)
}

// Finish ends the turn, from streaming (no build) or building.
func (s *Session) Finish() {
	if s.state == StateStreaming || s.state == StateBuilding {
		s.state = StateDone
		return
	}
	s.logger.Warn("invalid session transition",
		zap.Stringer("from", s.state),
		zap.Stringer("to", StateDone),
	)
}

// Abort records an I/O failure mid-stream. Terminal.
func (s *Session) Abort() {
	s.transition(StateStreaming, StateAborted)
}

func (s *Session) transition(from, to State) {
	if s.state != from {
		s.logger.Warn("invalid session transition",
			zap.Stringer("from", s.state),
			zap.Stringer("to", to),
		)
		return
	}
	s.state = to
}
