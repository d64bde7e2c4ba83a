package toolcall

import (
	"strings"

	"atelier/internal/event"

	"go.uber.org/zap"
)

// pendingCall buffers the argument fragments of one in-flight tool call.
type pendingCall struct {
	toolName string
	args     strings.Builder
}

// Reconstructor accumulates tool call fragments between the start and
// completion events of each call id. The pending table lives and dies with
// the session that owns the reconstructor.
type Reconstructor struct {
	registry Registry
	pending  map[string]*pendingCall
	logger   *zap.Logger
}

func NewReconstructor(registry Registry, logger *zap.Logger) *Reconstructor {
	return &Reconstructor{
		registry: registry,
		pending:  make(map[string]*pendingCall),
		logger:   logger,
	}
}

// Observe feeds one decoded event into the pending table. A completed call
// whose buffered arguments decode cleanly yields its Op; every other event,
// including malformed or unattributable ones, yields nil. None of these
// outcomes is an error. The stream keeps flowing either way.
func (r *Reconstructor) Observe(ev *event.Event) Op {
	switch ev.Kind {
	case event.KindCallStart:
		// A reused id is tolerated: the last start wins.
		r.pending[ev.CallID] = &pendingCall{toolName: ev.ToolName}

	case event.KindCallDelta:
		pending, ok := r.pending[ev.CallID]
		if !ok {
			r.logger.Debug("delta for unknown call", zap.String("call_id", ev.CallID))
			return nil
		}
		pending.args.WriteString(ev.Fragment)

	case event.KindCallComplete:
		pending, ok := r.pending[ev.CallID]
		if !ok {
			r.logger.Debug("completion for unknown call", zap.String("call_id", ev.CallID))
			return nil
		}
		delete(r.pending, ev.CallID)

		decode, ok := r.registry[pending.toolName]
		if !ok {
			r.logger.Debug("unknown tool", zap.String("tool", pending.toolName))
			return nil
		}

		op, err := decode([]byte(pending.args.String()))
		if err != nil {
			r.logger.Debug("tool arguments did not decode",
				zap.String("tool", pending.toolName),
				zap.String("call_id", ev.CallID),
				zap.Error(err),
			)
			return nil
		}
		return op
	}

	return nil
}

// Pending reports how many calls are still buffering. A non-zero value at
// stream end means the agent never completed them.
func (r *Reconstructor) Pending() int {
	return len(r.pending)
}
