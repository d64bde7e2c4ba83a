package session

import (
	"testing"

	"atelier/internal/patch"
	"atelier/internal/toolcall"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestSession(seed map[string]string) *Session {
	return New("p1", seed, zap.NewNop())
}

func TestApplyCreate(t *testing.T) {
	s := newTestSession(nil)

	content, applied := s.Apply(toolcall.Create{Path: "a.tsx", Content: "hi"})
	assert.True(t, applied)
	assert.Equal(t, "hi", content)
	assert.Equal(t, map[string]string{"a.tsx": "hi"}, s.Snapshot())
}

func TestApplyCreateIsIdempotent(t *testing.T) {
	s := newTestSession(nil)

	op := toolcall.Create{Path: "a.tsx", Content: "hi"}
	s.Apply(op)
	once := s.Snapshot()
	s.Apply(op)

	assert.Equal(t, once, s.Snapshot())
	assert.Equal(t, 2, s.Ops())
}

func TestApplyEdit(t *testing.T) {
	s := newTestSession(map[string]string{"a.tsx": "hello world"})

	content, applied := s.Apply(toolcall.Edit{
		Path: "a.tsx",
		Diff: patch.Diff{Hunks: []patch.Hunk{{Search: "world", Replace: "there"}}},
	})
	assert.True(t, applied)
	assert.Equal(t, "hello there", content)
	assert.Equal(t, "hello there", s.Snapshot()["a.tsx"])
}

func TestApplyEditUnknownPath(t *testing.T) {
	s := newTestSession(nil)

	_, applied := s.Apply(toolcall.Edit{Path: "a.ts", Diff: patch.Diff{}})
	assert.False(t, applied)
	assert.Empty(t, s.Snapshot())
	assert.Equal(t, 1, s.EditMisses())
	// Observed even though it did not apply.
	assert.Equal(t, 1, s.Ops())
}

func TestApplyDelete(t *testing.T) {
	s := newTestSession(map[string]string{"a.tsx": "hi", "b.tsx": "there"})

	_, applied := s.Apply(toolcall.Delete{Path: "a.tsx"})
	assert.True(t, applied)
	assert.Equal(t, map[string]string{"b.tsx": "there"}, s.Snapshot())
}

func TestApplyDeleteAbsentPath(t *testing.T) {
	s := newTestSession(nil)

	_, applied := s.Apply(toolcall.Delete{Path: "nope.ts"})
	assert.False(t, applied)
	assert.Zero(t, s.EditMisses())
}

func TestSnapshotIsACopy(t *testing.T) {
	s := newTestSession(map[string]string{"a.tsx": "hi"})

	snapshot := s.Snapshot()
	snapshot["a.tsx"] = "tampered"
	snapshot["new.ts"] = "injected"

	assert.Equal(t, map[string]string{"a.tsx": "hi"}, s.Snapshot())
}

func TestSeedIsCopied(t *testing.T) {
	seed := map[string]string{"a.tsx": "hi"}
	s := newTestSession(seed)

	s.Apply(toolcall.Delete{Path: "a.tsx"})
	assert.Equal(t, "hi", seed["a.tsx"])
}

func TestStateTransitions(t *testing.T) {
	t.Run("full build path", func(t *testing.T) {
		s := newTestSession(nil)
		assert.Equal(t, StateIdle, s.State())

		s.Start()
		assert.Equal(t, StateStreaming, s.State())
		s.BeginBuild()
		assert.Equal(t, StateBuilding, s.State())
		s.Finish()
		assert.Equal(t, StateDone, s.State())
	})

	t.Run("no ops skips building", func(t *testing.T) {
		s := newTestSession(nil)
		s.Start()
		s.Finish()
		assert.Equal(t, StateDone, s.State())
	})

	t.Run("abort is terminal", func(t *testing.T) {
		s := newTestSession(nil)
		s.Start()
		s.Abort()
		assert.Equal(t, StateAborted, s.State())

		// No transition leaves aborted.
		s.Start()
		s.BeginBuild()
		s.Finish()
		assert.Equal(t, StateAborted, s.State())
	})

	t.Run("done does not resume", func(t *testing.T) {
		s := newTestSession(nil)
		s.Start()
		s.Finish()
		s.Start()
		assert.Equal(t, StateDone, s.State())
	})
}
