package toolcall

import (
	"encoding/json"
	"testing"

	"atelier/internal/event"
	"atelier/internal/patch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestReconstructor() *Reconstructor {
	return NewReconstructor(NewRegistry(), zap.NewNop())
}

func TestReconstructorCreate(t *testing.T) {
	r := newTestReconstructor()

	assert.Nil(t, r.Observe(&event.Event{Kind: event.KindCallStart, CallID: "1", ToolName: "create_file"}))
	assert.Nil(t, r.Observe(&event.Event{Kind: event.KindCallDelta, CallID: "1", Fragment: `{"file_path":"a.tsx",`}))
	assert.Nil(t, r.Observe(&event.Event{Kind: event.KindCallDelta, CallID: "1", Fragment: `"content":"hi"}`}))

	op := r.Observe(&event.Event{Kind: event.KindCallComplete, CallID: "1"})
	require.NotNil(t, op)
	assert.Equal(t, Create{Path: "a.tsx", Content: "hi"}, op)
	assert.Zero(t, r.Pending())
}

func TestReconstructorEdit(t *testing.T) {
	r := newTestReconstructor()

	args := `{"file_path":"a.tsx","diff":{"hunks":[{"search":"x","replace":"y"}]}}`
	r.Observe(&event.Event{Kind: event.KindCallStart, CallID: "7", ToolName: "edit_file"})
	r.Observe(&event.Event{Kind: event.KindCallDelta, CallID: "7", Fragment: args})

	op := r.Observe(&event.Event{Kind: event.KindCallComplete, CallID: "7"})
	require.NotNil(t, op)
	assert.Equal(t, Edit{
		Path: "a.tsx",
		Diff: patch.Diff{Hunks: []patch.Hunk{{Search: "x", Replace: "y"}}},
	}, op)
}

func TestReconstructorDelete(t *testing.T) {
	r := newTestReconstructor()

	r.Observe(&event.Event{Kind: event.KindCallStart, CallID: "9", ToolName: "delete_file"})
	r.Observe(&event.Event{Kind: event.KindCallDelta, CallID: "9", Fragment: `{"file_path":"old.css"}`})

	op := r.Observe(&event.Event{Kind: event.KindCallComplete, CallID: "9"})
	assert.Equal(t, Delete{Path: "old.css"}, op)
}

func TestReconstructorIgnoresUnknownCallID(t *testing.T) {
	r := newTestReconstructor()

	assert.Nil(t, r.Observe(&event.Event{Kind: event.KindCallDelta, CallID: "ghost", Fragment: "{}"}))
	assert.Nil(t, r.Observe(&event.Event{Kind: event.KindCallComplete, CallID: "ghost"}))
	assert.Zero(t, r.Pending())
}

func TestReconstructorMalformedArguments(t *testing.T) {
	r := newTestReconstructor()

	r.Observe(&event.Event{Kind: event.KindCallStart, CallID: "1", ToolName: "create_file"})
	r.Observe(&event.Event{Kind: event.KindCallDelta, CallID: "1", Fragment: `{"file_path": oops`})

	// Undecodable arguments produce nothing, and the call is consumed.
	assert.Nil(t, r.Observe(&event.Event{Kind: event.KindCallComplete, CallID: "1"}))
	assert.Zero(t, r.Pending())
}

func TestReconstructorUnknownTool(t *testing.T) {
	r := newTestReconstructor()

	r.Observe(&event.Event{Kind: event.KindCallStart, CallID: "1", ToolName: "run_shell"})
	r.Observe(&event.Event{Kind: event.KindCallDelta, CallID: "1", Fragment: `{"cmd":"rm -rf /"}`})

	assert.Nil(t, r.Observe(&event.Event{Kind: event.KindCallComplete, CallID: "1"}))
}

func TestReconstructorReusedIDLastStartWins(t *testing.T) {
	r := newTestReconstructor()

	r.Observe(&event.Event{Kind: event.KindCallStart, CallID: "1", ToolName: "create_file"})
	r.Observe(&event.Event{Kind: event.KindCallDelta, CallID: "1", Fragment: `{"file_path":"first"`})
	r.Observe(&event.Event{Kind: event.KindCallStart, CallID: "1", ToolName: "delete_file"})
	r.Observe(&event.Event{Kind: event.KindCallDelta, CallID: "1", Fragment: `{"file_path":"second.ts"}`})

	op := r.Observe(&event.Event{Kind: event.KindCallComplete, CallID: "1"})
	assert.Equal(t, Delete{Path: "second.ts"}, op)
}

func TestRegistryExtension(t *testing.T) {
	registry := NewRegistry()
	registry.Register("touch_file", func(args []byte) (Op, error) {
		var a struct {
			FilePath string `json:"file_path"`
		}
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, err
		}
		return Create{Path: a.FilePath}, nil
	})

	r := NewReconstructor(registry, zap.NewNop())
	r.Observe(&event.Event{Kind: event.KindCallStart, CallID: "1", ToolName: "touch_file"})
	r.Observe(&event.Event{Kind: event.KindCallDelta, CallID: "1", Fragment: `{"file_path":"empty.ts"}`})

	op := r.Observe(&event.Event{Kind: event.KindCallComplete, CallID: "1"})
	assert.Equal(t, Create{Path: "empty.ts"}, op)
}
