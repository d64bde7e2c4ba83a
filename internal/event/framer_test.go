package event

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		line string
		want *Event
	}{
		{
			name: "call start",
			line: `data: {"type":"tool-input-start","toolCallId":"c1","toolName":"create_file"}` + "\n",
			want: &Event{Kind: KindCallStart, CallID: "c1", ToolName: "create_file"},
		},
		{
			name: "call delta",
			line: `data: {"type":"tool-input-delta","toolCallId":"c1","inputTextDelta":"{\"file_"}` + "\n",
			want: &Event{Kind: KindCallDelta, CallID: "c1", Fragment: `{"file_`},
		},
		{
			name: "call complete",
			line: `data: {"type":"tool-output-available","toolCallId":"c1"}` + "\n",
			want: &Event{Kind: KindCallComplete, CallID: "c1"},
		},
		{
			name: "finish",
			line: `data: {"type":"finish"}` + "\n",
			want: &Event{Kind: KindFinished},
		},
		{
			name: "unknown discriminator is other",
			line: `data: {"type":"text-delta","delta":"hello"}` + "\n",
			want: &Event{Kind: KindOther},
		},
		{
			name: "no marker",
			line: "event: message\n",
			want: nil,
		},
		{
			name: "blank line",
			line: "\n",
			want: nil,
		},
		{
			name: "empty payload",
			line: "data: \n",
			want: nil,
		},
		{
			name: "malformed JSON",
			line: `data: {"type":"finish"` + "\n",
			want: nil,
		},
		{
			name: "garbage",
			line: "\x00\x01 not even text\n",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decode([]byte(tt.line)))
		})
	}
}

func TestFramerPreservesRawBytes(t *testing.T) {
	input := "data: {\"type\":\"finish\"}\n" +
		"garbage that is not an event\n" +
		"data: {broken json\n" +
		"\n"

	framer := NewFramer(strings.NewReader(input))

	var relayed strings.Builder
	for {
		frame, err := framer.Next()
		relayed.Write(frame.Raw)
		if err != nil {
			require.ErrorIs(t, err, io.EOF)
			break
		}
	}

	assert.Equal(t, input, relayed.String())
}

func TestFramerReturnsPartialFinalLine(t *testing.T) {
	framer := NewFramer(strings.NewReader("no trailing newline"))

	frame, err := framer.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "no trailing newline", string(frame.Raw))
}

func TestFramerDecodesDataFrames(t *testing.T) {
	framer := NewFramer(strings.NewReader("data: {\"type\":\"finish\"}\nplain prose\n"))

	frame, err := framer.Next()
	require.NoError(t, err)
	require.NotNil(t, frame.Event)
	assert.Equal(t, KindFinished, frame.Event.Kind)

	frame, err = framer.Next()
	require.NoError(t, err)
	assert.Nil(t, frame.Event)
}
