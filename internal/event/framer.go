package event

import (
	"bufio"
	"io"
)

// Frame is one raw line of the stream plus its decoded event, if any.
type Frame struct {
	Raw   []byte
	Event *Event
}

// Framer reads an agent stream line by line. It never drops bytes: every
// line comes back verbatim in Frame.Raw whether or not it decodes.
type Framer struct {
	reader *bufio.Reader
}

func NewFramer(r io.Reader) *Framer {
	return &Framer{reader: bufio.NewReader(r)}
}

// Next returns the next frame. When the stream ends without a trailing
// newline the partial line is returned together with io.EOF so the caller
// can relay it before stopping.
func (f *Framer) Next() (Frame, error) {
	line, err := f.reader.ReadBytes('\n')
	fr := Frame{Raw: line}
	if len(line) > 0 {
		fr.Event = Decode(line)
	}
	return fr, err
}
