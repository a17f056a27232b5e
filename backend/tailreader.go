package backend

import (
	"bufio"
	"io"
)

// tailReader yields only whole newline-terminated lines from a reader that
// may still be growing. An unterminated trailing line is held back, and EOF
// reported, until its terminator arrives, so a CSV parser downstream never
// sees half a record.
type tailReader struct {
	r *bufio.Reader
	// pending holds completed-line bytes not yet handed out; partial
	// accumulates an unterminated trailing line across reads.
	pending []byte
	partial []byte
}

var _ io.Reader = (*tailReader)(nil)

func NewTailReader(r io.Reader) io.Reader {
	return &tailReader{r: bufio.NewReader(r)}
}

func (t *tailReader) Read(b []byte) (int, error) {
	if len(t.pending) == 0 {
		line, err := t.r.ReadBytes('\n')
		if err != nil {
			t.partial = append(t.partial, line...)
			return 0, io.EOF
		}
		t.pending = append(t.pending, t.partial...)
		t.partial = t.partial[:0]
		t.pending = append(t.pending, line...)
	}
	n := copy(b, t.pending)
	t.pending = t.pending[:copy(t.pending, t.pending[n:])]
	return n, nil
}
