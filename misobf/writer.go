package misobf

import (
	"io"

	"github.com/grailbio/base/tsv"
)

// Writer writes Events in their reformatted form, one per line. Each line is
// byte-identical to Event.String followed by a newline.
type Writer struct {
	w *tsv.Writer
	n int
}

// NewWriter creates a Writer that writes to w. Flush must be called after the
// last Write.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: tsv.NewWriter(w)}
}

// Write appends one event.
func (w *Writer) Write(e *Event) error {
	for _, f := range e.Fields() {
		w.w.WriteString(f)
	}
	w.n++
	return w.w.EndLine()
}

// Count returns the number of events written.
func (w *Writer) Count() int { return w.n }

// Flush writes out any buffered data.
func (w *Writer) Flush() error { return w.w.Flush() }
