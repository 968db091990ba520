package misobf

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
)

// Reader reads Events from a miso_bf file. Its interface follows
// bufio.Scanner:
//
//   r, err := misobf.NewReader(in)
//   ...
//   for r.Scan() {
//     ev := r.Event()
//     ...
//   }
//   if err := r.Err(); err != nil { ... }
//
// Blank lines are skipped. Scan stops at the first malformed line unless
// SkipMalformed is set. Not thread safe.
type Reader struct {
	// SkipMalformed causes Scan to log and count lines that fail to parse
	// instead of stopping.
	SkipMalformed bool

	sc      *bufio.Scanner
	header  Header
	lineNo  int
	ev      *Event
	err     error
	skipped int

	// Set only by Open.
	in file.File
}

const maxLineLen = 16 << 20

// NewReader reads the header line from in and returns a Reader positioned at
// the first data line. The header must contain every column in
// RequiredColumns.
func NewReader(in io.Reader) (*Reader, error) {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineLen)
	r := &Reader{sc: sc}
	for sc.Scan() {
		r.lineNo++
		if strings.TrimSpace(sc.Text()) == "" {
			continue
		}
		r.header = ParseHeader(sc.Text())
		if err := r.header.Validate(); err != nil {
			return nil, err
		}
		return r, nil
	}
	if err := sc.Err(); err != nil {
		return nil, errors.E(err, "read miso_bf header")
	}
	return nil, errors.E(KindMalformed, "miso_bf file has no header line")
}

// Open opens the miso_bf file at path, decompressing it if its name says it
// is compressed. The caller must call Close.
func Open(ctx context.Context, path string) (*Reader, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	var inr io.Reader = in.Reader(ctx)
	if u := compress.NewReaderPath(inr, in.Name()); u != nil {
		inr = u
	}
	r, err := NewReader(inr)
	if err != nil {
		in.Close(ctx) // nolint: errcheck
		return nil, errors.E(err, path)
	}
	r.in = in
	return r, nil
}

// Close releases the file opened by Open. It is a no-op for Readers created
// by NewReader.
func (r *Reader) Close(ctx context.Context) error {
	if r.in == nil {
		return nil
	}
	err := r.in.Close(ctx)
	r.in = nil
	return err
}

// Header returns the header of the file.
func (r *Reader) Header() Header { return r.header }

// Scan reads the next Event. It returns false at the end of the input or on
// error.
func (r *Reader) Scan() bool {
	if r.err != nil {
		return false
	}
	for r.sc.Scan() {
		r.lineNo++
		line := r.sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		ev, err := ParseEvent(line, r.header)
		if err != nil {
			err = errors.E(err, fmt.Sprintf("line %d", r.lineNo))
			if r.SkipMalformed && IsMalformed(err) {
				log.Printf("misobf: skipping %v", err)
				r.skipped++
				continue
			}
			r.err = err
			return false
		}
		r.ev = ev
		return true
	}
	r.err = r.sc.Err()
	return false
}

// Event returns the Event read by the last successful Scan.
func (r *Reader) Event() *Event { return r.ev }

// Err returns the first error encountered, or nil at a clean end of input.
func (r *Reader) Err() error { return r.err }

// Skipped returns the number of malformed lines skipped so far.
func (r *Reader) Skipped() int { return r.skipped }

// ParseLines parses lines against header using up to parallelism goroutines.
// The i'th result corresponds to lines[i]. On error, ParseLines returns the
// first error reported by any goroutine; line numbers in it are 1-based
// indexes into lines.
func ParseLines(header Header, lines []string, parallelism int) ([]*Event, error) {
	if parallelism <= 0 {
		parallelism = 1
	}
	if parallelism > len(lines) {
		parallelism = len(lines)
	}
	events := make([]*Event, len(lines))
	err := traverse.Each(parallelism, func(jobIdx int) error {
		startIdx := (jobIdx * len(lines)) / parallelism
		endIdx := ((jobIdx + 1) * len(lines)) / parallelism
		for i := startIdx; i < endIdx; i++ {
			ev, err := ParseEvent(lines[i], header)
			if err != nil {
				return errors.E(err, fmt.Sprintf("line %d", i+1))
			}
			events[i] = ev
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}
