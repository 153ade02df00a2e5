package frame

import "bytes"

// Extractor locates frames in an append-only byte stream: it buffers
// partial reads and only yields a complete unit once the terminator
// has arrived.
//
// Extractor is not safe for concurrent use; each Connection owns one.
type Extractor struct {
	buf []byte
}

// NewExtractor returns an empty Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Feed appends newly read bytes to the internal buffer.
func (e *Extractor) Feed(b []byte) {
	e.buf = append(e.buf, b...)
}

// Next pops the next complete frame out of the buffer, tolerating
// stray whitespace/NUL bytes between frames. It returns ok=false when
// no complete frame is available yet (the caller should Feed more
// bytes and retry). A malformed leading run (starts with '*' but never
// reaches '##' within MaxFrameSize) is discarded and reported as a
// MalformedFrame error so the stream can resynchronize on the next
// '*'; Next can then be called again immediately.
func (e *Extractor) Next() (f Frame, ok bool, err error) {
	for {
		// Skip stray separators before a frame start.
		start := bytes.IndexByte(e.buf, '*')
		if start < 0 {
			e.buf = e.buf[:0]
			return Frame{}, false, nil
		}
		if start > 0 {
			e.buf = e.buf[start:]
		}

		end := bytes.Index(e.buf, []byte("##"))
		if end < 0 {
			if len(e.buf) > MaxFrameSize {
				// Desynced: drop up to (not including) the next '*' and
				// surface a malformed-frame error; resume scanning.
				bad := e.buf[0]
				_ = bad
				next := bytes.IndexByte(e.buf[1:], '*')
				if next < 0 {
					discarded := e.buf
					e.buf = e.buf[:0]
					return Frame{}, false, errMalformedDiscard(discarded)
				}
				discarded := e.buf[:1+next]
				e.buf = e.buf[1+next:]
				return Frame{}, false, errMalformedDiscard(discarded)
			}
			return Frame{}, false, nil
		}

		raw := e.buf[:end+2]
		e.buf = e.buf[end+2:]

		parsed, perr := Parse(raw)
		if perr != nil {
			// Not resynchronizable as-is; continue scanning past it so a
			// single bad frame doesn't wedge the stream.
			return Frame{}, false, perr
		}
		return parsed, true, nil
	}
}

func errMalformedDiscard(discarded []byte) error {
	return &discardError{n: len(discarded)}
}

type discardError struct{ n int }

func (e *discardError) Error() string {
	return ErrMalformedFrame.Error() + ": discarded unterminated run"
}

func (e *discardError) Unwrap() error { return ErrMalformedFrame }
