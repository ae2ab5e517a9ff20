// Package ioutil supplies the CountingWriter helper used to capture exact
// body lengths while encoding CIM-XML requests and while transporting
// request/response bodies, as required for the client's statistics.
package ioutil

import (
	"fmt"
	"io"
	"sync"

	"braces.dev/errtrace"
)

// CountingWriter wraps an io.Writer and tracks the total number of bytes
// written, plus the first error encountered. It lets RenderTo-style
// implementations chain writes without manually accumulating byte counts.
type CountingWriter struct {
	w   io.Writer
	num int
	err error
}

// NewCountingWriter creates a new CountingWriter wrapping w.
func NewCountingWriter(w io.Writer) *CountingWriter {
	return &CountingWriter{w: w}
}

// Write implements io.Writer.
func (cw *CountingWriter) Write(p []byte) (n int, err error) {
	if cw.err != nil {
		return 0, errtrace.Wrap(cw.err)
	}
	n, err = cw.w.Write(p)
	cw.num += n
	if err != nil {
		cw.err = errtrace.Wrap(err)
		return n, errtrace.Wrap(cw.err)
	}
	return n, nil
}

// WriteString writes s and tracks bytes written.
func (cw *CountingWriter) WriteString(s string) (n int, err error) {
	if cw.err != nil {
		return 0, errtrace.Wrap(cw.err)
	}
	n, err = io.WriteString(cw.w, s)
	cw.num += n
	if err != nil {
		cw.err = errtrace.Wrap(err)
		return n, errtrace.Wrap(cw.err)
	}
	return n, nil
}

// Fprintf writes a formatted string and tracks bytes written.
func (cw *CountingWriter) Fprintf(format string, args ...any) (n int, err error) {
	if cw.err != nil {
		return 0, errtrace.Wrap(cw.err)
	}
	n, err = fmt.Fprintf(cw.w, format, args...)
	cw.num += n
	if err != nil {
		cw.err = errtrace.Wrap(err)
		return n, errtrace.Wrap(cw.err)
	}
	return n, nil
}

// Call invokes a RenderTo-style function and tracks bytes written, useful
// for chaining nested element encoders.
func (cw *CountingWriter) Call(fn func(io.Writer) (int, error)) *CountingWriter {
	if cw.err != nil {
		return cw
	}
	n, err := fn(cw.w)
	cw.num += n
	if err != nil {
		cw.err = errtrace.Wrap(err)
	}
	return cw
}

// Result returns the total bytes written so far and any error encountered.
func (cw *CountingWriter) Result() (num int, err error) {
	return cw.num, errtrace.Wrap(cw.err)
}

// Count returns the total number of bytes written so far.
func (cw *CountingWriter) Count() int { return cw.num }

var cntWrtPool = &sync.Pool{
	New: func() any { return &CountingWriter{} },
}

// GetCountingWriter returns a pooled CountingWriter wrapping w.
func GetCountingWriter(w io.Writer) *CountingWriter {
	cw := cntWrtPool.Get().(*CountingWriter) //nolint:forcetypeassert
	cw.w = w
	return cw
}

// FreeCountingWriter resets cw and returns it to the pool.
func FreeCountingWriter(cw *CountingWriter) {
	cw.w = nil
	cw.num = 0
	cw.err = nil
	cntWrtPool.Put(cw)
}

// CountingReader wraps an io.Reader and tracks the total number of bytes
// read, used on the transport's receive path to capture exact reply length.
type CountingReader struct {
	r   io.Reader
	num int
}

// NewCountingReader creates a new CountingReader wrapping r.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{r: r}
}

// Read implements io.Reader.
func (cr *CountingReader) Read(p []byte) (n int, err error) {
	n, err = cr.r.Read(p)
	cr.num += n
	return n, err //nolint:wrapcheck
}

// Count returns the total number of bytes read so far.
func (cr *CountingReader) Count() int { return cr.num }
