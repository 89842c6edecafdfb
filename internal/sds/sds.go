// Package sds implements a small growable byte-string buffer. It backs
// string-typed values: a mutable byte buffer with the handful of
// operations the command set actually needs (append, trim-to-range,
// split-on-space).
package sds

import "bytes"

// Buf is a mutable byte-string. The zero value is an empty buffer.
type Buf struct {
	b []byte
}

// New returns a Buf initialized with a copy of b.
func New(b []byte) *Buf {
	return &Buf{b: append([]byte(nil), b...)}
}

// NewString returns a Buf initialized from a string.
func NewString(s string) *Buf {
	return &Buf{b: []byte(s)}
}

// Bytes returns the buffer's current content. Callers must not mutate the
// returned slice; it aliases the Buf's storage.
func (s *Buf) Bytes() []byte {
	if s == nil {
		return nil
	}
	return s.b
}

// Len returns the number of bytes currently stored.
func (s *Buf) Len() int {
	if s == nil {
		return 0
	}
	return len(s.b)
}

// Set replaces the buffer's content wholesale.
func (s *Buf) Set(b []byte) {
	s.b = append([]byte(nil), b...)
}

// Append concatenates b onto the end of the buffer, growing as needed.
func (s *Buf) Append(b []byte) {
	s.b = append(s.b, b...)
}

// Clone returns a new Buf with an independent copy of the content, used
// whenever a value must be duplicated rather than shared (e.g.
// object.Value.Clone's copy-on-write during a background save).
func (s *Buf) Clone() *Buf {
	if s == nil {
		return nil
	}
	return New(s.b)
}

// Trim keeps only the byte range [start, end), clamping to the buffer's
// bounds.
func (s *Buf) Trim(start, end int) {
	if start < 0 {
		start = 0
	}
	if end > len(s.b) {
		end = len(s.b)
	}
	if start >= end {
		s.b = s.b[:0]
		return
	}
	s.b = append([]byte(nil), s.b[start:end]...)
}

// Split tokenizes the buffer on single spaces. internal/proto implements
// the bounded, argv-aware version; this is the generic primitive.
func (s *Buf) Split() [][]byte {
	if s == nil || len(s.b) == 0 {
		return nil
	}
	return bytes.Split(s.b, []byte{' '})
}

// Equal reports whether two buffers hold identical content.
func (s *Buf) Equal(o *Buf) bool {
	return bytes.Equal(s.Bytes(), o.Bytes())
}
