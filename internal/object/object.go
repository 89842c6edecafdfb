// Package object implements the tagged-union value type shared by
// snapshot views and the keyspace. Every Value carries a refcount: new
// values start at 1, Retain bumps it, Release drops it and tears the
// payload down at zero. Object headers are recycled through a process-wide
// sync.Pool so the hot paths (SET/GET/LPUSH churn) don't pay a fresh
// allocation every time.
package object

import (
	"sync"
	"sync/atomic"

	"github.com/sandia-minimega/minikv/internal/dlist"
	"github.com/sandia-minimega/minikv/internal/sds"
)

// Type tags the payload a Value carries.
type Type int

const (
	TypeString Type = iota
	TypeList
	TypeSet
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeList:
		return "list"
	case TypeSet:
		return "set"
	}
	return "none"
}

// Value is a refcounted, tagged-union container. Only String/List/Set of
// the matching tag are valid to read; the others are nil.
type Value struct {
	typ  Type
	str  *sds.Buf
	list *dlist.List
	set  map[string]struct{}

	refs int32
}

var pool = sync.Pool{
	New: func() interface{} { return new(Value) },
}

func alloc() *Value {
	v := pool.Get().(*Value)
	v.typ = TypeString
	v.str = nil
	v.list = nil
	v.set = nil
	v.refs = 1
	return v
}

// NewString returns a new string Value with refcount 1, owning a copy of b.
func NewString(b []byte) *Value {
	v := alloc()
	v.typ = TypeString
	v.str = sds.New(b)
	return v
}

// NewStringBuf adopts an existing *sds.Buf without copying (used by
// Clone, which has already made a fresh copy of the buffer).
func NewStringBuf(b *sds.Buf) *Value {
	v := alloc()
	v.typ = TypeString
	v.str = b
	return v
}

// NewList returns a new, empty list Value with refcount 1.
func NewList() *Value {
	v := alloc()
	v.typ = TypeList
	v.list = dlist.New()
	return v
}

// NewSet returns a new, empty set Value with refcount 1.
func NewSet() *Value {
	v := alloc()
	v.typ = TypeSet
	v.set = make(map[string]struct{})
	return v
}

// Type reports the tag.
func (v *Value) Type() Type { return v.typ }

// Str returns the string payload (nil if v is not a string).
func (v *Value) Str() *sds.Buf { return v.str }

// List returns the list payload (nil if v is not a list).
func (v *Value) List() *dlist.List { return v.list }

// Set returns the set payload (nil if v is not a set).
func (v *Value) Set() map[string]struct{} { return v.set }

// Retain increments the refcount and returns v, for assignment into a new
// holder (a snapshot's cloned map, see keyspace.Database.Clone).
func (v *Value) Retain() *Value {
	atomic.AddInt32(&v.refs, 1)
	return v
}

// Shared reports whether any holder besides the caller's own reference
// might be observing v, i.e. refcount > 1. List/set handlers must check
// this before mutating the payload in place; when Shared returns true the
// handler must Clone the payload, mutate the clone, and replace the
// keyspace entry with it instead.
func (v *Value) Shared() bool {
	return atomic.LoadInt32(&v.refs) > 1
}

// Release drops a reference. At zero, the payload is torn down and the
// bare header is returned to the freelist. Callers must not Release a
// reference they don't own: teardown happens exactly once.
func (v *Value) Release() {
	if v == nil {
		return
	}
	if atomic.AddInt32(&v.refs, -1) != 0 {
		return
	}
	v.str = nil
	v.list = nil
	v.set = nil
	pool.Put(v)
}

// Clone returns a new, independently-owned Value with refcount 1 and a
// deep copy of the payload, used for copy-on-write mutation of a shared
// container.
func (v *Value) Clone() *Value {
	switch v.typ {
	case TypeString:
		return NewStringBuf(v.str.Clone())
	case TypeList:
		nv := alloc()
		nv.typ = TypeList
		nv.list = v.list.Clone()
		return nv
	case TypeSet:
		nv := alloc()
		nv.typ = TypeSet
		nv.set = make(map[string]struct{}, len(v.set))
		for k := range v.set {
			nv.set[k] = struct{}{}
		}
		return nv
	}
	return nil
}

// Bytes returns the raw byte content for a string Value; callers on other
// types get nil. Used by GET, INCR/DECR and the snapshot writer.
func (v *Value) Bytes() []byte {
	if v == nil || v.typ != TypeString {
		return nil
	}
	return v.str.Bytes()
}
