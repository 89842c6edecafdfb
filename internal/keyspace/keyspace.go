// Package keyspace implements the ordered array of per-database hash maps.
// Keys are compared byte-wise; a Go string already gives exact byte-wise
// equality and hashing, so each Database is a plain
// map[string]*object.Value rather than a wrapped byte-string object per
// key.
package keyspace

import (
	"fmt"
	"math/rand"

	"github.com/sandia-minimega/minikv/internal/object"
)

// Database is one logical keyspace: a hash map from key to value-object.
type Database struct {
	m map[string]*object.Value
}

func newDatabase() *Database {
	return &Database{m: make(map[string]*object.Value)}
}

// Get returns the value stored at key, if any.
func (d *Database) Get(key string) (*object.Value, bool) {
	v, ok := d.m[key]
	return v, ok
}

// Set stores val at key, releasing whatever was previously there. The
// caller transfers ownership of one reference to val.
func (d *Database) Set(key string, val *object.Value) {
	if old, ok := d.m[key]; ok {
		old.Release()
	}
	d.m[key] = val
}

// Delete removes key, releasing its value. Reports whether the key existed.
func (d *Database) Delete(key string) bool {
	old, ok := d.m[key]
	if !ok {
		return false
	}
	old.Release()
	delete(d.m, key)
	return true
}

// Take removes key without releasing the value, handing ownership of the
// held reference to the caller. Used by RENAME/MOVE, which relocate a value
// from one map (or key) to another without a Retain/Release round-trip.
func (d *Database) Take(key string) (*object.Value, bool) {
	v, ok := d.m[key]
	if ok {
		delete(d.m, key)
	}
	return v, ok
}

// Exists reports whether key is present.
func (d *Database) Exists(key string) bool {
	_, ok := d.m[key]
	return ok
}

// Len returns the number of keys (DBSIZE).
func (d *Database) Len() int {
	return len(d.m)
}

// RandomKey returns a uniformly-sampled existing key, or ("", false) if the
// database is empty. Go's map iteration order is randomized per-run, which
// is sufficient for RANDOMKEY's "some live key" contract without needing a
// dedicated sampling structure.
func (d *Database) RandomKey() (string, bool) {
	if len(d.m) == 0 {
		return "", false
	}
	n := rand.Intn(len(d.m))
	i := 0
	for k := range d.m {
		if i == n {
			return k, true
		}
		i++
	}
	for k := range d.m {
		return k, true
	}
	return "", false
}

// Keys returns every key currently stored, in map iteration order (used by
// KEYS, which glob-filters the result; order is not part of the contract).
func (d *Database) Keys() []string {
	out := make([]string, 0, len(d.m))
	for k := range d.m {
		out = append(out, k)
	}
	return out
}

// Flush removes and releases every entry.
func (d *Database) Flush() {
	for k, v := range d.m {
		v.Release()
		delete(d.m, k)
	}
}

// Clone returns a shallow copy of the map: the same value-object pointers,
// each with its refcount bumped, so a background save can enumerate a
// frozen view while the live Database keeps mutating.
func (d *Database) Clone() *Database {
	nd := newDatabase()
	for k, v := range d.m {
		nd.m[k] = v.Retain()
	}
	return nd
}

// Keyspace is the ordered array of N Databases.
type Keyspace struct {
	dbs []*Database
}

// New builds a Keyspace with n logical databases (n >= 1).
func New(n int) *Keyspace {
	if n < 1 {
		n = 1
	}
	ks := &Keyspace{dbs: make([]*Database, n)}
	for i := range ks.dbs {
		ks.dbs[i] = newDatabase()
	}
	return ks
}

// N returns the number of databases.
func (k *Keyspace) N() int { return len(k.dbs) }

// DB returns database i, or an error if i is out of range (SELECT/MOVE's
// "-ERR invalid DB index" / "-4" paths).
func (k *Keyspace) DB(i int) (*Database, error) {
	if i < 0 || i >= len(k.dbs) {
		return nil, fmt.Errorf("invalid DB index")
	}
	return k.dbs[i], nil
}

// Snapshot returns a frozen, reference-counted clone of every database, for
// a background save to enumerate without racing the live keyspace.
func (k *Keyspace) Snapshot() []*Database {
	out := make([]*Database, len(k.dbs))
	for i, d := range k.dbs {
		out[i] = d.Clone()
	}
	return out
}

// ReleaseSnapshot drops the references a Snapshot held, once the background
// save that consumed it has finished.
func ReleaseSnapshot(dbs []*Database) {
	for _, d := range dbs {
		d.Flush()
	}
}
