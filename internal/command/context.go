package command

import "github.com/sandia-minimega/minikv/internal/keyspace"

// Engine is the subset of server state a handler needs. internal/server's
// single mutator goroutine implements this directly against its own
// keyspace/snapshot/config state; handlers never touch a lock because
// every call into Engine already runs on that one goroutine.
type Engine interface {
	// DB returns the database currently selected for this client.
	DB() *keyspace.Database
	DBIndex() int
	// SelectDB switches the client's selected database (SELECT).
	SelectDB(i int) error
	// Keyspace exposes the full array, needed by MOVE.
	Keyspace() *keyspace.Keyspace

	// MarkDirty records one write operation on the dirty counter.
	MarkDirty()
	Dirty() int64

	// Save performs a synchronous snapshot; BGSave starts one in the
	// background, failing if one is already in flight.
	Save() error
	BGSave() error
	SaveInProgress() bool
	LastSave() int64

	// Shutdown performs SAVE then terminates the process; it only returns
	// if the save failed (the caller replies with an error instead of
	// exiting).
	Shutdown() error

	// ConfigGet looks up one of the introspectable config directives.
	ConfigGet(name string) (string, bool)

	// Info renders the bulk status summary for INFO.
	Info() string
}
