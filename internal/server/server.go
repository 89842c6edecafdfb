// Package server ties internal/proto, internal/command, internal/keyspace
// and internal/snapshot together: an accept loop, a per-connection parser,
// and a cron that reaps idle clients and evaluates the snapshot rules.
// Every connection gets its own goroutine that blocks on normal I/O, but
// every keyspace mutation is funneled through one dedicated engine
// goroutine via a channel, so the keyspace only ever has a single mutator.
package server

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/netutil"

	"github.com/sandia-minimega/minikv/internal/config"
	"github.com/sandia-minimega/minikv/internal/keyspace"
	"github.com/sandia-minimega/minikv/internal/minilog"
	"github.com/sandia-minimega/minikv/internal/snapshot"
)

// job is one unit of work run on the engine goroutine: every command
// dispatch and every administrative state change (save bookkeeping,
// SELECT) passes through here so the keyspace never sees concurrent
// mutation.
type job struct {
	fn   func()
	done chan struct{}
}

// Server owns the keyspace, the snapshot path and every connected client.
type Server struct {
	cfg *config.Config
	ks  *keyspace.Keyspace

	rdbPath string

	dirty            atomic.Int64
	lastSave         atomic.Int64
	bgSaveInProgress atomic.Bool

	jobs chan job
	quit chan struct{}

	clientsMu sync.Mutex
	clients   map[uint64]*Client
	nextID    uint64

	ln net.Listener

	// bgSaveResults carries the outcome of an in-flight background save
	// back to the cron, which drains it non-blockingly once per tick.
	bgSaveResults chan bgSaveResult
}

// New builds a Server from cfg, loading any existing dump.rdb in cfg.Dir.
// A missing dump file is not an error; the server starts empty.
func New(cfg *config.Config) (*Server, error) {
	if cfg.Dir != "" && cfg.Dir != "." {
		if err := os.Chdir(cfg.Dir); err != nil {
			return nil, fmt.Errorf("chdir %s: %w", cfg.Dir, err)
		}
	}

	s := &Server{
		cfg:           cfg,
		ks:            keyspace.New(cfg.Databases),
		rdbPath:       "dump.rdb",
		jobs:          make(chan job, 64),
		quit:          make(chan struct{}),
		clients:       make(map[uint64]*Client),
		bgSaveResults: make(chan bgSaveResult, 1),
	}
	s.lastSave.Store(time.Now().Unix())

	if err := snapshot.Load(s.rdbPath, s.ks); err != nil {
		return nil, fmt.Errorf("loading %s: %w", s.rdbPath, err)
	}

	go s.engineLoop()
	go s.cron()

	return s, nil
}

// engineLoop is the single mutator goroutine: every job (command dispatch,
// SAVE bookkeeping) runs here, one at a time, to completion. Jobs never
// block on network I/O; replies are buffered and written back by the
// submitting connection's own goroutine.
func (s *Server) engineLoop() {
	for {
		select {
		case j := <-s.jobs:
			j.fn()
			close(j.done)
		case <-s.quit:
			return
		}
	}
}

// submit runs fn on the engine goroutine and blocks until it completes.
func (s *Server) submit(fn func()) {
	done := make(chan struct{})
	select {
	case s.jobs <- job{fn: fn, done: done}:
		<-done
	case <-s.quit:
	}
}

// Listen binds cfg.Bind:cfg.Port, wrapping the listener in a
// netutil.LimitListener so a connection storm degrades by refusing new
// accepts rather than exhausting file descriptors one idle-reap at a time.
func (s *Server) Listen() error {
	addr := net.JoinHostPort(s.cfg.Bind, strconv.Itoa(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	if s.cfg.MaxClients > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxClients)
	}
	s.ln = ln
	minilog.Info("listening on %s", addr)
	return nil
}

// Addr returns the address the listener is bound to, useful for tests that
// listen on port 0 and need to discover the assigned port.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Serve accepts connections until the listener closes. It returns nil on a
// clean shutdown (Close called) and the accept error otherwise.
func (s *Server) Serve() error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return nil
			default:
				return err
			}
		}
		if tc, ok := conn.(*net.TCPConn); ok {
			tc.SetNoDelay(true)
		}
		go s.handleConn(conn)
	}
}

// Close stops accepting connections and tears down the engine goroutine.
// It does not wait for in-flight client goroutines to exit.
func (s *Server) Close() {
	close(s.quit)
	if s.ln != nil {
		s.ln.Close()
	}
}

func (s *Server) markDirty() {
	s.dirty.Add(1)
}

func (s *Server) clientCount() int {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return len(s.clients)
}

// saveForeground is the synchronous SAVE path. It runs directly on the
// engine goroutine (the caller is always a command handler already running
// there), so the keyspace it serializes can't change underneath it.
func (s *Server) saveForeground() error {
	if err := snapshot.Save(s.rdbPath, s.currentDatabases()); err != nil {
		return err
	}
	s.dirty.Store(0)
	s.lastSave.Store(time.Now().Unix())
	return nil
}

func (s *Server) currentDatabases() []*keyspace.Database {
	out := make([]*keyspace.Database, s.ks.N())
	for i := range out {
		out[i], _ = s.ks.DB(i)
	}
	return out
}

// saveBackground starts an asynchronous snapshot without blocking command
// dispatch. Keyspace.Snapshot takes a shallow, reference-counted clone
// of every database (cheap, it doesn't copy payloads) and a separate
// goroutine serializes that frozen view while the engine goroutine keeps
// mutating the live keyspace. internal/command's ensureOwned helper is what
// keeps a live mutation from corrupting the frozen view: any LPUSH/SADD/etc
// against a container the snapshot still references clones it first.
//
// Callers must already be running on the engine goroutine (via submit):
// Keyspace.Snapshot walks every database's live map and would race a
// concurrent command's mutation otherwise.
func (s *Server) saveBackground() error {
	if s.bgSaveInProgress.Load() {
		return fmt.Errorf("background save already in progress")
	}
	s.bgSaveInProgress.Store(true)

	frozen := s.ks.Snapshot()
	go func() {
		err := snapshot.Save(s.rdbPath, frozen)
		keyspace.ReleaseSnapshot(frozen)
		s.bgSaveResults <- bgSaveResult{err: err, at: time.Now()}
	}()
	return nil
}

type bgSaveResult struct {
	err error
	at  time.Time
}

// shutdown runs a synchronous save then exits the process. It only returns
// (with an error) if the save failed; the caller replies with the error
// instead of exiting.
func (s *Server) shutdown() error {
	if err := s.saveForeground(); err != nil {
		return err
	}
	minilog.Info("shutting down after successful save")
	os.Exit(0)
	return nil // unreachable
}
