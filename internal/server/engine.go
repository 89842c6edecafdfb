package server

import (
	"fmt"
	"strings"

	"github.com/sandia-minimega/minikv/internal/keyspace"
)

// clientEngine adapts one connection's selected-database state onto the
// server's shared keyspace/snapshot/config state, giving internal/command
// exactly the command.Engine surface it needs. Every call into it runs on
// the single engine goroutine (see Server.engineLoop), so DBIndex/SelectDB
// need no locking even though many clientEngines exist concurrently.
type clientEngine struct {
	s       *Server
	dbIndex int
}

func newClientEngine(s *Server) *clientEngine {
	return &clientEngine{s: s, dbIndex: 0}
}

func (c *clientEngine) DB() *keyspace.Database {
	db, err := c.s.ks.DB(c.dbIndex)
	if err != nil {
		// the selected index was valid when chosen and databases are never
		// resized after startup, so this is unreachable in practice.
		panic(fmt.Sprintf("server: selected db %d vanished: %v", c.dbIndex, err))
	}
	return db
}

func (c *clientEngine) DBIndex() int { return c.dbIndex }

func (c *clientEngine) SelectDB(i int) error {
	if _, err := c.s.ks.DB(i); err != nil {
		return err
	}
	c.dbIndex = i
	return nil
}

func (c *clientEngine) Keyspace() *keyspace.Keyspace { return c.s.ks }

func (c *clientEngine) MarkDirty()   { c.s.markDirty() }
func (c *clientEngine) Dirty() int64 { return c.s.dirty.Load() }

func (c *clientEngine) Save() error          { return c.s.saveForeground() }
func (c *clientEngine) BGSave() error        { return c.s.saveBackground() }
func (c *clientEngine) SaveInProgress() bool { return c.s.bgSaveInProgress.Load() }
func (c *clientEngine) LastSave() int64      { return c.s.lastSave.Load() }
func (c *clientEngine) Shutdown() error      { return c.s.shutdown() }

func (c *clientEngine) ConfigGet(name string) (string, bool) { return c.s.cfg.Get(name) }

func (c *clientEngine) Info() string {
	var b strings.Builder
	fmt.Fprintf(&b, "dirty:%d\r\n", c.s.dirty.Load())
	fmt.Fprintf(&b, "lastsave:%d\r\n", c.s.lastSave.Load())
	fmt.Fprintf(&b, "bgsave_in_progress:%d\r\n", boolToInt(c.s.bgSaveInProgress.Load()))
	fmt.Fprintf(&b, "databases:%d\r\n", c.s.ks.N())
	for i := 0; i < c.s.ks.N(); i++ {
		db, _ := c.s.ks.DB(i)
		if db.Len() > 0 {
			fmt.Fprintf(&b, "db%d:keys=%d\r\n", i, db.Len())
		}
	}
	fmt.Fprintf(&b, "connected_clients:%d\r\n", c.s.clientCount())
	return b.String()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
