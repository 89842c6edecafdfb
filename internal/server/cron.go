package server

import (
	"os"
	"time"

	proc "github.com/c9s/goprocinfo/linux"

	"github.com/sandia-minimega/minikv/internal/minilog"
)

const cronInterval = 1 * time.Second

// cron runs the once-per-second housekeeping tasks: closing idle
// connections, reaping a finished background save, evaluating the
// dirty/lastsave snapshot rules, and enforcing the soft memory ceiling.
func (s *Server) cron() {
	t := time.NewTicker(cronInterval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			s.reapIdleClients()
			s.reapBackgroundSave()
			s.evaluateSaveRules()
			s.checkMemory()
		case <-s.quit:
			return
		}
	}
}

// reapIdleClients closes any connection whose last interaction exceeds
// cfg.Timeout. Closing the conn is enough: the
// blocked Read in that connection's goroutine returns an error and it tears
// itself down via its own deferred cleanup.
func (s *Server) reapIdleClients() {
	if s.cfg.Timeout <= 0 {
		return
	}
	deadline := time.Now().Unix() - int64(s.cfg.Timeout)

	s.clientsMu.Lock()
	var stale []*Client
	for _, cl := range s.clients {
		if cl.lastInteraction.Load() < deadline {
			stale = append(stale, cl)
		}
	}
	s.clientsMu.Unlock()

	for _, cl := range stale {
		minilog.Debug("closing idle client %v", cl.conn.RemoteAddr())
		cl.conn.Close()
	}
}

// reapBackgroundSave drains bgSaveResults non-blockingly, once per tick.
// Success clears dirty and updates lastsave; failure just logs a warning.
// Either way the in-progress flag clears so the next BGSAVE can start.
func (s *Server) reapBackgroundSave() {
	select {
	case res := <-s.bgSaveResults:
		if res.err != nil {
			minilog.Warn("background save failed: %v", res.err)
		} else {
			s.dirty.Store(0)
			s.lastSave.Store(res.at.Unix())
		}
		s.bgSaveInProgress.Store(false)
	default:
	}
}

// evaluateSaveRules fires a background snapshot when any configured
// (seconds, changes) pair is satisfied by the current dirty count and the
// time since the last successful save.
func (s *Server) evaluateSaveRules() {
	if s.bgSaveInProgress.Load() {
		return
	}
	dirty := s.dirty.Load()
	if dirty == 0 {
		return
	}
	elapsed := time.Now().Unix() - s.lastSave.Load()
	for _, rule := range s.cfg.Save {
		if dirty >= int64(rule.Changes) && elapsed > int64(rule.Seconds) {
			minilog.Info("%d changes in %ds, saving...", dirty, elapsed)
			// saveBackground reads the live keyspace (via Keyspace.Snapshot)
			// and must run on the engine goroutine, same as a client-issued
			// BGSAVE, so it never races a concurrent command's mutation.
			s.submit(func() {
				if err := s.saveBackground(); err != nil {
					minilog.Warn("scheduled bgsave: %v", err)
				}
			})
			return
		}
	}
}

// checkMemory enforces the maxmemory directive from resident set size in
// /proc/self/statm. Crossing the ceiling is fatal: better to abort with a
// diagnostic at a configured threshold than to let an allocation fail at
// some arbitrary point later.
func (s *Server) checkMemory() {
	if s.cfg.MaxMemory <= 0 {
		return
	}
	statm, err := proc.ReadProcessStatm("/proc/self/statm")
	if err != nil {
		minilog.Debug("checkMemory: %v", err)
		return
	}
	resident := int64(statm.Resident) * int64(os.Getpagesize())
	if resident > s.cfg.MaxMemory {
		minilog.Fatal("resident memory %d exceeds maxmemory %d, aborting", resident, s.cfg.MaxMemory)
	}
}
