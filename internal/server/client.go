package server

import (
	"net"
	"sync/atomic"
	"time"

	"github.com/sandia-minimega/minikv/internal/command"
	"github.com/sandia-minimega/minikv/internal/minilog"
	"github.com/sandia-minimega/minikv/internal/proto"
)

const readBufSize = 4096

// Client is one connection's parse state: the socket, the two-mode parser
// from internal/proto, and the per-connection engine view that tracks which
// database is selected. There is no explicit reply queue or partial-write
// offset; Write blocks normally because this goroutine has nothing else to
// do while it waits.
type Client struct {
	id     uint64
	conn   net.Conn
	parser *proto.Parser
	engine *clientEngine

	lastInteraction atomic.Int64 // unix seconds, read by the cron's idle reaper
}

func (s *Server) handleConn(conn net.Conn) {
	s.clientsMu.Lock()
	s.nextID++
	id := s.nextID
	s.clientsMu.Unlock()

	cl := &Client{
		id:     id,
		conn:   conn,
		engine: newClientEngine(s),
	}
	cl.parser = proto.New(command.IsBulk)
	cl.lastInteraction.Store(time.Now().Unix())

	s.clientsMu.Lock()
	s.clients[id] = cl
	s.clientsMu.Unlock()

	minilog.Debug("client connected: %v", conn.RemoteAddr())

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, id)
		s.clientsMu.Unlock()
		conn.Close()
		minilog.Debug("client disconnected: %v", conn.RemoteAddr())
	}()

	buf := make([]byte, readBufSize)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		cl.lastInteraction.Store(time.Now().Unix())

		cmds, perr := cl.parser.Feed(buf[:n])
		for _, cmd := range cmds {
			if cmd.Name == "quit" {
				return
			}
			reply, _ := s.dispatch(cl, cmd)
			if reply == nil {
				continue
			}
			if _, werr := conn.Write(reply); werr != nil {
				return
			}
		}
		if perr != nil {
			// An oversized unterminated inline line or a bad bulk length is
			// a protocol error; the connection is dropped, not merely
			// replied to.
			return
		}
	}
}

// dispatch runs one parsed command on the engine goroutine and returns its
// framed reply. SHUTDOWN is the only handler that doesn't return normally
// (it calls os.Exit on success), which is fine: the whole process is gone
// by the time submit would otherwise unblock.
func (s *Server) dispatch(cl *Client, cmd proto.Command) (reply []byte, closeConn bool) {
	s.submit(func() {
		reply, closeConn = command.Dispatch(cl.engine, cmd.Name, cmd.Args)
	})
	return reply, closeConn
}
