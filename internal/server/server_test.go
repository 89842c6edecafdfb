package server

import (
	"bufio"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sandia-minimega/minikv/internal/config"
)

func startTestServer(t *testing.T) (addr string, dir string) {
	t.Helper()
	dir = t.TempDir()

	cfg := config.Default()
	cfg.Port = 0
	cfg.Dir = dir
	cfg.Databases = 4
	cfg.Timeout = 300

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Listen(); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	t.Cleanup(s.Close)
	go s.Serve()

	return s.ln.Addr().String(), dir
}

// rawClient is a tiny line-protocol helper for dialing the server directly,
// independent of cmd/minikv-cli, so these tests exercise the wire format
// itself rather than the CLI's framing logic.
type rawClient struct {
	t *testing.T
	c net.Conn
	r *bufio.Reader
}

func dialRaw(t *testing.T, addr string) *rawClient {
	t.Helper()
	c, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return &rawClient{t: t, c: c, r: bufio.NewReader(c)}
}

func (r *rawClient) send(line string) {
	r.t.Helper()
	if _, err := r.c.Write([]byte(line + "\r\n")); err != nil {
		r.t.Fatalf("write: %v", err)
	}
}

func (r *rawClient) readLine() string {
	r.t.Helper()
	r.c.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := r.r.ReadString('\n')
	if err != nil {
		r.t.Fatalf("read: %v", err)
	}
	return strings.TrimRight(line, "\r\n")
}

func TestPingOverTheWire(t *testing.T) {
	addr, _ := startTestServer(t)
	c := dialRaw(t, addr)
	c.send("ping")
	if got := c.readLine(); got != "+PONG" {
		t.Fatalf("got %q, want +PONG", got)
	}
}

func TestSetGetOverTheWire(t *testing.T) {
	addr, _ := startTestServer(t)
	c := dialRaw(t, addr)

	c.send("set foo 3")
	c.send("bar")
	if got := c.readLine(); got != "+OK" {
		t.Fatalf("set reply = %q", got)
	}

	c.send("get foo")
	if got := c.readLine(); got != "3" {
		t.Fatalf("get len line = %q", got)
	}
	if got := c.readLine(); got != "bar" {
		t.Fatalf("get payload = %q", got)
	}
}

func TestSelectAndIsolatedDatabases(t *testing.T) {
	addr, _ := startTestServer(t)
	c := dialRaw(t, addr)

	c.send("set foo 3")
	c.send("bar")
	c.readLine()

	c.send("select 1")
	if got := c.readLine(); got != "+OK" {
		t.Fatalf("select reply = %q", got)
	}

	c.send("exists foo")
	if got := c.readLine(); got != "0" {
		t.Fatalf("expected key absent in db1, got %q", got)
	}
}

func TestSaveWritesDumpFile(t *testing.T) {
	addr, dir := startTestServer(t)
	c := dialRaw(t, addr)

	c.send("set foo 3")
	c.send("bar")
	c.readLine()

	c.send("save")
	if got := c.readLine(); got != "+OK" {
		t.Fatalf("save reply = %q", got)
	}

	if _, err := os.Stat(filepath.Join(dir, "dump.rdb")); err != nil {
		t.Fatalf("expected dump.rdb after SAVE: %v", err)
	}
}

func TestBGSaveEventuallyWritesDumpFile(t *testing.T) {
	addr, dir := startTestServer(t)
	c := dialRaw(t, addr)

	c.send("set foo 3")
	c.send("bar")
	c.readLine()

	c.send("bgsave")
	if got := c.readLine(); got != "+Background saving started" {
		t.Fatalf("bgsave reply = %q", got)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(filepath.Join(dir, "dump.rdb")); err == nil {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("dump.rdb never appeared after BGSAVE")
}

func TestUnknownCommandReply(t *testing.T) {
	addr, _ := startTestServer(t)
	c := dialRaw(t, addr)
	c.send("bogus")
	if got := c.readLine(); got != "-ERR unknown command" {
		t.Fatalf("got %q", got)
	}
}

func TestQuitClosesConnection(t *testing.T) {
	addr, _ := startTestServer(t)
	c := dialRaw(t, addr)
	c.send("quit")
	c.c.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 16)
	n, err := c.c.Read(buf)
	if err == nil && n > 0 {
		t.Fatalf("expected connection close after quit, got %d bytes", n)
	}
}

func TestServerReloadsExistingDump(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Port = 0
	cfg.Dir = dir
	cfg.Databases = 1

	s1, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s1.Listen(); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	go s1.Serve()

	c := dialRaw(t, s1.ln.Addr().String())
	c.send("set persisted 5")
	c.send("hello")
	c.readLine()
	c.send("save")
	c.readLine()
	s1.Close()

	cfg2 := config.Default()
	cfg2.Port = 0
	cfg2.Dir = dir
	cfg2.Databases = 1
	s2, err := New(cfg2)
	if err != nil {
		t.Fatalf("reload New: %v", err)
	}
	if err := s2.Listen(); err != nil {
		t.Fatalf("reload Listen: %v", err)
	}
	t.Cleanup(s2.Close)
	go s2.Serve()

	c2 := dialRaw(t, s2.ln.Addr().String())
	c2.send("get persisted")
	if got := c2.readLine(); got != "5" {
		t.Fatalf("len line = %q", got)
	}
	if got := c2.readLine(); got != "hello" {
		t.Fatalf("payload = %q, want hello", got)
	}
}
