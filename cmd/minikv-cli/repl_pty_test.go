package main

import (
	"bufio"
	"fmt"
	"net"
	"os/exec"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/kr/pty"

	"github.com/sandia-minimega/minikv/internal/config"
	"github.com/sandia-minimega/minikv/internal/server"
)

// TestREPLOverPTY drives the interactive prompt loop under a real
// pseudo-terminal rather than a plain pipe, so the liner-based prompt sees
// the echo/line-discipline behavior it would from an actual terminal.
func TestREPLOverPTY(t *testing.T) {
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Port = 0
	cfg.Dir = dir
	cfg.Databases = 4

	srv, err := server.New(cfg)
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer srv.Close()
	go srv.Serve()

	_, portStr, err := net.SplitHostPort(srv.Addr())
	if err != nil {
		t.Fatalf("parsing port out of %q: %v", srv.Addr(), err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parsing port out of %q: %v", portStr, err)
	}

	cmd := exec.Command("go", "run", ".", "-host", "127.0.0.1", "-port", fmt.Sprint(port))
	f, err := pty.Start(cmd)
	if err != nil {
		t.Fatalf("pty.Start: %v", err)
	}
	defer f.Close()
	defer cmd.Process.Kill()

	r := bufio.NewReader(f)

	send := func(line string) {
		if _, err := f.WriteString(line + "\r"); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	waitFor := func(substr string) {
		deadline := time.Now().Add(10 * time.Second)
		var seen strings.Builder
		for time.Now().Before(deadline) {
			f.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
			line, err := r.ReadString('\n')
			seen.WriteString(line)
			if strings.Contains(seen.String(), substr) {
				return
			}
			if err != nil {
				continue
			}
		}
		t.Fatalf("timed out waiting for %q, saw: %q", substr, seen.String())
	}

	waitFor("minikv:")
	send("ping")
	waitFor("PONG")

	send("set foo bar")
	waitFor("OK")

	send("get foo")
	waitFor("bar")

	send("quit")
}
