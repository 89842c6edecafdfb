// Command minikv-cli is an interactive line client for minikv-server:
// peterh/liner for history and prompt editing, one round-trip per line.
// The client has to know, per command, how to read the reply back off the
// wire, since the reply shapes carry no leading type byte the way a fully
// self-describing protocol would.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/sandia-minimega/minikv/internal/command"
)

var (
	fHost = flag.String("host", "127.0.0.1", "server host")
	fPort = flag.Int("port", 6379, "server port")
	fExec = flag.String("e", "", "execute a single command and exit")
)

// replyShape records how to read back each command's reply, since the wire
// format doesn't self-describe: a bare integer line looks identical to a
// bulk length prefix until you already know which command was sent.
var replyShape = map[string]string{
	"ping": "line", "echo": "bulk", "select": "line", "dbsize": "line",
	"save": "line", "bgsave": "line", "lastsave": "line", "shutdown": "line",
	"type": "line", "config": "bulk", "flushdb": "line", "flushall": "line", "info": "bulk",

	"set": "line", "setnx": "line", "get": "bulk", "incr": "line", "decr": "line",
	"incrby": "line", "decrby": "line",

	"lpush": "line", "rpush": "line", "lpop": "bulk", "rpop": "bulk", "llen": "line",
	"lindex": "bulk", "lset": "line", "lrange": "multibulk", "ltrim": "line",

	"sadd": "line", "srem": "line", "sismember": "line", "scard": "line",
	"sinter": "multibulk", "smembers": "multibulk",

	"del": "line", "exists": "line", "rename": "line", "renamenx": "line",
	"move": "line", "randomkey": "line", "keys": "bulk",
}

type conn struct {
	c net.Conn
	r *bufio.Reader
}

func dial(addr string) (*conn, error) {
	c, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &conn{c: c, r: bufio.NewReader(c)}, nil
}

// run sends one typed line to the server and reads back its reply. Bulk
// commands need the wire-level "last token is really a byte length, payload
// follows on the next line" reframing. A user typing "set foo bar" at the
// prompt shouldn't have to spell that out by hand, so this rewrites the
// line into the two-line bulk form the parser on the other end expects.
func (cn *conn) run(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	name := strings.ToLower(fields[0])

	wire := line + "\r\n"
	if command.IsBulk(name) && len(fields) >= 2 {
		payload := fields[len(fields)-1]
		head := strings.Join(fields[:len(fields)-1], " ")
		wire = fmt.Sprintf("%s %d\r\n%s\r\n", head, len(payload), payload)
	}

	if _, err := io.WriteString(cn.c, wire); err != nil {
		return "", err
	}
	return cn.readReply(name)
}

func (cn *conn) readLine() (string, error) {
	s, err := cn.r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(s, "\r\n"), nil
}

func (cn *conn) readBulk(firstLine string) (string, error) {
	if strings.HasPrefix(firstLine, "-") {
		if _, err := strconv.Atoi(firstLine); err != nil {
			return firstLine, nil // a genuine -ERR, not a sentinel
		}
	}
	n, err := strconv.Atoi(firstLine)
	if err != nil {
		// nil / bare status line, e.g. "nil"
		return firstLine, nil
	}
	buf := make([]byte, n+2)
	if _, err := io.ReadFull(cn.r, buf); err != nil {
		return "", err
	}
	return string(buf[:n]), nil
}

func (cn *conn) readReply(name string) (string, error) {
	first, err := cn.readLine()
	if err != nil {
		return "", err
	}
	switch replyShape[name] {
	case "bulk":
		return cn.readBulk(first)
	case "multibulk":
		n, err := strconv.Atoi(first)
		if err != nil {
			return first, nil // nil participant in SINTER
		}
		parts := make([]string, 0, n)
		for i := 0; i < n; i++ {
			lenLine, err := cn.readLine()
			if err != nil {
				return "", err
			}
			el, err := cn.readBulk(lenLine)
			if err != nil {
				return "", err
			}
			parts = append(parts, el)
		}
		return strings.Join(parts, " "), nil
	default:
		return first, nil
	}
}

func usage() {
	fmt.Println("minikv-cli: interactive client for minikv-server")
	fmt.Println("usage: minikv-cli [-host H] [-port P] [-e 'command']")
}

func main() {
	flag.Usage = usage
	flag.Parse()

	addr := net.JoinHostPort(*fHost, strconv.Itoa(*fPort))
	cn, err := dial(addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer cn.c.Close()

	if *fExec != "" {
		resp, err := cn.run(*fExec)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(resp)
		return
	}

	attach(cn, addr)
}

// attach runs the interactive prompt loop: liner for history/editing, one
// round trip per line, Ctrl-D to exit.
func attach(cn *conn, addr string) {
	input := liner.NewLiner()
	defer input.Close()

	input.SetCtrlCAborts(true)

	prompt := fmt.Sprintf("minikv:%s> ", addr)

	for {
		line, err := input.Prompt(prompt)
		if err == liner.ErrPromptAborted {
			continue
		} else if err == io.EOF {
			fmt.Println()
			return
		} else if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		input.AppendHistory(line)

		resp, err := cn.run(line)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}
		fmt.Println(resp)

		if strings.EqualFold(strings.Fields(line)[0], "quit") {
			return
		}
	}
}
