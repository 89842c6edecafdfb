package proto

import (
	"reflect"
	"testing"
)

func bulkLookup(names ...string) BulkLookup {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(name string) bool { return set[name] }
}

func TestInlineCommand(t *testing.T) {
	p := New(bulkLookup())
	cmds, err := p.Feed([]byte("ping\r\n"))
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(cmds) != 1 || cmds[0].Name != "ping" || len(cmds[0].Args) != 0 {
		t.Fatalf("got %+v", cmds)
	}
}

func TestInlineLowercasesName(t *testing.T) {
	p := New(bulkLookup())
	cmds, err := p.Feed([]byte("PING\r\n"))
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if cmds[0].Name != "ping" {
		t.Fatalf("Name = %q", cmds[0].Name)
	}
}

func TestInlineWithArgs(t *testing.T) {
	p := New(bulkLookup())
	cmds, err := p.Feed([]byte("get foo\r\n"))
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if cmds[0].Name != "get" || string(cmds[0].Args[0]) != "foo" {
		t.Fatalf("got %+v", cmds)
	}
}

func TestBulkCommandSingleFeed(t *testing.T) {
	p := New(bulkLookup("set"))
	cmds, err := p.Feed([]byte("set foo 3\r\nbar\r\n"))
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(cmds) != 1 {
		t.Fatalf("got %d cmds, want 1", len(cmds))
	}
	want := Command{Name: "set", Args: [][]byte{[]byte("foo"), []byte("bar")}}
	if cmds[0].Name != want.Name || !reflect.DeepEqual(cmds[0].Args, want.Args) {
		t.Fatalf("got %+v, want %+v", cmds[0], want)
	}
}

func TestBulkCommandSplitAcrossFeeds(t *testing.T) {
	p := New(bulkLookup("set"))
	cmds, err := p.Feed([]byte("set foo 3\r\n"))
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(cmds) != 0 {
		t.Fatalf("expected no commands yet, got %+v", cmds)
	}

	cmds, err = p.Feed([]byte("ba"))
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(cmds) != 0 {
		t.Fatalf("expected no commands yet, got %+v", cmds)
	}

	cmds, err = p.Feed([]byte("r\r\n"))
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(cmds) != 1 || string(cmds[0].Args[1]) != "bar" {
		t.Fatalf("got %+v", cmds)
	}
}

func TestPipelinedInlineCommands(t *testing.T) {
	p := New(bulkLookup())
	cmds, err := p.Feed([]byte("ping\r\nping\r\n"))
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(cmds) != 2 {
		t.Fatalf("got %d cmds, want 2", len(cmds))
	}
}

func TestBlankLineSkipped(t *testing.T) {
	p := New(bulkLookup())
	cmds, err := p.Feed([]byte("\r\nping\r\n"))
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(cmds) != 1 || cmds[0].Name != "ping" {
		t.Fatalf("got %+v", cmds)
	}
}

func TestOversizedInlineIsProtocolError(t *testing.T) {
	p := New(bulkLookup())
	huge := make([]byte, maxInlineLen+100)
	for i := range huge {
		huge[i] = 'x'
	}
	_, err := p.Feed(huge)
	if err != ErrProtocol {
		t.Fatalf("err = %v, want ErrProtocol", err)
	}
}

func TestBadBulkLengthIsProtocolError(t *testing.T) {
	p := New(bulkLookup("set"))
	_, err := p.Feed([]byte("set foo notanumber\r\n"))
	if err != ErrProtocol {
		t.Fatalf("err = %v, want ErrProtocol", err)
	}
}

func TestBulkCommandMissingLengthToken(t *testing.T) {
	// a bulk command with no tokens has no length to parse; it passes
	// through for the dispatcher's arity check to reject instead of
	// dropping the connection.
	p := New(bulkLookup("set"))
	cmds, err := p.Feed([]byte("set\r\n"))
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(cmds) != 1 || cmds[0].Name != "set" || len(cmds[0].Args) != 0 {
		t.Fatalf("got %+v", cmds)
	}
}

func TestArgsBoundedAtMax(t *testing.T) {
	p := New(bulkLookup())
	line := "cmd"
	for i := 0; i < 30; i++ {
		line += " a"
	}
	cmds, err := p.Feed([]byte(line + "\r\n"))
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(cmds[0].Args) != maxArgs-1 {
		t.Fatalf("got %d args, want %d", len(cmds[0].Args), maxArgs-1)
	}
}
