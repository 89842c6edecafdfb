package command

import "github.com/sandia-minimega/minikv/internal/object"

// Shared reply singletons: pre-built byte sequences referenced repeatedly
// from handlers instead of allocating a fresh reply each time. Re-sharing
// a package-level []byte is already free, so these are plain variables
// rather than refcounted objects.
var (
	replyOK           = []byte("+OK\r\n")
	replyPong         = []byte("+PONG\r\n")
	replyZero         = []byte("0\r\n")
	replyOne          = []byte("1\r\n")
	replyNegOne       = []byte("-1\r\n")
	replyNegTwo       = []byte("-2\r\n")
	replyNegThree     = []byte("-3\r\n")
	replyNegFour      = []byte("-4\r\n")
	replyNil          = []byte("nil\r\n")
	replyCRLF         = []byte("\r\n")
	replySpace        = []byte(" ")
	replyNoKeyErr     = []byte("-ERR no such key\r\n")
	replyWrongType    = []byte("-ERR wrong kind of value\r\n")
	replyUnknownCmd   = []byte("-ERR unknown command\r\n")
	replyWrongArity   = []byte("-ERR wrong number of arguments\r\n")
	replySameKeyErr   = []byte("-ERR src and dest key are the same\r\n")
	replyBadDBIndex   = []byte("-ERR invalid DB index\r\n")
	replyIdxOutOfRng  = []byte("-ERR index out of range\r\n")
	replyBGSaveInProg = []byte("-ERR background save already in progress\r\n")
)

func errReply(msg string) []byte {
	return []byte("-ERR " + msg + "\r\n")
}

// wrongTypeBulk is the wrong-type condition framed as a bulk reply, for
// commands (SINTER) whose normal reply shape is otherwise a bulk.
func wrongTypeBulk() []byte {
	return bulk([]byte("wrong kind of value"))
}

// ensureOwned returns a container safe to mutate in place, cloning it and
// replacing the keyspace entry first if v.Shared() reports another holder
// (a background save's snapshot, per Database.Clone) might be observing
// the same payload. Every list/set handler that touches an existing
// container's interior goes through here first.
func ensureOwned(eng Engine, key string, v *object.Value) *object.Value {
	if !v.Shared() {
		return v
	}
	clone := v.Clone()
	eng.DB().Set(key, clone)
	return clone
}

func boolReply(b bool) []byte {
	if b {
		return replyOne
	}
	return replyZero
}

// bulk frames the standard "<len>\r\n<bytes>\r\n" reply shape.
func bulk(b []byte) []byte {
	out := make([]byte, 0, len(b)+16)
	out = append(out, []byte(itoa(len(b)))...)
	out = append(out, '\r', '\n')
	out = append(out, b...)
	out = append(out, '\r', '\n')
	return out
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
