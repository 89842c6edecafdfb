package command

import (
	"strconv"

	"github.com/sandia-minimega/minikv/internal/object"
)

func cmdSet(eng Engine, args [][]byte) []byte {
	eng.DB().Set(string(args[0]), object.NewString(args[1]))
	eng.MarkDirty()
	return replyOK
}

func cmdSetNX(eng Engine, args [][]byte) []byte {
	if eng.DB().Exists(string(args[0])) {
		return replyZero
	}
	eng.DB().Set(string(args[0]), object.NewString(args[1]))
	eng.MarkDirty()
	return replyOne
}

func cmdGet(eng Engine, args [][]byte) []byte {
	v, ok := eng.DB().Get(string(args[0]))
	if !ok {
		return replyNil
	}
	if v.Type() != object.TypeString {
		return replyWrongType
	}
	return bulk(v.Bytes())
}

// cmdIncr, cmdDecr, cmdIncrBy, cmdDecrBy all route through incrDecr. A
// missing key or a non-string value is treated as 0, never as a wrong-type
// error: the sum's textual form simply replaces whatever was there.
func cmdIncr(eng Engine, args [][]byte) []byte { return incrDecr(eng, args[0], 1) }
func cmdDecr(eng Engine, args [][]byte) []byte { return incrDecr(eng, args[0], -1) }

func cmdIncrBy(eng Engine, args [][]byte) []byte {
	n, err := strconv.ParseInt(string(args[1]), 10, 64)
	if err != nil {
		return errReply("value is not an integer")
	}
	return incrDecr(eng, args[0], n)
}

func cmdDecrBy(eng Engine, args [][]byte) []byte {
	n, err := strconv.ParseInt(string(args[1]), 10, 64)
	if err != nil {
		return errReply("value is not an integer")
	}
	return incrDecr(eng, args[0], -n)
}

func incrDecr(eng Engine, key []byte, delta int64) []byte {
	k := string(key)
	var cur int64
	if v, ok := eng.DB().Get(k); ok && v.Type() == object.TypeString {
		n, err := strconv.ParseInt(string(v.Bytes()), 10, 64)
		if err == nil {
			cur = n
		}
	}
	next := cur + delta
	eng.DB().Set(k, object.NewString([]byte(strconv.FormatInt(next, 10))))
	eng.MarkDirty()
	return []byte(strconv.FormatInt(next, 10) + "\r\n")
}
