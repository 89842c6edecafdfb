package command

import (
	"strconv"

	"github.com/sandia-minimega/minikv/internal/object"
)

func cmdLPush(eng Engine, args [][]byte) []byte { return listPush(eng, args, true) }
func cmdRPush(eng Engine, args [][]byte) []byte { return listPush(eng, args, false) }

func listPush(eng Engine, args [][]byte, front bool) []byte {
	k := string(args[0])
	v, ok := eng.DB().Get(k)
	if !ok {
		v = object.NewList()
		eng.DB().Set(k, v)
	} else if v.Type() != object.TypeList {
		return replyWrongType
	} else {
		v = ensureOwned(eng, k, v)
	}
	if front {
		v.List().PushFront(append([]byte(nil), args[1]...))
	} else {
		v.List().PushBack(append([]byte(nil), args[1]...))
	}
	eng.MarkDirty()
	return []byte(strconv.Itoa(v.List().Len()) + "\r\n")
}

func cmdLPop(eng Engine, args [][]byte) []byte { return listPop(eng, args, true) }
func cmdRPop(eng Engine, args [][]byte) []byte { return listPop(eng, args, false) }

func listPop(eng Engine, args [][]byte, front bool) []byte {
	k := string(args[0])
	v, ok := eng.DB().Get(k)
	if !ok {
		return replyNil
	}
	if v.Type() != object.TypeList {
		return replyWrongType
	}
	v = ensureOwned(eng, k, v)
	var el []byte
	var popped bool
	if front {
		el, popped = v.List().PopFront()
	} else {
		el, popped = v.List().PopBack()
	}
	if !popped {
		return replyNil
	}
	eng.MarkDirty()
	if v.List().Len() == 0 {
		eng.DB().Delete(k)
	}
	return bulk(el)
}

func cmdLLen(eng Engine, args [][]byte) []byte {
	v, ok := eng.DB().Get(string(args[0]))
	if !ok {
		return replyZero
	}
	if v.Type() != object.TypeList {
		return replyNegTwo
	}
	return []byte(strconv.Itoa(v.List().Len()) + "\r\n")
}

func cmdLIndex(eng Engine, args [][]byte) []byte {
	v, ok := eng.DB().Get(string(args[0]))
	if !ok {
		return replyNil
	}
	if v.Type() != object.TypeList {
		return replyWrongType
	}
	i, err := strconv.Atoi(string(args[1]))
	if err != nil {
		return replyNil
	}
	el, ok := v.List().Index(i)
	if !ok {
		return replyNil
	}
	return bulk(el)
}

func cmdLSet(eng Engine, args [][]byte) []byte {
	k := string(args[0])
	v, ok := eng.DB().Get(k)
	if !ok {
		return replyNoKeyErr
	}
	if v.Type() != object.TypeList {
		return replyWrongType
	}
	i, err := strconv.Atoi(string(args[1]))
	if err != nil {
		return replyIdxOutOfRng
	}
	v = ensureOwned(eng, k, v)
	if !v.List().Set(i, append([]byte(nil), args[2]...)) {
		return replyIdxOutOfRng
	}
	eng.MarkDirty()
	return replyOK
}

// normalizeRange resolves negative LRANGE/LTRIM indexes against length:
// s <- max(0, s + (s<0 ? len : 0)); e <- min(len-1, e + (e<0 ? len : 0)).
func normalizeRange(s, e, length int) (int, int) {
	if s < 0 {
		s += length
	}
	if s < 0 {
		s = 0
	}
	if e < 0 {
		e += length
	}
	if e > length-1 {
		e = length - 1
	}
	return s, e
}

func cmdLRange(eng Engine, args [][]byte) []byte {
	v, ok := eng.DB().Get(string(args[0]))
	if !ok {
		return replyNil
	}
	if v.Type() != object.TypeList {
		return replyWrongType
	}
	s, err1 := strconv.Atoi(string(args[1]))
	e, err2 := strconv.Atoi(string(args[2]))
	if err1 != nil || err2 != nil {
		return errReply("value is not an integer")
	}
	length := v.List().Len()
	s, e = normalizeRange(s, e, length)
	if s > e || s >= length {
		return []byte("0\r\n")
	}
	els := v.List().Range(s, e)
	out := []byte(itoa(len(els)) + "\r\n")
	for _, el := range els {
		out = append(out, bulk(el)...)
	}
	return out
}

func cmdLTrim(eng Engine, args [][]byte) []byte {
	v, ok := eng.DB().Get(string(args[0]))
	if !ok {
		return replyNoKeyErr
	}
	if v.Type() != object.TypeList {
		return replyWrongType
	}
	s, err1 := strconv.Atoi(string(args[1]))
	e, err2 := strconv.Atoi(string(args[2]))
	if err1 != nil || err2 != nil {
		return errReply("value is not an integer")
	}
	length := v.List().Len()
	s, e = normalizeRange(s, e, length)
	if s > e || s >= length {
		eng.DB().Delete(string(args[0])) // empty range clears the list entirely
		eng.MarkDirty()
		return replyOK
	}
	v = ensureOwned(eng, string(args[0]), v)
	v.List().Trim(s, e)
	eng.MarkDirty()
	return replyOK
}
