package command

import "strconv"

func cmdDel(eng Engine, args [][]byte) []byte {
	return boolReply(eng.DB().Delete(string(args[0])))
}

func cmdExists(eng Engine, args [][]byte) []byte {
	return boolReply(eng.DB().Exists(string(args[0])))
}

func cmdRename(eng Engine, args [][]byte) []byte {
	src, dst := string(args[0]), string(args[1])
	if src == dst {
		return replySameKeyErr
	}
	v, ok := eng.DB().Take(src)
	if !ok {
		return replyNoKeyErr
	}
	eng.DB().Set(dst, v)
	eng.MarkDirty()
	return replyOK
}

func cmdRenameNX(eng Engine, args [][]byte) []byte {
	src, dst := string(args[0]), string(args[1])
	if src == dst {
		return replyNegThree
	}
	if !eng.DB().Exists(src) {
		return replyNegOne
	}
	if eng.DB().Exists(dst) {
		return replyZero
	}
	v, _ := eng.DB().Take(src)
	eng.DB().Set(dst, v)
	eng.MarkDirty()
	return replyOne
}

func cmdMove(eng Engine, args [][]byte) []byte {
	key := string(args[0])
	dstIdx, err := strconv.Atoi(string(args[1]))
	if err != nil {
		return replyNegFour
	}
	dst, err := eng.Keyspace().DB(dstIdx)
	if err != nil {
		return replyNegFour
	}
	if dst == eng.DB() {
		return replyNegThree
	}
	if !eng.DB().Exists(key) {
		return replyZero
	}
	if dst.Exists(key) {
		return replyZero
	}
	v, _ := eng.DB().Take(key)
	dst.Set(key, v)
	eng.MarkDirty()
	return replyOne
}

func cmdRandomKey(eng Engine, args [][]byte) []byte {
	k, ok := eng.DB().RandomKey()
	if !ok {
		return replyCRLF
	}
	return []byte(k + "\r\n")
}

// cmdKeys glob-matches every key against the pattern and replies with a
// single bulk of space-separated matches, not a multi-bulk: the length
// header covers the whole joined sequence, inter-key spaces included.
func cmdKeys(eng Engine, args [][]byte) []byte {
	pattern := string(args[0])
	var joined []byte
	first := true
	for _, k := range eng.DB().Keys() {
		if !globMatch(pattern, k) {
			continue
		}
		if !first {
			joined = append(joined, replySpace...)
		}
		joined = append(joined, k...)
		first = false
	}
	return bulk(joined)
}
