package command

import (
	"sort"

	"github.com/sandia-minimega/minikv/internal/object"
)

func cmdSAdd(eng Engine, args [][]byte) []byte {
	k, m := string(args[0]), string(args[1])
	v, ok := eng.DB().Get(k)
	if !ok {
		v = object.NewSet()
		eng.DB().Set(k, v)
	} else if v.Type() != object.TypeSet {
		return replyWrongType
	} else {
		v = ensureOwned(eng, k, v)
	}
	if _, present := v.Set()[m]; present {
		return replyZero
	}
	v.Set()[m] = struct{}{}
	eng.MarkDirty()
	return replyOne
}

func cmdSRem(eng Engine, args [][]byte) []byte {
	k, m := string(args[0]), string(args[1])
	v, ok := eng.DB().Get(k)
	if !ok {
		return replyZero
	}
	if v.Type() != object.TypeSet {
		return replyWrongType
	}
	if _, present := v.Set()[m]; !present {
		return replyZero
	}
	v = ensureOwned(eng, k, v)
	delete(v.Set(), m)
	eng.MarkDirty()
	if len(v.Set()) == 0 {
		eng.DB().Delete(k)
	}
	return replyOne
}

func cmdSIsMember(eng Engine, args [][]byte) []byte {
	v, ok := eng.DB().Get(string(args[0]))
	if !ok {
		return replyZero
	}
	if v.Type() != object.TypeSet {
		return replyWrongType
	}
	_, present := v.Set()[string(args[1])]
	return boolReply(present)
}

func cmdSCard(eng Engine, args [][]byte) []byte {
	v, ok := eng.DB().Get(string(args[0]))
	if !ok {
		return replyZero
	}
	if v.Type() != object.TypeSet {
		return replyWrongType
	}
	return []byte(itoa(len(v.Set())) + "\r\n")
}

// cmdSInter implements SINTER and its single-key alias SMEMBERS. The
// smallest set is iterated and every element probed against the rest,
// ordered by ascending cardinality, input order on ties.
func cmdSInter(eng Engine, args [][]byte) []byte {
	sets := make([]map[string]struct{}, len(args))
	for i, k := range args {
		v, ok := eng.DB().Get(string(k))
		if !ok {
			return replyNil
		}
		if v.Type() != object.TypeSet {
			return wrongTypeBulk()
		}
		sets[i] = v.Set()
	}

	order := make([]int, len(sets))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return len(sets[order[a]]) < len(sets[order[b]])
	})

	smallest := sets[order[0]]
	others := make([]map[string]struct{}, 0, len(sets)-1)
	for _, idx := range order[1:] {
		others = append(others, sets[idx])
	}

	var matches [][]byte
	for el := range smallest {
		inAll := true
		for _, s := range others {
			if _, ok := s[el]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			matches = append(matches, []byte(el))
		}
	}

	out := []byte(itoa(len(matches)) + "\r\n")
	for _, m := range matches {
		out = append(out, bulk(m)...)
	}
	return out
}
