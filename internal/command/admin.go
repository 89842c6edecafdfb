package command

import "strconv"

func cmdPing(eng Engine, args [][]byte) []byte {
	return replyPong
}

// cmdEcho replies with the payload using the same bulk framing every other
// bulk reply uses.
func cmdEcho(eng Engine, args [][]byte) []byte {
	return bulk(args[0])
}

func cmdSelect(eng Engine, args [][]byte) []byte {
	n, err := strconv.Atoi(string(args[0]))
	if err != nil {
		return replyBadDBIndex
	}
	if err := eng.SelectDB(n); err != nil {
		return replyBadDBIndex
	}
	return replyOK
}

func cmdDBSize(eng Engine, args [][]byte) []byte {
	return []byte(itoa(eng.DB().Len()) + "\r\n")
}

func cmdSave(eng Engine, args [][]byte) []byte {
	if err := eng.Save(); err != nil {
		return errReply(err.Error())
	}
	return replyOK
}

func cmdBGSave(eng Engine, args [][]byte) []byte {
	if eng.SaveInProgress() {
		return replyBGSaveInProg
	}
	if err := eng.BGSave(); err != nil {
		return errReply(err.Error())
	}
	return []byte("+Background saving started\r\n")
}

func cmdLastSave(eng Engine, args [][]byte) []byte {
	return []byte(itoa(int(eng.LastSave())) + "\r\n")
}

func cmdShutdown(eng Engine, args [][]byte) []byte {
	if err := eng.Shutdown(); err != nil {
		return errReply(err.Error())
	}
	// unreachable on success: Shutdown terminates the process.
	return nil
}

func cmdType(eng Engine, args [][]byte) []byte {
	v, ok := eng.DB().Get(string(args[0]))
	if !ok {
		return []byte("none\r\n")
	}
	return []byte(v.Type().String() + "\r\n")
}

// cmdConfigGet handles CONFIG GET <directive>: the first argument must be
// the literal "get", the second the directive name. Directives stay
// read-only at runtime; there is no CONFIG SET.
func cmdConfigGet(eng Engine, args [][]byte) []byte {
	if string(args[0]) != "get" && string(args[0]) != "GET" {
		return replyUnknownCmd
	}
	v, ok := eng.ConfigGet(string(args[1]))
	if !ok {
		return replyNil
	}
	return bulk([]byte(v))
}

func cmdFlushDB(eng Engine, args [][]byte) []byte {
	eng.DB().Flush()
	eng.MarkDirty()
	return replyOK
}

func cmdFlushAll(eng Engine, args [][]byte) []byte {
	ks := eng.Keyspace()
	for i := 0; i < ks.N(); i++ {
		db, _ := ks.DB(i)
		db.Flush()
	}
	eng.MarkDirty()
	return replyOK
}

func cmdInfo(eng Engine, args [][]byte) []byte {
	return bulk([]byte(eng.Info()))
}
