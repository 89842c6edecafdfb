package command

// Handler executes one command against the engine's currently-selected
// database and returns the fully-framed reply bytes.
type Handler func(eng Engine, args [][]byte) []byte

type entry struct {
	// arity: positive means exact argc (command name included), negative
	// means "at least -arity".
	arity   int
	bulk    bool
	handler Handler
}

// table maps a lowercased command name to its dispatch entry.
var table = map[string]entry{
	"ping":     {1, false, cmdPing},
	"echo":     {2, true, cmdEcho},
	"select":   {2, false, cmdSelect},
	"dbsize":   {1, false, cmdDBSize},
	"save":     {1, false, cmdSave},
	"bgsave":   {1, false, cmdBGSave},
	"lastsave": {1, false, cmdLastSave},
	"shutdown": {1, false, cmdShutdown},
	"type":     {2, false, cmdType},
	"config":   {3, false, cmdConfigGet},
	"flushdb":  {1, false, cmdFlushDB},
	"flushall": {1, false, cmdFlushAll},
	"info":     {1, false, cmdInfo},

	"set":     {3, true, cmdSet},
	"setnx":   {3, true, cmdSetNX},
	"get":     {2, false, cmdGet},
	"incr":    {2, false, cmdIncr},
	"decr":    {2, false, cmdDecr},
	"incrby":  {3, false, cmdIncrBy},
	"decrby":  {3, false, cmdDecrBy},

	"lpush":  {3, true, cmdLPush},
	"rpush":  {3, true, cmdRPush},
	"lpop":   {2, false, cmdLPop},
	"rpop":   {2, false, cmdRPop},
	"llen":   {2, false, cmdLLen},
	"lindex": {3, false, cmdLIndex},
	"lset":   {4, true, cmdLSet},
	"lrange": {4, false, cmdLRange},
	"ltrim":  {4, false, cmdLTrim},

	"sadd":      {3, true, cmdSAdd},
	"srem":      {3, true, cmdSRem},
	"sismember": {3, true, cmdSIsMember},
	"scard":     {2, false, cmdSCard},
	"sinter":    {-2, false, cmdSInter},
	"smembers":  {2, false, cmdSInter},

	"del":       {2, false, cmdDel},
	"exists":    {2, false, cmdExists},
	"rename":    {3, false, cmdRename},
	"renamenx":  {3, false, cmdRenameNX},
	"move":      {3, false, cmdMove},
	"randomkey": {1, false, cmdRandomKey},
	"keys":      {2, false, cmdKeys},
}

// IsBulk reports whether name (already lowercased) takes a trailing bulk
// payload, per proto.BulkLookup. Unknown commands are not bulk: the
// dispatcher rejects them with -ERR unknown command instead of stalling
// the parser waiting for a payload that will never arrive.
func IsBulk(name string) bool {
	e, ok := table[name]
	return ok && e.bulk
}

// Dispatch looks up name, arity-checks argc (len(args)+1 for the name
// itself), and runs the handler. closeConn is reserved for the "quit"
// pseudo-command, which callers must special-case before ever reaching
// Dispatch; Dispatch itself never returns true, the flag exists so server
// code has one place to check.
func Dispatch(eng Engine, name string, args [][]byte) (reply []byte, closeConn bool) {
	e, ok := table[name]
	if !ok {
		return replyUnknownCmd, false
	}

	argc := len(args) + 1
	if e.arity > 0 && argc != e.arity {
		return replyWrongArity, false
	}
	if e.arity < 0 && argc < -e.arity {
		return replyWrongArity, false
	}

	return e.handler(eng, args), false
}
