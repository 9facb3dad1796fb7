// Package command implements the typed command layer: parsing a decoded
// Array frame into one of the supported commands and executing it
// against the store to produce a reply frame.
//
// The shape of this package is grounded on okqin/simple-redis's cmd
// package (see _examples/original_source/src/cmd): one struct per
// command, arity/type validated at parse time, an enum-like dispatch on
// the lowercased command name, and a shared InvalidCommandArguments
// sentinel for arity failures, reworked into Go as a single Command
// struct with a Kind tag plus sentinel error types instead of Rust's
// TryFrom/enum_dispatch.
package command

import (
	"bytes"
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/wirekv/wirekv/internal/frame"
	"github.com/wirekv/wirekv/internal/store"
)

// Kind identifies which command a parsed Command represents.
type Kind int

const (
	Get Kind = iota
	Set
	Del
	Echo
	HSet
	HMSet
	HGet
	HMGet
	HDel
	HGetAll
	HKeys
	SAdd
	SRem
	SIsMember
	SMembers
)

var names = map[string]Kind{
	"get":       Get,
	"set":       Set,
	"del":       Del,
	"echo":      Echo,
	"hset":      HSet,
	"hmset":     HMSet,
	"hget":      HGet,
	"hmget":     HMGet,
	"hdel":      HDel,
	"hgetall":   HGetAll,
	"hkeys":     HKeys,
	"sadd":      SAdd,
	"srem":      SRem,
	"sismember": SIsMember,
	"smembers":  SMembers,
}

// InvalidCommandError is returned when the command name itself is
// unrecognized, or the request is not shaped like a command at all (not
// an Array, or missing a BulkString command name). Per spec §7 this
// replies with a SimpleError and keeps the connection open.
type InvalidCommandError struct {
	Message string
}

func (e *InvalidCommandError) Error() string { return e.Message }

// ArityError is returned when the command name is recognized but the
// argument count or shape doesn't match what that command requires.
// Always renders as the fixed wire message "ERR wrong number of
// arguments for command".
type ArityError struct {
	Command string
}

func (e *ArityError) Error() string {
	return "ERR wrong number of arguments for command"
}

// Utf8Error is returned when a position requiring a valid UTF-8 string
// (a key or field name) contains invalid bytes.
type Utf8Error struct {
	Command string
}

func (e *Utf8Error) Error() string { return "ERR internal error" }

// Command is a parsed, ready-to-execute request.
type Command struct {
	Kind Kind

	key    string
	field  string
	fields []string
	keys   []string
	value  frame.Frame
	values []frame.Frame
	pairs  []fieldValue
	text   string
}

type fieldValue struct {
	field string
	value frame.Frame
}

// Parse validates f as a top-level command Array and builds a Command.
// f must be an Array whose first element is a BulkString command name
// (case-insensitive); every remaining position that the command requires
// to be a key or field name must also be a BulkString containing valid
// UTF-8.
func Parse(f frame.Frame) (Command, error) {
	if f.Kind != frame.KindArray {
		return Command{}, &InvalidCommandError{Message: "ERR command must be an array"}
	}
	items := f.Items()
	if len(items) == 0 {
		return Command{}, &InvalidCommandError{Message: "ERR empty command"}
	}
	if items[0].Kind != frame.KindBulkString {
		return Command{}, &InvalidCommandError{Message: "ERR command name must be a bulk string"}
	}

	name := string(bytes.ToLower(items[0].Bytes()))
	kind, ok := names[name]
	if !ok {
		return Command{}, &InvalidCommandError{Message: fmt.Sprintf("ERR unknown command '%s'", name)}
	}
	args := items[1:]

	switch kind {
	case Get:
		key, err := stringArg(name, args, 0, 1)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: Get, key: key}, nil

	case Set:
		if len(args) != 2 {
			return Command{}, &ArityError{Command: name}
		}
		key, err := bulkUTF8(args[0])
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: Set, key: key, value: args[1]}, nil

	case Del:
		keys, err := stringArgsAtLeast(name, args, 1)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: Del, keys: keys}, nil

	case Echo:
		text, err := stringArg(name, args, 0, 1)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: Echo, text: text}, nil

	case HGet:
		if len(args) != 2 {
			return Command{}, &ArityError{Command: name}
		}
		key, err := bulkUTF8(args[0])
		if err != nil {
			return Command{}, err
		}
		field, err := bulkUTF8(args[1])
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: HGet, key: key, field: field}, nil

	case HMGet:
		if len(args) < 2 {
			return Command{}, &ArityError{Command: name}
		}
		key, err := bulkUTF8(args[0])
		if err != nil {
			return Command{}, err
		}
		fields, err := stringsFrom(args[1:])
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: HMGet, key: key, fields: fields}, nil

	case HDel:
		if len(args) < 2 {
			return Command{}, &ArityError{Command: name}
		}
		key, err := bulkUTF8(args[0])
		if err != nil {
			return Command{}, err
		}
		fields, err := stringsFrom(args[1:])
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: HDel, key: key, fields: fields}, nil

	case HGetAll, HKeys:
		key, err := stringArg(name, args, 0, 1)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: kind, key: key}, nil

	case HSet, HMSet:
		if len(args) < 3 || (len(args)-1)%2 != 0 {
			return Command{}, &ArityError{Command: name}
		}
		key, err := bulkUTF8(args[0])
		if err != nil {
			return Command{}, err
		}
		pairs := make([]fieldValue, 0, (len(args)-1)/2)
		for i := 1; i < len(args); i += 2 {
			field, err := bulkUTF8(args[i])
			if err != nil {
				return Command{}, err
			}
			pairs = append(pairs, fieldValue{field: field, value: args[i+1]})
		}
		return Command{Kind: kind, key: key, pairs: pairs}, nil

	case SAdd, SRem:
		if len(args) < 2 {
			return Command{}, &ArityError{Command: name}
		}
		key, err := bulkUTF8(args[0])
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: kind, key: key, values: append([]frame.Frame{}, args[1:]...)}, nil

	case SIsMember:
		if len(args) != 2 {
			return Command{}, &ArityError{Command: name}
		}
		key, err := bulkUTF8(args[0])
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: SIsMember, key: key, value: args[1]}, nil

	case SMembers:
		key, err := stringArg(name, args, 0, 1)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: SMembers, key: key}, nil

	default:
		return Command{}, &InvalidCommandError{Message: fmt.Sprintf("ERR unknown command '%s'", name)}
	}
}

func stringArg(name string, args []frame.Frame, idx, want int) (string, error) {
	if len(args) != want {
		return "", &ArityError{Command: name}
	}
	return bulkUTF8(args[idx])
}

func stringArgsAtLeast(name string, args []frame.Frame, min int) ([]string, error) {
	if len(args) < min {
		return nil, &ArityError{Command: name}
	}
	return stringsFrom(args)
}

func stringsFrom(args []frame.Frame) ([]string, error) {
	out := make([]string, len(args))
	for i, a := range args {
		s, err := bulkUTF8(a)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func bulkString(f frame.Frame) (string, error) {
	if f.Kind != frame.KindBulkString {
		return "", &InvalidCommandError{Message: "ERR argument must be a bulk string"}
	}
	return string(f.Bytes()), nil
}

func bulkUTF8(f frame.Frame) (string, error) {
	s, err := bulkString(f)
	if err != nil {
		return "", err
	}
	if !utf8.ValidString(s) {
		return "", &Utf8Error{}
	}
	return s, nil
}

// Execute runs the command against st and returns the reply frame. Every
// path returns a well-formed Frame; Execute never returns a Go error
// because by the time a Command exists it has already been fully
// validated by Parse.
func (c Command) Execute(st *store.Store) frame.Frame {
	switch c.Kind {
	case Get:
		if v, ok := st.Get(c.key); ok {
			return v
		}
		return frame.Null()

	case Set:
		st.Set(c.key, c.value)
		return okReply()

	case Del:
		var n int64
		for _, k := range c.keys {
			if st.Del(k) {
				n++
			}
		}
		return frame.Integer(n)

	case Echo:
		return frame.BulkStringFromString(c.text)

	case HGet:
		if v, ok := st.HGet(c.key, c.field); ok {
			return v
		}
		return frame.Null()

	case HMGet:
		out := make([]frame.Frame, len(c.fields))
		for i, f := range c.fields {
			if v, ok := st.HGet(c.key, f); ok {
				out[i] = v
			} else {
				out[i] = frame.Null()
			}
		}
		return frame.Array(out)

	case HDel:
		var n int64
		for _, f := range c.fields {
			if st.HDel(c.key, f) {
				n++
			}
		}
		return frame.Integer(n)

	case HGetAll:
		return hgetallReply(st, c.key, false)

	case HKeys:
		keys, ok := st.HKeys(c.key)
		if !ok {
			return frame.Array(nil)
		}
		sort.Strings(keys)
		items := make([]frame.Frame, len(keys))
		for i, k := range keys {
			items[i] = frame.BulkStringFromString(k)
		}
		return frame.Array(items)

	case HSet:
		return hsetExecute(st, c)

	case HMSet:
		hsetExecute(st, c)
		return okReply()

	case SAdd:
		var n int64
		for _, v := range c.values {
			if st.SAdd(c.key, v) {
				n++
			}
		}
		return frame.Integer(n)

	case SRem:
		var n int64
		for _, v := range c.values {
			if st.SRem(c.key, v) {
				n++
			}
		}
		return frame.Integer(n)

	case SIsMember:
		if st.SIsMember(c.key, c.value) {
			return frame.Integer(1)
		}
		return frame.Integer(0)

	case SMembers:
		members, ok := st.SMembers(c.key)
		if !ok {
			return frame.Array(nil)
		}
		return frame.Array(members)

	default:
		return frame.SimpleError("ERR internal error")
	}
}

func hsetExecute(st *store.Store, c Command) frame.Frame {
	for _, p := range c.pairs {
		st.HSet(c.key, p.field, p.value)
	}
	return frame.Integer(int64(len(c.pairs)))
}

// hgetallReply reports the Array reply for HGETALL given the command's
// requested ordering. The wire path (Kind == HGetAll) always calls this
// with sorted=false; HGetAllSorted exposes the sorted variant used only
// by tests and the admin debug view (see internal/adminserver), matching
// the upstream source's sort flag being a constructor-only option never
// set from the wire.
func hgetallReply(st *store.Store, key string, sorted bool) frame.Frame {
	pairs, ok := st.HGetAll(key, sorted)
	if !ok {
		return frame.Array(nil)
	}
	items := make([]frame.Frame, 0, len(pairs)*2)
	for _, p := range pairs {
		items = append(items, frame.BulkStringFromString(p.Field), p.Value)
	}
	return frame.Array(items)
}

// HGetAllSorted executes a sorted HGETALL directly against the store,
// bypassing command parsing. Per spec's open question (b), the wire
// parser never produces sorted=true; this entry point exists so tests
// and the admin /debug/store endpoint can exercise the sorted reply
// shape deterministically.
func HGetAllSorted(st *store.Store, key string) frame.Frame {
	return hgetallReply(st, key, true)
}

// okReply is the canonical reply shared by every command that always
// succeeds unconditionally (SET, HMSET), mirroring the upstream source's
// lazy_static RESP_OK sentinel.
var okFrame = frame.SimpleString("OK")

func okReply() frame.Frame { return okFrame }
