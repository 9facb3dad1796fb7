package frame

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

// ErrIncomplete is returned by Decode when buf does not yet hold a full
// frame. It is not a protocol error: the caller should retry Decode once
// more bytes have arrived from the network. Matches spec §4.1/§7:
// "FrameIncomplete ... Not an error on the wire; caller resumes after more
// bytes arrive."
var ErrIncomplete = errors.New("frame: incomplete")

// InvalidFrameError is returned for any malformed input: bad prefix byte,
// non-numeric length, or a malformed integer/float line. Per spec §7 this
// always closes the connection.
type InvalidFrameError struct {
	Reason string
}

func (e *InvalidFrameError) Error() string { return "frame: invalid: " + e.Reason }

func invalid(format string, args ...interface{}) error {
	return &InvalidFrameError{Reason: fmt.Sprintf(format, args...)}
}

const crlfLen = 2

var crlf = []byte("\r\n")

// resp2NullSuffix is the legacy `-1` length marker for BulkString/Array, decoded
// per spec §9 to an empty BulkString / empty Array rather than to Null.
const resp2NullSuffix = "-1\r\n"

// Decode attempts to parse exactly one frame from the front of buf.
//
// On success it returns the frame, the number of bytes consumed from buf,
// and a nil error. On a short buffer it returns ErrIncomplete and a
// consumed count of 0 — buf is never partially interpreted. On malformed
// input it returns an *InvalidFrameError.
//
// Composite kinds (Array, Map, Set, BulkString) first compute their total
// encoded length via expectLength before consuming anything, so that a
// partial composite leaves buf completely untouched for the caller to
// retry once more bytes arrive (spec §4.1, §9: "two-pass inspection").
func Decode(buf []byte) (Frame, int, error) {
	if len(buf) == 0 {
		return Frame{}, 0, ErrIncomplete
	}

	n, err := expectLength(buf)
	if err != nil {
		return Frame{}, 0, err
	}
	if n > len(buf) {
		return Frame{}, 0, ErrIncomplete
	}

	f, consumed, err := decodeOne(buf[:n])
	if err != nil {
		return Frame{}, 0, err
	}
	return f, consumed, nil
}

// decodeOne decodes exactly one frame known to be fully present in buf
// (expectLength already verified this). consumed always equals len(buf)
// for top-level composite calls but is tracked explicitly for recursive
// element decoding inside decodeOne.
func decodeOne(buf []byte) (Frame, int, error) {
	if len(buf) == 0 {
		return Frame{}, 0, ErrIncomplete
	}

	switch buf[0] {
	case '+':
		end, err := findCRLF(buf, 1)
		if err != nil {
			return Frame{}, 0, err
		}
		return SimpleString(string(buf[1:end])), end + crlfLen, nil

	case '-':
		end, err := findCRLF(buf, 1)
		if err != nil {
			return Frame{}, 0, err
		}
		return SimpleError(string(buf[1:end])), end + crlfLen, nil

	case ':':
		end, err := findCRLF(buf, 1)
		if err != nil {
			return Frame{}, 0, err
		}
		v, err := strconv.ParseInt(string(buf[1:end]), 10, 64)
		if err != nil {
			return Frame{}, 0, invalid("bad integer %q: %v", buf[1:end], err)
		}
		return Integer(v), end + crlfLen, nil

	case '$':
		if bytes.HasPrefix(buf[1:], []byte(resp2NullSuffix)) {
			return BulkString(nil), 1 + len(resp2NullSuffix), nil
		}
		end, err := findCRLF(buf, 1)
		if err != nil {
			return Frame{}, 0, err
		}
		length, err := parseLength(buf[1:end])
		if err != nil {
			return Frame{}, 0, err
		}
		start := end + crlfLen
		if start+length+crlfLen > len(buf) {
			return Frame{}, 0, ErrIncomplete
		}
		data := buf[start : start+length]
		return BulkString(data), start + length + crlfLen, nil

	case '*':
		if bytes.HasPrefix(buf[1:], []byte(resp2NullSuffix)) {
			return Array(nil), 1 + len(resp2NullSuffix), nil
		}
		end, err := findCRLF(buf, 1)
		if err != nil {
			return Frame{}, 0, err
		}
		count, err := parseLength(buf[1:end])
		if err != nil {
			return Frame{}, 0, err
		}
		off := end + crlfLen
		items := make([]Frame, 0, count)
		for i := 0; i < count; i++ {
			item, n, err := decodeOne(buf[off:])
			if err != nil {
				return Frame{}, 0, err
			}
			items = append(items, item)
			off += n
		}
		return Array(items), off, nil

	case '_':
		end, err := findCRLF(buf, 1)
		if err != nil {
			return Frame{}, 0, err
		}
		if end != 1 {
			return Frame{}, 0, invalid("null frame must be empty, got %q", buf[1:end])
		}
		return Null(), end + crlfLen, nil

	case '#':
		end, err := findCRLF(buf, 1)
		if err != nil {
			return Frame{}, 0, err
		}
		switch string(buf[1:end]) {
		case "t":
			return Boolean(true), end + crlfLen, nil
		case "f":
			return Boolean(false), end + crlfLen, nil
		default:
			return Frame{}, 0, invalid("bad boolean %q", buf[1:end])
		}

	case ',':
		end, err := findCRLF(buf, 1)
		if err != nil {
			return Frame{}, 0, err
		}
		v, err := parseDouble(string(buf[1:end]))
		if err != nil {
			return Frame{}, 0, invalid("bad double %q: %v", buf[1:end], err)
		}
		return Double(v), end + crlfLen, nil

	case '%':
		end, err := findCRLF(buf, 1)
		if err != nil {
			return Frame{}, 0, err
		}
		count, err := parseLength(buf[1:end])
		if err != nil {
			return Frame{}, 0, err
		}
		off := end + crlfLen
		entries := make([]MapEntry, 0, count)
		for i := 0; i < count; i++ {
			key, n, err := decodeOne(buf[off:])
			if err != nil {
				return Frame{}, 0, err
			}
			off += n
			val, n, err := decodeOne(buf[off:])
			if err != nil {
				return Frame{}, 0, err
			}
			off += n
			entries = append(entries, MapEntry{Key: key, Value: val})
		}
		return Map(entries), off, nil

	case '~':
		end, err := findCRLF(buf, 1)
		if err != nil {
			return Frame{}, 0, err
		}
		count, err := parseLength(buf[1:end])
		if err != nil {
			return Frame{}, 0, err
		}
		off := end + crlfLen
		members := make([]Frame, 0, count)
		for i := 0; i < count; i++ {
			m, n, err := decodeOne(buf[off:])
			if err != nil {
				return Frame{}, 0, err
			}
			members = append(members, m)
			off += n
		}
		return Set(members), off, nil

	default:
		return Frame{}, 0, invalid("unknown type prefix %q", buf[0])
	}
}

// expectLength computes the total number of bytes the frame starting at
// buf[0] would occupy on the wire, without allocating the decoded value.
// Composite kinds recurse into their children's expectLength so the whole
// computation fails fast (ErrIncomplete) the moment any nested frame can't
// yet determine its own length — this is what lets Decode leave a partial
// buffer untouched (spec §4.1, §9).
func expectLength(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, ErrIncomplete
	}

	switch buf[0] {
	case '+', '-', ':', ',':
		end, err := findCRLF(buf, 1)
		if err != nil {
			return 0, err
		}
		return end + crlfLen, nil

	case '_':
		end, err := findCRLF(buf, 1)
		if err != nil {
			return 0, err
		}
		return end + crlfLen, nil

	case '#':
		end, err := findCRLF(buf, 1)
		if err != nil {
			return 0, err
		}
		return end + crlfLen, nil

	case '$':
		if len(buf) >= 1+len(resp2NullSuffix) && bytes.HasPrefix(buf[1:], []byte(resp2NullSuffix)) {
			return 1 + len(resp2NullSuffix), nil
		}
		end, err := findCRLF(buf, 1)
		if err != nil {
			return 0, err
		}
		length, err := parseLength(buf[1:end])
		if err != nil {
			return 0, err
		}
		total := end + crlfLen + length + crlfLen
		if total > len(buf) {
			return 0, ErrIncomplete
		}
		return total, nil

	case '*', '~':
		if buf[0] == '*' && len(buf) >= 1+len(resp2NullSuffix) && bytes.HasPrefix(buf[1:], []byte(resp2NullSuffix)) {
			return 1 + len(resp2NullSuffix), nil
		}
		end, err := findCRLF(buf, 1)
		if err != nil {
			return 0, err
		}
		count, err := parseLength(buf[1:end])
		if err != nil {
			return 0, err
		}
		total := end + crlfLen
		for i := 0; i < count; i++ {
			if total > len(buf) {
				return 0, ErrIncomplete
			}
			n, err := expectLength(buf[total:])
			if err != nil {
				return 0, err
			}
			total += n
		}
		return total, nil

	case '%':
		end, err := findCRLF(buf, 1)
		if err != nil {
			return 0, err
		}
		count, err := parseLength(buf[1:end])
		if err != nil {
			return 0, err
		}
		total := end + crlfLen
		for i := 0; i < count; i++ {
			if total > len(buf) {
				return 0, ErrIncomplete
			}
			kn, err := expectLength(buf[total:])
			if err != nil {
				return 0, err
			}
			total += kn
			if total > len(buf) {
				return 0, ErrIncomplete
			}
			vn, err := expectLength(buf[total:])
			if err != nil {
				return 0, err
			}
			total += vn
		}
		return total, nil

	default:
		return 0, invalid("unknown type prefix %q", buf[0])
	}
}

// findCRLF returns the index of the first '\r' of the first CRLF sequence
// at or after from, or ErrIncomplete if none is present yet in buf.
func findCRLF(buf []byte, from int) (int, error) {
	idx := bytes.Index(buf[from:], crlf)
	if idx < 0 {
		return 0, ErrIncomplete
	}
	return from + idx, nil
}

// parseLength parses a non-negative length field (Bulk/Array/Map/Set
// counts). Per spec §4.1, a leading sign is only accepted for Integer and
// Double, not for lengths.
func parseLength(b []byte) (int, error) {
	if len(b) == 0 || b[0] == '+' || b[0] == '-' {
		return 0, invalid("bad length %q", b)
	}
	v, err := strconv.Atoi(string(b))
	if err != nil || v < 0 {
		return 0, invalid("bad length %q", b)
	}
	return v, nil
}
