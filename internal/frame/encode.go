package frame

import (
	"math"
	"strconv"
)

// Encode appends the wire representation of f to dst and returns the
// extended slice. Encoding is total: every valid Frame value has exactly
// one encoding and Encode never fails, matching spec §4.2 ("Encoder is
// infallible for any well-formed Frame").
func Encode(dst []byte, f Frame) []byte {
	switch f.Kind {
	case KindSimpleString:
		dst = append(dst, '+')
		dst = append(dst, f.str...)
		return append(dst, '\r', '\n')

	case KindSimpleError:
		dst = append(dst, '-')
		dst = append(dst, f.str...)
		return append(dst, '\r', '\n')

	case KindInteger:
		dst = append(dst, ':')
		dst = strconv.AppendInt(dst, f.i64, 10)
		return append(dst, '\r', '\n')

	case KindBulkString:
		dst = append(dst, '$')
		dst = strconv.AppendInt(dst, int64(len(f.bulk)), 10)
		dst = append(dst, '\r', '\n')
		dst = append(dst, f.bulk...)
		return append(dst, '\r', '\n')

	case KindArray:
		dst = append(dst, '*')
		dst = strconv.AppendInt(dst, int64(len(f.arr)), 10)
		dst = append(dst, '\r', '\n')
		for _, item := range f.arr {
			dst = Encode(dst, item)
		}
		return dst

	case KindNull:
		return append(dst, '_', '\r', '\n')

	case KindBoolean:
		dst = append(dst, '#')
		if f.b {
			dst = append(dst, 't')
		} else {
			dst = append(dst, 'f')
		}
		return append(dst, '\r', '\n')

	case KindDouble:
		dst = append(dst, ',')
		dst = append(dst, formatDouble(f.f64)...)
		return append(dst, '\r', '\n')

	case KindMap:
		dst = append(dst, '%')
		dst = strconv.AppendInt(dst, int64(len(f.pairs)), 10)
		dst = append(dst, '\r', '\n')
		for _, e := range f.pairs {
			dst = Encode(dst, e.Key)
			dst = Encode(dst, e.Value)
		}
		return dst

	case KindSet:
		dst = append(dst, '~')
		dst = strconv.AppendInt(dst, int64(len(f.set)), 10)
		dst = append(dst, '\r', '\n')
		for _, m := range f.set {
			dst = Encode(dst, m)
		}
		return dst

	default:
		panic("frame: Encode: unknown kind " + f.Kind.String())
	}
}

// formatDouble renders a float64 per spec §6.1: the special tokens
// "nan", "inf", "-inf" for their respective non-finite values, and the
// shortest decimal string that round-trips to the same float64 otherwise
// (strconv's 'g' format with precision -1), matching how the upstream
// Rust implementation's `ryu`-style formatting behaves.
func formatDouble(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	default:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
}

// parseDouble parses the textual form produced by formatDouble, used by
// the Double decoder.
func parseDouble(s string) (float64, error) {
	switch s {
	case "nan":
		return math.NaN(), nil
	case "inf", "+inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	default:
		return strconv.ParseFloat(s, 64)
	}
}
