package parserbase

import (
	"strconv"
	"unicode/utf8"
)

// DecodeEntity decodes the inner text of an `&...;` reference (without the
// leading `&` or trailing `;`) per §4.1: the five named XML entities, and
// the numeric forms `#NNN` (decimal) and `#xHHH` (hex). It returns the
// decoded UTF-8 bytes and true on success. On an unrecognized form it
// returns false, in which case the caller is expected to re-emit the
// original `&inner;` literal unchanged (§4.1: "the decoder leaves the
// original literal in the output buffer").
func DecodeEntity(inner string) ([]byte, bool) {
	switch inner {
	case "lt":
		return []byte{'<'}, true
	case "gt":
		return []byte{'>'}, true
	case "amp":
		return []byte{'&'}, true
	case "apos":
		return []byte{'\''}, true
	case "quot":
		return []byte{'"'}, true
	}

	if len(inner) < 2 || inner[0] != '#' {
		return nil, false
	}

	var cp int64
	var err error
	if inner[1] == 'x' || inner[1] == 'X' {
		if len(inner) < 3 {
			return nil, false
		}
		cp, err = strconv.ParseInt(inner[2:], 16, 32)
	} else {
		cp, err = strconv.ParseInt(inner[1:], 10, 32)
	}
	if err != nil {
		return nil, false
	}
	if cp < 0 || cp >= 0x110000 {
		return nil, false
	}

	buf := make([]byte, utf8.UTFMax)
	n := utf8.EncodeRune(buf, rune(cp))
	return buf[:n], true
}
