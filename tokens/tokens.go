// Package tokens implements the caller-supplied name->integer table used by
// saxtoken to avoid string comparison in its hot path (§4.4, §7 "Token
// table").
//
// Grounded on original_source/include/orcus/sax_token_parser.hpp's `tokens`
// interface (tokenize()/get_token_name()) and types.hpp's
// XML_UNKNOWN_TOKEN == 0 constant. File-format-specific token tables
// themselves are supplied as data (out of scope per the overview); this
// package is the generic lookup structure they're built on.
package tokens

// T is a token value. Unknown is reserved for names absent from the table.
type T int

// Unknown is the token value for a name that isn't in the table, mirroring
// XML_UNKNOWN_TOKEN.
const Unknown T = 0

// Table is a constant-time, bidirectional mapping between short identifier
// strings and small integers. It is built once (typically from a
// file-format-specific generated list) and never mutated afterward, so a
// *Table is safe for concurrent read-only use.
type Table struct {
	byName  map[string]T
	byToken []string
}

// New builds a Table from names, in order. Token 0 is always Unknown;
// names[i] is assigned token T(i+1). Duplicate names keep their first
// assigned token.
func New(names []string) *Table {
	t := &Table{
		byName:  make(map[string]T, len(names)),
		byToken: make([]string, 1, len(names)+1),
	}
	t.byToken[0] = ""
	for _, name := range names {
		if _, ok := t.byName[name]; ok {
			continue
		}
		tok := T(len(t.byToken))
		t.byToken = append(t.byToken, name)
		t.byName[name] = tok
	}
	return t
}

// Tokenize returns the token assigned to name, or Unknown if name was never
// registered in the table.
func (t *Table) Tokenize(name string) T {
	if t == nil {
		return Unknown
	}
	if tok, ok := t.byName[name]; ok {
		return tok
	}
	return Unknown
}

// Name returns the name originally registered for tok, or "" for Unknown or
// an out-of-range token.
func (t *Table) Name(tok T) string {
	if t == nil || int(tok) < 0 || int(tok) >= len(t.byToken) {
		return ""
	}
	return t.byToken[tok]
}
