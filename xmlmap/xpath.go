package xmlmap

import (
	orcuserr "github.com/orcus-go/orcus/errors"
	"github.com/orcus-go/orcus/xmlns"
)

// xpathToken is one segment of the accepted grammar `/seg(/seg)*(/@attr)?`:
// a namespace-resolved local name, tagged as an attribute only for the
// final segment.
type xpathToken struct {
	ns        xmlns.ID
	name      string
	attribute bool
}

// xpathParser scans the narrow xpath subset of §4.8 one segment at a time.
// Grounded on xpath_parser.cpp's next(): a single forward scan tracking
// only the current segment's start offset and a pending "next token is an
// attribute" flag set on '@'.
type xpathParser struct {
	cxt        *xmlns.Context
	s          string
	pos        int
	defaultNS  xmlns.ID
	nextIsAttr bool
}

func newXPathParser(cxt *xmlns.Context, path string, defaultNS xmlns.ID) (*xpathParser, error) {
	if path == "" {
		return nil, orcuserr.NewXPathError("empty path")
	}
	if path[0] != '/' {
		return nil, orcuserr.NewXPathError("first character must be '/'")
	}
	return &xpathParser{cxt: cxt, s: path, pos: 1, defaultNS: defaultNS}, nil
}

// next returns the next token, or ok=false once the path is exhausted.
func (p *xpathParser) next() (xpathToken, bool, error) {
	if p.pos >= len(p.s) {
		return xpathToken{}, false, nil
	}

	start := -1
	ns := xmlns.UnknownID
	sawPrefix := false
	attrThis := p.nextIsAttr
	p.nextIsAttr = false

	for ; p.pos < len(p.s); p.pos++ {
		if start < 0 {
			start = p.pos
		}

		switch p.s[p.pos] {
		case '/':
			if attrThis {
				return xpathToken{}, false, orcuserr.NewXPathError("attribute name should not contain '/'")
			}
			name := p.s[start:p.pos]
			p.pos++
			if !sawPrefix {
				ns = p.defaultNS
			}
			return xpathToken{ns: ns, name: name, attribute: false}, true, nil
		case '@':
			if start == p.pos {
				// "/@attr": the attribute is this segment itself.
				attrThis = true
				start = -1
				continue
			}
			p.nextIsAttr = true
			name := p.s[start:p.pos]
			p.pos++
			if !sawPrefix {
				ns = p.defaultNS
			}
			return xpathToken{ns: ns, name: name, attribute: false}, true, nil
		case ':':
			prefix := p.s[start:p.pos]
			ns = p.cxt.Get(prefix)
			sawPrefix = true
			start = -1
		}
	}

	name := ""
	if start >= 0 {
		name = p.s[start:]
	}
	if !sawPrefix {
		ns = p.defaultNS
	}
	return xpathToken{ns: ns, name: name, attribute: attrThis}, true, nil
}
