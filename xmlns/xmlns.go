// Package xmlns implements the XML namespace repository and per-stream
// contexts described in §3 ("XML namespace repository"): a repository
// interns namespace URIs as stable, pointer-comparable identifiers and
// creates independent contexts, each a stack of alias->identity bindings
// scoped by element nesting.
//
// Grounded on original_source/include/orcus/xml_namespace.hpp. The Go port
// replaces pointer identity (not meaningful across a GC'd, potentially
// moved string) with an interned small integer ID, which is the same
// "stable, comparable identity regardless of the original string's storage"
// property the C++ class provides via xmlns_id_t.
package xmlns

// ID is a stable, comparable identifier for an interned namespace URI.
// ID(0) is reserved for "no namespace" (UnknownID).
type ID int

// UnknownID represents the absence of a namespace, used both for elements
// with no namespace and as the sentinel returned by lookups that fail.
const UnknownID ID = 0

// Repository interns namespace URIs as stable IDs shared across every
// context created from it. A repository is not safe for concurrent use by
// multiple contexts running on different goroutines, matching the source's
// documented single-owner lifecycle (§3: "contexts are not shared across
// threads").
type Repository struct {
	uriToID map[string]ID
	idToURI []string
}

// NewRepository creates an empty namespace repository.
func NewRepository() *Repository {
	r := &Repository{uriToID: make(map[string]ID)}
	r.idToURI = append(r.idToURI, "") // index 0 reserved for UnknownID
	return r
}

// intern returns the stable ID for uri, creating one if this is the first
// time uri has been seen by this repository.
func (r *Repository) intern(uri string) ID {
	if uri == "" {
		return UnknownID
	}
	if id, ok := r.uriToID[uri]; ok {
		return id
	}
	id := ID(len(r.idToURI))
	r.idToURI = append(r.idToURI, uri)
	r.uriToID[uri] = id
	return id
}

// GetIndex returns the numeric index assigned to id; the index is
// guaranteed unique and stable for the lifetime of the repository.
func (r *Repository) GetIndex(id ID) int { return int(id) }

// GetIdentifier returns the namespace ID previously assigned at the given
// numeric index, or UnknownID if the index is out of range.
func (r *Repository) GetIdentifier(index int) ID {
	if index < 0 || index >= len(r.idToURI) {
		return UnknownID
	}
	return ID(index)
}

// URI returns the interned URI string for id, or "" for UnknownID or an
// unrecognized id.
func (r *Repository) URI(id ID) string {
	if int(id) < 0 || int(id) >= len(r.idToURI) {
		return ""
	}
	return r.idToURI[id]
}

// GetShortName returns a deterministic, display-friendly short name for id
// ("ns1", "ns2", ... in interning order; "" for UnknownID), stable for the
// lifetime of the repository. See §3.
func (r *Repository) GetShortName(id ID) string {
	if id == UnknownID {
		return ""
	}
	return shortName(int(id))
}

func shortName(index int) string {
	const digits = "0123456789"
	if index == 0 {
		return "ns0"
	}
	var suffix []byte
	n := index
	for n > 0 {
		suffix = append([]byte{digits[n%10]}, suffix...)
		n /= 10
	}
	return "ns" + string(suffix)
}

// CreateContext creates a new, independent namespace context bound to this
// repository. A context must not outlive its repository.
func (r *Repository) CreateContext() *Context {
	return &Context{repo: r}
}

type binding struct {
	alias string
	id    ID
	prev  ID
	hadPrev bool
}

// Context is a stack of alias->identity bindings scoped by element nesting,
// per §3: a new context should be created per XML stream since aliases
// themselves are not interned.
type Context struct {
	repo     *Repository
	current  map[string]ID
	bindings []binding
	scopes   []int // index into bindings marking the start of each pushed scope
}

// Push binds alias to uri (interning uri in the owning repository) and
// returns the resulting namespace ID. If alias was already bound, the
// previous binding is shadowed until the matching Pop.
func (c *Context) Push(alias, uri string) ID {
	if c.current == nil {
		c.current = make(map[string]ID)
	}
	id := c.repo.intern(uri)
	prev, hadPrev := c.current[alias]
	c.bindings = append(c.bindings, binding{alias: alias, id: id, prev: prev, hadPrev: hadPrev})
	c.current[alias] = id
	return id
}

// Pop removes the most recent binding for alias, restoring whatever was
// bound before it (or removing the alias entirely if there was none).
func (c *Context) Pop(alias string) {
	for i := len(c.bindings) - 1; i >= 0; i-- {
		if c.bindings[i].alias != alias {
			continue
		}
		b := c.bindings[i]
		c.bindings = append(c.bindings[:i], c.bindings[i+1:]...)
		if b.hadPrev {
			c.current[alias] = b.prev
		} else {
			delete(c.current, alias)
		}
		return
	}
}

// Get returns the namespace ID currently bound to alias, or UnknownID if
// alias is not currently bound.
func (c *Context) Get(alias string) ID {
	if c.current == nil {
		return UnknownID
	}
	return c.current[alias]
}

// GetIndex delegates to the owning repository.
func (c *Context) GetIndex(id ID) int { return c.repo.GetIndex(id) }

// GetShortName delegates to the owning repository.
func (c *Context) GetShortName(id ID) string { return c.repo.GetShortName(id) }

// GetAlias returns an alias currently associated with id, or "" if none is
// currently bound to it. When more than one alias maps to id, an arbitrary
// one among them is returned, matching the source's unordered guarantee.
func (c *Context) GetAlias(id ID) string {
	for alias, boundID := range c.current {
		if boundID == id {
			return alias
		}
	}
	return ""
}

// PushScope begins a new nesting scope (one per start_element). Aliases
// pushed after this call are all popped together by PopScope.
func (c *Context) PushScope() {
	c.scopes = append(c.scopes, len(c.bindings))
}

// PopScope pops every binding introduced since the matching PushScope, in
// unspecified order — per §4.3, they are disjoint so order doesn't matter.
func (c *Context) PopScope() {
	if len(c.scopes) == 0 {
		return
	}
	mark := c.scopes[len(c.scopes)-1]
	c.scopes = c.scopes[:len(c.scopes)-1]

	for len(c.bindings) > mark {
		last := c.bindings[len(c.bindings)-1]
		c.bindings = c.bindings[:len(c.bindings)-1]
		if last.hadPrev {
			c.current[last.alias] = last.prev
		} else {
			delete(c.current, last.alias)
		}
	}
}
