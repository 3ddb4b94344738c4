package model

// ReadState is the set of links marked read. Values are never modified
// after construction; With and Without return new sets.
type ReadState struct {
	links map[string]struct{}
}

// NewReadState builds a set from a list of links. Duplicates collapse.
func NewReadState(links ...string) ReadState {
	m := make(map[string]struct{}, len(links))
	for _, l := range links {
		m[l] = struct{}{}
	}
	return ReadState{links: m}
}

// Has reports whether link is marked read.
func (r ReadState) Has(link string) bool {
	_, ok := r.links[link]
	return ok
}

// Len returns the number of links, orphans included.
func (r ReadState) Len() int { return len(r.links) }

// With returns a copy of r containing link. It returns r itself when the
// link is already present.
func (r ReadState) With(link string) ReadState {
	if r.Has(link) {
		return r
	}
	m := make(map[string]struct{}, len(r.links)+1)
	for l := range r.links {
		m[l] = struct{}{}
	}
	m[link] = struct{}{}
	return ReadState{links: m}
}

// Without returns a copy of r without link.
func (r ReadState) Without(link string) ReadState {
	if !r.Has(link) {
		return r
	}
	m := make(map[string]struct{}, len(r.links))
	for l := range r.links {
		if l != link {
			m[l] = struct{}{}
		}
	}
	return ReadState{links: m}
}

// Links returns the members in no particular order.
func (r ReadState) Links() []string {
	out := make([]string, 0, len(r.links))
	for l := range r.links {
		out = append(out, l)
	}
	return out
}
