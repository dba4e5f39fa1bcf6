package types

import "sort"

// DefaultBlacklistName is the binding the loader injects into every unit and
// reports as exported. It must never be published.
const DefaultBlacklistName = "eval"

// PublishEntry is one assignment of a unit export into the shared namespace
type PublishEntry struct {
	Unit      string
	LocalName string
}

// QualifiedSource returns the reference the entry reads from, e.g. "m1.A"
func (p PublishEntry) QualifiedSource() string {
	return p.Unit + "." + p.LocalName
}

// Statement renders the entry as a host assignment
func (p PublishEntry) Statement() string {
	return p.LocalName + " = " + p.QualifiedSource()
}

// Manifest is the ordered list of publishing assignments for one reload
type Manifest []PublishEntry

// Lines renders every entry as an assignment statement
func (m Manifest) Lines() []string {
	lines := make([]string, 0, len(m))
	for _, entry := range m {
		lines = append(lines, entry.Statement())
	}
	return lines
}

// Names returns the local names in manifest order
func (m Manifest) Names() []string {
	names := make([]string, 0, len(m))
	for _, entry := range m {
		names = append(names, entry.LocalName)
	}
	return names
}

// Blacklist is a set of names excluded from publishing
type Blacklist struct {
	names map[string]struct{}
}

// NewBlacklist creates a blacklist holding the given names
func NewBlacklist(names ...string) *Blacklist {
	b := &Blacklist{names: make(map[string]struct{}, len(names))}
	for _, name := range names {
		b.Add(name)
	}
	return b
}

// DefaultBlacklist returns a fresh blacklist holding the loader sentinel
func DefaultBlacklist() *Blacklist {
	return NewBlacklist(DefaultBlacklistName)
}

// Add inserts names into the blacklist; empty names are ignored
func (b *Blacklist) Add(names ...string) {
	for _, name := range names {
		if name != "" {
			b.names[name] = struct{}{}
		}
	}
}

// Contains reports whether name is excluded
func (b *Blacklist) Contains(name string) bool {
	if b == nil {
		return false
	}
	_, ok := b.names[name]
	return ok
}

// Names returns the blacklisted names sorted
func (b *Blacklist) Names() []string {
	if b == nil {
		return nil
	}
	names := make([]string, 0, len(b.names))
	for name := range b.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy
func (b *Blacklist) Clone() *Blacklist {
	return NewBlacklist(b.Names()...)
}
