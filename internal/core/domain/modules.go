package domain

import (
	"encoding/json"
	"sort"
	"strings"
)

// ModuleSet is the set of access-module identifiers a role grants.
// Entries are case-sensitive, trimmed and never empty.
type ModuleSet map[string]struct{}

// NewModuleSet normalizes names into a set: each entry is trimmed, empty
// entries are dropped and duplicates collapse.
func NewModuleSet(names ...string) ModuleSet {
	s := make(ModuleSet, len(names))
	s.Add(names...)
	return s
}

// Add inserts the normalized names (set union).
func (s ModuleSet) Add(names ...string) {
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			s[n] = struct{}{}
		}
	}
}

// Remove deletes the normalized names (set difference). Absent names are ignored.
func (s ModuleSet) Remove(names ...string) {
	for _, n := range names {
		delete(s, strings.TrimSpace(n))
	}
}

func (s ModuleSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

func (s ModuleSet) Len() int { return len(s) }

// Union returns a new set holding the members of s and other.
func (s ModuleSet) Union(other ModuleSet) ModuleSet {
	out := make(ModuleSet, len(s)+len(other))
	for m := range s {
		out[m] = struct{}{}
	}
	for m := range other {
		out[m] = struct{}{}
	}
	return out
}

// Difference returns a new set holding the members of s that are not in other.
func (s ModuleSet) Difference(other ModuleSet) ModuleSet {
	out := make(ModuleSet, len(s))
	for m := range s {
		if !other.Has(m) {
			out[m] = struct{}{}
		}
	}
	return out
}

func (s ModuleSet) Equal(other ModuleSet) bool {
	if len(s) != len(other) {
		return false
	}
	for m := range s {
		if !other.Has(m) {
			return false
		}
	}
	return true
}

// Sorted returns the members in lexical order. Never nil.
func (s ModuleSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for m := range s {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

func (s ModuleSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *ModuleSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	*s = NewModuleSet(names...)
	return nil
}
