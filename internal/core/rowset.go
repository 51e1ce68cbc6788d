package core

import "slices"

// rowSet is a set of row ids that remembers insertion order so snapshots
// render in the order the user picked rows.
type rowSet struct {
	ids   []string
	index map[string]struct{}
}

func newRowSet() rowSet {
	return rowSet{index: make(map[string]struct{})}
}

func (s *rowSet) has(id string) bool {
	_, ok := s.index[id]
	return ok
}

func (s *rowSet) add(id string) {
	if s.has(id) {
		return
	}
	s.index[id] = struct{}{}
	s.ids = append(s.ids, id)
}

func (s *rowSet) remove(id string) {
	if !s.has(id) {
		return
	}
	delete(s.index, id)
	if i := slices.Index(s.ids, id); i >= 0 {
		s.ids = slices.Delete(s.ids, i, i+1)
	}
}

// toggle flips membership and reports whether id is now present.
func (s *rowSet) toggle(id string) bool {
	if s.has(id) {
		s.remove(id)
		return false
	}
	s.add(id)
	return true
}

func (s *rowSet) clear() {
	s.ids = nil
	s.index = make(map[string]struct{})
}

func (s *rowSet) len() int {
	return len(s.ids)
}

// snapshot returns a copy that callers may keep or modify.
func (s *rowSet) snapshot() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}
