// Package selection tracks which packages are marked for removal.
package selection

// Set is an insertion-ordered set of package identifiers. Membership is not
// checked against the current inventory: a selected package that later
// disappears is simply carried along until the set is cleared.
//
// Set is not safe for concurrent use; it is owned by the console session.
type Set struct {
	order []string
	index map[string]int
}

// New creates an empty Set.
func New() *Set {
	return &Set{index: make(map[string]int)}
}

// Toggle adds id if absent or removes it if present, and reports whether
// id is selected afterwards.
func (s *Set) Toggle(id string) bool {
	if s.Contains(id) {
		s.remove(id)
		return false
	}
	s.Add(id)
	return true
}

// Add selects id. Adding an already-selected id keeps its position.
func (s *Set) Add(id string) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if _, ok := s.index[id]; ok {
		return
	}
	s.index[id] = len(s.order)
	s.order = append(s.order, id)
}

func (s *Set) remove(id string) {
	pos, ok := s.index[id]
	if !ok {
		return
	}
	s.order = append(s.order[:pos], s.order[pos+1:]...)
	delete(s.index, id)
	for i := pos; i < len(s.order); i++ {
		s.index[s.order[i]] = i
	}
}

// Clear deselects everything.
func (s *Set) Clear() {
	s.order = nil
	s.index = make(map[string]int)
}

// Contains reports whether id is selected.
func (s *Set) Contains(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Len returns the number of selected packages.
func (s *Set) Len() int {
	return len(s.order)
}

// Members returns the selected ids in the order they were selected.
// The returned slice is a snapshot and is safe to keep.
func (s *Set) Members() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
