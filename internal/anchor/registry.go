package anchor

import (
	"fmt"
	"strings"

	"github.com/FOUEN/questpatch/internal/fragment"
)

// Set is an ordered collection of anchors addressable by name. Anchors are
// applied in the order they were added.
type Set struct {
	order  []string
	byName map[string]*Anchor
}

// NewSet returns a Set holding anchors in the given order.
func NewSet(anchors ...*Anchor) *Set {
	s := &Set{byName: map[string]*Anchor{}}
	for _, a := range anchors {
		s.Add(a)
	}
	return s
}

// Default returns the hub patch: the notification block first, then the
// return button method.
func Default(r *fragment.Renderer) *Set {
	return NewSet(HintCall(r), SageMethod(r))
}

// Add appends an anchor, replacing any anchor already registered under the
// same name while keeping its position.
func (s *Set) Add(a *Anchor) {
	if _, ok := s.byName[a.Name]; !ok {
		s.order = append(s.order, a.Name)
	}
	s.byName[a.Name] = a
}

// Get returns an anchor by name, or an error if not found.
func (s *Set) Get(name string) (*Anchor, error) {
	a, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown anchor: %s", name)
	}
	return a, nil
}

// List returns all anchors in application order.
func (s *Set) List() []*Anchor {
	list := make([]*Anchor, 0, len(s.order))
	for _, name := range s.order {
		list = append(list, s.byName[name])
	}
	return list
}

// Names returns the anchor names in application order.
func (s *Set) Names() []string {
	return append([]string(nil), s.order...)
}

// Select returns a new Set restricted to names. The original application
// order is kept regardless of the order names are given in. An empty
// selection returns s itself.
func (s *Set) Select(names []string) (*Set, error) {
	if len(names) == 0 {
		return s, nil
	}
	want := map[string]bool{}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, err := s.Get(n); err != nil {
			return nil, fmt.Errorf("%w (available: %s)", err, strings.Join(s.order, ", "))
		}
		want[n] = true
	}

	sub := NewSet()
	for _, name := range s.order {
		if want[name] {
			sub.Add(s.byName[name])
		}
	}
	if len(sub.order) == 0 {
		return nil, fmt.Errorf("no anchors selected")
	}
	return sub, nil
}

// SetOccurrence changes the match policy of one anchor.
func (s *Set) SetOccurrence(name string, o Occurrence) error {
	a, err := s.Get(name)
	if err != nil {
		return err
	}
	a.Occurrence = o
	return nil
}
