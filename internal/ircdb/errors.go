package ircdb

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrStructural marks a line that does not match its fixed column layout.
	ErrStructural = errors.New("ircdb: structural parse error")
	// ErrJoin marks a line referencing a hand or player unknown to another file.
	ErrJoin = errors.New("ircdb: join inconsistency")
	// ErrDuplicate marks a repeated hand id under the invalidate policy.
	ErrDuplicate = errors.New("ircdb: duplicate hand id")
	// ErrIncomplete marks a hand whose player set was not fully populated.
	ErrIncomplete = errors.New("ircdb: incomplete hand")
	// ErrMissingFile is returned when a file group lacks one of its files.
	ErrMissingFile = errors.New("ircdb: missing file group member")
)

// Kind classifies why a hand id was invalidated.
type Kind int

const (
	KindStructural Kind = iota + 1
	KindJoin
	KindDuplicate
	KindIncomplete
)

// Kinds lists every Kind in reporting order.
var Kinds = []Kind{KindStructural, KindJoin, KindDuplicate, KindIncomplete}

func (k Kind) String() string {
	switch k {
	case KindStructural:
		return "structural"
	case KindJoin:
		return "join"
	case KindDuplicate:
		return "duplicate"
	case KindIncomplete:
		return "incomplete"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindStructural:
		return ErrStructural
	case KindJoin:
		return ErrJoin
	case KindDuplicate:
		return ErrDuplicate
	case KindIncomplete:
		return ErrIncomplete
	default:
		return nil
	}
}

// LineError is the failure result of parsing one line (or, for KindIncomplete,
// of validating one assembled hand). ID is empty when the line was too short
// to carry a hand identifier.
type LineError struct {
	File string
	Line int
	ID   string
	Kind Kind
	Err  error
}

func (e *LineError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s: %v", e.File, e.Line, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.ID, e.Kind, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for the error's kind.
func (e *LineError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// InvalidSet is the set of hand ids excluded from output. It remembers the
// first reason each id was invalidated.
type InvalidSet struct {
	reasons map[string]Kind
}

// NewInvalidSet creates an empty set.
func NewInvalidSet() *InvalidSet {
	return &InvalidSet{reasons: make(map[string]Kind)}
}

// Add marks id invalid. Empty ids are ignored.
func (s *InvalidSet) Add(id string, kind Kind) {
	if id == "" {
		return
	}
	if _, ok := s.reasons[id]; ok {
		return
	}
	s.reasons[id] = kind
}

// Has reports whether id is invalid.
func (s *InvalidSet) Has(id string) bool {
	_, ok := s.reasons[id]
	return ok
}

// Reason returns the first kind recorded for id.
func (s *InvalidSet) Reason(id string) (Kind, bool) {
	k, ok := s.reasons[id]
	return k, ok
}

// Len returns the number of invalid ids.
func (s *InvalidSet) Len() int {
	return len(s.reasons)
}

// Counts returns the number of invalid ids per kind.
func (s *InvalidSet) Counts() map[Kind]int {
	counts := make(map[Kind]int)
	for _, k := range s.reasons {
		counts[k]++
	}
	return counts
}

// IDs returns the invalid ids in sorted order.
func (s *InvalidSet) IDs() []string {
	ids := make([]string, 0, len(s.reasons))
	for id := range s.reasons {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
