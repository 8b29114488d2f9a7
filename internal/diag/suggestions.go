package diag

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Producer builds suggestions on demand.
type Producer func() ([]Fix, error)

// Suggestions is either an eager list of fixes or a deferred producer.
// A deferred producer runs at most once; its result, error included,
// is cached for every later caller.
type Suggestions struct {
	produce Producer

	once     sync.Once
	resolved atomic.Bool
	fixes    []Fix
	err      error
}

// Eager wraps already built fixes.
func Eager(fixes ...Fix) *Suggestions {
	s := &Suggestions{fixes: fixes}
	s.once.Do(func() {})
	s.resolved.Store(true)
	return s
}

// Deferred wraps a producer that runs on first Resolve.
func Deferred(produce Producer) *Suggestions {
	return &Suggestions{produce: produce}
}

// Deferred reports whether the suggestions come from a producer.
func (s *Suggestions) Deferred() bool {
	return s != nil && s.produce != nil
}

// Resolved reports whether the fixes are already known.
func (s *Suggestions) Resolved() bool {
	return s == nil || s.resolved.Load()
}

// Empty is true for a nil set or an eager set without fixes.
func (s *Suggestions) Empty() bool {
	if s == nil {
		return true
	}
	return s.produce == nil && len(s.fixes) == 0
}

// Resolve returns the fixes, running the producer on first use.
func (s *Suggestions) Resolve() ([]Fix, error) {
	if s == nil {
		return nil, nil
	}
	s.once.Do(func() {
		defer s.resolved.Store(true)
		defer func() {
			if r := recover(); r != nil {
				s.fixes, s.err = nil, fmt.Errorf("suggestion producer panicked: %v", r)
			}
		}()
		if s.produce != nil {
			s.fixes, s.err = s.produce()
		}
	})
	return s.fixes, s.err
}
