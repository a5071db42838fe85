// SPDX-License-Identifier: MPL-2.0

package universe

import (
	"errors"
	"fmt"
	"sync"
)

// LazyEnumeration is implemented by *Lazy. An enumeration set is a struct whose
// exported fields hold LazyEnumeration values; each field is one enumeration member.
type LazyEnumeration interface {
	// Realize computes the value (at most once) and registers it in u.
	Realize(u *Universe) (Enumeration, error)
}

// Lazy is an enumeration value computed on first use.
type Lazy[E Enumeration] struct {
	once  sync.Once
	init  func() (E, error)
	value E
	err   error
}

var errNoInitializer = errors.New("lazy enumeration has no initializer")

// NewLazy returns a Lazy whose value is produced by init.
func NewLazy[E Enumeration](init func() (E, error)) *Lazy[E] {
	return &Lazy[E]{init: init}
}

// Enum returns a Lazy wrapping an already-built value.
func Enum[E Enumeration](v E) *Lazy[E] {
	return NewLazy(func() (E, error) { return v, nil })
}

// Get returns the value, computing it on the first call. A panicking initializer
// is reported as an error and never re-run.
func (l *Lazy[E]) Get() (E, error) {
	l.once.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				l.err = fmt.Errorf("enumeration initializer panicked: %v", r)
			}
		}()
		if l.init == nil {
			l.err = errNoInitializer
			return
		}
		l.value, l.err = l.init()
	})
	return l.value, l.err
}

// MustGet returns the value and panics if it cannot be computed.
func (l *Lazy[E]) MustGet() E {
	v, err := l.Get()
	if err != nil {
		panic(err)
	}
	return v
}

// Realize implements LazyEnumeration.
func (l *Lazy[E]) Realize(u *Universe) (Enumeration, error) {
	v, err := l.Get()
	if err != nil {
		return nil, err
	}
	if err := u.RegisterEnumeration(v); err != nil {
		return nil, err
	}
	return v, nil
}
