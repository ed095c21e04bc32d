package core

import (
	"sync"

	"github.com/zclconf/go-cty/cty"
)

// Supplier is a lazily evaluated value handle. Suppliers are pure and may be
// evaluated more than once during a build; callers must not depend on call
// count. Upstream returns the properties the supplier transitively depends
// on, which is how the task graph infers strict edges from data flow.
type Supplier interface {
	Get() (cty.Value, error)
	Upstream() []*Property
}

type valueSupplier struct {
	value cty.Value
}

func (s valueSupplier) Get() (cty.Value, error) { return s.value, nil }
func (s valueSupplier) Upstream() []*Property   { return nil }

// ValueOf returns a supplier that always yields the given value.
func ValueOf(v cty.Value) Supplier { return valueSupplier{value: v} }

type callableSupplier struct {
	fn       func() (cty.Value, error)
	upstream []*Property
}

func (s *callableSupplier) Get() (cty.Value, error) { return s.fn() }

func (s *callableSupplier) Upstream() []*Property {
	out := make([]*Property, 0, len(s.upstream))
	for _, p := range s.upstream {
		out = append(out, p.Upstream()...)
	}
	return out
}

// OfCallable returns a supplier computing its value from fn. The declared
// upstream properties establish the supplier's provenance.
func OfCallable(fn func() (cty.Value, error), upstream ...*Property) Supplier {
	return &callableSupplier{fn: fn, upstream: upstream}
}

type mapSupplier struct {
	inner Supplier
	fn    func(cty.Value) (cty.Value, error)
}

func (s *mapSupplier) Get() (cty.Value, error) {
	v, err := s.inner.Get()
	if err != nil {
		return cty.NilVal, err
	}
	return s.fn(v)
}

func (s *mapSupplier) Upstream() []*Property { return s.inner.Upstream() }

// Map returns a supplier applying fn over the inner supplier's value. The
// upstream set is unchanged.
func Map(inner Supplier, fn func(cty.Value) (cty.Value, error)) Supplier {
	return &mapSupplier{inner: inner, fn: fn}
}

type onceSupplier struct {
	inner Supplier
	once  sync.Once
	value cty.Value
	err   error
}

func (s *onceSupplier) Get() (cty.Value, error) {
	s.once.Do(func() { s.value, s.err = s.inner.Get() })
	return s.value, s.err
}

func (s *onceSupplier) Upstream() []*Property { return s.inner.Upstream() }

// Once caches the inner supplier's first result, including its error.
func Once(inner Supplier) Supplier { return &onceSupplier{inner: inner} }
