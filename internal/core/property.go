package core

import (
	"fmt"

	"github.com/vk/krakengo/internal/proptype"
	"github.com/zclconf/go-cty/cty"
)

// PropertyKind distinguishes inputs from outputs.
type PropertyKind int

const (
	Input PropertyKind = iota
	Output
)

func (k PropertyKind) String() string {
	if k == Output {
		return "output"
	}
	return "input"
}

type propertyState int

const (
	stateUnset propertyState = iota
	stateStatic
	stateDerived
)

// Property is a typed value cell owned by a task. It is itself a Supplier,
// which makes wiring one task's output into another task's input a
// first-class act of data flow: the graph discovers strict edges by walking
// Upstream of every input.
type Property struct {
	owner  *Task
	name   string
	kind   PropertyKind
	typ    proptype.Type
	state  propertyState
	value  cty.Value
	source Supplier
}

func newProperty(owner *Task, name string, kind PropertyKind, typ proptype.Type) *Property {
	return &Property{owner: owner, name: name, kind: kind, typ: typ}
}

// Owner returns the task that owns the property.
func (p *Property) Owner() *Task { return p.owner }

// Name returns the property's declared name.
func (p *Property) Name() string { return p.name }

// Kind returns whether the property is an input or an output.
func (p *Property) Kind() PropertyKind { return p.kind }

// Type returns the property's declared type descriptor.
func (p *Property) Type() proptype.Type { return p.typ }

// Path returns the property's address, <task path>.<name>.
func (p *Property) Path() string {
	if p.owner == nil {
		return p.name
	}
	return p.owner.Path() + "." + p.name
}

// Set assigns the property. Raw Go values and cty values transition the
// state to static after adapter validation; a Supplier (including another
// Property) transitions it to derived, deferring validation to read time.
func (p *Property) Set(raw any) error {
	if err := p.checkWritable(); err != nil {
		return err
	}
	if s, ok := raw.(Supplier); ok {
		p.state = stateDerived
		p.source = s
		p.value = cty.NilVal
		return nil
	}
	v, err := proptype.Normalize(raw)
	if err != nil {
		return fmt.Errorf("property %s: %w", p.Path(), err)
	}
	av, err := p.typ.Adapt(v)
	if err != nil {
		return fmt.Errorf("property %s: %w", p.Path(), err)
	}
	p.state = stateStatic
	p.value = av
	p.source = nil
	return nil
}

// SetDefault assigns the property only if it is currently unset.
func (p *Property) SetDefault(raw any) error {
	if p.state != stateUnset {
		return nil
	}
	return p.Set(raw)
}

// SetDefaultValue assigns a static default if the property is unset and
// returns the effective value. Intended for output properties inside a task's
// execute.
func (p *Property) SetDefaultValue(raw any) (cty.Value, error) {
	if err := p.SetDefault(raw); err != nil {
		return cty.NilVal, err
	}
	return p.Get()
}

// Get returns the property's current value. A derived property evaluates its
// supplier chain; reading through an output that has not been produced yet
// reports ErrNotHydrated.
func (p *Property) Get() (cty.Value, error) {
	switch p.state {
	case stateUnset:
		if p.kind == Output {
			return cty.NilVal, &NotHydratedError{Property: p.Path()}
		}
		return cty.NilVal, &UnsetError{Property: p.Path()}
	case stateStatic:
		return p.value, nil
	default:
		v, err := p.source.Get()
		if err != nil {
			return cty.NilVal, err
		}
		av, err := p.typ.Adapt(v)
		if err != nil {
			return cty.NilVal, fmt.Errorf("property %s: %w", p.Path(), err)
		}
		return av, nil
	}
}

// GetOr returns the property's value, or fallback when it is unset or not
// yet hydrated.
func (p *Property) GetOr(fallback cty.Value) cty.Value {
	v, err := p.Get()
	if err != nil {
		return fallback
	}
	return v
}

// IsSet reports whether the property has been assigned at all.
func (p *Property) IsSet() bool { return p.state != stateUnset }

// IsFilled reports whether the property will produce a value. A derived
// property counts as filled even before its upstream has been hydrated.
func (p *Property) IsFilled() bool { return p.state != stateUnset }

// Clear resets the property to unset.
func (p *Property) Clear() error {
	if err := p.checkWritable(); err != nil {
		return err
	}
	p.state = stateUnset
	p.value = cty.NilVal
	p.source = nil
	return nil
}

// MapValue replaces the property's value with fn applied over it, keeping
// the upstream set intact.
func (p *Property) MapValue(fn func(cty.Value) (cty.Value, error)) error {
	if err := p.checkWritable(); err != nil {
		return err
	}
	var inner Supplier
	switch p.state {
	case stateStatic:
		inner = ValueOf(p.value)
	case stateDerived:
		inner = p.source
	default:
		return &UnsetError{Property: p.Path()}
	}
	p.state = stateDerived
	p.source = Map(inner, fn)
	p.value = cty.NilVal
	return nil
}

// Upstream implements Supplier. A property contributes itself plus, when
// derived, everything its supplier depends on. Consumers inferring
// dependencies skip entries owned by the reading task itself.
func (p *Property) Upstream() []*Property {
	ups := []*Property{p}
	if p.state == stateDerived {
		ups = append(ups, p.source.Upstream()...)
	}
	return ups
}

// checkWritable enforces the freeze rules: after the owning task finalizes,
// inputs are immutable and outputs accept writes only while the owner
// executes.
func (p *Property) checkWritable() error {
	t := p.owner
	if t == nil || !t.finalized {
		return nil
	}
	if p.kind == Output && t.executing {
		return nil
	}
	return &FrozenError{Property: p.Path()}
}

// Typed accessors. Each evaluates the property and unwraps the ground value.

func (p *Property) StringVal() (string, error) {
	v, err := p.Get()
	if err != nil {
		return "", err
	}
	return proptype.AsString(v)
}

func (p *Property) BoolVal() (bool, error) {
	v, err := p.Get()
	if err != nil {
		return false, err
	}
	return proptype.AsBool(v)
}

func (p *Property) IntVal() (int64, error) {
	v, err := p.Get()
	if err != nil {
		return 0, err
	}
	return proptype.AsInt(v)
}

func (p *Property) FloatVal() (float64, error) {
	v, err := p.Get()
	if err != nil {
		return 0, err
	}
	return proptype.AsFloat(v)
}

func (p *Property) PathVal() (string, error) {
	v, err := p.Get()
	if err != nil {
		return "", err
	}
	return proptype.AsPath(v)
}

func (p *Property) StringSliceVal() ([]string, error) {
	v, err := p.Get()
	if err != nil {
		return nil, err
	}
	return proptype.AsStringSlice(v)
}

func (p *Property) StringMapVal() (map[string]string, error) {
	v, err := p.Get()
	if err != nil {
		return nil, err
	}
	return proptype.AsStringMap(v)
}
