package proptype

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Kind enumerates the ground shapes a descriptor can take.
type Kind int

const (
	KindInvalid Kind = iota
	KindAny
	KindBool
	KindInt
	KindFloat
	KindString
	KindNil
	KindPath
	KindList
	KindSet
	KindMap
	KindUnion
)

// Type is a property type descriptor. The zero value is invalid; use the
// constructor functions.
type Type struct {
	kind Kind
	elem *Type
	alts []Type
}

// Any accepts every value unchanged.
func Any() Type { return Type{kind: KindAny} }

// Bool accepts boolean values.
func Bool() Type { return Type{kind: KindBool} }

// Int accepts whole numbers.
func Int() Type { return Type{kind: KindInt} }

// Float accepts any number.
func Float() Type { return Type{kind: KindFloat} }

// String accepts string values.
func String() Type { return Type{kind: KindString} }

// Nil accepts only null values.
func Nil() Type { return Type{kind: KindNil} }

// Path accepts filesystem paths. Plain strings are coerced to paths.
func Path() Type { return Type{kind: KindPath} }

// List accepts homogeneous sequences of elem.
func List(elem Type) Type {
	if elem.kind == KindInvalid {
		panic("proptype: list element type is invalid")
	}
	return Type{kind: KindList, elem: &elem}
}

// Set accepts homogeneous sets of elem. Only primitive element types can be
// hashed into a set, so anything else is rejected here rather than at use.
func Set(elem Type) Type {
	switch elem.kind {
	case KindBool, KindInt, KindFloat, KindString:
	default:
		panic(fmt.Sprintf("proptype: set element type %s is not a primitive", elem.Name()))
	}
	return Type{kind: KindSet, elem: &elem}
}

// Map accepts string-keyed mappings with values of elem.
func Map(elem Type) Type {
	if elem.kind == KindInvalid {
		panic("proptype: map element type is invalid")
	}
	return Type{kind: KindMap, elem: &elem}
}

// Union accepts a value matching any of the alternatives, tried in order.
func Union(alts ...Type) Type {
	if len(alts) < 2 {
		panic("proptype: union requires at least two alternatives")
	}
	for _, a := range alts {
		if a.kind == KindInvalid {
			panic("proptype: union alternative type is invalid")
		}
	}
	return Type{kind: KindUnion, alts: alts}
}

// Kind returns the descriptor's ground shape.
func (t Type) Kind() Kind { return t.kind }

// Name returns a human-readable name for the descriptor.
func (t Type) Name() string {
	switch t.kind {
	case KindAny:
		return "any"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindNil:
		return "nil"
	case KindPath:
		return "path"
	case KindList:
		return fmt.Sprintf("list(%s)", t.elem.Name())
	case KindSet:
		return fmt.Sprintf("set(%s)", t.elem.Name())
	case KindMap:
		return fmt.Sprintf("map(%s)", t.elem.Name())
	case KindUnion:
		names := make([]string, len(t.alts))
		for i, a := range t.alts {
			names[i] = a.Name()
		}
		return fmt.Sprintf("union(%s)", strings.Join(names, ", "))
	default:
		return "invalid"
	}
}

// Adapt validates the value against the descriptor and returns the coerced
// result, or a *TypeMismatchError.
func (t Type) Adapt(v cty.Value) (cty.Value, error) {
	return t.adapt(v, true)
}

// adapt implements Adapt. Collection elements are validated with deep=false
// so validation stops one level down.
func (t Type) adapt(v cty.Value, deep bool) (cty.Value, error) {
	if t.kind != KindAny && t.kind != KindNil && t.kind != KindUnion && v.IsNull() {
		return cty.NilVal, t.mismatch(v, "value is null")
	}

	switch t.kind {
	case KindAny:
		return v, nil

	case KindNil:
		if !v.IsNull() {
			return cty.NilVal, t.mismatch(v, "")
		}
		return v, nil

	case KindBool:
		if !v.Type().Equals(cty.Bool) {
			return cty.NilVal, t.mismatch(v, "")
		}
		return v, nil

	case KindInt:
		if !v.Type().Equals(cty.Number) {
			return cty.NilVal, t.mismatch(v, "")
		}
		if !v.AsBigFloat().IsInt() {
			return cty.NilVal, t.mismatch(v, "number has a fractional part")
		}
		return v, nil

	case KindFloat:
		if !v.Type().Equals(cty.Number) {
			return cty.NilVal, t.mismatch(v, "")
		}
		return v, nil

	case KindString:
		if !v.Type().Equals(cty.String) {
			return cty.NilVal, t.mismatch(v, "")
		}
		return v, nil

	case KindPath:
		if IsPath(v) {
			return v, nil
		}
		if v.Type().Equals(cty.String) {
			return PathVal(v.AsString()), nil
		}
		return cty.NilVal, t.mismatch(v, "")

	case KindList:
		if !isSequence(v.Type()) {
			return cty.NilVal, t.mismatch(v, "")
		}
		if !deep {
			return v, nil
		}
		elems := v.AsValueSlice()
		if len(elems) == 0 {
			return cty.EmptyTupleVal, nil
		}
		out := make([]cty.Value, len(elems))
		for i, ev := range elems {
			av, err := t.elem.adapt(ev, false)
			if err != nil {
				return cty.NilVal, t.mismatch(v, fmt.Sprintf("element %d: %v", i, err))
			}
			out[i] = av
		}
		return cty.TupleVal(out), nil

	case KindSet:
		if !isSequence(v.Type()) && !v.Type().IsSetType() {
			return cty.NilVal, t.mismatch(v, "")
		}
		if !deep {
			return v, nil
		}
		elems := v.AsValueSlice()
		if len(elems) == 0 {
			return cty.SetValEmpty(t.elem.groundType()), nil
		}
		out := make([]cty.Value, 0, len(elems))
		for i, ev := range elems {
			av, err := t.elem.adapt(ev, false)
			if err != nil {
				return cty.NilVal, t.mismatch(v, fmt.Sprintf("element %d: %v", i, err))
			}
			out = append(out, av)
		}
		return cty.SetVal(out), nil

	case KindMap:
		if !v.Type().IsObjectType() && !v.Type().IsMapType() {
			return cty.NilVal, t.mismatch(v, "")
		}
		if !deep {
			return v, nil
		}
		pairs := v.AsValueMap()
		if len(pairs) == 0 {
			return cty.EmptyObjectVal, nil
		}
		out := make(map[string]cty.Value, len(pairs))
		for k, ev := range pairs {
			av, err := t.elem.adapt(ev, false)
			if err != nil {
				return cty.NilVal, t.mismatch(v, fmt.Sprintf("key %q: %v", k, err))
			}
			out[k] = av
		}
		return cty.ObjectVal(out), nil

	case KindUnion:
		for _, alt := range t.alts {
			if out, err := alt.adapt(v, deep); err == nil {
				return out, nil
			}
		}
		return cty.NilVal, t.mismatch(v, "no union alternative matched")

	default:
		return cty.NilVal, fmt.Errorf("proptype: invalid type descriptor")
	}
}

// groundType maps a primitive descriptor to its cty representation. Used to
// build typed empty collections.
func (t Type) groundType() cty.Type {
	switch t.kind {
	case KindBool:
		return cty.Bool
	case KindInt, KindFloat:
		return cty.Number
	case KindString:
		return cty.String
	default:
		return cty.DynamicPseudoType
	}
}

// isSequence reports whether ty holds an ordered sequence of values.
func isSequence(ty cty.Type) bool {
	return ty.IsTupleType() || ty.IsListType() || ty.IsSetType()
}

func (t Type) mismatch(v cty.Value, reason string) error {
	got := "null"
	if !v.IsNull() {
		got = friendlyName(v.Type())
	}
	return &TypeMismatchError{Want: t.Name(), Got: got, Reason: reason}
}

// friendlyName names a cty type, unwrapping the path capsule.
func friendlyName(ty cty.Type) string {
	if ty.Equals(pathType) {
		return "path"
	}
	return ty.FriendlyName()
}
