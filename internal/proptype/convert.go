package proptype

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Normalize converts a raw Go value into its cty representation. cty values
// pass through unchanged and nil becomes a null.
func Normalize(raw any) (cty.Value, error) {
	switch x := raw.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case cty.Value:
		return x, nil
	}
	ty, err := gocty.ImpliedType(raw)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unable to infer cty type for %T: %w", raw, err)
	}
	v, err := gocty.ToCtyValue(raw, ty)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unable to convert %T to cty value: %w", raw, err)
	}
	return v, nil
}

// AsString unwraps a string value.
func AsString(v cty.Value) (string, error) {
	if v.IsNull() || !v.Type().Equals(cty.String) {
		return "", expected("string", v)
	}
	return v.AsString(), nil
}

// AsBool unwraps a boolean value.
func AsBool(v cty.Value) (bool, error) {
	if v.IsNull() || !v.Type().Equals(cty.Bool) {
		return false, expected("bool", v)
	}
	return v.True(), nil
}

// AsInt unwraps a whole number.
func AsInt(v cty.Value) (int64, error) {
	if v.IsNull() || !v.Type().Equals(cty.Number) {
		return 0, expected("int", v)
	}
	bf := v.AsBigFloat()
	if !bf.IsInt() {
		return 0, expected("int", v)
	}
	n, _ := bf.Int64()
	return n, nil
}

// AsFloat unwraps a number.
func AsFloat(v cty.Value) (float64, error) {
	if v.IsNull() || !v.Type().Equals(cty.Number) {
		return 0, expected("float", v)
	}
	f, _ := v.AsBigFloat().Float64()
	return f, nil
}

// AsPath unwraps a filesystem path. Plain strings are accepted as paths.
func AsPath(v cty.Value) (string, error) {
	if IsPath(v) {
		return *(v.EncapsulatedValue().(*string)), nil
	}
	if !v.IsNull() && v.Type().Equals(cty.String) {
		return v.AsString(), nil
	}
	return "", expected("path", v)
}

// AsStringSlice unwraps a sequence of strings or paths.
func AsStringSlice(v cty.Value) ([]string, error) {
	if v.IsNull() || !isSequence(v.Type()) {
		return nil, expected("list(string)", v)
	}
	elems := v.AsValueSlice()
	out := make([]string, 0, len(elems))
	for _, ev := range elems {
		s, err := AsPath(ev)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// AsStringMap unwraps a string-keyed mapping of strings.
func AsStringMap(v cty.Value) (map[string]string, error) {
	if v.IsNull() || (!v.Type().IsObjectType() && !v.Type().IsMapType()) {
		return nil, expected("map(string)", v)
	}
	pairs := v.AsValueMap()
	out := make(map[string]string, len(pairs))
	for k, ev := range pairs {
		s, err := AsString(ev)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		out[k] = s
	}
	return out, nil
}

func expected(want string, v cty.Value) error {
	got := "null"
	if !v.IsNull() {
		got = friendlyName(v.Type())
	}
	return &TypeMismatchError{Want: want, Got: got}
}
