package proptype

import (
	"reflect"

	"github.com/zclconf/go-cty/cty"
)

// pathType is the capsule type that carries filesystem paths, keeping them
// distinct from plain strings so union alternative ordering stays observable.
var pathType = cty.Capsule("path", reflect.TypeOf(""))

// PathVal wraps a filesystem path into a cty value.
func PathVal(p string) cty.Value {
	return cty.CapsuleVal(pathType, &p)
}

// IsPath reports whether v carries a filesystem path.
func IsPath(v cty.Value) bool {
	return !v.IsNull() && v.Type().Equals(pathType)
}
