// Package proptype defines the type descriptors that properties declare and
// the value adapters that validate and coerce raw values against them.
//
// Descriptors resolve to cty types. A descriptor with multiple alternatives
// behaves as a union: adaptation tries each alternative in declaration order
// and returns the first success, which makes alternative ordering observable
// (union(string, path) stores a string unchanged, union(path, string) coerces
// strings to paths).
//
// Collection adapters validate element types one level deep; they do not
// recurse further. Unknown or unrepresentable types are rejected when the
// descriptor is constructed, not when a value is adapted.
package proptype
