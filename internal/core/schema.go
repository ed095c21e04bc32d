package core

import (
	"fmt"

	"github.com/vk/krakengo/internal/proptype"
)

// SchemaEntry declares one property of a task type.
type SchemaEntry struct {
	Name       string
	Kind       PropertyKind
	Type       proptype.Type
	Default    any
	HasDefault bool
}

// Schema is the static property table of a task type. Entries keep their
// declaration order. Duplicate names are a programming error and panic at
// registration time.
type Schema struct {
	entries []SchemaEntry
	byName  map[string]int
}

// NewSchema returns an empty schema builder.
func NewSchema() *Schema {
	return &Schema{byName: make(map[string]int)}
}

func (s *Schema) add(e SchemaEntry) *Schema {
	if _, dup := s.byName[e.Name]; dup {
		panic(fmt.Sprintf("schema already declares property %q", e.Name))
	}
	s.byName[e.Name] = len(s.entries)
	s.entries = append(s.entries, e)
	return s
}

// Input declares an input property.
func (s *Schema) Input(name string, t proptype.Type) *Schema {
	return s.add(SchemaEntry{Name: name, Kind: Input, Type: t})
}

// InputDefault declares an input property with a default value.
func (s *Schema) InputDefault(name string, t proptype.Type, def any) *Schema {
	return s.add(SchemaEntry{Name: name, Kind: Input, Type: t, Default: def, HasDefault: true})
}

// Output declares an output property.
func (s *Schema) Output(name string, t proptype.Type) *Schema {
	return s.add(SchemaEntry{Name: name, Kind: Output, Type: t})
}

// Entries returns the declared properties in declaration order.
func (s *Schema) Entries() []SchemaEntry {
	return s.entries
}

// Lookup returns the entry declared under name.
func (s *Schema) Lookup(name string) (SchemaEntry, bool) {
	i, ok := s.byName[name]
	if !ok {
		return SchemaEntry{}, false
	}
	return s.entries[i], true
}
