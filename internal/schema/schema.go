package schema

import (
	"context"
)

// Schema represents the complete GraphQL schema. It is read-only once built
// and safe for concurrent use.
type Schema struct {
	QueryType    string
	MutationType string
	Types        map[string]*Type // All named types keyed by name
	Directives   map[string]*Directive
	Description  string
}

// QueryRoot returns the root query type.
func (s *Schema) QueryRoot() *Type { return s.Types[s.QueryType] }

// MutationRoot returns the root mutation type (nil if absent).
func (s *Schema) MutationRoot() *Type {
	if s.MutationType == "" {
		return nil
	}
	return s.Types[s.MutationType]
}

// LookupType returns the named type. Absence is reported through ok.
func (s *Schema) LookupType(name string) (*Type, bool) {
	if s == nil {
		return nil, false
	}
	t, ok := s.Types[name]
	return t, ok
}

// LookupDirective returns the named directive definition.
func (s *Schema) LookupDirective(name string) (*Directive, bool) {
	if s == nil {
		return nil, false
	}
	d, ok := s.Directives[name]
	return d, ok
}

// SerializeFunc converts an internal value to its wire representation.
type SerializeFunc func(value any) (any, error)

// ParseValueFunc converts a wire or literal value to its internal representation.
type ParseValueFunc func(value any) (any, error)

// ResolveFunc produces the value of a field from its parent value and
// coerced arguments.
type ResolveFunc func(ctx context.Context, source any, args map[string]any) (any, error)

// Type is a named GraphQL type (object, scalar, enum, input)
type Type struct {
	Name        string
	Kind        TypeKind
	Description string
	Fields      []*Field      // For OBJECT
	EnumValues  []*EnumValue  // For ENUM
	InputFields []*InputValue // For INPUT_OBJECT
	Serialize   SerializeFunc  // For SCALAR
	ParseValue  ParseValueFunc // For SCALAR

	frozen bool
}

// Field returns the named field, or nil.
func (t *Type) Field(name string) *Field {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// InputField returns the named input field, or nil.
func (t *Type) InputField(name string) *InputValue {
	for _, f := range t.InputFields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// HasEnumValue reports whether name is one of the enum's values.
func (t *Type) HasEnumValue(name string) bool {
	for _, v := range t.EnumValues {
		if v.Name == name {
			return true
		}
	}
	return false
}

// IsLeaf reports whether values of this type are serialized directly.
func (t *Type) IsLeaf() bool {
	return t.Kind == TypeKindScalar || t.Kind == TypeKindEnum
}

// IsInputType reports whether the type may be used for arguments and variables.
func (t *Type) IsInputType() bool {
	return t.IsLeaf() || t.Kind == TypeKindInputObject
}

// IsOutputType reports whether the type may be used as a field type.
func (t *Type) IsOutputType() bool {
	return t.IsLeaf() || t.Kind == TypeKindObject
}

// Field represents a field on an object type
type Field struct {
	Name              string
	Description       string
	Type              *TypeRef
	Arguments         []*InputValue
	Resolve           ResolveFunc // nil uses the default resolver
	IsDeprecated      bool
	DeprecationReason string

	frozen bool
}

// Argument returns the named argument, or nil.
func (f *Field) Argument(name string) *InputValue {
	for _, a := range f.Arguments {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// TypeKind represents the kind of GraphQL type
type TypeKind string

const (
	TypeKindScalar      TypeKind = "SCALAR"
	TypeKindObject      TypeKind = "OBJECT"
	TypeKindEnum        TypeKind = "ENUM"
	TypeKindInputObject TypeKind = "INPUT_OBJECT"
)

// TypeRef represents a reference to a type (can be wrapped). Named
// references are resolved by name, so cyclic type graphs never hold direct
// links.
type TypeRef struct {
	Kind   TypeRefKind
	OfType *TypeRef // For List and NonNull
	Named  string   // For named types
}

type TypeRefKind string

const (
	TypeRefKindNamed   TypeRefKind = "NAMED"
	TypeRefKindList    TypeRefKind = "LIST"
	TypeRefKindNonNull TypeRefKind = "NON_NULL"
)

// Helper functions for TypeRef
func (t *TypeRef) IsNonNull() bool {
	return t != nil && t.Kind == TypeRefKindNonNull
}

func (t *TypeRef) IsList() bool {
	if t.Kind == TypeRefKindList {
		return true
	}
	if t.Kind == TypeRefKindNonNull && t.OfType != nil {
		return t.OfType.Kind == TypeRefKindList
	}
	return false
}

func (t *TypeRef) Unwrap() *TypeRef {
	if t.Kind == TypeRefKindNonNull || t.Kind == TypeRefKindList {
		return t.OfType
	}
	return t
}

// Nullable strips a Non-Null wrapper if present.
func (t *TypeRef) Nullable() *TypeRef {
	if t.IsNonNull() {
		return t.OfType
	}
	return t
}

func (t *TypeRef) GetNamedType() string {
	current := t
	for current != nil {
		if current.Named != "" {
			return current.Named
		}
		current = current.OfType
	}
	return ""
}

// String renders the reference in SDL notation, e.g. "[Post!]!".
func (t *TypeRef) String() string { return renderTypeRef(t) }

type EnumValue struct {
	Name              string
	Description       string
	IsDeprecated      bool
	DeprecationReason string

	frozen bool
}

// InputValue is a field argument or an input object field.
type InputValue struct {
	Name              string
	Description       string
	Type              *TypeRef
	DefaultValue      any
	HasDefault        bool
	IsDeprecated      bool
	DeprecationReason string

	frozen bool
}

// Required reports whether a value must be supplied: the type is non-null
// and there is no default.
func (v *InputValue) Required() bool {
	return v.Type.IsNonNull() && !v.HasDefault
}

type Directive struct {
	Name         string
	Description  string
	Locations    []string
	Arguments    []*InputValue
	IsRepeatable bool
}

// Argument returns the named argument, or nil.
func (d *Directive) Argument(name string) *InputValue {
	for _, a := range d.Arguments {
		if a.Name == name {
			return a
		}
	}
	return nil
}

func NonNullType(t *TypeRef) *TypeRef { return &TypeRef{Kind: TypeRefKindNonNull, OfType: t} }
func ListType(t *TypeRef) *TypeRef    { return &TypeRef{Kind: TypeRefKindList, OfType: t} }
func NamedType(name string) *TypeRef  { return &TypeRef{Kind: TypeRefKindNamed, Named: name} }

// IsNonNull reports whether the type is wrapped with Non-Null.
func IsNonNull(t *TypeRef) bool { return t != nil && t.IsNonNull() }

// IsList reports whether the type is (or is wrapped by) a list type.
func IsList(t *TypeRef) bool { return t != nil && t.IsList() }

// Unwrap removes one layer of Non-Null or List wrapping and returns the inner type.
func Unwrap(t *TypeRef) *TypeRef { return t.Unwrap() }

// GetNamedType returns the innermost named type for the given reference.
func GetNamedType(t *TypeRef) string { return t.GetNamedType() }
