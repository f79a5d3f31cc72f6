package schema

import (
	"fmt"
	"regexp"
)

var nameRe = regexp.MustCompile(`^[_A-Za-z][_0-9A-Za-z]*$`)

// Registry collects type definitions before a Schema is built. Types may
// reference names that are registered later; references are checked when
// the registry is finalized. A Registry is not safe for concurrent
// registration.
type Registry struct {
	types    map[string]*Type
	order    []string
	declared map[string]bool
	frozen   bool
}

// NewRegistry returns a registry holding the built-in scalars.
func NewRegistry() *Registry {
	r := &Registry{
		types:    make(map[string]*Type),
		declared: make(map[string]bool),
	}
	for _, t := range builtinScalars {
		r.types[t.Name] = t.clone()
	}
	return r
}

// Finalized reports whether Finalize has succeeded.
func (r *Registry) Finalized() bool { return r.frozen }

// Lookup returns a registered type.
func (r *Registry) Lookup(name string) (*Type, bool) {
	t, ok := r.types[name]
	return t, ok
}

// Declare forward-declares a type name so that it can be referenced before it
// is registered. Finalize fails if the name is never registered.
func (r *Registry) Declare(name string) error {
	if r.frozen {
		return &FrozenRegistryError{Name: name}
	}
	if !nameRe.MatchString(name) {
		return &InvalidTypeError{Type: name, Reason: "invalid name"}
	}
	if _, ok := r.types[name]; !ok {
		r.declared[name] = true
	}
	return nil
}

// RegisterScalar registers a custom scalar with its coercion functions.
func (r *Registry) RegisterScalar(name string, serialize SerializeFunc, parse ParseValueFunc) error {
	return r.register(NewScalar(name, "", serialize, parse), TypeKindScalar)
}

// RegisterObjectType registers an object type.
func (r *Registry) RegisterObjectType(t *Type) error {
	return r.register(t, TypeKindObject)
}

// RegisterEnum registers an enum type.
func (r *Registry) RegisterEnum(t *Type) error {
	return r.register(t, TypeKindEnum)
}

// RegisterInputObject registers an input object type.
func (r *Registry) RegisterInputObject(t *Type) error {
	return r.register(t, TypeKindInputObject)
}

// Register registers a type of any kind.
func (r *Registry) Register(t *Type) error {
	if t == nil {
		return &InvalidTypeError{Reason: "nil type"}
	}
	return r.register(t, t.Kind)
}

func (r *Registry) register(t *Type, kind TypeKind) error {
	if t == nil {
		return &InvalidTypeError{Reason: "nil type"}
	}
	if r.frozen {
		return &FrozenRegistryError{Name: t.Name}
	}
	if _, ok := r.types[t.Name]; ok {
		return &DuplicateTypeError{Name: t.Name}
	}
	if err := checkDefinition(t, kind); err != nil {
		return err
	}
	r.types[t.Name] = t.clone()
	r.order = append(r.order, t.Name)
	delete(r.declared, t.Name)
	return nil
}

// checkDefinition validates what can be checked without the other types.
func checkDefinition(t *Type, kind TypeKind) error {
	if !nameRe.MatchString(t.Name) {
		return &InvalidTypeError{Type: t.Name, Reason: "invalid name"}
	}
	if t.Kind != kind {
		return &InvalidTypeError{Type: t.Name, Reason: fmt.Sprintf("expected kind %s, got %s", kind, t.Kind)}
	}
	switch kind {
	case TypeKindScalar:
		if t.Serialize == nil || t.ParseValue == nil {
			return &InvalidTypeError{Type: t.Name, Reason: "scalar requires serialize and parse functions"}
		}
	case TypeKindObject:
		if len(t.Fields) == 0 {
			return &InvalidTypeError{Type: t.Name, Reason: "object type must define at least one field"}
		}
		seen := make(map[string]bool, len(t.Fields))
		for _, f := range t.Fields {
			if f == nil || !nameRe.MatchString(f.Name) || f.Type == nil {
				return &InvalidTypeError{Type: t.Name, Reason: "field requires a name and a type"}
			}
			if seen[f.Name] {
				return &InvalidTypeError{Type: t.Name, Field: f.Name, Reason: "duplicate field"}
			}
			seen[f.Name] = true
			if err := checkArguments(t.Name, f.Name, f.Arguments); err != nil {
				return err
			}
		}
	case TypeKindEnum:
		if len(t.EnumValues) == 0 {
			return &InvalidTypeError{Type: t.Name, Reason: "enum type must define at least one value"}
		}
		seen := make(map[string]bool, len(t.EnumValues))
		for _, v := range t.EnumValues {
			if !nameRe.MatchString(v.Name) || v.Name == "true" || v.Name == "false" || v.Name == "null" {
				return &InvalidTypeError{Type: t.Name, Reason: fmt.Sprintf("invalid enum value %q", v.Name)}
			}
			if seen[v.Name] {
				return &InvalidTypeError{Type: t.Name, Reason: fmt.Sprintf("duplicate enum value %q", v.Name)}
			}
			seen[v.Name] = true
		}
	case TypeKindInputObject:
		if len(t.InputFields) == 0 {
			return &InvalidTypeError{Type: t.Name, Reason: "input object type must define at least one field"}
		}
		if err := checkArguments(t.Name, "", t.InputFields); err != nil {
			return err
		}
	default:
		return &InvalidTypeError{Type: t.Name, Reason: fmt.Sprintf("unsupported kind %s", kind)}
	}
	return nil
}

func checkArguments(typeName, fieldName string, args []*InputValue) error {
	seen := make(map[string]bool, len(args))
	for _, a := range args {
		if a == nil || !nameRe.MatchString(a.Name) || a.Type == nil {
			return &InvalidTypeError{Type: typeName, Field: fieldName, Reason: "input value requires a name and a type"}
		}
		if seen[a.Name] {
			return &InvalidTypeError{Type: typeName, Field: fieldName, Reason: fmt.Sprintf("duplicate input value %q", a.Name)}
		}
		seen[a.Name] = true
	}
	return nil
}

// Finalize checks every type reference and freezes the registry. Calling it
// again after success is a no-op.
func (r *Registry) Finalize() error {
	if r.frozen {
		return nil
	}
	for _, name := range r.order {
		t := r.types[name]
		switch t.Kind {
		case TypeKindObject:
			for _, f := range t.Fields {
				ref := t.Name + "." + f.Name
				if err := r.checkRef(f.Type, ref, (*Type).IsOutputType, "an output"); err != nil {
					return err
				}
				for _, a := range f.Arguments {
					if err := r.checkRef(a.Type, ref+"("+a.Name+")", (*Type).IsInputType, "an input"); err != nil {
						return err
					}
				}
			}
		case TypeKindInputObject:
			for _, f := range t.InputFields {
				if err := r.checkRef(f.Type, t.Name+"."+f.Name, (*Type).IsInputType, "an input"); err != nil {
					return err
				}
			}
		}
	}
	if len(r.declared) > 0 {
		return &UnknownTypeError{Name: sortedKeys(r.declared)[0]}
	}
	for _, t := range r.types {
		if !t.frozen {
			t.freeze()
		}
	}
	r.frozen = true
	return nil
}

func (r *Registry) checkRef(ref *TypeRef, referrer string, allowed func(*Type) bool, want string) error {
	name := ref.GetNamedType()
	t, ok := r.types[name]
	if !ok {
		return &UnknownTypeError{Name: name, Referrer: referrer}
	}
	if !allowed(t) {
		return &InvalidTypeError{Type: referrer, Reason: fmt.Sprintf("%s is not %s type", name, want)}
	}
	return nil
}
