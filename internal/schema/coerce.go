package schema

import (
	"fmt"
	"strings"

	"github.com/hanpama/graphcore/internal/language"
)

// CoercionError reports an input value that does not fit its type. Path
// locates the offending part inside the value (input field names and list
// indices).
type CoercionError struct {
	Path    []any
	Message string
}

func (e *CoercionError) Error() string {
	if len(e.Path) == 0 {
		return e.Message
	}
	parts := make([]string, len(e.Path))
	for i, p := range e.Path {
		parts[i] = fmt.Sprint(p)
	}
	return fmt.Sprintf("%s at %s", e.Message, strings.Join(parts, "."))
}

// CoerceValue coerces a Go input value (as decoded from JSON variables or
// converted from a literal) to the given input type: scalars through their
// ParseValue, enums by membership, input objects with defaults applied, and
// single values wrapped into lists.
func (s *Schema) CoerceValue(ref *TypeRef, value any) (any, error) {
	return s.coerce(ref, value, nil)
}

func (s *Schema) coerce(ref *TypeRef, value any, path []any) (any, error) {
	if ref.IsNonNull() {
		if value == nil {
			return nil, &CoercionError{Path: path, Message: fmt.Sprintf("expected non-null value of type %s", ref)}
		}
		return s.coerce(ref.OfType, value, path)
	}
	if value == nil {
		return nil, nil
	}
	if ref.Kind == TypeRefKindList {
		items, ok := value.([]any)
		if !ok {
			v, err := s.coerce(ref.OfType, value, path)
			if err != nil {
				return nil, err
			}
			return []any{v}, nil
		}
		out := make([]any, len(items))
		for i, item := range items {
			v, err := s.coerce(ref.OfType, item, appendPath(path, i))
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	t, ok := s.LookupType(ref.Named)
	if !ok {
		return nil, &CoercionError{Path: path, Message: fmt.Sprintf("unknown type %s", ref.Named)}
	}
	switch t.Kind {
	case TypeKindScalar:
		v, err := t.ParseValue(value)
		if err != nil {
			return nil, &CoercionError{Path: path, Message: err.Error()}
		}
		return v, nil
	case TypeKindEnum:
		name, ok := value.(string)
		if !ok || !t.HasEnumValue(name) {
			return nil, &CoercionError{Path: path, Message: fmt.Sprintf("value %v does not exist in %s enum", value, t.Name)}
		}
		return name, nil
	case TypeKindInputObject:
		fields, ok := value.(map[string]any)
		if !ok {
			return nil, &CoercionError{Path: path, Message: fmt.Sprintf("expected input object %s, got %v", t.Name, value)}
		}
		for _, name := range sortedKeys(fields) {
			if t.InputField(name) == nil {
				return nil, &CoercionError{Path: appendPath(path, name), Message: fmt.Sprintf("field %q is not defined by type %s", name, t.Name)}
			}
		}
		out := make(map[string]any, len(t.InputFields))
		for _, f := range t.InputFields {
			raw, present := fields[f.Name]
			if !present {
				if f.HasDefault {
					out[f.Name] = f.DefaultValue
					continue
				}
				if f.Type.IsNonNull() {
					return nil, &CoercionError{Path: appendPath(path, f.Name), Message: fmt.Sprintf("field %s.%s of required type %s was not provided", t.Name, f.Name, f.Type)}
				}
				continue
			}
			v, err := s.coerce(f.Type, raw, appendPath(path, f.Name))
			if err != nil {
				return nil, err
			}
			out[f.Name] = v
		}
		return out, nil
	}
	return nil, &CoercionError{Path: path, Message: fmt.Sprintf("%s is not an input type", t.Name)}
}

func appendPath(path []any, elem any) []any {
	out := make([]any, len(path), len(path)+1)
	copy(out, path)
	return append(out, elem)
}

// TypeRefOf converts a type written in a query document into a TypeRef.
func TypeRefOf(t *language.Type) *TypeRef {
	if t == nil {
		return nil
	}
	var ref *TypeRef
	if t.Elem != nil {
		ref = ListType(TypeRefOf(t.Elem))
	} else {
		ref = NamedType(t.NamedType)
	}
	if t.NonNull {
		ref = NonNullType(ref)
	}
	return ref
}
