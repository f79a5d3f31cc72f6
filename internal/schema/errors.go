package schema

import "fmt"

// DuplicateTypeError is returned when a type name is registered twice.
type DuplicateTypeError struct {
	Name string
}

func (e *DuplicateTypeError) Error() string {
	return fmt.Sprintf("type %q is already registered", e.Name)
}

// UnknownTypeError is returned by Finalize for a reference that never
// resolved to a registered type.
type UnknownTypeError struct {
	Name string
	// Referrer is "Type.field", "Type.field(arg)" or "Input.field"; empty for
	// a forward declaration that was never registered.
	Referrer string
}

func (e *UnknownTypeError) Error() string {
	if e.Referrer == "" {
		return fmt.Sprintf("type %q was declared but never registered", e.Name)
	}
	return fmt.Sprintf("unknown type %q referenced by %s", e.Name, e.Referrer)
}

// FrozenRegistryError is returned (or, from the builder methods, panicked) for
// any change to a finalized registry or its types.
type FrozenRegistryError struct {
	Name string
}

func (e *FrozenRegistryError) Error() string {
	return fmt.Sprintf("registry is finalized: cannot change %q", e.Name)
}

// InvalidTypeError reports a structurally invalid type definition.
type InvalidTypeError struct {
	Type   string
	Field  string
	Reason string
}

func (e *InvalidTypeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid type %s.%s: %s", e.Type, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid type %s: %s", e.Type, e.Reason)
}

// InvalidRootError is returned by Build when a root operation type cannot
// serve as one.
type InvalidRootError struct {
	Operation string // "query" or "mutation"
	Type      string
	Reason    string
}

func (e *InvalidRootError) Error() string {
	return fmt.Sprintf("invalid %s root %q: %s", e.Operation, e.Type, e.Reason)
}
