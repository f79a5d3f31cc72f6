package schema

import (
	"maps"
	"slices"
)

// Build composes a schema from the registry. The registry is finalized if it
// is not already. mutationType may be empty.
func Build(reg *Registry, queryType, mutationType string) (*Schema, error) {
	if err := reg.Finalize(); err != nil {
		return nil, err
	}
	if err := checkRoot(reg, "query", queryType); err != nil {
		return nil, err
	}
	if mutationType != "" {
		if err := checkRoot(reg, "mutation", mutationType); err != nil {
			return nil, err
		}
	}
	s := &Schema{
		QueryType:    queryType,
		MutationType: mutationType,
		Types:        maps.Clone(reg.types),
		Directives: map[string]*Directive{
			includeDirective.Name: includeDirective,
			skipDirective.Name:    skipDirective,
		},
	}
	return s, nil
}

func checkRoot(reg *Registry, op, name string) error {
	t, ok := reg.types[name]
	switch {
	case !ok:
		return &InvalidRootError{Operation: op, Type: name, Reason: "type is not registered"}
	case t.Kind != TypeKindObject:
		return &InvalidRootError{Operation: op, Type: name, Reason: "root type must be an object type"}
	case len(t.Fields) == 0:
		return &InvalidRootError{Operation: op, Type: name, Reason: "root type must define at least one field"}
	}
	for _, f := range t.Fields {
		if f.Resolve == nil {
			return &InvalidRootError{Operation: op, Type: name, Reason: "field " + f.Name + " has no resolver"}
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
