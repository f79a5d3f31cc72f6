// Package validation checks a parsed operation against a schema before any
// resolver runs.
package validation

import (
	"fmt"
	"slices"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/hanpama/graphcore/internal/language"
	"github.com/hanpama/graphcore/internal/schema"
)

type validator struct {
	schema *schema.Schema
	doc    *language.QueryDocument
	op     *language.OperationDefinition
	vars   map[string]any

	errs     []error
	reported map[string]bool

	varDefs   map[string]*language.VariableDefinition
	usedVars  map[string]bool
	fragStack map[string]bool
}

// Validate checks op, and every fragment it reaches, against s. It collects
// all errors rather than stopping at the first. variableValues are the raw
// values supplied with the request.
func Validate(s *schema.Schema, doc *language.QueryDocument, op *language.OperationDefinition, variableValues map[string]any) []error {
	v := &validator{
		schema:    s,
		doc:       doc,
		op:        op,
		vars:      variableValues,
		reported:  make(map[string]bool),
		varDefs:   make(map[string]*language.VariableDefinition),
		usedVars:  make(map[string]bool),
		fragStack: make(map[string]bool),
	}

	v.validateFragmentDefinitions()
	v.validateVariableDefinitions()

	var root *schema.Type
	location := "QUERY"
	switch op.Operation {
	case language.Mutation:
		root = s.MutationRoot()
		location = "MUTATION"
	default:
		root = s.QueryRoot()
	}
	if root == nil {
		v.report(&RootTypeError{Operation: string(op.Operation)}, op.Position)
		return v.errs
	}

	v.validateDirectives(op.Directives, location, nil)
	v.validateSelectionSet(root, op.SelectionSet, nil)
	v.validateUnusedVariables()
	return v.errs
}

// report records err once per source position.
func (v *validator) report(err error, at language.Position) {
	key := fmt.Sprintf("%T:%d:%d:%s", err, at.Line, at.Column, err.Error())
	if v.reported[key] {
		return
	}
	v.reported[key] = true
	v.errs = append(v.errs, err)
}

func (v *validator) validateSelectionSet(parent *schema.Type, set language.SelectionSet, path ast.Path) {
	for _, sel := range set {
		switch sel := sel.(type) {
		case *language.Field:
			v.validateField(parent, sel, path)

		case *language.InlineFragment:
			v.validateDirectives(sel.Directives, "INLINE_FRAGMENT", path)
			target := parent
			if sel.TypeCondition != "" {
				target = v.fragmentTarget("", sel.TypeCondition, parent, sel.Position, path)
				if target == nil {
					continue
				}
			}
			v.validateSelectionSet(target, sel.SelectionSet, path)

		case *language.FragmentSpread:
			v.validateDirectives(sel.Directives, "FRAGMENT_SPREAD", path)
			def := v.doc.Fragments.ForName(sel.Name)
			if def == nil {
				v.report(&UnknownFragmentError{Name: sel.Name, Path: path}, sel.Position)
				continue
			}
			cond, ok := v.schema.LookupType(def.TypeCondition)
			if !ok || cond.Kind != schema.TypeKindObject {
				// reported once at the definition
				continue
			}
			if cond.Name != parent.Name {
				v.report(&FragmentTypeError{
					Fragment:      def.Name,
					TypeCondition: def.TypeCondition,
					ParentType:    parent.Name,
					Reason:        reasonMismatch,
					Path:          path,
				}, sel.Position)
				continue
			}
			if v.fragStack[def.Name] {
				continue
			}
			v.fragStack[def.Name] = true
			v.validateSelectionSet(cond, def.SelectionSet, path)
			delete(v.fragStack, def.Name)
		}
	}
	v.validateFieldConflicts(parent, set, path)
}

// fragmentTarget resolves an inline fragment's type condition against the
// parent type, reporting when it cannot apply.
func (v *validator) fragmentTarget(name, typeCondition string, parent *schema.Type, at language.Position, path ast.Path) *schema.Type {
	cond, ok := v.schema.LookupType(typeCondition)
	switch {
	case !ok:
		v.report(&FragmentTypeError{Fragment: name, TypeCondition: typeCondition, Reason: reasonUnknownType, Path: path}, at)
		return nil
	case cond.Kind != schema.TypeKindObject:
		v.report(&FragmentTypeError{Fragment: name, TypeCondition: typeCondition, Reason: reasonNotObject, Path: path}, at)
		return nil
	case cond.Name != parent.Name:
		v.report(&FragmentTypeError{Fragment: name, TypeCondition: typeCondition, ParentType: parent.Name, Reason: reasonMismatch, Path: path}, at)
		return nil
	}
	return cond
}

func (v *validator) validateField(parent *schema.Type, f *language.Field, path ast.Path) {
	fieldPath := appendPath(path, ast.PathName(f.ResponseName()))
	v.validateDirectives(f.Directives, "FIELD", fieldPath)

	if f.Name == "__typename" {
		for _, arg := range f.Arguments {
			v.report(&UnknownArgumentError{Owner: "Field", Name: f.Name, Argument: arg.Name, Path: fieldPath}, arg.Position)
		}
		if len(f.SelectionSet) > 0 {
			v.report(&LeafSelectionError{FieldName: f.Name, TypeName: "String", Selections: selectionNames(f.SelectionSet), Path: fieldPath}, f.Position)
		}
		return
	}

	def := parent.Field(f.Name)
	if def == nil {
		v.report(&UnknownFieldError{TypeName: parent.Name, FieldName: f.Name, Path: fieldPath}, f.Position)
		return
	}

	v.validateArguments("Field", f.Name, def.Arguments, f.Arguments, f.Position, fieldPath)

	named, ok := v.schema.LookupType(def.Type.GetNamedType())
	if !ok {
		return
	}
	if named.IsLeaf() {
		if len(f.SelectionSet) > 0 {
			v.report(&LeafSelectionError{
				FieldName:  f.Name,
				TypeName:   def.Type.String(),
				Enum:       named.Kind == schema.TypeKindEnum,
				Selections: selectionNames(f.SelectionSet),
				Path:       fieldPath,
			}, f.Position)
		}
		return
	}
	if len(f.SelectionSet) == 0 {
		v.report(&MissingSelectionError{FieldName: f.Name, TypeName: def.Type.String(), Path: fieldPath}, f.Position)
		return
	}
	v.validateSelectionSet(named, f.SelectionSet, fieldPath)
}

func (v *validator) validateDirectives(directives language.DirectiveList, location string, path ast.Path) {
	for _, d := range directives {
		def, ok := v.schema.LookupDirective(d.Name)
		if !ok {
			v.report(&UnknownDirectiveError{Name: d.Name, Path: path}, d.Position)
			continue
		}
		if !slices.Contains(def.Locations, location) {
			v.report(&UnknownDirectiveError{Name: d.Name, Location: location, Path: path}, d.Position)
			continue
		}
		v.validateArguments("Directive", d.Name, def.Arguments, d.Arguments, d.Position, path)
	}
}

func (v *validator) validateArguments(owner, name string, defs []*schema.InputValue, args language.ArgumentList, at language.Position, path ast.Path) {
	seen := make(map[string]bool, len(args))
	for _, arg := range args {
		if seen[arg.Name] {
			v.report(&DuplicateArgumentError{Argument: arg.Name, Path: path}, arg.Position)
			continue
		}
		seen[arg.Name] = true

		var def *schema.InputValue
		for _, d := range defs {
			if d.Name == arg.Name {
				def = d
				break
			}
		}
		if def == nil {
			v.report(&UnknownArgumentError{Owner: owner, Name: name, Argument: arg.Name, Path: path}, arg.Position)
			continue
		}
		if def.Type.IsNonNull() && arg.Value.Kind == language.NullValue {
			// reported as missing below
			continue
		}
		site := argSite{owner: owner, name: name, argument: arg.Name, path: path}
		if !v.checkValue(def.Type, arg.Value, def.HasDefault, site) {
			v.report(&ArgumentTypeError{
				Owner:    owner,
				Name:     name,
				Argument: arg.Name,
				Expected: def.Type.String(),
				Value:    arg.Value.String(),
				Path:     path,
			}, arg.Position)
		}
	}
	for _, def := range defs {
		if !def.Required() {
			continue
		}
		arg := args.ForName(def.Name)
		if arg == nil || arg.Value.Kind == language.NullValue {
			v.report(&MissingArgumentError{Owner: owner, Name: name, Argument: def.Name, Type: def.Type.String(), Path: path}, at)
		}
	}
}

// validateFieldConflicts reports response names that select different fields
// or the same field with different arguments within one selection set.
func (v *validator) validateFieldConflicts(parent *schema.Type, set language.SelectionSet, path ast.Path) {
	var order []string
	byName := make(map[string][]*language.Field)
	visited := make(map[string]bool)
	var collect func(language.SelectionSet)
	collect = func(set language.SelectionSet) {
		for _, sel := range set {
			switch sel := sel.(type) {
			case *language.Field:
				rn := sel.ResponseName()
				if _, ok := byName[rn]; !ok {
					order = append(order, rn)
				}
				byName[rn] = append(byName[rn], sel)
			case *language.InlineFragment:
				if sel.TypeCondition == "" || sel.TypeCondition == parent.Name {
					collect(sel.SelectionSet)
				}
			case *language.FragmentSpread:
				def := v.doc.Fragments.ForName(sel.Name)
				if def == nil || visited[def.Name] || def.TypeCondition != parent.Name {
					continue
				}
				visited[def.Name] = true
				collect(def.SelectionSet)
			}
		}
	}
	collect(set)

	for _, rn := range order {
		fields := byName[rn]
		first := fields[0]
		for _, other := range fields[1:] {
			if other.Name != first.Name || argumentsKey(other.Arguments) != argumentsKey(first.Arguments) {
				names := []string{first.Name, other.Name}
				if other.Name == first.Name {
					names = []string{first.Name + argumentsKey(first.Arguments), other.Name + argumentsKey(other.Arguments)}
				}
				v.report(&FieldConflictError{ResponseName: rn, Fields: names, Path: appendPath(path, ast.PathName(rn))}, other.Position)
				break
			}
		}
	}
}

func argumentsKey(args language.ArgumentList) string {
	if len(args) == 0 {
		return ""
	}
	sorted := slices.Clone(args)
	slices.SortFunc(sorted, func(a, b *language.Argument) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	key := "("
	for i, a := range sorted {
		if i > 0 {
			key += ", "
		}
		key += a.Name + ": " + a.Value.String()
	}
	return key + ")"
}

func (v *validator) validateFragmentDefinitions() {
	seen := make(map[string]bool, len(v.doc.Fragments))
	for _, def := range v.doc.Fragments {
		if seen[def.Name] {
			v.report(&DuplicateFragmentError{Name: def.Name}, def.Position)
			continue
		}
		seen[def.Name] = true
		cond, ok := v.schema.LookupType(def.TypeCondition)
		switch {
		case !ok:
			v.report(&FragmentTypeError{Fragment: def.Name, TypeCondition: def.TypeCondition, Reason: reasonUnknownType}, def.Position)
		case cond.Kind != schema.TypeKindObject:
			v.report(&FragmentTypeError{Fragment: def.Name, TypeCondition: def.TypeCondition, Reason: reasonNotObject}, def.Position)
		}
		v.validateDirectives(def.Directives, "FRAGMENT_DEFINITION", nil)
	}
}

func selectionNames(set language.SelectionSet) []string {
	names := make([]string, 0, len(set))
	for _, sel := range set {
		switch sel := sel.(type) {
		case *language.Field:
			names = append(names, sel.Name)
		case *language.FragmentSpread:
			names = append(names, "..."+sel.Name)
		case *language.InlineFragment:
			if sel.TypeCondition == "" {
				names = append(names, "...")
			} else {
				names = append(names, "... on "+sel.TypeCondition)
			}
		}
	}
	return names
}

func appendPath(path ast.Path, elem ast.PathElement) ast.Path {
	out := make(ast.Path, len(path), len(path)+1)
	copy(out, path)
	return append(out, elem)
}
