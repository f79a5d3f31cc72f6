package validation

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/hanpama/graphcore/internal/language"
	"github.com/hanpama/graphcore/internal/schema"
)

// argSite identifies the argument a value is checked for.
type argSite struct {
	owner    string
	name     string
	argument string
	path     ast.Path
}

// checkValue reports whether a literal fits ref. Variables found inside the
// value are marked used and checked against their position; mismatches
// there are reported directly and do not fail the literal.
func (v *validator) checkValue(ref *schema.TypeRef, value *language.Value, locationHasDefault bool, site argSite) bool {
	if value.Kind == language.Variable {
		v.checkVariableUsage(ref, value, locationHasDefault, site)
		return true
	}
	if ref.IsNonNull() {
		if value.Kind == language.NullValue {
			return false
		}
		return v.checkValue(ref.OfType, value, false, site)
	}
	if value.Kind == language.NullValue {
		return true
	}
	if ref.Kind == schema.TypeRefKindList {
		if value.Kind != language.ListValue {
			return v.checkValue(ref.OfType, value, false, site)
		}
		ok := true
		for _, item := range value.Children {
			if !v.checkValue(ref.OfType, item.Value, false, site) {
				ok = false
			}
		}
		return ok
	}

	t, found := v.schema.LookupType(ref.Named)
	if !found {
		return false
	}
	switch t.Kind {
	case schema.TypeKindScalar:
		switch value.Kind {
		case language.IntValue, language.FloatValue, language.StringValue, language.BlockValue, language.BooleanValue:
		default:
			return false
		}
		_, err := t.ParseValue(language.ValueToGo(value, nil))
		return err == nil
	case schema.TypeKindEnum:
		return value.Kind == language.EnumValue && t.HasEnumValue(value.Raw)
	case schema.TypeKindInputObject:
		if value.Kind != language.ObjectValue {
			return false
		}
		ok := true
		seen := make(map[string]bool, len(value.Children))
		for _, child := range value.Children {
			f := t.InputField(child.Name)
			if f == nil || seen[child.Name] {
				ok = false
				continue
			}
			seen[child.Name] = true
			if !v.checkValue(f.Type, child.Value, f.HasDefault, site) {
				ok = false
			}
		}
		for _, f := range t.InputFields {
			if f.Required() && !seen[f.Name] {
				ok = false
			}
		}
		return ok
	}
	return false
}

func (v *validator) checkVariableUsage(ref *schema.TypeRef, value *language.Value, locationHasDefault bool, site argSite) {
	name := value.Raw
	v.usedVars[name] = true
	def, ok := v.varDefs[name]
	if !ok {
		v.report(&VariableError{
			Name:    name,
			Message: fmt.Sprintf("Variable $%s is used by %s but not declared", name, v.operationLabel()),
			Path:    site.path,
		}, value.Position)
		return
	}
	varRef := schema.TypeRefOf(def.Type)
	if _, known := v.schema.LookupType(varRef.GetNamedType()); !known {
		// reported with the definition
		return
	}
	hasDefault := def.DefaultValue != nil && def.DefaultValue.Kind != language.NullValue
	if compatible(varRef, ref, hasDefault || locationHasDefault) {
		return
	}
	v.report(&ArgumentTypeError{
		Owner:        site.owner,
		Name:         site.name,
		Argument:     site.argument,
		Expected:     ref.String(),
		Variable:     name,
		VariableType: varRef.String(),
		Nullability:  sameShape(varRef, ref),
		Path:         site.path,
	}, value.Position)
}

// compatible reports whether a variable of type varRef may be used where
// locRef is expected. allowNullable permits a nullable variable in a
// non-null position when a default covers the missing value.
func compatible(varRef, locRef *schema.TypeRef, allowNullable bool) bool {
	if locRef.IsNonNull() {
		if !varRef.IsNonNull() {
			return allowNullable && compatible(varRef, locRef.OfType, false)
		}
		return compatible(varRef.OfType, locRef.OfType, false)
	}
	if varRef.IsNonNull() {
		return compatible(varRef.OfType, locRef, false)
	}
	if locRef.Kind == schema.TypeRefKindList {
		return varRef.Kind == schema.TypeRefKindList && compatible(varRef.OfType, locRef.OfType, false)
	}
	if varRef.Kind == schema.TypeRefKindList {
		return false
	}
	return varRef.Named == locRef.Named
}

// sameShape compares two references ignoring non-null wrappers.
func sameShape(a, b *schema.TypeRef) bool {
	a, b = a.Nullable(), b.Nullable()
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == schema.TypeRefKindList {
		return sameShape(a.OfType, b.OfType)
	}
	return a.Named == b.Named
}

func (v *validator) operationLabel() string {
	if v.op.Name != "" {
		return v.op.Name
	}
	return "anonymous " + string(v.op.Operation)
}

func (v *validator) validateVariableDefinitions() {
	for _, def := range v.op.VariableDefinitions {
		name := def.Variable
		if _, dup := v.varDefs[name]; dup {
			v.report(&VariableError{Name: name, Message: fmt.Sprintf("There can be only one variable named $%s", name)}, def.Position)
			continue
		}
		v.varDefs[name] = def

		ref := schema.TypeRefOf(def.Type)
		t, ok := v.schema.LookupType(ref.GetNamedType())
		if !ok {
			v.report(&VariableError{Name: name, Message: fmt.Sprintf("%s isn't a defined input type (on $%s)", def.Type, name)}, def.Position)
			continue
		}
		if !t.IsInputType() {
			v.report(&VariableError{Name: name, Message: fmt.Sprintf("%s isn't a valid input type (on $%s)", def.Type, name)}, def.Position)
			continue
		}

		if def.DefaultValue != nil {
			site := argSite{owner: "Variable", name: name, argument: name}
			if !v.checkValue(ref, def.DefaultValue, false, site) {
				v.report(&VariableError{
					Name:    name,
					Message: fmt.Sprintf("Default value for $%s doesn't match type %s", name, def.Type),
				}, def.DefaultValue.Position)
			}
		}

		raw, present := v.vars[name]
		if !present {
			if def.DefaultValue == nil && ref.IsNonNull() {
				v.report(&VariableError{
					Name:    name,
					Message: fmt.Sprintf("Variable $%s of required type %s was not provided.", name, def.Type),
				}, def.Position)
			}
			continue
		}
		if _, err := v.schema.CoerceValue(ref, raw); err != nil {
			v.report(&VariableError{
				Name:    name,
				Message: fmt.Sprintf("Variable $%s of type %s was provided invalid value: %s", name, def.Type, err),
			}, def.Position)
		}
	}
}

func (v *validator) validateUnusedVariables() {
	for _, def := range v.op.VariableDefinitions {
		if !v.usedVars[def.Variable] {
			v.report(&VariableError{
				Name:    def.Variable,
				Message: fmt.Sprintf("Variable $%s is declared by %s but not used", def.Variable, v.operationLabel()),
			}, def.Position)
		}
	}
}
