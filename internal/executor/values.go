package executor

import (
	"fmt"

	language "github.com/hanpama/graphcore/internal/language"
	schema "github.com/hanpama/graphcore/internal/schema"
)

// CoerceVariableValues coerces the supplied variables according to the
// operation's variable definitions. Variables neither supplied nor
// defaulted are left unset.
func CoerceVariableValues(
	s *schema.Schema,
	operation *language.OperationDefinition,
	variableValues map[string]any,
) (map[string]any, error) {
	coerced := make(map[string]any, len(operation.VariableDefinitions))
	for _, varDef := range operation.VariableDefinitions {
		name := varDef.Variable
		ref := schema.TypeRefOf(varDef.Type)
		val, ok := variableValues[name]
		if !ok {
			if varDef.DefaultValue != nil {
				val = language.ValueToGo(varDef.DefaultValue, nil)
			} else if ref.IsNonNull() {
				return nil, &VariableValueError{
					Name:    name,
					Message: fmt.Sprintf("Variable $%s of required type %s was not provided.", name, varDef.Type),
				}
			} else {
				continue
			}
		}
		cv, err := s.CoerceValue(ref, val)
		if err != nil {
			return nil, &VariableValueError{
				Name:    name,
				Message: fmt.Sprintf("Variable $%s of type %s was provided invalid value: %v", name, varDef.Type, err),
			}
		}
		coerced[name] = cv
	}
	return coerced, nil
}

// coerceArgumentValues substitutes variables, applies defaults and coerces
// each argument of a field.
func coerceArgumentValues(
	s *schema.Schema,
	fieldDef *schema.Field,
	arguments language.ArgumentList,
	variableValues map[string]any,
) (map[string]any, error) {
	coerced := make(map[string]any, len(fieldDef.Arguments))
	for _, argDef := range fieldDef.Arguments {
		name := argDef.Name
		arg := arguments.ForName(name)

		present := arg != nil
		if present && arg.Value.Kind == language.Variable {
			_, present = variableValues[arg.Value.Raw]
		}
		if !present {
			if argDef.HasDefault {
				coerced[name] = argDef.DefaultValue
			} else if argDef.Type.IsNonNull() {
				return nil, fmt.Errorf("Argument '%s' of required type '%s' was not provided.", name, argDef.Type)
			}
			continue
		}

		value := language.ValueToGo(arg.Value, variableValues)
		cv, err := s.CoerceValue(argDef.Type, value)
		if err != nil {
			return nil, fmt.Errorf("Argument '%s' has an invalid value: %v", name, err)
		}
		coerced[name] = cv
	}
	return coerced, nil
}
