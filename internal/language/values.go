package language

import (
	"encoding/json"
	"strconv"
)

// ValueToGo converts an AST value to a Go value, substituting variables from
// vars. Unset variables become nil. Int literals that do not fit in int64
// are returned as json.Number so that no digits are lost.
func ValueToGo(value *Value, vars map[string]any) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case Variable:
		return vars[value.Raw]
	case IntValue:
		if iv, err := strconv.ParseInt(value.Raw, 10, 64); err == nil {
			return int(iv)
		}
		return json.Number(value.Raw)
	case FloatValue:
		fv, _ := strconv.ParseFloat(value.Raw, 64)
		return fv
	case StringValue, BlockValue, EnumValue:
		return value.Raw
	case BooleanValue:
		return value.Raw == "true"
	case NullValue:
		return nil
	case ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = ValueToGo(c.Value, vars)
		}
		return out
	case ObjectValue:
		m := make(map[string]any, len(value.Children))
		for _, c := range value.Children {
			if c.Value.Kind == Variable {
				if _, ok := vars[c.Value.Raw]; !ok {
					continue
				}
			}
			m[c.Name] = ValueToGo(c.Value, vars)
		}
		return m
	default:
		return nil
	}
}
