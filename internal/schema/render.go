package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Render produces SDL from the Schema.
// Deterministic ordering: type names sorted lexicographically, fields in
// declaration order.
func Render(s *Schema) string {
	if s == nil {
		return ""
	}
	var b strings.Builder

	if s.QueryType != "Query" || (s.MutationType != "" && s.MutationType != "Mutation") {
		b.WriteString("schema {\n  query: ")
		b.WriteString(s.QueryType)
		b.WriteString("\n")
		if s.MutationType != "" {
			b.WriteString("  mutation: ")
			b.WriteString(s.MutationType)
			b.WriteString("\n")
		}
		b.WriteString("}\n\n")
	}

	// Collect and sort type names, excluding built-in scalars
	typeNames := make([]string, 0, len(s.Types))
	for name := range s.Types {
		if IsBuiltinScalar(name) {
			continue
		}
		typeNames = append(typeNames, name)
	}
	sort.Strings(typeNames)

	r := renderer{s: s, b: &b}
	for _, name := range typeNames {
		typ := s.Types[name]
		switch typ.Kind {
		case TypeKindScalar:
			r.scalar(typ)
		case TypeKindEnum:
			r.enum(typ)
		case TypeKindInputObject:
			r.inputObject(typ)
		case TypeKindObject:
			r.object(typ)
		}
	}

	out := strings.TrimRight(b.String(), "\n") + "\n"
	return out
}

// ----- render helpers -----

type renderer struct {
	s *Schema
	b *strings.Builder
}

func (r renderer) description(desc, indent string) {
	if desc == "" {
		return
	}
	b := r.b
	b.WriteString(indent)
	b.WriteString("\"\"\"\n")
	// Escape quotes in description
	escaped := strings.ReplaceAll(desc, "\"", "\\\"")
	b.WriteString(indent)
	b.WriteString(escaped)
	b.WriteString("\n")
	b.WriteString(indent)
	b.WriteString("\"\"\"\n")
}

func (r renderer) deprecation(deprecated bool, reason string) {
	if !deprecated {
		return
	}
	r.b.WriteString(" @deprecated")
	if reason != "" {
		r.b.WriteString("(reason: ")
		r.b.WriteString(strconv.Quote(reason))
		r.b.WriteString(")")
	}
}

func (r renderer) scalar(typ *Type) {
	r.description(typ.Description, "")
	r.b.WriteString("scalar ")
	r.b.WriteString(typ.Name)
	r.b.WriteString("\n\n")
}

func (r renderer) enum(typ *Type) {
	b := r.b
	r.description(typ.Description, "")
	b.WriteString("enum ")
	b.WriteString(typ.Name)
	b.WriteString(" {\n")
	for _, val := range typ.EnumValues {
		r.description(val.Description, "  ")
		b.WriteString("  ")
		b.WriteString(val.Name)
		r.deprecation(val.IsDeprecated, val.DeprecationReason)
		b.WriteString("\n")
	}
	b.WriteString("}\n\n")
}

func (r renderer) inputObject(typ *Type) {
	b := r.b
	r.description(typ.Description, "")
	b.WriteString("input ")
	b.WriteString(typ.Name)
	b.WriteString(" {\n")
	for _, field := range typ.InputFields {
		r.description(field.Description, "  ")
		b.WriteString("  ")
		r.inputValue(field)
		b.WriteString("\n")
	}
	b.WriteString("}\n\n")
}

func (r renderer) object(typ *Type) {
	b := r.b
	r.description(typ.Description, "")
	b.WriteString("type ")
	b.WriteString(typ.Name)
	b.WriteString(" {\n")
	for _, field := range typ.Fields {
		r.field(field)
	}
	b.WriteString("}\n\n")
}

func (r renderer) field(field *Field) {
	b := r.b
	r.description(field.Description, "  ")
	b.WriteString("  ")
	b.WriteString(field.Name)
	if len(field.Arguments) > 0 {
		b.WriteString("(")
		for i, arg := range field.Arguments {
			if i > 0 {
				b.WriteString(", ")
			}
			r.inputValue(arg)
		}
		b.WriteString(")")
	}
	b.WriteString(": ")
	b.WriteString(renderTypeRef(field.Type))
	r.deprecation(field.IsDeprecated, field.DeprecationReason)
	b.WriteString("\n")
}

func (r renderer) inputValue(v *InputValue) {
	b := r.b
	b.WriteString(v.Name)
	b.WriteString(": ")
	b.WriteString(renderTypeRef(v.Type))
	if v.HasDefault {
		b.WriteString(" = ")
		b.WriteString(r.value(v.Type, v.DefaultValue))
	}
	r.deprecation(v.IsDeprecated, v.DeprecationReason)
}

func renderTypeRef(typeRef *TypeRef) string {
	if typeRef == nil {
		return ""
	}

	switch typeRef.Kind {
	case TypeRefKindNamed:
		return typeRef.Named
	case TypeRefKindList:
		return "[" + renderTypeRef(typeRef.OfType) + "]"
	case TypeRefKindNonNull:
		return renderTypeRef(typeRef.OfType) + "!"
	default:
		return ""
	}
}

// value renders a default value as a GraphQL literal of the given type.
func (r renderer) value(ref *TypeRef, value any) string {
	if value == nil {
		return "null"
	}
	ref = ref.Nullable()
	if ref.Kind == TypeRefKindList {
		items, ok := value.([]any)
		if !ok {
			return r.value(ref.OfType, value)
		}
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = r.value(ref.OfType, item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}

	typ, _ := r.s.LookupType(ref.Named)
	switch v := value.(type) {
	case string:
		if typ != nil && typ.Kind == TypeKindEnum {
			return v
		}
		return strconv.Quote(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case map[string]any:
		keys := sortedKeys(v)
		parts := make([]string, len(keys))
		for i, k := range keys {
			fieldRef := NamedType("")
			if typ != nil {
				if f := typ.InputField(k); f != nil {
					fieldRef = f.Type
				}
			}
			parts[i] = k + ": " + r.value(fieldRef, v[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprint(v)
	}
}
