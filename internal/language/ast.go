package language

import "strings"

type Operation string

const (
	Query    Operation = "query"
	Mutation Operation = "mutation"
)

// Position is a 1-based line/column location in the query source.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type QueryDocument struct {
	Operations OperationList
	Fragments  FragmentDefinitionList
}

type OperationList []*OperationDefinition

func (l OperationList) ForName(name string) *OperationDefinition {
	for _, op := range l {
		if op.Name == name {
			return op
		}
	}
	return nil
}

type FragmentDefinitionList []*FragmentDefinition

func (l FragmentDefinitionList) ForName(name string) *FragmentDefinition {
	for _, f := range l {
		if f.Name == name {
			return f
		}
	}
	return nil
}

type OperationDefinition struct {
	Operation           Operation
	Name                string
	VariableDefinitions VariableDefinitionList
	Directives          DirectiveList
	SelectionSet        SelectionSet
	Position            Position
}

type VariableDefinition struct {
	Variable     string
	Type         *Type
	DefaultValue *Value
	Position     Position
}

type VariableDefinitionList []*VariableDefinition

func (l VariableDefinitionList) ForName(name string) *VariableDefinition {
	for _, v := range l {
		if v.Variable == name {
			return v
		}
	}
	return nil
}

// Type is a type reference as written in a variable definition.
type Type struct {
	NamedType string
	Elem      *Type
	NonNull   bool
	Position  Position
}

func (t *Type) String() string {
	var s string
	if t.Elem != nil {
		s = "[" + t.Elem.String() + "]"
	} else {
		s = t.NamedType
	}
	if t.NonNull {
		s += "!"
	}
	return s
}

// Name returns the innermost named type.
func (t *Type) Name() string {
	if t.Elem != nil {
		return t.Elem.Name()
	}
	return t.NamedType
}

type SelectionSet []Selection

type Selection interface {
	isSelection()
	GetPosition() Position
}

func (*Field) isSelection()          {}
func (*FragmentSpread) isSelection() {}
func (*InlineFragment) isSelection() {}

func (f *Field) GetPosition() Position          { return f.Position }
func (s *FragmentSpread) GetPosition() Position { return s.Position }
func (f *InlineFragment) GetPosition() Position { return f.Position }

// Field is one selected field: name, optional alias, arguments and the
// nested selections (empty for leaf fields).
type Field struct {
	Alias        string
	Name         string
	Arguments    ArgumentList
	Directives   DirectiveList
	SelectionSet SelectionSet
	Position     Position
}

// ResponseName is the key under which the field appears in the response.
func (f *Field) ResponseName() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

type FragmentSpread struct {
	Name       string
	Directives DirectiveList
	Position   Position
}

type InlineFragment struct {
	TypeCondition string
	Directives    DirectiveList
	SelectionSet  SelectionSet
	Position      Position
}

type FragmentDefinition struct {
	Name          string
	TypeCondition string
	Directives    DirectiveList
	SelectionSet  SelectionSet
	Position      Position
}

type Argument struct {
	Name     string
	Value    *Value
	Position Position
}

type ArgumentList []*Argument

func (l ArgumentList) ForName(name string) *Argument {
	for _, a := range l {
		if a.Name == name {
			return a
		}
	}
	return nil
}

type Directive struct {
	Name      string
	Arguments ArgumentList
	Position  Position
}

type DirectiveList []*Directive

func (l DirectiveList) ForName(name string) *Directive {
	for _, d := range l {
		if d.Name == name {
			return d
		}
	}
	return nil
}

type ValueKind int

const (
	Variable ValueKind = iota
	IntValue
	FloatValue
	StringValue
	BlockValue
	BooleanValue
	NullValue
	EnumValue
	ListValue
	ObjectValue
)

// Value is a literal or variable reference. Raw holds the variable name,
// the unquoted string or the literal text; list items and object fields
// are kept in Children.
type Value struct {
	Kind     ValueKind
	Raw      string
	Children ChildValueList
	Position Position
}

type ChildValue struct {
	Name     string
	Value    *Value
	Position Position
}

type ChildValueList []*ChildValue

func (v *Value) String() string {
	if v == nil {
		return "<nil>"
	}
	switch v.Kind {
	case Variable:
		return "$" + v.Raw
	case StringValue, BlockValue:
		return `"` + strings.ReplaceAll(v.Raw, `"`, `\"`) + `"`
	case ListValue:
		parts := make([]string, len(v.Children))
		for i, c := range v.Children {
			parts[i] = c.Value.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case ObjectValue:
		parts := make([]string, len(v.Children))
		for i, c := range v.Children {
			parts[i] = c.Name + ": " + c.Value.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return v.Raw
	}
}
