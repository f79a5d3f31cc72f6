package validation

import (
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Error is implemented by every validation error.
type Error interface {
	error
	GraphQLError() *gqlerror.Error
}

func newError(err error, path ast.Path, rule string) *gqlerror.Error {
	return &gqlerror.Error{Err: err, Message: err.Error(), Path: path, Rule: rule}
}

// UnknownFieldError reports a selected field the parent type does not define.
type UnknownFieldError struct {
	TypeName  string
	FieldName string
	Path      ast.Path
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("Field '%s' doesn't exist on type '%s'", e.FieldName, e.TypeName)
}

func (e *UnknownFieldError) GraphQLError() *gqlerror.Error {
	return newError(e, e.Path, "FieldsOnCorrectType")
}

// UnknownArgumentError reports an argument the field or directive does not
// declare. Owner is "Field" or "Directive".
type UnknownArgumentError struct {
	Owner    string
	Name     string
	Argument string
	Path     ast.Path
}

func (e *UnknownArgumentError) Error() string {
	return fmt.Sprintf("%s '%s' doesn't accept argument '%s'", e.Owner, e.Name, e.Argument)
}

func (e *UnknownArgumentError) GraphQLError() *gqlerror.Error {
	return newError(e, e.Path, "KnownArgumentNames")
}

// DuplicateArgumentError reports an argument given more than once.
type DuplicateArgumentError struct {
	Argument string
	Path     ast.Path
}

func (e *DuplicateArgumentError) Error() string {
	return fmt.Sprintf("There can be only one argument named %q", e.Argument)
}

func (e *DuplicateArgumentError) GraphQLError() *gqlerror.Error {
	return newError(e, e.Path, "UniqueArgumentNames")
}

// MissingArgumentError reports a required argument that is absent or null.
type MissingArgumentError struct {
	Owner    string
	Name     string
	Argument string
	Type     string
	Path     ast.Path
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("%s '%s' is missing required argument '%s' of type '%s'", e.Owner, e.Name, e.Argument, e.Type)
}

func (e *MissingArgumentError) GraphQLError() *gqlerror.Error {
	return newError(e, e.Path, "ProvidedRequiredArguments")
}

// ArgumentTypeError reports an argument value that does not fit the
// argument's type. When Variable is set, the value is a variable whose
// declared type cannot be used at this position.
type ArgumentTypeError struct {
	Owner        string
	Name         string
	Argument     string
	Expected     string
	Value        string
	Variable     string
	VariableType string
	Nullability  bool
	Path         ast.Path
}

func (e *ArgumentTypeError) Error() string {
	if e.Variable != "" {
		kind := "Type"
		if e.Nullability {
			kind = "Nullability"
		}
		return fmt.Sprintf("%s mismatch on variable $%s and argument %s (%s / %s)", kind, e.Variable, e.Argument, e.VariableType, e.Expected)
	}
	return fmt.Sprintf("Argument '%s' on %s '%s' has an invalid value (%s). Expected type '%s'.", e.Argument, e.Owner, e.Name, e.Value, e.Expected)
}

func (e *ArgumentTypeError) GraphQLError() *gqlerror.Error {
	if e.Variable != "" {
		return newError(e, e.Path, "VariablesInAllowedPosition")
	}
	return newError(e, e.Path, "ValuesOfCorrectType")
}

// LeafSelectionError reports a sub-selection on a scalar or enum field.
type LeafSelectionError struct {
	FieldName  string
	TypeName   string
	Enum       bool
	Selections []string
	Path       ast.Path
}

func (e *LeafSelectionError) Error() string {
	kind := "scalars"
	if e.Enum {
		kind = "enums"
	}
	return fmt.Sprintf("Selections can't be made on %s (field '%s' returns %s but has selections [%s])",
		kind, e.FieldName, e.TypeName, strings.Join(e.Selections, ", "))
}

func (e *LeafSelectionError) GraphQLError() *gqlerror.Error {
	return newError(e, e.Path, "ScalarLeafs")
}

// MissingSelectionError reports an object field without a sub-selection.
type MissingSelectionError struct {
	FieldName string
	TypeName  string
	Path      ast.Path
}

func (e *MissingSelectionError) Error() string {
	return fmt.Sprintf("Field must have selections (field '%s' returns %s but has no selections. Did you mean '%s { ... }'?)",
		e.FieldName, e.TypeName, e.FieldName)
}

func (e *MissingSelectionError) GraphQLError() *gqlerror.Error {
	return newError(e, e.Path, "ScalarLeafs")
}

// FieldConflictError reports one response name used for different fields.
type FieldConflictError struct {
	ResponseName string
	Fields       []string
	Path         ast.Path
}

func (e *FieldConflictError) Error() string {
	return fmt.Sprintf("Field '%s' has a field conflict: %s?", e.ResponseName, strings.Join(e.Fields, " or "))
}

func (e *FieldConflictError) GraphQLError() *gqlerror.Error {
	return newError(e, e.Path, "OverlappingFieldsCanBeMerged")
}

// UnknownFragmentError reports a spread of an undefined fragment.
type UnknownFragmentError struct {
	Name string
	Path ast.Path
}

func (e *UnknownFragmentError) Error() string {
	return fmt.Sprintf("Fragment %s was used, but not defined", e.Name)
}

func (e *UnknownFragmentError) GraphQLError() *gqlerror.Error {
	return newError(e, e.Path, "KnownFragmentNames")
}

// FragmentTypeError reports a type condition that names no object type, or
// a fragment spread where its type condition can never match.
type FragmentTypeError struct {
	Fragment      string // empty for inline fragments
	TypeCondition string
	ParentType    string // set when the spread cannot apply to the parent
	Reason        string
	Path          ast.Path
}

const (
	reasonUnknownType = "unknown"
	reasonNotObject   = "not-object"
	reasonMismatch    = "mismatch"
)

func (e *FragmentTypeError) Error() string {
	switch e.Reason {
	case reasonUnknownType:
		return fmt.Sprintf("No such type %s, so it can't be a fragment condition", e.TypeCondition)
	case reasonNotObject:
		return fmt.Sprintf("Invalid fragment on type %s (must be Object)", e.TypeCondition)
	}
	name := ""
	if e.Fragment != "" {
		name = " " + e.Fragment
	}
	return fmt.Sprintf("Fragment%s on %s can't be spread inside %s", name, e.TypeCondition, e.ParentType)
}

func (e *FragmentTypeError) GraphQLError() *gqlerror.Error {
	if e.Reason == reasonMismatch {
		return newError(e, e.Path, "PossibleFragmentSpreads")
	}
	return newError(e, e.Path, "FragmentsOnCompositeTypes")
}

// DuplicateFragmentError reports two fragment definitions sharing a name.
type DuplicateFragmentError struct {
	Name string
}

func (e *DuplicateFragmentError) Error() string {
	return fmt.Sprintf("Fragment name %q must be unique", e.Name)
}

func (e *DuplicateFragmentError) GraphQLError() *gqlerror.Error {
	return newError(e, nil, "UniqueFragmentNames")
}

// VariableError reports a problem with a variable definition, its usage or
// its supplied value.
type VariableError struct {
	Name    string
	Message string
	Path    ast.Path
}

func (e *VariableError) Error() string { return e.Message }

func (e *VariableError) GraphQLError() *gqlerror.Error {
	return newError(e, e.Path, "Variables")
}

// UnknownDirectiveError reports an undefined directive, or one used where it
// is not allowed when Location is set.
type UnknownDirectiveError struct {
	Name     string
	Location string
	Path     ast.Path
}

func (e *UnknownDirectiveError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("Directive @%s may not be used on %s", e.Name, e.Location)
	}
	return fmt.Sprintf("Directive @%s is not defined", e.Name)
}

func (e *UnknownDirectiveError) GraphQLError() *gqlerror.Error {
	return newError(e, e.Path, "KnownDirectives")
}

// RootTypeError reports an operation type the schema has no root for.
type RootTypeError struct {
	Operation string
}

func (e *RootTypeError) Error() string {
	return fmt.Sprintf("Schema is not configured for %ss", e.Operation)
}

func (e *RootTypeError) GraphQLError() *gqlerror.Error {
	return newError(e, nil, "KnownOperationTypes")
}
