package executor

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	language "github.com/hanpama/graphcore/internal/language"
	schema "github.com/hanpama/graphcore/internal/schema"
)

// executionState holds the state during one operation's execution. Fields
// are resolved concurrently; only errors are shared and guarded by mu.
type executionState struct {
	schema         *schema.Schema
	document       *language.QueryDocument
	variableValues map[string]any
	logger         *zap.Logger

	mu     sync.Mutex
	errors []fieldError
}

// fieldError is an error with the request-order position of the selection
// that produced it, used to sort errors deterministically.
type fieldError struct {
	order []int
	err   *gqlerror.Error
}

// fieldInfo names the field being completed, for error messages.
type fieldInfo struct {
	parentType string
	fieldName  string
	fields     []*language.Field
}

type Executor struct {
	schema *schema.Schema
	logger *zap.Logger
}

type Option func(*Executor)

// WithLogger sets the logger used for resolver panics.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Executor) { e.logger = logger }
}

func NewExecutor(schema *schema.Schema, opts ...Option) *Executor {
	e := &Executor{schema: schema, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Params describes one execution.
type Params struct {
	Document *language.QueryDocument
	// Operation to run; when nil it is selected by OperationName.
	Operation     *language.OperationDefinition
	OperationName string
	// Variables are the raw supplied values; they are coerced here.
	Variables map[string]any
	RootValue any
}

// Execute runs an operation that has already been validated. Resolver
// failures become errors in the result next to the data that could be
// produced. A cancelled or expired ctx stops waiting for resolvers that have
// not finished.
func (e *Executor) Execute(ctx context.Context, p Params) *ExecutionResult {
	operation := p.Operation
	if operation == nil {
		operation = GetOperation(p.Document, p.OperationName)
		if operation == nil {
			err := &OperationError{Name: p.OperationName}
			return ErrorResult(&gqlerror.Error{Err: err, Message: err.Error()})
		}
	}

	variableValues, err := CoerceVariableValues(e.schema, operation, p.Variables)
	if err != nil {
		return ErrorResult(&gqlerror.Error{Err: err, Message: err.Error()})
	}

	var rootType *schema.Type
	switch operation.Operation {
	case language.Query:
		rootType = e.schema.QueryRoot()
	case language.Mutation:
		rootType = e.schema.MutationRoot()
	}
	if rootType == nil {
		msg := fmt.Sprintf("Schema is not configured for %ss", operation.Operation)
		return ErrorResult(&gqlerror.Error{Message: msg})
	}

	state := &executionState{
		schema:         e.schema,
		document:       p.Document,
		variableValues: variableValues,
		logger:         e.logger,
	}

	// Mutation root fields run one after another, in document order.
	serial := operation.Operation == language.Mutation
	data, bubbled := state.executeSelectionSet(ctx, rootType, operation.SelectionSet, p.RootValue, nil, nil, serial)
	if bubbled {
		data = nil
	}
	return &ExecutionResult{Data: data, Errors: state.sortedErrors(), HasData: true}
}

// executeSelectionSet resolves every collected field of objectType against
// objectValue. bubbled reports that a non-null field failed, so the whole
// object must be null.
func (state *executionState) executeSelectionSet(
	ctx context.Context,
	objectType *schema.Type,
	selectionSet language.SelectionSet,
	objectValue any,
	path ast.Path,
	order []int,
	serial bool,
) (Object, bool) {
	groupedFields := collectFields(state, objectType, selectionSet).orderedFields()
	result := make(Object, len(groupedFields))
	failed := make([]bool, len(groupedFields))

	run := func(i int) {
		cf := groupedFields[i]
		result[i].Key = cf.ResponseName
		result[i].Value, failed[i] = state.executeField(ctx, objectType, objectValue, cf,
			appendPath(path, ast.PathName(cf.ResponseName)), appendOrder(order, i))
	}

	if serial || len(groupedFields) == 1 {
		for i := range groupedFields {
			run(i)
		}
	} else {
		var g errgroup.Group
		for i := range groupedFields {
			g.Go(func() error {
				run(i)
				return nil
			})
		}
		_ = g.Wait()
	}

	if slices.Contains(failed, true) {
		return nil, true
	}
	return result, false
}

// executeField resolves and completes one response key. It reports true when
// the field is non-null and could not produce a value.
func (state *executionState) executeField(
	ctx context.Context,
	objectType *schema.Type,
	objectValue any,
	cf collectedField,
	path ast.Path,
	order []int,
) (any, bool) {
	field := cf.Fields[0]
	if field.Name == "__typename" {
		return objectType.Name, false
	}

	fieldDef := objectType.Field(field.Name)
	if fieldDef == nil {
		state.addError(fmt.Sprintf("Cannot query field '%s' on type '%s'", field.Name, objectType.Name), path, order, cf.Fields)
		return nil, false
	}
	info := fieldInfo{parentType: objectType.Name, fieldName: fieldDef.Name, fields: cf.Fields}

	args, err := coerceArgumentValues(state.schema, fieldDef, field.Arguments, state.variableValues)
	if err != nil {
		state.addFieldError(err, path, order, cf.Fields)
		return nil, fieldDef.Type.IsNonNull()
	}

	resolved, err := state.resolveField(ctx, fieldDef, objectValue, args, path)
	if err != nil {
		state.addFieldError(err, path, order, cf.Fields)
		return nil, fieldDef.Type.IsNonNull()
	}

	completed, errored := state.completeValue(ctx, fieldDef.Type, info, resolved, path, order)
	return completed, errored && fieldDef.Type.IsNonNull()
}

type resolveOutcome struct {
	value any
	err   error
}

// resolveField runs the field's resolver in its own goroutine and waits for
// it or for ctx. Fields without a resolver read the parent value directly.
func (state *executionState) resolveField(ctx context.Context, fieldDef *schema.Field, source any, args map[string]any, path ast.Path) (any, error) {
	if fieldDef.Resolve == nil {
		return defaultResolve(source, fieldDef.Name)
	}
	if err := ctx.Err(); err != nil {
		return nil, &TimeoutError{Path: path, Cause: err}
	}

	done := make(chan resolveOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				state.logger.Error("resolver panic",
					zap.String("path", path.String()),
					zap.Any("panic", r),
					zap.Stack("stack"),
				)
				done <- resolveOutcome{err: &PanicError{Value: r}}
			}
		}()
		value, err := fieldDef.Resolve(ctx, source, args)
		done <- resolveOutcome{value: value, err: err}
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-ctx.Done():
		return nil, &TimeoutError{Path: path, Cause: ctx.Err()}
	}
}

// completeValue shapes a resolved value according to its type. errored
// reports that the position is null because an error was recorded at or
// below it.
func (state *executionState) completeValue(
	ctx context.Context,
	fieldType *schema.TypeRef,
	info fieldInfo,
	result any,
	path ast.Path,
	order []int,
) (any, bool) {
	if fieldType.IsNonNull() {
		completed, errored := state.completeValue(ctx, fieldType.OfType, info, result, path, order)
		if errored {
			return nil, true
		}
		if completed == nil {
			msg := fmt.Sprintf("Cannot return null for non-nullable field %s.%s.", info.parentType, info.fieldName)
			state.addError(msg, path, order, info.fields)
			return nil, true
		}
		return completed, false
	}

	if isNullish(result) {
		return nil, false
	}

	if fieldType.Kind == schema.TypeRefKindList {
		return state.completeListValue(ctx, fieldType, info, result, path, order)
	}

	namedType := fieldType.GetNamedType()
	typeObj, ok := state.schema.LookupType(namedType)
	if !ok {
		state.addError(fmt.Sprintf("Unknown type: %s", namedType), path, order, info.fields)
		return nil, true
	}

	switch typeObj.Kind {
	case schema.TypeKindScalar:
		serialized, err := typeObj.Serialize(result)
		if err != nil {
			state.addFieldError(err, path, order, info.fields)
			return nil, true
		}
		return serialized, false
	case schema.TypeKindEnum:
		name, ok := enumName(result)
		if !ok || !typeObj.HasEnumValue(name) {
			state.addError(fmt.Sprintf("Enum %s cannot represent value: %v", typeObj.Name, result), path, order, info.fields)
			return nil, true
		}
		return name, false
	case schema.TypeKindObject:
		sub := mergeSelectionSets(info.fields)
		obj, bubbled := state.executeSelectionSet(ctx, typeObj, sub, result, path, order, false)
		if bubbled {
			return nil, true
		}
		return obj, false
	default:
		state.addError(fmt.Sprintf("Cannot complete value of unexpected type: %s", typeObj.Kind), path, order, info.fields)
		return nil, true
	}
}

// completeListValue completes each item independently. Items of object type
// run concurrently. A failed non-null item makes the whole list null.
func (state *executionState) completeListValue(
	ctx context.Context,
	listType *schema.TypeRef,
	info fieldInfo,
	result any,
	path ast.Path,
	order []int,
) (any, bool) {
	var items []any
	if direct, ok := result.([]any); ok {
		items = direct
	} else {
		rv := reflect.ValueOf(result)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			state.addError(fmt.Sprintf("Expected list value for field %s.%s, got %T", info.parentType, info.fieldName, result), path, order, info.fields)
			return nil, true
		}
		items = make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items[i] = rv.Index(i).Interface()
		}
	}

	itemType := listType.OfType
	completed := make([]any, len(items))
	failed := make([]bool, len(items))
	complete := func(i int) {
		v, errored := state.completeValue(ctx, itemType, info, items[i], appendPath(path, ast.PathIndex(i)), appendOrder(order, i))
		completed[i] = v
		failed[i] = errored && itemType.IsNonNull()
	}

	itemNamed, _ := state.schema.LookupType(itemType.GetNamedType())
	if itemNamed != nil && itemNamed.Kind == schema.TypeKindObject && len(items) > 1 {
		var g errgroup.Group
		for i := range items {
			g.Go(func() error {
				complete(i)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range items {
			complete(i)
		}
	}

	if slices.Contains(failed, true) {
		return nil, true
	}
	return completed, false
}

func enumName(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case fmt.Stringer:
		return v.String(), true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}

func (state *executionState) addError(message string, path ast.Path, order []int, fields []*language.Field) {
	state.record(&gqlerror.Error{Message: message, Path: path, Locations: locations(fields)}, order)
}

func (state *executionState) addFieldError(err error, path ast.Path, order []int, fields []*language.Field) {
	state.record(&gqlerror.Error{Err: err, Message: err.Error(), Path: path, Locations: locations(fields)}, order)
}

func (state *executionState) record(err *gqlerror.Error, order []int) {
	state.mu.Lock()
	state.errors = append(state.errors, fieldError{order: order, err: err})
	state.mu.Unlock()
}

// sortedErrors returns errors in request order: selection order first, then
// list index.
func (state *executionState) sortedErrors() gqlerror.List {
	state.mu.Lock()
	defer state.mu.Unlock()
	slices.SortStableFunc(state.errors, func(a, b fieldError) int {
		return slices.Compare(a.order, b.order)
	})
	if len(state.errors) == 0 {
		return nil
	}
	out := make(gqlerror.List, len(state.errors))
	for i, fe := range state.errors {
		out[i] = fe.err
	}
	return out
}

func locations(fields []*language.Field) []gqlerror.Location {
	if len(fields) == 0 {
		return nil
	}
	p := fields[0].Position
	return []gqlerror.Location{{Line: p.Line, Column: p.Column}}
}

func appendPath(path ast.Path, elem ast.PathElement) ast.Path {
	newPath := make(ast.Path, len(path), len(path)+1)
	copy(newPath, path)
	return append(newPath, elem)
}

func appendOrder(order []int, i int) []int {
	newOrder := make([]int, len(order), len(order)+1)
	copy(newOrder, order)
	return append(newOrder, i)
}

// GetOperation selects the operation named operationName, or the only
// operation when the name is empty. It returns nil when there is no match.
func GetOperation(document *language.QueryDocument, operationName string) *language.OperationDefinition {
	if document == nil {
		return nil
	}
	if operationName == "" {
		if len(document.Operations) == 1 {
			return document.Operations[0]
		}
		return nil
	}
	return document.Operations.ForName(operationName)
}

// isNullish returns true for nil interfaces and typed nils (map, slice, ptr, interface)
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
