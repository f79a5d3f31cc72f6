package executor

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Object is a response object whose keys keep selection order.
type Object []Entry

// Entry is one key of an Object.
type Entry struct {
	Key   string
	Value any
}

// Get returns the value stored under key.
func (o Object) Get(key string) (any, bool) {
	for _, e := range o {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Map converts the object, and nested objects and lists, into plain maps.
func (o Object) Map() map[string]any {
	if o == nil {
		return nil
	}
	m := make(map[string]any, len(o))
	for _, e := range o {
		m[e.Key] = plain(e.Value)
	}
	return m
}

func plain(v any) any {
	switch v := v.(type) {
	case Object:
		return v.Map()
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = plain(item)
		}
		return out
	}
	return v
}

func (o Object) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ExecutionResult is the outcome of one operation. HasData is false when
// execution never started (the request failed before any field ran); Data
// is nil with HasData set when a non-null root field failed.
type ExecutionResult struct {
	Data    Object
	Errors  gqlerror.List
	HasData bool
}

func (r *ExecutionResult) MarshalJSON() ([]byte, error) {
	var out struct {
		Data   *json.RawMessage `json:"data,omitempty"`
		Errors gqlerror.List    `json:"errors,omitempty"`
	}
	if r.HasData {
		data, err := json.Marshal(r.Data)
		if err != nil {
			return nil, err
		}
		raw := json.RawMessage(data)
		out.Data = &raw
	}
	out.Errors = r.Errors
	return json.Marshal(out)
}

// ErrorResult builds a result that carries only errors.
func ErrorResult(errs ...*gqlerror.Error) *ExecutionResult {
	return &ExecutionResult{Errors: errs}
}

// TimeoutError is reported for a field whose resolver had not finished when
// the context was cancelled or its deadline passed.
type TimeoutError struct {
	Path  ast.Path
	Cause error
}

func (e *TimeoutError) Error() string { return e.Cause.Error() }

func (e *TimeoutError) Unwrap() error { return e.Cause }

// PanicError wraps a value recovered from a panicking resolver.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic occurred: %v", e.Value)
}

// OperationError reports that no operation could be selected.
type OperationError struct {
	Name string
}

func (e *OperationError) Error() string {
	if e.Name == "" {
		return "Must provide operation name if query contains multiple operations."
	}
	return fmt.Sprintf("Unknown operation named %q.", e.Name)
}

// VariableValueError reports a supplied variable value that cannot be used.
type VariableValueError struct {
	Name    string
	Message string
}

func (e *VariableValueError) Error() string { return e.Message }
