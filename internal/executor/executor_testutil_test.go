package executor

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	language "github.com/hanpama/graphcore/internal/language"
	schema "github.com/hanpama/graphcore/internal/schema"
)

// mustParseQuery parses a GraphQL query and fails the test on error.
func mustParseQuery(t *testing.T, q string) *language.QueryDocument {
	t.Helper()
	d, err := language.ParseQuery(q)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return d
}

// mustBuild registers types and builds a schema rooted at Query, and at
// Mutation when one is given.
func mustBuild(t *testing.T, types ...*schema.Type) *schema.Schema {
	t.Helper()
	reg := schema.NewRegistry()
	mutation := ""
	for _, typ := range types {
		require.NoError(t, reg.Register(typ))
		if typ.Name == "Mutation" {
			mutation = "Mutation"
		}
	}
	s, err := schema.Build(reg, "Query", mutation)
	require.NoError(t, err)
	return s
}

func execute(t *testing.T, s *schema.Schema, query string, vars map[string]any) *ExecutionResult {
	t.Helper()
	return NewExecutor(s).Execute(context.Background(), Params{
		Document:  mustParseQuery(t, query),
		Variables: vars,
	})
}

// toJSON marshals a result so tests can compare the wire shape.
func toJSON(t *testing.T, res *ExecutionResult) string {
	t.Helper()
	b, err := json.Marshal(res)
	require.NoError(t, err)
	return string(b)
}

// call is one resolver invocation seen by a recorder.
type call struct {
	Field string
	Args  map[string]any
}

// recorder records resolver calls in the order they start.
type recorder struct {
	mu    sync.Mutex
	calls []call
}

func (r *recorder) record(field string, args map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{Field: field, Args: args})
}

func (r *recorder) Calls() []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]call, len(r.calls))
	copy(out, r.calls)
	return out
}

// value returns a resolver that yields v.
func value(v any) schema.ResolveFunc {
	return func(context.Context, any, map[string]any) (any, error) { return v, nil }
}

// failing returns a resolver that yields err.
func failing(err error) schema.ResolveFunc {
	return func(context.Context, any, map[string]any) (any, error) { return nil, err }
}

func field(name string, typ *schema.TypeRef, resolve schema.ResolveFunc) *schema.Field {
	return schema.NewField(name, "", typ).SetResolver(resolve)
}

var (
	stringRef = schema.NamedType("String")
	intRef    = schema.NamedType("Int")
	idRef     = schema.NamedType("ID")
)

func nonNull(t *schema.TypeRef) *schema.TypeRef { return schema.NonNullType(t) }

func listOf(t *schema.TypeRef) *schema.TypeRef { return schema.ListType(t) }

func mustMarshal(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
