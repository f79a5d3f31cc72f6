// Package engine ties the parser, validator and executor into one request
// pipeline: parse, pick the operation, validate, execute.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/vektah/gqlparser/v2/gqlerror"
	"go.uber.org/zap"

	eventbus "github.com/hanpama/graphcore/internal/eventbus"
	events "github.com/hanpama/graphcore/internal/events"
	executor "github.com/hanpama/graphcore/internal/executor"
	language "github.com/hanpama/graphcore/internal/language"
	reqid "github.com/hanpama/graphcore/internal/reqid"
	schema "github.com/hanpama/graphcore/internal/schema"
	validation "github.com/hanpama/graphcore/internal/validation"
)

// Request is a GraphQL request as it arrives on the wire.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`
}

type Engine struct {
	schema  *schema.Schema
	exec    *executor.Executor
	logger  *zap.Logger
	timeout time.Duration
}

type Option func(*Engine)

// WithLogger sets the logger for the engine and its executor.
func WithLogger(logger *zap.Logger) Option { return func(e *Engine) { e.logger = logger } }

// WithTimeout sets the deadline applied when the request context has none.
// 0 disables it.
func WithTimeout(d time.Duration) Option { return func(e *Engine) { e.timeout = d } }

// DefaultTimeout is applied to requests without a deadline unless
// WithTimeout says otherwise.
const DefaultTimeout = 10 * time.Second

func New(s *schema.Schema, opts ...Option) *Engine {
	e := &Engine{schema: s, logger: zap.NewNop(), timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(e)
	}
	e.exec = executor.NewExecutor(s, executor.WithLogger(e.logger))
	return e
}

// Schema returns the schema requests are executed against.
func (e *Engine) Schema() *schema.Schema { return e.schema }

// Execute answers one request. Syntax, operation selection and validation
// failures produce a result without data; anything later produces data
// alongside the errors.
func (e *Engine) Execute(ctx context.Context, req Request, rootValue any) *executor.ExecutionResult {
	if _, ok := ctx.Deadline(); !ok && e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	finish := events.GraphQLFinish{Query: req.Query, OperationName: req.OperationName}
	eventbus.Publish(ctx, events.GraphQLStart{Query: req.Query, OperationName: req.OperationName})

	result := e.execute(ctx, req, rootValue, &finish)

	finish.Duration = time.Since(start)
	finish.Rejected = !result.HasData
	finish.Errors = make([]error, len(result.Errors))
	for i, err := range result.Errors {
		finish.Errors[i] = err
	}
	eventbus.Publish(ctx, finish)

	fields := []zap.Field{
		zap.String("operation", req.OperationName),
		zap.String("type", finish.OperationType),
		zap.Int("errors", len(result.Errors)),
		zap.Duration("duration", finish.Duration),
	}
	if rid, ok := reqid.FromContext(ctx); ok {
		fields = append(fields, zap.String("request_id", rid))
	}
	e.logger.Debug("graphql operation finished", fields...)
	return result
}

func (e *Engine) execute(ctx context.Context, req Request, rootValue any, finish *events.GraphQLFinish) *executor.ExecutionResult {
	doc, err := language.ParseQuery(req.Query)
	if err != nil {
		e.logger.Debug("graphql syntax error", zap.Error(err))
		return executor.ErrorResult(toGraphQLError(err))
	}

	op := executor.GetOperation(doc, req.OperationName)
	if op == nil {
		err := &executor.OperationError{Name: req.OperationName}
		return executor.ErrorResult(toGraphQLError(err))
	}
	finish.OperationType = string(op.Operation)

	if errs := validation.Validate(e.schema, doc, op, req.Variables); len(errs) > 0 {
		e.logger.Debug("graphql validation failed", zap.Int("errors", len(errs)), zap.Error(errs[0]))
		out := make([]*gqlerror.Error, len(errs))
		for i, err := range errs {
			out[i] = toGraphQLError(err)
		}
		return executor.ErrorResult(out...)
	}

	return e.exec.Execute(ctx, executor.Params{
		Document:  doc,
		Operation: op,
		Variables: req.Variables,
		RootValue: rootValue,
	})
}

type graphQLError interface {
	GraphQLError() *gqlerror.Error
}

func toGraphQLError(err error) *gqlerror.Error {
	var ge graphQLError
	if errors.As(err, &ge) {
		return ge.GraphQLError()
	}
	return &gqlerror.Error{Err: err, Message: err.Error()}
}
