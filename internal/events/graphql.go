package events

import "time"

// GraphQLStart is emitted when a GraphQL request enters the engine, before
// the document is parsed.
type GraphQLStart struct {
	Query         string
	OperationName string
}

// GraphQLFinish is emitted after a GraphQL request has been answered.
// OperationType is empty when no operation could be selected. Rejected is
// set when the request failed before execution (syntax, operation
// selection or validation), i.e. the response has no data.
type GraphQLFinish struct {
	Query         string
	OperationName string
	OperationType string
	Errors        []error
	Rejected      bool
	Duration      time.Duration
}
