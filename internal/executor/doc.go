// Package executor runs a validated operation against a schema and produces
// an ExecutionResult.
//
// # Execution model
//
// Each field goes through PENDING, RESOLVING and then RESOLVED or FAILED.
// Sibling fields of a query resolve concurrently, each resolver in its own
// goroutine, while the response keeps the order in which fields were
// selected. The root fields of a mutation run one at a time in document
// order so that each sees the side effects of the previous one; fields
// below them are again concurrent.
//
// Fields without a resolver read the parent value: a map key, a struct
// field by json tag or name, or a method without arguments.
//
// # Errors
//
// A failing field is recorded once with its path and source location. Null
// propagates from a failed non-null position to the nearest nullable field
// or list item, and sibling branches are unaffected. When the context is
// cancelled or its deadline passes, fields that have not resolved report a
// TimeoutError and resolved data is kept. Panics in resolvers are recovered
// and reported as PanicError.
//
// Errors are sorted by the position of the selection that produced them,
// so a result does not depend on goroutine scheduling.
package executor
