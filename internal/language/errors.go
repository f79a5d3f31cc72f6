package language

import (
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/gqlerror"
)

// SyntaxError reports malformed query text.
type SyntaxError struct {
	Line    int
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("Syntax Error: %s (%d:%d)", e.Message, e.Line, e.Column)
}

func (e *SyntaxError) GraphQLError() *gqlerror.Error {
	return &gqlerror.Error{
		Err:       e,
		Message:   "Syntax Error: " + e.Message,
		Locations: []gqlerror.Location{{Line: e.Line, Column: e.Column}},
	}
}

// FragmentCycleError reports a fragment that spreads itself, directly or
// through other fragments.
type FragmentCycleError struct {
	Fragment  string
	Via       []string
	Locations []Position
}

func (e *FragmentCycleError) Error() string {
	via := ""
	if len(e.Via) > 0 {
		via = " via " + strings.Join(e.Via, ", ")
	}
	return fmt.Sprintf("Cannot spread fragment %q within itself%s.", e.Fragment, via)
}

func (e *FragmentCycleError) GraphQLError() *gqlerror.Error {
	locs := make([]gqlerror.Location, len(e.Locations))
	for i, p := range e.Locations {
		locs[i] = gqlerror.Location{Line: p.Line, Column: p.Column}
	}
	return &gqlerror.Error{Err: e, Message: e.Error(), Locations: locs, Rule: "NoFragmentCycles"}
}
