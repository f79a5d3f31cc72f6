package language

import (
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/lexer"
)

var tokenNames = map[lexer.Type]string{
	lexer.EOF:         "<EOF>",
	lexer.Bang:        "!",
	lexer.Dollar:      "$",
	lexer.Amp:         "&",
	lexer.ParenL:      "(",
	lexer.ParenR:      ")",
	lexer.Spread:      "...",
	lexer.Colon:       ":",
	lexer.Equals:      "=",
	lexer.At:          "@",
	lexer.BracketL:    "[",
	lexer.BracketR:    "]",
	lexer.BraceL:      "{",
	lexer.BraceR:      "}",
	lexer.Pipe:        "|",
	lexer.Name:        "Name",
	lexer.Int:         "Int",
	lexer.Float:       "Float",
	lexer.String:      "String",
	lexer.BlockString: "BlockString",
}

func kindName(k lexer.Type) string {
	if n, ok := tokenNames[k]; ok {
		return n
	}
	return "<invalid>"
}

func describe(tok lexer.Token) string {
	switch tok.Kind {
	case lexer.Name, lexer.Int, lexer.Float, lexer.String, lexer.BlockString:
		return fmt.Sprintf("%s %q", kindName(tok.Kind), tok.Value)
	}
	return kindName(tok.Kind)
}

// parser is a recursive-descent parser over gqlparser's lexer. Errors are
// raised by panicking with *SyntaxError and recovered in parseDocument.
type parser struct {
	lexer  lexer.Lexer
	peeked bool
	tok    lexer.Token
}

func newParser(source string) *parser {
	return &parser{lexer: lexer.New(&ast.Source{Input: source})}
}

func pos(tok lexer.Token) Position {
	return Position{Line: tok.Pos.Line, Column: tok.Pos.Column}
}

func (p *parser) fail(at Position, format string, args ...any) {
	panic(&SyntaxError{Line: at.Line, Column: at.Column, Message: fmt.Sprintf(format, args...)})
}

func (p *parser) read() lexer.Token {
	for {
		tok, err := p.lexer.ReadToken()
		if err != nil {
			var gqlErr *gqlerror.Error
			if errors.As(err, &gqlErr) && len(gqlErr.Locations) > 0 {
				p.fail(Position{Line: gqlErr.Locations[0].Line, Column: gqlErr.Locations[0].Column}, "%s", gqlErr.Message)
			}
			p.fail(pos(tok), "%s", err.Error())
		}
		if tok.Kind == lexer.Comment {
			continue
		}
		return tok
	}
}

func (p *parser) peek() lexer.Token {
	if !p.peeked {
		p.tok = p.read()
		p.peeked = true
	}
	return p.tok
}

func (p *parser) next() lexer.Token {
	tok := p.peek()
	p.peeked = false
	return tok
}

func (p *parser) unexpected(tok lexer.Token) {
	p.fail(pos(tok), "Unexpected %s.", describe(tok))
}

func (p *parser) expect(kind lexer.Type) lexer.Token {
	tok := p.next()
	if tok.Kind != kind {
		p.fail(pos(tok), "Expected %s, found %s.", kindName(kind), describe(tok))
	}
	return tok
}

func (p *parser) expectKeyword(word string) lexer.Token {
	tok := p.next()
	if tok.Kind != lexer.Name || tok.Value != word {
		p.fail(pos(tok), "Expected %q, found %s.", word, describe(tok))
	}
	return tok
}

func (p *parser) skip(kind lexer.Type) bool {
	if p.peek().Kind == kind {
		p.next()
		return true
	}
	return false
}

func (p *parser) parseDocument() (doc *QueryDocument, err error) {
	defer func() {
		if r := recover(); r != nil {
			se, ok := r.(*SyntaxError)
			if !ok {
				panic(r)
			}
			doc, err = nil, se
		}
	}()

	doc = &QueryDocument{}
	if p.peek().Kind == lexer.EOF {
		p.unexpected(p.peek())
	}
	for p.peek().Kind != lexer.EOF {
		tok := p.peek()
		switch {
		case tok.Kind == lexer.BraceL:
			doc.Operations = append(doc.Operations, &OperationDefinition{
				Operation:    Query,
				SelectionSet: p.parseSelectionSet(),
				Position:     pos(tok),
			})
		case tok.Kind == lexer.Name && tok.Value == "query":
			doc.Operations = append(doc.Operations, p.parseOperationDefinition(Query))
		case tok.Kind == lexer.Name && tok.Value == "mutation":
			doc.Operations = append(doc.Operations, p.parseOperationDefinition(Mutation))
		case tok.Kind == lexer.Name && tok.Value == "fragment":
			doc.Fragments = append(doc.Fragments, p.parseFragmentDefinition())
		case tok.Kind == lexer.Name && tok.Value == "subscription":
			p.fail(pos(tok), "subscription operations are not supported.")
		default:
			p.unexpected(tok)
		}
	}
	return doc, nil
}

func (p *parser) parseOperationDefinition(op Operation) *OperationDefinition {
	start := p.next()
	def := &OperationDefinition{Operation: op, Position: pos(start)}
	if p.peek().Kind == lexer.Name {
		def.Name = p.next().Value
	}
	def.VariableDefinitions = p.parseVariableDefinitions()
	def.Directives = p.parseDirectives(false)
	def.SelectionSet = p.parseSelectionSet()
	return def
}

func (p *parser) parseVariableDefinitions() VariableDefinitionList {
	var defs VariableDefinitionList
	if !p.skip(lexer.ParenL) {
		return defs
	}
	for {
		start := p.expect(lexer.Dollar)
		def := &VariableDefinition{
			Variable: p.expect(lexer.Name).Value,
			Position: pos(start),
		}
		p.expect(lexer.Colon)
		def.Type = p.parseType()
		if p.skip(lexer.Equals) {
			def.DefaultValue = p.parseValue(true)
		}
		// directives on variable definitions are accepted and ignored
		p.parseDirectives(true)
		defs = append(defs, def)
		if p.skip(lexer.ParenR) {
			return defs
		}
	}
}

func (p *parser) parseType() *Type {
	tok := p.peek()
	var t *Type
	if p.skip(lexer.BracketL) {
		t = &Type{Elem: p.parseType(), Position: pos(tok)}
		p.expect(lexer.BracketR)
	} else {
		t = &Type{NamedType: p.expect(lexer.Name).Value, Position: pos(tok)}
	}
	if p.skip(lexer.Bang) {
		t.NonNull = true
	}
	return t
}

func (p *parser) parseSelectionSet() SelectionSet {
	p.expect(lexer.BraceL)
	var set SelectionSet
	for {
		set = append(set, p.parseSelection())
		if p.skip(lexer.BraceR) {
			return set
		}
	}
}

func (p *parser) parseSelection() Selection {
	if p.peek().Kind == lexer.Spread {
		return p.parseFragment()
	}
	return p.parseField()
}

func (p *parser) parseField() *Field {
	start := p.expect(lexer.Name)
	f := &Field{Name: start.Value, Position: pos(start)}
	if p.skip(lexer.Colon) {
		f.Alias = f.Name
		f.Name = p.expect(lexer.Name).Value
	}
	f.Arguments = p.parseArguments(false)
	f.Directives = p.parseDirectives(false)
	if p.peek().Kind == lexer.BraceL {
		f.SelectionSet = p.parseSelectionSet()
	}
	return f
}

func (p *parser) parseFragment() Selection {
	start := p.expect(lexer.Spread)
	if tok := p.peek(); tok.Kind == lexer.Name && tok.Value != "on" {
		p.next()
		return &FragmentSpread{
			Name:       tok.Value,
			Directives: p.parseDirectives(false),
			Position:   pos(start),
		}
	}
	frag := &InlineFragment{Position: pos(start)}
	if tok := p.peek(); tok.Kind == lexer.Name && tok.Value == "on" {
		p.next()
		frag.TypeCondition = p.expect(lexer.Name).Value
	}
	frag.Directives = p.parseDirectives(false)
	frag.SelectionSet = p.parseSelectionSet()
	return frag
}

func (p *parser) parseFragmentDefinition() *FragmentDefinition {
	start := p.expectKeyword("fragment")
	nameTok := p.expect(lexer.Name)
	if nameTok.Value == "on" {
		p.unexpected(nameTok)
	}
	p.expectKeyword("on")
	return &FragmentDefinition{
		Name:          nameTok.Value,
		TypeCondition: p.expect(lexer.Name).Value,
		Directives:    p.parseDirectives(false),
		SelectionSet:  p.parseSelectionSet(),
		Position:      pos(start),
	}
}

func (p *parser) parseArguments(isConst bool) ArgumentList {
	var args ArgumentList
	if !p.skip(lexer.ParenL) {
		return args
	}
	for {
		name := p.expect(lexer.Name)
		p.expect(lexer.Colon)
		args = append(args, &Argument{
			Name:     name.Value,
			Value:    p.parseValue(isConst),
			Position: pos(name),
		})
		if p.skip(lexer.ParenR) {
			return args
		}
	}
}

func (p *parser) parseDirectives(isConst bool) DirectiveList {
	var dirs DirectiveList
	for p.peek().Kind == lexer.At {
		start := p.next()
		dirs = append(dirs, &Directive{
			Name:      p.expect(lexer.Name).Value,
			Arguments: p.parseArguments(isConst),
			Position:  pos(start),
		})
	}
	return dirs
}

func (p *parser) parseValue(isConst bool) *Value {
	tok := p.peek()
	switch tok.Kind {
	case lexer.Dollar:
		if isConst {
			p.unexpected(tok)
		}
		p.next()
		return &Value{Kind: Variable, Raw: p.expect(lexer.Name).Value, Position: pos(tok)}
	case lexer.BracketL:
		p.next()
		v := &Value{Kind: ListValue, Position: pos(tok)}
		for !p.skip(lexer.BracketR) {
			item := p.parseValue(isConst)
			v.Children = append(v.Children, &ChildValue{Value: item, Position: item.Position})
		}
		return v
	case lexer.BraceL:
		p.next()
		v := &Value{Kind: ObjectValue, Position: pos(tok)}
		for !p.skip(lexer.BraceR) {
			name := p.expect(lexer.Name)
			p.expect(lexer.Colon)
			v.Children = append(v.Children, &ChildValue{
				Name:     name.Value,
				Value:    p.parseValue(isConst),
				Position: pos(name),
			})
		}
		return v
	case lexer.Int:
		p.next()
		return &Value{Kind: IntValue, Raw: tok.Value, Position: pos(tok)}
	case lexer.Float:
		p.next()
		return &Value{Kind: FloatValue, Raw: tok.Value, Position: pos(tok)}
	case lexer.String:
		p.next()
		return &Value{Kind: StringValue, Raw: tok.Value, Position: pos(tok)}
	case lexer.BlockString:
		p.next()
		return &Value{Kind: BlockValue, Raw: tok.Value, Position: pos(tok)}
	case lexer.Name:
		p.next()
		switch tok.Value {
		case "true", "false":
			return &Value{Kind: BooleanValue, Raw: tok.Value, Position: pos(tok)}
		case "null":
			return &Value{Kind: NullValue, Raw: tok.Value, Position: pos(tok)}
		}
		return &Value{Kind: EnumValue, Raw: tok.Value, Position: pos(tok)}
	}
	p.unexpected(tok)
	return nil
}

// checkFragmentCycles rejects documents in which a fragment spreads itself.
func checkFragmentCycles(doc *QueryDocument) error {
	visited := make(map[string]bool)
	for _, frag := range doc.Fragments {
		if visited[frag.Name] {
			continue
		}
		stack := map[string]int{frag.Name: 0}
		var path []*FragmentSpread
		if err := walkSpreads(doc, frag.SelectionSet, visited, stack, path); err != nil {
			return err
		}
		visited[frag.Name] = true
	}
	return nil
}

func walkSpreads(doc *QueryDocument, set SelectionSet, visited map[string]bool, stack map[string]int, path []*FragmentSpread) error {
	for _, sel := range set {
		switch sel := sel.(type) {
		case *Field:
			if err := walkSpreads(doc, sel.SelectionSet, visited, stack, path); err != nil {
				return err
			}
		case *InlineFragment:
			if err := walkSpreads(doc, sel.SelectionSet, visited, stack, path); err != nil {
				return err
			}
		case *FragmentSpread:
			frag := doc.Fragments.ForName(sel.Name)
			if frag == nil {
				continue
			}
			path := append(path, sel)
			if i, ok := stack[sel.Name]; ok {
				cycle := path[i:]
				err := &FragmentCycleError{Fragment: sel.Name}
				for _, s := range cycle[:len(cycle)-1] {
					err.Via = append(err.Via, s.Name)
				}
				for _, s := range cycle {
					err.Locations = append(err.Locations, s.Position)
				}
				return err
			}
			if visited[sel.Name] {
				continue
			}
			stack[sel.Name] = len(path)
			if err := walkSpreads(doc, frag.SelectionSet, visited, stack, path); err != nil {
				return err
			}
			delete(stack, sel.Name)
			visited[sel.Name] = true
		}
	}
	return nil
}
