package language

// ParseQuery parses an executable document. It returns either a complete
// document or a *SyntaxError / *FragmentCycleError, never both.
func ParseQuery(source string) (*QueryDocument, error) {
	doc, err := newParser(source).parseDocument()
	if err != nil {
		return nil, err
	}
	if err := checkFragmentCycles(doc); err != nil {
		return nil, err
	}
	return doc, nil
}
