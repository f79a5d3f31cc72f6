package schema

// NewType creates an empty named type of the given kind.
func NewType(name string, kind TypeKind, description string) *Type {
	return &Type{Name: name, Kind: kind, Description: description}
}

// NewObject creates an empty object type. Attach fields with AddField.
func NewObject(name, description string) *Type {
	return NewType(name, TypeKindObject, description)
}

// NewInputObject creates an empty input object type.
func NewInputObject(name, description string) *Type {
	return NewType(name, TypeKindInputObject, description)
}

// NewEnum creates an enum type with the given values in order.
func NewEnum(name, description string, values ...string) *Type {
	t := NewType(name, TypeKindEnum, description)
	for _, v := range values {
		t.AddEnumValue(NewEnumValue(v, ""))
	}
	return t
}

// NewScalar creates a custom scalar type.
func NewScalar(name, description string, serialize SerializeFunc, parse ParseValueFunc) *Type {
	t := NewType(name, TypeKindScalar, description)
	t.Serialize = serialize
	t.ParseValue = parse
	return t
}

// The builder methods below panic with a *FrozenRegistryError when called on
// a type taken from a finalized registry or a built Schema. Types passed to
// a Registry are copied, so changing them afterwards has no effect on it.

func (t *Type) AddField(f *Field) *Type {
	t.checkFrozen()
	t.Fields = append(t.Fields, f)
	return t
}

func (t *Type) AddEnumValue(v *EnumValue) *Type {
	t.checkFrozen()
	t.EnumValues = append(t.EnumValues, v)
	return t
}

func (t *Type) AddInputField(v *InputValue) *Type {
	t.checkFrozen()
	t.InputFields = append(t.InputFields, v)
	return t
}

func NewField(name, description string, typ *TypeRef) *Field {
	return &Field{Name: name, Description: description, Type: typ}
}

func (f *Field) SetResolver(fn ResolveFunc) *Field {
	f.checkFrozen()
	f.Resolve = fn
	return f
}

func (f *Field) AddArgument(arg *InputValue) *Field {
	f.checkFrozen()
	f.Arguments = append(f.Arguments, arg)
	return f
}

func (f *Field) Deprecate(reason string) *Field {
	f.checkFrozen()
	f.IsDeprecated = true
	f.DeprecationReason = reason
	return f
}

func NewInputValue(name, description string, typ *TypeRef) *InputValue {
	return &InputValue{Name: name, Description: description, Type: typ}
}

// SetDefault sets the default value used when the argument is omitted.
func (v *InputValue) SetDefault(value any) *InputValue {
	v.checkFrozen()
	v.DefaultValue = value
	v.HasDefault = true
	return v
}

func (v *InputValue) Deprecate(reason string) *InputValue {
	v.checkFrozen()
	v.IsDeprecated = true
	v.DeprecationReason = reason
	return v
}

func NewEnumValue(name, description string) *EnumValue {
	return &EnumValue{Name: name, Description: description}
}

func (v *EnumValue) Deprecate(reason string) *EnumValue {
	if v.frozen {
		panic(&FrozenRegistryError{Name: v.Name})
	}
	v.IsDeprecated = true
	v.DeprecationReason = reason
	return v
}

func (t *Type) checkFrozen() {
	if t.frozen {
		panic(&FrozenRegistryError{Name: t.Name})
	}
}

func (f *Field) checkFrozen() {
	if f.frozen {
		panic(&FrozenRegistryError{Name: f.Name})
	}
}

func (v *InputValue) checkFrozen() {
	if v.frozen {
		panic(&FrozenRegistryError{Name: v.Name})
	}
}

// clone copies t together with its fields, arguments, input fields and enum
// values. Type references and default values are shared; nothing mutates
// them.
func (t *Type) clone() *Type {
	c := *t
	c.Fields = cloneEach(t.Fields, func(f *Field) *Field {
		fc := *f
		fc.Arguments = cloneEach(f.Arguments, (*InputValue).clone)
		return &fc
	})
	c.InputFields = cloneEach(t.InputFields, (*InputValue).clone)
	c.EnumValues = cloneEach(t.EnumValues, func(v *EnumValue) *EnumValue {
		vc := *v
		return &vc
	})
	return &c
}

func (v *InputValue) clone() *InputValue {
	c := *v
	return &c
}

func cloneEach[T any](in []*T, clone func(*T) *T) []*T {
	if in == nil {
		return nil
	}
	out := make([]*T, len(in))
	for i, v := range in {
		if v != nil {
			out[i] = clone(v)
		}
	}
	return out
}

// freeze marks t and everything reachable from it as read-only.
func (t *Type) freeze() {
	t.frozen = true
	for _, f := range t.Fields {
		f.frozen = true
		for _, a := range f.Arguments {
			a.frozen = true
		}
	}
	for _, v := range t.InputFields {
		v.frozen = true
	}
	for _, v := range t.EnumValues {
		v.frozen = true
	}
}
