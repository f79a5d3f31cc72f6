package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_BuiltinScalars(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"String", "Int", "Float", "Boolean", "ID"} {
		typ, ok := reg.Lookup(name)
		require.True(t, ok, name)
		require.Equal(t, TypeKindScalar, typ.Kind)
	}
}

func TestRegistry_DuplicateType(t *testing.T) {
	reg := NewRegistry()
	err := reg.RegisterScalar("Int", coerceInt, coerceInt)
	var dup *DuplicateTypeError
	require.True(t, errors.As(err, &dup))
	require.Equal(t, "Int", dup.Name)

	obj := func() *Type {
		return NewObject("Post", "").AddField(NewField("id", "", NamedType("ID")))
	}
	require.NoError(t, reg.RegisterObjectType(obj()))
	require.ErrorAs(t, reg.RegisterObjectType(obj()), &dup)
	require.ErrorAs(t, reg.RegisterEnum(NewEnum("Post", "", "A")), &dup)
}

func TestRegistry_ForwardReferences(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Declare("User"))
	require.NoError(t, reg.RegisterObjectType(NewObject("Post", "").
		AddField(NewField("author", "", NamedType("User")))))
	require.NoError(t, reg.RegisterObjectType(NewObject("User", "").
		AddField(NewField("posts", "", ListType(NamedType("Post"))))))
	require.NoError(t, reg.Finalize())
	require.True(t, reg.Finalized())
	require.NoError(t, reg.Finalize())
}

func TestRegistry_UnknownType(t *testing.T) {
	t.Run("field reference", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.RegisterObjectType(NewObject("Post", "").
			AddField(NewField("author", "", NonNullType(NamedType("User"))))))
		err := reg.Finalize()
		var unknown *UnknownTypeError
		require.True(t, errors.As(err, &unknown))
		require.Equal(t, "User", unknown.Name)
		require.Equal(t, "Post.author", unknown.Referrer)
		require.False(t, reg.Finalized())
	})

	t.Run("argument reference", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.RegisterObjectType(NewObject("Query", "").
			AddField(NewField("posts", "", NamedType("String")).
				AddArgument(NewInputValue("filter", "", NamedType("Filter"))))))
		var unknown *UnknownTypeError
		require.ErrorAs(t, reg.Finalize(), &unknown)
		require.Equal(t, "Query.posts(filter)", unknown.Referrer)
	})

	t.Run("declared but never registered", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Declare("Ghost"))
		var unknown *UnknownTypeError
		require.ErrorAs(t, reg.Finalize(), &unknown)
		require.Equal(t, "Ghost", unknown.Name)
		require.Equal(t, `type "Ghost" was declared but never registered`, unknown.Error())
	})
}

func TestRegistry_Frozen(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Finalize())

	var frozen *FrozenRegistryError
	require.ErrorAs(t, reg.RegisterScalar("Date", serializeString, parseString), &frozen)
	require.Equal(t, "Date", frozen.Name)
	require.ErrorAs(t, reg.RegisterObjectType(NewObject("Post", "").
		AddField(NewField("id", "", NamedType("ID")))), &frozen)
	require.ErrorAs(t, reg.RegisterEnum(NewEnum("Color", "", "RED")), &frozen)
	require.ErrorAs(t, reg.RegisterInputObject(NewInputObject("In", "").
		AddInputField(NewInputValue("a", "", NamedType("Int")))), &frozen)
	require.ErrorAs(t, reg.Declare("Later"), &frozen)
}

func TestRegistry_TypesImmutableAfterBuild(t *testing.T) {
	reg := NewRegistry()
	q := NewObject("Query", "").
		AddField(NewField("hello", "", NamedType("String")).SetResolver(noopResolver))
	require.NoError(t, reg.RegisterObjectType(q))
	s, err := Build(reg, "Query", "")
	require.NoError(t, err)

	// The caller's copy stays editable but no longer feeds the schema.
	q.AddField(NewField("ghost", "", NamedType("Nope")))
	q.AddField(NewField("ghost", "", NamedType("Nope")))
	require.Len(t, s.QueryRoot().Fields, 1)
	registered, _ := reg.Lookup("Query")
	require.Len(t, registered.Fields, 1)

	frozenPanic := func(name string, fn func()) {
		t.Helper()
		defer func() {
			err, _ := recover().(error)
			var frozen *FrozenRegistryError
			require.ErrorAs(t, err, &frozen)
			require.Equal(t, name, frozen.Name)
		}()
		fn()
	}
	root := s.QueryRoot()
	frozenPanic("Query", func() { root.AddField(NewField("ghost", "", NamedType("String"))) })
	frozenPanic("hello", func() { root.Field("hello").SetResolver(noopResolver) })
	frozenPanic("hello", func() { root.Field("hello").AddArgument(NewInputValue("x", "", NamedType("Int"))) })
	require.Nil(t, root.Field("ghost"))
}

func TestRegistry_RegisterCopiesType(t *testing.T) {
	reg := NewRegistry()
	post := NewObject("Post", "").AddField(NewField("id", "", NamedType("ID")))
	require.NoError(t, reg.RegisterObjectType(post))

	// A duplicate added after registration would have been rejected by
	// RegisterObjectType; it must not reach the registry either.
	post.AddField(NewField("id", "", NamedType("ID")))
	require.NoError(t, reg.Finalize())
	registered, _ := reg.Lookup("Post")
	require.Len(t, registered.Fields, 1)
}

func TestRegistry_InvalidTypes(t *testing.T) {
	tests := []struct {
		name string
		run  func(reg *Registry) error
	}{
		{"bad name", func(reg *Registry) error {
			return reg.RegisterObjectType(NewObject("1Post", "").AddField(NewField("id", "", NamedType("ID"))))
		}},
		{"wrong kind", func(reg *Registry) error {
			return reg.RegisterEnum(NewObject("Post", "").AddField(NewField("id", "", NamedType("ID"))))
		}},
		{"duplicate field", func(reg *Registry) error {
			return reg.RegisterObjectType(NewObject("Post", "").
				AddField(NewField("id", "", NamedType("ID"))).
				AddField(NewField("id", "", NamedType("ID"))))
		}},
		{"enum without values", func(reg *Registry) error {
			return reg.RegisterEnum(NewEnum("Empty", ""))
		}},
		{"enum value true", func(reg *Registry) error {
			return reg.RegisterEnum(NewEnum("Flag", "", "true"))
		}},
		{"scalar without functions", func(reg *Registry) error {
			return reg.RegisterScalar("Date", nil, nil)
		}},
		{"duplicate argument", func(reg *Registry) error {
			return reg.RegisterObjectType(NewObject("Query", "").
				AddField(NewField("post", "", NamedType("ID")).
					AddArgument(NewInputValue("id", "", NamedType("ID"))).
					AddArgument(NewInputValue("id", "", NamedType("ID")))))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var invalid *InvalidTypeError
			require.ErrorAs(t, tt.run(NewRegistry()), &invalid)
		})
	}
}

func TestRegistry_InputOutputPositions(t *testing.T) {
	t.Run("object used as argument", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.RegisterObjectType(NewObject("Post", "").
			AddField(NewField("id", "", NamedType("ID")))))
		require.NoError(t, reg.RegisterObjectType(NewObject("Query", "").
			AddField(NewField("echo", "", NamedType("ID")).
				AddArgument(NewInputValue("post", "", NamedType("Post"))))))
		var invalid *InvalidTypeError
		require.ErrorAs(t, reg.Finalize(), &invalid)
		require.Contains(t, invalid.Error(), "Post is not an input type")
	})

	t.Run("input object used as field type", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.RegisterInputObject(NewInputObject("In", "").
			AddInputField(NewInputValue("a", "", NamedType("Int")))))
		require.NoError(t, reg.RegisterObjectType(NewObject("Query", "").
			AddField(NewField("in", "", NamedType("In")))))
		var invalid *InvalidTypeError
		require.ErrorAs(t, reg.Finalize(), &invalid)
		require.Contains(t, invalid.Error(), "In is not an output type")
	})
}
