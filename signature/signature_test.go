package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBase(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "MyClass", "MyClass"},
		{"template stripped", "std::vector<int>", "std::vector"},
		{"nested template", "std::map<std::string, std::vector<int>>", "std::map"},
		{"placeholder trailing separator trimmed", "my_namespace::<int>", "my_namespace"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.in).Base())
		})
	}
}

func TestNamespaces(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "qualified template member",
			in:   "ns::Outer<T1,T2>::Inner",
			want: []string{"ns", "Outer<T1,T2>", "Inner"},
		},
		{
			name: "separator inside brackets is literal",
			in:   "a::B<x::y>::c",
			want: []string{"a", "B<x::y>", "c"},
		},
		{
			name: "single segment",
			in:   "MyClass",
			want: []string{"MyClass"},
		},
		{
			name: "deep path",
			in:   "std::chrono::duration",
			want: []string{"std", "chrono", "duration"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.in).Namespaces())
		})
	}
}

func TestTemplateArgs(t *testing.T) {
	t.Run("nested comma is not a separator", func(t *testing.T) {
		args := Parse("Foo<A<B,C>,D>").TemplateArgs()
		require.Len(t, args, 2)
		assert.Equal(t, "A<B,C>", args[0].Text)
		assert.Equal(t, "D", args[1].Text)
	})

	t.Run("classification", func(t *testing.T) {
		args := Parse("Foo<int, 42, 1.25>").TemplateArgs()
		require.Len(t, args, 3)
		assert.Equal(t, "typename", args[0].Keyword)
		assert.Equal(t, "long long", args[1].Keyword)
		assert.Equal(t, "double", args[2].Keyword)
	})

	t.Run("no template", func(t *testing.T) {
		assert.Empty(t, Parse("MyClass").TemplateArgs())
	})

	t.Run("placeholder brackets are not template arguments", func(t *testing.T) {
		assert.Empty(t, Parse("my_namespace::<unnamed-class-MyClass>").TemplateArgs())
	})

	t.Run("parens guard commas", func(t *testing.T) {
		args := Parse("Foo<void (*)(int, char), bool>").TemplateArgs()
		require.Len(t, args, 2)
		assert.Equal(t, "void (*)(int, char)", args[0].Text)
		assert.Equal(t, " bool", args[1].Text)
	})

	t.Run("unbalanced closers tolerated", func(t *testing.T) {
		args := Parse("Foo<A>>,B>").TemplateArgs()
		require.NotEmpty(t, args)
	})
}

func TestIdentifier(t *testing.T) {
	want := map[int]string{
		0:  "T",
		1:  "U",
		2:  "V",
		3:  "W",
		4:  "X",
		5:  "Y",
		6:  "Z",
		7:  "TT",
		13: "TZ",
		14: "UT",
	}

	for pos, id := range want {
		assert.Equal(t, id, Identifier(pos), "position %d", pos)
	}
}

func TestTemplateDecl(t *testing.T) {
	args := Parse("my_namespace::MyClass<int, 7>").TemplateArgs()
	require.Len(t, args, 2)
	assert.Equal(t, "template <typename T, long long U> ", TemplateDecl(args))

	assert.Equal(t, "", TemplateDecl(nil))
}

func TestDecorations(t *testing.T) {
	t.Run("fresh type renders as its name", func(t *testing.T) {
		assert.Equal(t, "Foo", Parse("Foo").FullyQualified())
	})

	t.Run("pointers and modifiers accumulate", func(t *testing.T) {
		typ := Parse("Foo").WithPointer().WithPointer().WithModifier("const ")
		assert.Equal(t, "const Foo**", typ.FullyQualified())
		assert.Equal(t, 2, typ.PointerDepth())
	})

	t.Run("decoration is value semantics", func(t *testing.T) {
		base := Parse("Foo")
		_ = base.WithPointer()
		assert.Equal(t, "Foo", base.FullyQualified())
	})
}

func TestLiteralAndNone(t *testing.T) {
	lit := Literal("unsigned long long")
	assert.Equal(t, "unsigned long long", lit.FullyQualified())
	assert.Empty(t, lit.TemplateArgs())
	assert.Nil(t, lit.Namespaces())

	none := None()
	assert.False(t, none.IsValid())
	assert.Contains(t, none.FullyQualified(), "error")
}
