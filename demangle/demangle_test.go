package demangle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemangleMSVC(t *testing.T) {
	tests := []struct {
		name    string
		mangled string
		want    string
	}{
		{
			name:    "free function",
			mangled: "?hello@@YAXXZ",
			want:    "void __cdecl hello(void)",
		},
		{
			name:    "stdcall free function",
			mangled: "?func@@YGXHH@Z",
			want:    "void __stdcall func(int, int)",
		},
		{
			name:    "x64 member function",
			mangled: "?get@Foo@@QEAAHH@Z",
			want:    "public: int __cdecl Foo::get(int)",
		},
		{
			name:    "x86 thiscall member function",
			mangled: "?get@Foo@@QAEHH@Z",
			want:    "public: int __thiscall Foo::get(int)",
		},
		{
			name:    "constructor",
			mangled: "??0Foo@@QEAA@XZ",
			want:    "public: __cdecl Foo::Foo(void)",
		},
		{
			name:    "destructor",
			mangled: "??1Foo@@QEAA@XZ",
			want:    "public: __cdecl Foo::~Foo(void)",
		},
		{
			name:    "template class member",
			mangled: "?push@?$vector@H@std@@QEAAXH@Z",
			want:    "public: void __cdecl std::vector<int>::push(int)",
		},
		{
			name:    "integer template argument",
			mangled: "?f@?$A@$07@@QEAAXXZ",
			want:    "public: void __cdecl A<8>::f(void)",
		},
		{
			name:    "assignment operator with backrefs",
			mangled: "??4Foo@@QEAAAEAV0@AEBV0@@Z",
			want:    "public: Foo& __cdecl Foo::operator=(const Foo&)",
		},
		{
			name:    "pointer arguments",
			mangled: "?copy@@YAXPEADPEBD@Z",
			want:    "void __cdecl copy(char*, const char*)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Demangle(tt.mangled)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDemangleItaniumFallback(t *testing.T) {
	got, ok := Demangle("_ZN3foo3barEv")
	require.True(t, ok)
	assert.Equal(t, "foo::bar()", got)
}

func TestDemangleBothStrategiesFail(t *testing.T) {
	for _, raw := range []string{"plain_c_symbol", "", "?", "not?mangled"} {
		got, ok := Demangle(raw)
		assert.False(t, ok, "input %q", raw)
		assert.Equal(t, raw, got, "raw text must be preserved for display")
	}
}

func TestRewritePlaceholders(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "unnamed tag",
			in:   "ns::<unnamed-tag>",
			want: "ns::unnamed_tag",
		},
		{
			name: "lambda",
			in:   "caller::<lambda_1a2b>::operator()",
			want: "caller::lambda_1a2b::operator()",
		},
		{
			name: "unnamed type",
			in:   "ns::<unnamed-type-Inner>",
			want: "ns::Inner",
		},
		{
			name: "unnamed enum",
			in:   "ns::<unnamed-enum-Color>",
			want: "ns::Color",
		},
		{
			name: "real template brackets untouched",
			in:   "std::vector<int>",
			want: "std::vector<int>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RewritePlaceholders(tt.in))
		})
	}
}
