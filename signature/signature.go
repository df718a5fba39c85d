// Package signature decomposes reconstructed C++ type names into their
// namespace path, template-stripped base name, and classified template
// arguments.
//
// Input text comes from demangled debug symbols and is inherently messy,
// so every operation is total: malformed input degrades to a best-effort
// partial result instead of returning an error.
package signature

import (
	"regexp"
	"strings"
)

// invalidTypeText is rendered when an invalid Type is displayed.
// It deliberately forms a C++ comment so generated output stays compilable.
const invalidTypeText = "/* error: attempt to display invalid type */"

var (
	templatePattern = regexp.MustCompile(`(.+?)<(.*)>`)
	floatPattern    = regexp.MustCompile(`^\d+\.\d+$`)
	integerPattern  = regexp.MustCompile(`^\d+$`)
)

// Type is a parsed C++ type name such as "std::vector<int>".
//
// Pointer and modifier decorations are accumulated by the caller as it
// walks a broader type tree: WithPointer and WithModifier return updated
// copies, so a Type can be threaded through a traversal without any
// shared mutable state.
type Type struct {
	name      string
	literal   bool
	valid     bool
	pointers  int
	modifiers string
}

// Parse wraps a type name for decomposition.
func Parse(name string) Type {
	return Type{name: name, valid: true}
}

// Literal wraps pre-rendered text that is displayed verbatim and never
// decomposed, e.g. a primitive type or a function pointer spelling.
func Literal(text string) Type {
	return Type{name: text, literal: true, valid: true}
}

// None returns the invalid Type. Displaying it renders an error comment.
func None() Type {
	return Type{}
}

// IsValid reports whether the Type carries usable text.
func (t Type) IsValid() bool { return t.valid }

// WithPointer returns a copy with one more level of pointer indirection.
func (t Type) WithPointer() Type {
	t.pointers++
	return t
}

// WithModifier returns a copy with modifier text (e.g. "const ") appended.
func (t Type) WithModifier(m string) Type {
	t.modifiers += m
	return t
}

// PointerDepth returns the accumulated pointer indirection count.
func (t Type) PointerDepth() int { return t.pointers }

// Base returns the namespace-qualified name truncated at the first '<',
// stripping any template arguments. A trailing "::" left behind by
// compiler placeholder names is trimmed rather than rejected.
func (t Type) Base() string {
	if !t.valid {
		return invalidTypeText
	}
	if t.literal {
		return t.name
	}

	base := t.name
	if i := strings.IndexByte(base, '<'); i >= 0 {
		base = base[:i]
	}
	return strings.TrimSuffix(base, "::")
}

// String renders the base name.
func (t Type) String() string { return t.Base() }

// FullyQualified renders accumulated modifiers, the full name, and one
// '*' per pointer level.
func (t Type) FullyQualified() string {
	if !t.valid {
		return invalidTypeText
	}
	if t.literal {
		return t.name
	}
	return t.modifiers + t.name + strings.Repeat("*", t.pointers)
}

// Namespaces splits the base name into its namespace path. A "::" counts
// as a separator only at template depth zero; inside angle brackets it is
// literal text. "ns::Outer<T1,T2>::Inner" yields ["ns", "Outer<T1,T2>", "Inner"].
func (t Type) Namespaces() []string {
	if !t.valid || t.literal {
		return nil
	}

	var (
		segments []string
		current  strings.Builder
		depth    int
	)

	s := t.name
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '<':
			depth++
			current.WriteByte('<')
		case s[i] == '>':
			depth--
			current.WriteByte('>')
		case s[i] == ':' && depth == 0 && i+1 < len(s) && s[i+1] == ':':
			segments = append(segments, strings.TrimSpace(current.String()))
			current.Reset()
			i++ // consume the second ':'
		default:
			current.WriteByte(s[i])
		}
	}

	if current.Len() > 0 {
		segments = append(segments, strings.TrimSpace(current.String()))
	}

	return segments
}

// TemplateArg is one classified template argument.
type TemplateArg struct {
	// Keyword is the parameter-list keyword: "typename" for type
	// parameters, "long long" for integer literals, "double" for
	// floating-point literals.
	Keyword string

	// Identifier is the synthesized parameter name (T, U, ... Z, TT, ...).
	Identifier string

	// Text is the raw argument text as it appeared in the name.
	Text string
}

// TemplateArgs extracts and classifies the top-level template arguments
// of the type name. Commas nested inside angle brackets or parentheses do
// not split arguments. A name whose pre-bracket text ends in "::" is a
// compiler placeholder, not a template, and yields no arguments.
func (t Type) TemplateArgs() []TemplateArg {
	if !t.valid || t.literal {
		return nil
	}

	m := templatePattern.FindStringSubmatch(t.name)
	if m == nil {
		return nil
	}

	// my_namespace::<unnamed-class-X> carries brackets that delimit a
	// placeholder, not template arguments.
	if strings.HasSuffix(m[1], "::") {
		return nil
	}

	parts := splitTopLevel(m[2])
	args := make([]TemplateArg, len(parts))
	for i, text := range parts {
		keyword := "typename"
		switch {
		case floatPattern.MatchString(text):
			keyword = "double"
		case integerPattern.MatchString(text):
			keyword = "long long"
		}

		args[i] = TemplateArg{
			Keyword:    keyword,
			Identifier: Identifier(i),
			Text:       text,
		}
	}

	return args
}

// splitTopLevel splits template-argument text on commas at bracket depth
// zero. Depth is clamped at zero so unbalanced closing brackets in
// malformed input cannot swallow the rest of the list.
func splitTopLevel(s string) []string {
	var (
		parts   []string
		current strings.Builder
		depth   int
	)

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '<', '(':
			depth++
			current.WriteByte(c)
		case '>', ')':
			depth--
			if depth < 0 {
				depth = 0
			}
			current.WriteByte(c)
		case ',':
			if depth == 0 {
				parts = append(parts, current.String())
				current.Reset()
			} else {
				current.WriteByte(c)
			}
		default:
			current.WriteByte(c)
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}

// Identifier synthesizes a template parameter name for the given 0-based
// position by treating it as a base-7 numeral over T..Z: 0..6 map to
// single letters, 7 becomes "TT", 13 "TZ", 14 "UT", and so on.
func Identifier(pos int) string {
	if pos < 7 {
		return string(rune('T' + pos))
	}
	return Identifier(pos/7-1) + Identifier(pos%7)
}

// TemplateDecl renders the template parameter declaration for the given
// classified arguments, e.g. "template <typename T, long long U> ".
// An empty argument list renders as the empty string.
func TemplateDecl(args []TemplateArg) string {
	if len(args) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("template <")
	for i, arg := range args {
		if i != 0 {
			b.WriteString(", ")
		}
		b.WriteString(arg.Keyword)
		b.WriteByte(' ')
		b.WriteString(arg.Identifier)
	}
	b.WriteString("> ")
	return b.String()
}
