package demangle

import (
	"errors"
	"strings"
)

// MSVC decorated-name undecoration. This is a best-effort reading of the
// common encodings (qualified names, back-references, template names,
// operators, function encodings with calling convention and argument
// types). Exotic encodings return an error and the caller falls through
// to the next strategy.

var (
	errNotMSVC     = errors.New("demangle: not an MSVC decorated name")
	errMalformed   = errors.New("demangle: malformed MSVC decorated name")
	errUnsupported = errors.New("demangle: unsupported MSVC encoding")
	errTruncated   = errors.New("demangle: truncated MSVC decorated name")
)

func undecorateMSVC(decorated string) (string, error) {
	if len(decorated) < 2 || decorated[0] != '?' {
		return "", errNotMSVC
	}

	u := &undecorator{input: decorated, pos: 1}
	name, err := u.qualifiedName()
	if err != nil {
		return "", err
	}

	// Everything after the name is the encoding: member kind, calling
	// convention, return type, and argument list.
	if u.pos >= len(u.input) {
		return name, nil
	}

	return u.encoding(name)
}

type undecorator struct {
	input    string
	pos      int
	backrefs []string
}

func (u *undecorator) peek() byte {
	if u.pos >= len(u.input) {
		return 0
	}
	return u.input[u.pos]
}

func (u *undecorator) next() (byte, error) {
	if u.pos >= len(u.input) {
		return 0, errTruncated
	}
	c := u.input[u.pos]
	u.pos++
	return c, nil
}

// qualifiedName reads name fragments, innermost first, and joins them
// outermost-first with "::". Identifier fragments carry an '@' separator;
// template and special fragments delimit themselves. The fragment list
// ends at an '@' standing where a fragment would begin.
func (u *undecorator) qualifiedName() (string, error) {
	var parts []string

	for u.pos < len(u.input) {
		if u.peek() == '@' {
			u.pos++
			break
		}

		seg, err := u.nameSegment(len(parts) == 0)
		if err != nil {
			return "", err
		}
		if seg != "" {
			parts = append(parts, seg)
		}
	}

	if len(parts) == 0 {
		return "", errMalformed
	}

	// Decorated names store the innermost scope first.
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}

	return strings.Join(parts, "::"), nil
}

// nameSegment reads one scope segment: a back-reference digit, a template
// name, a special name (only valid in leaf position), or a plain
// identifier. Plain identifiers are recorded in the back-reference table.
func (u *undecorator) nameSegment(leaf bool) (string, error) {
	c := u.peek()

	if c >= '0' && c <= '9' {
		u.pos++
		idx := int(c - '0')
		if idx >= len(u.backrefs) {
			return "", errMalformed
		}
		return u.backrefs[idx], nil
	}

	if c == '?' {
		u.pos++
		if u.peek() == '$' {
			u.pos++
			return u.templateName()
		}
		if !leaf {
			return "", errUnsupported
		}
		return u.specialName()
	}

	seg := u.identifier()
	if seg == "" {
		return "", errMalformed
	}
	if u.peek() == '@' {
		u.pos++ // fragment separator
	}
	if len(u.backrefs) < 10 {
		u.backrefs = append(u.backrefs, seg)
	}
	return seg, nil
}

func (u *undecorator) identifier() string {
	start := u.pos
	for u.pos < len(u.input) {
		c := u.input[u.pos]
		if c == '@' || c == '?' {
			break
		}
		u.pos++
	}
	return u.input[start:u.pos]
}

// templateName reads "?$name@<args>@" and renders "name<args>".
func (u *undecorator) templateName() (string, error) {
	name := u.identifier()
	if name == "" {
		return "", errMalformed
	}
	if u.peek() != '@' {
		return "", errMalformed
	}
	u.pos++

	var args []string
	for u.pos < len(u.input) && u.peek() != '@' {
		if u.peek() == '$' {
			u.pos++
			lit, err := u.templateLiteral()
			if err != nil {
				return "", err
			}
			args = append(args, lit)
			continue
		}

		arg, err := u.typeCode()
		if err != nil {
			return "", err
		}
		args = append(args, arg)
	}
	if u.peek() == '@' {
		u.pos++
	}

	rendered := name + "<" + strings.Join(args, ",") + ">"
	if len(u.backrefs) < 10 {
		u.backrefs = append(u.backrefs, rendered)
	}
	return rendered, nil
}

// templateLiteral reads a non-type template argument ("$0" + number).
func (u *undecorator) templateLiteral() (string, error) {
	c, err := u.next()
	if err != nil {
		return "", err
	}
	if c != '0' {
		return "", errUnsupported
	}
	return u.number()
}

// number decodes the MSVC integer encoding: a single digit 0-9 encodes
// the values 1-10; longer values are hex digits A-P terminated by '@'.
func (u *undecorator) number() (string, error) {
	c, err := u.next()
	if err != nil {
		return "", err
	}

	neg := false
	if c == '?' {
		neg = true
		c, err = u.next()
		if err != nil {
			return "", err
		}
	}

	var value int64
	if c >= '0' && c <= '9' {
		value = int64(c-'0') + 1
	} else {
		for c != '@' {
			if c < 'A' || c > 'P' {
				return "", errMalformed
			}
			value = value<<4 | int64(c-'A')
			c, err = u.next()
			if err != nil {
				return "", err
			}
		}
	}

	if neg {
		value = -value
	}
	return itoa(value), nil
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf []byte
	for v > 0 {
		buf = append([]byte{byte('0' + v%10)}, buf...)
		v /= 10
	}
	if neg {
		return "-" + string(buf)
	}
	return string(buf)
}

var operatorNames = map[byte]string{
	'2': "operator new",
	'3': "operator delete",
	'4': "operator=",
	'5': "operator>>",
	'6': "operator<<",
	'7': "operator!",
	'8': "operator==",
	'9': "operator!=",
	'A': "operator[]",
	'C': "operator->",
	'D': "operator*",
	'E': "operator++",
	'F': "operator--",
	'G': "operator-",
	'H': "operator+",
	'I': "operator&",
	'J': "operator->*",
	'K': "operator/",
	'L': "operator%",
	'M': "operator<",
	'N': "operator<=",
	'O': "operator>",
	'P': "operator>=",
	'Q': "operator,",
	'R': "operator()",
	'S': "operator~",
	'T': "operator^",
	'U': "operator|",
	'V': "operator&&",
	'W': "operator||",
	'X': "operator*=",
	'Y': "operator+=",
	'Z': "operator-=",
}

// specialName reads constructors, destructors, and operators.
func (u *undecorator) specialName() (string, error) {
	c, err := u.next()
	if err != nil {
		return "", err
	}

	switch c {
	case '0':
		// Constructor: named after the enclosing class, which is the
		// next segment in the decorated name.
		return u.peekEnclosingName()
	case '1':
		name, err := u.peekEnclosingName()
		if err != nil {
			return "", err
		}
		return "~" + name, nil
	case '_':
		c2, err := u.next()
		if err != nil {
			return "", err
		}
		switch c2 {
		case '0':
			return "operator/=", nil
		case '1':
			return "operator%=", nil
		case '2':
			return "operator>>=", nil
		case '3':
			return "operator<<=", nil
		case '4':
			return "operator&=", nil
		case '5':
			return "operator|=", nil
		case '6':
			return "operator^=", nil
		case 'K':
			return `operator "" ` + u.identifier(), nil
		default:
			return "", errUnsupported
		}
	default:
		if op, ok := operatorNames[c]; ok {
			return op, nil
		}
		return "", errUnsupported
	}
}

// peekEnclosingName reads the next name segment without consuming it, so
// constructors and destructors can borrow the class name.
func (u *undecorator) peekEnclosingName() (string, error) {
	save := u.pos
	defer func() { u.pos = save }()

	if c := u.peek(); c >= '0' && c <= '9' {
		idx := int(c - '0')
		if idx >= len(u.backrefs) {
			return "", errMalformed
		}
		return u.backrefs[idx], nil
	}
	if u.peek() == '?' {
		// Anonymous or templated enclosing scope; give up on this
		// strategy rather than emit a wrong class name.
		return "", errUnsupported
	}

	name := u.identifier()
	if name == "" {
		return "", errMalformed
	}
	return name, nil
}

// cvQualifier reads a CV-qualifier byte (A: none, B: const, C: volatile,
// D: const volatile), skipping the x64 pointer-width and alignment
// markers (E: __ptr64, F: __unaligned, I: __restrict) that may precede it.
func (u *undecorator) cvQualifier() (byte, error) {
	for {
		c, err := u.next()
		if err != nil {
			return 0, err
		}
		switch c {
		case 'E', 'F', 'I':
			continue
		default:
			if c < 'A' || c > 'D' {
				return 0, errUnsupported
			}
			return c, nil
		}
	}
}

// memberAccess maps the member-function kind code to its access rendering
// and reports whether the member is static (static members carry no
// implicit this qualifier byte).
func memberAccess(c byte) (access string, static bool, ok bool) {
	switch c {
	case 'A', 'B':
		return "private:", false, true
	case 'C', 'D':
		return "private: static", true, true
	case 'E', 'F':
		return "private: virtual", false, true
	case 'I', 'J':
		return "protected:", false, true
	case 'K', 'L':
		return "protected: static", true, true
	case 'M', 'N':
		return "protected: virtual", false, true
	case 'Q', 'R':
		return "public:", false, true
	case 'S', 'T':
		return "public: static", true, true
	case 'U', 'V':
		return "public: virtual", false, true
	default:
		return "", false, false
	}
}

// encoding parses everything after the qualified name and assembles the
// final declaration.
func (u *undecorator) encoding(name string) (string, error) {
	c, err := u.next()
	if err != nil {
		return "", err
	}

	switch {
	case c == 'Y':
		// Non-member function.
		return u.functionType(name, "")

	case c == '0' || c == '1' || c == '2' || c == '3' || c == '4':
		// Data. Render the qualified name alone; the variable's type is
		// not interesting for symbol resolution.
		return name, nil

	default:
		access, static, ok := memberAccess(c)
		if !ok {
			return "", errUnsupported
		}
		if !static {
			// Implicit this CV-qualifier (A: none, B: const, ...),
			// possibly preceded by pointer-width markers on x64.
			if _, err := u.cvQualifier(); err != nil {
				return "", err
			}
		}
		return u.functionType(name, access+" ")
	}
}

func (u *undecorator) functionType(name, prefix string) (string, error) {
	conv, err := u.callingConvention()
	if err != nil {
		return "", err
	}

	ret, err := u.returnType()
	if err != nil {
		return "", err
	}

	args, err := u.argumentList()
	if err != nil {
		return "", err
	}

	// Constructors and destructors have no return type to render.
	words := make([]string, 0, 3)
	if ret != "" {
		words = append(words, ret)
	}
	words = append(words, conv, name+"("+args+")")

	return prefix + strings.Join(words, " "), nil
}

func (u *undecorator) callingConvention() (string, error) {
	c, err := u.next()
	if err != nil {
		return "", err
	}

	switch c {
	case 'A', 'B':
		return "__cdecl", nil
	case 'C', 'D':
		return "__pascal", nil
	case 'E', 'F':
		return "__thiscall", nil
	case 'G', 'H':
		return "__stdcall", nil
	case 'I', 'J':
		return "__fastcall", nil
	case 'Q':
		return "__vectorcall", nil
	default:
		return "", errUnsupported
	}
}

func (u *undecorator) returnType() (string, error) {
	// '@' stands for "no return type" (constructors, destructors).
	if u.peek() == '@' {
		u.pos++
		return "", nil
	}
	return u.typeCode()
}

func (u *undecorator) argumentList() (string, error) {
	var args []string

	for u.pos < len(u.input) {
		c := u.peek()
		if c == 'Z' {
			u.pos++
			break
		}
		if c == '@' {
			// Explicit list terminator, followed by 'Z'.
			u.pos++
			if u.peek() == 'Z' {
				u.pos++
			}
			break
		}

		arg, err := u.typeCode()
		if err != nil {
			return "", err
		}
		if arg == "void" && len(args) == 0 {
			// X as the whole argument list means "no arguments"; it is
			// its own terminator.
			return "void", nil
		}
		args = append(args, arg)
	}

	return strings.Join(args, ", "), nil
}

var primitiveTypes = map[byte]string{
	'C': "signed char",
	'D': "char",
	'E': "unsigned char",
	'F': "short",
	'G': "unsigned short",
	'H': "int",
	'I': "unsigned int",
	'J': "long",
	'K': "unsigned long",
	'M': "float",
	'N': "double",
	'O': "long double",
	'X': "void",
	'Z': "...",
}

var extendedTypes = map[byte]string{
	'D': "__int8",
	'E': "unsigned __int8",
	'F': "__int16",
	'G': "unsigned __int16",
	'H': "__int32",
	'I': "unsigned __int32",
	'J': "__int64",
	'K': "unsigned __int64",
	'N': "bool",
	'S': "char16_t",
	'U': "char32_t",
	'W': "wchar_t",
}

func (u *undecorator) typeCode() (string, error) {
	c, err := u.next()
	if err != nil {
		return "", err
	}

	if t, ok := primitiveTypes[c]; ok {
		return t, nil
	}

	switch c {
	case '_':
		c2, err := u.next()
		if err != nil {
			return "", err
		}
		t, ok := extendedTypes[c2]
		if !ok {
			return "", errUnsupported
		}
		return t, nil

	case 'P', 'Q', 'A':
		// Pointer (P), const pointer (Q), reference (A): a CV byte for
		// the pointee, then the pointee type.
		q, err := u.cvQualifier()
		if err != nil {
			return "", err
		}
		inner, err := u.typeCode()
		if err != nil {
			return "", err
		}
		if q == 'B' || q == 'D' {
			inner = "const " + inner
		}
		switch c {
		case 'A':
			return inner + "&", nil
		case 'Q':
			return inner + "* const", nil
		default:
			return inner + "*", nil
		}

	case 'U', 'V', 'T', 'W':
		// struct / class / union / enum, spelled as a nested qualified
		// name terminated by '@@'. Enums carry an underlying-type byte.
		if c == 'W' {
			if _, err := u.next(); err != nil {
				return "", err
			}
		}
		return u.qualifiedName()

	default:
		return "", errUnsupported
	}
}
