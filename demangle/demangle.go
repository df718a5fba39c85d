// Package demangle converts compiler-mangled symbol names into
// source-level declarations.
//
// Two strategies are tried in order: the MSVC undecorator first, then the
// Itanium/GCC demangler. When both reject the input the caller is
// expected to keep using the raw mangled text; failure to demangle is a
// display degradation, not an error.
package demangle

import (
	"regexp"
	"strings"

	itanium "github.com/ianlancetaylor/demangle"
)

var (
	lambdaPattern      = regexp.MustCompile(`<lambda_(\w+?)>`)
	unnamedTypePattern = regexp.MustCompile(`<unnamed-(?:type|enum)-(.+?)>`)
)

// Demangle converts a mangled symbol to a declaration string.
// ok is false when neither strategy accepts the input; the returned
// string is then the raw input, suitable for direct display.
func Demangle(mangled string) (string, bool) {
	if decl, err := undecorateMSVC(mangled); err == nil {
		return decl, true
	}

	if decl, err := itanium.ToString(mangled); err == nil {
		return decl, true
	}

	return mangled, false
}

// RewritePlaceholders rewrites compiler-synthesized placeholder tokens
// (anonymous tags, anonymous types and enums, lambda closures) into
// identifier-like text, so their angle-bracket delimiters can never be
// mistaken for template argument brackets downstream.
func RewritePlaceholders(decl string) string {
	out := lambdaPattern.ReplaceAllString(decl, "lambda_$1")
	out = unnamedTypePattern.ReplaceAllString(out, "$1")

	// The bare anonymous tag has no payload to salvage.
	return strings.ReplaceAll(out, "<unnamed-tag>", "unnamed_tag")
}
