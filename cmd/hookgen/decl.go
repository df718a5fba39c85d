package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/remora-dev/remora/abi"
	"github.com/remora-dev/remora/demangle"
	"github.com/remora-dev/remora/signature"
	"github.com/remora-dev/remora/symdb"
)

var declTargets string

var declCmd = &cobra.Command{
	Use:   "decl <pdb-file>",
	Short: "Generate C++ hook declaration stubs for a list of symbols",
	Long: `Generate C++ declaration stubs for hooking the symbols listed in a
targets file. For each symbol a typedef, an original-function pointer
and a hook skeleton are emitted.

The targets file is YAML:

  module: game.exe
  base: 0x140000000
  symbols:
    - name: "?update@Entity@@QEAAXM@Z"
    - name: "?render@Entity@@QEAAXXZ"
      convention: __thiscall`,
	Args: cobra.ExactArgs(1),
	RunE: runDecl,
}

func init() {
	declCmd.Flags().StringVarP(&declTargets, "targets", "t", "targets.yaml", "YAML file listing the symbols to generate stubs for")
	declCmd.MarkFlagFilename("targets", "yaml", "yml")
}

type target struct {
	Name       string `yaml:"name"`
	Convention string `yaml:"convention"`
}

type targetsFile struct {
	Module  string   `yaml:"module"`
	Base    uint64   `yaml:"base"`
	Symbols []target `yaml:"symbols"`
}

func runDecl(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(declTargets)
	if err != nil {
		return fmt.Errorf("failed to read targets file: %w", err)
	}

	var targets targetsFile
	if err := yaml.Unmarshal(data, &targets); err != nil {
		return fmt.Errorf("failed to parse targets file: %w", err)
	}
	if len(targets.Symbols) == 0 {
		return fmt.Errorf("targets file lists no symbols")
	}

	opts := []symdb.Option{symdb.WithLogger(logger)}
	if targets.Base != 0 {
		opts = append(opts, symdb.WithBaseAddress(targets.Base))
	}

	db, err := symdb.Load(args[0], targets.Module, opts...)
	if err != nil {
		return err
	}

	for i, tgt := range targets.Symbols {
		if i > 0 {
			fmt.Fprintln(output)
		}

		addr, ok := db.Resolve(tgt.Name)
		if !ok {
			logger.Warn().Str("symbol", tgt.Name).Msg("symbol not found, skipping")
			continue
		}
		writeDecl(output, tgt, addr, db.Base())
	}
	return nil
}

// writeDecl emits one typedef, original-pointer and hook-skeleton block.
func writeDecl(w io.Writer, tgt target, addr, base uint64) {
	pretty, ok := demangle.Demangle(tgt.Name)
	if !ok {
		fmt.Fprintf(w, "// Symbol: %s (undecodable name)\n", tgt.Name)
		fmt.Fprintf(w, "// Addr: 0x%016X | RVA: 0x%08X\n", addr, addr-base)
		return
	}
	pretty = demangle.RewritePlaceholders(pretty)

	retType, conv, qualified, params := splitDeclaration(pretty)
	if tgt.Convention != "" {
		conv = tgt.Convention
	}

	owner := signature.Parse(qualified)
	short := shortName(qualified)

	fmt.Fprintf(w, "// Method: %s\n", pretty)
	fmt.Fprintf(w, "// Addr: 0x%016X | RVA: 0x%08X\n", addr, addr-base)

	if decl := signature.TemplateDecl(owner.TemplateArgs()); decl != "" {
		fmt.Fprint(w, decl, "\n")
	}

	fmt.Fprintf(w, "typedef %s (%s* _type_%s)(%s);\n", retType, conv, short, params)
	fmt.Fprintf(w, "_type_%s o_%s{nullptr};\n", short, short)

	fmt.Fprintf(w, "%s %s hooked_%s(%s) {\n", retType, conv, short, params)
	fmt.Fprintf(w, "\t// TODO: pre-call logic for %s\n", qualified)
	fmt.Fprint(w, "\t")
	if retType != "void" {
		fmt.Fprint(w, "return ")
	}
	fmt.Fprintf(w, "o_%s(/* forward arguments */);\n", short)
	fmt.Fprint(w, "}\n")
}

// splitDeclaration pulls the return type, calling convention, qualified
// name and parameter list out of a demangled declaration.
func splitDeclaration(decl string) (retType, conv, qualified, params string) {
	head, rawParams, found := strings.Cut(decl, "(")
	if found {
		params = strings.TrimSuffix(strings.TrimSpace(rawParams), ")")
	}

	conv = "__cdecl"
	if c, ok := abi.FromDeclaration(head); ok {
		conv = c.String()
	}

	retType = "void"
	fields := strings.Fields(head)
	if len(fields) > 0 {
		qualified = fields[len(fields)-1]
	}
	for i, field := range fields[:max(len(fields)-1, 0)] {
		if strings.HasPrefix(field, "__") || strings.HasSuffix(field, ":") {
			continue
		}
		// First non-qualifier field before the name is the return type.
		retType = strings.Join(trimQualifiers(fields[i:len(fields)-1]), " ")
		break
	}
	return retType, conv, qualified, params
}

func trimQualifiers(fields []string) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if strings.HasPrefix(f, "__") || strings.HasSuffix(f, ":") {
			continue
		}
		out = append(out, f)
	}
	return out
}

// shortName strips namespaces and template arguments so the result can
// name a C identifier.
func shortName(qualified string) string {
	sig := signature.Parse(qualified)
	parts := sig.Namespaces()
	if len(parts) == 0 {
		return qualified
	}
	last := parts[len(parts)-1]
	if i := strings.IndexByte(last, '<'); i >= 0 {
		last = last[:i]
	}
	return last
}
