package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/remora-dev/remora/demangle"
	"github.com/remora-dev/remora/symdb"
)

var resolveBase uint64

var resolveCmd = &cobra.Command{
	Use:   "resolve <pdb-file> <module> <symbol>",
	Short: "Resolve a mangled symbol to its live address",
	Long: `Resolve a mangled symbol name to an address.

The module name identifies which loaded module the PDB describes; the
symbol's RVA is rebased onto that module's load address. Use --base to
supply a base address instead of querying the running process.`,
	Args: cobra.ExactArgs(3),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().Uint64Var(&resolveBase, "base", 0, "assume this module base address instead of querying the process")
}

func runResolve(cmd *cobra.Command, args []string) error {
	pdbPath, module, symbol := args[0], args[1], args[2]

	opts := []symdb.Option{symdb.WithLogger(logger)}
	if cmd.Flags().Changed("base") {
		opts = append(opts, symdb.WithBaseAddress(resolveBase))
	}

	db, err := symdb.Load(pdbPath, module, opts...)
	if err != nil {
		return err
	}

	addr, ok := db.Resolve(symbol)
	if !ok {
		return fmt.Errorf("symbol not found: %s", symbol)
	}

	fmt.Fprintf(output, "%-18s %s\n", "Symbol:", symbol)
	if pretty, ok := demangle.Demangle(symbol); ok {
		fmt.Fprintf(output, "%-18s %s\n", "Demangled:", demangle.RewritePlaceholders(pretty))
	}
	fmt.Fprintf(output, "%-18s 0x%016X\n", "Address:", addr)
	fmt.Fprintf(output, "%-18s 0x%08X\n", "RVA:", addr-db.Base())
	return nil
}
