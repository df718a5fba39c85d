// Package symdb maps mangled symbol names to live addresses. It walks a
// PDB's public function symbols once at load time, converts each
// section:offset pair to an RVA and rebases RVAs onto the module's load
// address at resolution time.
package symdb

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/remora-dev/remora/internal/modbase"
	"github.com/remora-dev/remora/pdb"
)

// DB is an immutable symbol database. Lookups are lock-free and safe
// for concurrent use.
type DB struct {
	module  string
	base    uint64
	offsets map[string]uint32
	logger  zerolog.Logger
}

type config struct {
	logger  zerolog.Logger
	base    uint64
	hasBase bool
}

// Option configures Load.
type Option func(*config)

// WithLogger attaches a logger for load warnings and resolution records.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithBaseAddress pins the module base address instead of querying the
// running process. Useful for tools operating on foreign binaries.
func WithBaseAddress(base uint64) Option {
	return func(c *config) {
		c.base = base
		c.hasBase = true
	}
}

// Load opens the PDB at path and builds the name to address database
// for the named module. The PDB is fully consumed and closed before
// Load returns.
func Load(path, moduleName string, opts ...Option) (*DB, error) {
	cfg := config{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	base := cfg.base
	if !cfg.hasBase {
		var err error
		base, err = modbase.BaseAddress(moduleName)
		if err != nil {
			return nil, fmt.Errorf("symdb: failed to locate module %q: %w", moduleName, err)
		}
	}

	f, err := pdb.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	logger := cfg.logger.With().Str("component", "symdb").Str("module", moduleName).Logger()

	offsets, err := collectOffsets(f, logger)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Int("symbols", len(offsets)).
		Uint64("base", base).
		Msg("symbol database loaded")

	return &DB{
		module:  moduleName,
		base:    base,
		offsets: offsets,
		logger:  logger,
	}, nil
}

// collectOffsets builds the name to RVA table from the PDB's public
// function symbols. Symbols whose section:offset pair does not map to
// an RVA are skipped with a warning rather than recorded at zero.
func collectOffsets(f *pdb.File, logger zerolog.Logger) (map[string]uint32, error) {
	sections, err := f.Sections()
	if err != nil {
		return nil, err
	}

	syms, err := f.PublicSymbols()
	if err != nil {
		return nil, err
	}

	offsets := make(map[string]uint32)
	for sym := range syms {
		if !sym.IsFunction() {
			continue
		}

		rva := sections.ToRVA(sym.Section, sym.Offset)
		if rva == 0 {
			logger.Warn().
				Str("symbol", sym.Name).
				Uint16("section", sym.Section).
				Uint32("offset", sym.Offset).
				Msg("symbol does not map to an address, skipping")
			continue
		}

		if _, dup := offsets[sym.Name]; dup {
			continue
		}
		offsets[sym.Name] = rva
	}

	return offsets, nil
}

// Resolve returns the live address of a mangled symbol name, or false
// when the name is not in the database.
func (db *DB) Resolve(name string) (uint64, bool) {
	rva, ok := db.offsets[name]
	if !ok {
		return 0, false
	}

	addr := db.base + uint64(rva)
	db.logger.Debug().
		Str("symbol", name).
		Uint64("address", addr).
		Msg("symbol resolved")
	return addr, true
}

// Base returns the module load address the database rebases onto.
func (db *DB) Base() uint64 { return db.base }

// Len returns the number of symbols in the database.
func (db *DB) Len() int { return len(db.offsets) }
