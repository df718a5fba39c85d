// Package hook installs detours on functions located through a symbol
// database. The entry point of the target function is overwritten with
// a jump to the replacement, after the prologue has been checked for a
// patchable window.
package hook

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/remora-dev/remora/abi"
	"github.com/remora-dev/remora/symdb"
)

var (
	// ErrSymbolNotFound indicates the symbol is not in the database.
	ErrSymbolNotFound = errors.New("hook: symbol not found")

	// ErrUnknownConvention indicates an unrecognized calling convention.
	ErrUnknownConvention = errors.New("hook: unknown calling convention")

	// ErrDuplicateHook indicates the address already carries a hook.
	ErrDuplicateHook = errors.New("hook: address already hooked")

	// ErrJumpOutOfRange indicates the replacement is farther than a
	// 32-bit relative jump can reach.
	ErrJumpOutOfRange = errors.New("hook: replacement out of jump range")

	// ErrUnpatchablePrologue indicates the target's first instructions
	// could not be decoded into a patchable window.
	ErrUnpatchablePrologue = errors.New("hook: unpatchable prologue")

	// ErrUnsupportedPlatform indicates patching is not implemented for
	// the running OS or architecture.
	ErrUnsupportedPlatform = errors.New("hook: unsupported platform")
)

// State tracks how far a hook's installation progressed.
type State uint8

const (
	StateUnresolved State = iota
	StateAddressResolved
	StateTrampolineBuilt
	StateEnabled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateAddressResolved:
		return "address-resolved"
	case StateTrampolineBuilt:
		return "trampoline-built"
	case StateEnabled:
		return "enabled"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Hook is one installed (or failed) detour. A failed hook is terminal;
// it never retries and never affects other hooks.
type Hook struct {
	Symbol     string
	Convention abi.Convention
	Address    uintptr

	state State
	err   error
}

// State reports how far installation progressed.
func (h *Hook) State() State { return h.state }

// Err returns the error that moved the hook to StateFailed, if any.
func (h *Hook) Err() error { return h.err }

func (h *Hook) fail(err error) (*Hook, error) {
	h.state = StateFailed
	h.err = err
	return h, err
}

// Installer resolves symbols and installs detours. Hooks stay installed
// until the process exits; there is no removal.
type Installer struct {
	db      *symdb.DB
	patcher patcher
	logger  zerolog.Logger

	mu    sync.Mutex
	hooks map[uintptr]*Hook
}

// InstallerOption configures NewInstaller.
type InstallerOption func(*Installer)

// WithLogger attaches a logger for installation records.
func WithLogger(logger zerolog.Logger) InstallerOption {
	return func(in *Installer) { in.logger = logger }
}

func withPatcher(p patcher) InstallerOption {
	return func(in *Installer) { in.patcher = p }
}

// NewInstaller builds an Installer over a loaded symbol database.
func NewInstaller(db *symdb.DB, opts ...InstallerOption) *Installer {
	in := &Installer{
		db:      db,
		patcher: &memPatcher{},
		logger:  zerolog.Nop(),
		hooks:   make(map[uintptr]*Hook),
	}
	for _, opt := range opts {
		opt(in)
	}
	in.logger = in.logger.With().Str("component", "hook").Logger()
	return in
}

// Install detours the named symbol to the replacement address. The
// convention token (for example "__thiscall") must name a known calling
// convention; it documents the target's declared ABI and is recorded on
// the hook. The returned Hook is also returned on failure so the caller
// can inspect how far installation progressed.
func (in *Installer) Install(symbol, convention string, replacement uintptr) (*Hook, error) {
	h := &Hook{Symbol: symbol, state: StateUnresolved}

	conv, ok := abi.Resolve(convention)
	if !ok {
		return h.fail(fmt.Errorf("%w: %q", ErrUnknownConvention, convention))
	}
	h.Convention = conv

	addr, ok := in.db.Resolve(symbol)
	if !ok {
		return h.fail(fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol))
	}
	h.Address = uintptr(addr)
	h.state = StateAddressResolved

	in.mu.Lock()
	if prev, dup := in.hooks[h.Address]; dup {
		in.mu.Unlock()
		return h.fail(fmt.Errorf("%w: %#x already hooked by %s", ErrDuplicateHook, h.Address, prev.Symbol))
	}
	in.hooks[h.Address] = h
	in.mu.Unlock()

	code, err := in.buildJump(h.Address, replacement)
	if err != nil {
		in.unregister(h.Address)
		return h.fail(err)
	}
	h.state = StateTrampolineBuilt

	if err := in.patcher.patch(h.Address, code); err != nil {
		in.unregister(h.Address)
		return h.fail(fmt.Errorf("hook: failed to patch %s: %w", symbol, err))
	}
	h.state = StateEnabled

	in.logger.Info().
		Str("symbol", symbol).
		Str("convention", conv.String()).
		Uint64("address", uint64(h.Address)).
		Msg("hook installed")

	return h, nil
}

// buildJump verifies the prologue and encodes the entry jump.
func (in *Installer) buildJump(addr, replacement uintptr) ([]byte, error) {
	prologue, err := in.patcher.inspect(addr, prologueWindow)
	if err != nil {
		return nil, fmt.Errorf("hook: failed to read prologue at %#x: %w", addr, err)
	}
	if err := checkPrologue(prologue); err != nil {
		return nil, err
	}
	return jumpTo(addr, replacement)
}

func (in *Installer) unregister(addr uintptr) {
	in.mu.Lock()
	delete(in.hooks, addr)
	in.mu.Unlock()
}

// Hooks returns a snapshot of the installed hooks.
func (in *Installer) Hooks() []*Hook {
	in.mu.Lock()
	defer in.mu.Unlock()

	out := make([]*Hook, 0, len(in.hooks))
	for _, h := range in.hooks {
		out = append(out, h)
	}
	return out
}

// patcher reads and rewrites instruction memory. It is a seam for
// testing the installation state machine without live patching.
type patcher interface {
	inspect(addr uintptr, n int) ([]byte, error)
	patch(addr uintptr, code []byte) error
}
