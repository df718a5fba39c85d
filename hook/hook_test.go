//go:build amd64

package hook

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remora-dev/remora/internal/pdbtest"
	"github.com/remora-dev/remora/symdb"
)

// standardPrologue is push rbp; mov rbp, rsp; sub rsp, 0x20; nop sled.
var standardPrologue = []byte{
	0x55,
	0x48, 0x89, 0xE5,
	0x48, 0x83, 0xEC, 0x20,
	0x90, 0x90, 0x90, 0x90, 0x90, 0x90, 0x90, 0x90,
}

type fakePatcher struct {
	mu       sync.Mutex
	prologue []byte
	patchErr error
	patched  map[uintptr][]byte
}

func newFakePatcher() *fakePatcher {
	return &fakePatcher{
		prologue: standardPrologue,
		patched:  make(map[uintptr][]byte),
	}
}

func (p *fakePatcher) inspect(addr uintptr, n int) ([]byte, error) {
	out := make([]byte, n)
	copy(out, p.prologue)
	return out, nil
}

func (p *fakePatcher) patch(addr uintptr, code []byte) error {
	if p.patchErr != nil {
		return p.patchErr
	}
	p.mu.Lock()
	p.patched[addr] = append([]byte(nil), code...)
	p.mu.Unlock()
	return nil
}

const testBase = 0x140000000

func testDB(t *testing.T) *symdb.DB {
	t.Helper()

	img := pdbtest.Image(
		[]pdbtest.Section{{Name: ".text", VirtualAddress: 0x1000}},
		[]pdbtest.Symbol{
			{Name: "?update@Entity@@QEAAXM@Z", Section: 1, Offset: 0x100, Flags: pdbtest.FlagFunction},
			{Name: "?render@Entity@@QEAAXXZ", Section: 1, Offset: 0x200, Flags: pdbtest.FlagFunction},
		},
	)
	path := filepath.Join(t.TempDir(), "game.pdb")
	require.NoError(t, os.WriteFile(path, img, 0o644))

	db, err := symdb.Load(path, "game.exe", symdb.WithBaseAddress(testBase))
	require.NoError(t, err)
	return db
}

func TestInstall(t *testing.T) {
	patcher := newFakePatcher()
	in := NewInstaller(testDB(t), withPatcher(patcher))

	const replacement = uintptr(testBase + 0x900000)
	h, err := in.Install("?update@Entity@@QEAAXM@Z", "__thiscall", replacement)
	require.NoError(t, err)

	assert.Equal(t, StateEnabled, h.State())
	assert.Equal(t, uintptr(testBase+0x1100), h.Address)

	code := patcher.patched[h.Address]
	require.Len(t, code, jmpInstrLength)
	assert.Equal(t, byte(0xE9), code[0])

	disp := int32(binary.LittleEndian.Uint32(code[1:]))
	assert.Equal(t, replacement, h.Address+jmpInstrLength+uintptr(disp))
}

func TestInstallUnknownConvention(t *testing.T) {
	patcher := newFakePatcher()
	in := NewInstaller(testDB(t), withPatcher(patcher))

	h, err := in.Install("?update@Entity@@QEAAXM@Z", "__borland_fastcall", 0x1000)
	assert.ErrorIs(t, err, ErrUnknownConvention)
	assert.Equal(t, StateFailed, h.State())
	assert.Empty(t, patcher.patched)
}

func TestInstallUnknownSymbol(t *testing.T) {
	patcher := newFakePatcher()
	in := NewInstaller(testDB(t), withPatcher(patcher))

	h, err := in.Install("?missing@@YAXXZ", "__cdecl", 0x1000)
	assert.ErrorIs(t, err, ErrSymbolNotFound)
	assert.Equal(t, StateFailed, h.State())
	assert.Empty(t, patcher.patched)
}

func TestInstallDuplicateKeepsOriginal(t *testing.T) {
	patcher := newFakePatcher()
	in := NewInstaller(testDB(t), withPatcher(patcher))

	first, err := in.Install("?update@Entity@@QEAAXM@Z", "__thiscall", testBase+0x900000)
	require.NoError(t, err)

	second, err := in.Install("?update@Entity@@QEAAXM@Z", "__thiscall", testBase+0x910000)
	assert.ErrorIs(t, err, ErrDuplicateHook)
	assert.Equal(t, StateFailed, second.State())

	// The original hook and its patch are untouched.
	assert.Equal(t, StateEnabled, first.State())
	assert.Len(t, patcher.patched, 1)
}

func TestInstallUnpatchablePrologue(t *testing.T) {
	patcher := newFakePatcher()
	patcher.prologue = bytes.Repeat([]byte{0xFF}, prologueWindow)
	in := NewInstaller(testDB(t), withPatcher(patcher))

	h, err := in.Install("?update@Entity@@QEAAXM@Z", "__thiscall", testBase+0x900000)
	assert.ErrorIs(t, err, ErrUnpatchablePrologue)
	assert.Equal(t, StateFailed, h.State())
	assert.Empty(t, patcher.patched)
}

func TestInstallFailureIsolated(t *testing.T) {
	patcher := newFakePatcher()
	patcher.patchErr = ErrUnsupportedPlatform
	in := NewInstaller(testDB(t), withPatcher(patcher))

	h, err := in.Install("?update@Entity@@QEAAXM@Z", "__thiscall", testBase+0x900000)
	require.Error(t, err)
	assert.Equal(t, StateFailed, h.State())

	// A failed install releases the address and other installs proceed.
	patcher.patchErr = nil
	h2, err := in.Install("?render@Entity@@QEAAXXZ", "__thiscall", testBase+0x910000)
	require.NoError(t, err)
	assert.Equal(t, StateEnabled, h2.State())

	retried, err := in.Install("?update@Entity@@QEAAXM@Z", "__thiscall", testBase+0x900000)
	require.NoError(t, err)
	assert.Equal(t, StateEnabled, retried.State())
}

func TestInstallConcurrentDistinctAddresses(t *testing.T) {
	patcher := newFakePatcher()
	in := NewInstaller(testDB(t), withPatcher(patcher))

	symbols := []string{"?update@Entity@@QEAAXM@Z", "?render@Entity@@QEAAXXZ"}

	var wg sync.WaitGroup
	results := make([]*Hook, len(symbols))
	for i, sym := range symbols {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = in.Install(sym, "__thiscall", testBase+0x900000)
		}()
	}
	wg.Wait()

	for _, h := range results {
		require.NotNil(t, h)
		assert.Equal(t, StateEnabled, h.State())
	}
	assert.Len(t, in.Hooks(), 2)
}

func TestJumpTo(t *testing.T) {
	code, err := jumpTo(0x1000, 0x2000)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xE9, 0xFB, 0x0F, 0x00, 0x00}, code)

	// Backward jumps encode a negative displacement.
	code, err = jumpTo(0x2000, 0x1000)
	require.NoError(t, err)
	assert.Equal(t, byte(0xE9), code[0])
	assert.Equal(t, int32(-0x1005), int32(binary.LittleEndian.Uint32(code[1:])))

	_, err = jumpTo(0, 1<<40)
	assert.ErrorIs(t, err, ErrJumpOutOfRange)
}

func TestCheckPrologue(t *testing.T) {
	assert.NoError(t, checkPrologue(standardPrologue))
	assert.ErrorIs(t, checkPrologue(bytes.Repeat([]byte{0xFF}, prologueWindow)), ErrUnpatchablePrologue)
}

func TestFuncAt(t *testing.T) {
	f := FuncAt[func(int) int](0xdeadbeef)
	assert.NotNil(t, f)
}
