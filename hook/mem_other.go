//go:build !windows && !linux && !darwin

package hook

type memPatcher struct{}

func (memPatcher) inspect(addr uintptr, n int) ([]byte, error) {
	return nil, ErrUnsupportedPlatform
}

func (memPatcher) patch(addr uintptr, code []byte) error {
	return ErrUnsupportedPlatform
}
