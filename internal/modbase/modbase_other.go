//go:build !windows && !linux

package modbase

func baseAddress(string) (uint64, error) {
	return 0, ErrUnsupported
}
