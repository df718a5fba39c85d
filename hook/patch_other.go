//go:build !amd64

package hook

const (
	jmpInstrLength = 5
	prologueWindow = 16
)

func jumpTo(from, to uintptr) ([]byte, error) {
	return nil, ErrUnsupportedPlatform
}

func checkPrologue(code []byte) error {
	return ErrUnsupportedPlatform
}
