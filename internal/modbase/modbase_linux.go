//go:build linux

package modbase

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

func baseAddress(name string) (uint64, error) {
	if name == "" {
		exe, err := os.Readlink("/proc/self/exe")
		if err != nil {
			return 0, fmt.Errorf("modbase: failed to resolve executable path: %w", err)
		}
		name = filepath.Base(exe)
	}

	f, err := os.Open("/proc/self/maps")
	if err != nil {
		return 0, fmt.Errorf("modbase: failed to open maps: %w", err)
	}
	defer f.Close()

	return scanMaps(f, name)
}

// scanMaps finds the lowest mapping whose backing file matches the
// module name. Maps lines look like:
//
//	55d0a1e00000-55d0a1e25000 r--p 00000000 103:02 1234  /usr/bin/foo
func scanMaps(r io.Reader, name string) (uint64, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 6 {
			continue
		}
		if filepath.Base(fields[5]) != name {
			continue
		}

		start, _, ok := strings.Cut(fields[0], "-")
		if !ok {
			continue
		}
		addr, err := strconv.ParseUint(start, 16, 64)
		if err != nil {
			continue
		}
		return addr, nil
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("modbase: failed to read maps: %w", err)
	}

	return 0, fmt.Errorf("%w: %s", ErrModuleNotFound, name)
}
