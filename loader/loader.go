// Package loader reads the flat binary image format: bytes 0..8 are a
// little-endian entry-point address consumed by the CPU on reset; the
// rest is payload placed at its file offset. No header, no relocations,
// no section metadata.
package loader

import (
	"fmt"
	"os"

	"github.com/vm64fantasy/vm64/engine"
)

// LoadImage reads the file at path in full and copies it into mem
// starting at address 0, matching the format the CPU's Reset expects to
// find there (the first 8 bytes are the entry point it will load into
// IP).
func LoadImage(path string, mem *engine.Memory) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("loader: %w", err)
	}
	if uint64(len(data)) < 8 {
		return fmt.Errorf("loader: %s: image shorter than the 8-byte entry-point header", path)
	}
	if uint64(len(data)) > mem.Len() {
		return fmt.Errorf("loader: %s: image of %d bytes does not fit in %d bytes of memory", path, len(data), mem.Len())
	}

	mem.LoadImage(data)
	return nil
}
