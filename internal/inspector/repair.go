package inspector

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// TrimTrailingZeros returns a copy of data without its run of trailing zero
// bytes. Data with no non-zero byte after index 0 is copied unchanged.
func TrimTrailingZeros(data []byte) []byte {
	for i := len(data) - 1; i > 0; i-- {
		if data[i] != 0 {
			return bytes.Clone(data[:i+1])
		}
	}
	return bytes.Clone(data)
}

// RepairFile writes src without its trailing zero bytes to dst and returns
// the number of bytes removed. src is never modified; dst must differ from it.
func RepairFile(src, dst string) (int, error) {
	srcAbs, err := filepath.Abs(src)
	if err != nil {
		return 0, invalidf("repair", src, "%v", err)
	}
	dstAbs, err := filepath.Abs(dst)
	if err != nil {
		return 0, invalidf("repair", dst, "%v", err)
	}
	if srcAbs == dstAbs {
		return 0, invalidf("repair", src, "destination must differ from source")
	}

	data, err := os.ReadFile(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, &PathError{Op: "repair", Path: src, Err: ErrNotFound}
		}
		return 0, ioFailure("repair", src, err)
	}

	// dst may be a symlink or hard link to src.
	if srcInfo, err := os.Stat(src); err == nil {
		if dstInfo, err := os.Stat(dst); err == nil && os.SameFile(srcInfo, dstInfo) {
			return 0, invalidf("repair", src, "destination %s is the same file as the source", dst)
		}
	}

	out := TrimTrailingZeros(data)
	if err := os.WriteFile(dst, out, 0o644); err != nil {
		return 0, ioFailure("repair", dst, err)
	}
	return len(data) - len(out), nil
}
