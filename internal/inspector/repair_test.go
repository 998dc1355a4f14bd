package inspector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrimTrailingZeros(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want []byte
	}{
		{"no trailing zeros", []byte{0xFF, 0xD9}, []byte{0xFF, 0xD9}},
		{"trailing zeros", []byte{0xFF, 0xD9, 0x00, 0x00}, []byte{0xFF, 0xD9}},
		{"all zeros", []byte{0x00, 0x00, 0x00}, []byte{0x00, 0x00, 0x00}},
		{"only first byte set", []byte{0x01, 0x00}, []byte{0x01, 0x00}},
		{"empty", []byte{}, []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TrimTrailingZeros(tt.in))
		})
	}
}

func TestTrimTrailingZerosCopies(t *testing.T) {
	in := []byte{0xFF, 0xD9, 0x00}
	out := TrimTrailingZeros(in)
	out[0] = 0x00
	assert.Equal(t, byte(0xFF), in[0])
}

func TestRepairFile(t *testing.T) {
	data := append(jpegWithTail(0x01, 0x02), 0x00, 0x00, 0x00)
	src := writeFile(t, "padded.jpg", data)
	dst := filepath.Join(t.TempDir(), "fixed.jpg")

	removed, err := RepairFile(src, dst)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	orig, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, data, orig)

	in, err := Open(dst)
	require.NoError(t, err)
	assert.True(t, in.TerminatorPresent())
}

func TestRepairFileRejectsInPlace(t *testing.T) {
	src := writeFile(t, "padded.jpg", []byte{0xFF, 0xD9, 0x00})

	_, err := RepairFile(src, src)
	assert.True(t, IsInvalidInput(err))

	_, err = RepairFile(filepath.Join(t.TempDir(), "missing.jpg"), filepath.Join(t.TempDir(), "out.jpg"))
	assert.True(t, IsNotFound(err))
}

func TestRepairFileRejectsLinkedDestination(t *testing.T) {
	data := append(jpegWithTail(0x01), 0x00, 0x00, 0x00)
	src := writeFile(t, "padded.jpg", data)
	dir := t.TempDir()

	symlink := filepath.Join(dir, "link.jpg")
	require.NoError(t, os.Symlink(src, symlink))
	hardlink := filepath.Join(dir, "hard.jpg")
	require.NoError(t, os.Link(src, hardlink))

	for _, dst := range []string{symlink, hardlink} {
		removed, err := RepairFile(src, dst)
		require.Error(t, err, dst)
		assert.True(t, IsInvalidInput(err), dst)
		assert.Zero(t, removed)

		after, err := os.ReadFile(src)
		require.NoError(t, err)
		assert.Equal(t, data, after, "source must be left untouched")
	}
}
