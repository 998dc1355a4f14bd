package inspector

// Marker is a fixed byte sequence expected at the head or tail of a JPEG.
type Marker []byte

var (
	// SOI 255 216 255
	startOfImage = Marker{0xFF, 0xD8, 0xFF}
	// EOI 255 217
	endOfImage = Marker{0xFF, 0xD9}
)

// StartOfImage returns a copy of the SOI marker.
func StartOfImage() Marker {
	return append(Marker(nil), startOfImage...)
}

// EndOfImage returns a copy of the EOI marker.
func EndOfImage() Marker {
	return append(Marker(nil), endOfImage...)
}

// matchHead compares buf against m position for position from index 0.
func (m Marker) matchHead(buf []byte) bool {
	if len(buf) < len(m) {
		return false
	}
	for i := range m {
		if buf[i] != m[i] {
			return false
		}
	}
	return true
}

// matchTail compares buf against m walking backward from the last byte of
// each, so a short read is compared from the tail inward.
func (m Marker) matchTail(buf []byte) bool {
	if len(buf) < len(m) {
		return false
	}
	for i := 1; i <= len(m); i++ {
		if buf[len(buf)-i] != m[len(m)-i] {
			return false
		}
	}
	return true
}
