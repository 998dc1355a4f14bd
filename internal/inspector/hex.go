package inspector

import "strings"

const hexDigits = "0123456789ABCDEF"

func appendHex(dst []byte, b byte) []byte {
	return append(dst, hexDigits[b>>4], hexDigits[b&0x0F])
}

func hexString(data []byte) string {
	buf := make([]byte, 0, 2*len(data))
	for _, b := range data {
		buf = appendHex(buf, b)
	}
	return string(buf)
}

// hexDump writes "XX " per byte and a newline after every 16th byte.
func hexDump(data []byte) string {
	buf := make([]byte, 0, 3*len(data)+len(data)/16)
	for i, b := range data {
		buf = appendHex(buf, b)
		buf = append(buf, ' ')
		if (i+1)%16 == 0 {
			buf = append(buf, '\n')
		}
	}
	return string(buf)
}

// repeatingUnit renders the bytes from window[1] up to and including the
// next occurrence of window[0], stopping before the EOI marker.
func repeatingUnit(window []byte) string {
	if len(window) == 0 {
		return ""
	}
	first := window[0]
	buf := make([]byte, 0, 2*len(window))
	for i := 1; i < len(window)-len(endOfImage); i++ {
		buf = appendHex(buf, window[i])
		if window[i] == first {
			break
		}
	}
	return string(buf)
}

// repetitionCount counts non-overlapping occurrences of the repeating unit in
// the hex rendering of window. The unit is matched as a literal string.
func repetitionCount(window []byte) int {
	unit := repeatingUnit(window)
	if unit == "" {
		return 0
	}
	return strings.Count(hexString(window), unit)
}
