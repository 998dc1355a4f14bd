package utils

import (
	"path/filepath"
	"strings"
)

// IsJPEGExtension reports whether ext is .jpg or .jpeg, ignoring case.
func IsJPEGExtension(ext string) bool {
	return strings.EqualFold(ext, ".jpg") || strings.EqualFold(ext, ".jpeg")
}

// HasDisallowedExtension reports whether name carries an extension other
// than .jpg/.jpeg. Names without any extension are allowed.
func HasDisallowedExtension(name string) bool {
	ext := filepath.Ext(name)
	return ext != "" && !IsJPEGExtension(ext)
}
