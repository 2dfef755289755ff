package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// ImageExtensions lists the file extensions accepted as sketch input,
// matching the "Image Files" filter of the open dialog.
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".bmp"}

// OutputExtensions lists the file extensions a sketch can be saved as.
var OutputExtensions = []string{".png", ".jpg", ".jpeg"}

// ValidatePath validates a user-supplied file path.
//
// Validation rules:
//   - Path cannot be empty or whitespace only
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// ValidateImageExtension checks that path ends in one of allowed
// (case-insensitive). It returns an INVALID_FORMAT error otherwise.
func ValidateImageExtension(path string, allowed []string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return New(ErrCodeInvalidFormat, "missing file extension (must be one of: %s)", strings.Join(allowed, ", "))
	}
	for _, a := range allowed {
		if ext == a {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "unsupported file extension %q (must be one of: %s)", ext, strings.Join(allowed, ", "))
}
