package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// hashRegex matches abbreviated or full commit hashes.
var hashRegex = regexp.MustCompile(`^[0-9a-f]+$`)

// ValidateHash validates a commit hash supplied by a caller (highlight
// requests, CLI flags). Hashes are lowercase hex, at most 64 characters
// (SHA-256 object format).
func ValidateHash(hash string) error {
	if hash == "" {
		return New(ErrCodeInvalidInput, "commit hash cannot be empty")
	}
	if len(hash) > 64 {
		return New(ErrCodeInvalidInput, "commit hash too long (max 64 characters)")
	}
	if !hashRegex.MatchString(hash) {
		return New(ErrCodeInvalidInput, "invalid commit hash: %q", hash)
	}
	return nil
}

// ValidatePath validates a repository path supplied on the command line or
// in configuration.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
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

// NormalizeBasePath returns p with exactly one leading slash and no trailing
// slash. The empty string and "/" both normalize to "".
func NormalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	return "/" + p
}
