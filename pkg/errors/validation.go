package errors

import (
	"strings"
	"unicode"
)

// ValidateAppName validates a federated application name.
//
// App names become a directory under the types root and the prefix of
// every published manifest entry, so the rules are conservative:
//   - No empty names
//   - No control characters or null bytes
//   - No path separators or parent-directory segments
//   - Maximum length of 214 characters (the npm package name limit)
func ValidateAppName(name string) error {
	if name == "" {
		return New(ErrCodeConfigMissing, "app name cannot be empty")
	}

	if len(name) > 214 {
		return New(ErrCodeInvalidConfig, "app name too long (max 214 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidConfig, "app name contains invalid control characters")
		}
	}

	if strings.ContainsAny(name, "/\\") || name == "." || name == ".." {
		return New(ErrCodeInvalidConfig, "app name cannot contain path separators: %q", name)
	}

	return nil
}

// ValidateRelativePath validates a manifest entry or archive member path.
// Paths come from remote producers, so anything that could escape the
// install directory is rejected.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 1024 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No ".." segments
//   - No backslashes (Windows-style paths)
func ValidateRelativePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 1024
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /): %q", path)
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes: %q", path)
	}

	for _, seg := range strings.Split(path, "/") {
		if seg == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain parent directory segments: %q", path)
		}
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidSpecifier, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidSpecifier, "URL must use http or https scheme: %q", rawURL)
	}

	return nil
}
