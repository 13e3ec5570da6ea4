//go:build !windows

package fs

// IsHidden reports whether name follows the dot-file convention.
func IsHidden(_ string, name string) bool {
	return isDotName(name)
}
