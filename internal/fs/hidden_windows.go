//go:build windows

package fs

import (
	"os"
	"syscall"
)

const fileAttributeHidden = 0x02

// IsHidden reports whether the entry carries the Windows hidden attribute.
// Dot-files count as hidden when the attributes cannot be read.
func IsHidden(fullPath string, name string) bool {
	attrs, err := fileAttributes(fullPath, name)
	if err != nil {
		return isDotName(name)
	}
	return attrs&fileAttributeHidden != 0 || isDotName(name)
}

func fileAttributes(fullPath, name string) (uint32, error) {
	target := fullPath
	if target == "" {
		target = name
	}
	if target == "" {
		return 0, os.ErrInvalid
	}

	ptr, err := syscall.UTF16PtrFromString(target)
	if err != nil {
		return 0, err
	}
	return syscall.GetFileAttributes(ptr)
}
