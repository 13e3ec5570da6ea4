package fs

import (
	"os"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Kind classifies a directory entry.
type Kind int

const (
	KindUnknown Kind = iota
	KindFile
	KindDirectory
	KindSymlink
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	case KindSymlink:
		return "symlink"
	case KindOther:
		return "other"
	default:
		return "unknown"
	}
}

// Entry represents a single child of a directory on disk. Entries are values:
// a changed file is represented by a new Entry, never by mutating an old one.
type Entry struct {
	Name     string // raw path component
	FullPath string
	Kind     Kind
	Size     int64
	HasSize  bool
	Modified time.Time
	Mode     os.FileMode

	// SymlinkTarget is the link text of a symlink whose target resolves.
	// Broken or unreadable links leave it empty.
	SymlinkTarget string
	TargetIsDir   bool

	Hidden bool
}

// IsDir reports whether the entry can be navigated into, which includes
// symlinks that resolve to directories.
func (e Entry) IsDir() bool {
	return e.Kind == KindDirectory || (e.Kind == KindSymlink && e.TargetIsDir)
}

// IsSymlink reports whether the entry is a symbolic link.
func (e Entry) IsSymlink() bool {
	return e.Kind == KindSymlink
}

// IsBrokenSymlink reports whether the entry is a link that does not resolve.
func (e Entry) IsBrokenSymlink() bool {
	return e.Kind == KindSymlink && e.SymlinkTarget == ""
}

// DisplayName returns the NFC-normalized name used for rendering.
func (e Entry) DisplayName() string {
	return norm.NFC.String(e.Name)
}
