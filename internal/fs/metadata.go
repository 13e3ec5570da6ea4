package fs

import (
	"os"
	"path/filepath"
)

// lstatFn and statFn are overridable in tests.
var (
	lstatFn    = os.Lstat
	statFn     = os.Stat
	readlinkFn = os.Readlink
)

// ReadEntry resolves the metadata of dir/name. It blocks on the filesystem
// and never fails: an entry that cannot be inspected is returned with
// KindUnknown and no size or modification time.
func ReadEntry(dir, name string) Entry {
	fullPath := filepath.Join(dir, name)
	entry := Entry{
		Name:     name,
		FullPath: fullPath,
		Kind:     KindUnknown,
		Hidden:   IsHidden(fullPath, name),
	}

	info, err := lstatFn(fullPath)
	if err != nil {
		return entry
	}

	entry.Mode = info.Mode()
	entry.Modified = info.ModTime()
	entry.Size = info.Size()
	entry.HasSize = true

	mode := info.Mode()
	switch {
	case mode&os.ModeSymlink != 0:
		entry.Kind = KindSymlink
		resolveSymlink(&entry)
	case mode.IsDir():
		entry.Kind = KindDirectory
	case mode.IsRegular():
		entry.Kind = KindFile
	default:
		entry.Kind = KindOther
	}

	return entry
}

func resolveSymlink(entry *Entry) {
	target, err := readlinkFn(entry.FullPath)
	if err != nil {
		return
	}

	targetInfo, err := statFn(entry.FullPath)
	if err != nil {
		return
	}

	entry.SymlinkTarget = target
	entry.TargetIsDir = targetInfo.IsDir()
}
