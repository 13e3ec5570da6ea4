package fs

import (
	"context"
	"errors"
	"io"
	"os"
	"syscall"
)

// readBatchSize bounds how many names are pulled from the directory handle
// between cancellation checks.
const readBatchSize = 256

// ReadDirectory lists the direct children of path, resolving each through
// ReadEntry and ordering them with SortEntries. Failures to open or read the
// directory come back as *LoadError; cancellation of ctx comes back as
// ctx.Err() and any partial listing is dropped.
func ReadDirectory(ctx context.Context, path string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir, err := os.Open(path)
	if err != nil {
		return nil, newLoadError(path, err)
	}
	defer func() {
		_ = dir.Close()
	}()

	info, err := dir.Stat()
	if err != nil {
		return nil, newLoadError(path, err)
	}
	if !info.IsDir() {
		return nil, &LoadError{Path: path, Reason: ReasonNotADirectory, Err: syscall.ENOTDIR}
	}

	entries := make([]Entry, 0, 64)
	for {
		names, readErr := dir.Readdirnames(readBatchSize)
		for _, name := range names {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			entries = append(entries, ReadEntry(path, name))
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return nil, newLoadError(path, readErr)
		}
		if len(names) == 0 {
			break
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	SortEntries(entries)
	return entries, nil
}
