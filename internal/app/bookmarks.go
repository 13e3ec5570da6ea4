package app

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/kk-code-lab/millr/internal/bookmarks"
	"github.com/kk-code-lab/millr/internal/logging"
)

const (
	bookmarkTimeout    = 2 * time.Second
	bookmarkQueueDepth = 16
)

type markOpKind int

const (
	markSet markOpKind = iota
	markDelete
	tagAdd
	tagRemove
)

// markOp is one pending store write. key is empty for tag operations.
type markOp struct {
	kind markOpKind
	key  string
	path string
}

// markBook keeps bookmarks and tags in memory for the UI loop and writes
// changes to the store on a background goroutine. Without a store it still
// works for the current session.
type markBook struct {
	paths map[rune]string
	tags  map[string]struct{}

	store  *bookmarks.Store
	writes chan markOp
	errs   chan error
	done   chan struct{}
}

func openMarks(path string) *markBook {
	mb := &markBook{
		paths: make(map[rune]string),
		tags:  make(map[string]struct{}),
	}
	if path == "" {
		return mb
	}

	store, err := bookmarks.Open(path)
	if err != nil {
		logging.Warn("bookmarks unavailable", logging.String("path", path), logging.Err(err))
		return mb
	}

	ctx, cancel := context.WithTimeout(context.Background(), bookmarkTimeout)
	defer cancel()
	list, err := store.List(ctx)
	if err != nil {
		logging.Warn("load bookmarks", logging.String("path", path), logging.Err(err))
	}
	for _, b := range list {
		key, size := utf8.DecodeRuneInString(b.Key)
		if key == utf8.RuneError || size != len(b.Key) {
			continue
		}
		mb.paths[key] = b.Path
	}
	tagged, err := store.Tags(ctx)
	if err != nil {
		logging.Warn("load tags", logging.String("path", path), logging.Err(err))
	}
	for _, p := range tagged {
		mb.tags[p] = struct{}{}
	}

	mb.store = store
	mb.writes = make(chan markOp, bookmarkQueueDepth)
	mb.errs = make(chan error, 1)
	mb.done = make(chan struct{})
	go mb.persist()
	return mb
}

func (mb *markBook) get(key rune) (string, bool) {
	path, ok := mb.paths[key]
	return path, ok
}

func (mb *markBook) set(key rune, path string) {
	mb.paths[key] = path
	mb.enqueue(markOp{kind: markSet, key: string(key), path: path})
}

// remove forgets a bookmark and reports whether it existed.
func (mb *markBook) remove(key rune) bool {
	if _, ok := mb.paths[key]; !ok {
		return false
	}
	delete(mb.paths, key)
	mb.enqueue(markOp{kind: markDelete, key: string(key)})
	return true
}

func (mb *markBook) tagged(path string) bool {
	_, ok := mb.tags[path]
	return ok
}

// toggleTag flips the tag on path and reports whether it is now tagged.
func (mb *markBook) toggleTag(path string) bool {
	if mb.tagged(path) {
		delete(mb.tags, path)
		mb.enqueue(markOp{kind: tagRemove, path: path})
		return false
	}
	mb.tags[path] = struct{}{}
	mb.enqueue(markOp{kind: tagAdd, path: path})
	return true
}

func (mb *markBook) enqueue(op markOp) {
	if mb.writes == nil {
		return
	}
	select {
	case mb.writes <- op:
	default:
		logging.Warn("bookmark write queue full", logging.String("key", op.key), logging.String("path", op.path))
	}
}

// errors delivers persistence failures to the UI loop. It is nil, and so
// never ready, without a store.
func (mb *markBook) errors() <-chan error {
	return mb.errs
}

func (mb *markBook) persist() {
	defer close(mb.done)
	for op := range mb.writes {
		ctx, cancel := context.WithTimeout(context.Background(), bookmarkTimeout)
		var err error
		switch op.kind {
		case markSet:
			err = mb.store.Set(ctx, op.key, op.path)
		case markDelete:
			err = mb.store.Delete(ctx, op.key)
		case tagAdd:
			err = mb.store.Tag(ctx, op.path)
		case tagRemove:
			err = mb.store.Untag(ctx, op.path)
		}
		cancel()
		if err != nil {
			logging.Warn("bookmark not saved", logging.String("key", op.key), logging.String("path", op.path), logging.Err(err))
			select {
			case mb.errs <- err:
			default:
			}
		}
	}
}

// close flushes queued writes and closes the store.
func (mb *markBook) close() error {
	if mb.store == nil {
		return nil
	}
	close(mb.writes)
	<-mb.done
	return mb.store.Close()
}
