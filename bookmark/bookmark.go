// Package bookmark tracks the byte offset and length of lines the action
// layer elected to pad before emission, so a longer replacement discovered
// later in the stream can still be written in place without disturbing any
// byte written after it.
package bookmark

import "fmt"

// Key is an opaque identity used to look a Bookmark up after it has been
// emitted. Keys are issued by a Registry and must be unique.
type Key int64

// Bookmark records where a padded line actually landed in the output.
type Bookmark struct {
	OriginalText string
	Offset       int64
	Length       int64 // includes the terminating newline
}

// DuplicateKeyError is returned when a key is recorded twice.
type DuplicateKeyError struct{ Key Key }

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("bookmark: key %d already recorded", e.Key)
}

// LookupMissError is returned by Lookup for a key that was never recorded.
// It is a typed error surfaced at finalisation time.
type LookupMissError struct{ Key Key }

func (e *LookupMissError) Error() string {
	return fmt.Sprintf("bookmark: no entry recorded for key %d", e.Key)
}

// Registry owns the bookmark table for one stream. It is not safe for
// concurrent use — the pipeline is single-threaded by design (see §5).
type Registry struct {
	marks map[Key]Bookmark
	next  Key
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{marks: make(map[Key]Bookmark)}
}

// Reserve issues a fresh, unused key. Callers attach the key to a line
// before it reaches the encoder; the encoder records the (offset, length)
// against it once the line is actually written.
func (r *Registry) Reserve() Key {
	r.next++
	return r.next
}

// Record stores the byte range a bookmarked line occupies in the output.
// Recording the same key twice is an error.
func (r *Registry) Record(key Key, originalText string, offset, length int64) error {
	if _, exists := r.marks[key]; exists {
		return &DuplicateKeyError{Key: key}
	}
	r.marks[key] = Bookmark{OriginalText: originalText, Offset: offset, Length: length}
	return nil
}

// Lookup retrieves a previously recorded bookmark.
func (r *Registry) Lookup(key Key) (Bookmark, error) {
	bm, ok := r.marks[key]
	if !ok {
		return Bookmark{}, &LookupMissError{Key: key}
	}
	return bm, nil
}
