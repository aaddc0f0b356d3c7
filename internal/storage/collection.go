package storage

import "context"

// Collection is a typed view over one collection file. Snapshot reads are
// lock-free; Update runs a whole read-modify-write sequence inside the
// file's lock so two concurrent logical mutations cannot lose each
// other's changes.
type Collection[T any] struct {
	store *FileStore
	file  string
}

func NewCollection[T any](store *FileStore, file string) *Collection[T] {
	return &Collection[T]{store: store, file: file}
}

// All returns the current snapshot. The result is never nil.
func (c *Collection[T]) All(ctx context.Context) ([]T, error) {
	var list []T
	if err := c.store.Read(c.file, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []T{}
	}
	return list, nil
}

// Replace persists an entire replacement collection. This is the raw
// snapshot write; it does not re-read first, so interleaving it with
// Update calls is last-writer-wins.
func (c *Collection[T]) Replace(ctx context.Context, list []T) error {
	if list == nil {
		list = []T{}
	}
	return c.store.Write(ctx, c.file, list)
}

// Update applies mutate to the freshly read collection and persists the
// result, all under the file's lock. Returning an error from mutate
// aborts without touching the file.
func (c *Collection[T]) Update(ctx context.Context, mutate func([]T) ([]T, error)) error {
	release, err := c.store.acquire(ctx, c.file)
	if err != nil {
		return err
	}
	defer release()

	var list []T
	if err := c.store.Read(c.file, &list); err != nil {
		return err
	}
	mutated, err := mutate(list)
	if err != nil {
		return err
	}
	if mutated == nil {
		mutated = []T{}
	}
	return c.store.writeLocked(c.file, mutated)
}
