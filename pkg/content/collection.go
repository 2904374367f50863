package content

import (
	"fmt"
)

// Collection is a list document stored as {"<key>": [...]}.
type Collection[T Record] struct {
	doc *document
	key string
}

func newCollection[T Record](doc *document) *Collection[T] {
	return &Collection[T]{doc: doc, key: doc.name}
}

// Name is the document key, e.g. "projects".
func (c *Collection[T]) Name() string { return c.key }

func (c *Collection[T]) read() ([]T, error) {
	data, err := c.doc.readBytes()
	if err != nil {
		return nil, err
	}
	if data == nil {
		return []T{}, nil
	}
	var wrapper map[string][]T
	if err := c.doc.decode(data, &wrapper); err != nil {
		return nil, err
	}
	items := wrapper[c.key]
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (c *Collection[T]) write(items []T) error {
	if items == nil {
		items = []T{}
	}
	for i := range items {
		normalizeRecord(&items[i])
	}
	return c.doc.write(map[string][]T{c.key: items})
}

// Read returns every record. A missing file reads as an empty list.
func (c *Collection[T]) Read() ([]T, error) {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	return c.read()
}

// Write replaces the whole list.
func (c *Collection[T]) Write(items []T) error {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	return c.write(items)
}

// GenerateID returns the next free id.
func (c *Collection[T]) GenerateID() (string, error) {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	items, err := c.read()
	if err != nil {
		return "", err
	}
	return nextIDOf(items), nil
}

// Get finds a record by id.
func (c *Collection[T]) Get(id string) (T, error) {
	var zero T
	items, err := c.Read()
	if err != nil {
		return zero, err
	}
	for i := range items {
		if recordID(&items[i]) == id {
			return items[i], nil
		}
	}
	return zero, fmt.Errorf("%s %s: %w", c.key, id, ErrNotFound)
}

// Create allocates an id and appends build(id) in one serialized write.
func (c *Collection[T]) Create(build func(id string) T) (T, error) {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()

	var zero T
	items, err := c.read()
	if err != nil {
		return zero, err
	}
	id := nextIDOf(items)
	item := build(id)
	setRecordID(&item, id)
	normalizeRecord(&item)

	if err := c.write(append(items, item)); err != nil {
		return zero, err
	}
	return item, nil
}

// Update applies fn to the record with the given id and persists the result.
func (c *Collection[T]) Update(id string, fn func(*T) error) (T, error) {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()

	var zero T
	items, err := c.read()
	if err != nil {
		return zero, err
	}
	for i := range items {
		if recordID(&items[i]) != id {
			continue
		}
		if err := fn(&items[i]); err != nil {
			return zero, err
		}
		setRecordID(&items[i], id)
		normalizeRecord(&items[i])
		if err := c.write(items); err != nil {
			return zero, err
		}
		return items[i], nil
	}
	return zero, fmt.Errorf("%s %s: %w", c.key, id, ErrNotFound)
}

// DeleteByID removes the record. A missing id returns false without touching the file.
func (c *Collection[T]) DeleteByID(id string) (bool, error) {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()

	items, err := c.read()
	if err != nil {
		return false, err
	}
	for i := range items {
		if recordID(&items[i]) == id {
			items = append(items[:i], items[i+1:]...)
			if err := c.write(items); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

// Version identifies the current stored state of the document.
func (c *Collection[T]) Version() (string, error) {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	return c.doc.version()
}

// WriteIfVersion replaces the list unless the document changed since version was taken.
func (c *Collection[T]) WriteIfVersion(items []T, version string) error {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	if items == nil {
		items = []T{}
	}
	for i := range items {
		normalizeRecord(&items[i])
	}
	return c.doc.writeIfVersion(map[string][]T{c.key: items}, version)
}

func nextIDOf[T Record](items []T) string {
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = recordID(&items[i])
	}
	return NextID(ids)
}
