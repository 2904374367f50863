package content

// Singleton is a single-object document. With an empty key the object is
// stored flat, otherwise it is wrapped as {"<key>": {...}}.
type Singleton[T any] struct {
	doc      *document
	key      string
	defaults func() T
}

func newSingleton[T any](doc *document, key string, defaults func() T) *Singleton[T] {
	return &Singleton[T]{doc: doc, key: key, defaults: defaults}
}

// Name is the document name, e.g. "contacts".
func (s *Singleton[T]) Name() string { return s.doc.name }

func (s *Singleton[T]) read() (T, error) {
	data, err := s.doc.readBytes()
	if err != nil {
		var zero T
		return zero, err
	}
	if data == nil {
		return s.defaults(), nil
	}
	if s.key == "" {
		v := s.defaults()
		if err := s.doc.decode(data, &v); err != nil {
			var zero T
			return zero, err
		}
		return v, nil
	}
	wrapper := map[string]T{}
	if err := s.doc.decode(data, &wrapper); err != nil {
		var zero T
		return zero, err
	}
	v, ok := wrapper[s.key]
	if !ok {
		return s.defaults(), nil
	}
	return v, nil
}

func (s *Singleton[T]) payload(v T) any {
	if s.key == "" {
		return v
	}
	return map[string]T{s.key: v}
}

// Read returns the stored object, or the defaults when the file is missing.
func (s *Singleton[T]) Read() (T, error) {
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()
	return s.read()
}

// Write replaces the stored object.
func (s *Singleton[T]) Write(v T) error {
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()
	return s.doc.write(s.payload(v))
}

// Update applies fn to the current object and persists it in one serialized step.
func (s *Singleton[T]) Update(fn func(*T) error) (T, error) {
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()

	var zero T
	v, err := s.read()
	if err != nil {
		return zero, err
	}
	if err := fn(&v); err != nil {
		return zero, err
	}
	if err := s.doc.write(s.payload(v)); err != nil {
		return zero, err
	}
	return v, nil
}

func (s *Singleton[T]) Version() (string, error) {
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()
	return s.doc.version()
}

// WriteIfVersion replaces the object unless the document changed since version was taken.
func (s *Singleton[T]) WriteIfVersion(v T, version string) error {
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()
	return s.doc.writeIfVersion(s.payload(v), version)
}
