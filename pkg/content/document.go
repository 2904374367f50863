package content

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var (
	ErrNotFound        = errors.New("content: record not found")
	ErrVersionConflict = errors.New("content: document changed since it was read")
)

// WriteRecorder is notified after every successful document write.
type WriteRecorder interface {
	ObserveWrite(document string)
}

// document is one JSON file guarded by its own mutex.
type document struct {
	name     string
	path     string
	mu       sync.Mutex
	recorder WriteRecorder
}

func newDocument(dir, name string, rec WriteRecorder) *document {
	return &document{
		name:     name,
		path:     filepath.Join(dir, name+".json"),
		recorder: rec,
	}
}

// readBytes returns nil, nil when the file does not exist.
func (d *document) readBytes() ([]byte, error) {
	data, err := os.ReadFile(d.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", d.name, err)
	}
	return data, nil
}

func (d *document) decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", d.name, err)
	}
	return nil
}

// version hashes the stored bytes. A missing file has the hash of empty input.
func (d *document) version() (string, error) {
	data, err := d.readBytes()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// write replaces the file atomically with the indented encoding of v.
func (d *document) write(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", d.name, err)
	}

	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+d.name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", d.name, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", d.name, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close %s: %w", d.name, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod %s: %w", d.name, err)
	}
	if err := os.Rename(tmpName, d.path); err != nil {
		cleanup()
		return fmt.Errorf("replace %s: %w", d.name, err)
	}

	if d.recorder != nil {
		d.recorder.ObserveWrite(d.name)
	}
	return nil
}

// writeIfVersion writes v only when the stored bytes still hash to version.
// Callers must hold d.mu.
func (d *document) writeIfVersion(v any, version string) error {
	current, err := d.version()
	if err != nil {
		return err
	}
	if current != version {
		return fmt.Errorf("%s: %w", d.name, ErrVersionConflict)
	}
	return d.write(v)
}
