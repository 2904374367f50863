// Package ingest downloads chat photos and stores them under the site's
// images directory.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Dmitrii-VO/SaitAlevit/pkg/ports/botport"

	"github.com/sethvargo/go-retry"
)

const (
	DefaultMaxFileSize     = 10 << 20
	DefaultAttempts        = 3
	DefaultRetryDelay      = time.Second
	DefaultDownloadTimeout = 30 * time.Second

	maxNameLength = 100
)

var (
	ErrFileTooLarge     = errors.New("file exceeds the size limit")
	ErrEmptyFile        = errors.New("downloaded file is empty")
	ErrUnknownSubfolder = errors.New("unknown image subfolder")
)

var subfolders = map[string]bool{
	"projects": true,
	"works":    true,
	"reviews":  true,
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// IngestError is returned when the remote file could not be fetched.
type IngestError struct {
	Stage    string
	Attempts int
	Err      error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ingest %s failed after %d attempt(s): %v", e.Stage, e.Attempts, e.Err)
}

func (e *IngestError) Unwrap() error { return e.Err }

// AttemptRecorder counts fetch attempts by result ("ok", "retry", "failed").
type AttemptRecorder interface {
	ObserveIngestAttempt(result string)
}

type Pipeline struct {
	transport botport.FileTransport
	root      string
	log       *slog.Logger
	recorder  AttemptRecorder
	now       func() time.Time

	MaxFileSize     int64
	Attempts        int
	RetryDelay      time.Duration
	DownloadTimeout time.Duration
}

// New builds a pipeline storing files below root/images. rec may be nil.
func New(transport botport.FileTransport, root string, logger *slog.Logger, rec AttemptRecorder) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		transport:       transport,
		root:            root,
		log:             logger,
		recorder:        rec,
		now:             time.Now,
		MaxFileSize:     DefaultMaxFileSize,
		Attempts:        DefaultAttempts,
		RetryDelay:      DefaultRetryDelay,
		DownloadTimeout: DefaultDownloadTimeout,
	}
}

// Ingest fetches the file and returns its site-relative path, e.g.
// "images/projects/photos_file_12-1714550400000.jpg".
func (p *Pipeline) Ingest(ctx context.Context, handle botport.FileHandle, subfolder string) (string, error) {
	if !subfolders[subfolder] {
		return "", fmt.Errorf("%w: %q", ErrUnknownSubfolder, subfolder)
	}
	if p.MaxFileSize > 0 && handle.Size > p.MaxFileSize {
		return "", ErrFileTooLarge
	}

	var (
		remote   botport.RemoteFile
		data     []byte
		stage    string
		attempts int
	)
	err := retry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		attempts++
		var err error
		remote, data, stage, err = p.fetch(ctx, handle)
		switch {
		case err == nil:
			p.observe("ok")
			return nil
		case ctx.Err() == nil && isRetryable(err):
			p.observe("retry")
			p.log.Warn("photo fetch failed, retrying",
				"file_id", handle.FileID,
				"stage", stage,
				"attempt", attempts,
				"error", err)
			return retry.RetryableError(err)
		default:
			p.observe("failed")
			return err
		}
	})
	if err != nil {
		if errors.Is(err, ErrFileTooLarge) || errors.Is(err, ErrEmptyFile) {
			return "", err
		}
		p.log.Error("photo fetch gave up",
			"file_id", handle.FileID,
			"stage", stage,
			"attempts", attempts,
			"error", err)
		return "", &IngestError{Stage: stage, Attempts: attempts, Err: err}
	}

	rel, err := p.persist(remote, data, subfolder)
	if err != nil {
		return "", err
	}
	p.log.Info("photo stored", "file_id", handle.FileID, "path", rel, "bytes", len(data), "attempts", attempts)
	return rel, nil
}

// linear backoff: attempt × RetryDelay, Attempts-1 retries.
func (p *Pipeline) backoff() retry.Backoff {
	var n int64
	b := retry.BackoffFunc(func() (time.Duration, bool) {
		n++
		return time.Duration(n) * p.RetryDelay, false
	})
	retries := p.Attempts - 1
	if retries < 0 {
		retries = 0
	}
	return retry.WithMaxRetries(uint64(retries), b)
}

func (p *Pipeline) fetch(ctx context.Context, handle botport.FileHandle) (botport.RemoteFile, []byte, string, error) {
	if p.DownloadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.DownloadTimeout)
		defer cancel()
	}

	remote, err := p.transport.ResolveFile(ctx, handle.FileID)
	if err != nil {
		return botport.RemoteFile{}, nil, "resolve", err
	}
	if p.MaxFileSize > 0 && remote.Size > p.MaxFileSize {
		return remote, nil, "resolve", ErrFileTooLarge
	}

	data, err := p.transport.DownloadFile(ctx, remote)
	if err != nil {
		return remote, nil, "download", err
	}
	if p.MaxFileSize > 0 && int64(len(data)) > p.MaxFileSize {
		return remote, nil, "download", ErrFileTooLarge
	}
	if len(data) == 0 {
		return remote, nil, "download", ErrEmptyFile
	}
	return remote, data, "download", nil
}

func (p *Pipeline) persist(remote botport.RemoteFile, data []byte, subfolder string) (string, error) {
	name := FileName(remote.Path, p.now())
	dir := filepath.Join(p.root, "images", subfolder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}

	full := filepath.Join(dir, name)
	f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(full)
		return "", fmt.Errorf("write image file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(full)
		return "", fmt.Errorf("close image file: %w", err)
	}
	return path.Join("images", subfolder, name), nil
}

func (p *Pipeline) observe(result string) {
	if p.recorder != nil {
		p.recorder.ObserveIngestAttempt(result)
	}
}

// FileName derives the stored name from the remote path: the sanitized base,
// a millisecond timestamp and an allowed image extension.
func FileName(remotePath string, now time.Time) string {
	clean := Sanitize(remotePath)
	ext := strings.ToLower(filepath.Ext(clean))
	base := strings.TrimSuffix(clean, filepath.Ext(clean))
	if !imageExtensions[ext] {
		ext = ".jpg"
	}
	if base == "" {
		base = "photo"
	}
	if len(base) > maxNameLength {
		base = base[:maxNameLength]
	}
	return base + "-" + strconv.FormatInt(now.UnixMilli(), 10) + ext
}

// Sanitize replaces everything outside [A-Za-z0-9._-] with '_' and caps the length.
func Sanitize(name string) string {
	out := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, name)
	if len(out) > maxNameLength {
		out = out[:maxNameLength]
	}
	return out
}
