package ingest

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Dmitrii-VO/SaitAlevit/pkg/bot/fakeadapter"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/ports/botport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type attemptCounter map[string]int

func (a attemptCounter) ObserveIngestAttempt(result string) { a[result]++ }

func newTestPipeline(t *testing.T, fake *fakeadapter.FakeAdapter, rec AttemptRecorder) (*Pipeline, string) {
	t.Helper()
	root := t.TempDir()
	p := New(fake, root, slog.New(slog.DiscardHandler), rec)
	p.RetryDelay = time.Millisecond
	p.now = func() time.Time { return time.UnixMilli(1714550400000) }
	return p, root
}

func storedFiles(t *testing.T, root, sub string) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(root, "images", sub))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestIngestStoresFile(t *testing.T) {
	fake := &fakeadapter.FakeAdapter{}
	fake.AddFile("ph1", "photos/file_12.jpg", []byte("jpeg-bytes"))
	p, root := newTestPipeline(t, fake, nil)

	rel, err := p.Ingest(context.Background(), botport.FileHandle{FileID: "ph1", Size: 10}, "projects")
	require.NoError(t, err)
	assert.Equal(t, "images/projects/photos_file_12-1714550400000.jpg", rel)

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
}

func TestIngestRetriesTransientFailures(t *testing.T) {
	fake := &fakeadapter.FakeAdapter{}
	fake.AddFile("ph1", "photos/a.png", []byte("png"))
	fake.FailTimes("download_file", 2, fakeadapter.NetworkError("download_file"))
	rec := attemptCounter{}
	p, root := newTestPipeline(t, fake, rec)

	rel, err := p.Ingest(context.Background(), botport.FileHandle{FileID: "ph1"}, "works")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(rel, ".png"))

	assert.Len(t, storedFiles(t, root, "works"), 1)
	assert.Equal(t, 2, rec["retry"])
	assert.Equal(t, 1, rec["ok"])
	assert.Len(t, fake.CallsFor("resolve_file"), 3)
}

func TestIngestGivesUpAfterAllAttempts(t *testing.T) {
	fake := &fakeadapter.FakeAdapter{}
	fake.AddFile("ph1", "photos/a.jpg", []byte("x"))
	fake.FailTimes("resolve_file", 3, fakeadapter.NetworkError("resolve_file"))
	p, root := newTestPipeline(t, fake, nil)

	_, err := p.Ingest(context.Background(), botport.FileHandle{FileID: "ph1"}, "reviews")
	require.Error(t, err)

	var ierr *IngestError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, 3, ierr.Attempts)
	assert.Equal(t, "resolve", ierr.Stage)
	assert.True(t, botport.IsCode(err, botport.CodeNetwork))
	assert.Empty(t, storedFiles(t, root, "reviews"))
}

func TestIngestDoesNotRetryTerminalErrors(t *testing.T) {
	fake := &fakeadapter.FakeAdapter{}
	fake.Fail("resolve_file", &botport.BotError{Op: "resolve_file", Code: botport.CodeBadRequest, Wrapped: errors.New("Bad Request: wrong file_id")})
	p, _ := newTestPipeline(t, fake, nil)

	_, err := p.Ingest(context.Background(), botport.FileHandle{FileID: "ph1"}, "projects")
	var ierr *IngestError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, 1, ierr.Attempts)
}

func TestIngestRejectsOversizeBeforeTransport(t *testing.T) {
	fake := &fakeadapter.FakeAdapter{}
	p, _ := newTestPipeline(t, fake, nil)

	_, err := p.Ingest(context.Background(), botport.FileHandle{FileID: "big", Size: DefaultMaxFileSize + 1}, "projects")
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.Empty(t, fake.Calls)
}

func TestIngestRejectsOversizeResolvedFile(t *testing.T) {
	fake := &fakeadapter.FakeAdapter{}
	fake.AddFile("big", "photos/big.jpg", make([]byte, 64))
	p, root := newTestPipeline(t, fake, nil)
	p.MaxFileSize = 32

	_, err := p.Ingest(context.Background(), botport.FileHandle{FileID: "big"}, "projects")
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.Len(t, fake.CallsFor("resolve_file"), 1)
	assert.Empty(t, fake.CallsFor("download_file"))
	assert.Empty(t, storedFiles(t, root, "projects"))
}

func TestIngestRejectsEmptyFile(t *testing.T) {
	fake := &fakeadapter.FakeAdapter{}
	fake.AddFile("empty", "photos/e.jpg", nil)
	p, _ := newTestPipeline(t, fake, nil)

	_, err := p.Ingest(context.Background(), botport.FileHandle{FileID: "empty"}, "projects")
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestIngestRejectsUnknownSubfolder(t *testing.T) {
	fake := &fakeadapter.FakeAdapter{}
	p, _ := newTestPipeline(t, fake, nil)

	_, err := p.Ingest(context.Background(), botport.FileHandle{FileID: "x"}, "../etc")
	assert.ErrorIs(t, err, ErrUnknownSubfolder)
}

func TestFileName(t *testing.T) {
	now := time.UnixMilli(1000)
	assert.Equal(t, "photos_file_1-1000.jpg", FileName("photos/file_1.jpg", now))
	assert.Equal(t, "a_b-1000.webp", FileName("a b.WEBP", now))
	assert.Equal(t, "doc-1000.jpg", FileName("doc.gif", now))
	assert.Equal(t, "noext-1000.jpg", FileName("noext", now))
	assert.Equal(t, "photo-1000.jpg", FileName("", now))

	long := FileName(strings.Repeat("x", 300)+".png", now)
	assert.LessOrEqual(t, len(long), maxNameLength+len("-1000.jpg"))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "___.jpg", Sanitize("фот.jpg"))
	assert.Equal(t, "a-b_c.d", Sanitize("a-b_c.d"))
	assert.Len(t, Sanitize(strings.Repeat("a", 150)), maxNameLength)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(fakeadapter.RateLimited("x", time.Second)))
	assert.True(t, isRetryable(&botport.BotError{Code: botport.CodeServer}))
	assert.True(t, isRetryable(errors.New("read: connection reset by peer")))
	assert.False(t, isRetryable(fakeadapter.Unauthorized("x")))
	assert.False(t, isRetryable(ErrFileTooLarge))
	assert.False(t, isRetryable(errors.New("permission denied")))
}
