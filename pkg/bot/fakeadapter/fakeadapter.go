package fakeadapter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Dmitrii-VO/SaitAlevit/pkg/ports/botport"
)

// FakeAdapter implements botport.BotPort for headless tests.
type FakeAdapter struct {
	mu            sync.Mutex
	Calls         []Call
	NextMessageID int
	FailNext      map[string][]error
	Files         map[string]File
}

// File is a scripted remote file served by ResolveFile/DownloadFile.
type File struct {
	Path string
	Data []byte
}

// Call captures a bot operation invocation.
type Call struct {
	Op        string
	ChatID    int64
	MessageID int
	Text      string
	Markup    interface{}
	Callback  string
	FileID    string
	Data      []byte
}

var _ botport.BotPort = (*FakeAdapter)(nil)

// SendMessage records a send operation and returns a synthetic BotMessage.
func (f *FakeAdapter) SendMessage(ctx context.Context, chatID int64, text string, markup interface{}) (botport.BotMessage, error) {
	if err := ctx.Err(); err != nil {
		return botport.BotMessage{}, wrapContextError("send_message", err)
	}
	if err := f.maybeFail("send_message"); err != nil {
		return botport.BotMessage{}, err
	}
	msgID := f.nextMessageID()
	f.record(Call{Op: "send_message", ChatID: chatID, MessageID: msgID, Text: text, Markup: markup})
	return f.botMessage(chatID, msgID, text), nil
}

// EditMessage records an edit operation and returns a synthetic BotMessage.
func (f *FakeAdapter) EditMessage(ctx context.Context, chatID int64, messageID int, text string, markup interface{}) (botport.BotMessage, error) {
	if err := ctx.Err(); err != nil {
		return botport.BotMessage{}, wrapContextError("edit_message", err)
	}
	if err := f.maybeFail("edit_message"); err != nil {
		return botport.BotMessage{}, err
	}
	if messageID == 0 {
		messageID = f.nextMessageID()
	}
	f.record(Call{Op: "edit_message", ChatID: chatID, MessageID: messageID, Text: text, Markup: markup})
	return f.botMessage(chatID, messageID, text), nil
}

// AnswerCallback records a callback acknowledgement.
func (f *FakeAdapter) AnswerCallback(ctx context.Context, callbackID string, text string) error {
	if err := ctx.Err(); err != nil {
		return wrapContextError("answer_callback", err)
	}
	if err := f.maybeFail("answer_callback"); err != nil {
		return err
	}
	f.record(Call{Op: "answer_callback", Callback: callbackID, Text: text})
	return nil
}

// SendDocument records an uploaded document.
func (f *FakeAdapter) SendDocument(ctx context.Context, chatID int64, name string, data []byte, caption string) (botport.BotMessage, error) {
	if err := ctx.Err(); err != nil {
		return botport.BotMessage{}, wrapContextError("send_document", err)
	}
	if err := f.maybeFail("send_document"); err != nil {
		return botport.BotMessage{}, err
	}
	msgID := f.nextMessageID()
	f.record(Call{Op: "send_document", ChatID: chatID, MessageID: msgID, Text: caption, FileID: name, Data: data})
	return f.botMessage(chatID, msgID, caption), nil
}

// ResolveFile serves a scripted file descriptor.
func (f *FakeAdapter) ResolveFile(ctx context.Context, fileID string) (botport.RemoteFile, error) {
	if err := ctx.Err(); err != nil {
		return botport.RemoteFile{}, wrapContextError("resolve_file", err)
	}
	if err := f.maybeFail("resolve_file"); err != nil {
		return botport.RemoteFile{}, err
	}
	f.record(Call{Op: "resolve_file", FileID: fileID})

	f.mu.Lock()
	file, ok := f.Files[fileID]
	f.mu.Unlock()
	if !ok {
		return botport.RemoteFile{}, &botport.BotError{Op: "resolve_file", Code: botport.CodeBadRequest, Wrapped: fmt.Errorf("file %s not found", fileID)}
	}
	return botport.RemoteFile{FileID: fileID, Path: file.Path, Size: int64(len(file.Data))}, nil
}

// DownloadFile serves the scripted bytes of a file.
func (f *FakeAdapter) DownloadFile(ctx context.Context, remote botport.RemoteFile) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapContextError("download_file", err)
	}
	if err := f.maybeFail("download_file"); err != nil {
		return nil, err
	}
	f.record(Call{Op: "download_file", FileID: remote.FileID})

	f.mu.Lock()
	file, ok := f.Files[remote.FileID]
	f.mu.Unlock()
	if !ok {
		return nil, &botport.BotError{Op: "download_file", Code: botport.CodeNotFound, Wrapped: fmt.Errorf("file %s not found", remote.FileID)}
	}
	out := make([]byte, len(file.Data))
	copy(out, file.Data)
	return out, nil
}

// AddFile registers a downloadable file under fileID.
func (f *FakeAdapter) AddFile(fileID, path string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Files == nil {
		f.Files = make(map[string]File)
	}
	f.Files[fileID] = File{Path: path, Data: data}
}

// Fail configures the next call for op to return err (wrapped as BotError if needed).
func (f *FakeAdapter) Fail(op string, err error) {
	f.FailTimes(op, 1, err)
}

// FailTimes configures the next n calls for op to return err.
func (f *FakeAdapter) FailTimes(op string, n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailNext == nil {
		f.FailNext = make(map[string][]error)
	}
	for i := 0; i < n; i++ {
		f.FailNext[op] = append(f.FailNext[op], err)
	}
}

// LastCall returns the most recent call for the given op.
func (f *FakeAdapter) LastCall(op string) *Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.Calls) - 1; i >= 0; i-- {
		if f.Calls[i].Op == op {
			c := f.Calls[i]
			return &c
		}
	}
	return nil
}

// CallsFor returns every recorded call for op in order.
func (f *FakeAdapter) CallsFor(op string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Reset drops recorded calls.
func (f *FakeAdapter) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = nil
}

func (f *FakeAdapter) botMessage(chatID int64, messageID int, text string) botport.BotMessage {
	return botport.BotMessage{
		ChatID:    chatID,
		MessageID: messageID,
		Transport: "telegram",
		Payload:   text,
		Meta:      map[string]string{"fake": "true"},
	}
}

func (f *FakeAdapter) nextMessageID() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.NextMessageID == 0 {
		f.NextMessageID = 1
	}
	id := f.NextMessageID
	f.NextMessageID++
	return id
}

func (f *FakeAdapter) record(call Call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, call)
}

func (f *FakeAdapter) maybeFail(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	queue := f.FailNext[op]
	if len(queue) == 0 {
		return nil
	}
	err := queue[0]
	f.FailNext[op] = queue[1:]
	if _, ok := err.(*botport.BotError); ok {
		return err
	}
	return &botport.BotError{Op: op, Code: "fake_error", Wrapped: err}
}

func wrapContextError(op string, err error) error {
	switch err {
	case context.Canceled:
		return &botport.BotError{Op: op, Code: "context_canceled", Wrapped: err}
	case context.DeadlineExceeded:
		return &botport.BotError{Op: op, Code: "context_deadline", Wrapped: err}
	default:
		return &botport.BotError{Op: op, Code: "context_error", Wrapped: err}
	}
}

// Helpers to script common BotError cases in tests.
func MessageNotModified(op string) *botport.BotError {
	return &botport.BotError{Op: op, Code: botport.CodeMessageNotModified}
}

func RateLimited(op string, retry time.Duration) *botport.BotError {
	return &botport.BotError{Op: op, Code: botport.CodeRateLimited, RetryAfter: retry, Wrapped: fmt.Errorf("rate limited")}
}

func NetworkError(op string) *botport.BotError {
	return &botport.BotError{Op: op, Code: botport.CodeNetwork, Wrapped: fmt.Errorf("connection reset by peer")}
}

func Unauthorized(op string) *botport.BotError {
	return &botport.BotError{Op: op, Code: botport.CodeUnauthorized, Wrapped: fmt.Errorf("Unauthorized")}
}
