package telegramadapter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Dmitrii-VO/SaitAlevit/pkg/bot"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/ports/botport"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestAdapterSendMessageSuccess(t *testing.T) {
	fc := &fakeClient{
		sendFn: func(chatID int64, text string, markup interface{}) (tgbotapi.Message, error) {
			return tgbotapi.Message{
				MessageID: 42,
				Text:      text,
				Chat:      &tgbotapi.Chat{ID: chatID},
			}, nil
		},
	}
	adapter, err := New(fc, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Опубликован", "input:опубликован"),
		),
	)

	msg, err := adapter.SendMessage(context.Background(), 7, "hello", keyboard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.ChatID != 7 || msg.MessageID != 42 {
		t.Fatalf("unexpected bot message: %+v", msg)
	}
	if msg.Transport != "telegram" {
		t.Fatalf("expected transport 'telegram', got %s", msg.Transport)
	}
	if msg.Payload != "hello" {
		t.Fatalf("expected payload 'hello', got %s", msg.Payload)
	}
	if msg.Meta["markup_type"] == "" {
		t.Fatalf("expected markup metadata to be set")
	}
	if msg.Meta["raw_markup"] == "" {
		t.Fatalf("expected raw markup to be serialized")
	}
}

func TestAdapterSendMessageWrapsRateLimitError(t *testing.T) {
	fc := &fakeClient{
		sendFn: func(int64, string, interface{}) (tgbotapi.Message, error) {
			return tgbotapi.Message{}, errors.New("Too Many Requests: retry after 3")
		},
	}
	adapter, err := New(fc, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = adapter.SendMessage(context.Background(), 1, "hi", nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	var be *botport.BotError
	if !errors.As(err, &be) {
		t.Fatalf("expected BotError, got %T", err)
	}
	if be.Code != botport.CodeRateLimited {
		t.Fatalf("expected rate_limited code, got %s", be.Code)
	}
	if be.RetryAfter != 3*time.Second {
		t.Fatalf("expected RetryAfter=3s, got %v", be.RetryAfter)
	}
}

func TestAdapterClassifiesAPIErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code string
	}{
		{"unauthorized", &tgbotapi.Error{Code: 401, Message: "Unauthorized"}, botport.CodeUnauthorized},
		{"rate limited", &tgbotapi.Error{Code: 429, Message: "Too Many Requests", ResponseParameters: tgbotapi.ResponseParameters{RetryAfter: 5}}, botport.CodeRateLimited},
		{"server", &tgbotapi.Error{Code: 502, Message: "Bad Gateway"}, botport.CodeServer},
		{"bad request", &tgbotapi.Error{Code: 400, Message: "Bad Request: chat not found"}, botport.CodeBadRequest},
		{"file status", &bot.StatusError{StatusCode: 503, Status: "503 Service Unavailable"}, botport.CodeServer},
		{"reset", fmt.Errorf("download file: %w", io.ErrUnexpectedEOF), botport.CodeNetwork},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fc := &fakeClient{
				getFileFn: func(string) (tgbotapi.File, error) {
					return tgbotapi.File{}, fmt.Errorf("failed to resolve file: %w", tc.err)
				},
			}
			adapter, err := New(fc, testLogger())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			_, err = adapter.ResolveFile(context.Background(), "file-1")
			if !botport.IsCode(err, tc.code) {
				t.Fatalf("expected code %s, got %v", tc.code, err)
			}
		})
	}
}

func TestAdapterEditMessageRejectsInvalidMarkup(t *testing.T) {
	adapter, err := New(&fakeClient{}, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = adapter.EditMessage(context.Background(), 1, 2, "text", "bad markup")
	if err == nil {
		t.Fatalf("expected error")
	}
	var be *botport.BotError
	if !errors.As(err, &be) {
		t.Fatalf("expected BotError, got %T", err)
	}
	if be.Code != "bad_payload" {
		t.Fatalf("expected bad_payload, got %s", be.Code)
	}
}

func TestAdapterResolveAndDownload(t *testing.T) {
	fc := &fakeClient{
		getFileFn: func(fileID string) (tgbotapi.File, error) {
			return tgbotapi.File{FileID: fileID, FilePath: "photos/file_7.jpg", FileSize: 3}, nil
		},
		downloadFn: func(_ context.Context, path string) ([]byte, error) {
			if path != "photos/file_7.jpg" {
				return nil, fmt.Errorf("unexpected path %s", path)
			}
			return []byte("jpg"), nil
		},
	}
	adapter, err := New(fc, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	remote, err := adapter.ResolveFile(context.Background(), "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if remote.Path != "photos/file_7.jpg" || remote.Size != 3 || remote.FileID != "abc" {
		t.Fatalf("unexpected remote file: %+v", remote)
	}
	data, err := adapter.DownloadFile(context.Background(), remote)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "jpg" {
		t.Fatalf("unexpected payload %q", data)
	}
}

func TestAdapterHonoursCanceledContext(t *testing.T) {
	adapter, err := New(&fakeClient{}, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := adapter.DownloadFile(ctx, botport.RemoteFile{Path: "x"}); !botport.IsCode(err, "context_canceled") {
		t.Fatalf("expected context_canceled, got %v", err)
	}
}

type fakeClient struct {
	sendFn     func(chatID int64, text string, markup interface{}) (tgbotapi.Message, error)
	editFn     func(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	cbFn       func(callbackID string, text string) error
	getFileFn  func(fileID string) (tgbotapi.File, error)
	downloadFn func(ctx context.Context, path string) ([]byte, error)
}

func (f *fakeClient) SendMessage(chatID int64, text string, markup interface{}) (tgbotapi.Message, error) {
	if f.sendFn == nil {
		return tgbotapi.Message{}, nil
	}
	return f.sendFn(chatID, text, markup)
}

func (f *fakeClient) EditMessageText(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	if f.editFn == nil {
		return tgbotapi.Message{}, nil
	}
	return f.editFn(chatID, messageID, text, markup)
}

func (f *fakeClient) AnswerCallback(callbackID string, text string) error {
	if f.cbFn == nil {
		return nil
	}
	return f.cbFn(callbackID, text)
}

func (f *fakeClient) SendDocument(chatID int64, name string, data []byte, caption string) (tgbotapi.Message, error) {
	return tgbotapi.Message{MessageID: 1, Caption: caption, Chat: &tgbotapi.Chat{ID: chatID}}, nil
}

func (f *fakeClient) GetFile(fileID string) (tgbotapi.File, error) {
	if f.getFileFn == nil {
		return tgbotapi.File{FileID: fileID}, nil
	}
	return f.getFileFn(fileID)
}

func (f *fakeClient) Download(ctx context.Context, path string) ([]byte, error) {
	if f.downloadFn == nil {
		return nil, nil
	}
	return f.downloadFn(ctx, path)
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
