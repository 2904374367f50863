package telegramadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/Dmitrii-VO/SaitAlevit/pkg/bot"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/ports/botport"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Package telegramadapter implements botport.BotPort on top of bot.Client.

type telegramClient interface {
	SendMessage(chatID int64, text string, markup interface{}) (tgbotapi.Message, error)
	EditMessageText(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	AnswerCallback(callbackID string, text string) error
	SendDocument(chatID int64, name string, data []byte, caption string) (tgbotapi.Message, error)
	GetFile(fileID string) (tgbotapi.File, error)
	Download(ctx context.Context, filePath string) ([]byte, error)
}

// Adapter wraps a Telegram client and satisfies botport.BotPort.
type Adapter struct {
	client telegramClient
	logger *slog.Logger
}

var _ telegramClient = (*bot.Client)(nil)
var _ botport.BotPort = (*Adapter)(nil)

// New constructs a Telegram adapter with the provided bot client and logger.
func New(client telegramClient, logger *slog.Logger) (*Adapter, error) {
	if client == nil {
		return nil, fmt.Errorf("telegramadapter: client is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		client: client,
		logger: logger,
	}, nil
}

// SendMessage dispatches a new Telegram message and returns a botport.BotMessage record.
func (a *Adapter) SendMessage(ctx context.Context, chatID int64, text string, markup interface{}) (botport.BotMessage, error) {
	if err := ctx.Err(); err != nil {
		return botport.BotMessage{}, wrapContextError("send_message", err)
	}
	msg, err := a.client.SendMessage(chatID, text, markup)
	if err != nil {
		return botport.BotMessage{}, a.wrapAndLogError("send_message", chatID, 0, err)
	}
	bm := toBotMessage(msg, markup)
	a.log("send_message", "chat_id", bm.ChatID, "message_id", bm.MessageID)
	return bm, nil
}

// EditMessage edits an existing Telegram message.
func (a *Adapter) EditMessage(ctx context.Context, chatID int64, messageID int, text string, markup interface{}) (botport.BotMessage, error) {
	if err := ctx.Err(); err != nil {
		return botport.BotMessage{}, wrapContextError("edit_message", err)
	}
	inlineMarkup, err := toInlineKeyboard(markup)
	if err != nil {
		return botport.BotMessage{}, botport.NewBotError("edit_message", "bad_payload", err)
	}
	msg, err := a.client.EditMessageText(chatID, messageID, text, inlineMarkup)
	if err != nil {
		return botport.BotMessage{}, a.wrapAndLogError("edit_message", chatID, messageID, err)
	}
	bm := toBotMessage(msg, inlineMarkup)
	a.log("edit_message", "chat_id", bm.ChatID, "message_id", bm.MessageID)
	return bm, nil
}

// AnswerCallback acknowledges a callback query.
func (a *Adapter) AnswerCallback(ctx context.Context, callbackID string, text string) error {
	if err := ctx.Err(); err != nil {
		return wrapContextError("answer_callback", err)
	}
	if err := a.client.AnswerCallback(callbackID, text); err != nil {
		return a.wrapAndLogError("answer_callback", 0, 0, err)
	}
	a.log("answer_callback", "callback_id", callbackID)
	return nil
}

// SendDocument uploads an in-memory file to the chat.
func (a *Adapter) SendDocument(ctx context.Context, chatID int64, name string, data []byte, caption string) (botport.BotMessage, error) {
	if err := ctx.Err(); err != nil {
		return botport.BotMessage{}, wrapContextError("send_document", err)
	}
	msg, err := a.client.SendDocument(chatID, name, data, caption)
	if err != nil {
		return botport.BotMessage{}, a.wrapAndLogError("send_document", chatID, 0, err)
	}
	bm := toBotMessage(msg, nil)
	a.log("send_document", "chat_id", bm.ChatID, "message_id", bm.MessageID, "bytes", len(data))
	return bm, nil
}

// ResolveFile maps a file id to its remote path and size.
func (a *Adapter) ResolveFile(ctx context.Context, fileID string) (botport.RemoteFile, error) {
	if err := ctx.Err(); err != nil {
		return botport.RemoteFile{}, wrapContextError("resolve_file", err)
	}
	file, err := a.client.GetFile(fileID)
	if err != nil {
		return botport.RemoteFile{}, a.wrapAndLogError("resolve_file", 0, 0, err)
	}
	a.log("resolve_file", "file_id", fileID, "size", file.FileSize)
	return botport.RemoteFile{FileID: file.FileID, Path: file.FilePath, Size: int64(file.FileSize)}, nil
}

// DownloadFile fetches the content of a resolved file.
func (a *Adapter) DownloadFile(ctx context.Context, file botport.RemoteFile) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapContextError("download_file", err)
	}
	data, err := a.client.Download(ctx, file.Path)
	if err != nil {
		return nil, a.wrapAndLogError("download_file", 0, 0, err)
	}
	a.log("download_file", "file_id", file.FileID, "bytes", len(data))
	return data, nil
}

func (a *Adapter) wrapAndLogError(op string, chatID int64, messageID int, err error) error {
	wrapped := wrapTelegramError(op, err)
	a.logger.Warn("botport call failed",
		"op", op,
		"chat_id", chatID,
		"message_id", messageID,
		"code", botport.Code(wrapped),
		"error", err.Error(),
	)
	return wrapped
}

func (a *Adapter) log(op string, attrs ...any) {
	if a.logger == nil {
		return
	}
	a.logger.Debug("botport", append([]any{"op", op}, attrs...)...)
}

func toInlineKeyboard(markup interface{}) (*tgbotapi.InlineKeyboardMarkup, error) {
	if markup == nil {
		return nil, nil
	}
	switch v := markup.(type) {
	case tgbotapi.InlineKeyboardMarkup:
		return &v, nil
	case *tgbotapi.InlineKeyboardMarkup:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported markup type %T", markup)
	}
}

func toBotMessage(msg tgbotapi.Message, markup interface{}) botport.BotMessage {
	payload := msg.Text
	if payload == "" {
		payload = msg.Caption
	}
	return botport.BotMessage{
		ChatID:    chatIDFromMessage(msg),
		MessageID: msg.MessageID,
		Transport: "telegram",
		Payload:   payload,
		Meta:      metaFromMarkup(markup),
	}
}

func metaFromMarkup(markup interface{}) map[string]string {
	if markup == nil {
		return nil
	}
	if p, ok := markup.(*tgbotapi.InlineKeyboardMarkup); ok && p == nil {
		return nil
	}
	meta := map[string]string{
		"markup_type": fmt.Sprintf("%T", markup),
	}
	if keyboard, err := toInlineKeyboard(markup); err == nil && keyboard != nil {
		if raw, err := json.Marshal(keyboard); err == nil {
			meta["raw_markup"] = string(raw)
		}
	}
	return meta
}

func chatIDFromMessage(msg tgbotapi.Message) int64 {
	if msg.Chat != nil {
		return msg.Chat.ID
	}
	return 0
}

func wrapContextError(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return &botport.BotError{Op: op, Code: "context_canceled", Wrapped: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &botport.BotError{Op: op, Code: "context_deadline", Wrapped: err}
	}
	return &botport.BotError{Op: op, Code: "context_error", Wrapped: err}
}

func wrapTelegramError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return wrapContextError(op, err)
	}
	code, retry := classifyTelegramError(err)
	return &botport.BotError{
		Op:         op,
		Code:       code,
		RetryAfter: retry,
		Wrapped:    err,
	}
}

var retryAfterRegex = regexp.MustCompile(`(?i)retry after (\d+)`)

func classifyTelegramError(err error) (string, time.Duration) {
	if err == nil {
		return botport.CodeUnknown, 0
	}

	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 401:
			return botport.CodeUnauthorized, 0
		case apiErr.Code == 429:
			return botport.CodeRateLimited, time.Duration(apiErr.RetryAfter) * time.Second
		case apiErr.Code >= 500:
			return botport.CodeServer, 0
		}
	}

	var statusErr *bot.StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == 404:
			return botport.CodeNotFound, 0
		case statusErr.StatusCode == 429:
			return botport.CodeRateLimited, 0
		case statusErr.StatusCode >= 500:
			return botport.CodeServer, 0
		}
	}

	if isNetworkError(err) {
		return botport.CodeNetwork, 0
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "message is not modified"):
		return botport.CodeMessageNotModified, 0
	case strings.Contains(msg, "too many requests"):
		return botport.CodeRateLimited, extractRetryAfter(msg)
	case strings.Contains(msg, "unauthorized"):
		return botport.CodeUnauthorized, 0
	case strings.Contains(msg, "bad request"):
		return botport.CodeBadRequest, 0
	case strings.Contains(msg, "forbidden"):
		return botport.CodeForbidden, 0
	default:
		return botport.CodeUnknown, 0
	}
}

func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"timeout", "connection reset", "connection refused", "premature close", "getaddrinfo", "no such host"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func extractRetryAfter(msg string) time.Duration {
	matches := retryAfterRegex.FindStringSubmatch(msg)
	if len(matches) != 2 {
		return 0
	}
	seconds, err := time.ParseDuration(matches[1] + "s")
	if err != nil {
		return 0
	}
	return seconds
}
