package botport

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Package botport is the outbound boundary between the dialogue engine and chat transports.

// BotMessage captures adapter-agnostic identifiers for previously sent messages.
type BotMessage struct {
	ChatID    int64
	MessageID int
	Transport string
	Payload   string
	Meta      map[string]string
}

// FileHandle is an inbound file reference as delivered by the transport.
// Size is the size the transport announced with the update, zero when unknown.
type FileHandle struct {
	FileID string
	Size   int64
}

// RemoteFile is a resolved file descriptor that can be downloaded.
type RemoteFile struct {
	FileID string
	Path   string
	Size   int64
}

// Normalized BotError codes.
const (
	CodeRateLimited        = "rate_limited"
	CodeBadRequest         = "bad_request"
	CodeForbidden          = "forbidden"
	CodeUnauthorized       = "unauthorized"
	CodeNotFound           = "not_found"
	CodeMessageNotModified = "message_not_modified"
	CodeNetwork            = "network"
	CodeServer             = "server_error"
	CodeUnknown            = "unknown"
)

// BotError wraps adapter failures with retry hints and normalized codes.
type BotError struct {
	Op         string
	Code       string
	RetryAfter time.Duration
	Wrapped    error
}

func (e *BotError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Code)
}

// Unwrap exposes the underlying adapter error for errors.Is/As.
func (e *BotError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Wrapped
}

// NewBotError builds a BotError with the provided operation/code, preserving the wrapped error.
func NewBotError(op, code string, err error) *BotError {
	return &BotError{
		Op:      op,
		Code:    code,
		Wrapped: err,
	}
}

// IsCode determines whether err represents a BotError with the provided code.
func IsCode(err error, code string) bool {
	return Code(err) == code && code != ""
}

// Code returns the BotError code carried by err, or "" when err is not a BotError.
func Code(err error) string {
	if err == nil {
		return ""
	}
	var be *BotError
	if errors.As(err, &be) && be != nil {
		return be.Code
	}
	return ""
}

// BotPort abstracts outbound operations for adapters (Telegram, fake, etc.).
type BotPort interface {
	SendMessage(ctx context.Context, chatID int64, text string, markup interface{}) (BotMessage, error)
	EditMessage(ctx context.Context, chatID int64, messageID int, text string, markup interface{}) (BotMessage, error)
	AnswerCallback(ctx context.Context, callbackID string, text string) error
	SendDocument(ctx context.Context, chatID int64, name string, data []byte, caption string) (BotMessage, error)
	FileTransport
}

// FileTransport resolves and downloads files hosted by the messaging platform.
type FileTransport interface {
	ResolveFile(ctx context.Context, fileID string) (RemoteFile, error)
	DownloadFile(ctx context.Context, file RemoteFile) ([]byte, error)
}
