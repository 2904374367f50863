package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// StatusError reports a non-200 answer from the file endpoint.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("file download returned status %s", e.Status)
}

type Client struct {
	api  *tgbotapi.BotAPI
	http *http.Client
	log  *slog.Logger
	Self *tgbotapi.User

	// MaxDownloadSize caps the number of bytes read from a file body. Zero disables the cap.
	MaxDownloadSize int64
}

func NewClient(token string, logger *slog.Logger) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("bot token cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	// NewBotAPI verifies the token with getMe.
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot api instance: %w", err)
	}
	api.Debug = false

	self := api.Self
	logger.Info("telegram token verified", "username", self.UserName)

	return &Client{
		api:  api,
		http: &http.Client{Timeout: 2 * time.Minute},
		log:  logger,
		Self: &self,
	}, nil
}

func (c *Client) SendMessage(chatID int64, text string, markup interface{}) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if markup != nil {
		msg.ReplyMarkup = markup
	}

	sentMsg, err := c.api.Send(msg)
	if err != nil {
		return tgbotapi.Message{}, fmt.Errorf("failed to send message: %w", c.redact(err))
	}
	return sentMsg, nil
}

func (c *Client) EditMessageText(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	if messageID == 0 {
		c.log.Warn("edit called without message id, sending new message", "chat_id", chatID)
		return c.SendMessage(chatID, text, markup)
	}

	msg := tgbotapi.NewEditMessageText(chatID, messageID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		msg.ReplyMarkup = markup
	}

	sentMsg, err := c.api.Send(msg)
	if err != nil {
		return tgbotapi.Message{}, fmt.Errorf("failed to edit message %d: %w", messageID, c.redact(err))
	}
	return sentMsg, nil
}

func (c *Client) AnswerCallback(callbackID string, text string) error {
	if callbackID == "" {
		return fmt.Errorf("callbackID cannot be empty")
	}
	callbackCfg := tgbotapi.NewCallback(callbackID, text)

	if _, err := c.api.Request(callbackCfg); err != nil {
		return fmt.Errorf("failed to answer callback query %s: %w", callbackID, c.redact(err))
	}
	return nil
}

func (c *Client) SendDocument(chatID int64, name string, data []byte, caption string) (tgbotapi.Message, error) {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption

	sentMsg, err := c.api.Send(doc)
	if err != nil {
		return tgbotapi.Message{}, fmt.Errorf("failed to send document %s: %w", name, c.redact(err))
	}
	return sentMsg, nil
}

// GetFile resolves a file id to its server-side path and size.
func (c *Client) GetFile(fileID string) (tgbotapi.File, error) {
	file, err := c.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return tgbotapi.File{}, fmt.Errorf("failed to resolve file %s: %w", fileID, c.redact(err))
	}
	return file, nil
}

// Download fetches the bytes behind a resolved file path.
func (c *Client) Download(ctx context.Context, filePath string) ([]byte, error) {
	file := tgbotapi.File{FilePath: filePath}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(c.api.Token), nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", c.redact(err))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", c.redact(err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var body io.Reader = resp.Body
	if c.MaxDownloadSize > 0 {
		body = io.LimitReader(resp.Body, c.MaxDownloadSize+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", c.redact(err))
	}
	return data, nil
}

// redact strips the bot token from URLs carried by transport errors. The
// *url.Error is kept so timeout and network checks still see it.
func (c *Client) redact(err error) error {
	var urlErr *url.Error
	if err == nil || c.api == nil || c.api.Token == "" || !errors.As(err, &urlErr) {
		return err
	}
	urlErr.URL = strings.ReplaceAll(urlErr.URL, c.api.Token, "<redacted>")
	return err
}

func (c *Client) GetUpdatesChan(timeout int) tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeout
	u.AllowedUpdates = []string{"message", "callback_query"}

	return c.api.GetUpdatesChan(u)
}

func (c *Client) StopReceivingUpdates() {
	c.api.StopReceivingUpdates()
}
