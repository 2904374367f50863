// Package router turns Telegram updates into commands and workflow input.
package router

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/Dmitrii-VO/SaitAlevit/pkg/content"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/export"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/ports/botport"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/state"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/workflow"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/workflow/inputs"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ErrUnauthorized is passed to the fatal hook when Telegram rejects the token.
var ErrUnauthorized = errors.New("telegram rejected the bot token")

// Authorizer decides who may operate the bot.
type Authorizer interface {
	IsAdmin(userID int64) bool
}

// Recorder receives update counters. Implementations must be nil-safe.
type Recorder interface {
	ObserveUpdate(kind string)
	ObserveCommand(command string, allowed bool)
}

type Deps struct {
	Bot     botport.BotPort
	Engine  *workflow.Engine
	Repo    *content.Repository
	Store   *state.Store
	Auth    Authorizer
	Logger  *slog.Logger
	Metrics Recorder
	// Fatal is called once a transport call reports an invalid token.
	Fatal func(error)
}

type Router struct {
	bot     botport.BotPort
	engine  *workflow.Engine
	repo    *content.Repository
	store   *state.Store
	auth    Authorizer
	log     *slog.Logger
	metrics Recorder
	fatal   func(error)
	now     func() time.Time
}

func New(d Deps) *Router {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	fatal := d.Fatal
	if fatal == nil {
		fatal = func(err error) { logger.Error("fatal transport error", "error", err) }
	}
	return &Router{
		bot:     d.Bot,
		engine:  d.Engine,
		repo:    d.Repo,
		store:   d.Store,
		auth:    d.Auth,
		log:     logger,
		metrics: d.Metrics,
		fatal:   fatal,
		now:     time.Now,
	}
}

var workflowCommands = map[string]state.WorkflowKind{
	"projects_add":    state.ProjectAdd,
	"projects_edit":   state.ProjectEdit,
	"projects_delete": state.ProjectDelete,
	"works_add":       state.WorkAdd,
	"works_edit":      state.WorkEdit,
	"works_delete":    state.WorkDelete,
	"reviews_add":     state.ReviewAdd,
	"reviews_edit":    state.ReviewEdit,
	"reviews_delete":  state.ReviewDelete,
	"contacts_edit":   state.ContactsEdit,
	"prices_edit":     state.PricesEdit,
}

var viewCommands = map[string]func(*content.Repository) (string, error){
	"projects_list": workflow.ProjectList,
	"works_list":    workflow.WorkList,
	"reviews_list":  workflow.ReviewList,
	"contacts_view": workflow.ContactsView,
	"prices_view":   workflow.PricesView,
}

// HandleUpdate processes one update. Turns of the same chat are serialized.
func (r *Router) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		msg := update.Message
		if msg.From == nil || msg.Chat == nil {
			r.log.Warn("message without sender ignored", "update_id", update.UpdateID)
			return
		}
		unlock := r.store.Lock(msg.Chat.ID)
		defer unlock()
		r.handleMessage(ctx, msg)
	case update.CallbackQuery != nil:
		query := update.CallbackQuery
		if query.From == nil || query.Message == nil || query.Message.Chat == nil {
			r.log.Warn("callback without message ignored", "update_id", update.UpdateID)
			return
		}
		unlock := r.store.Lock(query.Message.Chat.ID)
		defer unlock()
		r.handleCallback(ctx, query)
	default:
		r.observeUpdate("other")
	}
}

func (r *Router) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID

	if msg.IsCommand() {
		r.observeUpdate("command")
		r.handleCommand(ctx, chatID, userID, msg.Command())
		return
	}

	if !r.allowed(userID) {
		r.observeUpdate("denied")
		r.log.Debug("message from non-admin dropped", "user_id", userID)
		return
	}
	if !r.engine.Active(chatID) {
		r.observeUpdate("idle")
		return
	}

	if handle, ok := photoHandle(msg); ok {
		r.observeUpdate("photo")
		r.check(r.engine.Handle(ctx, chatID, inputs.PhotoInput(handle)))
		return
	}
	r.observeUpdate("text")
	r.check(r.engine.Handle(ctx, chatID, inputs.TextInput(msg.Text)))
}

// photoHandle picks the largest photo size, or an image sent as a file.
func photoHandle(msg *tgbotapi.Message) (botport.FileHandle, bool) {
	if n := len(msg.Photo); n > 0 {
		largest := msg.Photo[n-1]
		return botport.FileHandle{FileID: largest.FileID, Size: int64(largest.FileSize)}, true
	}
	if doc := msg.Document; doc != nil && strings.HasPrefix(doc.MimeType, "image/") {
		return botport.FileHandle{FileID: doc.FileID, Size: int64(doc.FileSize)}, true
	}
	return botport.FileHandle{}, false
}

func (r *Router) handleCommand(ctx context.Context, chatID, userID int64, command string) {
	if command == "cancel" {
		r.observeCommand(command, true)
		r.cancel(ctx, chatID)
		return
	}
	if !r.allowed(userID) {
		r.observeCommand(command, false)
		r.log.Warn("command denied", "user_id", userID, "command", command)
		r.reply(ctx, chatID, msgDenied)
		return
	}
	r.observeCommand(command, true)

	if kind, ok := workflowCommands[command]; ok {
		r.check(r.engine.Start(ctx, chatID, kind))
		return
	}
	if view, ok := viewCommands[command]; ok {
		text, err := view(r.repo)
		if err != nil {
			r.log.Error("view failed", "command", command, "error", err)
			r.reply(ctx, chatID, workflow.MsgGenericError)
			return
		}
		r.reply(ctx, chatID, text)
		return
	}

	switch command {
	case "start":
		r.reply(ctx, chatID, msgWelcome+"\n\n"+msgMenu)
	case "menu":
		r.reply(ctx, chatID, msgMenu)
	case "help":
		r.reply(ctx, chatID, msgHelp)
	case "done":
		if !r.engine.Active(chatID) {
			r.reply(ctx, chatID, msgNothingToFinish)
			return
		}
		r.check(r.engine.Done(ctx, chatID))
	case "skip":
		if !r.engine.Active(chatID) {
			return
		}
		r.check(r.engine.Handle(ctx, chatID, inputs.TextInput("/skip")))
	case "prices_export":
		r.exportPrices(ctx, chatID)
	default:
		r.reply(ctx, chatID, msgUnknownCommand)
	}
}

func (r *Router) cancel(ctx context.Context, chatID int64) {
	if r.engine.Cancel(chatID) {
		r.reply(ctx, chatID, msgCanceled)
		return
	}
	r.reply(ctx, chatID, msgNothingToCancel)
}

func (r *Router) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	r.observeUpdate("callback")
	chatID := query.Message.Chat.ID

	if err := r.bot.AnswerCallback(ctx, query.ID, ""); err != nil {
		r.log.Warn("answer callback failed", "callback_id", query.ID, "error", err)
		r.check(err)
	}
	if !r.allowed(query.From.ID) {
		r.log.Warn("callback denied", "user_id", query.From.ID)
		return
	}

	value, ok := strings.CutPrefix(query.Data, inputs.CallbackPrefix)
	if !ok {
		r.log.Debug("unknown callback data", "data", query.Data)
		return
	}
	if !r.engine.Active(chatID) {
		return
	}

	// Drop the keyboard so a stale button cannot be pressed twice.
	text := html.EscapeString(query.Message.Text) + "\n\n👉 " + html.EscapeString(value)
	if _, err := r.bot.EditMessage(ctx, chatID, query.Message.MessageID, text, nil); err != nil &&
		!botport.IsCode(err, botport.CodeMessageNotModified) {
		r.log.Warn("strip keyboard failed", "chat_id", chatID, "message_id", query.Message.MessageID, "error", err)
		r.check(err)
	}

	r.check(r.engine.Handle(ctx, chatID, inputs.TextInput(value)))
}

func (r *Router) exportPrices(ctx context.Context, chatID int64) {
	now := r.now()
	data, err := export.Workbook(r.repo, now)
	if err != nil {
		r.log.Error("export failed", "error", err)
		r.reply(ctx, chatID, workflow.MsgGenericError)
		return
	}
	name := fmt.Sprintf("alevit-prices-%s.xlsx", now.Format("2006-01-02"))
	if _, err := r.bot.SendDocument(ctx, chatID, name, data, "📊 Цены и проекты"); err != nil {
		r.log.Error("send export failed", "chat_id", chatID, "error", err)
		r.check(err)
		return
	}
	r.log.Info("prices exported", "chat_id", chatID, "bytes", len(data))
}

func (r *Router) allowed(userID int64) bool {
	return r.auth != nil && r.auth.IsAdmin(userID)
}

func (r *Router) reply(ctx context.Context, chatID int64, text string) {
	for _, part := range Split(text, maxMessageLength) {
		if _, err := r.bot.SendMessage(ctx, chatID, part, nil); err != nil {
			r.log.Warn("reply failed", "chat_id", chatID, "code", botport.Code(err), "error", err)
			r.check(err)
			return
		}
	}
}

// check escalates a rejected token; other errors were already reported.
func (r *Router) check(err error) {
	if err != nil && botport.IsCode(err, botport.CodeUnauthorized) {
		r.fatal(fmt.Errorf("%w: %v", ErrUnauthorized, err))
	}
}

func (r *Router) observeUpdate(kind string) {
	if r.metrics != nil {
		r.metrics.ObserveUpdate(kind)
	}
}

func (r *Router) observeCommand(command string, allowed bool) {
	if r.metrics == nil {
		return
	}
	if !knownCommand(command) {
		command = "unknown"
	}
	r.metrics.ObserveCommand(command, allowed)
}

func knownCommand(command string) bool {
	if _, ok := workflowCommands[command]; ok {
		return true
	}
	if _, ok := viewCommands[command]; ok {
		return true
	}
	switch command {
	case "start", "menu", "help", "cancel", "done", "skip", "prices_export":
		return true
	}
	return false
}
