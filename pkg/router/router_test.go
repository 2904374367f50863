package router

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Dmitrii-VO/SaitAlevit/pkg/bot/fakeadapter"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/content"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/ports/botport"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/state"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/workflow"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	chat  int64 = 42
	admin int64 = 7
	guest int64 = 8
)

type admins []int64

func (a admins) IsAdmin(id int64) bool {
	for _, v := range a {
		if v == id {
			return true
		}
	}
	return false
}

type stubIngester struct{}

func (stubIngester) Ingest(ctx context.Context, h botport.FileHandle, sub string) (string, error) {
	return "images/" + sub + "/" + h.FileID + ".jpg", nil
}

type commandCounter map[string]int

func (c commandCounter) ObserveUpdate(kind string) { c["update:"+kind]++ }

func (c commandCounter) ObserveCommand(command string, allowed bool) {
	if allowed {
		c[command+":allowed"]++
		return
	}
	c[command+":denied"]++
}

type fixture struct {
	router  *Router
	bot     *fakeadapter.FakeAdapter
	repo    *content.Repository
	store   *state.Store
	dataDir string
	metrics commandCounter
	fatal   []error
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	dir := t.TempDir()
	f := &fixture{
		bot:     &fakeadapter.FakeAdapter{NextMessageID: 500},
		repo:    content.NewRepository(dir, nil),
		dataDir: dir,
		store:   state.NewStore(logger),
		metrics: commandCounter{},
	}
	engine := workflow.NewEngine(f.bot, f.repo, stubIngester{}, f.store, logger, nil)
	f.router = New(Deps{
		Bot:     f.bot,
		Engine:  engine,
		Repo:    f.repo,
		Store:   f.store,
		Auth:    admins{admin},
		Logger:  logger,
		Metrics: f.metrics,
		Fatal:   func(err error) { f.fatal = append(f.fatal, err) },
	})
	f.router.now = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) }
	return f
}

func commandUpdate(from int64, command string) tgbotapi.Update {
	text := "/" + command
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From:     &tgbotapi.User{ID: from},
		Chat:     &tgbotapi.Chat{ID: chat},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
	}}
}

func textUpdate(from int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: from},
		Chat: &tgbotapi.Chat{ID: chat},
		Text: text,
	}}
}

func callbackUpdate(from int64, messageID int, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb-1",
		From: &tgbotapi.User{ID: from},
		Data: data,
		Message: &tgbotapi.Message{
			MessageID: messageID,
			Chat:      &tgbotapi.Chat{ID: chat},
			Text:      "Удалить проект Дом 1 (ID: 1)?",
		},
	}}
}

func (f *fixture) send(u tgbotapi.Update) {
	f.router.HandleUpdate(context.Background(), u)
}

func (f *fixture) lastReply(t *testing.T) string {
	t.Helper()
	call := f.bot.LastCall("send_message")
	if call == nil {
		t.Fatalf("expected a reply, got calls %+v", f.bot.Calls)
	}
	return call.Text
}

func (f *fixture) seedProject(t *testing.T) {
	t.Helper()
	_, err := f.repo.Projects.Create(func(id string) content.Project {
		return content.Project{Title: "Дом 1", Floors: "1 этаж", Area: 100, Price: 5000000, Status: content.StatusPublished}
	})
	if err != nil {
		t.Fatalf("seed project: %v", err)
	}
}

func TestNonAdminCommandIsDenied(t *testing.T) {
	f := newFixture(t)
	f.seedProject(t)

	f.send(commandUpdate(guest, "projects_delete"))

	if got := f.lastReply(t); got != msgDenied {
		t.Fatalf("expected denial, got %q", got)
	}
	if f.store.Len() != 0 {
		t.Fatalf("denied command must not open a session")
	}
	projects, err := f.repo.Projects.Read()
	if err != nil || len(projects) != 1 {
		t.Fatalf("projects changed: %v %+v", err, projects)
	}
	if f.metrics["projects_delete:denied"] != 1 {
		t.Fatalf("expected denied command metric, got %v", f.metrics)
	}
}

func TestNonAdminCannotDriveOpenSession(t *testing.T) {
	f := newFixture(t)
	f.seedProject(t)
	path := filepath.Join(f.dataDir, "projects.json")
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read projects: %v", err)
	}

	f.send(commandUpdate(admin, "projects_delete"))
	f.send(commandUpdate(guest, "projects_delete"))
	f.send(textUpdate(guest, "1"))
	f.send(textUpdate(guest, "да"))

	if got := f.lastReply(t); got != msgDenied {
		t.Fatalf("expected denial, got %q", got)
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read projects: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Fatalf("projects document changed:\n%s\n%s", before, after)
	}
	sess, ok := f.store.Get(chat)
	if !ok || sess.Kind != state.ProjectDelete || sess.Step() != "select" {
		t.Fatalf("admin session must stay at selection, got %+v", sess)
	}
}

func TestNonAdminTextIsDroppedSilently(t *testing.T) {
	f := newFixture(t)

	f.send(textUpdate(guest, "привет"))

	if len(f.bot.Calls) != 0 {
		t.Fatalf("expected no replies, got %+v", f.bot.Calls)
	}
}

func TestCancelIsAllowedForEveryone(t *testing.T) {
	f := newFixture(t)

	f.send(commandUpdate(guest, "cancel"))
	if got := f.lastReply(t); got != msgNothingToCancel {
		t.Fatalf("unexpected reply %q", got)
	}

	f.send(commandUpdate(admin, "projects_add"))
	if f.store.Len() != 1 {
		t.Fatalf("expected an open session")
	}
	f.send(commandUpdate(admin, "cancel"))
	if got := f.lastReply(t); got != msgCanceled {
		t.Fatalf("unexpected reply %q", got)
	}
	if f.store.Len() != 0 {
		t.Fatalf("cancel must drop the session")
	}
}

func TestDoneWithoutSession(t *testing.T) {
	f := newFixture(t)

	f.send(commandUpdate(admin, "done"))

	if got := f.lastReply(t); got != msgNothingToFinish {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestUnknownCommand(t *testing.T) {
	f := newFixture(t)

	f.send(commandUpdate(admin, "reboot"))

	if got := f.lastReply(t); got != msgUnknownCommand {
		t.Fatalf("unexpected reply %q", got)
	}
	if f.metrics["unknown:allowed"] != 1 {
		t.Fatalf("unknown commands must be counted under one label, got %v", f.metrics)
	}
}

func TestStartShowsMenu(t *testing.T) {
	f := newFixture(t)

	f.send(commandUpdate(admin, "start"))

	got := f.lastReply(t)
	if !strings.Contains(got, "АЛЕВИТ СТРОЙ") || !strings.Contains(got, "/projects_add") {
		t.Fatalf("unexpected welcome %q", got)
	}
}

func TestListCommandRendersView(t *testing.T) {
	f := newFixture(t)
	f.seedProject(t)

	f.send(commandUpdate(admin, "projects_list"))

	if got := f.lastReply(t); !strings.Contains(got, "Дом 1") {
		t.Fatalf("expected project in list, got %q", got)
	}
}

func TestCallbackIsRoutedAsText(t *testing.T) {
	f := newFixture(t)
	f.seedProject(t)

	f.send(commandUpdate(admin, "projects_delete"))
	f.send(textUpdate(admin, "1"))
	f.send(callbackUpdate(admin, 77, "input:нет"))

	if call := f.bot.LastCall("answer_callback"); call == nil || call.Callback != "cb-1" {
		t.Fatalf("callback not answered: %+v", call)
	}
	edit := f.bot.LastCall("edit_message")
	if edit == nil || edit.MessageID != 77 || edit.Markup != nil {
		t.Fatalf("keyboard not stripped: %+v", edit)
	}
	if !strings.Contains(edit.Text, "👉 нет") {
		t.Fatalf("edited text must echo the choice, got %q", edit.Text)
	}
	if got := f.lastReply(t); !strings.Contains(got, "Удаление отменено") {
		t.Fatalf("unexpected reply %q", got)
	}
	projects, _ := f.repo.Projects.Read()
	if len(projects) != 1 {
		t.Fatalf("project must survive a declined delete")
	}
}

func TestCallbackIgnoresNotModified(t *testing.T) {
	f := newFixture(t)
	f.seedProject(t)

	f.send(commandUpdate(admin, "projects_delete"))
	f.send(textUpdate(admin, "1"))
	f.bot.Fail("edit_message", fakeadapter.MessageNotModified("edit_message"))
	f.send(callbackUpdate(admin, 77, "input:да"))

	if got := f.lastReply(t); !strings.Contains(got, "успешно удалён") {
		t.Fatalf("unexpected reply %q", got)
	}
	if len(f.fatal) != 0 {
		t.Fatalf("not-modified must not be fatal")
	}
}

func TestCallbackFromNonAdminIsOnlyAnswered(t *testing.T) {
	f := newFixture(t)

	f.send(callbackUpdate(guest, 77, "input:да"))

	if len(f.bot.CallsFor("answer_callback")) != 1 {
		t.Fatalf("callback must be acknowledged")
	}
	if len(f.bot.CallsFor("edit_message")) != 0 || len(f.bot.CallsFor("send_message")) != 0 {
		t.Fatalf("unexpected calls %+v", f.bot.Calls)
	}
}

func TestUnauthorizedTransportIsFatal(t *testing.T) {
	f := newFixture(t)
	f.bot.Fail("send_message", fakeadapter.Unauthorized("send_message"))

	f.send(commandUpdate(admin, "help"))

	if len(f.fatal) != 1 || !errors.Is(f.fatal[0], ErrUnauthorized) {
		t.Fatalf("expected fatal unauthorized, got %v", f.fatal)
	}
}

func TestRateLimitIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.bot.Fail("send_message", fakeadapter.RateLimited("send_message", time.Second))

	f.send(commandUpdate(admin, "help"))

	if len(f.fatal) != 0 {
		t.Fatalf("rate limit must not be fatal")
	}
}

func TestPricesExportSendsWorkbook(t *testing.T) {
	f := newFixture(t)
	f.seedProject(t)

	f.send(commandUpdate(admin, "prices_export"))

	doc := f.bot.LastCall("send_document")
	if doc == nil {
		t.Fatalf("expected a document, got %+v", f.bot.Calls)
	}
	if doc.FileID != "alevit-prices-2024-05-01.xlsx" {
		t.Fatalf("unexpected file name %q", doc.FileID)
	}
	// xlsx is a zip archive.
	if len(doc.Data) < 4 || string(doc.Data[:2]) != "PK" {
		t.Fatalf("document is not a workbook")
	}
}

func TestPhotoHandlePicksLargestSize(t *testing.T) {
	msg := &tgbotapi.Message{Photo: []tgbotapi.PhotoSize{
		{FileID: "small", FileSize: 10},
		{FileID: "large", FileSize: 900},
	}}
	h, ok := photoHandle(msg)
	if !ok || h.FileID != "large" || h.Size != 900 {
		t.Fatalf("unexpected handle %+v %v", h, ok)
	}

	doc := &tgbotapi.Message{Document: &tgbotapi.Document{FileID: "scan", MimeType: "image/png", FileSize: 5}}
	if h, ok := photoHandle(doc); !ok || h.FileID != "scan" {
		t.Fatalf("image documents must be accepted, got %+v", h)
	}

	pdf := &tgbotapi.Message{Document: &tgbotapi.Document{FileID: "x", MimeType: "application/pdf"}}
	if _, ok := photoHandle(pdf); ok {
		t.Fatalf("non-image documents must be rejected")
	}
}

func TestSplit(t *testing.T) {
	if parts := Split("short", 10); len(parts) != 1 || parts[0] != "short" {
		t.Fatalf("unexpected parts %q", parts)
	}

	text := "строка1\nстрока2\nстрока3"
	parts := Split(text, 16)
	if len(parts) != 2 || parts[0] != "строка1\nстрока2" || parts[1] != "строка3" {
		t.Fatalf("unexpected parts %q", parts)
	}

	long := strings.Repeat("я", 25)
	parts = Split(long, 10)
	if len(parts) != 3 || len([]rune(parts[2])) != 5 {
		t.Fatalf("unexpected hard split %q", parts)
	}
}

func TestSplitKeepsMarkupBalanced(t *testing.T) {
	text := "<b>Заголовок</b>\n\n<b>" + strings.Repeat("x", 30) + "\n" + strings.Repeat("y", 30) + "</b>"

	parts := Split(text, 40)

	if len(parts) != 3 {
		t.Fatalf("expected 3 parts, got %q", parts)
	}
	if parts[0] != "<b>Заголовок</b>" {
		t.Fatalf("first cut must fall on the blank line, got %q", parts[0])
	}
	for i, p := range parts {
		if strings.Count(p, "<b>") != strings.Count(p, "</b>") {
			t.Fatalf("part %d has unbalanced tags: %q", i, p)
		}
	}
	if !strings.HasPrefix(parts[2], "<b>y") || !strings.HasSuffix(parts[1], "x</b>") {
		t.Fatalf("bold must be closed and reopened across the cut, got %q", parts)
	}
}

func TestSplitDoesNotCutInsideEntity(t *testing.T) {
	text := strings.Repeat("a", 8) + "&amp;" + strings.Repeat("b", 8)

	parts := Split(text, 10)

	for i, p := range parts {
		if strings.Contains(p, "&") && !strings.Contains(p, "&amp;") {
			t.Fatalf("part %d splits an entity: %q", i, p)
		}
	}
}
