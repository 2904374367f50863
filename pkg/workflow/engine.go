// Package workflow runs the multi-step operator dialogues that create, edit
// and delete site content.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dmitrii-VO/SaitAlevit/pkg/content"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/ingest"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/ports/botport"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/state"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/workflow/inputs"
)

const (
	MsgGenericError   = "❌ Произошла ошибка. Попробуйте ещё раз или /cancel"
	MsgPhotoError     = "❌ Ошибка при сохранении фото. Попробуйте ещё раз или /cancel"
	MsgPhotoTooLarge  = "❌ Файл слишком большой. Максимальный размер: 10 МБ"
	msgBackToMenu     = "Используйте /menu для возврата в главное меню."
	resultStarted     = "started"
	resultCompleted   = "completed"
	resultCanceled    = "canceled"
	resultFailed      = "failed"
	resultPhotoFailed = "photo_failed"
)

// Ingester stores an inbound photo and returns its site-relative path.
type Ingester interface {
	Ingest(ctx context.Context, handle botport.FileHandle, subfolder string) (string, error)
}

// Recorder receives workflow lifecycle events. Implementations must be nil-safe.
type Recorder interface {
	ObserveWorkflow(workflow, result string)
}

type Engine struct {
	bot     botport.BotPort
	repo    *content.Repository
	ingest  Ingester
	store   *state.Store
	log     *slog.Logger
	metrics Recorder
	now     func() time.Time
	flows   map[state.WorkflowKind]*flow
}

// NewEngine wires the dialogue engine. metrics may be nil.
func NewEngine(bot botport.BotPort, repo *content.Repository, ing Ingester, store *state.Store, logger *slog.Logger, metrics Recorder) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	inputs.RegisterBuiltins()
	e := &Engine{
		bot:     bot,
		repo:    repo,
		ingest:  ing,
		store:   store,
		log:     logger,
		metrics: metrics,
		now:     time.Now,
	}
	e.flows = map[state.WorkflowKind]*flow{
		state.ProjectAdd:    projectAddFlow(),
		state.ProjectEdit:   projectEditFlow(),
		state.ProjectDelete: deleteFlow(state.ProjectDelete, projectCatalog()),
		state.WorkAdd:       workAddFlow(),
		state.WorkEdit:      workEditFlow(),
		state.WorkDelete:    deleteFlow(state.WorkDelete, workCatalog()),
		state.ReviewAdd:     reviewAddFlow(),
		state.ReviewEdit:    reviewEditFlow(),
		state.ReviewDelete:  deleteFlow(state.ReviewDelete, reviewCatalog()),
		state.ContactsEdit:  contactsEditFlow(),
		state.PricesEdit:    pricesEditFlow(),
	}
	for kind, f := range e.flows {
		if err := f.validate(); err != nil {
			panic(fmt.Sprintf("workflow %s: %v", kind, err))
		}
	}
	return e
}

// Start opens a new session of the given kind, replacing any session the chat had.
func (e *Engine) Start(ctx context.Context, chatID int64, kind state.WorkflowKind) error {
	f, ok := e.flows[kind]
	if !ok {
		return fmt.Errorf("no workflow for kind %s", kind)
	}

	if prev, ok := e.store.Get(chatID); ok {
		e.log.Info("session overwritten", "chat_id", chatID, "previous", prev.Kind.String(), "step", prev.Step())
		e.observe(prev.Kind, resultCanceled)
		e.store.Clear(chatID)
	}

	sess := state.NewSession(chatID, kind, e.now())
	sess.Machine = f.newMachine(e)

	if f.start != nil {
		proceed, err := f.start(ctx, e, sess)
		if err != nil {
			e.log.Error("workflow start failed", "chat_id", chatID, "workflow", kind.String(), "error", err)
			return e.reply(ctx, chatID, MsgGenericError)
		}
		if !proceed {
			return nil
		}
	}

	e.store.Set(chatID, sess)
	e.observe(kind, resultStarted)
	e.log.Info("workflow started", "chat_id", chatID, "workflow", kind.String(), "session_id", sess.ID)

	t := &turn{engine: e, session: sess, flow: f}
	if err := t.enter(ctx, f.first, f.intro); err != nil {
		return e.fail(ctx, sess, err)
	}
	return t.sendErr
}

// Active reports whether the chat has a session in progress.
func (e *Engine) Active(chatID int64) bool {
	_, ok := e.store.Get(chatID)
	return ok
}

// Cancel discards the chat's session. It reports whether one existed.
func (e *Engine) Cancel(chatID int64) bool {
	sess, ok := e.store.Get(chatID)
	if !ok {
		return false
	}
	e.store.Clear(chatID)
	e.observe(sess.Kind, resultCanceled)
	e.log.Info("workflow canceled", "chat_id", chatID, "workflow", sess.Kind.String(), "step", sess.Step())
	return true
}

// Done delivers /done. It only has an effect at a gallery collection step.
func (e *Engine) Done(ctx context.Context, chatID int64) error {
	sess, ok := e.store.Get(chatID)
	if !ok {
		return nil
	}
	f := e.flows[sess.Kind]
	st := f.step(sess.Step())
	if st == nil || st.input != inputs.TypeGallery {
		e.log.Debug("done ignored outside gallery step", "chat_id", chatID, "step", sess.Step())
		return nil
	}
	return e.Handle(ctx, chatID, inputs.TextInput("/done"))
}

// Handle feeds one operator input into the chat's session.
func (e *Engine) Handle(ctx context.Context, chatID int64, in inputs.Input) error {
	sess, ok := e.store.Get(chatID)
	if !ok {
		return nil
	}
	f, ok := e.flows[sess.Kind]
	if !ok {
		return e.fail(ctx, sess, fmt.Errorf("no workflow for kind %s", sess.Kind))
	}
	st := f.step(sess.Step())
	if st == nil {
		return e.fail(ctx, sess, fmt.Errorf("session in unknown step %q", sess.Step()))
	}

	// Inputs are checked when the flows are built.
	strategy := inputs.MustGet(st.input)

	res := strategy.Accept(in)
	if res.Repeat {
		feedback := res.Feedback
		if st.invalid != "" && in.Source != inputs.SourcePhoto {
			feedback = st.invalid
		}
		return e.reply(ctx, chatID, feedback)
	}

	t := &turn{engine: e, session: sess, flow: f}
	out, err := st.apply(ctx, t, res)
	if err != nil {
		var perr *photoError
		if errors.As(err, &perr) {
			e.observe(sess.Kind, resultPhotoFailed)
			e.log.Warn("photo ingestion failed", "chat_id", chatID, "workflow", sess.Kind.String(), "step", st.name, "error", perr.err)
			if errors.Is(perr.err, ingest.ErrFileTooLarge) {
				return e.reply(ctx, chatID, MsgPhotoTooLarge)
			}
			return e.reply(ctx, chatID, MsgPhotoError)
		}
		return e.fail(ctx, sess, err)
	}

	switch {
	case out.repeat != "":
		return e.reply(ctx, chatID, out.repeat)
	case out.finish:
		e.store.Clear(chatID)
		e.observe(sess.Kind, resultCompleted)
		e.log.Info("workflow completed", "chat_id", chatID, "workflow", sess.Kind.String(), "session_id", sess.ID)
		return e.reply(ctx, chatID, out.echo)
	case out.next == "" || out.next == st.name:
		if out.reprompt {
			if err := t.prompt(ctx, st, out.echo); err != nil {
				return e.fail(ctx, sess, err)
			}
			return t.sendErr
		}
		return e.reply(ctx, chatID, out.echo)
	default:
		if err := t.enter(ctx, out.next, out.echo); err != nil {
			return e.fail(ctx, sess, err)
		}
		return t.sendErr
	}
}

// fail reports an unexpected error and discards the session.
func (e *Engine) fail(ctx context.Context, sess *state.Session, err error) error {
	e.store.Clear(sess.ChatID)
	e.observe(sess.Kind, resultFailed)

	if errors.Is(err, content.ErrNotFound) {
		e.log.Warn("workflow target vanished", "chat_id", sess.ChatID, "workflow", sess.Kind.String(), "error", err)
		msg := MsgGenericError
		if f, ok := e.flows[sess.Kind]; ok && f.catalog != nil {
			msg = f.catalog.notFound
		}
		return e.reply(ctx, sess.ChatID, msg)
	}

	e.log.Error("workflow step failed", "chat_id", sess.ChatID, "workflow", sess.Kind.String(), "step", sess.Step(), "error", err)
	return e.reply(ctx, sess.ChatID, MsgGenericError)
}

func (e *Engine) reply(ctx context.Context, chatID int64, text string) error {
	if text == "" {
		return nil
	}
	if _, err := e.bot.SendMessage(ctx, chatID, text, nil); err != nil {
		e.log.Warn("reply failed", "chat_id", chatID, "code", botport.Code(err), "error", err)
		return err
	}
	return nil
}

func (e *Engine) observe(kind state.WorkflowKind, result string) {
	if e.metrics != nil {
		e.metrics.ObserveWorkflow(kind.String(), result)
	}
}

// storePhoto ingests the photo carried by res into the given subfolder.
func (e *Engine) storePhoto(ctx context.Context, res inputs.Result, subfolder string) (string, error) {
	handle, ok := inputs.Photo(res)
	if !ok {
		return "", fmt.Errorf("photo step accepted a non-photo value %T", res.Value)
	}
	rel, err := e.ingest.Ingest(ctx, handle, subfolder)
	if err != nil {
		return "", &photoError{err: err}
	}
	return rel, nil
}

type photoError struct {
	err error
}

func (p *photoError) Error() string { return "store photo: " + p.err.Error() }

func (p *photoError) Unwrap() error { return p.err }
