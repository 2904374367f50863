package workflow

import (
	"context"
	"fmt"

	"github.com/Dmitrii-VO/SaitAlevit/pkg/state"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/workflow/inputs"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/looplab/fsm"
)

const (
	stateStart  = "start"
	eventPrefix = "goto_"
)

type step struct {
	name  string
	input string
	// invalid replaces the strategy's feedback for rejected text.
	invalid string
	// options overrides the strategy keyboard for free-text steps.
	options []inputs.Option
	prompt  func(ctx context.Context, t *turn) (string, error)
	next    []string
	apply   func(ctx context.Context, t *turn, res inputs.Result) (outcome, error)
}

type flow struct {
	kind  state.WorkflowKind
	first string
	// intro is prepended to the first prompt.
	intro   string
	steps   []*step
	catalog *catalog
	// start runs before the session is stored. Returning false aborts quietly.
	start func(ctx context.Context, e *Engine, sess *state.Session) (bool, error)
}

func (f *flow) step(name string) *step {
	for _, s := range f.steps {
		if s.name == name {
			return s
		}
	}
	return nil
}

func (f *flow) validate() error {
	if f.step(f.first) == nil {
		return fmt.Errorf("first step %q is not defined", f.first)
	}
	for _, s := range f.steps {
		if s.prompt == nil || s.apply == nil {
			return fmt.Errorf("step %q lacks prompt or apply", s.name)
		}
		if inputs.Get(s.input) == nil {
			return fmt.Errorf("step %q uses unregistered input %q", s.name, s.input)
		}
		for _, n := range s.next {
			if f.step(n) == nil {
				return fmt.Errorf("step %q lists unknown successor %q", s.name, n)
			}
		}
	}
	return nil
}

// newMachine builds the transition table: goto_<step> is legal only from
// steps that list <step> as a successor.
func (f *flow) newMachine(e *Engine) *fsm.FSM {
	sources := map[string][]string{f.first: {stateStart}}
	for _, s := range f.steps {
		for _, n := range s.next {
			sources[n] = append(sources[n], s.name)
		}
	}

	var events fsm.Events
	for _, s := range f.steps {
		src := sources[s.name]
		if len(src) == 0 {
			continue
		}
		events = append(events, fsm.EventDesc{Name: eventPrefix + s.name, Src: src, Dst: s.name})
	}

	callbacks := fsm.Callbacks{
		"enter_state": func(ctx context.Context, ev *fsm.Event) {
			if len(ev.Args) < 2 {
				ev.Err = fmt.Errorf("enter %s: missing turn arguments", ev.Dst)
				return
			}
			t, okT := ev.Args[0].(*turn)
			echo, okE := ev.Args[1].(string)
			if !okT || !okE || t == nil {
				ev.Err = fmt.Errorf("enter %s: bad turn arguments", ev.Dst)
				return
			}
			st := t.flow.step(ev.Dst)
			if st == nil {
				t.err = fmt.Errorf("enter unknown step %q", ev.Dst)
				return
			}
			t.err = t.prompt(ctx, st, echo)
		},
	}

	return fsm.NewFSM(stateStart, events, callbacks)
}

// outcome tells the engine what to do after a step applied its input.
type outcome struct {
	next     string
	echo     string
	finish   bool
	repeat   string
	reprompt bool
}

// advance moves to step next, sending echo above its prompt.
func advance(next, echo string) outcome { return outcome{next: next, echo: echo} }

// finish ends the workflow with a final message.
func finish(msg string) outcome { return outcome{finish: true, echo: msg} }

// retry keeps the step and reports a problem with the input.
func retry(feedback string) outcome { return outcome{repeat: feedback} }

// stay keeps the step and sends a progress message.
func stay(msg string) outcome { return outcome{echo: msg} }

// again keeps the step and sends echo followed by a fresh prompt.
func again(echo string) outcome { return outcome{echo: echo, reprompt: true} }

// turn carries one update's processing state through the machine callbacks.
type turn struct {
	engine  *Engine
	session *state.Session
	flow    *flow
	err     error
	sendErr error
}

func (t *turn) enter(ctx context.Context, name, echo string) error {
	if err := t.session.Machine.Event(ctx, eventPrefix+name, t, echo); err != nil {
		return fmt.Errorf("transition %s -> %s: %w", t.session.Step(), name, err)
	}
	return t.err
}

func (t *turn) prompt(ctx context.Context, st *step, echo string) error {
	text, err := st.prompt(ctx, t)
	if err != nil {
		return err
	}
	if echo != "" {
		text = echo + "\n\n" + text
	}

	var markup interface{}
	if kb := t.keyboard(st); kb != nil {
		markup = *kb
	}

	msg, err := t.engine.bot.SendMessage(ctx, t.session.ChatID, text, markup)
	if err != nil {
		t.engine.log.Warn("prompt failed", "chat_id", t.session.ChatID, "step", st.name, "error", err)
		t.sendErr = err
		return nil
	}
	t.session.LastPrompt = msg.MessageID
	return nil
}

func (t *turn) keyboard(st *step) *tgbotapi.InlineKeyboardMarkup {
	if len(st.options) > 0 {
		return inputs.Keyboard(optionSet(st.options))
	}
	strategy := inputs.Get(st.input)
	if strategy == nil {
		return nil
	}
	return inputs.Keyboard(strategy)
}

// optionSet adapts a plain option list to inputs.Keyboard.
type optionSet []inputs.Option

func (o optionSet) Name() string                      { return "options" }
func (o optionSet) Accept(inputs.Input) inputs.Result { return inputs.Result{} }
func (o optionSet) Options() []inputs.Option          { return o }

func staticPrompt(text string) func(context.Context, *turn) (string, error) {
	return func(context.Context, *turn) (string, error) { return text, nil }
}
