package workflow

import (
	"context"
	"fmt"

	"github.com/Dmitrii-VO/SaitAlevit/pkg/content"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/state"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/workflow/inputs"
)

// Value steps shared by the edit workflows, keyed by the input they take.
const (
	stepEditText          = "edit_text"
	stepEditOptional      = "edit_optional"
	stepEditNumber        = "edit_number"
	stepEditStatus        = "edit_status"
	stepEditURL           = "edit_url"
	stepEditPhoto         = "edit_photo"
	stepEditOptionalPhoto = "edit_optional_photo"
	stepGalleryMenu       = "gallery_menu"
)

var valueSteps = []struct {
	name  string
	input string
}{
	{stepEditText, inputs.TypeText},
	{stepEditOptional, inputs.TypeOptionalText},
	{stepEditNumber, inputs.TypePositiveInt},
	{stepEditStatus, inputs.TypeStatus},
	{stepEditURL, inputs.TypeURL},
	{stepEditPhoto, inputs.TypePhoto},
	{stepEditOptionalPhoto, inputs.TypeOptionalPhoto},
}

func isPhotoStep(name string) bool {
	return name == stepEditPhoto || name == stepEditOptionalPhoto
}

// field describes one editable attribute of a record.
type field[T content.Record] struct {
	label string
	step  string
	ask   string
	show  func(*T) string
	set   func(*T, any)
	// guard rejects the field for records it does not apply to.
	guard func(*T) string
}

type editor[T content.Record] struct {
	kind        state.WorkflowKind
	cat         *catalog
	coll        func(*content.Repository) *content.Collection[T]
	fieldInput  string
	fieldPrompt string
	// order fixes the field listing; fields without an entry are unreachable.
	order  []string
	fields map[string]field[T]
	extra  []*step
}

func (ed *editor[T]) build() *flow {
	used := map[string]bool{}
	var next []string
	for _, name := range ed.order {
		st := ed.fields[name].step
		if !used[st] {
			used[st] = true
			next = append(next, st)
		}
	}

	steps := []*step{ed.cat.selectStep("select", false, "field"), ed.fieldStep(next)}
	for _, vs := range valueSteps {
		if used[vs.name] {
			steps = append(steps, ed.valueStep(vs.name, vs.input))
		}
	}
	if used[stepGalleryMenu] {
		steps = append(steps, ed.cat.galleryMenuStep(), ed.cat.galleryCollectStep())
	}
	steps = append(steps, ed.extra...)

	return &flow{
		kind:    ed.kind,
		first:   "select",
		catalog: ed.cat,
		steps:   steps,
		start: func(ctx context.Context, e *Engine, sess *state.Session) (bool, error) {
			return ed.cat.loadCandidates(ctx, e, sess)
		},
	}
}

func (ed *editor[T]) fieldStep(next []string) *step {
	return &step{
		name:   "field",
		input:  ed.fieldInput,
		next:   next,
		prompt: staticPrompt(ed.fieldPrompt),
		apply: func(ctx context.Context, t *turn, res inputs.Result) (outcome, error) {
			name, _ := res.Value.(string)
			f, ok := ed.fields[name]
			if !ok {
				return outcome{}, fmt.Errorf("field %q has no editor", name)
			}
			if f.guard != nil {
				rec, err := ed.coll(t.engine.repo).Get(t.session.SelectedID)
				if err != nil {
					return outcome{}, err
				}
				if msg := f.guard(&rec); msg != "" {
					return retry(msg), nil
				}
			}
			t.session.Field = name
			return advance(f.step, ""), nil
		},
	}
}

func (ed *editor[T]) current(t *turn) (field[T], T, error) {
	f := ed.fields[t.session.Field]
	rec, err := ed.coll(t.engine.repo).Get(t.session.SelectedID)
	return f, rec, err
}

func (ed *editor[T]) valueStep(name, input string) *step {
	return &step{
		name:  name,
		input: input,
		prompt: func(ctx context.Context, t *turn) (string, error) {
			f, rec, err := ed.current(t)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Текущее значение «%s»: <b>%s</b>\n\n%s", f.label, f.show(&rec), f.ask), nil
		},
		apply: func(ctx context.Context, t *turn, res inputs.Result) (outcome, error) {
			f := ed.fields[t.session.Field]
			if f.set == nil {
				return outcome{}, fmt.Errorf("field %q is not settable", t.session.Field)
			}

			value := res.Value
			if isPhotoStep(name) && !res.Skipped {
				rel, err := t.engine.storePhoto(ctx, res, ed.cat.subdir)
				if err != nil {
					return outcome{}, err
				}
				value = rel
			}

			var before, after string
			_, err := ed.coll(t.engine.repo).Update(t.session.SelectedID, func(rec *T) error {
				before = f.show(rec)
				f.set(rec, value)
				after = f.show(rec)
				return nil
			})
			if err != nil {
				return outcome{}, err
			}
			t.engine.log.Info("record updated", "entity", ed.cat.entity, "id", t.session.SelectedID, "field", t.session.Field, "chat_id", t.session.ChatID)

			head := fmt.Sprintf("✅ <b>Поле «%s» успешно обновлено!</b>\n\n", f.label)
			var body string
			switch {
			case isPhotoStep(name) && res.Skipped:
				body = "Фото удалено"
			case isPhotoStep(name):
				body = "Новое фото загружено"
			default:
				body = fmt.Sprintf("Было: %s\nСтало: %s", before, after)
			}
			return finish(head + body + "\n\n" + msgBackToMenu), nil
		},
	}
}

// Setters for the value types produced by the shared steps.

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int {
	n, _ := v.(int)
	return n
}

func asStatus(v any) content.Status {
	s, _ := v.(content.Status)
	return s
}

func showPhoto(path string) string {
	if path == "" {
		return "нет"
	}
	return "загружено"
}
