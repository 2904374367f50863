package workflow

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dmitrii-VO/SaitAlevit/pkg/content"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/state"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/workflow/inputs"
)

// catalog describes a list document for select, delete and gallery steps.
type catalog struct {
	entity string

	list     func(repo *content.Repository) ([]state.Candidate, error)
	remove   func(repo *content.Repository, id string) (bool, error)
	gallery  func(repo *content.Repository, id string) ([]string, error)
	setGal   func(repo *content.Repository, id string, fn func([]string) []string) ([]string, error)
	subdir   string
	headEdit string
	headDel  string
	ask      string
	empty    string
	missing  string
	notFound string
	picked   string
	confirm  string
	removed  string
}

func projectCatalog() *catalog {
	return &catalog{
		entity: "projects",
		list: func(repo *content.Repository) ([]state.Candidate, error) {
			return candidates(repo.Projects, func(p content.Project) state.Candidate {
				return state.Candidate{ID: p.ID, Title: p.Title}
			})
		},
		remove: func(repo *content.Repository, id string) (bool, error) { return repo.Projects.DeleteByID(id) },
		gallery: func(repo *content.Repository, id string) ([]string, error) {
			p, err := repo.Projects.Get(id)
			return p.Gallery, err
		},
		setGal: func(repo *content.Repository, id string, fn func([]string) []string) ([]string, error) {
			p, err := repo.Projects.Update(id, func(p *content.Project) error {
				p.Gallery = fn(p.Gallery)
				return nil
			})
			return p.Gallery, err
		},
		subdir:   "projects",
		headEdit: "<b>Выберите проект для редактирования:</b>",
		headDel:  "<b>Выберите проект для удаления:</b>",
		ask:      "Введите номер проекта или его ID:",
		empty:    "📭 Проектов пока нет.",
		missing:  "❌ Проект не найден. Попробуйте ещё раз или /cancel",
		notFound: "❌ Проект не найден.",
		picked:   "Выбран проект: <b>%s</b>",
		confirm:  "Удалить проект <b>%s</b> (ID: %s)?\nВведите \"да\" или \"нет\":",
		removed:  "✅ Проект с ID %s успешно удалён.",
	}
}

func workCatalog() *catalog {
	return &catalog{
		entity: "works",
		list: func(repo *content.Repository) ([]state.Candidate, error) {
			return candidates(repo.Works, func(w content.Work) state.Candidate {
				return state.Candidate{ID: w.ID, Title: w.Title}
			})
		},
		remove: func(repo *content.Repository, id string) (bool, error) { return repo.Works.DeleteByID(id) },
		gallery: func(repo *content.Repository, id string) ([]string, error) {
			w, err := repo.Works.Get(id)
			return w.Gallery, err
		},
		setGal: func(repo *content.Repository, id string, fn func([]string) []string) ([]string, error) {
			w, err := repo.Works.Update(id, func(w *content.Work) error {
				w.Gallery = fn(w.Gallery)
				return nil
			})
			return w.Gallery, err
		},
		subdir:   "works",
		headEdit: "<b>Выберите работу для редактирования:</b>",
		headDel:  "<b>Выберите работу для удаления:</b>",
		ask:      "Введите номер работы или её ID:",
		empty:    "📭 Работ пока нет.",
		missing:  "❌ Работа не найдена. Попробуйте ещё раз или /cancel",
		notFound: "❌ Работа не найдена.",
		picked:   "Выбрана работа: <b>%s</b>",
		confirm:  "Удалить работу <b>%s</b> (ID: %s)?\nВведите \"да\" или \"нет\":",
		removed:  "✅ Работа с ID %s успешно удалена.",
	}
}

func reviewCatalog() *catalog {
	return &catalog{
		entity: "reviews",
		list: func(repo *content.Repository) ([]state.Candidate, error) {
			return candidates(repo.Reviews, func(r content.Review) state.Candidate {
				return state.Candidate{ID: r.ID, Title: r.ClientName}
			})
		},
		remove:   func(repo *content.Repository, id string) (bool, error) { return repo.Reviews.DeleteByID(id) },
		subdir:   "reviews",
		headEdit: "<b>Выберите отзыв для редактирования:</b>",
		headDel:  "<b>Выберите отзыв для удаления:</b>",
		ask:      "Введите номер отзыва или его ID:",
		empty:    "📭 Отзывов пока нет.",
		missing:  "❌ Отзыв не найден. Попробуйте ещё раз или /cancel",
		notFound: "❌ Отзыв не найден.",
		picked:   "Выбран отзыв от: <b>%s</b>",
		confirm:  "Удалить отзыв от <b>%s</b> (ID: %s)?\nВведите \"да\" или \"нет\":",
		removed:  "✅ Отзыв с ID %s успешно удалён.",
	}
}

func candidates[T content.Record](c *content.Collection[T], conv func(T) state.Candidate) ([]state.Candidate, error) {
	items, err := c.Read()
	if err != nil {
		return nil, err
	}
	out := make([]state.Candidate, 0, len(items))
	for _, item := range items {
		out = append(out, conv(item))
	}
	return out, nil
}

// loadCandidates refuses to open a select dialogue over an empty list.
func (c *catalog) loadCandidates(ctx context.Context, e *Engine, sess *state.Session) (bool, error) {
	list, err := c.list(e.repo)
	if err != nil {
		return false, err
	}
	if len(list) == 0 {
		return false, e.reply(ctx, sess.ChatID, c.empty)
	}
	sess.Candidates = list
	return true, nil
}

// resolve finds a candidate by 1-based position or by id.
func (c *catalog) resolve(list []state.Candidate, input string) (state.Candidate, bool) {
	input = strings.TrimSpace(input)
	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(list) {
		return list[n-1], true
	}
	for _, cand := range list {
		if cand.ID == input {
			return cand, true
		}
	}
	return state.Candidate{}, false
}

func (c *catalog) selectStep(name string, deleting bool, next string) *step {
	return &step{
		name:  name,
		input: inputs.TypeText,
		next:  []string{next},
		prompt: func(ctx context.Context, t *turn) (string, error) {
			var b strings.Builder
			if deleting {
				b.WriteString(c.headDel)
			} else {
				b.WriteString(c.headEdit)
			}
			b.WriteString("\n\n")
			for i, cand := range t.session.Candidates {
				fmt.Fprintf(&b, "%d. %s (ID: %s)\n", i+1, esc(cand.Title), esc(cand.ID))
			}
			b.WriteString("\n")
			if deleting {
				b.WriteString("⚠️ <b>Внимание!</b> Это действие нельзя отменить.\n")
			}
			b.WriteString(c.ask)
			return b.String(), nil
		},
		apply: func(ctx context.Context, t *turn, res inputs.Result) (outcome, error) {
			cand, ok := c.resolve(t.session.Candidates, res.Value.(string))
			if !ok {
				return retry(c.missing), nil
			}
			t.session.SelectedID = cand.ID
			t.session.SelectedTitle = cand.Title
			if deleting {
				return advance(next, ""), nil
			}
			return advance(next, fmt.Sprintf(c.picked, esc(cand.Title))), nil
		},
	}
}

func deleteFlow(kind state.WorkflowKind, c *catalog) *flow {
	confirm := &step{
		name:  "confirm",
		input: inputs.TypeConfirm,
		prompt: func(ctx context.Context, t *turn) (string, error) {
			return fmt.Sprintf(c.confirm, esc(t.session.SelectedTitle), esc(t.session.SelectedID)), nil
		},
		apply: func(ctx context.Context, t *turn, res inputs.Result) (outcome, error) {
			if yes, _ := res.Value.(bool); !yes {
				return finish("Удаление отменено.\n\n" + msgBackToMenu), nil
			}
			removed, err := c.remove(t.engine.repo, t.session.SelectedID)
			if err != nil {
				return outcome{}, err
			}
			if !removed {
				return finish(c.notFound), nil
			}
			t.engine.log.Info("record deleted", "entity", c.entity, "id", t.session.SelectedID, "chat_id", t.session.ChatID)
			return finish(fmt.Sprintf(c.removed, esc(t.session.SelectedID)) + "\n\n" + msgBackToMenu), nil
		},
	}
	return &flow{
		kind:    kind,
		first:   "select",
		catalog: c,
		steps:   []*step{c.selectStep("select", true, "confirm"), confirm},
		start: func(ctx context.Context, e *Engine, sess *state.Session) (bool, error) {
			return c.loadCandidates(ctx, e, sess)
		},
	}
}

// galleryMenuStep offers append / clear / replace for the selected record.
func (c *catalog) galleryMenuStep() *step {
	return &step{
		name:  "gallery_menu",
		input: inputs.TypeGalleryMenu,
		next:  []string{"gallery_collect"},
		prompt: func(ctx context.Context, t *turn) (string, error) {
			gallery, err := c.gallery(t.engine.repo, t.session.SelectedID)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Текущая галерея содержит %d фото.\n\n"+
				"Что хотите сделать?\n"+
				"1. Добавить фото\n"+
				"2. Очистить галерею\n"+
				"3. Заменить галерею\n\n"+
				"Введите номер действия:", len(gallery)), nil
		},
		apply: func(ctx context.Context, t *turn, res inputs.Result) (outcome, error) {
			switch res.Value.(inputs.GalleryAction) {
			case inputs.GalleryClear:
				gallery, err := c.setGal(t.engine.repo, t.session.SelectedID, func([]string) []string { return []string{} })
				if err != nil {
					return outcome{}, err
				}
				return finish(galleryUpdated(len(gallery))), nil
			case inputs.GalleryAdd:
				t.session.GalleryMode = state.GalleryAppend
			default:
				t.session.GalleryMode = state.GalleryReplace
			}
			t.session.Scratch = nil
			return advance("gallery_collect", ""), nil
		},
	}
}

// galleryCollectStep gathers photos until /done and commits them in one write.
func (c *catalog) galleryCollectStep() *step {
	return &step{
		name:  "gallery_collect",
		input: inputs.TypeGallery,
		prompt: func(ctx context.Context, t *turn) (string, error) {
			if t.session.GalleryMode == state.GalleryAppend {
				return "📷 Отправьте фото для добавления в галерею (можно несколько).\nКогда закончите, отправьте /done", nil
			}
			return "📷 Отправьте новые фото для галереи (можно несколько).\nКогда закончите, отправьте /done", nil
		},
		apply: func(ctx context.Context, t *turn, res inputs.Result) (outcome, error) {
			if !res.Done {
				rel, err := t.engine.storePhoto(ctx, res, c.subdir)
				if err != nil {
					return outcome{}, err
				}
				t.session.Scratch = append(t.session.Scratch, rel)
				return stay(fmt.Sprintf("✅ Фото добавлено (всего: %d)\nОтправьте ещё фото или /done для завершения", len(t.session.Scratch))), nil
			}
			scratch := append([]string{}, t.session.Scratch...)
			mode := t.session.GalleryMode
			gallery, err := c.setGal(t.engine.repo, t.session.SelectedID, func(existing []string) []string {
				return mergeGallery(existing, scratch, mode)
			})
			if err != nil {
				return outcome{}, err
			}
			return finish(galleryUpdated(len(gallery))), nil
		},
	}
}

func mergeGallery(existing, scratch []string, mode state.GalleryMode) []string {
	if mode == state.GalleryAppend {
		out := make([]string, 0, len(existing)+len(scratch))
		out = append(out, existing...)
		return append(out, scratch...)
	}
	return append([]string{}, scratch...)
}

func galleryUpdated(n int) string {
	return fmt.Sprintf("✅ Галерея обновлена! Теперь в ней %d фото.\n\n%s", n, msgBackToMenu)
}
