package workflow

import (
	"context"
	"fmt"

	"github.com/Dmitrii-VO/SaitAlevit/pkg/content"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/state"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/workflow/inputs"
)

var (
	formatOptions = []inputs.Option{
		{Label: "Коробка", Value: "коробка"},
		{Label: "Чистовая отделка", Value: "чистовая отделка"},
		{Label: "Под ключ", Value: "под ключ"},
	}
	workStatusOptions = []inputs.Option{
		{Label: "Построен", Value: "построен"},
		{Label: "Строится", Value: "строится"},
		{Label: "Сдан в эксплуатацию", Value: "сдан в эксплуатацию"},
	}
)

func workAddFlow() *flow {
	steps := []*step{
		{
			name:   "title",
			input:  inputs.TypeText,
			next:   []string{"area"},
			prompt: staticPrompt("1️⃣ Введите название работы:"),
			apply: func(ctx context.Context, t *turn, res inputs.Result) (outcome, error) {
				t.session.Work.Title = res.Value.(string)
				return advance("area", fmt.Sprintf("✅ Название: <b>%s</b>", esc(t.session.Work.Title))), nil
			},
		},
		{
			name:    "area",
			input:   inputs.TypePositiveInt,
			invalid: "❌ Пожалуйста, введите корректное число (например: 136)",
			next:    []string{"format"},
			prompt:  staticPrompt("2️⃣ Введите площадь в м² (только число):"),
			apply: func(ctx context.Context, t *turn, res inputs.Result) (outcome, error) {
				t.session.Work.Area = res.Value.(int)
				return advance("format", fmt.Sprintf("✅ Площадь: <b>%d м²</b>", t.session.Work.Area)), nil
			},
		},
		{
			name:    "format",
			input:   inputs.TypeText,
			options: formatOptions,
			next:    []string{"work_status"},
			prompt:  staticPrompt("3️⃣ Введите формат (коробка, чистовая отделка, под ключ):"),
			apply: func(ctx context.Context, t *turn, res inputs.Result) (outcome, error) {
				t.session.Work.Format = res.Value.(string)
				return advance("work_status", fmt.Sprintf("✅ Формат: <b>%s</b>", esc(t.session.Work.Format))), nil
			},
		},
		{
			name:    "work_status",
			input:   inputs.TypeText,
			options: workStatusOptions,
			next:    []string{"description"},
			prompt:  staticPrompt("4️⃣ Введите статус работы (построен, строится, сдан в эксплуатацию):"),
			apply: func(ctx context.Context, t *turn, res inputs.Result) (outcome, error) {
				t.session.Work.WorkStatus = res.Value.(string)
				return advance("description", fmt.Sprintf("✅ Статус работы: <b>%s</b>", esc(t.session.Work.WorkStatus))), nil
			},
		},
		descriptionStep("5️⃣ Введите описание работы (или /skip для пропуска):", "address", func(s *state.Session) *string {
			return &s.Work.Description
		}),
		optionalTextStep("address", "6️⃣ Введите адрес/локацию работы (или /skip для пропуска):", "main_image",
			"✅ Адрес сохранён", "✅ Адрес пропущен", func(s *state.Session) *string { return &s.Work.Address }),
		mainImageStep("7️⃣ 📸 Отправьте главное фото работы:", "gallery", "works", func(s *state.Session) *string {
			return &s.Work.MainImage
		}),
		addGalleryStep("8️⃣ 📷 Отправьте фото для галереи (можно несколько).\nКогда закончите, отправьте /done", "status", "works", func(s *state.Session) *[]string {
			return &s.Work.Gallery
		}),
		{
			name:   "status",
			input:  inputs.TypeStatus,
			prompt: staticPrompt("9️⃣ Установить статус публикации:\nВведите \"опубликован\" или \"скрыт\":"),
			apply: func(ctx context.Context, t *turn, res inputs.Result) (outcome, error) {
				draft := t.session.Work
				draft.Status = res.Value.(content.Status)
				created, err := t.engine.repo.Works.Create(func(id string) content.Work {
					w := draft
					w.ID = id
					w.CreatedAt = t.engine.now()
					return w
				})
				if err != nil {
					return outcome{}, err
				}
				t.engine.log.Info("record created", "entity", "works", "id", created.ID, "chat_id", t.session.ChatID)
				return finish(fmt.Sprintf("✅ <b>Работа \"%s\" успешно добавлена!</b>\n\n"+
					"ID: %s\nПлощадь: %d м²\nФормат: %s\nСтатус работы: %s\nСтатус: %s\n\n"+
					"Используйте /works_list для просмотра всех работ.\n%s",
					esc(created.Title), esc(created.ID), created.Area, esc(created.Format), esc(created.WorkStatus),
					statusLabel(created.Status), msgBackToMenu)), nil
			},
		},
	}
	return &flow{
		kind:  state.WorkAdd,
		first: "title",
		intro: "🏗 <b>Добавление новой работы</b>",
		steps: steps,
	}
}

func workEditFlow() *flow {
	ed := &editor[content.Work]{
		kind:       state.WorkEdit,
		cat:        workCatalog(),
		coll:       func(r *content.Repository) *content.Collection[content.Work] { return r.Works },
		fieldInput: inputs.TypeWorkField,
		fieldPrompt: "Что хотите изменить?\nВведите название поля " +
			"(название, площадь, формат, статус работы, описание, адрес, главное фото, галерея, статус публикации) или /cancel:",
		order: []string{
			inputs.FieldTitle, inputs.FieldArea, inputs.FieldFormat, inputs.FieldWorkStatus, inputs.FieldDescription,
			inputs.FieldAddress, inputs.FieldMainImage, inputs.FieldGallery, inputs.FieldStatus,
		},
		fields: map[string]field[content.Work]{
			inputs.FieldTitle: {
				label: "Название", step: stepEditText, ask: "Введите новое название:",
				show: func(w *content.Work) string { return esc(w.Title) },
				set:  func(w *content.Work, v any) { w.Title = asString(v) },
			},
			inputs.FieldArea: {
				label: "Площадь", step: stepEditNumber, ask: "Введите новую площадь в м² (только число):",
				show: func(w *content.Work) string { return fmt.Sprintf("%d м²", w.Area) },
				set:  func(w *content.Work, v any) { w.Area = asInt(v) },
			},
			inputs.FieldFormat: {
				label: "Формат", step: stepEditText, ask: "Введите новый формат (коробка, чистовая отделка, под ключ):",
				show: func(w *content.Work) string { return orDash(w.Format, "не указан") },
				set:  func(w *content.Work, v any) { w.Format = asString(v) },
			},
			inputs.FieldWorkStatus: {
				label: "Статус работы", step: stepEditText, ask: "Введите новый статус работы (построен, строится, сдан в эксплуатацию):",
				show: func(w *content.Work) string { return orDash(w.WorkStatus, "не указан") },
				set:  func(w *content.Work, v any) { w.WorkStatus = asString(v) },
			},
			inputs.FieldDescription: {
				label: "Описание", step: stepEditOptional, ask: "Введите новое описание (или /skip для очистки):",
				show: func(w *content.Work) string { return orDash(w.Description, "не указано") },
				set:  func(w *content.Work, v any) { w.Description = asString(v) },
			},
			inputs.FieldAddress: {
				label: "Адрес", step: stepEditOptional, ask: "Введите новый адрес (или /skip для очистки):",
				show: func(w *content.Work) string { return orDash(w.Address, "не указан") },
				set:  func(w *content.Work, v any) { w.Address = asString(v) },
			},
			inputs.FieldStatus: {
				label: "Статус публикации", step: stepEditStatus, ask: "Введите новый статус (\"опубликован\" или \"скрыт\"):",
				show: func(w *content.Work) string { return statusWord(w.Status) },
				set:  func(w *content.Work, v any) { w.Status = asStatus(v) },
			},
			inputs.FieldMainImage: {
				label: "Главное фото", step: stepEditPhoto, ask: "📸 Отправьте новое главное фото:",
				show: func(w *content.Work) string { return showPhoto(w.MainImage) },
				set:  func(w *content.Work, v any) { w.MainImage = asString(v) },
			},
			inputs.FieldGallery: {label: "Галерея", step: stepGalleryMenu},
		},
	}
	return ed.build()
}
