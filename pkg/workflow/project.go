package workflow

import (
	"context"
	"fmt"

	"github.com/Dmitrii-VO/SaitAlevit/pkg/content"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/state"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/workflow/inputs"
)

var floorOptions = []inputs.Option{
	{Label: "1 этаж", Value: "1 этаж"},
	{Label: "2 этажа", Value: "2 этажа"},
}

func projectAddFlow() *flow {
	steps := []*step{
		{
			name:   "title",
			input:  inputs.TypeText,
			next:   []string{"floors"},
			prompt: staticPrompt("1️⃣ Введите название проекта:"),
			apply: func(ctx context.Context, t *turn, res inputs.Result) (outcome, error) {
				t.session.Project.Title = res.Value.(string)
				return advance("floors", fmt.Sprintf("✅ Название: <b>%s</b>", esc(t.session.Project.Title))), nil
			},
		},
		{
			name:    "floors",
			input:   inputs.TypeText,
			options: floorOptions,
			next:    []string{"area"},
			prompt:  staticPrompt("2️⃣ Выберите этажность:\nВведите \"1 этаж\" или \"2 этажа\":"),
			apply: func(ctx context.Context, t *turn, res inputs.Result) (outcome, error) {
				t.session.Project.Floors = res.Value.(string)
				return advance("area", fmt.Sprintf("✅ Этажность: <b>%s</b>", esc(t.session.Project.Floors))), nil
			},
		},
		{
			name:    "area",
			input:   inputs.TypePositiveInt,
			invalid: "❌ Пожалуйста, введите корректное число (например: 136)",
			next:    []string{"price"},
			prompt:  staticPrompt("3️⃣ Введите площадь в м² (только число):"),
			apply: func(ctx context.Context, t *turn, res inputs.Result) (outcome, error) {
				t.session.Project.Area = res.Value.(int)
				return advance("price", fmt.Sprintf("✅ Площадь: <b>%d м²</b>", t.session.Project.Area)), nil
			},
		},
		{
			name:    "price",
			input:   inputs.TypePositiveInt,
			invalid: "❌ Пожалуйста, введите корректную сумму (например: 6120000)",
			next:    []string{"description"},
			prompt:  staticPrompt("4️⃣ Введите стоимость в рублях (только цифры, без пробелов):"),
			apply: func(ctx context.Context, t *turn, res inputs.Result) (outcome, error) {
				t.session.Project.Price = res.Value.(int)
				return advance("description", fmt.Sprintf("✅ Стоимость: <b>%s ₽</b>", FormatNumber(t.session.Project.Price))), nil
			},
		},
		descriptionStep("5️⃣ Введите описание проекта (или /skip для пропуска):", "main_image", func(s *state.Session) *string {
			return &s.Project.Description
		}),
		mainImageStep("6️⃣ 📸 Отправьте главное фото проекта:", "gallery", "projects", func(s *state.Session) *string {
			return &s.Project.MainImage
		}),
		addGalleryStep("7️⃣ 📷 Отправьте фото для галереи (можно несколько).\nКогда закончите, отправьте /done", "status", "projects", func(s *state.Session) *[]string {
			return &s.Project.Gallery
		}),
		{
			name:   "status",
			input:  inputs.TypeStatus,
			prompt: staticPrompt("8️⃣ Установить статус проекта:\nВведите \"опубликован\" или \"скрыт\":"),
			apply: func(ctx context.Context, t *turn, res inputs.Result) (outcome, error) {
				draft := t.session.Project
				draft.Status = res.Value.(content.Status)
				created, err := t.engine.repo.Projects.Create(func(id string) content.Project {
					p := draft
					p.ID = id
					p.CreatedAt = t.engine.now()
					return p
				})
				if err != nil {
					return outcome{}, err
				}
				t.engine.log.Info("record created", "entity", "projects", "id", created.ID, "chat_id", t.session.ChatID)
				return finish(fmt.Sprintf("✅ <b>Проект \"%s\" успешно добавлен!</b>\n\n"+
					"ID: %s\nПлощадь: %d м²\nСтоимость: %s ₽\nСтатус: %s\n\n"+
					"Используйте /projects_list для просмотра всех проектов.\n%s",
					esc(created.Title), esc(created.ID), created.Area, FormatNumber(created.Price),
					statusLabel(created.Status), msgBackToMenu)), nil
			},
		},
	}
	return &flow{
		kind:  state.ProjectAdd,
		first: "title",
		intro: "📝 <b>Добавление нового проекта</b>",
		steps: steps,
	}
}

func projectEditFlow() *flow {
	ed := &editor[content.Project]{
		kind:       state.ProjectEdit,
		cat:        projectCatalog(),
		coll:       func(r *content.Repository) *content.Collection[content.Project] { return r.Projects },
		fieldInput: inputs.TypeProjectField,
		fieldPrompt: "Что хотите изменить?\nВведите название поля " +
			"(название, этажность, площадь, стоимость, описание, статус, главное фото, галерея) или /cancel:",
		order: []string{
			inputs.FieldTitle, inputs.FieldFloors, inputs.FieldArea, inputs.FieldPrice,
			inputs.FieldDescription, inputs.FieldStatus, inputs.FieldMainImage, inputs.FieldGallery,
		},
		fields: map[string]field[content.Project]{
			inputs.FieldTitle: {
				label: "Название", step: stepEditText, ask: "Введите новое название:",
				show: func(p *content.Project) string { return esc(p.Title) },
				set:  func(p *content.Project, v any) { p.Title = asString(v) },
			},
			inputs.FieldFloors: {
				label: "Этажность", step: stepEditText, ask: "Введите новую этажность (\"1 этаж\" или \"2 этажа\"):",
				show: func(p *content.Project) string { return orDash(p.Floors, "не указана") },
				set:  func(p *content.Project, v any) { p.Floors = asString(v) },
			},
			inputs.FieldArea: {
				label: "Площадь", step: stepEditNumber, ask: "Введите новую площадь в м² (только число):",
				show: func(p *content.Project) string { return fmt.Sprintf("%d м²", p.Area) },
				set:  func(p *content.Project, v any) { p.Area = asInt(v) },
			},
			inputs.FieldPrice: {
				label: "Стоимость", step: stepEditNumber, ask: "Введите новую стоимость в рублях (только цифры):",
				show: func(p *content.Project) string { return FormatNumber(p.Price) + " ₽" },
				set:  func(p *content.Project, v any) { p.Price = asInt(v) },
			},
			inputs.FieldDescription: {
				label: "Описание", step: stepEditOptional, ask: "Введите новое описание (или /skip для очистки):",
				show: func(p *content.Project) string { return orDash(p.Description, "не указано") },
				set:  func(p *content.Project, v any) { p.Description = asString(v) },
			},
			inputs.FieldStatus: {
				label: "Статус", step: stepEditStatus, ask: "Введите новый статус (\"опубликован\" или \"скрыт\"):",
				show: func(p *content.Project) string { return statusWord(p.Status) },
				set:  func(p *content.Project, v any) { p.Status = asStatus(v) },
			},
			inputs.FieldMainImage: {
				label: "Главное фото", step: stepEditPhoto, ask: "📸 Отправьте новое главное фото:",
				show: func(p *content.Project) string { return showPhoto(p.MainImage) },
				set:  func(p *content.Project, v any) { p.MainImage = asString(v) },
			},
			inputs.FieldGallery: {label: "Галерея", step: stepGalleryMenu},
		},
	}
	return ed.build()
}
