package workflow

import (
	"context"
	"fmt"

	"github.com/Dmitrii-VO/SaitAlevit/pkg/content"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/state"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/workflow/inputs"
)

const (
	msgNotVideoReview = "❌ Это текстовый отзыв. Сначала измените тип на \"видео\"."
	msgNotTextReview  = "❌ Это видео отзыв. Для видео отзывов фото не используется."
)

func reviewAddFlow() *flow {
	steps := []*step{
		{
			name:   "client_name",
			input:  inputs.TypeText,
			next:   []string{"house_name"},
			prompt: staticPrompt("1️⃣ Введите имя клиента:"),
			apply: func(ctx context.Context, t *turn, res inputs.Result) (outcome, error) {
				t.session.Review.ClientName = res.Value.(string)
				return advance("house_name", fmt.Sprintf("✅ Имя клиента: <b>%s</b>", esc(t.session.Review.ClientName))), nil
			},
		},
		optionalTextStep("house_name", "2️⃣ Введите название дома (например: \"Дом 1а, 136 м², под ключ\") или /skip:", "review_text",
			"✅ Название дома сохранено", "✅ Название дома пропущено", func(s *state.Session) *string { return &s.Review.HouseName }),
		{
			name:   "review_text",
			input:  inputs.TypeText,
			next:   []string{"type"},
			prompt: staticPrompt("3️⃣ Введите текст отзыва:"),
			apply: func(ctx context.Context, t *turn, res inputs.Result) (outcome, error) {
				t.session.Review.ReviewText = res.Value.(string)
				return advance("type", "✅ Текст отзыва сохранён"), nil
			},
		},
		{
			name:   "type",
			input:  inputs.TypeReviewType,
			next:   []string{"video_url", "client_photo"},
			prompt: staticPrompt("4️⃣ Это видео или текстовый отзыв?\nВведите \"видео\" или \"текст\":"),
			apply: func(ctx context.Context, t *turn, res inputs.Result) (outcome, error) {
				t.session.Review.IsVideo = res.Value.(bool)
				if t.session.Review.IsVideo {
					return advance("video_url", "✅ Тип: <b>Видео</b>"), nil
				}
				return advance("client_photo", "✅ Тип: <b>Текстовый</b>"), nil
			},
		},
		{
			name:   "video_url",
			input:  inputs.TypeURL,
			next:   []string{"status"},
			prompt: staticPrompt("5️⃣ Введите ссылку на видео (YouTube, Vimeo и т.д.):"),
			apply: func(ctx context.Context, t *turn, res inputs.Result) (outcome, error) {
				t.session.Review.VideoURL = res.Value.(string)
				return advance("status", "✅ Ссылка на видео сохранена"), nil
			},
		},
		{
			name:   "client_photo",
			input:  inputs.TypeOptionalPhoto,
			next:   []string{"status"},
			prompt: staticPrompt("5️⃣ Отправьте фото клиента (или /skip для пропуска):"),
			apply: func(ctx context.Context, t *turn, res inputs.Result) (outcome, error) {
				if res.Skipped {
					t.session.Review.ClientPhoto = ""
					return advance("status", "✅ Фото пропущено"), nil
				}
				rel, err := t.engine.storePhoto(ctx, res, "reviews")
				if err != nil {
					return outcome{}, err
				}
				t.session.Review.ClientPhoto = rel
				return advance("status", "✅ Фото клиента сохранено"), nil
			},
		},
		{
			name:   "status",
			input:  inputs.TypeStatus,
			prompt: staticPrompt("6️⃣ Установить статус публикации:\nВведите \"опубликован\" или \"скрыт\":"),
			apply: func(ctx context.Context, t *turn, res inputs.Result) (outcome, error) {
				draft := t.session.Review
				draft.Status = res.Value.(content.Status)
				created, err := t.engine.repo.Reviews.Create(func(id string) content.Review {
					r := draft
					r.ID = id
					r.CreatedAt = t.engine.now()
					return r
				})
				if err != nil {
					return outcome{}, err
				}
				t.engine.log.Info("record created", "entity", "reviews", "id", created.ID, "chat_id", t.session.ChatID)
				return finish(fmt.Sprintf("✅ <b>Отзыв от \"%s\" успешно добавлен!</b>\n\n"+
					"ID: %s\nТип: %s\nСтатус: %s\n\n"+
					"Используйте /reviews_list для просмотра всех отзывов.\n%s",
					esc(created.ClientName), esc(created.ID), reviewTypeLabel(created.IsVideo),
					statusLabel(created.Status), msgBackToMenu)), nil
			},
		},
	}
	return &flow{
		kind:  state.ReviewAdd,
		first: "client_name",
		intro: "⭐ <b>Добавление нового отзыва</b>",
		steps: steps,
	}
}

func reviewEditFlow() *flow {
	ed := &editor[content.Review]{
		kind:       state.ReviewEdit,
		cat:        reviewCatalog(),
		coll:       func(r *content.Repository) *content.Collection[content.Review] { return r.Reviews },
		fieldInput: inputs.TypeReviewField,
		fieldPrompt: "Что хотите изменить?\nВведите название поля " +
			"(имя, название дома, текст, тип, видео, фото, статус) или /cancel:",
		order: []string{
			inputs.FieldClientName, inputs.FieldHouseName, inputs.FieldReviewText, inputs.FieldType,
			inputs.FieldVideoURL, inputs.FieldClientPhoto, inputs.FieldStatus,
		},
		fields: map[string]field[content.Review]{
			inputs.FieldClientName: {
				label: "Имя клиента", step: stepEditText, ask: "Введите новое имя клиента:",
				show: func(r *content.Review) string { return esc(r.ClientName) },
				set:  func(r *content.Review, v any) { r.ClientName = asString(v) },
			},
			inputs.FieldHouseName: {
				label: "Название дома", step: stepEditOptional, ask: "Введите новое название дома (или /skip для очистки):",
				show: func(r *content.Review) string { return orDash(r.HouseName, "не указано") },
				set:  func(r *content.Review, v any) { r.HouseName = asString(v) },
			},
			inputs.FieldReviewText: {
				label: "Текст отзыва", step: stepEditText, ask: "Введите новый текст отзыва:",
				show: func(r *content.Review) string { return esc(r.ReviewText) },
				set:  func(r *content.Review, v any) { r.ReviewText = asString(v) },
			},
			inputs.FieldType: {label: "Тип", step: "edit_type"},
			inputs.FieldVideoURL: {
				label: "Ссылка на видео", step: stepEditURL, ask: "Введите новую ссылку на видео:",
				show: func(r *content.Review) string { return orDash(r.VideoURL, "не указана") },
				set:  func(r *content.Review, v any) { r.VideoURL = asString(v) },
				guard: func(r *content.Review) string {
					if !r.IsVideo {
						return msgNotVideoReview
					}
					return ""
				},
			},
			inputs.FieldClientPhoto: {
				label: "Фото клиента", step: stepEditOptionalPhoto, ask: "📸 Отправьте новое фото клиента (или /skip для удаления):",
				show: func(r *content.Review) string { return showPhoto(r.ClientPhoto) },
				set:  func(r *content.Review, v any) { r.ClientPhoto = asString(v) },
				guard: func(r *content.Review) string {
					if r.IsVideo {
						return msgNotTextReview
					}
					return ""
				},
			},
			inputs.FieldStatus: {
				label: "Статус", step: stepEditStatus, ask: "Введите новый статус (\"опубликован\" или \"скрыт\"):",
				show: func(r *content.Review) string { return statusWord(r.Status) },
				set:  func(r *content.Review, v any) { r.Status = asStatus(v) },
			},
		},
		extra: reviewTypeSteps(),
	}
	return ed.build()
}

// reviewTypeSteps switch a review between video and text. The media for the
// new type is collected first and committed together with the type.
func reviewTypeSteps() []*step {
	commit := func(t *turn, isVideo bool, media string) (outcome, error) {
		_, err := t.engine.repo.Reviews.Update(t.session.SelectedID, func(r *content.Review) error {
			r.IsVideo = isVideo
			if isVideo {
				r.VideoURL = media
				r.ClientPhoto = ""
			} else {
				r.VideoURL = ""
				r.ClientPhoto = media
			}
			return nil
		})
		if err != nil {
			return outcome{}, err
		}
		t.engine.log.Info("review type switched", "id", t.session.SelectedID, "video", isVideo, "chat_id", t.session.ChatID)
		return finish(fmt.Sprintf("✅ <b>Тип отзыва изменён на «%s»!</b>\n\n%s", reviewTypeLabel(isVideo), msgBackToMenu)), nil
	}

	return []*step{
		{
			name:  "edit_type",
			input: inputs.TypeReviewType,
			next:  []string{"edit_type_url", "edit_type_photo"},
			prompt: func(ctx context.Context, t *turn) (string, error) {
				r, err := t.engine.repo.Reviews.Get(t.session.SelectedID)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("Текущий тип: <b>%s</b>\n\n"+
					"Введите новый тип (\"видео\" или \"текст\"):\n\n"+
					"⚠️ Внимание: при смене типа данные (ссылка на видео или фото) будут очищены.",
					reviewTypeLabel(r.IsVideo)), nil
			},
			apply: func(ctx context.Context, t *turn, res inputs.Result) (outcome, error) {
				toVideo := res.Value.(bool)
				r, err := t.engine.repo.Reviews.Get(t.session.SelectedID)
				if err != nil {
					return outcome{}, err
				}
				if r.IsVideo == toVideo {
					return finish(fmt.Sprintf("Тип отзыва уже «%s», изменений нет.\n\n%s", reviewTypeLabel(toVideo), msgBackToMenu)), nil
				}
				if toVideo {
					return advance("edit_type_url", ""), nil
				}
				return advance("edit_type_photo", ""), nil
			},
		},
		{
			name:   "edit_type_url",
			input:  inputs.TypeURL,
			prompt: staticPrompt("Введите ссылку на видео:"),
			apply: func(ctx context.Context, t *turn, res inputs.Result) (outcome, error) {
				return commit(t, true, res.Value.(string))
			},
		},
		{
			name:   "edit_type_photo",
			input:  inputs.TypeOptionalPhoto,
			prompt: staticPrompt("Можете отправить фото клиента (или /skip для пропуска):"),
			apply: func(ctx context.Context, t *turn, res inputs.Result) (outcome, error) {
				photo := ""
				if !res.Skipped {
					rel, err := t.engine.storePhoto(ctx, res, "reviews")
					if err != nil {
						return outcome{}, err
					}
					photo = rel
				}
				return commit(t, false, photo)
			},
		},
	}
}
