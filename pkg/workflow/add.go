package workflow

import (
	"context"
	"fmt"

	"github.com/Dmitrii-VO/SaitAlevit/pkg/state"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/workflow/inputs"
)

// Steps shared by the add workflows. Each writes into the session draft
// through target; nothing is persisted before the final status step.

func optionalTextStep(name, prompt, next, saved, skipped string, target func(*state.Session) *string) *step {
	return &step{
		name:   name,
		input:  inputs.TypeOptionalText,
		next:   []string{next},
		prompt: staticPrompt(prompt),
		apply: func(ctx context.Context, t *turn, res inputs.Result) (outcome, error) {
			*target(t.session) = asString(res.Value)
			if res.Skipped {
				return advance(next, skipped), nil
			}
			return advance(next, saved), nil
		},
	}
}

func descriptionStep(prompt, next string, target func(*state.Session) *string) *step {
	return optionalTextStep("description", prompt, next, "✅ Описание сохранено", "✅ Описание пропущено", target)
}

func mainImageStep(prompt, next, subfolder string, target func(*state.Session) *string) *step {
	return &step{
		name:   "main_image",
		input:  inputs.TypePhoto,
		next:   []string{next},
		prompt: staticPrompt(prompt),
		apply: func(ctx context.Context, t *turn, res inputs.Result) (outcome, error) {
			rel, err := t.engine.storePhoto(ctx, res, subfolder)
			if err != nil {
				return outcome{}, err
			}
			*target(t.session) = rel
			return advance(next, "✅ Главное фото сохранено"), nil
		},
	}
}

func addGalleryStep(prompt, next, subfolder string, target func(*state.Session) *[]string) *step {
	return &step{
		name:   "gallery",
		input:  inputs.TypeGallery,
		next:   []string{next},
		prompt: staticPrompt(prompt),
		apply: func(ctx context.Context, t *turn, res inputs.Result) (outcome, error) {
			gallery := target(t.session)
			if res.Done {
				if *gallery == nil {
					*gallery = []string{}
				}
				return advance(next, fmt.Sprintf("✅ Галерея сохранена (%d фото)", len(*gallery))), nil
			}
			rel, err := t.engine.storePhoto(ctx, res, subfolder)
			if err != nil {
				return outcome{}, err
			}
			*gallery = append(*gallery, rel)
			return stay(fmt.Sprintf("✅ Фото добавлено в галерею (всего: %d)\nОтправьте ещё фото или /done для завершения", len(*gallery))), nil
		},
	}
}
