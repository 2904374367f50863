package workflow

import (
	"context"
	"fmt"

	"github.com/Dmitrii-VO/SaitAlevit/pkg/state"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/workflow/inputs"
)

const msgPriceInvalid = "Пожалуйста, введите число в рублях, например: 45000"

func pricesEditFlow() *flow {
	steps := []*step{
		{
			name:    "shell",
			input:   inputs.TypePositiveInt,
			invalid: msgPriceInvalid,
			next:    []string{"clean"},
			prompt:  staticPrompt("✏️ Введите цену за м² <b>под самоотделку</b> (например: 45000):"),
			apply: func(ctx context.Context, t *turn, res inputs.Result) (outcome, error) {
				t.session.Prices.Shell = res.Value.(int)
				return advance("clean", ""), nil
			},
		},
		{
			name:    "clean",
			input:   inputs.TypePositiveInt,
			invalid: msgPriceInvalid,
			next:    []string{"turnkey"},
			prompt:  staticPrompt("Введите цену за м² для <b>чистовой отделки</b> (например: 65000):"),
			apply: func(ctx context.Context, t *turn, res inputs.Result) (outcome, error) {
				t.session.Prices.Clean = res.Value.(int)
				return advance("turnkey", ""), nil
			},
		},
		{
			name:    "turnkey",
			input:   inputs.TypePositiveInt,
			invalid: msgPriceInvalid,
			prompt:  staticPrompt("Введите цену за м² <b>под ключ</b> (например: 80000):"),
			apply: func(ctx context.Context, t *turn, res inputs.Result) (outcome, error) {
				t.session.Prices.Turnkey = res.Value.(int)
				sheet := t.session.Prices
				if err := t.engine.repo.Prices.Write(sheet); err != nil {
					return outcome{}, err
				}
				t.engine.log.Info("prices updated", "chat_id", t.session.ChatID,
					"shell", sheet.Shell, "clean", sheet.Clean, "turnkey", sheet.Turnkey)
				return finish(fmt.Sprintf("✅ Цены обновлены:\n\n"+
					"1) Под самоотделку: <b>%s ₽/м²</b>\n"+
					"2) Чистовая отделка: <b>%s ₽/м²</b>\n"+
					"3) Под ключ: <b>%s ₽/м²</b>",
					FormatNumber(sheet.Shell), FormatNumber(sheet.Clean), FormatNumber(sheet.Turnkey))), nil
			},
		},
	}
	return &flow{kind: state.PricesEdit, first: "shell", steps: steps}
}
