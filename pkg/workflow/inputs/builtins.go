package inputs

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func builtins() []Strategy {
	return []Strategy{
		NewTextStrategy(TypeText, false),
		NewTextStrategy(TypeOptionalText, true),
		NewPositiveIntStrategy(),
		NewURLStrategy(),
		NewPhotoStrategy(TypePhoto, false),
		NewPhotoStrategy(TypeOptionalPhoto, true),
		NewGalleryStrategy(),
		&galleryMenuStrategy{},
		statusStrategy(),
		reviewTypeStrategy(),
		confirmStrategy(),
		projectFieldStrategy(),
		workFieldStrategy(),
		reviewFieldStrategy(),
		contactFieldStrategy(),
	}
}

// Keyboard renders the strategy's fixed answers as inline buttons, or nil
// when the strategy takes free input.
func Keyboard(s Strategy) *tgbotapi.InlineKeyboardMarkup {
	optioned, ok := s.(Optioned)
	if !ok {
		return nil
	}
	options := optioned.Options()
	if len(options) == 0 {
		return nil
	}
	markup := tgbotapi.NewInlineKeyboardMarkup()
	for _, option := range options {
		row := tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(option.Label, CallbackPrefix+option.Value),
		)
		markup.InlineKeyboard = append(markup.InlineKeyboard, row)
	}
	return &markup
}
