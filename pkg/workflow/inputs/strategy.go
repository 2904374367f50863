// Package inputs holds the per-step input strategies: each strategy parses
// one operator reply and tells the workflow engine how to proceed.
package inputs

import (
	"strings"

	"github.com/Dmitrii-VO/SaitAlevit/pkg/ports/botport"
)

// Source differentiates between typed text, button presses and photos.
type Source string

const (
	SourceText     Source = "text"
	SourceCallback Source = "callback"
	SourcePhoto    Source = "photo"
)

// CallbackPrefix marks inline buttons whose data is routed as typed text.
const CallbackPrefix = "input:"

const (
	TypeText          = "text"
	TypeOptionalText  = "optional_text"
	TypePositiveInt   = "positive_int"
	TypeStatus        = "status"
	TypeReviewType    = "review_type"
	TypeConfirm       = "confirm"
	TypeURL           = "url"
	TypePhoto         = "photo"
	TypeOptionalPhoto = "optional_photo"
	TypeGallery       = "gallery"
	TypeGalleryMenu   = "gallery_menu"
	TypeProjectField  = "project_field"
	TypeWorkField     = "work_field"
	TypeReviewField   = "review_field"
	TypeContactField  = "contact_field"
)

// Input wraps an operator reply in a transport-agnostic struct.
type Input struct {
	Source Source
	Text   string
	Photo  *botport.FileHandle
}

func TextInput(text string) Input { return Input{Source: SourceText, Text: text} }

func PhotoInput(h botport.FileHandle) Input { return Input{Source: SourcePhoto, Photo: &h} }

func (in Input) trimmed() string { return strings.TrimSpace(in.Text) }

func (in Input) lowered() string { return strings.ToLower(in.trimmed()) }

// IsSkip reports "/skip" or "skip".
func (in Input) IsSkip() bool {
	if in.Source == SourcePhoto {
		return false
	}
	v := in.lowered()
	return v == "/skip" || v == "skip"
}

// IsDone reports "/done".
func (in Input) IsDone() bool {
	return in.Source != SourcePhoto && in.lowered() == "/done"
}

// Result instructs the engine how to proceed after a strategy processed an input.
type Result struct {
	Advance  bool
	Repeat   bool
	Feedback string
	Value    any
	Skipped  bool
	Done     bool
}

func accept(v any) Result { return Result{Advance: true, Value: v} }

func reject(feedback string) Result { return Result{Repeat: true, Feedback: feedback} }

// Strategy parses one kind of step input.
type Strategy interface {
	Name() string
	Accept(Input) Result
}

// Option is a fixed answer offered as an inline button.
type Option struct {
	Label string
	Value string
}

// Optioned is implemented by strategies with a fixed answer vocabulary.
type Optioned interface {
	Options() []Option
}

const (
	msgPhotoNotExpected = "❌ Фото не ожидается на этом шаге. Продолжите ввод текста или /cancel"
	msgEmptyText        = "❌ Значение не должно быть пустым. Попробуйте ещё раз или /cancel"
	msgStatus           = "❌ Пожалуйста, введите \"опубликован\" или \"скрыт\""
	msgReviewType       = "❌ Пожалуйста, введите \"видео\" или \"текст\""
	msgConfirm          = "❌ Введите \"да\" для удаления или \"нет\" для отмены"
	msgURL              = "❌ Пожалуйста, введите корректную ссылку (начинается с http:// или https://)"
	msgNumber           = "❌ Пожалуйста, введите корректное число"
	msgPhotoExpected    = "❌ Ожидается фото. Отправьте изображение или /cancel"
	msgOptionalPhoto    = "❌ Отправьте фото или /skip для пропуска"
	msgGallery          = "Отправьте фото для галереи или /done для завершения"
	msgGalleryMenu      = "❌ Введите номер от 1 до 3 или /cancel"
)
