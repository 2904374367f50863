package inputs

import (
	"strings"

	"github.com/Dmitrii-VO/SaitAlevit/pkg/content"
)

type choiceStrategy struct {
	name     string
	choices  map[string]any
	options  []Option
	feedback string
}

// NewChoiceStrategy maps a fixed vocabulary of lower-cased replies to values.
func NewChoiceStrategy(name string, choices map[string]any, options []Option, feedback string) Strategy {
	normalized := make(map[string]any, len(choices))
	for k, v := range choices {
		normalized[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return &choiceStrategy{name: name, choices: normalized, options: options, feedback: feedback}
}

func (c *choiceStrategy) Name() string { return c.name }

func (c *choiceStrategy) Options() []Option { return c.options }

func (c *choiceStrategy) Accept(in Input) Result {
	if in.Source == SourcePhoto {
		return reject(msgPhotoNotExpected)
	}
	value, ok := c.choices[in.lowered()]
	if !ok {
		return reject(c.feedback)
	}
	return accept(value)
}

// GalleryAction is the operator's choice in the gallery edit menu.
type GalleryAction int

const (
	GalleryAdd GalleryAction = iota + 1
	GalleryClear
	GalleryReplace
)

type galleryMenuStrategy struct{}

func (g *galleryMenuStrategy) Name() string { return TypeGalleryMenu }

func (g *galleryMenuStrategy) Options() []Option {
	return []Option{
		{Label: "1. Добавить фото", Value: "1"},
		{Label: "2. Очистить галерею", Value: "2"},
		{Label: "3. Заменить галерею", Value: "3"},
	}
}

func (g *galleryMenuStrategy) Accept(in Input) Result {
	if in.Source == SourcePhoto {
		return reject(msgPhotoNotExpected)
	}
	v := in.lowered()
	switch {
	case v == "1" || strings.Contains(v, "добавить"):
		return accept(GalleryAdd)
	case v == "2" || strings.Contains(v, "очистить"):
		return accept(GalleryClear)
	case v == "3" || strings.Contains(v, "заменить"):
		return accept(GalleryReplace)
	}
	return reject(msgGalleryMenu)
}

func statusStrategy() Strategy {
	return NewChoiceStrategy(TypeStatus, map[string]any{
		"опубликован":  content.StatusPublished,
		"опубликовать": content.StatusPublished,
		"да":           content.StatusPublished,
		"published":    content.StatusPublished,
		"скрыт":        content.StatusHidden,
		"скрыть":       content.StatusHidden,
		"нет":          content.StatusHidden,
		"hidden":       content.StatusHidden,
	}, []Option{
		{Label: "✅ Опубликован", Value: "опубликован"},
		{Label: "🔒 Скрыт", Value: "скрыт"},
	}, msgStatus)
}

// review type values: true means a video review.
func reviewTypeStrategy() Strategy {
	return NewChoiceStrategy(TypeReviewType, map[string]any{
		"видео":     true,
		"video":     true,
		"текст":     false,
		"text":      false,
		"текстовый": false,
	}, []Option{
		{Label: "🎥 Видео", Value: "видео"},
		{Label: "📝 Текст", Value: "текст"},
	}, msgReviewType)
}

func confirmStrategy() Strategy {
	return NewChoiceStrategy(TypeConfirm, map[string]any{
		"да":  true,
		"yes": true,
		"нет": false,
		"no":  false,
	}, []Option{
		{Label: "🗑 Да, удалить", Value: "да"},
		{Label: "Нет", Value: "нет"},
	}, msgConfirm)
}

// Field names produced by the field strategies.
const (
	FieldTitle       = "title"
	FieldFloors      = "floors"
	FieldArea        = "area"
	FieldPrice       = "price"
	FieldDescription = "description"
	FieldStatus      = "status"
	FieldMainImage   = "mainImage"
	FieldGallery     = "gallery"
	FieldFormat      = "format"
	FieldWorkStatus  = "workStatus"
	FieldAddress     = "address"
	FieldClientName  = "clientName"
	FieldHouseName   = "houseName"
	FieldReviewText  = "reviewText"
	FieldType        = "type"
	FieldVideoURL    = "videoUrl"
	FieldClientPhoto = "clientPhoto"
	FieldPhone       = "phone"
	FieldEmail       = "email"
	FieldWhatsApp    = "whatsapp"
	FieldTelegram    = "telegram"
	FieldAll         = "all"
)

func projectFieldStrategy() Strategy {
	return NewChoiceStrategy(TypeProjectField, map[string]any{
		"название":     FieldTitle,
		"name":         FieldTitle,
		"title":        FieldTitle,
		"этажность":    FieldFloors,
		"floors":       FieldFloors,
		"площадь":      FieldArea,
		"area":         FieldArea,
		"стоимость":    FieldPrice,
		"price":        FieldPrice,
		"описание":     FieldDescription,
		"description":  FieldDescription,
		"статус":       FieldStatus,
		"status":       FieldStatus,
		"главное фото": FieldMainImage,
		"main_image":   FieldMainImage,
		"фото":         FieldMainImage,
		"галерея":      FieldGallery,
		"gallery":      FieldGallery,
	}, nil, "❌ Неверное поле. Доступные поля:\n"+
		"название, этажность, площадь, стоимость, описание, статус, главное фото, галерея\n\n"+
		"Попробуйте ещё раз или /cancel:")
}

func workFieldStrategy() Strategy {
	return NewChoiceStrategy(TypeWorkField, map[string]any{
		"название":          FieldTitle,
		"name":              FieldTitle,
		"title":             FieldTitle,
		"площадь":           FieldArea,
		"area":              FieldArea,
		"формат":            FieldFormat,
		"format":            FieldFormat,
		"статус работы":     FieldWorkStatus,
		"workstatus":        FieldWorkStatus,
		"описание":          FieldDescription,
		"description":       FieldDescription,
		"адрес":             FieldAddress,
		"address":           FieldAddress,
		"статус публикации": FieldStatus,
		"статус":            FieldStatus,
		"status":            FieldStatus,
		"главное фото":      FieldMainImage,
		"main_image":        FieldMainImage,
		"фото":              FieldMainImage,
		"галерея":           FieldGallery,
		"gallery":           FieldGallery,
	}, nil, "❌ Неверное поле. Доступные поля:\n"+
		"название, площадь, формат, статус работы, описание, адрес, главное фото, галерея, статус публикации\n\n"+
		"Попробуйте ещё раз или /cancel:")
}

func reviewFieldStrategy() Strategy {
	return NewChoiceStrategy(TypeReviewField, map[string]any{
		"имя":           FieldClientName,
		"имя клиента":   FieldClientName,
		"clientname":    FieldClientName,
		"название дома": FieldHouseName,
		"дом":           FieldHouseName,
		"housename":     FieldHouseName,
		"текст":         FieldReviewText,
		"текст отзыва":  FieldReviewText,
		"reviewtext":    FieldReviewText,
		"тип":           FieldType,
		"type":          FieldType,
		"видео":         FieldVideoURL,
		"ссылка":        FieldVideoURL,
		"videourl":      FieldVideoURL,
		"фото":          FieldClientPhoto,
		"clientphoto":   FieldClientPhoto,
		"статус":        FieldStatus,
		"status":        FieldStatus,
	}, nil, "❌ Неверное поле. Доступные поля:\n"+
		"имя, название дома, текст, тип, видео (только для видео отзывов), фото (только для текстовых), статус\n\n"+
		"Попробуйте ещё раз или /cancel:")
}

func contactFieldStrategy() Strategy {
	return NewChoiceStrategy(TypeContactField, map[string]any{
		"1":         FieldPhone,
		"телефон":   FieldPhone,
		"phone":     FieldPhone,
		"2":         FieldEmail,
		"email":     FieldEmail,
		"3":         FieldAddress,
		"адрес":     FieldAddress,
		"address":   FieldAddress,
		"4":         FieldWhatsApp,
		"whatsapp":  FieldWhatsApp,
		"5":         FieldTelegram,
		"telegram":  FieldTelegram,
		"6":         FieldAll,
		"все":       FieldAll,
		"все сразу": FieldAll,
		"all":       FieldAll,
	}, []Option{
		{Label: "1. Телефон", Value: "1"},
		{Label: "2. Email", Value: "2"},
		{Label: "3. Адрес", Value: "3"},
		{Label: "4. WhatsApp", Value: "4"},
		{Label: "5. Telegram", Value: "5"},
		{Label: "6. Все сразу", Value: "6"},
	}, "❌ Неверный выбор. Введите номер от 1 до 6 или название поля.")
}
