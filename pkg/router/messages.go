package router

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Telegram rejects messages longer than 4096 characters.
const maxMessageLength = 4000

const (
	msgDenied          = "❌ Доступ запрещён. Вы не авторизованы для использования этой команды."
	msgUnknownCommand  = "Неизвестная команда. Используйте /help."
	msgCanceled        = "❌ Операция отменена.\n\nИспользуйте /menu для возврата в главное меню."
	msgNothingToCancel = "Нет активной операции для отмены."
	msgNothingToFinish = "Нет активной операции для завершения."

	msgWelcome = "👋 <b>Добро пожаловать в админ-панель АЛЕВИТ СТРОЙ!</b>\n\n" +
		"Этот бот помогает управлять контентом сайта: проектами, работами, отзывами, контактами и ценами."

	msgMenu = "<b>📋 Главное меню</b>\n\n" +
		"<b>🏠 Проекты:</b>\n" +
		"/projects_list - Список проектов\n" +
		"/projects_add - Добавить проект\n" +
		"/projects_edit - Редактировать проект\n" +
		"/projects_delete - Удалить проект\n\n" +
		"<b>🏗 Работы:</b>\n" +
		"/works_list - Список работ\n" +
		"/works_add - Добавить работу\n" +
		"/works_edit - Редактировать работу\n" +
		"/works_delete - Удалить работу\n\n" +
		"<b>⭐ Отзывы:</b>\n" +
		"/reviews_list - Список отзывов\n" +
		"/reviews_add - Добавить отзыв\n" +
		"/reviews_edit - Редактировать отзыв\n" +
		"/reviews_delete - Удалить отзыв\n\n" +
		"<b>📞 Контакты:</b>\n" +
		"/contacts_view - Просмотр контактов\n" +
		"/contacts_edit - Редактировать контакты\n\n" +
		"<b>💰 Цены:</b>\n" +
		"/prices_view - Текущие цены за м²\n" +
		"/prices_edit - Изменить цены\n" +
		"/prices_export - Выгрузить цены и проекты в Excel\n\n" +
		"/help - Справка"

	msgHelp = "<b>❓ Справка</b>\n\n" +
		"<b>Как добавить проект:</b>\n" +
		"1. Отправьте /projects_add\n" +
		"2. Следуйте инструкциям бота: название, этажность, площадь, стоимость, описание\n" +
		"3. Отправьте главное фото, затем фото для галереи\n" +
		"4. Когда фото закончатся, отправьте /done\n" +
		"5. Выберите статус: опубликован или скрыт\n\n" +
		"<b>Редактирование:</b>\n" +
		"Выберите запись по номеру из списка или по ID, затем поле, которое нужно изменить.\n\n" +
		"<b>Удаление:</b>\n" +
		"Выберите запись и подтвердите удаление словом \"да\". Удаление нельзя отменить.\n\n" +
		"<b>Служебные команды:</b>\n" +
		"/skip - Пропустить необязательное поле\n" +
		"/done - Завершить загрузку фото в галерею\n" +
		"/cancel - Отменить текущую операцию\n" +
		"/menu - Главное меню\n\n" +
		"Максимальный размер фото: 10 МБ."
)

// Split cuts text into parts of at most limit runes. Cuts prefer blank
// lines, then line breaks. HTML tags left open at a cut are closed at the end
// of the part and reopened at the start of the next one.
func Split(text string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}
	byLine := func(block string) []string {
		return pack(strings.SplitAfter(block, "\n"), limit, func(line string) []string {
			return hardCut(line, limit)
		})
	}
	return balanceTags(pack(strings.SplitAfter(text, "\n\n"), limit, byLine))
}

// pack joins pieces greedily; a piece longer than limit is handed to split.
func pack(pieces []string, limit int, split func(string) []string) []string {
	var parts []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if s := strings.TrimRight(cur.String(), "\n"); s != "" {
			parts = append(parts, s)
		}
		cur.Reset()
		curLen = 0
	}
	for _, piece := range pieces {
		n := utf8.RuneCountInString(piece)
		if n > limit {
			flush()
			parts = append(parts, split(piece)...)
			continue
		}
		if curLen+n > limit {
			flush()
		}
		cur.WriteString(piece)
		curLen += n
	}
	flush()
	return parts
}

// hardCut splits one overlong line, never inside a tag or an entity.
func hardCut(line string, limit int) []string {
	runes := []rune(strings.TrimRight(line, "\n"))
	var out []string
	for len(runes) > limit {
		cut := limit
		if i := openMarkup(runes[:limit]); i > 0 {
			cut = i
		}
		out = append(out, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}

// openMarkup returns the index of a trailing unterminated "<" or "&", or 0.
func openMarkup(r []rune) int {
	for i := len(r) - 1; i >= 0; i-- {
		switch r[i] {
		case '>', ';':
			return 0
		case '<':
			return i
		case '&':
			if len(r)-i <= 10 {
				return i
			}
			return 0
		}
	}
	return 0
}

var tagPattern = regexp.MustCompile(`<(/?)([a-zA-Z-]+)[^>]*>`)

type openTag struct {
	name string
	raw  string
}

func balanceTags(parts []string) []string {
	var stack []openTag
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		var b strings.Builder
		for _, t := range stack {
			b.WriteString(t.raw)
		}
		b.WriteString(part)
		for _, m := range tagPattern.FindAllStringSubmatch(part, -1) {
			name := strings.ToLower(m[2])
			if m[1] == "" {
				stack = append(stack, openTag{name: name, raw: m[0]})
				continue
			}
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i].name == name {
					stack = append(stack[:i], stack[i+1:]...)
					break
				}
			}
		}
		for i := len(stack) - 1; i >= 0; i-- {
			b.WriteString("</" + stack[i].name + ">")
		}
		out = append(out, b.String())
	}
	return out
}
