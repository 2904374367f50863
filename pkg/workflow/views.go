package workflow

import (
	"fmt"
	"strings"

	"github.com/Dmitrii-VO/SaitAlevit/pkg/content"
)

// Read-only renderings used by the list and view commands.

func ProjectList(repo *content.Repository) (string, error) {
	projects, err := repo.Projects.Read()
	if err != nil {
		return "", err
	}
	if len(projects) == 0 {
		return "📭 Проектов пока нет. Используйте /projects_add для добавления.", nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<b>📋 Список проектов (%d):</b>\n\n", len(projects))
	for i, p := range projects {
		fmt.Fprintf(&b, "%d. %s <b>%s</b>\n", i+1, statusIcon(p.Status), esc(p.Title))
		fmt.Fprintf(&b, "   ID: %s | Площадь: %d м² | Стоимость: %s ₽\n", esc(p.ID), p.Area, FormatNumber(p.Price))
		fmt.Fprintf(&b, "   Этажность: %s\n\n", orDash(p.Floors, "не указана"))
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func WorkList(repo *content.Repository) (string, error) {
	works, err := repo.Works.Read()
	if err != nil {
		return "", err
	}
	if len(works) == 0 {
		return "📭 Работ пока нет. Используйте /works_add для добавления.", nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<b>🏗 Список работ (%d):</b>\n\n", len(works))
	for i, w := range works {
		fmt.Fprintf(&b, "%d. %s <b>%s</b>\n", i+1, statusIcon(w.Status), esc(w.Title))
		fmt.Fprintf(&b, "   ID: %s | Площадь: %d м²\n", esc(w.ID), w.Area)
		fmt.Fprintf(&b, "   Формат: %s | Статус: %s\n\n", orDash(w.Format, "не указан"), orDash(w.WorkStatus, "не указан"))
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func ReviewList(repo *content.Repository) (string, error) {
	reviews, err := repo.Reviews.Read()
	if err != nil {
		return "", err
	}
	if len(reviews) == 0 {
		return "📭 Отзывов пока нет. Используйте /reviews_add для добавления.", nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<b>⭐ Список отзывов (%d):</b>\n\n", len(reviews))
	for i, r := range reviews {
		kind := "📝 Текст"
		if r.IsVideo {
			kind = "🎥 Видео"
		}
		fmt.Fprintf(&b, "%d. %s %s - <b>%s</b>\n", i+1, statusIcon(r.Status), kind, esc(r.ClientName))
		fmt.Fprintf(&b, "   ID: %s | Дом: %s\n\n", esc(r.ID), orDash(r.HouseName, "не указан"))
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func ContactsView(repo *content.Repository) (string, error) {
	c, err := repo.Contacts.Read()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("📞 <b>Текущие контакты:</b>\n\n"+
		"📱 Телефон: %s\n"+
		"📧 Email: %s\n"+
		"📍 Адрес: %s\n"+
		"💬 WhatsApp: %s\n"+
		"✈️ Telegram: %s\n\n"+
		"Изменить: /contacts_edit",
		orDash(c.Phone, "не указан"), orDash(c.Email, "не указан"), orDash(c.Address, "не указан"),
		orDash(c.WhatsApp, "не указан"), orDash(c.Telegram, "не указан")), nil
}

func PricesView(repo *content.Repository) (string, error) {
	p, err := repo.Prices.Read()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("📊 <b>Текущие примерные цены за м²</b>\n\n"+
		"1) Под самоотделку: <b>%s ₽/м²</b>\n"+
		"2) Чистовая отделка: <b>%s ₽/м²</b>\n"+
		"3) Под ключ: <b>%s ₽/м²</b>\n\n"+
		"Изменить: /prices_edit",
		FormatNumber(p.Shell), FormatNumber(p.Clean), FormatNumber(p.Turnkey)), nil
}
