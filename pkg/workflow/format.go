package workflow

import (
	"html"

	"github.com/Dmitrii-VO/SaitAlevit/pkg/content"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var ruPrinter = message.NewPrinter(language.Russian)

// FormatNumber renders n with Russian digit grouping, e.g. 6 120 000.
func FormatNumber(n int) string {
	return ruPrinter.Sprintf("%d", n)
}

func esc(s string) string { return html.EscapeString(s) }

// orDash substitutes the fallback for an empty value.
func orDash(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return esc(s)
}

func statusLabel(s content.Status) string {
	if s.Published() {
		return "✅ Опубликован"
	}
	return "🔒 Скрыт"
}

func statusIcon(s content.Status) string {
	if s.Published() {
		return "✅"
	}
	return "🔒"
}

func statusWord(s content.Status) string {
	if s.Published() {
		return "опубликован"
	}
	return "скрыт"
}

func reviewTypeLabel(isVideo bool) string {
	if isVideo {
		return "Видео"
	}
	return "Текстовый"
}
