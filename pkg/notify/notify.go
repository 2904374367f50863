// Package notify delivers site form leads to the bot administrators.
package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/Dmitrii-VO/SaitAlevit/pkg/ports/botport"
)

// Form types posted by the site.
const (
	FormCTA        = "CTA"
	FormCalculator = "calculator"
	FormContact    = "contact"
)

// ErrNoRecipients is returned when no admin ids are configured.
var ErrNoRecipients = errors.New("no notification recipients")

// Lead is a request submitted from one of the site forms.
type Lead struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Area     string `json:"area"`
	Type     string `json:"type"`
	Finish   string `json:"finish"`
	FormType string `json:"formType"`
}

var formTitles = map[string]string{
	FormCTA:        "📋 Заявка на бесплатный проект",
	FormCalculator: "🧮 Заявка из калькулятора",
	FormContact:    "📞 Заявка из формы контактов",
}

var houseTypes = map[string]string{
	"gas-block": "Газобетон",
	"brick":     "Кирпич",
	"frame":     "Каркас",
}

var finishTypes = map[string]string{
	"box":     "Коробка",
	"clean":   "Чистовая отделка",
	"turnkey": "Под ключ",
}

// Recorder counts delivered and failed notifications.
type Recorder interface {
	ObserveLead(result string)
}

type Notifier struct {
	bot      botport.BotPort
	admins   []int64
	logger   *slog.Logger
	metrics  Recorder
	location *time.Location
	now      func() time.Time
}

func New(bot botport.BotPort, admins []int64, logger *slog.Logger, metrics Recorder) *Notifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		loc = time.FixedZone("MSK", 3*60*60)
	}
	return &Notifier{
		bot:      bot,
		admins:   append([]int64(nil), admins...),
		logger:   logger,
		metrics:  metrics,
		location: loc,
		now:      time.Now,
	}
}

// Notify sends the formatted lead to every admin and returns the number of
// successful deliveries. The error is non-nil only when nothing was delivered.
func (n *Notifier) Notify(ctx context.Context, lead Lead) (int, error) {
	if len(n.admins) == 0 {
		n.observe("failed")
		return 0, ErrNoRecipients
	}

	text := Format(lead, n.now().In(n.location))
	var (
		sent    int
		lastErr error
	)
	for _, id := range n.admins {
		if _, err := n.bot.SendMessage(ctx, id, text, nil); err != nil {
			lastErr = err
			n.logger.Error("lead notification failed",
				"admin_id", id,
				"code", botport.Code(err),
				"error", err,
			)
			continue
		}
		sent++
	}

	n.logger.Info("lead notification sent",
		"form_type", lead.FormType,
		"delivered", sent,
		"admins", len(n.admins),
	)
	if sent == 0 {
		n.observe("failed")
		return 0, fmt.Errorf("lead not delivered to any of %d admins: %w", len(n.admins), lastErr)
	}
	n.observe("delivered")
	return sent, nil
}

func (n *Notifier) observe(result string) {
	if n.metrics != nil {
		n.metrics.ObserveLead(result)
	}
}

// Format renders the lead as an HTML message. Placeholder values sent by the
// site forms ("Не указано", "Не указан") are omitted.
func Format(lead Lead, at time.Time) string {
	formType := lead.FormType
	if formType == "" {
		formType = FormCTA
	}
	title, ok := formTitles[formType]
	if !ok {
		title = "📋 Новая заявка"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🎯 <b>%s</b>\n\n", title)

	if name := strings.TrimSpace(lead.Name); name != "" && name != "Не указано" {
		fmt.Fprintf(&b, "👤 <b>Имя:</b> %s\n", html.EscapeString(name))
	}
	if phone := strings.TrimSpace(lead.Phone); phone != "" && phone != "Не указан" {
		fmt.Fprintf(&b, "📱 <b>Телефон:</b> <code>%s</code>\n", html.EscapeString(phone))
	}

	area := strings.TrimSpace(lead.Area)
	if formType == FormCalculator {
		if area != "" {
			fmt.Fprintf(&b, "📐 <b>Площадь:</b> %s м²\n", html.EscapeString(area))
		}
		if t, ok := houseTypes[lead.Type]; ok {
			fmt.Fprintf(&b, "🏗️ <b>Тип дома:</b> %s\n", t)
		}
		if f, ok := finishTypes[lead.Finish]; ok {
			fmt.Fprintf(&b, "🔨 <b>Отделка:</b> %s\n", f)
		}
	} else if area != "" {
		fmt.Fprintf(&b, "📐 <b>Желаемая площадь:</b> %s м²\n", html.EscapeString(area))
	}

	fmt.Fprintf(&b, "\n⏰ <b>Время:</b> %s", at.Format("02.01.2006, 15:04"))
	return b.String()
}
