package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dmitrii-VO/SaitAlevit/pkg/content"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/state"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/workflow/inputs"
)

var contactOrder = []string{
	inputs.FieldPhone, inputs.FieldEmail, inputs.FieldAddress, inputs.FieldWhatsApp, inputs.FieldTelegram,
}

var contactLabels = map[string]string{
	inputs.FieldPhone:    "Телефон",
	inputs.FieldEmail:    "Email",
	inputs.FieldAddress:  "Адрес",
	inputs.FieldWhatsApp: "WhatsApp",
	inputs.FieldTelegram: "Telegram",
}

var numberEmoji = []string{"1️⃣", "2️⃣", "3️⃣", "4️⃣", "5️⃣", "6️⃣", "7️⃣", "8️⃣", "9️⃣"}

const msgContactsConflict = "⚠️ Пока вы редактировали, контакты изменил другой администратор. " +
	"Сохранены только изменённые вами поля."

func contactField(c *content.Contacts, name string) *string {
	switch name {
	case inputs.FieldPhone:
		return &c.Phone
	case inputs.FieldEmail:
		return &c.Email
	case inputs.FieldAddress:
		return &c.Address
	case inputs.FieldWhatsApp:
		return &c.WhatsApp
	case inputs.FieldTelegram:
		return &c.Telegram
	}
	return nil
}

func contactsEditFlow() *flow {
	pick := &step{
		name:  "field",
		input: inputs.TypeContactField,
		next:  []string{"value"},
		prompt: staticPrompt("Что хотите изменить?\n\n" +
			"1. Телефон\n2. Email\n3. Адрес\n4. WhatsApp\n5. Telegram\n6. Все сразу\n\n" +
			"Введите номер поля или название:"),
		apply: func(ctx context.Context, t *turn, res inputs.Result) (outcome, error) {
			name := res.Value.(string)
			t.session.Field = name
			if name == inputs.FieldAll {
				t.session.ContactQueue = append([]string{}, contactOrder...)
			} else {
				t.session.ContactQueue = []string{name}
			}
			return advance("value", ""), nil
		},
	}

	value := &step{
		name:  "value",
		input: inputs.TypeText,
		prompt: func(ctx context.Context, t *turn) (string, error) {
			if len(t.session.ContactQueue) == 0 {
				return "", errors.New("contact queue is empty")
			}
			name := t.session.ContactQueue[0]
			current := orDash(*contactField(&t.session.Contacts, name), "не указано")
			if t.session.Field != inputs.FieldAll {
				return fmt.Sprintf("Введите новое значение для \"%s\"\nТекущее значение: %s", contactLabels[name], current), nil
			}
			pos := len(t.session.EditedFields)
			return fmt.Sprintf("%s Введите %s (текущий: %s)", numberEmoji[pos], contactNoun(name), current), nil
		},
		apply: func(ctx context.Context, t *turn, res inputs.Result) (outcome, error) {
			sess := t.session
			if len(sess.ContactQueue) == 0 {
				return outcome{}, errors.New("contact queue is empty")
			}
			name := sess.ContactQueue[0]
			*contactField(&sess.Contacts, name) = res.Value.(string)
			sess.EditedFields = append(sess.EditedFields, name)
			sess.ContactQueue = sess.ContactQueue[1:]

			if len(sess.ContactQueue) > 0 {
				return again(fmt.Sprintf("✅ %s сохранено", contactLabels[name])), nil
			}
			return commitContacts(t)
		},
	}

	return &flow{
		kind:  state.ContactsEdit,
		first: "field",
		intro: "📞 <b>Редактирование контактов</b>",
		steps: []*step{pick, value},
		start: func(ctx context.Context, e *Engine, sess *state.Session) (bool, error) {
			version, err := e.repo.Contacts.Version()
			if err != nil {
				return false, err
			}
			current, err := e.repo.Contacts.Read()
			if err != nil {
				return false, err
			}
			sess.BaseVersion = version
			sess.Contacts = current
			return true, nil
		},
	}
}

func contactNoun(name string) string {
	switch name {
	case inputs.FieldPhone:
		return "телефон"
	case inputs.FieldAddress:
		return "адрес"
	default:
		return contactLabels[name]
	}
}

// commitContacts writes only the fields edited in this session. A write that
// landed since the session started is merged rather than overwritten.
func commitContacts(t *turn) (outcome, error) {
	sess := t.session
	repo := t.engine.repo
	merge := func(c *content.Contacts) {
		for _, name := range sess.EditedFields {
			*contactField(c, name) = *contactField(&sess.Contacts, name)
		}
	}

	current, err := repo.Contacts.Read()
	if err != nil {
		return outcome{}, err
	}
	merge(&current)

	conflict := false
	err = repo.Contacts.WriteIfVersion(current, sess.BaseVersion)
	if errors.Is(err, content.ErrVersionConflict) {
		conflict = true
		t.engine.log.Warn("contacts changed during edit", "chat_id", sess.ChatID, "fields", strings.Join(sess.EditedFields, ","))
		_, err = repo.Contacts.Update(func(c *content.Contacts) error {
			merge(c)
			return nil
		})
	}
	if err != nil {
		return outcome{}, err
	}
	t.engine.log.Info("contacts updated", "chat_id", sess.ChatID, "fields", strings.Join(sess.EditedFields, ","))

	var b strings.Builder
	if sess.Field == inputs.FieldAll {
		b.WriteString("✅ <b>Все контакты успешно обновлены!</b>")
	} else {
		name := sess.EditedFields[0]
		fmt.Fprintf(&b, "✅ <b>%s успешно обновлён!</b>\n\nНовое значение: %s",
			contactLabels[name], esc(*contactField(&sess.Contacts, name)))
	}
	if conflict {
		b.WriteString("\n\n" + msgContactsConflict)
	}
	b.WriteString("\n\nИспользуйте /contacts_view для просмотра контактов.\n" + msgBackToMenu)
	return finish(b.String()), nil
}
