package inputs

import (
	"strings"
	"testing"

	"github.com/Dmitrii-VO/SaitAlevit/pkg/content"
	"github.com/Dmitrii-VO/SaitAlevit/pkg/ports/botport"
)

func TestTextStrategyRejectsEmptyAndPhotos(t *testing.T) {
	s := NewTextStrategy(TypeText, false)

	if res := s.Accept(TextInput("   ")); !res.Repeat || res.Feedback == "" {
		t.Fatalf("expected repeat on empty text, got %+v", res)
	}
	if res := s.Accept(PhotoInput(botport.FileHandle{FileID: "x"})); !res.Repeat {
		t.Fatalf("expected repeat on photo, got %+v", res)
	}
	res := s.Accept(TextInput("  Дом Т1 "))
	if !res.Advance || res.Value != "Дом Т1" {
		t.Fatalf("expected trimmed value, got %+v", res)
	}
}

func TestOptionalTextAcceptsSkip(t *testing.T) {
	s := NewTextStrategy(TypeOptionalText, true)
	for _, in := range []string{"/skip", "SKIP", " skip "} {
		res := s.Accept(TextInput(in))
		if !res.Advance || !res.Skipped || res.Value != "" {
			t.Fatalf("%q: expected skipped advance, got %+v", in, res)
		}
	}
	if res := NewTextStrategy(TypeText, false).Accept(TextInput("/skip")); res.Skipped {
		t.Fatalf("required text must not treat /skip as skip")
	}
}

func TestPositiveIntStrategy(t *testing.T) {
	s := NewPositiveIntStrategy()
	cases := map[string]int{"136": 136, "6 120 000": 6120000, " 45000 ": 45000}
	for in, want := range cases {
		res := s.Accept(TextInput(in))
		if !res.Advance || res.Value != want {
			t.Fatalf("%q: expected %d, got %+v", in, want, res)
		}
	}
	for _, in := range []string{"0", "-5", "abc", "12.5", ""} {
		if res := s.Accept(TextInput(in)); !res.Repeat {
			t.Fatalf("%q: expected repeat, got %+v", in, res)
		}
	}
}

func TestStatusVocabulary(t *testing.T) {
	s := statusStrategy()
	cases := map[string]content.Status{
		"опубликован":  content.StatusPublished,
		"Опубликовать": content.StatusPublished,
		"да":           content.StatusPublished,
		"скрыт":        content.StatusHidden,
		"НЕТ":          content.StatusHidden,
	}
	for in, want := range cases {
		res := s.Accept(TextInput(in))
		if !res.Advance || res.Value != want {
			t.Fatalf("%q: expected %s, got %+v", in, want, res)
		}
	}
	if res := s.Accept(TextInput("может быть")); !res.Repeat || !strings.Contains(res.Feedback, "опубликован") {
		t.Fatalf("expected status feedback, got %+v", res)
	}
}

func TestURLStrategy(t *testing.T) {
	s := NewURLStrategy()
	if res := s.Accept(TextInput("https://youtu.be/x")); !res.Advance {
		t.Fatalf("expected https url accepted, got %+v", res)
	}
	if res := s.Accept(TextInput("youtu.be/x")); !res.Repeat {
		t.Fatalf("expected url without scheme rejected, got %+v", res)
	}
}

func TestPhotoStrategies(t *testing.T) {
	handle := botport.FileHandle{FileID: "f1", Size: 10}

	res := NewPhotoStrategy(TypePhoto, false).Accept(PhotoInput(handle))
	if got, ok := Photo(res); !res.Advance || !ok || got.FileID != "f1" {
		t.Fatalf("expected photo accepted, got %+v", res)
	}
	if res := NewPhotoStrategy(TypePhoto, false).Accept(TextInput("/skip")); !res.Repeat {
		t.Fatalf("required photo must not accept skip, got %+v", res)
	}
	if res := NewPhotoStrategy(TypeOptionalPhoto, true).Accept(TextInput("/skip")); !res.Advance || !res.Skipped {
		t.Fatalf("expected optional photo skip, got %+v", res)
	}
}

func TestGalleryStrategy(t *testing.T) {
	s := NewGalleryStrategy()
	res := s.Accept(PhotoInput(botport.FileHandle{FileID: "g"}))
	if res.Advance || res.Repeat {
		t.Fatalf("gallery photo must neither advance nor repeat, got %+v", res)
	}
	if _, ok := Photo(res); !ok {
		t.Fatalf("expected file handle value")
	}
	if res := s.Accept(TextInput("/done")); !res.Advance || !res.Done {
		t.Fatalf("expected done, got %+v", res)
	}
	if res := s.Accept(TextInput("готово")); !res.Repeat {
		t.Fatalf("expected reminder, got %+v", res)
	}
}

func TestGalleryMenu(t *testing.T) {
	s := &galleryMenuStrategy{}
	cases := map[string]GalleryAction{
		"1":                GalleryAdd,
		"Добавить фото":    GalleryAdd,
		"2":                GalleryClear,
		"очистить":         GalleryClear,
		"3":                GalleryReplace,
		"заменить галерею": GalleryReplace,
	}
	for in, want := range cases {
		res := s.Accept(TextInput(in))
		if !res.Advance || res.Value != want {
			t.Fatalf("%q: expected %d, got %+v", in, want, res)
		}
	}
	if res := s.Accept(TextInput("4")); !res.Repeat || res.Feedback != msgGalleryMenu {
		t.Fatalf("expected menu feedback, got %+v", res)
	}
}

func TestFieldVocabularies(t *testing.T) {
	if res := projectFieldStrategy().Accept(TextInput("Главное фото")); res.Value != FieldMainImage {
		t.Fatalf("expected mainImage, got %+v", res)
	}
	if res := workFieldStrategy().Accept(TextInput("статус работы")); res.Value != FieldWorkStatus {
		t.Fatalf("expected workStatus, got %+v", res)
	}
	if res := reviewFieldStrategy().Accept(TextInput("дом")); res.Value != FieldHouseName {
		t.Fatalf("expected houseName, got %+v", res)
	}
	if res := contactFieldStrategy().Accept(TextInput("все сразу")); res.Value != FieldAll {
		t.Fatalf("expected all, got %+v", res)
	}
	if res := contactFieldStrategy().Accept(TextInput("7")); !res.Repeat {
		t.Fatalf("expected repeat for unknown contact field, got %+v", res)
	}
}

func TestKeyboardUsesCallbackPrefix(t *testing.T) {
	kb := Keyboard(statusStrategy())
	if kb == nil || len(kb.InlineKeyboard) != 2 {
		t.Fatalf("expected two rows, got %+v", kb)
	}
	data := kb.InlineKeyboard[0][0].CallbackData
	if data == nil || *data != CallbackPrefix+"опубликован" {
		t.Fatalf("unexpected callback data %v", data)
	}
	if Keyboard(NewTextStrategy(TypeText, false)) != nil {
		t.Fatalf("free text strategy must not render a keyboard")
	}
}
