package inputs

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

type textStrategy struct {
	name     string
	optional bool
}

// NewTextStrategy accepts any non-empty text. Optional variants also accept /skip.
func NewTextStrategy(name string, optional bool) Strategy {
	return &textStrategy{name: name, optional: optional}
}

func (t *textStrategy) Name() string { return t.name }

func (t *textStrategy) Accept(in Input) Result {
	if in.Source == SourcePhoto {
		return reject(msgPhotoNotExpected)
	}
	if t.optional && in.IsSkip() {
		return Result{Advance: true, Value: "", Skipped: true}
	}
	value := in.trimmed()
	if value == "" {
		return reject(msgEmptyText)
	}
	return accept(value)
}

type positiveIntStrategy struct{}

// NewPositiveIntStrategy accepts a positive integer; whitespace inside the number is ignored.
func NewPositiveIntStrategy() Strategy { return &positiveIntStrategy{} }

func (p *positiveIntStrategy) Name() string { return TypePositiveInt }

func (p *positiveIntStrategy) Accept(in Input) Result {
	if in.Source == SourcePhoto {
		return reject(msgPhotoNotExpected)
	}
	n, ok := ParsePositiveInt(in.Text)
	if !ok {
		return reject(msgNumber)
	}
	return accept(n)
}

// ParsePositiveInt parses "6 120 000" or "136" into a positive int.
func ParsePositiveInt(s string) (int, bool) {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	n, err := strconv.Atoi(compact)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

var urlPattern = regexp.MustCompile(`^https?://`)

type urlStrategy struct{}

func NewURLStrategy() Strategy { return &urlStrategy{} }

func (u *urlStrategy) Name() string { return TypeURL }

func (u *urlStrategy) Accept(in Input) Result {
	if in.Source == SourcePhoto {
		return reject(msgPhotoNotExpected)
	}
	value := in.trimmed()
	if !urlPattern.MatchString(value) {
		return reject(msgURL)
	}
	return accept(value)
}
