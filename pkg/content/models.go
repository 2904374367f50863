package content

import (
	"strconv"
	"time"
)

// Status is the publication state of a site record.
type Status string

const (
	StatusPublished Status = "published"
	StatusHidden    Status = "hidden"
)

// Published reports whether the record is visible on the site.
func (s Status) Published() bool { return s == StatusPublished }

type Project struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Floors      string    `json:"floors"`
	Area        int       `json:"area"`
	Price       int       `json:"price"`
	Description string    `json:"description"`
	MainImage   string    `json:"mainImage"`
	Gallery     []string  `json:"gallery"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Work struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Area        int       `json:"area"`
	Format      string    `json:"format"`
	WorkStatus  string    `json:"workStatus"`
	Description string    `json:"description"`
	Address     string    `json:"address"`
	MainImage   string    `json:"mainImage"`
	Gallery     []string  `json:"gallery"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Review struct {
	ID          string    `json:"id"`
	ClientName  string    `json:"clientName"`
	HouseName   string    `json:"houseName"`
	ReviewText  string    `json:"reviewText"`
	ClientPhoto string    `json:"clientPhoto"`
	VideoURL    string    `json:"videoUrl"`
	IsVideo     bool      `json:"isVideo"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Normalize drops the media field that does not belong to the review type.
func (r *Review) Normalize() {
	if r.IsVideo {
		r.ClientPhoto = ""
	} else {
		r.VideoURL = ""
	}
}

type Contacts struct {
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	WhatsApp string `json:"whatsapp"`
	Telegram string `json:"telegram"`
}

// PriceSheet holds per-square-metre prices in roubles.
type PriceSheet struct {
	Shell   int `json:"shell"`
	Clean   int `json:"clean"`
	Turnkey int `json:"turnkey"`
}

// Record is implemented by list entries that carry a string id.
type Record interface {
	Project | Work | Review
}

func recordID[T Record](item *T) string {
	switch v := any(item).(type) {
	case *Project:
		return v.ID
	case *Work:
		return v.ID
	case *Review:
		return v.ID
	}
	return ""
}

func setRecordID[T Record](item *T, id string) {
	switch v := any(item).(type) {
	case *Project:
		v.ID = id
	case *Work:
		v.ID = id
	case *Review:
		v.ID = id
	}
}

func normalizeRecord[T Record](item *T) {
	if r, ok := any(item).(*Review); ok {
		r.Normalize()
	}
}

// DefaultContacts is served while contacts.json does not exist.
func DefaultContacts() Contacts {
	return Contacts{
		Phone:    "+7 (XXX) XXX-XX-XX",
		Email:    "info@alevit-stroy.ru",
		Address:  "Белгородская область, Белгородский район, с. Пушкарное-78, ул. Кузнечная, д. 9",
		WhatsApp: "#",
		Telegram: "#",
	}
}

// DefaultPrices is served while prices.json does not exist.
func DefaultPrices() PriceSheet {
	return PriceSheet{Shell: 45000, Clean: 65000, Turnkey: 80000}
}

// NextID returns max(numeric ids)+1. Ids without a leading number count as zero.
func NextID(ids []string) string {
	maxID := 0
	for _, id := range ids {
		if n := leadingInt(id); n > maxID {
			maxID = n
		}
	}
	return strconv.Itoa(maxID + 1)
}

func leadingInt(s string) int {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
