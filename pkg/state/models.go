package state

import (
	"time"

	"github.com/Dmitrii-VO/SaitAlevit/pkg/content"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
)

// WorkflowKind identifies the dialogue a chat is currently in.
type WorkflowKind int

const (
	KindNone WorkflowKind = iota
	ProjectAdd
	ProjectEdit
	ProjectDelete
	WorkAdd
	WorkEdit
	WorkDelete
	ReviewAdd
	ReviewEdit
	ReviewDelete
	ContactsEdit
	PricesEdit
)

var kindNames = map[WorkflowKind]string{
	KindNone:      "none",
	ProjectAdd:    "project_add",
	ProjectEdit:   "project_edit",
	ProjectDelete: "project_delete",
	WorkAdd:       "work_add",
	WorkEdit:      "work_edit",
	WorkDelete:    "work_delete",
	ReviewAdd:     "review_add",
	ReviewEdit:    "review_edit",
	ReviewDelete:  "review_delete",
	ContactsEdit:  "contacts_edit",
	PricesEdit:    "prices_edit",
}

func (k WorkflowKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Entity names the content document the workflow operates on.
func (k WorkflowKind) Entity() string {
	switch k {
	case ProjectAdd, ProjectEdit, ProjectDelete:
		return "projects"
	case WorkAdd, WorkEdit, WorkDelete:
		return "works"
	case ReviewAdd, ReviewEdit, ReviewDelete:
		return "reviews"
	case ContactsEdit:
		return "contacts"
	case PricesEdit:
		return "prices"
	default:
		return ""
	}
}

// GalleryMode tells how collected gallery photos are committed.
type GalleryMode int

const (
	GalleryNone GalleryMode = iota
	GalleryAppend
	GalleryReplace
)

// Session is the in-flight dialogue of one chat.
type Session struct {
	ID        string
	ChatID    int64
	Kind      WorkflowKind
	Machine   *fsm.FSM
	StartedAt time.Time

	Project  content.Project
	Work     content.Work
	Review   content.Review
	Contacts content.Contacts
	Prices   content.PriceSheet

	// Candidates is the list shown by a select step, in display order.
	Candidates    []Candidate
	SelectedID    string
	SelectedTitle string
	Field         string
	GalleryMode   GalleryMode
	Scratch       []string
	ContactQueue  []string
	EditedFields  []string
	BaseVersion   string
	LastPrompt    int
}

// Candidate is one selectable record of a list prompt.
type Candidate struct {
	ID    string
	Title string
}

func NewSession(chatID int64, kind WorkflowKind, now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Kind:      kind,
		StartedAt: now,
	}
}

// Step returns the current step name, or "" before the machine is attached.
func (s *Session) Step() string {
	if s == nil || s.Machine == nil {
		return ""
	}
	return s.Machine.Current()
}
