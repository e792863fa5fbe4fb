package content

import (
	"strings"
	"time"
)

// Status represents the publication state of a content item.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusProtected Status = "protected"
	StatusTrashed   Status = "trashed"
)

// TypeAttachment is the content type whose body is a binary file rather
// than rendered HTML.
const TypeAttachment = "attachment"

// Item is a single indexable unit of content. Read-only to this system.
type Item struct {
	ID        int64
	Type      string
	Status    Status
	Title     string
	Body      string
	MimeType  string
	FilePath  string
	Permalink string
	Language  string
	CreatedAt time.Time
	// Terms maps taxonomy name to the term ids assigned under it.
	Terms map[string][]int64
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case StatusDraft, StatusPublished, StatusProtected, StatusTrashed:
		return normalized, true
	}
	return "", false
}

// IsAttachment reports whether the item carries a binary payload.
func (i *Item) IsAttachment() bool {
	return i.Type == TypeAttachment
}

// PubliclyVisible reports whether the item should be synced to the remote
// index. Attachments inherit visibility from their parent and are treated
// as published.
func (i *Item) PubliclyVisible() bool {
	if i.IsAttachment() {
		return true
	}
	return i.Status == StatusPublished
}
