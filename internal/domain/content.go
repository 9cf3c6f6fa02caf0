package domain

import (
	"errors"
	"time"
)

var (
	// ErrContentNotFound is returned when a content item does not exist in storage.
	ErrContentNotFound = errors.New("content not found")
	// ErrProfileNotFound is returned when a writer profile cannot be resolved.
	ErrProfileNotFound = errors.New("profile not found")
)

// Content is a single document managed by the content repository.
type Content struct {
	ID          int64
	ParentID    *int64
	Name        string
	Body        string
	WriterID    int64
	Published   bool
	Trashed     bool
	ReleaseDate *time.Time
	ExpireDate  *time.Time
	UpdatedAt   time.Time
	UpdatedBy   int64
}

// Profile identifies the user a state transition is attributed to.
type Profile struct {
	ID       int64
	Name     string
	Email    string
	Disabled bool
}

// AuditAction names a recorded state transition.
type AuditAction string

const (
	AuditPublish   AuditAction = "publish"
	AuditUnpublish AuditAction = "unpublish"
)

// AuditEntry records who performed a transition and when.
type AuditEntry struct {
	ContentID int64
	UserID    int64
	Action    AuditAction
	CreatedAt time.Time
}
