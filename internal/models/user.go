package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User owns an ordered list of journal entry references. That list is the
// only authorization check for entry access.
type User struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Username          string `json:"userName"`
	Email             string `json:"email"`
	PasswordHash      string `json:"-"` // Never serialised
	SentimentAnalysis bool   `json:"sentimentAnalysis"`

	JournalEntries []primitive.ObjectID `json:"journalEntries"`
}

// OwnsEntry reports whether id is in the user's ownership list.
func (u *User) OwnsEntry(id primitive.ObjectID) bool {
	for _, ref := range u.JournalEntries {
		if ref == id {
			return true
		}
	}
	return false
}

// RemoveEntry drops every reference to id and reports whether any was removed.
func (u *User) RemoveEntry(id primitive.ObjectID) bool {
	kept := u.JournalEntries[:0]
	removed := false
	for _, ref := range u.JournalEntries {
		if ref == id {
			removed = true
			continue
		}
		kept = append(kept, ref)
	}
	u.JournalEntries = kept
	return removed
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (u *User) Clone() *User {
	c := *u
	c.JournalEntries = append([]primitive.ObjectID(nil), u.JournalEntries...)
	return &c
}
