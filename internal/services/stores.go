package services

import (
	"context"

	"github.com/AnshRaj112/serenify-journal/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EntryStore holds the canonical copy of each journal entry.
type EntryStore interface {
	// Save inserts or replaces entry, assigning a new ID when it is zero.
	Save(ctx context.Context, entry *models.JournalEntry) error
	// FindByID returns models.ErrEntryNotFound on a miss.
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.JournalEntry, error)
	// FindByIDs returns the entries that exist, in the order of ids.
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.JournalEntry, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) error
}

// UserStore holds user records and their ordered entry reference lists.
// Every write is atomic per user. The reference list is only changed through
// AppendEntry and RemoveEntry, so concurrent writers never overwrite each
// other's references.
type UserStore interface {
	// FindByUsername returns models.ErrUserNotFound on a miss.
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	// Save inserts a user with an empty ID, otherwise updates its profile
	// fields and refreshes user.JournalEntries from the store.
	// Returns models.ErrUsernameTaken on a uniqueness clash.
	Save(ctx context.Context, user *models.User) error
	// AppendEntry adds id to the end of the user's list.
	// Returns models.ErrUserNotFound when the user is gone.
	AppendEntry(ctx context.Context, username string, id primitive.ObjectID) error
	// RemoveEntry drops id from the user's list and reports whether it was there.
	RemoveEntry(ctx context.Context, username string, id primitive.ObjectID) (bool, error)
	DeleteByUsername(ctx context.Context, username string) error
	List(ctx context.Context) ([]models.User, error)
}
