package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// JournalEntry is a single dated journal record. The entry store holds the
// canonical copy; the owning user's JournalEntries list references it by ID.
type JournalEntry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string             `bson:"title" json:"title"`
	Content   string             `bson:"content" json:"content"`
	Date      time.Time          `bson:"date" json:"date"`
	Sentiment *Sentiment         `bson:"sentiment,omitempty" json:"sentiment,omitempty"`
}

// HasSentiment reports whether the entry was classified.
func (e *JournalEntry) HasSentiment() bool {
	return e.Sentiment != nil
}
