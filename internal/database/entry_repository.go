package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/AnshRaj112/serenify-journal/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const JournalEntriesCollection = "journal_entries"

// MongoEntryRepository stores journal entries in MongoDB.
type MongoEntryRepository struct {
	col *mongo.Collection
}

func NewMongoEntryRepository(db *mongo.Database) *MongoEntryRepository {
	return &MongoEntryRepository{col: db.Collection(JournalEntriesCollection)}
}

// EnsureIndexes configures indexes for the journal_entries collection.
func (r *MongoEntryRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "date", Value: -1}},
		Options: options.Index().SetName("idx_date"),
	})
	return err
}

func (r *MongoEntryRepository) Save(ctx context.Context, entry *models.JournalEntry) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
		if _, err := r.col.InsertOne(ctx, entry); err != nil {
			entry.ID = primitive.NilObjectID
			return fmt.Errorf("insert journal entry: %w", err)
		}
		return nil
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := r.col.ReplaceOne(ctx, bson.M{"_id": entry.ID}, entry, opts); err != nil {
		return fmt.Errorf("replace journal entry %s: %w", entry.ID.Hex(), err)
	}
	return nil
}

func (r *MongoEntryRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.JournalEntry, error) {
	var entry models.JournalEntry
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find journal entry %s: %w", id.Hex(), err)
	}
	return &entry, nil
}

func (r *MongoEntryRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.JournalEntry, error) {
	if len(ids) == 0 {
		return []models.JournalEntry{}, nil
	}

	cursor, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find journal entries: %w", err)
	}
	defer cursor.Close(ctx)

	var found []models.JournalEntry
	if err := cursor.All(ctx, &found); err != nil {
		return nil, fmt.Errorf("decode journal entries: %w", err)
	}
	return orderByIDs(ids, found), nil
}

func (r *MongoEntryRepository) DeleteByID(ctx context.Context, id primitive.ObjectID) error {
	if _, err := r.col.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete journal entry %s: %w", id.Hex(), err)
	}
	return nil
}

// orderByIDs returns entries in the order of ids, skipping ids with no entry.
func orderByIDs(ids []primitive.ObjectID, entries []models.JournalEntry) []models.JournalEntry {
	byID := make(map[primitive.ObjectID]models.JournalEntry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}
	out := make([]models.JournalEntry, 0, len(ids))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			out = append(out, e)
		}
	}
	return out
}
