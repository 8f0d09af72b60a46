package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/AnshRaj112/serenify-journal/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryEntryStore is an in-memory entry store for tests and STORAGE=memory runs.
type MemoryEntryStore struct {
	mu      sync.RWMutex
	entries map[primitive.ObjectID]models.JournalEntry
}

func NewMemoryEntryStore() *MemoryEntryStore {
	return &MemoryEntryStore{entries: make(map[primitive.ObjectID]models.JournalEntry)}
}

func (s *MemoryEntryStore) Save(_ context.Context, entry *models.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	s.entries[entry.ID] = cloneEntry(*entry)
	return nil
}

func (s *MemoryEntryStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, models.ErrEntryNotFound
	}
	c := cloneEntry(e)
	return &c, nil
}

func (s *MemoryEntryStore) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.JournalEntry, 0, len(ids))
	for _, id := range ids {
		if e, ok := s.entries[id]; ok {
			out = append(out, cloneEntry(e))
		}
	}
	return out, nil
}

func (s *MemoryEntryStore) DeleteByID(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

// Len reports how many entries are stored.
func (s *MemoryEntryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func cloneEntry(e models.JournalEntry) models.JournalEntry {
	if e.Sentiment != nil {
		e.Sentiment = e.Sentiment.Ptr()
	}
	return e
}

// MemoryUserStore is an in-memory user store keyed by username.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]*models.User // by username
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]*models.User)}
}

func (s *MemoryUserStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return u.Clone(), nil
}

func (s *MemoryUserStore) Save(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	key := user.Username

	if user.ID == "" {
		if _, taken := s.users[key]; taken {
			return models.ErrUsernameTaken
		}
		user.ID = uuid.NewString()
		user.CreatedAt = now
		user.UpdatedAt = now
		s.users[key] = user.Clone()
		return nil
	}

	oldKey, found := s.keyForID(user.ID)
	if !found {
		return models.ErrUserNotFound
	}
	if existing, taken := s.users[key]; taken && existing.ID != user.ID {
		return models.ErrUsernameTaken
	}
	refs := s.users[oldKey].JournalEntries
	delete(s.users, oldKey)
	user.UpdatedAt = now
	user.JournalEntries = append([]primitive.ObjectID(nil), refs...)
	s.users[key] = user.Clone()
	return nil
}

func (s *MemoryUserStore) AppendEntry(_ context.Context, username string, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return models.ErrUserNotFound
	}
	u.JournalEntries = append(u.JournalEntries, id)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryUserStore) RemoveEntry(_ context.Context, username string, id primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return false, models.ErrUserNotFound
	}
	if !u.RemoveEntry(id) {
		return false, nil
	}
	u.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (s *MemoryUserStore) DeleteByUsername(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; !ok {
		return models.ErrUserNotFound
	}
	delete(s.users, username)
	return nil
}

func (s *MemoryUserStore) List(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryUserStore) keyForID(id string) (string, bool) {
	for k, u := range s.users {
		if u.ID == id {
			return k, true
		}
	}
	return "", false
}
