package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/AnshRaj112/serenify-journal/internal/logging"
	"github.com/AnshRaj112/serenify-journal/internal/metrics"
	"github.com/AnshRaj112/serenify-journal/internal/models"
	"github.com/jonboulle/clockwork"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// DefaultSentimentTopic is where real-time observations are emitted.
	DefaultSentimentTopic = "weekly_sentiments"

	entryCreatedContext = "Journal entry created"
	journalCacheKind    = "journal"
)

var (
	// ErrInvalidInput rejects a blank title or content (HTTP 400).
	ErrInvalidInput = errors.New("invalid input")
	// ErrOwnerNotFound means the acting username does not exist (HTTP 404).
	ErrOwnerNotFound = errors.New("owner not found")
	// ErrNotFoundOrUnauthorized covers both a missing entry and one the caller
	// does not own, so ownership is never revealed (HTTP 404).
	ErrNotFoundOrUnauthorized = errors.New("entry not found or not authorized")
	// ErrPersistenceFailure wraps a failed store read or write (HTTP 500).
	ErrPersistenceFailure = errors.New("persistence failure")
)

// EntryInput is the caller-supplied part of an entry.
type EntryInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (in EntryInput) normalize() (EntryInput, error) {
	out := EntryInput{Title: strings.TrimSpace(in.Title), Content: strings.TrimSpace(in.Content)}
	if out.Title == "" {
		return out, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if out.Content == "" {
		return out, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	return out, nil
}

// JournalServiceDeps are the collaborators of the entry pipeline. Only
// Entries and Users are required.
type JournalServiceDeps struct {
	Entries       EntryStore
	Users         UserStore
	Classify      Classifier
	Cache         *CacheService
	Events        *AsyncPublisher
	Clock         clockwork.Clock
	Metrics       *metrics.PipelineMetrics
	Topic         string
	EntryCacheTTL time.Duration
}

// JournalService runs the create/update/delete/read pipeline for entries.
//
// Entry and owner writes are two separate store calls. A failure between them
// leaves an orphaned entry (create) or a dangling canonical entry (delete);
// both are logged and counted, not rolled back.
type JournalService struct {
	entries  EntryStore
	users    UserStore
	classify Classifier
	cache    *CacheService
	events   *AsyncPublisher
	clock    clockwork.Clock
	metrics  *metrics.PipelineMetrics
	topic    string
	cacheTTL time.Duration
}

func NewJournalService(deps JournalServiceDeps) *JournalService {
	s := &JournalService{
		entries:  deps.Entries,
		users:    deps.Users,
		classify: deps.Classify,
		cache:    deps.Cache,
		events:   deps.Events,
		clock:    deps.Clock,
		metrics:  deps.Metrics,
		topic:    deps.Topic,
		cacheTTL: deps.EntryCacheTTL,
	}
	if s.classify == nil {
		s.classify = Classify
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	if s.events == nil {
		s.events = NewAsyncPublisher(NoopPublisher{}, s.clock, nil)
	}
	if s.topic == "" {
		s.topic = DefaultSentimentTopic
	}
	if s.cacheTTL <= 0 {
		s.cacheTTL = DefaultCacheTTL
	}
	return s
}

// CreateEntry stamps, classifies and persists a new entry for username, then
// appends it to the owner's list.
func (s *JournalService) CreateEntry(ctx context.Context, input EntryInput, username string) (*models.JournalEntry, error) {
	log := logging.WithUser(username)

	user, err := s.findOwner(ctx, username)
	if err != nil {
		return nil, err
	}

	input, err = input.normalize()
	if err != nil {
		return nil, err
	}

	entry := &models.JournalEntry{
		Title:   input.Title,
		Content: input.Content,
		Date:    s.clock.Now().UTC(),
	}
	if user.SentimentAnalysis {
		entry.Sentiment = s.safeClassify(input.Content).Ptr()
	}

	if err := s.entries.Save(ctx, entry); err != nil {
		log.Error("failed to save journal entry", "error", err)
		return nil, fmt.Errorf("%w: save entry: %w", ErrPersistenceFailure, err)
	}

	if err := s.users.AppendEntry(ctx, user.Username, entry.ID); err != nil {
		if s.metrics != nil {
			s.metrics.OrphanedEntries.Inc()
		}
		log.Error("entry saved but owner update failed, entry is orphaned",
			"entry_id", entry.ID.Hex(), "error", err)
		return nil, fmt.Errorf("%w: save owner: %w", ErrPersistenceFailure, err)
	}

	if s.metrics != nil {
		s.metrics.EntriesCreated.WithLabelValues(sentimentLabel(entry.Sentiment)).Inc()
	}
	log.Info("journal entry created", "entry_id", entry.ID.Hex(), "sentiment", sentimentLabel(entry.Sentiment))

	if entry.HasSentiment() && *entry.Sentiment != models.SentimentNeutral {
		s.events.PublishAsync(ctx, s.topic, user.Email, models.SentimentObservation{
			Email:     user.Email,
			Username:  user.Username,
			Sentiment: models.RealTimeLabel(*entry.Sentiment, entryCreatedContext),
		})
	}

	return entry, nil
}

// UpdateEntry replaces title and content of an owned entry. Date and
// sentiment are kept; edits never re-classify or emit events.
func (s *JournalService) UpdateEntry(ctx context.Context, id primitive.ObjectID, input EntryInput, username string) (*models.JournalEntry, error) {
	user, err := s.findOwner(ctx, username)
	if err != nil {
		return nil, err
	}
	if !user.OwnsEntry(id) {
		return nil, ErrNotFoundOrUnauthorized
	}

	input, err = input.normalize()
	if err != nil {
		return nil, err
	}

	entry, err := s.loadEntry(ctx, id)
	if err != nil {
		return nil, err
	}

	entry.Title = input.Title
	entry.Content = input.Content

	if err := s.entries.Save(ctx, entry); err != nil {
		logging.WithEntry(id.Hex()).Error("failed to update journal entry", "error", err)
		return nil, fmt.Errorf("%w: update entry: %w", ErrPersistenceFailure, err)
	}
	s.cache.Delete(ctx, entryCacheKey(id))

	return entry, nil
}

// DeleteEntry removes an owned entry. It returns false with a nil error when
// the user is unknown or does not own id, so callers cannot tell the two
// apart; store failures return false with ErrPersistenceFailure.
func (s *JournalService) DeleteEntry(ctx context.Context, id primitive.ObjectID, username string) (bool, error) {
	log := logging.WithUser(username).With("entry_id", id.Hex())

	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, models.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: find user: %w", ErrPersistenceFailure, err)
	}

	if !user.OwnsEntry(id) {
		log.Warn("delete rejected, entry not in user's list")
		return false, nil
	}

	// Only the caller that actually removes the reference deletes the entry.
	removed, err := s.users.RemoveEntry(ctx, username, id)
	if errors.Is(err, models.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		log.Error("failed to remove entry from owner", "error", err)
		return false, fmt.Errorf("%w: save owner: %w", ErrPersistenceFailure, err)
	}
	if !removed {
		return false, nil
	}

	s.cache.Delete(ctx, entryCacheKey(id))

	if err := s.entries.DeleteByID(ctx, id); err != nil {
		log.Error("reference removed but canonical entry not deleted", "error", err)
		return false, fmt.Errorf("%w: delete entry: %w", ErrPersistenceFailure, err)
	}

	if s.metrics != nil {
		s.metrics.EntriesDeleted.Inc()
	}
	log.Info("journal entry deleted")
	return true, nil
}

// GetEntry returns an owned entry, reading through the cache.
func (s *JournalService) GetEntry(ctx context.Context, id primitive.ObjectID, username string) (*models.JournalEntry, error) {
	user, err := s.findOwner(ctx, username)
	if err != nil {
		return nil, err
	}
	if !user.OwnsEntry(id) {
		return nil, ErrNotFoundOrUnauthorized
	}

	key := entryCacheKey(id)
	var cached models.JournalEntry
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		return nil, err
	}
	if hit {
		return &cached, nil
	}

	entry, err := s.loadEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, key, entry, s.cacheTTL)
	return entry, nil
}

// ListEntries returns the user's entries in ownership-list order.
func (s *JournalService) ListEntries(ctx context.Context, username string) ([]models.JournalEntry, error) {
	user, err := s.findOwner(ctx, username)
	if err != nil {
		return nil, err
	}

	entries, err := s.entries.FindByIDs(ctx, user.JournalEntries)
	if err != nil {
		return nil, fmt.Errorf("%w: list entries: %w", ErrPersistenceFailure, err)
	}
	if len(entries) != len(user.JournalEntries) {
		logging.WithUser(username).Warn("ownership list references missing entries",
			"references", len(user.JournalEntries), "found", len(entries))
	}
	return entries, nil
}

func (s *JournalService) findOwner(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, models.ErrUserNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrOwnerNotFound, username)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find user: %w", ErrPersistenceFailure, err)
	}
	return user, nil
}

func (s *JournalService) loadEntry(ctx context.Context, id primitive.ObjectID) (*models.JournalEntry, error) {
	entry, err := s.entries.FindByID(ctx, id)
	if errors.Is(err, models.ErrEntryNotFound) {
		return nil, ErrNotFoundOrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find entry: %w", ErrPersistenceFailure, err)
	}
	return entry, nil
}

// safeClassify never fails: a panicking or misbehaving classifier yields NEUTRAL.
func (s *JournalService) safeClassify(content string) (sentiment models.Sentiment) {
	defer func() {
		if r := recover(); r != nil {
			if s.metrics != nil {
				s.metrics.ClassifierFault.Inc()
			}
			slog.Warn("sentiment analysis failed, using NEUTRAL", "panic", r)
			sentiment = models.SentimentNeutral
		}
	}()

	sentiment = s.classify(content)
	if !sentiment.Valid() {
		slog.Warn("classifier returned unknown sentiment, using NEUTRAL", "sentiment", string(sentiment))
		sentiment = models.SentimentNeutral
	}
	return sentiment
}

func sentimentLabel(s *models.Sentiment) string {
	if s == nil {
		return "unset"
	}
	return string(*s)
}

func entryCacheKey(id primitive.ObjectID) string {
	return CacheKey(journalCacheKind, id.Hex())
}
