package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AnshRaj112/serenify-journal/internal/logging"
	"github.com/AnshRaj112/serenify-journal/internal/models"
	"github.com/AnshRaj112/serenify-journal/pkg/utils"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// SignupInput is the public signup payload.
type SignupInput struct {
	Username          string `json:"userName"`
	Email             string `json:"email"`
	Password          string `json:"password"`
	SentimentAnalysis bool   `json:"sentimentAnalysis"`
}

// UpdateProfileInput changes the caller's own account. Empty fields are left
// as they are; a nil SentimentAnalysis keeps the current flag.
type UpdateProfileInput struct {
	Username          string `json:"userName"`
	Password          string `json:"password"`
	Email             string `json:"email"`
	SentimentAnalysis *bool  `json:"sentimentAnalysis"`
}

// UserService manages accounts. Entry ownership lists are only touched on
// account deletion; the journal pipeline owns them otherwise.
type UserService struct {
	users        UserStore
	entries      EntryStore
	cache        *CacheService
	purgeEntries bool
}

func NewUserService(users UserStore, entries EntryStore, cache *CacheService, purgeEntries bool) *UserService {
	return &UserService{users: users, entries: entries, cache: cache, purgeEntries: purgeEntries}
}

// Signup creates a new account with a hashed password.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)

	if err := utils.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := utils.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := utils.ValidatePassword(in.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:          username,
		Email:             email,
		PasswordHash:      hash,
		SentimentAnalysis: in.SentimentAnalysis,
	}
	if err := s.users.Save(ctx, user); err != nil {
		if errors.Is(err, models.ErrUsernameTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: create user: %w", ErrPersistenceFailure, err)
	}

	logging.WithUser(username).Info("user signed up", "sentiment_analysis", user.SentimentAnalysis)
	return user, nil
}

// Authenticate verifies credentials. Unknown users and wrong passwords both
// return ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, models.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find user: %w", ErrPersistenceFailure, err)
	}

	ok, err := utils.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		logging.WithUser(username).Error("stored password hash is unreadable", "error", err)
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// UpdateProfile applies in to the account named username and returns the
// updated record.
func (s *UserService) UpdateProfile(ctx context.Context, username string, in UpdateProfileInput) (*models.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, models.ErrUserNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrOwnerNotFound, username)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find user: %w", ErrPersistenceFailure, err)
	}

	if name := strings.TrimSpace(in.Username); name != "" && name != user.Username {
		if err := utils.ValidateUsername(name); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		user.Username = name
	}
	if email := strings.TrimSpace(in.Email); email != "" {
		if err := utils.ValidateEmail(email); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		user.Email = email
	}
	if in.Password != "" {
		if err := utils.ValidatePassword(in.Password); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		hash, err := utils.HashPassword(in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	if in.SentimentAnalysis != nil {
		user.SentimentAnalysis = *in.SentimentAnalysis
	}

	if err := s.users.Save(ctx, user); err != nil {
		if errors.Is(err, models.ErrUsernameTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: update user: %w", ErrPersistenceFailure, err)
	}

	logging.WithUser(user.Username).Info("profile updated", "previous_username", username)
	return user, nil
}

// DeleteAccount removes the user record. Owned entries are purged only when
// the service was built with purgeEntries.
func (s *UserService) DeleteAccount(ctx context.Context, username string) error {
	log := logging.WithUser(username)

	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, models.ErrUserNotFound) {
		return fmt.Errorf("%w: %s", ErrOwnerNotFound, username)
	}
	if err != nil {
		return fmt.Errorf("%w: find user: %w", ErrPersistenceFailure, err)
	}

	if err := s.users.DeleteByUsername(ctx, username); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return fmt.Errorf("%w: %s", ErrOwnerNotFound, username)
		}
		return fmt.Errorf("%w: delete user: %w", ErrPersistenceFailure, err)
	}

	if s.purgeEntries {
		purged := 0
		for _, id := range user.JournalEntries {
			s.cache.Delete(ctx, entryCacheKey(id))
			if err := s.entries.DeleteByID(ctx, id); err != nil {
				log.Warn("failed to purge entry of deleted user", "entry_id", id.Hex(), "error", err)
				continue
			}
			purged++
		}
		log.Info("user deleted", "entries_purged", purged)
		return nil
	}

	log.Info("user deleted", "entries_kept", len(user.JournalEntries))
	return nil
}

// ListUsers returns every account. Password hashes never serialise.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list users: %w", ErrPersistenceFailure, err)
	}
	return users, nil
}
