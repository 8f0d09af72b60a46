package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AnshRaj112/serenify-journal/internal/models"
	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const uniqueViolation = "23505"

// PostgresUserRepository stores users in PostgreSQL. The ordered entry
// reference list is a TEXT[] of ObjectID hex strings.
type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

const userColumns = `id, username, email, password_hash, sentiment_analysis, journal_entries, created_at, updated_at`

func (r *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username)

	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", username, err)
	}
	return user, nil
}

func (r *PostgresUserRepository) Save(ctx context.Context, user *models.User) error {
	refs := EntryRefsToStrings(user.JournalEntries)
	now := time.Now().UTC()

	if user.ID == "" {
		err := r.db.QueryRowContext(ctx, `
			INSERT INTO users (username, email, password_hash, sentiment_analysis, journal_entries, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6)
			RETURNING id, created_at, updated_at
		`, user.Username, user.Email, user.PasswordHash, user.SentimentAnalysis, pq.Array(refs), now).
			Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
		return mapWriteError("insert user", err)
	}

	// journal_entries is left alone here; AppendEntry and RemoveEntry own it.
	var current []string
	err := r.db.QueryRowContext(ctx, `
		UPDATE users
		SET username = $2, email = $3, password_hash = $4, sentiment_analysis = $5, updated_at = $6
		WHERE id = $1
		RETURNING journal_entries
	`, user.ID, user.Username, user.Email, user.PasswordHash, user.SentimentAnalysis, now).
		Scan(pq.Array(&current))
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrUserNotFound
	}
	if err != nil {
		return mapWriteError("update user", err)
	}
	if user.JournalEntries, err = EntryRefsFromStrings(current); err != nil {
		return fmt.Errorf("user %s: %w", user.Username, err)
	}
	user.UpdatedAt = now
	return nil
}

// AppendEntry adds id to the user's list in a single statement.
func (r *PostgresUserRepository) AppendEntry(ctx context.Context, username string, id primitive.ObjectID) error {
	var userID string
	err := r.db.QueryRowContext(ctx, `
		UPDATE users
		SET journal_entries = array_append(journal_entries, $2::text), updated_at = $3
		WHERE username = $1
		RETURNING id
	`, username, id.Hex(), time.Now().UTC()).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("append entry for %s: %w", username, err)
	}
	return nil
}

// RemoveEntry drops id from the user's list in a single statement. No row
// comes back when the reference was absent, which a follow-up existence
// check tells apart from a missing user.
func (r *PostgresUserRepository) RemoveEntry(ctx context.Context, username string, id primitive.ObjectID) (bool, error) {
	var userID string
	err := r.db.QueryRowContext(ctx, `
		UPDATE users
		SET journal_entries = array_remove(journal_entries, $2::text), updated_at = $3
		WHERE username = $1 AND $2::text = ANY(journal_entries)
		RETURNING id
	`, username, id.Hex(), time.Now().UTC()).Scan(&userID)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("remove entry for %s: %w", username, err)
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("find user %s: %w", username, err)
	}
	if !exists {
		return false, models.ErrUserNotFound
	}
	return false, nil
}

func (r *PostgresUserRepository) DeleteByUsername(ctx context.Context, username string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE username = $1`, username)
	if err != nil {
		return fmt.Errorf("delete user %s: %w", username, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

func (r *PostgresUserRepository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u    models.User
		refs []string
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.SentimentAnalysis,
		pq.Array(&refs), &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.JournalEntries, err = EntryRefsFromStrings(refs)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", u.Username, err)
	}
	return &u, nil
}

func mapWriteError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return models.ErrUsernameTaken
	}
	return fmt.Errorf("%s: %w", op, err)
}

// EntryRefsToStrings converts ObjectIDs to their hex form, preserving order.
func EntryRefsToStrings(ids []primitive.ObjectID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Hex()
	}
	return out
}

// EntryRefsFromStrings parses hex ObjectIDs, preserving order.
func EntryRefsFromStrings(refs []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(refs))
	for _, ref := range refs {
		id, err := primitive.ObjectIDFromHex(ref)
		if err != nil {
			return nil, fmt.Errorf("invalid entry reference %q: %w", ref, err)
		}
		out = append(out, id)
	}
	return out, nil
}
