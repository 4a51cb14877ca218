package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/area-labs/area-core/internal/plugin"
)

// ServiceTokenRepository defines persistence for per-user OAuth tokens.
// It doubles as the token lookup collaborator handed to authenticated
// service plugins.
type ServiceTokenRepository interface {
	Upsert(ctx context.Context, token *ServiceToken) error
	Get(ctx context.Context, userID, service string) (*ServiceToken, error)
	ListServices(ctx context.Context, userID string) ([]string, error)
	Delete(ctx context.Context, userID, service string) error
	AccessToken(ctx context.Context, userID, service string) (string, error)
}

// SQLiteServiceTokenRepository implements ServiceTokenRepository using SQLite.
type SQLiteServiceTokenRepository struct {
	db *sql.DB
}

// NewServiceTokenRepository creates a new SQLite-backed token repository.
func NewServiceTokenRepository(db *sql.DB) *SQLiteServiceTokenRepository {
	return &SQLiteServiceTokenRepository{db: db}
}

// Upsert stores a user's token for a service, replacing any existing one.
// One row per (user, service) pair.
func (r *SQLiteServiceTokenRepository) Upsert(ctx context.Context, token *ServiceToken) error {
	if token.ID == "" {
		token.ID = "tok-" + uuid.NewString()[:8]
	}

	now := time.Now().UTC().Format(time.RFC3339)
	var expires sql.NullString
	if token.ExpiresAt != nil {
		expires = sql.NullString{String: token.ExpiresAt.UTC().Format(time.RFC3339), Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_service_tokens (id, user_id, service, access_token, refresh_token, expires_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, service) DO UPDATE SET
		   access_token = excluded.access_token,
		   refresh_token = excluded.refresh_token,
		   expires_at = excluded.expires_at,
		   updated_at = excluded.updated_at`,
		token.ID, token.UserID, token.Service, token.AccessToken,
		nullString(token.RefreshToken), expires, now, now,
	)
	if err != nil {
		return fmt.Errorf("storing service token: %w", err)
	}
	return nil
}

// Get retrieves a user's token for a service.
func (r *SQLiteServiceTokenRepository) Get(ctx context.Context, userID, service string) (*ServiceToken, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, service, access_token, refresh_token, expires_at, created_at, updated_at
		 FROM user_service_tokens WHERE user_id = ? AND service = ?`,
		userID, service,
	)

	var t ServiceToken
	var refresh, expires sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&t.ID, &t.UserID, &t.Service, &t.AccessToken,
		&refresh, &expires, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrServiceTokenNotFound
		}
		return nil, fmt.Errorf("scanning service token: %w", err)
	}

	if refresh.Valid {
		t.RefreshToken = refresh.String
	}
	if expires.Valid {
		exp, perr := time.Parse(time.RFC3339, expires.String)
		if perr == nil {
			t.ExpiresAt = &exp
		}
	}
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &t, nil
}

// ListServices returns the service names a user has stored tokens for.
func (r *SQLiteServiceTokenRepository) ListServices(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT service FROM user_service_tokens WHERE user_id = ? ORDER BY service ASC", userID)
	if err != nil {
		return nil, fmt.Errorf("listing service tokens: %w", err)
	}
	defer rows.Close()

	services := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scanning service name: %w", err)
		}
		services = append(services, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating service tokens: %w", err)
	}
	return services, nil
}

// Delete removes a user's token for a service.
func (r *SQLiteServiceTokenRepository) Delete(ctx context.Context, userID, service string) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM user_service_tokens WHERE user_id = ? AND service = ?", userID, service)
	if err != nil {
		return fmt.Errorf("deleting service token: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrServiceTokenNotFound
	}
	return nil
}

// AccessToken implements the plugin token lookup: it returns a usable
// access token or a not-found/expired error the engine treats as a
// failed check for that binding only.
func (r *SQLiteServiceTokenRepository) AccessToken(ctx context.Context, userID, service string) (string, error) {
	t, err := r.Get(ctx, userID, service)
	if err != nil {
		if errors.Is(err, ErrServiceTokenNotFound) {
			return "", fmt.Errorf("%w: %s", plugin.ErrNoToken, service)
		}
		return "", err
	}
	if t.Expired(time.Now()) {
		return "", fmt.Errorf("%w: %s token expired", plugin.ErrNoToken, service)
	}
	return t.AccessToken, nil
}
