package users

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no live row matches.
var ErrNotFound = errors.New("users: record not found")

// Store is the persistence UserService needs.
type Store interface {
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	// UpdateUser writes every mutable profile field of u.
	UpdateUser(ctx context.Context, u *User) error
	UpdateGamification(ctx context.Context, id uuid.UUID, points, level int, badges []string) error
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
	Stats(ctx context.Context) (*Stats, error)

	UpsertPreference(ctx context.Context, userID uuid.UUID, p Preference) error
	// ListPreferences returns every preference when category is empty.
	ListPreferences(ctx context.Context, userID uuid.UUID, category string) ([]Preference, error)
	GetPreference(ctx context.Context, userID uuid.UUID, category, key string) (*Preference, error)
	DeletePreference(ctx context.Context, userID uuid.UUID, category, key string) (bool, error)

	InsertActivity(ctx context.Context, a *Activity) error
	ListActivities(ctx context.Context, userID uuid.UUID, limit int) ([]Activity, error)
	// PurgeActivities deletes activities created before the cutoff.
	PurgeActivities(ctx context.Context, before time.Time) (int64, error)
}
