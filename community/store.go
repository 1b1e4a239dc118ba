package community

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Store lookups that match no row.
var ErrNotFound = errors.New("community: record not found")

// Store is the persistence the community service needs. Deleted
// discussions are invisible to every lookup.
type Store interface {
	// CreateDiscussion inserts d and its hashtags.
	CreateDiscussion(ctx context.Context, d *Discussion) error
	FindDiscussion(ctx context.Context, id uuid.UUID) (*Discussion, error)
	// ListDiscussions returns one page ordered by last activity, newest
	// first, and the total across pages. An empty category lists all.
	ListDiscussions(ctx context.Context, category string, limit, offset int) ([]Discussion, int64, error)
	DeleteDiscussion(ctx context.Context, id uuid.UUID, at time.Time) error

	// CreateReply inserts r and bumps the discussion's reply count and
	// activity time.
	CreateReply(ctx context.Context, r *Reply) error
	FindReply(ctx context.Context, id uuid.UUID) (*Reply, error)
	// ListReplies returns a discussion's replies oldest first.
	ListReplies(ctx context.Context, discussionID uuid.UUID) ([]Reply, error)

	// ToggleLike adds the user's like or removes it, returning whether the
	// discussion is now liked and its like count.
	ToggleLike(ctx context.Context, discussionID, userID uuid.UUID) (bool, int, error)
	HasLiked(ctx context.Context, discussionID, userID uuid.UUID) (bool, error)

	// Trending returns discussions active since the given time ordered by
	// replies plus likes.
	Trending(ctx context.Context, since time.Time, limit int) ([]Discussion, error)
	TrendingHashtags(ctx context.Context, since time.Time, limit int) ([]TrendingHashtag, error)
	// Counts returns discussion, reply, like and distinct member totals and
	// discussions per category.
	Counts(ctx context.Context) (*Stats, error)
}
