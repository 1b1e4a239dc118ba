package community

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/jarvisfi-go/db"
)

// PgStore implements Store on Postgres.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

const discussionColumns = `d.id, d.user_id, d.category, d.title, d.content,
	COALESCE((SELECT array_agg(h.tag ORDER BY h.tag) FROM community_hashtags h WHERE h.discussion_id = d.id), '{}'),
	d.reply_count, d.like_count, d.created_at, d.updated_at, d.last_activity_at`

func scanDiscussion(row pgx.Row) (*Discussion, error) {
	var d Discussion
	err := row.Scan(&d.ID, &d.UserID, &d.Category, &d.Title, &d.Content, &d.Hashtags,
		&d.ReplyCount, &d.LikeCount, &d.CreatedAt, &d.UpdatedAt, &d.LastActivityAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func collectDiscussions(rows pgx.Rows) ([]Discussion, error) {
	defer rows.Close()
	out := []Discussion{}
	for rows.Next() {
		d, err := scanDiscussion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (s *PgStore) CreateDiscussion(ctx context.Context, d *Discussion) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO community_discussions (id, user_id, category, title, content,
			created_at, updated_at, last_activity_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6, $6)`,
		d.ID, d.UserID, d.Category, d.Title, d.Content, d.CreatedAt,
	); err != nil {
		return err
	}
	for _, tag := range d.Hashtags {
		if _, err := tx.Exec(ctx,
			`INSERT INTO community_hashtags (discussion_id, tag) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			d.ID, tag,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PgStore) FindDiscussion(ctx context.Context, id uuid.UUID) (*Discussion, error) {
	return scanDiscussion(s.db.QueryRow(ctx, `SELECT `+discussionColumns+`
		FROM community_discussions d WHERE d.id = $1 AND d.deleted_at IS NULL`, id))
}

func (s *PgStore) ListDiscussions(ctx context.Context, category string, limit, offset int) ([]Discussion, int64, error) {
	var total int64
	if err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM community_discussions
		WHERE deleted_at IS NULL AND ($1 = '' OR category = $1)`, category,
	).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.db.Query(ctx, `SELECT `+discussionColumns+`
		FROM community_discussions d
		WHERE d.deleted_at IS NULL AND ($1 = '' OR d.category = $1)
		ORDER BY d.last_activity_at DESC, d.id
		LIMIT $2 OFFSET $3`, category, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	out, err := collectDiscussions(rows)
	return out, total, err
}

func (s *PgStore) DeleteDiscussion(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE community_discussions SET deleted_at = $2, updated_at = $2
		WHERE id = $1 AND deleted_at IS NULL`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PgStore) CreateReply(ctx context.Context, r *Reply) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE community_discussions
		SET reply_count = reply_count + 1, last_activity_at = $2
		WHERE id = $1 AND deleted_at IS NULL`, r.DiscussionID, r.CreatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO community_replies (id, discussion_id, parent_id, user_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		r.ID, r.DiscussionID, r.ParentID, r.UserID, r.Content, r.CreatedAt,
	); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const replyColumns = `id, discussion_id, parent_id, user_id, content, created_at`

func (s *PgStore) FindReply(ctx context.Context, id uuid.UUID) (*Reply, error) {
	var r Reply
	err := s.db.QueryRow(ctx, `SELECT `+replyColumns+` FROM community_replies
		WHERE id = $1 AND deleted_at IS NULL`, id,
	).Scan(&r.ID, &r.DiscussionID, &r.ParentID, &r.UserID, &r.Content, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PgStore) ListReplies(ctx context.Context, discussionID uuid.UUID) ([]Reply, error) {
	rows, err := s.db.Query(ctx, `SELECT `+replyColumns+` FROM community_replies
		WHERE discussion_id = $1 AND deleted_at IS NULL
		ORDER BY created_at, id`, discussionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Reply{}
	for rows.Next() {
		var r Reply
		if err := rows.Scan(&r.ID, &r.DiscussionID, &r.ParentID, &r.UserID, &r.Content, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PgStore) ToggleLike(ctx context.Context, discussionID, userID uuid.UUID) (bool, int, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`DELETE FROM community_likes WHERE discussion_id = $1 AND user_id = $2`, discussionID, userID)
	if err != nil {
		return false, 0, err
	}
	liked, delta := false, -1
	if tag.RowsAffected() == 0 {
		if _, err := tx.Exec(ctx,
			`INSERT INTO community_likes (user_id, discussion_id) VALUES ($1, $2)`, userID, discussionID,
		); err != nil {
			return false, 0, missingDiscussion(err)
		}
		liked, delta = true, 1
	}
	var count int
	err = tx.QueryRow(ctx, `
		UPDATE community_discussions SET like_count = GREATEST(like_count + $2, 0)
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING like_count`, discussionID, delta,
	).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, 0, ErrNotFound
	}
	if err != nil {
		return false, 0, err
	}
	return liked, count, tx.Commit(ctx)
}

// missingDiscussion turns a foreign key failure on a discussion reference
// into ErrNotFound.
func missingDiscussion(err error) error {
	if db.IsForeignKeyViolation(err) {
		return ErrNotFound
	}
	return err
}

func (s *PgStore) HasLiked(ctx context.Context, discussionID, userID uuid.UUID) (bool, error) {
	var liked bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM community_likes WHERE discussion_id = $1 AND user_id = $2)`,
		discussionID, userID,
	).Scan(&liked)
	return liked, err
}

func (s *PgStore) Trending(ctx context.Context, since time.Time, limit int) ([]Discussion, error) {
	rows, err := s.db.Query(ctx, `SELECT `+discussionColumns+`
		FROM community_discussions d
		WHERE d.deleted_at IS NULL AND d.last_activity_at >= $1
		ORDER BY (d.reply_count + d.like_count) DESC, d.last_activity_at DESC
		LIMIT $2`, since, limit)
	if err != nil {
		return nil, err
	}
	return collectDiscussions(rows)
}

func (s *PgStore) TrendingHashtags(ctx context.Context, since time.Time, limit int) ([]TrendingHashtag, error) {
	rows, err := s.db.Query(ctx, `
		SELECT h.tag, COUNT(*), MAX(d.created_at)
		FROM community_hashtags h
		JOIN community_discussions d ON d.id = h.discussion_id
		WHERE d.deleted_at IS NULL AND d.created_at >= $1
		GROUP BY h.tag
		ORDER BY COUNT(*) DESC, h.tag
		LIMIT $2`, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []TrendingHashtag{}
	for rows.Next() {
		var t TrendingHashtag
		if err := rows.Scan(&t.Tag, &t.UsageCount, &t.LastUsed); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PgStore) Counts(ctx context.Context) (*Stats, error) {
	st := &Stats{ByCategory: map[string]int64{}}
	if err := s.db.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(reply_count), 0), COALESCE(SUM(like_count), 0)
		FROM community_discussions WHERE deleted_at IS NULL`,
	).Scan(&st.Discussions, &st.Replies, &st.Likes); err != nil {
		return nil, err
	}
	if err := s.db.QueryRow(ctx, `
		SELECT COUNT(DISTINCT user_id) FROM (
			SELECT user_id FROM community_discussions WHERE deleted_at IS NULL
			UNION
			SELECT user_id FROM community_replies WHERE deleted_at IS NULL
		) members`,
	).Scan(&st.Members); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, `
		SELECT category, COUNT(*) FROM community_discussions
		WHERE deleted_at IS NULL GROUP BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			category string
			n        int64
		)
		if err := rows.Scan(&category, &n); err != nil {
			return nil, err
		}
		st.ByCategory[category] = n
	}
	return st, rows.Err()
}
