package community

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/user/jarvisfi-go/apperror"
	"github.com/user/jarvisfi-go/notify"
	"github.com/user/jarvisfi-go/security"
)

// Paging and trending limits.
const (
	DefaultPerPage  = 20
	MaxPerPage      = 100
	DefaultTrending = 10
	MaxTrending     = 50
)

// Notifier pushes an event to a user's live connections and returns how
// many received it.
type Notifier interface {
	Notify(userID, eventType string, payload interface{}) int
}

// ReplyNotice is the payload sent to authors when someone answers them.
type ReplyNotice struct {
	DiscussionID uuid.UUID  `json:"discussion_id"`
	ReplyID      uuid.UUID  `json:"reply_id"`
	ParentID     *uuid.UUID `json:"parent_id,omitempty"`
	Title        string     `json:"title"`
	From         uuid.UUID  `json:"from"`
	Preview      string     `json:"preview"`
}

// Service implements the discussion board.
type Service struct {
	store    Store
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

// NewService creates a Service. notifier may be nil.
func NewService(store Store, notifier Notifier, log *zap.Logger) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		log:      log.With(zap.String("module", "community")),
		now:      time.Now,
	}
}

func storeError(err error, what string) error {
	if errors.Is(err, ErrNotFound) {
		return apperror.NewNotFoundError(what+" not found", err)
	}
	return apperror.NewDatabaseError("community store failed", err)
}

func lengthError(field string, min, max int) error {
	return apperror.NewValidationError(field+" has an invalid length", nil).
		WithDetails(map[string]string{field: "must be between " + strconv.Itoa(min) + " and " + strconv.Itoa(max) + " characters"})
}

// CreateDiscussion opens a thread for userID.
func (s *Service) CreateDiscussion(ctx context.Context, userID uuid.UUID, req CreateDiscussionRequest) (*Discussion, error) {
	if err := security.ValidateStruct(req); err != nil {
		return nil, err
	}
	title := security.SanitizeInput(req.Title, 200)
	if utf8.RuneCountInString(title) < 5 {
		return nil, lengthError("title", 5, 200)
	}
	content := security.SanitizeInput(req.Content, 10000)
	if content == "" {
		return nil, lengthError("content", 1, 10000)
	}

	now := s.now().UTC()
	d := &Discussion{
		ID:             uuid.New(),
		UserID:         userID,
		Category:       req.Category,
		Title:          title,
		Content:        content,
		Hashtags:       ExtractHashtags(title + " " + content),
		CreatedAt:      now,
		UpdatedAt:      now,
		LastActivityAt: now,
	}
	if err := s.store.CreateDiscussion(ctx, d); err != nil {
		return nil, storeError(err, "discussion")
	}
	s.log.Info("discussion created", zap.String("discussion_id", d.ID.String()), zap.String("category", d.Category))
	return d, nil
}

// Reply answers a discussion, or one of its replies when req.ParentID is
// set, and notifies the authors being answered.
func (s *Service) Reply(ctx context.Context, userID, discussionID uuid.UUID, req ReplyRequest) (*Reply, error) {
	if err := security.ValidateStruct(req); err != nil {
		return nil, err
	}
	content := security.SanitizeInput(req.Content, 10000)
	if content == "" {
		return nil, lengthError("content", 1, 10000)
	}

	d, err := s.store.FindDiscussion(ctx, discussionID)
	if err != nil {
		return nil, storeError(err, "discussion")
	}
	var parent *Reply
	if req.ParentID != nil {
		parent, err = s.store.FindReply(ctx, *req.ParentID)
		if errors.Is(err, ErrNotFound) || (err == nil && parent.DiscussionID != discussionID) {
			return nil, apperror.NewValidationError("parent reply is not part of this discussion", nil).
				WithDetails(map[string]string{"parent_id": "unknown in this discussion"})
		}
		if err != nil {
			return nil, storeError(err, "reply")
		}
	}

	r := &Reply{
		ID:           uuid.New(),
		DiscussionID: discussionID,
		ParentID:     req.ParentID,
		UserID:       userID,
		Content:      content,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.CreateReply(ctx, r); err != nil {
		return nil, storeError(err, "discussion")
	}

	notice := ReplyNotice{
		DiscussionID: discussionID,
		ReplyID:      r.ID,
		ParentID:     r.ParentID,
		Title:        d.Title,
		From:         userID,
		Preview:      preview(content, 120),
	}
	s.notify(d.UserID, userID, notice)
	if parent != nil && parent.UserID != d.UserID {
		s.notify(parent.UserID, userID, notice)
	}
	return r, nil
}

func (s *Service) notify(to, from uuid.UUID, notice ReplyNotice) {
	if s.notifier == nil || to == from {
		return
	}
	n := s.notifier.Notify(to.String(), notify.TypeCommunityReply, notice)
	s.log.Debug("reply notification sent", zap.String("user_id", to.String()), zap.Int("clients", n))
}

func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

// ListDiscussions returns a page of discussions, newest activity first.
// An empty category lists every category. perPage 0 means the default and
// other values are clamped to 1..100.
func (s *Service) ListDiscussions(ctx context.Context, category string, page, perPage int) (*DiscussionPage, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if category != "" && !ValidCategory(category) {
		return nil, apperror.NewValidationError("unknown category", nil).
			WithDetails(map[string]string{"category": "must be one of " + strings.Join(Categories, ", ")})
	}
	if page < 1 {
		page = 1
	}
	switch {
	case perPage == 0:
		perPage = DefaultPerPage
	case perPage < 1:
		perPage = 1
	case perPage > MaxPerPage:
		perPage = MaxPerPage
	}
	items, total, err := s.store.ListDiscussions(ctx, category, perPage, (page-1)*perPage)
	if err != nil {
		return nil, storeError(err, "discussions")
	}
	return &DiscussionPage{Discussions: items, Total: total, Page: page, PerPage: perPage}, nil
}

// GetThread returns a discussion with its nested replies and whether
// viewer likes it.
func (s *Service) GetThread(ctx context.Context, id, viewer uuid.UUID) (*Thread, error) {
	d, err := s.store.FindDiscussion(ctx, id)
	if err != nil {
		return nil, storeError(err, "discussion")
	}
	replies, err := s.store.ListReplies(ctx, id)
	if err != nil {
		return nil, storeError(err, "replies")
	}
	liked, err := s.store.HasLiked(ctx, id, viewer)
	if err != nil {
		return nil, storeError(err, "like")
	}
	return &Thread{Discussion: *d, Liked: liked, Replies: buildTree(replies)}, nil
}

// ToggleLike likes the discussion for userID, or removes the like.
func (s *Service) ToggleLike(ctx context.Context, userID, discussionID uuid.UUID) (*LikeResult, error) {
	liked, count, err := s.store.ToggleLike(ctx, discussionID, userID)
	if err != nil {
		return nil, storeError(err, "discussion")
	}
	return &LikeResult{Liked: liked, Likes: count}, nil
}

// Trending returns the discussions active since the given time with the
// most replies plus likes. limit 0 means the default; others are clamped
// to 1..50.
func (s *Service) Trending(ctx context.Context, since time.Time, limit int) ([]Discussion, error) {
	limit = clampLimit(limit)
	items, err := s.store.Trending(ctx, since, limit)
	if err != nil {
		return nil, storeError(err, "discussions")
	}
	return items, nil
}

func clampLimit(limit int) int {
	switch {
	case limit == 0:
		return DefaultTrending
	case limit < 1:
		return 1
	case limit > MaxTrending:
		return MaxTrending
	}
	return limit
}

// Stats returns board totals and the week's top hashtags.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	st, err := s.store.Counts(ctx)
	if err != nil {
		return nil, storeError(err, "stats")
	}
	for _, c := range Categories {
		if _, ok := st.ByCategory[c]; !ok {
			st.ByCategory[c] = 0
		}
	}
	tags, err := s.store.TrendingHashtags(ctx, Since(LastWeek, s.now()), DefaultTrending)
	if err != nil {
		return nil, storeError(err, "hashtags")
	}
	st.Hashtags = tags
	return st, nil
}

// Delete removes a discussion. Only its author may delete it.
func (s *Service) Delete(ctx context.Context, userID, discussionID uuid.UUID) error {
	d, err := s.store.FindDiscussion(ctx, discussionID)
	if err != nil {
		return storeError(err, "discussion")
	}
	if d.UserID != userID {
		return apperror.NewUnauthorizedError("only the author can delete a discussion", nil)
	}
	if err := s.store.DeleteDiscussion(ctx, discussionID, s.now().UTC()); err != nil {
		return storeError(err, "discussion")
	}
	s.log.Info("discussion deleted", zap.String("discussion_id", discussionID.String()))
	return nil
}
