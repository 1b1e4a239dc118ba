package community

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/jarvisfi-go/apperror"
	"github.com/user/jarvisfi-go/auth"
	"github.com/user/jarvisfi-go/notify"
	"github.com/user/jarvisfi-go/security"
)

// memStore is an in-memory Store.
type memStore struct {
	mu          sync.Mutex
	discussions map[uuid.UUID]*Discussion
	deleted     map[uuid.UUID]bool
	replies     []Reply
	likes       map[[2]uuid.UUID]bool
}

func newMemStore() *memStore {
	return &memStore{
		discussions: map[uuid.UUID]*Discussion{},
		deleted:     map[uuid.UUID]bool{},
		likes:       map[[2]uuid.UUID]bool{},
	}
}

func (s *memStore) live() []Discussion {
	out := []Discussion{}
	for id, d := range s.discussions {
		if !s.deleted[id] {
			out = append(out, *d)
		}
	}
	return out
}

func (s *memStore) CreateDiscussion(_ context.Context, d *Discussion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *d
	s.discussions[d.ID] = &cp
	return nil
}

func (s *memStore) FindDiscussion(_ context.Context, id uuid.UUID) (*Discussion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.discussions[id]
	if !ok || s.deleted[id] {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *memStore) ListDiscussions(_ context.Context, category string, limit, offset int) ([]Discussion, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []Discussion
	for _, d := range s.live() {
		if category == "" || d.Category == category {
			all = append(all, d)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].LastActivityAt.After(all[j].LastActivityAt) })
	out := []Discussion{}
	for i := offset; i < len(all) && i < offset+limit; i++ {
		out = append(out, all[i])
	}
	return out, int64(len(all)), nil
}

func (s *memStore) DeleteDiscussion(_ context.Context, id uuid.UUID, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.discussions[id]; !ok || s.deleted[id] {
		return ErrNotFound
	}
	s.deleted[id] = true
	return nil
}

func (s *memStore) CreateReply(_ context.Context, r *Reply) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.discussions[r.DiscussionID]
	if !ok || s.deleted[r.DiscussionID] {
		return ErrNotFound
	}
	d.ReplyCount++
	d.LastActivityAt = r.CreatedAt
	s.replies = append(s.replies, *r)
	return nil
}

func (s *memStore) FindReply(_ context.Context, id uuid.UUID) (*Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.replies {
		if r.ID == id {
			cp := r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memStore) ListReplies(_ context.Context, discussionID uuid.UUID) ([]Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Reply{}
	for _, r := range s.replies {
		if r.DiscussionID == discussionID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memStore) ToggleLike(_ context.Context, discussionID, userID uuid.UUID) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.discussions[discussionID]
	if !ok || s.deleted[discussionID] {
		return false, 0, ErrNotFound
	}
	key := [2]uuid.UUID{discussionID, userID}
	if s.likes[key] {
		delete(s.likes, key)
		d.LikeCount--
		return false, d.LikeCount, nil
	}
	s.likes[key] = true
	d.LikeCount++
	return true, d.LikeCount, nil
}

func (s *memStore) HasLiked(_ context.Context, discussionID, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.likes[[2]uuid.UUID{discussionID, userID}], nil
}

func (s *memStore) Trending(_ context.Context, since time.Time, limit int) ([]Discussion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Discussion{}
	for _, d := range s.live() {
		if !d.LastActivityAt.Before(since) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score() != out[j].Score() {
			return out[i].Score() > out[j].Score()
		}
		return out[i].LastActivityAt.After(out[j].LastActivityAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) TrendingHashtags(_ context.Context, since time.Time, limit int) ([]TrendingHashtag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byTag := map[string]*TrendingHashtag{}
	for _, d := range s.live() {
		if d.CreatedAt.Before(since) {
			continue
		}
		for _, tag := range d.Hashtags {
			t, ok := byTag[tag]
			if !ok {
				t = &TrendingHashtag{Tag: tag}
				byTag[tag] = t
			}
			t.UsageCount++
			if d.CreatedAt.After(t.LastUsed) {
				t.LastUsed = d.CreatedAt
			}
		}
	}
	out := []TrendingHashtag{}
	for _, t := range byTag {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UsageCount != out[j].UsageCount {
			return out[i].UsageCount > out[j].UsageCount
		}
		return out[i].Tag < out[j].Tag
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) Counts(_ context.Context) (*Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := &Stats{ByCategory: map[string]int64{}}
	members := map[uuid.UUID]bool{}
	for _, d := range s.live() {
		st.Discussions++
		st.Replies += int64(d.ReplyCount)
		st.Likes += int64(d.LikeCount)
		st.ByCategory[d.Category]++
		members[d.UserID] = true
	}
	for _, r := range s.replies {
		if !s.deleted[r.DiscussionID] {
			members[r.UserID] = true
		}
	}
	st.Members = int64(len(members))
	return st, nil
}

type notice struct {
	userID    string
	eventType string
	payload   ReplyNotice
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notice
}

func (n *recordingNotifier) Notify(userID, eventType string, payload interface{}) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notice{userID: userID, eventType: eventType, payload: payload.(ReplyNotice)})
	return 1
}

func (n *recordingNotifier) recipients() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.sent))
	for i, s := range n.sent {
		out[i] = s.userID
	}
	return out
}

func newService(t *testing.T) (*Service, *recordingNotifier) {
	t.Helper()
	n := &recordingNotifier{}
	s := NewService(newMemStore(), n, zap.NewNop())
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	s.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}
	return s, n
}

func create(t *testing.T, s *Service, userID uuid.UUID, category, title string) *Discussion {
	t.Helper()
	d, err := s.CreateDiscussion(context.Background(), userID, CreateDiscussionRequest{
		Category: category, Title: title, Content: "Sharing what worked for me.",
	})
	require.NoError(t, err)
	return d
}

func TestExtractHashtags(t *testing.T) {
	got := ExtractHashtags("Start a #SIP and #sip, also #ELSS and #பணம் today")
	assert.Equal(t, []string{"elss", "sip", "பணம்"}, got)
	assert.Empty(t, ExtractHashtags("no tags # here"))
}

func TestExtractHashtagsLengthLimit(t *testing.T) {
	longest := strings.Repeat("ப", MaxHashtagLength)
	tooLong := strings.Repeat("a", MaxHashtagLength+1)

	got := ExtractHashtags("#" + longest + " #" + tooLong + " #sip")
	assert.Equal(t, []string{"sip", longest}, got)
	assert.Empty(t, ExtractHashtags("#"+tooLong))
}

func TestLikeUnknownDiscussion(t *testing.T) {
	fk := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503", ConstraintName: "community_likes_discussion_id_fkey"})
	assert.ErrorIs(t, missingDiscussion(fk), ErrNotFound)
	other := errors.New("connection reset")
	assert.Equal(t, other, missingDiscussion(other))

	s, _ := newService(t)
	_, err := s.ToggleLike(context.Background(), uuid.New(), uuid.New())
	assert.True(t, apperror.IsNotFound(err), "%v", err)
}

func TestCreateDiscussion(t *testing.T) {
	s, _ := newService(t)
	author := uuid.New()

	d, err := s.CreateDiscussion(context.Background(), author, CreateDiscussionRequest{
		Category: CategoryInvestment,
		Title:    "  First SIP advice  ",
		Content:  "Started a #SIP in an index fund. Thoughts on #ELSS?",
	})
	require.NoError(t, err)
	assert.Equal(t, "First SIP advice", d.Title)
	assert.Equal(t, []string{"elss", "sip"}, d.Hashtags)
	assert.Equal(t, author, d.UserID)
	assert.Zero(t, d.ReplyCount)

	_, err = s.CreateDiscussion(context.Background(), author, CreateDiscussionRequest{
		Category: CategoryInvestment, Title: "Hi", Content: "x",
	})
	assert.True(t, apperror.IsValidationError(err))

	_, err = s.CreateDiscussion(context.Background(), author, CreateDiscussionRequest{
		Category: CategoryInvestment, Title: "<<<>>>Hey", Content: "x",
	})
	assert.True(t, apperror.IsValidationError(err), "a title made short by sanitising is rejected")

	_, err = s.CreateDiscussion(context.Background(), author, CreateDiscussionRequest{
		Category: "crypto", Title: "Bitcoin tips", Content: "x",
	})
	assert.True(t, apperror.IsValidationError(err))

	_, err = s.CreateDiscussion(context.Background(), author, CreateDiscussionRequest{
		Category: CategoryCredit, Title: "Credit score", Content: strings.Repeat("a", 10001),
	})
	assert.True(t, apperror.IsValidationError(err))
}

func TestReplyNotifiesAuthors(t *testing.T) {
	s, n := newService(t)
	ctx := context.Background()
	author, first, second := uuid.New(), uuid.New(), uuid.New()
	d := create(t, s, author, CategoryFarmerFinance, "Crop loan interest")

	r1, err := s.Reply(ctx, first, d.ID, ReplyRequest{Content: "Check KCC rates."})
	require.NoError(t, err)
	assert.Equal(t, []string{author.String()}, n.recipients())
	assert.Equal(t, notify.TypeCommunityReply, n.sent[0].eventType)
	assert.Equal(t, "Crop loan interest", n.sent[0].payload.Title)
	assert.Equal(t, r1.ID, n.sent[0].payload.ReplyID)

	_, err = s.Reply(ctx, author, d.ID, ReplyRequest{Content: "Thanks!"})
	require.NoError(t, err)
	assert.Len(t, n.sent, 1, "authors are not told about their own replies")

	_, err = s.Reply(ctx, second, d.ID, ReplyRequest{Content: "Agreed, 4% with subvention.", ParentID: &r1.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{author.String(), author.String(), first.String()}, n.recipients())

	other := create(t, s, author, CategoryCredit, "Improve my score")
	_, err = s.Reply(ctx, second, other.ID, ReplyRequest{Content: "hello", ParentID: &r1.ID})
	assert.True(t, apperror.IsValidationError(err))

	_, err = s.Reply(ctx, second, uuid.New(), ReplyRequest{Content: "hello"})
	assert.True(t, apperror.IsNotFound(err))

	_, err = s.Reply(ctx, second, d.ID, ReplyRequest{Content: "<>"})
	assert.True(t, apperror.IsValidationError(err))
}

func TestGetThreadNestsReplies(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	author, other := uuid.New(), uuid.New()
	d := create(t, s, author, CategoryPersonalFinance, "Emergency fund size")

	top, err := s.Reply(ctx, other, d.ID, ReplyRequest{Content: "Six months of expenses."})
	require.NoError(t, err)
	_, err = s.Reply(ctx, author, d.ID, ReplyRequest{Content: "Even for freelancers?", ParentID: &top.ID})
	require.NoError(t, err)
	_, err = s.Reply(ctx, other, d.ID, ReplyRequest{Content: "Keep it in a liquid fund."})
	require.NoError(t, err)

	thread, err := s.GetThread(ctx, d.ID, other)
	require.NoError(t, err)
	assert.Equal(t, 3, thread.Discussion.ReplyCount)
	assert.False(t, thread.Liked)
	require.Len(t, thread.Replies, 2)
	assert.Equal(t, top.ID, thread.Replies[0].ID)
	require.Len(t, thread.Replies[0].Replies, 1)
	assert.Equal(t, "Even for freelancers?", thread.Replies[0].Replies[0].Content)
	assert.Empty(t, thread.Replies[1].Replies)

	_, err = s.GetThread(ctx, uuid.New(), other)
	assert.True(t, apperror.IsNotFound(err))
}

func TestToggleLike(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	user := uuid.New()
	d := create(t, s, uuid.New(), CategoryTaxPlanning, "80C vs NPS")

	res, err := s.ToggleLike(ctx, user, d.ID)
	require.NoError(t, err)
	assert.Equal(t, &LikeResult{Liked: true, Likes: 1}, res)

	thread, err := s.GetThread(ctx, d.ID, user)
	require.NoError(t, err)
	assert.True(t, thread.Liked)

	res, err = s.ToggleLike(ctx, user, d.ID)
	require.NoError(t, err)
	assert.Equal(t, &LikeResult{Liked: false, Likes: 0}, res)

	_, err = s.ToggleLike(ctx, user, uuid.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestListDiscussions(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	user := uuid.New()
	older := create(t, s, user, CategoryInvestment, "Index funds first")
	create(t, s, user, CategoryCredit, "Credit card limits")
	newer := create(t, s, user, CategoryInvestment, "Gold bonds worth it")

	page, err := s.ListDiscussions(ctx, "", 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPerPage, page.PerPage)
	assert.Equal(t, newer.ID, page.Discussions[0].ID)

	page, err = s.ListDiscussions(ctx, "Investment", 1, 500)
	require.NoError(t, err)
	assert.Equal(t, MaxPerPage, page.PerPage)
	assert.EqualValues(t, 2, page.Total)

	page, err = s.ListDiscussions(ctx, CategoryInvestment, 2, -5)
	require.NoError(t, err)
	assert.Equal(t, 1, page.PerPage)
	require.Len(t, page.Discussions, 1)
	assert.Equal(t, older.ID, page.Discussions[0].ID)

	_, err = s.ListDiscussions(ctx, "crypto", 1, 10)
	assert.True(t, apperror.IsValidationError(err))
}

func TestTrending(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	quiet := create(t, s, uuid.New(), CategoryInvestment, "Quiet thread")
	busy := create(t, s, uuid.New(), CategoryInvestment, "Busy thread")
	liked := create(t, s, uuid.New(), CategoryCredit, "Liked thread")

	for i := 0; i < 2; i++ {
		_, err := s.Reply(ctx, uuid.New(), busy.ID, ReplyRequest{Content: "+1"})
		require.NoError(t, err)
	}
	_, err := s.ToggleLike(ctx, uuid.New(), liked.ID)
	require.NoError(t, err)

	items, err := s.Trending(ctx, time.Time{}, 0)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []uuid.UUID{busy.ID, liked.ID, quiet.ID}, []uuid.UUID{items[0].ID, items[1].ID, items[2].ID})

	items, err = s.Trending(ctx, time.Time{}, 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	items, err = s.Trending(ctx, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), 10)
	require.NoError(t, err)
	assert.Empty(t, items)

	assert.Equal(t, DefaultTrending, clampLimit(0))
	assert.Equal(t, MaxTrending, clampLimit(99))
	assert.Equal(t, 1, clampLimit(-3))
}

func TestSince(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, now.AddDate(0, 0, -1), Since(LastDay, now))
	assert.Equal(t, now.AddDate(0, 0, -7), Since("", now))
	assert.Equal(t, now.AddDate(0, -1, 0), Since(LastMonth, now))
	assert.True(t, Since(AllTime, now).IsZero())
}

func TestDeleteAuthorOnly(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	author := uuid.New()
	d := create(t, s, author, CategoryCredit, "Closing old cards")

	err := s.Delete(ctx, uuid.New(), d.ID)
	assert.True(t, apperror.IsUnauthorizedError(err))

	require.NoError(t, s.Delete(ctx, author, d.ID))
	_, err = s.GetThread(ctx, d.ID, author)
	assert.True(t, apperror.IsNotFound(err))
	assert.True(t, apperror.IsNotFound(s.Delete(ctx, author, d.ID)))
}

func TestStats(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()
	d, err := s.CreateDiscussion(ctx, a, CreateDiscussionRequest{
		Category: CategoryTaxPlanning, Title: "New regime math", Content: "Is #newregime better? #tax",
	})
	require.NoError(t, err)
	_, err = s.CreateDiscussion(ctx, b, CreateDiscussionRequest{
		Category: CategoryTaxPlanning, Title: "HRA claims", Content: "Rent receipts for #tax",
	})
	require.NoError(t, err)
	_, err = s.Reply(ctx, uuid.New(), d.ID, ReplyRequest{Content: "Depends on deductions."})
	require.NoError(t, err)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, st.Discussions)
	assert.EqualValues(t, 1, st.Replies)
	assert.EqualValues(t, 3, st.Members)
	assert.EqualValues(t, 2, st.ByCategory[CategoryTaxPlanning])
	assert.Contains(t, st.ByCategory, CategoryCredit)
	require.NotEmpty(t, st.Hashtags)
	assert.Equal(t, "tax", st.Hashtags[0].Tag)
	assert.EqualValues(t, 2, st.Hashtags[0].UsageCount)
}

func withUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get("X-Test-User"); id != "" {
			claims := &security.Claims{TokenType: security.TokenTypeAccess, RegisteredClaims: jwt.RegisteredClaims{Subject: id}}
			r = r.WithContext(auth.NewContextWithClaims(r.Context(), claims))
		}
		next.ServeHTTP(w, r)
	})
}

func TestHandlers(t *testing.T) {
	s, n := newService(t)
	r := chi.NewRouter()
	r.Use(withUser)
	NewHandlers(s).RegisterRoutes(r)
	author, other := uuid.New(), uuid.New()

	do := func(method, path, body string, user uuid.UUID) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		if user != uuid.Nil {
			req.Header.Set("X-Test-User", user.String())
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, do(http.MethodGet, "/community/discussions", "", uuid.Nil).Code)

	rec := do(http.MethodPost, "/community/discussions",
		`{"category":"investment","title":"Best SIP date?","content":"Does the #SIP date matter?"}`, author)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var d Discussion
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.Equal(t, []string{"sip"}, d.Hashtags)

	assert.Equal(t, http.StatusBadRequest, do(http.MethodPost, "/community/discussions",
		`{"category":"investment","title":"Hi","content":"x"}`, author).Code)

	rec = do(http.MethodPost, "/community/discussions/"+d.ID.String()+"/replies", `{"content":"No real difference."}`, other)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, []string{author.String()}, n.recipients())

	rec = do(http.MethodPost, "/community/discussions/"+d.ID.String()+"/like", "", other)
	require.Equal(t, http.StatusOK, rec.Code)
	var like LikeResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &like))
	assert.True(t, like.Liked)

	rec = do(http.MethodGet, "/community/discussions/"+d.ID.String(), "", other)
	require.Equal(t, http.StatusOK, rec.Code)
	var thread Thread
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &thread))
	assert.True(t, thread.Liked)
	assert.Len(t, thread.Replies, 1)

	rec = do(http.MethodGet, "/community/discussions?category=investment&per_page=5", "", other)
	require.Equal(t, http.StatusOK, rec.Code)
	var page DiscussionPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, 5, page.PerPage)

	assert.Equal(t, http.StatusBadRequest, do(http.MethodGet, "/community/discussions?page=abc", "", other).Code)
	assert.Equal(t, http.StatusBadRequest, do(http.MethodGet, "/community/discussions/not-a-uuid", "", other).Code)

	rec = do(http.MethodGet, "/community/trending?timespan=all", "", other)
	require.Equal(t, http.StatusOK, rec.Code)
	var trending []Discussion
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trending))
	require.Len(t, trending, 1)
	assert.Equal(t, 2, trending[0].Score())

	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/community/stats", "", other).Code)
	assert.Equal(t, http.StatusForbidden, do(http.MethodDelete, "/community/discussions/"+d.ID.String(), "", other).Code)
	assert.Equal(t, http.StatusNoContent, do(http.MethodDelete, "/community/discussions/"+d.ID.String(), "", author).Code)
	assert.Equal(t, http.StatusNotFound, do(http.MethodGet, "/community/discussions/"+d.ID.String(), "", author).Code)
}
