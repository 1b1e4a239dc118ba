// Package community hosts the discussion board: threads grouped by
// category, nested replies, likes and hashtag trends.
package community

import (
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Discussion categories.
const (
	CategoryInvestment      = "investment"
	CategoryPersonalFinance = "personal_finance"
	CategoryFarmerFinance   = "farmer_finance"
	CategoryTaxPlanning     = "tax_planning"
	CategoryCredit          = "credit"
)

// Categories lists every discussion category.
var Categories = []string{
	CategoryInvestment,
	CategoryPersonalFinance,
	CategoryFarmerFinance,
	CategoryTaxPlanning,
	CategoryCredit,
}

// ValidCategory reports whether c names a category.
func ValidCategory(c string) bool {
	return slices.Contains(Categories, c)
}

// Discussion is the opening post of a thread.
type Discussion struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	Category       string    `json:"category"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	Hashtags       []string  `json:"hashtags"`
	ReplyCount     int       `json:"reply_count"`
	LikeCount      int       `json:"like_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// Score is the trending weight of d.
func (d Discussion) Score() int { return d.ReplyCount + d.LikeCount }

// Reply answers a discussion or another reply.
type Reply struct {
	ID           uuid.UUID  `json:"id"`
	DiscussionID uuid.UUID  `json:"discussion_id"`
	ParentID     *uuid.UUID `json:"parent_id,omitempty"`
	UserID       uuid.UUID  `json:"user_id"`
	Content      string     `json:"content"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ReplyNode is a reply with its answers.
type ReplyNode struct {
	Reply
	Replies []*ReplyNode `json:"replies"`
}

// Thread is a discussion with its reply tree.
type Thread struct {
	Discussion Discussion   `json:"discussion"`
	Liked      bool         `json:"liked"`
	Replies    []*ReplyNode `json:"replies"`
}

// DiscussionPage is one page of discussions.
type DiscussionPage struct {
	Discussions []Discussion `json:"discussions"`
	Total       int64        `json:"total"`
	Page        int          `json:"page"`
	PerPage     int          `json:"per_page"`
}

// LikeResult reports the caller's like after a toggle.
type LikeResult struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

// TrendingHashtag is a hashtag and how often it was used.
type TrendingHashtag struct {
	Tag        string    `json:"tag"`
	UsageCount int64     `json:"usage_count"`
	LastUsed   time.Time `json:"last_used"`
}

// Stats summarises the board.
type Stats struct {
	Discussions int64             `json:"discussions"`
	Replies     int64             `json:"replies"`
	Likes       int64             `json:"likes"`
	Members     int64             `json:"members"`
	ByCategory  map[string]int64  `json:"by_category"`
	Hashtags    []TrendingHashtag `json:"trending_hashtags"`
}

// CreateDiscussionRequest is the body of POST /community/discussions.
type CreateDiscussionRequest struct {
	Category string `json:"category" validate:"required,oneof=investment personal_finance farmer_finance tax_planning credit"`
	Title    string `json:"title" validate:"required,min=5,max=200"`
	Content  string `json:"content" validate:"required,min=1,max=10000"`
}

// ReplyRequest is the body of POST /community/discussions/{id}/replies.
type ReplyRequest struct {
	Content  string     `json:"content" validate:"required,min=1,max=10000"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}

// Trending timespans.
const (
	LastDay   = "day"
	LastWeek  = "week"
	LastMonth = "month"
	LastYear  = "year"
	AllTime   = "all"
)

// Since returns the start of timespan measured back from now. Unknown
// spans mean the last week; AllTime is the zero time.
func Since(timespan string, now time.Time) time.Time {
	switch timespan {
	case LastDay:
		return now.AddDate(0, 0, -1)
	case LastMonth:
		return now.AddDate(0, -1, 0)
	case LastYear:
		return now.AddDate(-1, 0, 0)
	case AllTime:
		return time.Time{}
	default:
		return now.AddDate(0, 0, -7)
	}
}

// MaxHashtagLength is the longest tag, in runes, community_hashtags.tag
// can hold.
const MaxHashtagLength = 100

var hashtagRegex = regexp.MustCompile(`#([\p{L}\p{M}\p{N}_]+)`)

// ExtractHashtags returns the unique lower-cased hashtags in content,
// sorted. Tags longer than MaxHashtagLength are ignored.
func ExtractHashtags(content string) []string {
	seen := make(map[string]struct{})
	for _, m := range hashtagRegex.FindAllStringSubmatch(content, -1) {
		if utf8.RuneCountInString(m[1]) > MaxHashtagLength {
			continue
		}
		seen[strings.ToLower(m[1])] = struct{}{}
	}
	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}

// buildTree nests replies under their parents. Replies whose parent is
// missing sit at the top level. Input order is kept among siblings.
func buildTree(replies []Reply) []*ReplyNode {
	nodes := make(map[uuid.UUID]*ReplyNode, len(replies))
	for _, r := range replies {
		nodes[r.ID] = &ReplyNode{Reply: r, Replies: []*ReplyNode{}}
	}
	roots := []*ReplyNode{}
	for _, r := range replies {
		n := nodes[r.ID]
		if r.ParentID != nil {
			if parent, ok := nodes[*r.ParentID]; ok {
				parent.Replies = append(parent.Replies, n)
				continue
			}
		}
		roots = append(roots, n)
	}
	return roots
}
