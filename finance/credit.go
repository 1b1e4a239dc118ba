package finance

import (
	"context"
	"hash/fnv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/user/jarvisfi-go/httpclient"
	"github.com/user/jarvisfi-go/metrics"
)

// CreditBand names the range a credit score falls in.
func CreditBand(score int) string {
	switch {
	case score >= 800:
		return "Excellent"
	case score >= 750:
		return "Very Good"
	case score >= 700:
		return "Good"
	case score >= 650:
		return "Fair"
	default:
		return "Poor"
	}
}

// CreditRecommendations returns improvement advice for a score.
func CreditRecommendations(score int) []string {
	switch {
	case score < 650:
		return []string{
			"Pay all bills on time to improve payment history",
			"Reduce credit card balances to below 30% of limit",
			"Don't close old credit cards - keep credit history long",
			"Avoid applying for new credit frequently",
		}
	case score < 750:
		return []string{
			"Maintain low credit utilization (below 10%)",
			"Consider a credit mix with different types of loans",
			"Monitor credit report regularly for errors",
			"Pay more than minimum amounts on credit cards",
		}
	default:
		return []string{
			"Excellent credit! Maintain current habits",
			"You qualify for the best interest rates",
			"Consider premium credit cards with rewards",
			"Help family members improve their credit",
		}
	}
}

// BureauScore is what a credit bureau reports for a PAN.
type BureauScore struct {
	Score   int            `json:"score"`
	Factors map[string]int `json:"factors"`
}

// Bureau is a credit bureau lookup.
type Bureau interface {
	Name() string
	Score(ctx context.Context, pan string) (*BureauScore, error)
}

// HTTPBureau queries a bureau's REST endpoint with a bearer API key.
type HTTPBureau struct {
	name    string
	baseURL string
	apiKey  string
	client  *httpclient.Client
}

// NewHTTPBureau creates a bureau client posting to baseURL/credit-score.
func NewHTTPBureau(name, baseURL, apiKey string, client *httpclient.Client) *HTTPBureau {
	return &HTTPBureau{name: name, baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, client: client}
}

func (b *HTTPBureau) Name() string { return b.name }

func (b *HTTPBureau) Score(ctx context.Context, pan string) (*BureauScore, error) {
	var out BureauScore
	err := b.client.PostJSON(ctx, b.baseURL+"/credit-score",
		map[string]string{"Authorization": "Bearer " + b.apiKey},
		map[string]string{"pan": pan}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreditReport is the score plus its interpretation.
type CreditReport struct {
	UserID          string         `json:"user_id"`
	Score           int            `json:"score"`
	Range           string         `json:"range"`
	Factors         map[string]int `json:"factors"`
	Source          string         `json:"source"`
	Trend           string         `json:"trend,omitempty"`
	Recommendations []string       `json:"recommendations"`
	LastUpdated     time.Time      `json:"last_updated"`
}

// CreditScoreService asks every bureau at once and reports the first one,
// in priority order, that answered. With none it returns a mock score.
type CreditScoreService struct {
	bureaus []Bureau
	log     *zap.Logger
	now     func() time.Time
}

// NewCreditScoreService takes bureaus in priority order.
func NewCreditScoreService(log *zap.Logger, bureaus ...Bureau) *CreditScoreService {
	return &CreditScoreService{
		bureaus: bureaus,
		log:     log.With(zap.String("module", "credit")),
		now:     time.Now,
	}
}

// Report looks up the score for pan on behalf of userID.
func (s *CreditScoreService) Report(ctx context.Context, userID, pan string) *CreditReport {
	pan = strings.ToUpper(strings.TrimSpace(pan))

	results := make([]*BureauScore, len(s.bureaus))
	var g errgroup.Group
	for i, b := range s.bureaus {
		i, b := i, b
		g.Go(func() error {
			score, err := b.Score(ctx, pan)
			if err != nil {
				s.log.Warn("credit bureau lookup failed", zap.String("bureau", b.Name()), zap.Error(err))
				return nil
			}
			results[i] = score
			return nil
		})
	}
	_ = g.Wait()

	for i, res := range results {
		if res == nil || res.Score <= 0 {
			continue
		}
		return s.report(userID, res.Score, res.Factors, s.bureaus[i].Name(), "")
	}

	metrics.Fallbacks.WithLabelValues("credit_score").Inc()
	seed := pan
	if seed == "" {
		seed = userID
	}
	score, factors, trend := MockCreditScore(seed)
	return s.report(userID, score, factors, "mock", trend)
}

func (s *CreditScoreService) report(userID string, score int, factors map[string]int, source, trend string) *CreditReport {
	if factors == nil {
		factors = map[string]int{}
	}
	return &CreditReport{
		UserID:          userID,
		Score:           score,
		Range:           CreditBand(score),
		Factors:         factors,
		Source:          source,
		Trend:           trend,
		Recommendations: CreditRecommendations(score),
		LastUpdated:     s.now().UTC(),
	}
}

var mockTrends = [...]string{"improving", "stable", "declining"}

// MockCreditScore derives a stable demo score in [650, 850) from seed.
func MockCreditScore(seed string) (int, map[string]int, string) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(seed))
	v := h.Sum32()

	factors := map[string]int{
		"payment_history":    70 + int((v>>3)%26),
		"credit_utilization": 60 + int((v>>7)%31),
		"credit_age":         50 + int((v>>11)%36),
		"credit_mix":         65 + int((v>>15)%21),
		"new_credit":         70 + int((v>>19)%21),
	}
	return 650 + int(v%200), factors, mockTrends[v%3]
}
