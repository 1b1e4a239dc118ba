package advisor

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/user/jarvisfi-go/apperror"
	"github.com/user/jarvisfi-go/cache"
	"github.com/user/jarvisfi-go/currency"
	"github.com/user/jarvisfi-go/i18n"
	"github.com/user/jarvisfi-go/metrics"
	"github.com/user/jarvisfi-go/security"
)

// MaxMessageLength is the longest message accepted, in runes.
const MaxMessageLength = 2000

// ChatRequest is one user message.
type ChatRequest struct {
	Message       string  `json:"message" validate:"required,max=2000"`
	Language      string  `json:"language" validate:"omitempty,len=2"`
	UserType      string  `json:"user_type" validate:"omitempty,max=32"`
	MonthlyIncome float64 `json:"monthly_income" validate:"gte=0"`
	Age           int     `json:"age" validate:"gte=0,lte=120"`
	Location      string  `json:"location" validate:"omitempty,max=100"`
	UserID        string  `json:"-"`
}

// ChatResponse is the assistant's answer.
type ChatResponse struct {
	Response       string    `json:"response"`
	Intent         string    `json:"intent"`
	Language       string    `json:"language"`
	Confidence     float64   `json:"confidence"`
	Sources        []string  `json:"sources"`
	Disclaimers    []string  `json:"disclaimers"`
	Warnings       []string  `json:"warnings"`
	RiskLevel      string    `json:"risk_level"`
	Verified       bool      `json:"verified"`
	Generator      string    `json:"generator"`
	Cached         bool      `json:"cached"`
	ProcessingTime float64   `json:"processing_time"`
	Timestamp      time.Time `json:"timestamp"`
}

// Options configures an Engine.
type Options struct {
	CacheTTL           time.Duration
	SupportedLanguages []string
	DefaultLanguage    string
}

type cachedAnswer struct {
	Text      string `json:"text"`
	Generator string `json:"generator"`
}

// Engine runs the chat pipeline.
type Engine struct {
	generators []Generator
	kb         *KnowledgeBase
	cache      *cache.Manager
	opts       Options
	log        *zap.Logger
	now        func() time.Time
}

// NewEngine creates an Engine that tries generators in order and finishes
// with the rule-based answers. kb may be nil to disable retrieval.
func NewEngine(generators []Generator, kb *KnowledgeBase, cm *cache.Manager, opts Options, log *zap.Logger) *Engine {
	gens := make([]Generator, 0, len(generators)+1)
	for _, g := range generators {
		if g != nil && g.Name() != RuleBasedName {
			gens = append(gens, g)
		}
	}
	gens = append(gens, RuleBasedGenerator{})
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = i18n.English
	}
	if len(opts.SupportedLanguages) == 0 {
		opts.SupportedLanguages = []string{opts.DefaultLanguage}
	}
	return &Engine{
		generators: gens,
		kb:         kb,
		cache:      cm,
		opts:       opts,
		log:        log.With(zap.String("module", "advisor")),
		now:        time.Now,
	}
}

// KnowledgeBase returns the retrieval store, or nil when disabled.
func (e *Engine) KnowledgeBase() *KnowledgeBase { return e.kb }

// Generators lists the generator names in the order they are tried.
func (e *Engine) Generators() []string {
	out := make([]string, len(e.generators))
	for i, g := range e.generators {
		out[i] = g.Name()
	}
	return out
}

// SupportedLanguages lists the languages answers can be given in.
func (e *Engine) SupportedLanguages() []string { return e.opts.SupportedLanguages }

// Search queries the knowledge base. Without one it finds nothing.
func (e *Engine) Search(query string, topK int, threshold float64) []Match {
	if e.kb == nil {
		return []Match{}
	}
	return e.kb.Search(query, topK, threshold)
}

func (e *Engine) language(requested, msg string) string {
	lang := strings.ToLower(strings.TrimSpace(requested))
	if lang == "" {
		lang = i18n.DetectLanguage(msg)
	}
	if !i18n.Supported(lang, e.opts.SupportedLanguages) {
		return e.opts.DefaultLanguage
	}
	return lang
}

// Chat answers req. Generator failures fall through to the next generator,
// so only an empty message is an error.
func (e *Engine) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	start := e.now()
	msg := security.SanitizeInput(req.Message, MaxMessageLength)
	if msg == "" {
		return nil, apperror.NewValidationError("message is required", nil).
			WithDetails(map[string]string{"message": "required"})
	}

	lang := e.language(req.Language, msg)
	intent := ClassifyIntent(msg)
	docs := e.Search(msg, DefaultTopK, DefaultThreshold)
	prompt := BuildPrompt(msg, req, intent, docs)

	key := cache.Key("ai_response", cache.Digest(lang+"|"+prompt))
	var answer cachedAnswer
	cached, err := e.cache.Get(ctx, key, &answer)
	if err != nil {
		e.log.Warn("response cache read failed", zap.Error(err))
	}
	if !cached || answer.Text == "" {
		cached = false
		answer = e.generate(ctx, prompt)
		if answer.Generator != RuleBasedName {
			if err := e.cache.Set(ctx, key, answer, e.opts.CacheTTL); err != nil {
				e.log.Warn("response cache write failed", zap.Error(err))
			}
		}
	}

	fc := FactCheck(answer.Text, msg, docs)
	text := answer.Text + "\n\n" + strings.Join(fc.Disclaimers, "\n")
	if lang != i18n.English {
		text = i18n.SubstituteTerms(text, lang)
	}

	metrics.ChatIntents.WithLabelValues(intent, lang).Inc()
	metrics.ChatGenerator.WithLabelValues(answer.Generator, strconv.FormatBool(cached)).Inc()

	now := e.now()
	return &ChatResponse{
		Response:       text,
		Intent:         intent,
		Language:       lang,
		Confidence:     Confidence(msg, len(docs)),
		Sources:        sources(intent, docs),
		Disclaimers:    fc.Disclaimers,
		Warnings:       fc.Warnings,
		RiskLevel:      fc.RiskLevel,
		Verified:       fc.Verified,
		Generator:      answer.Generator,
		Cached:         cached,
		ProcessingTime: math.Round(now.Sub(start).Seconds()*1e4) / 1e4,
		Timestamp:      now.UTC(),
	}, nil
}

func (e *Engine) generate(ctx context.Context, prompt string) cachedAnswer {
	for _, g := range e.generators {
		text, err := g.Generate(ctx, prompt)
		if err == nil && strings.TrimSpace(text) != "" {
			return cachedAnswer{Text: text, Generator: g.Name()}
		}
		if err == nil {
			err = ErrEmptyCompletion
		}
		e.log.Warn("generator failed, trying next", zap.String("generator", g.Name()), zap.Error(err))
		metrics.Fallbacks.WithLabelValues("generator_" + g.Name()).Inc()
	}
	// Unreachable while the rule-based generator closes the cascade.
	return cachedAnswer{Text: CannedResponse(IntentGeneral), Generator: RuleBasedName}
}

func sources(intent string, docs []Match) []string {
	if len(docs) == 0 {
		return SourcesFor(intent)
	}
	seen := make(map[string]bool)
	var out []string
	for _, d := range docs {
		if !seen[d.Source] {
			seen[d.Source] = true
			out = append(out, d.Source)
		}
	}
	return out
}

// BuildPrompt writes the generator prompt for msg.
func BuildPrompt(msg string, req ChatRequest, intent string, docs []Match) string {
	userType := req.UserType
	if userType == "" {
		userType = "beginner"
	}
	age := req.Age
	if age == 0 {
		age = 25
	}
	location := req.Location
	if location == "" {
		location = "India"
	}

	var b strings.Builder
	b.WriteString("You are JarvisFi, an AI-powered financial genius providing personalized advice to Indian users.\n\n")
	b.WriteString("User Context:\n")
	fmt.Fprintf(&b, "- Type: %s\n", userType)
	fmt.Fprintf(&b, "- Monthly Income: ₹%s\n", currency.FormatIndianWhole(req.MonthlyIncome))
	fmt.Fprintf(&b, "- Age: %d\n", age)
	fmt.Fprintf(&b, "- Location: %s\n", location)
	fmt.Fprintf(&b, "- Query Intent: %s\n\n", intent)
	if len(docs) > 0 {
		b.WriteString("Relevant Guidelines:\n")
		for _, d := range docs {
			fmt.Fprintf(&b, "[%s] %s\n", d.Source, d.Content)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "User Query: %s\n\n", msg)
	b.WriteString(`Provide helpful, accurate, and personalized financial advice considering:
1. Indian financial regulations and tax laws
2. User's income level and life stage
3. Cultural and regional factors
4. Risk tolerance based on user type
5. Practical, actionable recommendations

Keep the response conversational, encouraging, and easy to understand.
Include specific numbers, percentages, or amounts where relevant.
Mention relevant Indian financial instruments (PPF, ELSS, NSC, etc.) when appropriate.
`)
	return b.String()
}
