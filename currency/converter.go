// Package currency converts between currencies through a cascade of rate
// providers and formats amounts for display.
package currency

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/user/jarvisfi-go/apperror"
	"github.com/user/jarvisfi-go/cache"
	"github.com/user/jarvisfi-go/httpclient"
	"github.com/user/jarvisfi-go/metrics"
	"github.com/user/jarvisfi-go/security"
)

// SourceFallback marks a conversion made with a built-in rate.
const SourceFallback = "fallback"

const rateTTL = time.Hour

var fallbackRates = map[[2]string]float64{
	{"USD", "INR"}: 83.0,
	{"EUR", "INR"}: 90.0,
	{"GBP", "INR"}: 105.0,
	{"INR", "USD"}: 0.012,
	{"INR", "EUR"}: 0.011,
	{"INR", "GBP"}: 0.0095,
}

// Provider returns every rate quoted against base.
type Provider interface {
	Name() string
	Rates(ctx context.Context, base string) (map[string]float64, error)
}

// ratesResponse covers both the keyless "rates" table and the keyed
// exchangerate-api "conversion_rates" one.
type ratesResponse struct {
	Rates           map[string]float64 `json:"rates"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

type httpProvider struct {
	name   string
	urlFor func(base string) string
	client *httpclient.Client
}

func (p *httpProvider) Name() string { return p.name }

func (p *httpProvider) Rates(ctx context.Context, base string) (map[string]float64, error) {
	var out ratesResponse
	if err := p.client.GetJSON(ctx, p.urlFor(base), nil, &out); err != nil {
		return nil, err
	}
	rates := out.Rates
	if len(rates) == 0 {
		rates = out.ConversionRates
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("%s: empty rate table for %s", p.name, base)
	}
	return rates, nil
}

// NewExchangeRateAPI queries {baseURL}/v4/latest/{base}, or the keyed
// {baseURL}/v6/{apiKey}/latest/{base} when apiKey is set.
func NewExchangeRateAPI(baseURL, apiKey string, client *httpclient.Client) Provider {
	baseURL = strings.TrimRight(baseURL, "/")
	return &httpProvider{name: "exchangerate-api", client: client, urlFor: func(base string) string {
		if apiKey != "" {
			return baseURL + "/v6/" + url.PathEscape(apiKey) + "/latest/" + url.PathEscape(base)
		}
		return baseURL + "/v4/latest/" + url.PathEscape(base)
	}}
}

// NewFixer queries {baseURL}/api/latest with an access key.
func NewFixer(baseURL, accessKey string, client *httpclient.Client) Provider {
	baseURL = strings.TrimRight(baseURL, "/")
	return &httpProvider{name: "fixer", client: client, urlFor: func(base string) string {
		q := url.Values{"access_key": {accessKey}, "base": {base}}
		return baseURL + "/api/latest?" + q.Encode()
	}}
}

// NewOpenER queries {baseURL}/v6/latest/{base}.
func NewOpenER(baseURL string, client *httpclient.Client) Provider {
	baseURL = strings.TrimRight(baseURL, "/")
	return &httpProvider{name: "open-er-api", client: client, urlFor: func(base string) string {
		return baseURL + "/v6/latest/" + url.PathEscape(base)
	}}
}

// DefaultProviders builds the public cascade. An exchangerate-api key
// switches that provider to its keyed v6 host; Fixer is included only with
// a key.
func DefaultProviders(exchangeRateKey, fixerKey string, opts httpclient.Options, log *zap.Logger) []Provider {
	exchangeRateURL := "https://api.exchangerate-api.com"
	if exchangeRateKey != "" {
		exchangeRateURL = "https://v6.exchangerate-api.com"
	}
	providers := []Provider{
		NewExchangeRateAPI(exchangeRateURL, exchangeRateKey, httpclient.New("exchangerate-api", opts, log)),
	}
	if fixerKey != "" {
		providers = append(providers, NewFixer("http://data.fixer.io", fixerKey, httpclient.New("fixer", opts, log)))
	}
	return append(providers, NewOpenER("https://open.er-api.com", httpclient.New("open-er-api", opts, log)))
}

// Conversion is the result of Convert.
type Conversion struct {
	Amount    float64   `json:"amount"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Rate      float64   `json:"rate"`
	Result    float64   `json:"result"`
	Formatted string    `json:"formatted"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

type rateTable struct {
	Rates     map[string]float64 `json:"rates"`
	Source    string             `json:"source"`
	FetchedAt time.Time          `json:"fetched_at"`
}

// Converter resolves rates from memory, then the shared cache, then the
// providers in order, then the fallback table.
type Converter struct {
	providers []Provider
	cache     *cache.Manager
	log       *zap.Logger
	now       func() time.Time

	mu     sync.RWMutex
	tables map[string]rateTable
}

// NewConverter creates a Converter.
func NewConverter(providers []Provider, cm *cache.Manager, log *zap.Logger) *Converter {
	return &Converter{
		providers: providers,
		cache:     cm,
		log:       log.With(zap.String("module", "currency")),
		now:       time.Now,
		tables:    make(map[string]rateTable),
	}
}

func normalizeCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", apperror.NewValidationError("currency codes are three letters", nil).
			WithDetails(map[string]string{"currency": "len=3"})
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", apperror.NewValidationError("currency codes are three letters", nil).
				WithDetails(map[string]string{"currency": "alpha"})
		}
	}
	return code, nil
}

// Convert converts amount from one currency to another.
func (c *Converter) Convert(ctx context.Context, amount float64, from, to string) (*Conversion, error) {
	if !security.Finite(amount) {
		return nil, apperror.NewValidationError("amount must be a finite number", nil).
			WithDetails(map[string]string{"amount": "finite"})
	}
	if amount < 0 {
		return nil, apperror.NewValidationError("amount cannot be negative", nil).
			WithDetails(map[string]string{"amount": "gte=0"})
	}
	from, err := normalizeCode(from)
	if err != nil {
		return nil, err
	}
	to, err = normalizeCode(to)
	if err != nil {
		return nil, err
	}

	rate, source := c.Rate(ctx, from, to)
	result := math.Round(amount*rate*1e4) / 1e4
	return &Conversion{
		Amount:    amount,
		From:      from,
		To:        to,
		Rate:      rate,
		Result:    result,
		Formatted: FormatCurrency(result, to),
		Source:    source,
		Timestamp: c.now().UTC(),
	}, nil
}

// Rate returns the rate from -> to and where it came from. It never fails;
// unknown pairs get the fallback table or 1.0.
func (c *Converter) Rate(ctx context.Context, from, to string) (float64, string) {
	if from == to {
		return 1, "identity"
	}
	if table, ok := c.table(ctx, from); ok {
		if r, ok := table.Rates[to]; ok && r > 0 {
			return r, table.Source
		}
	}
	metrics.Fallbacks.WithLabelValues("currency").Inc()
	if r, ok := fallbackRates[[2]string{from, to}]; ok {
		return r, SourceFallback
	}
	return 1, SourceFallback
}

// Warm refreshes the rate table for base from the providers.
func (c *Converter) Warm(ctx context.Context, base string) error {
	base, err := normalizeCode(base)
	if err != nil {
		return err
	}
	_, err = c.fetch(ctx, base)
	return err
}

func (c *Converter) table(ctx context.Context, base string) (rateTable, bool) {
	now := c.now()
	c.mu.RLock()
	t, ok := c.tables[base]
	c.mu.RUnlock()
	if ok && now.Sub(t.FetchedAt) < rateTTL {
		return t, true
	}

	var cached rateTable
	found, err := c.cache.Get(ctx, cache.Key("exchange_rates", base), &cached)
	if err != nil {
		c.log.Warn("rate cache read failed", zap.Error(err))
	}
	if found && len(cached.Rates) > 0 {
		c.remember(base, cached)
		return cached, true
	}

	t, err = c.fetch(ctx, base)
	return t, err == nil
}

func (c *Converter) fetch(ctx context.Context, base string) (rateTable, error) {
	var lastErr error
	for _, p := range c.providers {
		rates, err := p.Rates(ctx, base)
		if err != nil {
			c.log.Warn("rate provider failed", zap.String("provider", p.Name()), zap.Error(err))
			lastErr = err
			continue
		}
		t := rateTable{Rates: rates, Source: p.Name(), FetchedAt: c.now()}
		c.remember(base, t)
		if err := c.cache.Set(ctx, cache.Key("exchange_rates", base), t, rateTTL); err != nil {
			c.log.Warn("rate cache write failed", zap.Error(err))
		}
		return t, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no rate providers configured")
	}
	return rateTable{}, apperror.NewExternalServiceError("exchange rates unavailable", lastErr)
}

func (c *Converter) remember(base string, t rateTable) {
	c.mu.Lock()
	c.tables[base] = t
	c.mu.Unlock()
}

// Info describes a currency offered in the UI.
type Info struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Flag   string `json:"flag"`
}

// PopularCurrencies lists the currencies shown by default.
func PopularCurrencies() []Info {
	return []Info{
		{"USD", "US Dollar", Symbol("USD"), "🇺🇸"},
		{"EUR", "Euro", Symbol("EUR"), "🇪🇺"},
		{"GBP", "British Pound", Symbol("GBP"), "🇬🇧"},
		{"INR", "Indian Rupee", Symbol("INR"), "🇮🇳"},
		{"JPY", "Japanese Yen", Symbol("JPY"), "🇯🇵"},
		{"AUD", "Australian Dollar", Symbol("AUD"), "🇦🇺"},
		{"CAD", "Canadian Dollar", Symbol("CAD"), "🇨🇦"},
		{"CHF", "Swiss Franc", Symbol("CHF"), "🇨🇭"},
		{"CNY", "Chinese Yuan", Symbol("CNY"), "🇨🇳"},
		{"SGD", "Singapore Dollar", Symbol("SGD"), "🇸🇬"},
	}
}
