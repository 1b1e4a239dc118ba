package currency

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/jarvisfi-go/apperror"
	"github.com/user/jarvisfi-go/cache"
	"github.com/user/jarvisfi-go/httpclient"
)

func TestFormatIndian(t *testing.T) {
	cases := map[float64]string{
		0:           "0.00",
		999:         "999.00",
		1000:        "1,000.00",
		100000:      "1,00,000.00",
		1234567.891: "12,34,567.89",
		12345678.9:  "1,23,45,678.90",
		-250000.5:   "-2,50,000.50",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatIndian(in), "%v", in)
	}
	assert.Equal(t, "1,50,000", FormatIndianWhole(149999.6))
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "₹1,00,000.00", FormatCurrency(100000, "INR"))
	assert.Equal(t, "-₹500.00", FormatCurrency(-500, "inr"))
	assert.Equal(t, "$1,234.50", FormatCurrency(1234.5, "USD"))
	assert.Equal(t, "€100,000.00", FormatCurrency(100000, "EUR"))
	assert.Equal(t, "XYZ5.00", FormatCurrency(5, "XYZ"))
}

func fastClient(name string) *httpclient.Client {
	return httpclient.New(name, httpclient.Options{
		Timeout:         time.Second,
		MaxAttempts:     1,
		InitialInterval: time.Millisecond,
	}, zap.NewNop())
}

func rateServer(t *testing.T, calls *int32, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		_, _ = w.Write([]byte(`{"base":"USD","rates":{"INR":83.5,"EUR":0.92}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestConvertCascadesAndCaches(t *testing.T) {
	var failing, working int32
	bad := rateServer(t, &failing, http.StatusServiceUnavailable)
	good := rateServer(t, &working, http.StatusOK)

	conv := NewConverter([]Provider{
		NewExchangeRateAPI(bad.URL, "", fastClient("primary")),
		NewOpenER(good.URL, fastClient("secondary")),
	}, cache.NewManager(nil, time.Hour, zap.NewNop()), zap.NewNop())

	res, err := conv.Convert(context.Background(), 100, "usd", "INR")
	require.NoError(t, err)
	assert.Equal(t, 83.5, res.Rate)
	assert.Equal(t, 8350.0, res.Result)
	assert.Equal(t, "open-er-api", res.Source)
	assert.Equal(t, "₹8,350.00", res.Formatted)

	_, err = conv.Convert(context.Background(), 1, "USD", "EUR")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&working), "second lookup is served from memory")
	assert.Equal(t, int32(1), atomic.LoadInt32(&failing))
}

func TestConvertUsesSharedCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cm := cache.NewManager(client, time.Hour, zap.NewNop())

	var calls int32
	srv := rateServer(t, &calls, http.StatusOK)
	first := NewConverter([]Provider{NewExchangeRateAPI(srv.URL, "", fastClient("p"))}, cm, zap.NewNop())
	require.NoError(t, first.Warm(context.Background(), "USD"))
	assert.True(t, mr.Exists("exchange_rates:USD"))

	second := NewConverter(nil, cm, zap.NewNop())
	rate, source := second.Rate(context.Background(), "USD", "INR")
	assert.Equal(t, 83.5, rate)
	assert.Equal(t, "exchangerate-api", source)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestExchangeRateAPIKey(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = w.Write([]byte(`{"result":"success","base_code":"USD","conversion_rates":{"INR":83.25}}`))
	}))
	t.Cleanup(srv.Close)

	rates, err := NewExchangeRateAPI(srv.URL, "secret-key", fastClient("keyed")).Rates(context.Background(), "USD")
	require.NoError(t, err)
	assert.Equal(t, "/v6/secret-key/latest/USD", path)
	assert.Equal(t, 83.25, rates["INR"])

	names := func(ps []Provider) []string {
		out := []string{}
		for _, p := range ps {
			out = append(out, p.Name())
		}
		return out
	}
	opts := httpclient.Options{Timeout: time.Second}
	assert.Equal(t, []string{"exchangerate-api", "open-er-api"}, names(DefaultProviders("key", "", opts, zap.NewNop())))
	assert.Equal(t, []string{"exchangerate-api", "fixer", "open-er-api"}, names(DefaultProviders("", "fx", opts, zap.NewNop())))
}

func TestConvertFallbacks(t *testing.T) {
	conv := NewConverter(nil, cache.NewManager(nil, time.Hour, zap.NewNop()), zap.NewNop())

	res, err := conv.Convert(context.Background(), 10, "USD", "INR")
	require.NoError(t, err)
	assert.Equal(t, 83.0, res.Rate)
	assert.Equal(t, 830.0, res.Result)
	assert.Equal(t, SourceFallback, res.Source)

	res, err = conv.Convert(context.Background(), 10, "JPY", "AUD")
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Rate)
	assert.Equal(t, SourceFallback, res.Source)

	res, err = conv.Convert(context.Background(), 42, "INR", "INR")
	require.NoError(t, err)
	assert.Equal(t, 42.0, res.Result)

	require.Error(t, conv.Warm(context.Background(), "USD"))
}

func TestConvertValidation(t *testing.T) {
	conv := NewConverter(nil, cache.NewManager(nil, time.Hour, zap.NewNop()), zap.NewNop())
	_, err := conv.Convert(context.Background(), -1, "USD", "INR")
	assert.Error(t, err)
	_, err = conv.Convert(context.Background(), math.NaN(), "USD", "INR")
	assert.True(t, apperror.IsValidationError(err))
	_, err = conv.Convert(context.Background(), 1, "US", "INR")
	assert.Error(t, err)
	_, err = conv.Convert(context.Background(), 1, "USD", "1NR")
	assert.Error(t, err)
}

func TestHandlers(t *testing.T) {
	conv := NewConverter(nil, cache.NewManager(nil, time.Hour, zap.NewNop()), zap.NewNop())
	r := chi.NewRouter()
	NewHandlers(conv).RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/convert?amount=2&from=GBP&to=INR", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var c Conversion
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Equal(t, 210.0, c.Result)

	for _, amount := range []string{"abc", "NaN", "Inf", "-Inf"} {
		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/convert?amount="+amount+"&from=USD&to=INR", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, amount)
		assert.Contains(t, rec.Body.String(), `"amount"`, amount)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/popular", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var infos []Info
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infos))
	assert.Len(t, infos, 10)
	assert.Equal(t, "₹", infos[3].Symbol)
}
