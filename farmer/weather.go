package farmer

import (
	"context"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/user/jarvisfi-go/cache"
	"github.com/user/jarvisfi-go/httpclient"
	"github.com/user/jarvisfi-go/metrics"
)

const weatherTTL = 30 * time.Minute

// Conditions is the current weather for a region.
type Conditions struct {
	Summary     string  `json:"summary"`
	TempC       float64 `json:"temp_c"`
	Humidity    float64 `json:"humidity"`
	RainMM      float64 `json:"rain_mm_1h"`
	WindSpeedMS float64 `json:"wind_speed_ms"`
}

// WeatherProvider fetches current conditions.
type WeatherProvider interface {
	Current(ctx context.Context, region string) (*Conditions, error)
}

type owmResponse struct {
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Rain struct {
		OneHour float64 `json:"1h"`
	} `json:"rain"`
}

// OpenWeatherMap queries the current-weather endpoint.
type OpenWeatherMap struct {
	baseURL string
	apiKey  string
	client  *httpclient.Client
}

// NewOpenWeatherMap creates a provider for baseURL (normally
// https://api.openweathermap.org).
func NewOpenWeatherMap(baseURL, apiKey string, client *httpclient.Client) *OpenWeatherMap {
	return &OpenWeatherMap{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, client: client}
}

func (o *OpenWeatherMap) Current(ctx context.Context, region string) (*Conditions, error) {
	q := url.Values{"q": {region}, "appid": {o.apiKey}, "units": {"metric"}}
	var resp owmResponse
	if err := o.client.GetJSON(ctx, o.baseURL+"/data/2.5/weather?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	c := &Conditions{
		TempC:       resp.Main.Temp,
		Humidity:    resp.Main.Humidity,
		RainMM:      resp.Rain.OneHour,
		WindSpeedMS: resp.Wind.Speed,
	}
	if len(resp.Weather) > 0 {
		c.Summary = resp.Weather[0].Description
	}
	return c, nil
}

// WeatherAlert is a weather event with its financial impact.
type WeatherAlert struct {
	Type            string `json:"type"`
	Severity        string `json:"severity"`
	FinancialImpact string `json:"financial_impact"`
	ActionRequired  string `json:"action_required"`
}

// Forecast is the seasonal outlook.
type Forecast struct {
	Monsoon string `json:"monsoon_prediction"`
	Advice  string `json:"financial_advice"`
}

// WeatherReport answers GET /weather.
type WeatherReport struct {
	Region     string         `json:"region"`
	Conditions *Conditions    `json:"conditions,omitempty"`
	Alerts     []WeatherAlert `json:"current_alerts"`
	Forecast   Forecast       `json:"seasonal_forecast"`
	Source     string         `json:"source"`
}

// Source values for weather reports.
const (
	SourceLive     = "live"
	SourceFallback = "fallback"
)

// WeatherService turns live conditions into farming alerts. Without a
// provider it serves a fixed demo report.
type WeatherService struct {
	provider WeatherProvider
	cache    *cache.Manager
	log      *zap.Logger
}

// NewWeatherService creates the service. provider may be nil.
func NewWeatherService(provider WeatherProvider, cm *cache.Manager, log *zap.Logger) *WeatherService {
	return &WeatherService{provider: provider, cache: cm, log: log.With(zap.String("module", "weather"))}
}

func demoReport(region, source string) *WeatherReport {
	return &WeatherReport{
		Region: region,
		Alerts: []WeatherAlert{{
			Type:            "Heavy Rainfall",
			Severity:        "High",
			FinancialImpact: "Potential crop damage, consider insurance claims",
			ActionRequired:  "Document crop condition, contact insurance company",
		}},
		Forecast: normalForecast,
		Source:   source,
	}
}

var normalForecast = Forecast{
	Monsoon: "Normal",
	Advice:  "Plan for normal crop yields, maintain standard investment",
}

// WeatherAlerts reports on region. Provider failures degrade to the demo
// report marked as a fallback.
func (s *WeatherService) WeatherAlerts(ctx context.Context, region string) *WeatherReport {
	region = strings.TrimSpace(region)
	if region == "" {
		region = "India"
	}
	if s.provider == nil {
		return demoReport(region, SourceDemo)
	}

	cond, err := cache.Remember(ctx, s.cache, cache.Key("weather", strings.ToLower(region)), weatherTTL,
		func(ctx context.Context) (*Conditions, error) { return s.provider.Current(ctx, region) })
	if err != nil {
		s.log.Warn("weather lookup failed", zap.String("region", region), zap.Error(err))
		metrics.Fallbacks.WithLabelValues("weather").Inc()
		return demoReport(region, SourceFallback)
	}
	return &WeatherReport{
		Region:     region,
		Conditions: cond,
		Alerts:     alertsFor(cond),
		Forecast:   normalForecast,
		Source:     SourceLive,
	}
}

func alertsFor(c *Conditions) []WeatherAlert {
	out := []WeatherAlert{}
	if c.RainMM >= 10 {
		out = append(out, WeatherAlert{"Heavy Rainfall", "High",
			"Potential crop damage, consider insurance claims",
			"Document crop condition, contact insurance company"})
	}
	if c.TempC >= 40 {
		out = append(out, WeatherAlert{"Heatwave", "High",
			"Yield loss from heat stress, higher irrigation costs",
			"Irrigate in the evening and check PMFBY coverage"})
	}
	if c.WindSpeedMS >= 15 {
		out = append(out, WeatherAlert{"Strong Winds", "Medium",
			"Lodging of standing crops",
			"Harvest mature crops early where possible"})
	}
	if c.Humidity >= 85 {
		out = append(out, WeatherAlert{"High Humidity", "Medium",
			"Higher pest and fungal disease risk, extra spraying costs",
			"Inspect crops and budget for plant protection"})
	}
	return out
}
