package main

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/user/jarvisfi-go/admin"
	"github.com/user/jarvisfi-go/advisor"
	"github.com/user/jarvisfi-go/apperror"
	"github.com/user/jarvisfi-go/auth"
	"github.com/user/jarvisfi-go/background"
	"github.com/user/jarvisfi-go/cache"
	"github.com/user/jarvisfi-go/community"
	"github.com/user/jarvisfi-go/config"
	"github.com/user/jarvisfi-go/currency"
	"github.com/user/jarvisfi-go/db"
	_ "github.com/user/jarvisfi-go/docs"
	"github.com/user/jarvisfi-go/farmer"
	"github.com/user/jarvisfi-go/finance"
	"github.com/user/jarvisfi-go/health"
	"github.com/user/jarvisfi-go/httpclient"
	"github.com/user/jarvisfi-go/metrics"
	"github.com/user/jarvisfi-go/middleware"
	"github.com/user/jarvisfi-go/notify"
	"github.com/user/jarvisfi-go/profile"
	"github.com/user/jarvisfi-go/security"
	"github.com/user/jarvisfi-go/users"
	"github.com/user/jarvisfi-go/voice"
)

const (
	shutdownTimeout = 30 * time.Second
	rateBase        = "INR"

	cibilURL    = "https://api.cibil.com/v1"
	experianURL = "https://api.experian.com/v1"
	weatherURL  = "https://api.openweathermap.org"
)

// server holds every component serve wires together.
type server struct {
	cfg *config.AppConfig
	log *zap.Logger

	pool        *pgxpool.Pool
	redis       *redis.Client
	cache       *cache.Manager
	limiter     cache.Limiter
	sec         *security.Manager
	broadcaster *notify.Broadcaster
	scheduler   *background.Scheduler

	auth      *auth.AuthService
	users     *users.UserService
	converter *currency.Converter
	credit    *finance.CreditScoreService
	weather   *farmer.WeatherService
	engine    *advisor.Engine
	voice     *voice.Processor
	community *community.Service
}

func serveAction(c *cli.Context) error {
	cfg, logger, err := environment()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cfg.DB.MigrateOnStart {
		if err := db.RunMigrations(cfg.DB, logger); err != nil {
			return err
		}
	}

	s, err := newServer(c.Context, cfg, logger)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.scheduleJobs(); err != nil {
		return err
	}
	s.scheduler.Start()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// No WriteTimeout: the notification stream stays open. Other routes
		// are bounded by the Timeout middleware.
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("environment", cfg.App.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-c.Context.Done():
	}

	logger.Info("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.scheduler.Stop(ctx); err != nil {
		logger.Warn("scheduler did not stop cleanly", zap.Error(err))
	}
	// Streams end when the broadcaster closes; Shutdown would otherwise wait
	// for them until the deadline.
	s.broadcaster.Close()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	logger.Info("server stopped gracefully")
	return nil
}

func newServer(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (*server, error) {
	s := &server{cfg: cfg, log: log}

	pool, err := db.NewPool(cfg.DB)
	if err != nil {
		return nil, err
	}
	s.pool = pool

	if cfg.Redis.URL != "" {
		client, err := cache.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			// The cache is optional; without it reads miss and limits are
			// tracked in process.
			log.Warn("redis unavailable, continuing without cache", zap.Error(err))
		} else {
			s.redis = client
		}
	}
	s.cache = cache.NewManager(s.redis, cfg.Redis.CacheTTL, log)
	s.limiter = cache.NewLimiter(s.redis, log)

	s.sec, err = security.NewManager(*cfg.Auth)
	if err != nil {
		s.close()
		return nil, err
	}
	s.broadcaster = notify.NewBroadcaster(log)
	s.scheduler = background.NewScheduler(background.DefaultJobTimeout, log)

	s.auth = auth.NewAuthService(auth.NewPgStore(pool), s.sec, security.NewAuditLogger(log), log)
	s.users = users.NewUserService(users.NewPgStore(pool), s.sec, cfg.App.Version, log)

	opts := httpclient.Options{Timeout: cfg.Integrations.HTTPTimeout}
	in := cfg.Integrations

	s.converter = currency.NewConverter(currency.DefaultProviders(in.ExchangeRateAPIKey, in.FixerAPIKey, opts, log), s.cache, log)

	var bureaus []finance.Bureau
	if in.CIBILAPIKey != "" {
		bureaus = append(bureaus, finance.NewHTTPBureau("cibil", cibilURL, in.CIBILAPIKey, httpclient.New("cibil", opts, log)))
	}
	if in.ExperianAPIKey != "" {
		bureaus = append(bureaus, finance.NewHTTPBureau("experian", experianURL, in.ExperianAPIKey, httpclient.New("experian", opts, log)))
	}
	s.credit = finance.NewCreditScoreService(log, bureaus...)

	if cfg.Features.FarmerTools {
		var provider farmer.WeatherProvider
		if in.WeatherAPIKey != "" {
			provider = farmer.NewOpenWeatherMap(weatherURL, in.WeatherAPIKey, httpclient.New("openweathermap", opts, log))
		}
		s.weather = farmer.NewWeatherService(provider, s.cache, log)
	}

	var generators []advisor.Generator
	if cfg.Features.AIGeneration {
		if in.OpenAIAPIKey != "" {
			generators = append(generators, advisor.NewOpenAIGenerator(in.OpenAIBaseURL, in.OpenAIAPIKey, in.OpenAIModel,
				httpclient.New("openai", opts, log)))
		}
		if in.WatsonxAPIKey != "" && in.WatsonxProjectID != "" {
			generators = append(generators, advisor.NewWatsonxGenerator(advisor.WatsonxConfig{
				URL:       in.WatsonxURL,
				APIKey:    in.WatsonxAPIKey,
				ProjectID: in.WatsonxProjectID,
			}, httpclient.New("watsonx", opts, log)))
		}
	}
	var kb *advisor.KnowledgeBase
	if cfg.Features.RAG {
		kb = advisor.NewKnowledgeBase()
	}
	s.engine = advisor.NewEngine(generators, kb, s.cache, advisor.Options{
		CacheTTL:           cfg.Redis.AIResponseCacheTTL,
		SupportedLanguages: cfg.App.SupportedLanguages,
		DefaultLanguage:    cfg.App.DefaultLanguage,
	}, log)

	if cfg.Features.Voice {
		var (
			stt []voice.Transcriber
			tts []voice.Synthesizer
		)
		if in.STTURL != "" {
			stt = append(stt, voice.NewHTTPTranscriber(in.STTURL, httpclient.New("stt", opts, log)))
		}
		if in.TTSURL != "" {
			tts = append(tts, voice.NewHTTPSynthesizer(in.TTSURL, httpclient.New("tts", opts, log)))
		}
		s.voice = voice.NewProcessor(stt, tts, log)
	}

	if cfg.Features.Community {
		s.community = community.NewService(community.NewPgStore(pool), s.broadcaster, log)
	}
	return s, nil
}

func (s *server) scheduleJobs() error {
	sc := s.cfg.Scheduler
	jobs := []background.Job{
		background.SessionCleanup(sc.SessionCleanupCron, s.auth),
		background.ActivityPurge(sc.ActivityPurgeCron, sc.ActivityRetention, s.users),
		background.RateRefresh(sc.RateRefreshCron, rateBase, s.converter),
	}
	for _, job := range jobs {
		if err := s.scheduler.Add(job); err != nil {
			return apperror.NewConfigError("invalid schedule for "+job.Name, err)
		}
	}
	return nil
}

func (s *server) routes() http.Handler {
	cfg := s.cfg
	requireAuth := auth.JWTMiddleware(s.sec, s.auth)
	optionalAuth := auth.OptionalJWT(s.sec, s.auth)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recoverer(s.log))
	r.Use(middleware.RequestLogger(s.log))
	r.Use(middleware.ProcessTime(cfg.Server.SlowRequestThreshold, s.log))
	r.Use(security.SecureHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type", admin.APIKeyHeader},
		ExposedHeaders:   []string{"X-Process-Time", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.checker().RegisterRoutes(r)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/routes", routeList(r))
	r.Get("/swagger/*", swaggerUI())

	rl := cfg.RateLimit
	windows := cache.StandardWindows(rl.PerMinute, rl.PerHour, rl.PerDay)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.RateLimit(s.limiter, windows))

		// Long-lived; kept outside the timeout and compression group.
		api.Group(func(r chi.Router) {
			r.Use(requireAuth)
			notify.NewHandlers(s.broadcaster, s.log).RegisterRoutes(r)
		})

		api.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(cfg.Server.RequestTimeout))
			r.Use(chimw.Compress(5))

			r.Route("/auth", func(r chi.Router) {
				auth.NewHandlers(s.auth).RegisterRoutes(r, requireAuth)
			})
			r.Route("/users", func(r chi.Router) {
				r.Use(requireAuth)
				users.NewUserHandlers(s.users).RegisterRoutes(r)
			})
			r.Route("/profile", func(r chi.Router) {
				profile.NewHandlers(s.users).RegisterRoutes(r, requireAuth)
			})
			r.Route("/financial", func(r chi.Router) {
				r.Use(optionalAuth)
				finance.NewHandlers(s.credit, s.broadcaster).RegisterRoutes(r)
				r.Route("/currency", currency.NewHandlers(s.converter).RegisterRoutes)
			})
			r.Group(func(r chi.Router) {
				r.Use(optionalAuth)
				advisor.NewHandlers(s.engine).RegisterRoutes(r)
			})
			if s.weather != nil {
				r.Route("/farmer", farmer.NewHandlers(s.weather).RegisterRoutes)
			}
			if s.voice != nil {
				voice.NewHandlers(s.voice).RegisterRoutes(r)
			}
			if s.community != nil {
				r.Group(func(r chi.Router) {
					r.Use(requireAuth)
					community.NewHandlers(s.community).RegisterRoutes(r)
				})
			}
			admin.NewHandlers(admin.Deps{
				Cache:      s.cache,
				RateLimits: cfg.RateLimit,
				Streams:    s.broadcaster,
				Knowledge:  s.engine.KnowledgeBase(),
				Jobs:       s.scheduler,
				Generators: s.engine.Generators(),
				Users:      s.users,
			}, cfg.Auth.AdminAPIKey, s.log).RegisterRoutes(r)
		})
	})
	return r
}

func (s *server) checker() *health.Checker {
	c := health.NewChecker(health.AppInfo{
		Name:        s.cfg.App.Name,
		Version:     s.cfg.App.Version,
		Environment: s.cfg.App.Environment,
		Description: "Multilingual personal finance assistant",
	}, health.DefaultTimeout, s.log)

	c.Register("database", s.pool.Ping)
	if s.cache.Enabled() {
		c.Register("cache", s.cache.Ping)
	} else {
		c.Register("cache", nil)
	}
	if gens := s.engine.Generators(); len(gens) > 1 {
		c.Register("ai", func(context.Context) error { return nil })
	} else {
		c.Register("ai", nil)
	}
	return c
}

// swaggerUI serves the Swagger UI and the registered OpenAPI document.
func swaggerUI() http.HandlerFunc {
	return httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json"))
}

// routeList answers GET /routes with every mounted method and pattern.
func routeList(router chi.Routes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var out []string
		err := chi.Walk(router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
			out = append(out, method+" "+strings.Replace(route, "/*/", "/", -1))
			return nil
		})
		if err != nil {
			apperror.WriteError(w, r, apperror.NewInternalError("failed to list routes", err))
			return
		}
		sort.Strings(out)
		apperror.WriteJSON(w, http.StatusOK, map[string][]string{"routes": out})
	}
}

// close releases the pools. It is safe on a partially built server.
func (s *server) close() {
	if s.broadcaster != nil {
		s.broadcaster.Close()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.log.Warn("error closing redis", zap.Error(err))
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
}
