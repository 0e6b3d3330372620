// Package app wires the console's adapters and services from configuration.
// Both the gateway and the terminal client start from here.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/agridynamic/admin-console/internal/api/handler"
	"github.com/agridynamic/admin-console/internal/api/metrics"
	"github.com/agridynamic/admin-console/internal/core/domain"
	"github.com/agridynamic/admin-console/internal/core/ports"
	"github.com/agridynamic/admin-console/internal/core/service"
	"github.com/agridynamic/admin-console/internal/infrastructure/backend"
	"github.com/agridynamic/admin-console/internal/infrastructure/config"
	"github.com/agridynamic/admin-console/internal/infrastructure/db/redis"
	"github.com/agridynamic/admin-console/internal/infrastructure/imaging"
	"github.com/agridynamic/admin-console/internal/infrastructure/messaging"
	"github.com/agridynamic/admin-console/internal/infrastructure/queue"
	"github.com/agridynamic/admin-console/internal/infrastructure/render"
	"github.com/agridynamic/admin-console/internal/infrastructure/resilience"
	"github.com/agridynamic/admin-console/internal/infrastructure/store"
)

const requestTimeout = 15 * time.Second

// App holds the wired services.
type App struct {
	Sessions   *service.SessionService
	Articles   *service.ResourceController[domain.Article]
	Enquiries  *service.ResourceController[domain.Enquiry]
	Partners   *service.ResourceController[domain.Partner]
	Volunteers *service.ResourceController[domain.Volunteer]
	Catalog    *service.Catalog

	client  *backend.Client
	redis   *goredis.Client
	closers []func()
}

// New builds the console from cfg. Events are published only when AMQP_URL is
// set; an unreachable broker is logged and skipped.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{}

	tokens, err := a.tokenStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	var sessions *service.SessionService
	a.client = backend.NewClient(backend.Options{
		BaseURL:    cfg.API.BaseURL,
		HTTPClient: &http.Client{Timeout: requestTimeout},
		Limiter:    rate.NewLimiter(rate.Limit(cfg.API.RateLimit), cfg.API.RateBurst),
		Breaker: resilience.NewCircuitBreaker("content-backend", resilience.BreakerConfig{
			MaxFailures:  cfg.API.MaxFailures,
			OpenTimeout:  cfg.API.BreakerTimeout,
			IsSuccessful: func(err error) bool { return !backend.IsTransportFailure(err) },
		}, log),
		Token:    func() string { return sessions.Token() },
		Observer: metrics.Upstream{},
	}, log.With().Str("component", "backend").Logger())

	sessions = service.NewSessionService(tokens, backend.NewAuth(a.client), log.With().Str("component", "session").Logger())
	sessions.Subscribe(metrics.ObserveSession)
	a.Sessions = sessions

	opts := []service.ControllerOption{
		service.WithImageOptimizer(imaging.NewFitter(cfg.Images.MaxWidth, cfg.Images.MaxHeight)),
	}
	if pub := a.publisher(ctx, cfg, log); pub != nil {
		opts = append(opts, service.WithPublisher(pub))
	}

	articles := backend.NewArticles(a.client)
	a.Articles = service.NewResourceController(service.ArticleDefinition(), articles, log, opts...)
	a.Enquiries = service.NewResourceController(service.EnquiryDefinition(), backend.NewResource[domain.Enquiry](a.client, service.ResourceEnquiries), log, opts...)
	a.Partners = service.NewResourceController(service.PartnerDefinition(), backend.NewResource[domain.Partner](a.client, service.ResourcePartners), log, opts...)
	a.Volunteers = service.NewResourceController(service.VolunteerDefinition(), backend.NewResource[domain.Volunteer](a.client, service.ResourceVolunteers), log, opts...)
	a.Catalog = service.NewCatalog(articles, render.NewMarkdown(), log.With().Str("component", "catalog").Logger())

	return a, nil
}

func (a *App) tokenStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.TokenStore, error) {
	if cfg.Token.Store != "redis" {
		return store.NewFileTokenStore(cfg.Token.File, cfg.Token.Key), nil
	}
	client, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		return nil, fmt.Errorf("token store: %w", err)
	}
	log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")
	a.redis = client
	a.closers = append(a.closers, func() { _ = client.Close() })
	return redis.NewTokenStore(client, cfg.Token.Key), nil
}

func (a *App) publisher(ctx context.Context, cfg *config.Config, log zerolog.Logger) ports.ContentEventPublisher {
	if cfg.AMQP.URL == "" {
		return nil
	}
	broker, err := messaging.NewRabbitMQBroker(cfg.AMQP.URL, cfg.AMQP.Queue, log)
	if err != nil {
		log.Warn().Err(err).Msg("content events disabled: broker unreachable")
		return nil
	}
	log.Info().Str("queue", cfg.AMQP.Queue).Msg("connected to RabbitMQ")

	workerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	d := queue.NewDispatcher(0, broker, log.With().Str("component", "events").Logger())
	d.Start(workerCtx)
	a.closers = append(a.closers, func() {
		d.Close()
		cancel()
		_ = broker.Close()
	})
	return d
}

// Readiness lists the dependency probes for /health/ready.
func (a *App) Readiness() map[string]handler.Checker {
	checks := map[string]handler.Checker{"backend": a.client.Ping}
	if a.redis != nil {
		rdb := a.redis
		checks["redis"] = func(ctx context.Context) error { return redis.Ping(ctx, rdb) }
	}
	return checks
}

// Close releases connections in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
