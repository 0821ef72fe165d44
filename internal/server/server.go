// Package server wires stores, services and handlers into the HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Lixing-Zhang/food-ordering/internal/auth"
	"github.com/Lixing-Zhang/food-ordering/internal/cache"
	"github.com/Lixing-Zhang/food-ordering/internal/cart"
	"github.com/Lixing-Zhang/food-ordering/internal/config"
	"github.com/Lixing-Zhang/food-ordering/internal/events"
	"github.com/Lixing-Zhang/food-ordering/internal/handlers"
	"github.com/Lixing-Zhang/food-ordering/internal/live"
	"github.com/Lixing-Zhang/food-ordering/internal/metrics"
	"github.com/Lixing-Zhang/food-ordering/internal/middleware"
	"github.com/Lixing-Zhang/food-ordering/internal/models"
	"github.com/Lixing-Zhang/food-ordering/internal/repository"
	"github.com/Lixing-Zhang/food-ordering/internal/service"
)

// Version is reported by /health
var Version = "dev"

const (
	requestTimeout  = 60 * time.Second
	cartIdleTTL     = 2 * time.Hour
	housekeepPeriod = 10 * time.Minute
	expectedReviews = 100_000
)

// Backends are the external collaborators the app runs on
type Backends struct {
	Store     repository.Store
	StoreName string
	Cache     cache.Cache
	Publisher events.Publisher
	// Checks are reported by /health
	Checks map[string]handlers.Pinger
	// closers run in reverse order on Close
	closers []func(context.Context) error
}

// OpenBackends connects to the configured store, cache and event broker.
// Whatever was opened before a failure is closed again.
func OpenBackends(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Backends, error) {
	b := &Backends{StoreName: cfg.Store.Driver, Checks: make(map[string]handlers.Pinger)}

	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	b.Store = store
	b.Checks["store"] = store
	b.closers = append(b.closers, store.Close)

	if cfg.Cache.RedisAddr != "" {
		rc, err := cache.NewRedis(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.TTL)
		if err != nil {
			_ = b.Close(context.Background())
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		b.Cache = rc
		b.Checks["cache"] = rc
		b.closers = append(b.closers, func(context.Context) error { return rc.Close() })
		log.Info("catalog cache enabled", "backend", "redis", "addr", cfg.Cache.RedisAddr)
	} else {
		b.Cache = cache.NewMemory(cfg.Cache.TTL)
	}

	if cfg.Events.KafkaBrokers != "" {
		kp, err := events.NewKafkaPublisher(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic, log)
		if err != nil {
			_ = b.Close(context.Background())
			return nil, fmt.Errorf("connect kafka: %w", err)
		}
		b.Publisher = kp
		b.closers = append(b.closers, func(context.Context) error { return kp.Close() })
		log.Info("order events enabled", "backend", "kafka", "topic", cfg.Events.KafkaTopic)
	} else {
		b.Publisher = events.NewLogPublisher(log)
	}

	return b, nil
}

func openStore(ctx context.Context, cfg config.StoreConfig) (repository.Store, error) {
	switch cfg.Driver {
	case "memory":
		return repository.NewMemoryStore(), nil
	case "mongo":
		return repository.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case "postgres", "sqlite":
		return repository.NewSQLStore(cfg.Driver, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// Close releases every backend, newest first
func (b *Backends) Close(ctx context.Context) error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

// App holds the wired services
type App struct {
	cfg     *config.Config
	log     *slog.Logger
	backend *Backends

	Metrics  *metrics.Metrics
	Broker   *live.Broker
	Carts    *cart.Registry
	Auth     *auth.Service
	Catalog  *service.CatalogService
	Reviews  *service.ReviewService
	Cart     *service.CartService
	Checkout *service.CheckoutService
	History  *service.HistoryService
	Owner    *service.OwnerService
	Menu     *service.MenuService
	Profile  *service.ProfileService
}

// New builds every service on top of the given backends
func New(cfg *config.Config, b *Backends, log *slog.Logger) (*App, error) {
	scope, err := service.ParseOrderScope(cfg.Owner.OrderScope)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	broker := live.NewBroker(b.Store, log)
	carts := cart.NewRegistry(cartIdleTTL)
	catalog := service.NewCatalogService(b.Store, b.Cache, log)
	cartSvc := service.NewCartService(carts, b.Store, log)

	authSvc := auth.NewService(b.Store, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, log)
	authSvc.OnLogout(cartSvc.Drop)

	return &App{
		cfg:      cfg,
		log:      log,
		backend:  b,
		Metrics:  m,
		Broker:   broker,
		Carts:    carts,
		Auth:     authSvc,
		Catalog:  catalog,
		Reviews:  service.NewReviewService(b.Store, catalog, m, log, expectedReviews),
		Cart:     cartSvc,
		Checkout: service.NewCheckoutService(b.Store, broker, b.Publisher, m, log),
		History:  service.NewHistoryService(b.Store, broker),
		Owner:    service.NewOwnerService(b.Store, broker, b.Publisher, m, log, scope),
		Menu:     service.NewMenuService(b.Store, catalog, log),
		Profile:  service.NewProfileService(b.Store, m, log),
	}, nil
}

// Start warms the review filter and runs housekeeping until ctx is done
func (a *App) Start(ctx context.Context) error {
	if err := a.Reviews.Warm(ctx); err != nil {
		return fmt.Errorf("warm review filter: %w", err)
	}

	go a.Carts.Run(ctx, housekeepPeriod)
	go func() {
		ticker := time.NewTicker(housekeepPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := a.Auth.PruneRevoked(); n > 0 {
					a.log.Debug("pruned revoked sessions", "count", n)
				}
			}
		}
	}()
	return nil
}

// checkOrigin allows websocket upgrades from the configured CORS origins
func (a *App) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range a.cfg.Server.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// Router assembles the HTTP API
func (a *App) Router() http.Handler {
	log := a.log

	healthHandler := handlers.NewHealthHandler(log, Version, a.backend.StoreName, a.backend.Checks)
	authHandler := handlers.NewAuthHandler(a.Auth, log)
	catalogHandler := handlers.NewCatalogHandler(a.Catalog, a.Reviews, log)
	cartHandler := handlers.NewCartHandler(a.Cart, log)
	checkoutHandler := handlers.NewCheckoutHandler(a.Checkout, a.Cart, log)
	orderHandler := handlers.NewOrderHandler(a.History, a.Metrics, a.checkOrigin, log)
	ownerHandler := handlers.NewOwnerHandler(a.Owner, a.Menu, a.Metrics, a.checkOrigin, log)
	profileHandler := handlers.NewProfileHandler(a.Profile, log)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(a.Metrics.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.ServeHTTP)
	r.Method(http.MethodGet, "/metrics", a.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		// Streams stay open for as long as the client listens, so only the
		// request/response routes get a timeout.
		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.Timeout(requestTimeout))

			r.Post("/auth/signup", authHandler.Signup)
			r.Post("/auth/login", authHandler.Login)
			r.Get("/restaurants", catalogHandler.ListRestaurants)
			r.Get("/restaurants/{restaurantId}", catalogHandler.GetRestaurant)

			r.Group(func(r chi.Router) {
				r.Use(middleware.BearerAuth(a.Auth))

				r.Post("/auth/logout", authHandler.Logout)
				r.Get("/auth/me", authHandler.Me)

				r.Post("/restaurants/{restaurantId}/reviews", catalogHandler.SubmitReview)

				r.Get("/cart", cartHandler.GetCart)
				r.Delete("/cart", cartHandler.ClearCart)
				r.Post("/cart/items", cartHandler.AddItem)
				r.Delete("/cart/items/{itemId}", cartHandler.RemoveItem)

				r.Post("/checkout", checkoutHandler.Checkout)
				r.Get("/orders", orderHandler.ListOrders)

				r.Get("/profile", profileHandler.GetProfile)
				r.Put("/profile", profileHandler.UpdateProfile)
				r.Post("/profile/redeem", profileHandler.Redeem)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(models.RoleOwner))

					r.Get("/owner/menu", ownerHandler.ListMenu)
					r.Post("/owner/menu", ownerHandler.AddMenuItem)
					r.Delete("/owner/menu/{itemId}", ownerHandler.DeleteMenuItem)
					r.Get("/owner/orders", ownerHandler.Dashboard)
					r.Post("/owner/orders/{orderId}/ready", ownerHandler.MarkReady)
				})
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.BearerAuth(a.Auth))

			r.Get("/orders/stream", orderHandler.StreamOrders)
			r.Get("/orders/ws", orderHandler.OrdersSocket)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleOwner))

				r.Get("/owner/orders/stream", ownerHandler.StreamDashboard)
				r.Get("/owner/orders/ws", ownerHandler.DashboardSocket)
			})
		})
	})

	return r
}
