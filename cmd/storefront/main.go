package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/aaravmahajanofficial/storefront/docs"
	"github.com/aaravmahajanofficial/storefront/internal/api/handlers"
	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/config"
	"github.com/aaravmahajanofficial/storefront/internal/health"
	"github.com/aaravmahajanofficial/storefront/internal/httpclient"
	"github.com/aaravmahajanofficial/storefront/internal/metrics"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	service "github.com/aaravmahajanofficial/storefront/internal/services"
	"github.com/aaravmahajanofficial/storefront/internal/session"
	"github.com/aaravmahajanofficial/storefront/internal/storage"
	"github.com/aaravmahajanofficial/storefront/internal/storage/postgres"
	storeRedis "github.com/aaravmahajanofficial/storefront/internal/storage/redis"
	"github.com/aaravmahajanofficial/storefront/internal/telemetry"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

//	@title						Storefront BFF API
//	@version					1.0
//	@description				Session, cart, coupon and checkout endpoints in front of the commerce API.
//	@host						localhost:8080
//	@BasePath					/api/v1

func main() {

	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load config
	cfg := config.MustLoad()

	ctx := context.Background()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Otel, cfg.Env)
	if err != nil {
		slog.Error("❌ Error setting up tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Storage setup
	store, redisClient, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("❌ Error opening storage", slog.String("driver", cfg.Storage.Driver), slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("⚠️ Error closing storage", slog.String("error", err.Error()))
		} else {
			slog.Info("✅ Storage closed")
		}
	}()

	// Commerce API client and sessions. The refresh call goes through the
	// unauthenticated base client so it never waits on itself.
	base := httpclient.New(cfg.API, cfg.Breaker, logger)
	refresher := repository.NewUserRepo(base)

	sessionOpts := session.Options{RefreshTimeout: cfg.API.RefreshTimeout, Logger: logger}
	customer := session.NewCoordinator(session.ScopeCustomer, store, refresher, sessionOpts)
	admin := session.NewCoordinator(session.ScopeAdmin, store, refresher, sessionOpts)
	session.Link(customer, admin)

	if err := customer.Load(ctx); err != nil {
		slog.Warn("⚠️ Could not restore customer session", slog.String("error", err.Error()))
	}
	if err := admin.Load(ctx); err != nil {
		slog.Warn("⚠️ Could not restore admin session", slog.String("error", err.Error()))
	}

	repos := repository.New(base.WithTokenSource(customer))
	adminUsers := repository.NewUserRepo(base.WithTokenSource(admin))

	var limiter service.AttemptLimiter
	if redisClient != nil {
		limiter = storeRedis.NewAttemptLimiter(redisClient, cfg.RateConfig, "coupon_attempts")
	}

	cartService := service.NewCartService(store, cfg.Cart.PersistDebounce, logger)
	if err := cartService.Load(ctx); err != nil {
		slog.Warn("⚠️ Could not restore cart", slog.String("error", err.Error()))
	}

	couponService := service.NewCouponService(repos.Product, store, limiter, logger)
	if err := couponService.Load(ctx); err != nil {
		slog.Warn("⚠️ Could not restore applied coupon", slog.String("error", err.Error()))
	}

	checkoutService := service.NewCheckoutService(cartService, couponService, repos, cfg.Pricing, logger)
	orderService := service.NewOrderService(repos.Order)
	addressService := service.NewAddressService(repos.User)
	authService := service.NewAuthService(service.AuthDeps{
		Users:      repos.User,
		AdminUsers: adminUsers,
		Customer:   customer,
		Admin:      admin,
		Cart:       cartService,
		Coupons:    couponService,
		Logger:     logger,
	})

	sessionHandler := handlers.NewSessionHandler(authService, customer, admin, cfg.PollTimeout)
	cartHandler := handlers.NewCartHandler(cartService, couponService)
	couponHandler := handlers.NewCouponHandler(couponService, cartService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	orderHandler := handlers.NewOrderHandler(orderService)
	addressHandler := handlers.NewAddressHandler(addressService)
	signedIn := middleware.NewSessionMiddleware(customer)

	healthHandler, err := health.NewHealthHandler(cfg, &health.Endpoints{API: base})
	if err != nil {
		slog.Error("❌ Error creating health checks", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("storage initialized", slog.String("env", cfg.Env), slog.String("driver", cfg.Storage.Driver), slog.String("version", "1.0.0"))

	// Setup router
	routerMux := http.NewServeMux()
	routerMux.HandleFunc("POST /api/v1/session/login", sessionHandler.Login())
	routerMux.HandleFunc("POST /api/v1/session/register", sessionHandler.Register())
	routerMux.HandleFunc("POST /api/v1/session/logout", sessionHandler.Logout())
	routerMux.HandleFunc("GET /api/v1/session", sessionHandler.Status())
	routerMux.HandleFunc("GET /api/v1/session/events", sessionHandler.Events())
	routerMux.HandleFunc("GET /api/v1/session/profile", signedIn.RequireSession(sessionHandler.Profile()))
	routerMux.HandleFunc("POST /api/v1/admin/session/login", sessionHandler.AdminLogin())
	routerMux.HandleFunc("GET /api/v1/admin/session", sessionHandler.AdminStatus())
	routerMux.HandleFunc("GET /api/v1/cart", cartHandler.GetCart())
	routerMux.HandleFunc("DELETE /api/v1/cart", cartHandler.ClearCart())
	routerMux.HandleFunc("POST /api/v1/cart/items", cartHandler.AddItem())
	routerMux.HandleFunc("PATCH /api/v1/cart/items/{id}", cartHandler.UpdateQuantity())
	routerMux.HandleFunc("DELETE /api/v1/cart/items/{id}", cartHandler.RemoveItem())
	routerMux.HandleFunc("GET /api/v1/coupons", signedIn.RequireSession(couponHandler.ListCoupons()))
	routerMux.HandleFunc("POST /api/v1/cart/coupon", signedIn.RequireSession(couponHandler.ApplyCoupon()))
	routerMux.HandleFunc("DELETE /api/v1/cart/coupon", couponHandler.RemoveCoupon())
	routerMux.HandleFunc("GET /api/v1/checkout/summary", checkoutHandler.Summary())
	routerMux.HandleFunc("POST /api/v1/checkout/orders", signedIn.RequireSession(checkoutHandler.PlaceOrder()))
	routerMux.HandleFunc("GET /api/v1/orders", signedIn.RequireSession(orderHandler.ListOrders()))
	routerMux.HandleFunc("GET /api/v1/orders/{id}", signedIn.RequireSession(orderHandler.GetOrder()))
	routerMux.HandleFunc("GET /api/v1/addresses", signedIn.RequireSession(addressHandler.ListAddresses()))
	routerMux.HandleFunc("POST /api/v1/addresses", signedIn.RequireSession(addressHandler.CreateAddress()))
	routerMux.Handle("GET /health", healthHandler.Handler())
	routerMux.Handle("GET /metrics", metrics.Handler())
	routerMux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// Middleware chaining, metrics innermost so the route pattern is set
	var handler http.Handler = routerMux
	handler = metrics.Middleware(handler)
	handler = middleware.Logging(handler)
	handler = otelhttp.NewHandler(handler, "storefront-bff")

	// Setup http server
	server := http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.PollTimeout + 15*time.Second,
	}

	slog.Info("🚀 Server is starting...", slog.String("address", cfg.Addr))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("❌ Failed to start server", slog.Any("error", err.Error()))
		}
	}()

	<-done

	slog.Warn("🛑 Shutdown signal received. Preparing to stop the server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("⚠️ Server shutdown encountered an issue", slog.String("error", err.Error()))
	} else {
		slog.Info("✅ Server shut down gracefully. All connections closed.")
	}

	// pending cart writes land before the store closes
	if err := cartService.Close(shutdownCtx); err != nil {
		slog.Error("⚠️ Failed to flush cart", slog.String("error", err.Error()))
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("⚠️ Failed to flush traces", slog.String("error", err.Error()))
	}
}

// openStore opens the configured storage backend. The redis client is
// returned for the coupon attempt limiter and is nil for other drivers;
// closing the store closes it.
func openStore(ctx context.Context, cfg *config.Config) (storage.Store, *redis.Client, error) {

	switch cfg.Storage.Driver {
	case config.StorageRedis:
		client, err := storeRedis.NewClient(&cfg.RedisConnect)
		if err != nil {
			return nil, nil, err
		}
		return storeRedis.NewStore(client, &cfg.Storage), client, nil

	case config.StoragePostgres:
		db, err := postgres.Open(&cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			closeDB(db)
			return nil, nil, err
		}
		return postgres.NewStore(db, cfg.Storage.KeyPrefix), nil, nil

	default:
		return storage.NewMemoryStore(), nil, nil
	}
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		slog.Error("⚠️ Error closing database connection", slog.String("error", err.Error()))
	}
}
