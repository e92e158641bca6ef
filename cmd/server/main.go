package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/casafunko/api/internal/auth"
	"github.com/casafunko/api/internal/config"
	"github.com/casafunko/api/internal/database"
	adminhandlers "github.com/casafunko/api/internal/handlers/admin"
	apihandlers "github.com/casafunko/api/internal/handlers/api"
	"github.com/casafunko/api/internal/mercadopago"
	"github.com/casafunko/api/internal/middleware"
	"github.com/casafunko/api/internal/services/cart"
	"github.com/casafunko/api/internal/services/order"
	"github.com/casafunko/api/internal/storage"
	"github.com/casafunko/api/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.LoadDev()

	// Connect to database
	pool, err := database.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	slog.Info("database connected")

	// Run migrations
	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	slog.Info("migrations complete")

	// Repositories
	products := store.NewProducts(pool)
	posts := store.NewPosts(pool)
	admins := store.NewAdmins(pool)
	orders := store.NewOrders(pool)
	messages := store.NewMessages(pool)
	tracks := store.NewTracks(pool)

	// Media storage
	var media storage.Storage
	if cfg.MediaStorage == "s3" {
		media, err = storage.NewS3(context.Background(), storage.S3Config{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			ForcePathStyle: cfg.S3.ForcePathStyle,
			Bucket:         cfg.S3.Bucket,
			PublicURL:      cfg.S3.PublicURL,
		})
		if err != nil {
			slog.Error("failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
	} else {
		media = storage.NewLocal(cfg.MediaPath, cfg.APIURL+"/media")
	}

	// Services
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret)
	cartSvc := cart.NewService(products, cfg.Cart.TTL, logger)
	cartSvc.StartSweeper(cfg.Cart.SweepInterval)
	orderSvc := order.NewService(orders, cfg.StoreRefPrefix, logger)
	mpClient := mercadopago.NewClient(
		cfg.MercadoPago.AccessToken,
		cfg.MercadoPago.BaseURL,
		cfg.MercadoPago.Timeout,
		logger,
	)

	// Public API handlers
	publicHandler := apihandlers.NewPublicHandler(products, posts, logger)
	cartHandler := apihandlers.NewCartHandler(cartSvc, logger)
	checkoutHandler := apihandlers.NewCheckoutHandler(cartSvc, orderSvc, mpClient, cfg.AppURL, cfg.APIURL, logger)
	orderHandler := apihandlers.NewOrderHandler(orderSvc, mpClient, cfg.AppURL, cfg.APIURL, logger)
	communityHandler := apihandlers.NewCommunityHandler(messages, tracks, logger)
	webhookHandler := apihandlers.NewWebhookHandler(
		orderSvc,
		cfg.MercadoPago.WebhookSecret,
		cfg.MercadoPago.RequireSignature,
		logger,
	)

	// Admin handlers
	authHandler := adminhandlers.NewAuthHandler(admins, jwtMgr, logger)
	adminOrderHandler := adminhandlers.NewOrderHandler(orderSvc, logger)
	adminProductHandler := adminhandlers.NewProductHandler(products, media, logger)
	adminPostHandler := adminhandlers.NewPostHandler(posts, logger)
	adminMessageHandler := adminhandlers.NewMessageHandler(messages, logger)
	adminRadioHandler := adminhandlers.NewRadioHandler(tracks, media, logger)

	// API server (storefront JSON REST)
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `{"status":"ok"}`)
	})

	// Uploaded media, served directly in local-storage mode
	if cfg.MediaStorage != "s3" {
		apiMux.Handle("GET /media/", http.StripPrefix("/media/", http.FileServer(http.Dir(cfg.MediaPath))))
	}

	publicHandler.RegisterRoutes(apiMux)
	cartHandler.RegisterRoutes(apiMux)
	checkoutHandler.RegisterRoutes(apiMux)
	orderHandler.RegisterRoutes(apiMux)
	webhookHandler.RegisterRoutes(apiMux)
	communityHandler.RegisterRoutes(apiMux)

	var apiChain http.Handler = apiMux
	apiChain = middleware.CORS(cfg.AppURL)(apiChain)
	apiChain = middleware.RateLimiter(20, 40)(apiChain)
	apiChain = middleware.SecurityHeaders(apiChain)
	apiChain = middleware.Recover(logger)(apiChain)
	apiChain = middleware.RequestLogger(logger)(apiChain)

	apiServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      apiChain,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Admin server (back-office JSON API)
	adminMux := http.NewServeMux()
	adminMux.HandleFunc("GET /admin/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `{"status":"ok"}`)
	})

	// Login takes the stricter per-IP limiter; everything else shares the
	// server-wide one.
	loginMux := http.NewServeMux()
	authHandler.RegisterRoutes(loginMux)
	adminMux.Handle("POST /admin/api/login", middleware.LoginRateLimiter()(loginMux))

	protectedMux := http.NewServeMux()
	adminOrderHandler.RegisterRoutes(protectedMux)
	adminProductHandler.RegisterRoutes(protectedMux)
	adminPostHandler.RegisterRoutes(protectedMux)
	adminMessageHandler.RegisterRoutes(protectedMux)
	adminRadioHandler.RegisterRoutes(protectedMux)
	adminMux.Handle("/admin/api/orders", middleware.RequireAdmin(jwtMgr)(protectedMux))
	adminMux.Handle("/admin/api/orders/", middleware.RequireAdmin(jwtMgr)(protectedMux))
	adminMux.Handle("/admin/api/products", middleware.RequireAdmin(jwtMgr)(protectedMux))
	adminMux.Handle("/admin/api/products/", middleware.RequireAdmin(jwtMgr)(protectedMux))
	adminMux.Handle("/admin/api/posts", middleware.RequireAdmin(jwtMgr)(protectedMux))
	adminMux.Handle("/admin/api/posts/", middleware.RequireAdmin(jwtMgr)(protectedMux))
	adminMux.Handle("/admin/api/messages", middleware.RequireAdmin(jwtMgr)(protectedMux))
	adminMux.Handle("/admin/api/messages/", middleware.RequireAdmin(jwtMgr)(protectedMux))
	adminMux.Handle("/admin/api/radio/", middleware.RequireAdmin(jwtMgr)(protectedMux))

	var adminChain http.Handler = adminMux
	adminChain = middleware.CORS(cfg.AdminURL)(adminChain)
	adminChain = middleware.RateLimiter(20, 40)(adminChain)
	adminChain = middleware.SecurityHeaders(adminChain)
	adminChain = middleware.Recover(logger)(adminChain)
	adminChain = middleware.RequestLogger(logger)(adminChain)

	adminServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.AdminPort),
		Handler:      adminChain,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start servers
	errCh := make(chan error, 2)

	go func() {
		slog.Info("API server starting", "port", cfg.Port)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("api server: %w", err)
		}
	}()

	go func() {
		slog.Info("admin server starting", "port", cfg.AdminPort)
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("admin server: %w", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down", "signal", sig)
	case err := <-errCh:
		slog.Error("server error", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	cartSvc.Stop()

	if err := apiServer.Shutdown(ctx); err != nil {
		slog.Error("api server shutdown error", "error", err)
	}
	if err := adminServer.Shutdown(ctx); err != nil {
		slog.Error("admin server shutdown error", "error", err)
	}

	slog.Info("servers stopped")
}
