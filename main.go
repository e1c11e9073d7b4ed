package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ronwsv/menuly-delivery/auth"
	"github.com/ronwsv/menuly-delivery/config"
	"github.com/ronwsv/menuly-delivery/database"
	"github.com/ronwsv/menuly-delivery/geo"
	"github.com/ronwsv/menuly-delivery/middleware"
	"github.com/ronwsv/menuly-delivery/notify"
	"github.com/ronwsv/menuly-delivery/routes"
	"github.com/ronwsv/menuly-delivery/services/cart"
	"github.com/ronwsv/menuly-delivery/services/catalog"
	"github.com/ronwsv/menuly-delivery/services/delivery"
	"github.com/ronwsv/menuly-delivery/services/fees"
	"github.com/ronwsv/menuly-delivery/services/orders"
	"github.com/ronwsv/menuly-delivery/storage"
	"github.com/ronwsv/menuly-delivery/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	telemetry.InitLogger(cfg.Telemetry.ServiceName, cfg.Telemetry.LogLevel)
	slog.Info("starting application", "env", cfg.Telemetry.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.SetupTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.Environment)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(flushCtx); err != nil {
			slog.Warn("tracer shutdown", "error", err)
		}
	}()

	// Init DB
	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	// Live order feed for the apps, plus the broker when configured
	hub := notify.NewHub()
	events := notify.Multi{hub}
	if cfg.RabbitMQ.URL != "" {
		rabbit, err := notify.NewRabbitPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			return err
		}
		defer rabbit.Close()
		events = append(events, rabbit)
	}

	var geocoder geo.Geocoder = geo.NewClient(cfg.Geo.PostalURL, cfg.Geo.GeocodeURL, cfg.Geo.UserAgent, cfg.Geo.Timeout)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		geocoder = geo.NewCachedGeocoder(geocoder, rdb, cfg.Redis.TTL)
	}

	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	verifier, err := auth.NewFirebaseVerifier(ctx, cfg.Auth.FirebaseProjectID, cfg.Auth.FirebaseCredentials)
	if err != nil {
		return err
	}

	quoter := fees.NewCalculator(geocoder, cfg.Geo.Timeout)
	catalogSvc := catalog.NewService(db, store)
	cartSvc := cart.NewService(db)
	orderSvc := orders.NewService(db, quoter, events)
	deliverySvc := delivery.NewService(db, orderSvc, events)
	authSvc := auth.NewService(db, auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), verifier, cartSvc, deliverySvc, auth.Options{
		SuperAdminEmail: cfg.Auth.SuperAdminEmail,
		GuestTTL:        cfg.Auth.GuestSessionTTL,
	})

	// Gin setup
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.MaxMultipartMemory = 32 << 20
	r.Use(gin.Recovery(), middleware.RequestID(), otelgin.Middleware(cfg.Telemetry.ServiceName), middleware.Logger())

	// CORS settings
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-KEY", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Serve uploaded images
	if cfg.Storage.Driver == "local" {
		r.Static(cfg.Storage.PublicURL, cfg.Storage.UploadDir)
	}

	routes.SetupRoutes(r, routes.Deps{
		Auth:     authSvc,
		Catalog:  catalogSvc,
		Cart:     cartSvc,
		Orders:   orderSvc,
		Delivery: deliverySvc,
		Fees:     quoter,
		Hub:      hub,
		APIKey:   cfg.Auth.APIKey,
		Payment:  cfg.Payment,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server running", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		authSvc.RunGuestCleanup(gctx, time.Hour)
		return nil
	})
	if cfg.Storage.Driver == "local" && cfg.Storage.BackupDir != "" {
		// backup at 2 AM daily, keep 4 days
		g.Go(func() error {
			storage.RunDailyBackup(gctx, cfg.Storage.UploadDir, cfg.Storage.BackupDir, 4*24*time.Hour, 2, 0)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownIn)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg config.Storage) (storage.Store, error) {
	if cfg.Driver == "s3" {
		return storage.NewS3Store(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3Endpoint)
	}
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, err
	}
	return storage.NewLocalStore(cfg.UploadDir, cfg.PublicURL), nil
}
