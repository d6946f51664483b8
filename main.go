package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"busbooking/internal/auth"
	intconfig "busbooking/internal/config"
	intdb "busbooking/internal/db"
	"busbooking/internal/gateway"
	router "busbooking/internal/http"
	"busbooking/internal/http/handlers"
	"busbooking/internal/notify"
	"busbooking/internal/repositories"
	"busbooking/internal/seatmap"
	"busbooking/internal/services"
	"busbooking/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	env, err := intconfig.LoadEnv()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger, err := utils.InitLogger(env.Debug)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}
	if env.UsesDevSecret() {
		logger.Warn("using the development JWT secret; set JWT_SECRET")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if env.NeedsMySQL() {
		conn, err := intconfig.ConnectDB(ctx, env.DB)
		if err != nil {
			logger.Fatal("mysql connect failed", zap.Error(err))
		}
		defer intconfig.CloseDB()
		if err := intdb.EnsureSchema(ctx, conn); err != nil {
			logger.Fatal("schema setup failed", zap.Error(err))
		}
	}

	var sessions repositories.SessionStore = repositories.NewMemorySessionStore()
	if env.SessionBackend == "redis" {
		rdb, err := intconfig.ConnectRedis(ctx, env.Redis)
		if err != nil {
			logger.Fatal("redis connect failed", zap.Error(err))
		}
		defer func(c *redis.Client) { _ = c.Close() }(rdb)
		sessions = repositories.RedisSessionStore{Client: rdb, TTL: env.SessionTTL}
	}

	var bookings repositories.BookingStore = repositories.NewMemoryBookingStore()
	if env.BookingsBackend == "mysql" {
		bookings = repositories.MySQLBookingStore{DB: intconfig.DB}
	}

	var catalog repositories.TripCatalog
	if env.CatalogBackend == "mysql" {
		catalog = repositories.MySQLTripCatalog{DB: intconfig.DB}
	} else {
		static, err := repositories.LoadStaticCatalog(env.CatalogSeedFile)
		if err != nil {
			logger.Fatal("trip catalog load failed", zap.Error(err))
		}
		catalog = static
	}

	var users handlers.UserStore = repositories.NewMemoryUserStore()
	if env.NeedsMySQL() {
		users = repositories.UserRepository{DB: intconfig.DB}
	}

	gen := seatmap.NewGenerator(env.SeatmapSeed)
	gen.Occupancy = seatmap.InventoryOccupancy{Bookings: bookings}

	issuer := auth.TokenIssuer{Secret: []byte(env.JWTSecret), TTL: env.JWTTTL}
	manager := services.NewManager(services.PipelineDeps{
		Catalog:  catalog,
		SeatMaps: gen,
		Gateway:  gateway.NewSimulatedGateway(paymentConfig(env.Payment)),
		Bookings: bookings,
		Sessions: sessions,
		Identity: auth.JWTProvider{Issuer: issuer, Returns: sessions},
		Notifier: notify.LogSink{Log: logger.Named("notify")},
	})
	if env.SessionIdle > 0 {
		go manager.RunJanitor(ctx, env.SessionIdle/2, env.SessionIdle)
	}

	r := router.NewRouter(env, router.Deps{
		Manager: manager,
		Catalog: catalog,
		Users:   users,
		Issuer:  issuer,
		Returns: sessions,
	})

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		// payments may wait on the gateway up to its own timeout
		WriteTimeout: env.Payment.Timeout + 20*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", env.AppAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
		return
	}
	logger.Info("server stopped")
}

func paymentConfig(cfg intconfig.PaymentConfig) gateway.SimulatedConfig {
	out := gateway.SimulatedConfig{
		SuccessRate:    cfg.SuccessRate,
		Delay:          cfg.Delay,
		Timeout:        cfg.Timeout,
		FailureReasons: cfg.FailureReasons,
		Unavailable:    map[gateway.Method]bool{},
	}
	for _, raw := range cfg.Unavailable {
		if m, ok := gateway.ParseMethod(strings.TrimSpace(raw)); ok {
			out.Unavailable[m] = true
		}
	}
	return out
}
