package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // zone database for APP_TIMEZONE on minimal images

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/appointment-booking/internal/clock"
	"github.com/iliyamo/appointment-booking/internal/config"
	"github.com/iliyamo/appointment-booking/internal/database"
	"github.com/iliyamo/appointment-booking/internal/handler"
	"github.com/iliyamo/appointment-booking/internal/logger"
	"github.com/iliyamo/appointment-booking/internal/metrics"
	"github.com/iliyamo/appointment-booking/internal/middleware"
	"github.com/iliyamo/appointment-booking/internal/notify"
	"github.com/iliyamo/appointment-booking/internal/queue"
	"github.com/iliyamo/appointment-booking/internal/repository"
	"github.com/iliyamo/appointment-booking/internal/repository/memory"
	"github.com/iliyamo/appointment-booking/internal/repository/postgres"
	"github.com/iliyamo/appointment-booking/internal/router"
	"github.com/iliyamo/appointment-booking/internal/service"
	"github.com/iliyamo/appointment-booking/internal/utils"
)

func main() {
	cfg := config.Load() // Load environment config
	log := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "appointment-booking",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slots, bookings, closeStore := openStore(ctx, cfg.DB, log)
	defer closeStore()

	// Redis backs rate limiting and the slot listing cache; a nil client
	// turns both into pass-throughs.
	rdb := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if rdb == nil {
		log.Warn("redis unavailable; rate limiting and caching disabled")
	} else {
		defer rdb.Close()
	}
	metrics.Register()

	dispatcher := notify.New(cfg.Notify, log)
	var notifier service.Notifier = dispatcher
	if cfg.AMQPURL != "" {
		// Bookings publish to the broker; the consumer below performs the sends.
		notifier = queue.NewPublisher(cfg.AMQPURL)
		consumer := queue.NewConsumer(cfg.AMQPURL, dispatcher.BookingConfirmed, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("notification consumer stopped", "error", err)
			}
		}()
	}

	clk := clock.NewSystem()
	codec, err := utils.NewSessionCodec(cfg.AdminAuthSecret, clk)
	if err != nil {
		log.Fatal("session codec", "error", err)
	}

	slotSvc := service.NewSlotService(slots, clk,
		service.WithHorizons(cfg.OpenHorizonDays, cfg.AdminHorizonDays))
	bookingSvc := service.NewBookingService(slots, bookings, clk, log,
		service.WithNotifier(notifier),
		service.WithLocation(cfg.Location),
		service.WithRecentBookings(cfg.RecentBookingsLimit, cfg.RecentBookingsHorizonDays))

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			if v.Error != nil {
				log.Error("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency, "error", v.Error)
				return nil
			}
			log.Info("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))

	cacheCfg := config.LoadCacheConfig()
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log)
	cache := middleware.NewRedisCache(cacheCfg, rdb, log)
	purger := middleware.NewCachePurger(cacheCfg, rdb, log)

	public := &handler.PublicHandler{Slots: slotSvc, Bookings: bookingSvc, Purger: purger, Log: log}
	auth := &handler.AuthHandler{
		Codec:        codec,
		Password:     cfg.AdminPassword,
		PasswordHash: cfg.AdminPasswordHash,
		CookieSecure: cfg.CookieSecure,
		Log:          log,
	}
	admin := &handler.AdminHandler{Slots: slotSvc, Bookings: bookingSvc, Purger: purger, Location: cfg.Location, Log: log}

	router.RegisterRoutes(e) // Register application routes
	router.RegisterPublic(e, public, cache)
	router.RegisterCustomer(e, public, limiter)
	router.RegisterAdmin(e, auth, admin, codec, limiter)

	addr := ":" + cfg.Port // Address string with port
	go func() {
		log.Info("listening", "addr", addr, "env", cfg.Env, "db", cfg.DB.Driver, "timezone", cfg.Timezone)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}
	// let in-flight notifications finish before the store closes
	bookingSvc.Wait()
}

// openStore connects the configured backend, applies migrations when
// enabled and returns the slot and booking stores with a close func.
func openStore(ctx context.Context, cfg config.DBConfig, log *logger.Logger) (service.SlotStore, service.BookingStore, func()) {
	startCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := database.OpenPostgres(startCtx, cfg.URL)
		if err != nil {
			log.Fatal("postgres connect", "error", err)
		}
		if cfg.Migrate {
			if err := database.MigratePostgres(startCtx, pool); err != nil {
				log.Fatal("postgres migrate", "error", err)
			}
		}
		return postgres.NewSlotRepository(pool), postgres.NewBookingRepository(pool), pool.Close
	case config.DriverMemory:
		log.Warn("using in-memory store; data is lost on restart")
		store := memory.New()
		return store, store, func() {}
	default:
		db, err := database.OpenMySQL(startCtx, database.MySQLDSN(cfg.User, cfg.Pass, cfg.Host, cfg.Port, cfg.Name))
		if err != nil {
			log.Fatal("mysql connect", "error", err)
		}
		if cfg.Migrate {
			if err := database.MigrateMySQL(startCtx, db); err != nil {
				log.Fatal("mysql migrate", "error", err)
			}
		}
		return repository.NewSlotRepo(db), repository.NewBookingRepo(db), func() { _ = db.Close() }
	}
}
