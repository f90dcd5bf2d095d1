package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/room-booking/internal/availability"
	"github.com/iliyamo/room-booking/internal/booking"
	"github.com/iliyamo/room-booking/internal/config"
	"github.com/iliyamo/room-booking/internal/database"
	"github.com/iliyamo/room-booking/internal/effects"
	"github.com/iliyamo/room-booking/internal/handler"
	"github.com/iliyamo/room-booking/internal/ledger"
	"github.com/iliyamo/room-booking/internal/logger"
	"github.com/iliyamo/room-booking/internal/middleware"
	"github.com/iliyamo/room-booking/internal/notify"
	"github.com/iliyamo/room-booking/internal/queue"
	"github.com/iliyamo/room-booking/internal/repository"
	"github.com/iliyamo/room-booking/internal/router"
	"github.com/iliyamo/room-booking/internal/service"
)

type stores struct {
	bookings booking.Store
	users    handler.UserStore
	tokens   interface {
		handler.TokenStore
		PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
	}
	close func()
}

func main() {
	cfg := config.Load()
	logger.Init(logger.Options{Level: cfg.LogLevel, JSON: cfg.IsProd(), File: cfg.LogFile})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("open stores")
	}
	defer st.close()

	hours, err := workingHours(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("invalid working hours")
	}
	manager := booking.NewManager(st.bookings, booking.Config{
		WorkingHours:      hours,
		Rooms:             cfg.Rooms,
		NotifyDestination: cfg.NotifyDestination,
	})

	executor := effects.NewExecutor(buildMirror(ctx, cfg), buildNotifier(cfg),
		effects.WithMaxAttempts(cfg.EffectsMaxAttempts))

	var (
		dispatcher   booking.Dispatcher = executor
		publisher    *service.QueuePublisher
		consumerDone <-chan struct{}
	)
	if cfg.EffectsMode == "queue" {
		publisher = service.NewQueuePublisher(cfg.RabbitMQURL, executor)
		dispatcher = publisher
		journal := logger.RotatingFile(cfg.EffectsJournal)
		defer journal.Close() // runs after the consumer has drained
		consumerDone = runConsumer(ctx, queue.NewConsumer(cfg.RabbitMQURL, executor, journal))
	}

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(
		middleware.RequestID(),
		middleware.AccessLog(logrus.StandardLogger()),
		echomw.Recover(),
		echomw.CORS(),
	)
	deps := router.Deps{
		JWTSecret: cfg.JWTSecret,
		Auth:      handler.NewAuthHandler(cfg, st.users, st.tokens),
		Bookings:  handler.NewBookingHandler(manager, dispatcher),
		Redis:     rdb,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
	}
	router.RegisterRoutes(e)
	router.RegisterAuth(e, deps)
	router.RegisterBookings(e, deps)

	go purgeTokens(ctx, st.tokens)

	addr := ":" + cfg.Port
	go func() {
		logrus.WithFields(logrus.Fields{
			"addr": addr, "env": cfg.Env, "store": cfg.StoreDriver, "effects": cfg.EffectsMode,
		}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("http shutdown")
	}
	if publisher != nil {
		publisher.Wait() // may still hand batches to the executor
	}
	executor.Wait()
	if consumerDone != nil {
		<-consumerDone
	}
}

func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	if cfg.StoreDriver == "memory" {
		logrus.Warn("using in-memory store, data is lost on restart")
		return stores{
			bookings: repository.NewMemoryBookingRepo(),
			users:    repository.NewMemoryUserRepo(),
			tokens:   repository.NewMemoryTokenRepo(),
			close:    func() {},
		}, nil
	}
	db, err := database.Open(ctx, database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName))
	if err != nil {
		return stores{}, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return stores{}, err
	}
	return stores{
		bookings: repository.NewBookingRepo(db),
		users:    repository.NewUserRepo(db),
		tokens:   repository.NewTokenRepo(db),
		close:    func() { _ = db.Close() },
	}, nil
}

func workingHours(cfg config.Config) (availability.Interval, error) {
	start, err := availability.ParseClock(cfg.WorkStart)
	if err != nil {
		return availability.Interval{}, err
	}
	end, err := availability.ParseClock(cfg.WorkEnd)
	if err != nil {
		return availability.Interval{}, err
	}
	wh := availability.Interval{Start: start, End: end}
	if !wh.Valid() {
		return availability.Interval{}, errors.New("WORK_START must be before WORK_END")
	}
	return wh, nil
}

func buildMirror(ctx context.Context, cfg config.Config) ledger.Mirror {
	if cfg.SheetsSpreadsheetID == "" {
		return ledger.NoopMirror{}
	}
	m, err := ledger.NewSheetsMirror(ctx, ledger.SheetsOptions{
		SpreadsheetID:   cfg.SheetsSpreadsheetID,
		CredentialsJSON: cfg.GoogleCredentials,
		CredentialsFile: cfg.GoogleCredentialsFile,
		Rooms:           cfg.Rooms,
	})
	if err != nil {
		logrus.WithError(err).Error("ledger mirror disabled")
		return ledger.NoopMirror{}
	}
	return m
}

func buildNotifier(cfg config.Config) notify.Notifier {
	return notify.New(notify.Options{
		Driver:       cfg.NotifyDriver,
		FonnteURL:    cfg.FonnteAPIURL,
		FonnteKey:    cfg.FonnteAPIKey,
		SMTPHost:     cfg.SMTPHost,
		SMTPPort:     cfg.SMTPPort,
		SMTPUsername: cfg.SMTPUsername,
		SMTPPassword: cfg.SMTPPassword,
		MailFrom:     cfg.MailFrom,
	})
}

// runConsumer starts c in the background.  The returned channel closes
// once the consumer has stopped and its last journal write is done.
func runConsumer(ctx context.Context, c *queue.Consumer) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := c.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logrus.WithError(err).Error("effects consumer stopped")
		}
	}()
	return done
}

func purgeTokens(ctx context.Context, tokens interface {
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := tokens.PurgeExpired(ctx, time.Now().UTC())
			if err != nil {
				logrus.WithError(err).Warn("purge refresh tokens")
				continue
			}
			if n > 0 {
				logrus.WithField("removed", n).Info("purged expired refresh tokens")
			}
		}
	}
}
