package main

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cafe-be/internal/booking"
	"cafe-be/internal/catalog"
	"cafe-be/internal/config"
	"cafe-be/internal/db"
	"cafe-be/internal/httpapi"
	"cafe-be/internal/logger"
	"cafe-be/internal/middleware"
	"cafe-be/internal/notification"
	"cafe-be/internal/order"
	"cafe-be/internal/payment"
	"cafe-be/internal/payment/webhook"
	"cafe-be/internal/user"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	initDBFunc      = db.InitDB
	startServerFunc = func(srv *http.Server) error { return srv.ListenAndServe() }
	newSinkFunc     = newSink
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// app holds the wired handler and the resources that must be released on exit.
type app struct {
	handler    http.Handler
	limiter    *middleware.RateLimiter
	dispatcher *notification.AsyncDispatcher
	closers    []io.Closer
}

func (a *app) Close() {
	a.dispatcher.Close()
	for _, c := range a.closers {
		c.Close()
	}
}

func run() error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv, cfg.LogLevel)
	defer logger.Sync()

	database := initDBFunc(cfg)
	defer database.Close()

	a, err := newServer(cfg, database)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stop()
		logger.L().Info("server listening", zap.String("addr", srv.Addr))
		if err := startServerFunc(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		a.limiter.RunCleanup(gctx.Done())
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newSink publishes to RabbitMQ when a broker is configured and logs otherwise.
func newSink(cfg *config.Config) (notification.Sink, io.Closer, error) {
	if cfg.RabbitMQURL == "" {
		return notification.LogSink{}, nil, nil
	}
	sink, err := notification.NewRabbitSink(cfg.RabbitMQURL)
	if err != nil {
		return nil, nil, err
	}
	return sink, sink, nil
}

func newServer(cfg *config.Config, database *sql.DB) (*app, error) {
	mode, err := booking.ParseConflictMode(cfg.BookingConflictMode)
	if err != nil {
		return nil, err
	}
	gateway, err := payment.NewGateway(cfg.PaymentGateway, cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	if err != nil {
		return nil, err
	}

	sink, closer, err := newSinkFunc(cfg)
	if err != nil {
		return nil, err
	}
	a := &app{
		limiter:    middleware.NewRateLimiter(cfg.InternalSecretKey),
		dispatcher: notification.NewAsyncDispatcher(sink, cfg.NotifyQueueSize),
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	identity := user.NewIdentityProvider(user.NewRepository(database), cfg.JWTSecret)
	store := catalog.NewRepository(database)

	bookingRepo := booking.NewRepository(database)
	bookingSvc := booking.NewService(bookingRepo, store, identity, a.dispatcher, booking.ConflictPolicy{
		Mode:         mode,
		SlotDuration: cfg.BookingSlotDuration,
	})

	orderRepo := order.NewRepository(database)
	orderSvc := order.NewService(orderRepo, store, identity, bookingRepo, a.dispatcher)

	paymentSvc := payment.NewService(payment.NewRepository(database), orderRepo, store, gateway, a.dispatcher)

	api := &httpapi.Handler{
		Orders:      orderSvc,
		Bookings:    bookingSvc,
		Payments:    paymentSvc,
		InternalKey: cfg.InternalSecretKey,
	}
	hook := webhook.NewWebhookHandler(paymentSvc)

	var handler http.Handler = setupRouter(api, hook.PaymentWebhookHandler)
	handler = a.limiter.Middleware(handler)
	handler = middleware.Auth(identity)(handler)
	handler = middleware.CORS(cfg.CORSAllowedOrigin)(handler)
	handler = logger.LoggingMiddleware(handler)
	handler = logger.RequestIDMiddleware(handler)
	a.handler = handler

	logger.L().Info("server wired",
		zap.String("payment_gateway", gateway.Name()),
		zap.String("booking_conflict_mode", string(mode)),
		zap.Bool("rabbitmq", cfg.RabbitMQURL != ""),
	)
	return a, nil
}

func setupRouter(api *httpapi.Handler, paymentWebhook http.HandlerFunc) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.HandleFunc("POST /webhook/payment", paymentWebhook)
	api.Register(mux)

	return mux
}
