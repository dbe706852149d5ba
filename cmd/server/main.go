package main

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"novalnet-checkout/internal/auth"
	"novalnet-checkout/internal/basket"
	"novalnet-checkout/internal/checkout"
	"novalnet-checkout/internal/config"
	"novalnet-checkout/internal/db"
	"novalnet-checkout/internal/logger"
	"novalnet-checkout/internal/method"
	"novalnet-checkout/internal/metrics"
	"novalnet-checkout/internal/middleware"
	"novalnet-checkout/internal/payment"
	"novalnet-checkout/internal/session"
	"novalnet-checkout/internal/transaction"
	"novalnet-checkout/internal/transport"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const gatewayTimeout = 30 * time.Second

var (
	initDBFunc = db.NewDatabase

	initStoreFunc = func(cfg *config.Config) (session.Store, error) {
		return session.NewStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.SessionTTL)
	}

	startServerFunc = func(addr string, handler http.Handler) error {
		srv := &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}
		return srv.ListenAndServe()
	}
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database, err := initDBFunc(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	store, err := initStoreFunc(cfg)
	if err != nil {
		logger.L().Warn("session store degraded", zap.Error(err))
	}

	router, err := newServer(cfg, database, store, prometheus.NewRegistry())
	if err != nil {
		return err
	}

	logger.L().Info("checkout server running",
		zap.String("port", cfg.AppPort),
		zap.String("env", cfg.AppEnv),
	)
	if err := startServerFunc(":"+cfg.AppPort, router); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// newServer wires the checkout components on top of database and store.
func newServer(cfg *config.Config, database *sql.DB, store session.Store, reg *prometheus.Registry) (http.Handler, error) {
	registry, err := method.NewDefaultRegistry()
	if err != nil {
		return nil, err
	}

	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checkoutMetrics := metrics.NewCheckout(reg)

	builder := payment.NewBuilder(registry, payment.BuilderConfig{
		VendorID:    cfg.Novalnet.VendorID,
		AuthCode:    cfg.Novalnet.AuthCode,
		ProductID:   cfg.Novalnet.ProductID,
		TariffID:    cfg.Novalnet.TariffID,
		TestMode:    cfg.Novalnet.TestMode,
		AccessKey:   cfg.Novalnet.AccessKey,
		PaygateURL:  cfg.Novalnet.PaygateURL,
		PayportURL:  cfg.Novalnet.PayportURL,
		ShopBaseURL: cfg.ShopBaseURL,
	})

	if cfg.Novalnet.AccessKey == "" {
		logger.L().Warn("NOVALNET_ACCESS_KEY is not set, gateway returns will be rejected")
	}

	transactions := transaction.NewRepository(database)
	opts := []checkout.Option{
		checkout.WithTransactionLog(transactions),
		checkout.WithMetrics(checkoutMetrics),
	}
	handlerOpts := []transport.HandlerOption{
		transport.WithReturnVerifier(payment.NewChecksumVerifier(cfg.Novalnet.AccessKey)),
	}
	if cfg.SecretKey != "" {
		returns := auth.NewReturnBinder([]byte(cfg.SecretKey), cfg.SessionTTL)
		opts = append(opts, checkout.WithSessionBinder(returns))
		handlerOpts = append(handlerOpts, transport.WithReturnSessions(returns))
	} else {
		logger.L().Warn("SECRET_KEY is not set, gateway returns depend on the session cookie")
	}

	svc := checkout.NewService(
		basket.NewRepository(database),
		builder,
		store,
		checkout.StatusResolverFunc(payment.ResolveStatus),
		opts...,
	)

	h := transport.NewHandler(svc, registry, payment.NewNovalnetGateway(gatewayTimeout), transactions, checkoutMetrics, handlerOpts...)
	return setupRouter(cfg, h, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})), nil
}

func setupRouter(cfg *config.Config, h *transport.Handler, metricsHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	h.Register(mux)
	mux.Handle("GET /metrics", metricsHandler)
	mux.Handle("POST /checkout/session", transport.SessionTokenHandler([]byte(cfg.SecretKey), cfg.SessionTTL))

	var handler http.Handler = mux
	handler = middleware.RateLimitMiddleware(handler)
	handler = transport.SessionMiddleware(cfg.SessionTTL, payment.ReturnPath)(handler)
	handler = middleware.Auth([]byte(cfg.SecretKey))(handler)
	handler = middleware.CORS(cfg.ShopBaseURL)(handler)
	handler = logger.LoggingMiddleware(handler)
	handler = logger.RequestIDMiddleware(handler)
	return handler
}
