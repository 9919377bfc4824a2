package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appInvoice "github.com/emartlabs/fulfillment/internal/application/invoice"
	appOrder "github.com/emartlabs/fulfillment/internal/application/order"
	appPayment "github.com/emartlabs/fulfillment/internal/application/payment"
	"github.com/emartlabs/fulfillment/internal/application/stats"
	"github.com/emartlabs/fulfillment/internal/application/stock"
	"github.com/emartlabs/fulfillment/internal/domain/event"
	domInvoice "github.com/emartlabs/fulfillment/internal/domain/invoice"
	domOrder "github.com/emartlabs/fulfillment/internal/domain/order"
	domPayment "github.com/emartlabs/fulfillment/internal/domain/payment"
	domProduct "github.com/emartlabs/fulfillment/internal/domain/product"
	domUser "github.com/emartlabs/fulfillment/internal/domain/user"
	"github.com/emartlabs/fulfillment/internal/eventbus"
	"github.com/emartlabs/fulfillment/internal/infrastructure/id"
	"github.com/emartlabs/fulfillment/internal/infrastructure/memory"
	"github.com/emartlabs/fulfillment/internal/infrastructure/postgres"
	"github.com/emartlabs/fulfillment/internal/infrastructure/settlement"
	"github.com/emartlabs/fulfillment/internal/observability"
	"github.com/emartlabs/fulfillment/internal/pkg/config"
	"github.com/emartlabs/fulfillment/internal/pkg/logging"
	httppresentation "github.com/emartlabs/fulfillment/internal/presentation/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type repositories struct {
	products domProduct.Repository
	orders   domOrder.Repository
	payments domPayment.Repository
	invoices domInvoice.Repository
	users    domUser.Repository
}

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := logging.MustNewLogger(cfg.ServiceName, cfg.Env)
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	repos, cleanup, err := buildRepositories(cfg, logger)
	if err != nil {
		logger.Fatal("store_init_failed", zap.Error(err))
	}
	defer cleanup()

	bus := eventbus.NewBus(logger)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())
	subscribeAuditors(bus, logger, metrics)

	idGen := id.NewUUIDGenerator()
	gateway := settlement.NewGateway(cfg.SettlementSuccessRate, cfg.SettlementLatency)

	ledger := stock.NewLedger(repos.products, bus)
	orderService := appOrder.NewService(repos.orders, repos.products, ledger, idGen, bus,
		metrics, cfg.StoreTimeout)
	paymentService := appPayment.NewService(repos.payments, gateway, orderService, idGen, bus,
		metrics, cfg.StoreTimeout, cfg.SettlementTimeout)
	invoiceService := appInvoice.NewService(repos.invoices, idGen, bus, metrics, cfg.StoreTimeout)
	statsService := stats.NewService(repos.orders, repos.payments, repos.invoices, repos.users,
		cfg.StoreTimeout)

	if cfg.StoreBackend == config.StoreMemory {
		seedDemoProducts(repos.products, logger)
	}

	handler := httppresentation.NewHandler(orderService, paymentService, invoiceService,
		statsService, ledger, logger, metrics)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("http_server_start",
			zap.String("addr", server.Addr),
			zap.String("store_backend", cfg.StoreBackend),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_server_shutdown_error", zap.Error(err))
	} else {
		logger.Info("http_server_stopped")
	}
}

func buildRepositories(cfg config.Config, logger *zap.Logger) (repositories, func(), error) {
	if cfg.StoreBackend == config.StorePostgres {
		db, err := postgres.Connect(cfg.PostgresDSN)
		if err != nil {
			return repositories{}, nil, err
		}
		logger.Info("postgres_connected")
		return repositories{
			products: postgres.NewProductRepository(db),
			orders:   postgres.NewOrderRepository(db),
			payments: postgres.NewPaymentRepository(db),
			invoices: postgres.NewInvoiceRepository(db),
			users:    postgres.NewUserRepository(db),
		}, func() { _ = db.Close() }, nil
	}

	return repositories{
		products: memory.NewProductRepository(),
		orders:   memory.NewOrderRepository(),
		payments: memory.NewPaymentRepository(),
		invoices: memory.NewInvoiceRepository(),
		users:    memory.NewUserRepository(),
	}, func() {}, nil
}

// subscribeAuditors attaches an audit log line and an event counter to every
// domain event the engine publishes.
func subscribeAuditors(bus *eventbus.Bus, logger *zap.Logger, metrics *observability.Metrics) {
	audit := func(ctx context.Context, e event.Event) error {
		_ = ctx
		metrics.CountEvent(e.EventName())
		logger.Info("domain_event",
			zap.String("event", e.EventName()),
			zap.Any("payload", e),
		)
		return nil
	}
	for _, name := range []string{
		"order.created",
		"order.cancelled",
		"stock.depleted",
		"payment.completed",
		"invoice.sent",
	} {
		bus.Subscribe(name, audit)
	}
}

// seedDemoProducts loads a small catalog so the memory backend is usable out
// of the box.
func seedDemoProducts(products domProduct.Repository, logger *zap.Logger) {
	seeds := []struct {
		id    string
		name  string
		price string
		stock int
	}{
		{"p-1001", "Wireless Keyboard", "49.90", 25},
		{"p-1002", "USB-C Dock", "129.00", 10},
		{"p-1003", "27in Monitor", "289.50", 5},
	}
	for _, s := range seeds {
		p, err := domProduct.New(s.id, s.name, decimal.RequireFromString(s.price), s.stock, "seed")
		if err != nil {
			logger.Warn("seed_product_failed", zap.String("product_id", s.id), zap.Error(err))
			continue
		}
		if err := products.Save(context.Background(), p); err != nil {
			logger.Warn("seed_product_failed", zap.String("product_id", s.id), zap.Error(err))
		}
	}
	logger.Info("demo_products_seeded", zap.Int("count", len(seeds)))
}
