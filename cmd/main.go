package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/Leganyst/travel-core/internal/booking"
	"github.com/Leganyst/travel-core/internal/config"
	"github.com/Leganyst/travel-core/internal/db"
	"github.com/Leganyst/travel-core/internal/demo"
	"github.com/Leganyst/travel-core/internal/gateway/httpgw"
	"github.com/Leganyst/travel-core/internal/gateway/sim"
	"github.com/Leganyst/travel-core/internal/model"
	"github.com/Leganyst/travel-core/internal/observe"
	"github.com/Leganyst/travel-core/internal/planner"
	"github.com/Leganyst/travel-core/internal/replan"
	"github.com/Leganyst/travel-core/internal/repository"
	"github.com/Leganyst/travel-core/internal/service"
	"github.com/Leganyst/travel-core/internal/transport/rest"
)

type flags struct {
	envFile     string
	grpcAddr    string
	httpAddr    string
	policyFile  string
	simSeed     uint64
	simLimit    float64
	migrateOnly bool
	seedDemo    bool
}

func parseFlags() flags {
	var f flags
	fs := pflag.NewFlagSet("travel-core", pflag.ExitOnError)
	fs.StringVar(&f.envFile, "env-file", ".env", "путь к .env (необязательный)")
	fs.StringVar(&f.grpcAddr, "grpc-addr", "", "адрес gRPC-сервера, перекрывает CORE_GRPC_ADDR")
	fs.StringVar(&f.httpAddr, "http-addr", "", "адрес REST-сервера, перекрывает CORE_HTTP_ADDR")
	fs.StringVar(&f.policyFile, "policy", "", "YAML с правилами анализа сбоев, перекрывает REPLAN_POLICY_FILE")
	fs.Uint64Var(&f.simSeed, "sim-seed", uint64(time.Now().UnixNano()), "seed симулятора поставщика")
	fs.Float64Var(&f.simLimit, "sim-payment-limit", 0, "сумма, выше которой симулятор оплаты отказывает (0 без лимита)")
	fs.BoolVar(&f.migrateOnly, "migrate-only", false, "выполнить миграции и выйти")
	fs.BoolVar(&f.seedDemo, "seed-demo", false, "создать демонстрационный маршрут после миграций")
	_ = fs.Parse(os.Args[1:])
	return f
}

func main() {
	f := parseFlags()

	// 1. Конфиг: .env, затем переменные окружения, затем флаги.
	if err := config.LoadDotEnv(f.envFile); err != nil {
		log.Fatalf("%v", err)
	}
	appCfg, err := config.LoadAppConfig()
	if err != nil {
		log.Fatalf("load app config: %v", err)
	}
	if f.grpcAddr != "" {
		appCfg.GRPCAddr = f.grpcAddr
	}
	if f.httpAddr != "" {
		appCfg.HTTPAddr = f.httpAddr
	}
	if f.policyFile != "" {
		appCfg.PolicyFile = f.policyFile
	}
	dbCfg, err := config.LoadDBConfig()
	if err != nil {
		log.Fatalf("load db config: %v", err)
	}

	logger, err := observe.NewLogger(os.Stdout, appCfg.LogFormat, appCfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	slog.SetDefault(logger)

	if err := run(appCfg, dbCfg, f, logger); err != nil {
		logger.Error("core stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(appCfg *config.AppConfig, dbCfg *config.DBConfig, f flags, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. БД и миграции.
	gormDB, err := db.NewGormDB(dbCfg)
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := model.AutoMigrate(gormDB); err != nil {
		return err
	}
	logger.Info("database migrated", "driver", dbCfg.Driver)

	store := repository.NewStore(gormDB)
	if f.seedDemo {
		if _, err := demo.Seed(ctx, store, time.Now().AddDate(0, 0, 1), logger); err != nil {
			return err
		}
	}
	if f.migrateOnly {
		return nil
	}

	// 3. Шлюзы: HTTP при заданном URL, иначе симулятор.
	gws := buildGateways(appCfg, f, logger)
	mgr := booking.NewManager(store, gws, booking.Timeouts{
		Payment:  appCfg.Payment.Timeout,
		Provider: appCfg.Provider.Timeout,
		Calendar: appCfg.Calendar.Timeout,
	}, logger)

	// 4. Генератор кандидатов и правила сбоев.
	generator, err := buildGenerator(ctx, appCfg, store, logger)
	if err != nil {
		return err
	}
	policy := replan.DefaultPolicy()
	if appCfg.PolicyFile != "" {
		pf, err := config.LoadPolicyFile(appCfg.PolicyFile)
		if err != nil {
			return err
		}
		policy = replan.PolicyFromFile(pf)
		logger.Info("replan policy loaded", "path", appCfg.PolicyFile, "rules", len(pf.Rules))
	}
	orchestrator := replan.NewOrchestrator(store, mgr, generator, logger,
		replan.WithPolicy(policy),
		replan.WithGeneratorTimeout(appCfg.Planner.Timeout),
	)
	prefs := planner.NewPreferenceStore(store.Itineraries, store.Preferences)

	// 5. Транспорты.
	bookingSvc := service.NewBookingService(mgr, logger)
	replanSvc := service.NewReplanService(orchestrator, prefs, mgr, logger)
	grpcServer, health := service.NewGRPCServer(logger, bookingSvc, replanSvc)
	app := rest.NewApp(rest.Config{
		AllowOrigins: appCfg.CORSOrigins,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}, bookingSvc, replanSvc, prefs, logger)

	lis, err := net.Listen("tcp", appCfg.GRPCAddr)
	if err != nil {
		return err
	}

	// 6. Серверы работают до сигнала, затем грейсфул-шатдаун.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("core gRPC server listening", "addr", appCfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("core REST server listening", "addr", appCfg.HTTPAddr)
		return app.Listen(appCfg.HTTPAddr)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		health.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		done := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-shutdownCtx.Done():
			grpcServer.Stop()
		}
		return app.ShutdownWithContext(shutdownCtx)
	})

	return g.Wait()
}

func buildGateways(cfg *config.AppConfig, f flags, logger *slog.Logger) booking.Gateways {
	hc := &http.Client{}
	gws := booking.Gateways{
		Payment:  sim.NewPayment(logger, f.simLimit),
		Provider: sim.NewProvider(logger, f.simSeed),
		Calendar: sim.NewCalendar(logger),
	}
	if cfg.Payment.BaseURL != "" {
		gws.Payment = httpgw.NewPayment(cfg.Payment, hc)
	}
	if cfg.Provider.BaseURL != "" {
		gws.Provider = httpgw.NewProvider(cfg.Provider, hc)
	}
	if cfg.Calendar.BaseURL != "" {
		gws.Calendar = httpgw.NewCalendar(cfg.Calendar, hc)
	}
	logger.Info("gateways configured",
		"payment", gatewayKind(gws.Payment),
		"provider", gatewayKind(gws.Provider),
		"calendar", gatewayKind(gws.Calendar),
	)
	return gws
}

func gatewayKind(gw any) string {
	switch gw.(type) {
	case *httpgw.Payment, *httpgw.Provider, *httpgw.Calendar:
		return "http"
	default:
		return "sim"
	}
}

func buildGenerator(ctx context.Context, cfg *config.AppConfig, store *repository.Store, logger *slog.Logger) (planner.Generator, error) {
	if cfg.GeminiAPIKey == "" {
		logger.Info("candidate generator: place registry")
		return planner.NewRegistryGenerator(store.Places), nil
	}
	g, err := planner.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, store.Places)
	if err != nil {
		return nil, err
	}
	logger.Info("candidate generator: gemini", "model", cfg.GeminiModel)
	return g, nil
}
