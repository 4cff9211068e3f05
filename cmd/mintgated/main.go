package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mintgate/config"
	"mintgate/core/events"
	"mintgate/ledger"
	"mintgate/native/mint"
	"mintgate/observability/logging"
	"mintgate/rpc"
	"mintgate/storage"
	"mintgate/treasury"
)

const authTokenEnv = "MINTGATE_RPC_TOKEN"

// logEmitter forwards engine and ledger events into the structured log.
type logEmitter struct {
	logger *slog.Logger
}

func (l *logEmitter) Emit(evt events.Event) {
	rec, ok := evt.(*events.Record)
	if !ok {
		l.logger.Info("event", slog.String("type", evt.EventType()))
		return
	}
	attrs := make([]any, 0, 2+2*len(rec.Attributes))
	attrs = append(attrs, slog.String("type", rec.Type))
	for key, value := range rec.Attributes {
		attrs = append(attrs, slog.String(key, value))
	}
	l.logger.Info("event", attrs...)
}

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("MINTGATE_ENV"))

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := logging.Setup("mintgated", env, cfg.LogFile)

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "mintgate"))
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	owner, err := config.Address(cfg.OwnerAddress)
	if err != nil {
		logger.Error("invalid owner address", slog.Any("error", err))
		os.Exit(1)
	}
	engineAddr, err := config.Address(cfg.EngineAddress)
	if err != nil {
		logger.Error("invalid engine address", slog.Any("error", err))
		os.Exit(1)
	}
	cosigner, err := config.Address(cfg.CosignerAddress)
	if err != nil {
		logger.Error("invalid cosigner address", slog.Any("error", err))
		os.Exit(1)
	}
	crossmint, err := config.Address(cfg.CrossmintAddress)
	if err != nil {
		logger.Error("invalid crossmint address", slog.Any("error", err))
		os.Exit(1)
	}

	emitter := &logEmitter{logger: logger}

	tokens, err := ledger.New(cfg.Collection.Name, cfg.Collection.Symbol, db)
	if err != nil {
		logger.Error("failed to open token ledger", slog.Any("error", err))
		os.Exit(1)
	}
	tokens.SetEmitter(emitter)

	payments := treasury.NewBook()
	payments.SetEmitter(emitter)

	engine, err := mint.NewEngine(mint.Params{
		Engine:            engineAddr,
		Owner:             owner,
		BaseURI:           cfg.Collection.BaseURI,
		MaxMintableSupply: cfg.Collection.MaxMintableSupply,
		GlobalWalletLimit: cfg.Collection.GlobalWalletLimit,
		Cosigner:          cosigner,
	}, tokens, payments)
	if err != nil {
		logger.Error("failed to construct engine", slog.Any("error", err))
		os.Exit(1)
	}
	engine.SetEmitter(emitter)
	if err := engine.Load(db); err != nil {
		logger.Error("failed to restore engine state", slog.Any("error", err))
		os.Exit(1)
	}
	if crossmint != ([20]byte{}) && engine.CrossmintAddress() == ([20]byte{}) {
		if err := engine.SetCrossmintAddress(owner, crossmint); err != nil {
			logger.Error("failed to wire crossmint address", slog.Any("error", err))
			os.Exit(1)
		}
	}
	if cfg.Collection.TokenURISuffix != "" && engine.TokenURISuffix() == "" {
		if err := engine.SetTokenURISuffix(owner, cfg.Collection.TokenURISuffix); err != nil {
			logger.Error("failed to apply token uri suffix", slog.Any("error", err))
			os.Exit(1)
		}
	}

	if strings.TrimSpace(cfg.MetricsAddress) != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.Info("starting metrics server", slog.String("addr", cfg.MetricsAddress))
			if err := http.ListenAndServe(cfg.MetricsAddress, mux); err != nil {
				logger.Error("metrics server stopped", slog.Any("error", err))
			}
		}()
	}

	server := rpc.NewServer(engine, tokens, owner, rpc.Options{
		AuthToken: os.Getenv(authTokenEnv),
		DB:        db,
		Logger:    logger,
	})
	if err := server.Start(cfg.ListenAddress); err != nil {
		logger.Error("rpc server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
