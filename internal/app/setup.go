package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/synapsefi/pm-ledger/internal/arbitrage"
	"github.com/synapsefi/pm-ledger/internal/execution"
	"github.com/synapsefi/pm-ledger/internal/ledger"
	"github.com/synapsefi/pm-ledger/internal/markets"
	"github.com/synapsefi/pm-ledger/internal/portfolio"
	"github.com/synapsefi/pm-ledger/internal/quotes"
	"github.com/synapsefi/pm-ledger/internal/storage"
	"github.com/synapsefi/pm-ledger/pkg/cache"
	"github.com/synapsefi/pm-ledger/pkg/config"
	"github.com/synapsefi/pm-ledger/pkg/healthprobe"
	"github.com/synapsefi/pm-ledger/pkg/httpserver"
)

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger, opts *Options) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := healthprobe.New()

	metadataCache, err := cache.NewRistrettoCache(cache.DefaultRistrettoConfig(logger))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup metadata cache: %w", err)
	}

	fillRepo, err := setupFillRepository(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup fill repository: %w", err)
	}

	quoteManager := setupQuoteManager(cfg, logger)

	gammaClient := markets.NewGammaClient(cfg.GammaBaseURL, logger)
	metadata := markets.NewCachedMetadataClient(markets.NewMetadataClient(cfg.ClobBaseURL), metadataCache)
	index := markets.NewIndex(logger)

	ledgerStorage, err := setupStorage(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	portfolioService := portfolio.New(fillRepo, quoteManager, logger)

	detector := arbitrage.New(
		arbitrage.Config{
			MinMargin:      cfg.MinMargin,
			SizePerOutcome: cfg.SizePerOutcome,
			Logger:         logger,
		},
		quoteManager,
		index,
		ledgerStorage,
	)

	submitter, err := setupSubmitter(cfg, logger, detector, fillRepo)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup submitter: %w", err)
	}

	httpServer := httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Portfolio:     portfolioService,
		Markets:       index,
		Quotes:        quoteManager,
		Fills:         fillRepo,
		Arbitrage:     detector,
	})

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		metadataCache: metadataCache,
		gammaClient:   gammaClient,
		metadata:      metadata,
		index:         index,
		fillRepo:      fillRepo,
		quoteManager:  quoteManager,
		portfolio:     portfolioService,
		detector:      detector,
		submitter:     submitter,
		storage:       ledgerStorage,
		subscribed:    make(map[string]bool),
		singleMarket:  opts.SingleMarket,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func setupFillRepository(cfg *config.Config, logger *zap.Logger) (*ledger.Repository, error) {
	sqliteCache, err := ledger.NewSQLiteCache(cfg.SQLitePath, logger)
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache: %w", err)
	}

	var remote ledger.RemoteSource
	if cfg.DataBaseURL != "" {
		remote = ledger.NewRemoteClient(ledger.RemoteClientConfig{
			BaseURL:        cfg.DataBaseURL,
			APIKey:         cfg.APIKey,
			Secret:         cfg.Secret,
			Passphrase:     cfg.Passphrase,
			Address:        cfg.OwnerAddress,
			Timeout:        cfg.RemoteTimeout,
			RequestsPerSec: cfg.RemoteRequestsSec,
			Logger:         logger,
		})
	}

	return ledger.NewRepository(remote, sqliteCache, logger), nil
}

func setupQuoteManager(cfg *config.Config, logger *zap.Logger) *quotes.Manager {
	bookClient := quotes.NewClient(quotes.ClientConfig{
		BaseURL:        cfg.ClobBaseURL,
		Timeout:        cfg.RemoteTimeout,
		RequestsPerSec: cfg.RemoteRequestsSec,
		Logger:         logger,
	})

	return quotes.NewManager(quotes.ManagerConfig{
		PollInterval: cfg.QuotePollInterval,
		Logger:       logger,
	}, bookClient)
}

func setupStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	if cfg.StorageMode == "postgres" {
		pgStorage, err := storage.NewPostgresStorage(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres storage: %w", err)
		}
		return pgStorage, nil
	}

	return storage.NewConsoleStorage(logger), nil
}

func setupSubmitter(
	cfg *config.Config,
	logger *zap.Logger,
	detector *arbitrage.Detector,
	fillRepo *ledger.Repository,
) (*execution.Submitter, error) {
	var orderClient execution.OrderSubmitter
	if cfg.ExecutionMode == "live" {
		client, err := execution.NewOrderClient(&execution.OrderClientConfig{
			BaseURL:    cfg.ClobBaseURL,
			APIKey:     cfg.APIKey,
			Secret:     cfg.Secret,
			Passphrase: cfg.Passphrase,
			PrivateKey: cfg.PrivateKey,
			Address:    cfg.OwnerAddress,
			Logger:     logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create order client: %w", err)
		}
		orderClient = client
	}

	return execution.NewSubmitter(execution.SubmitterConfig{
		Mode:            cfg.ExecutionMode,
		Owner:           cfg.OwnerAddress,
		ProposalChannel: detector.ProposalChan(),
		Logger:          logger,
	}, orderClient, fillRepo), nil
}
