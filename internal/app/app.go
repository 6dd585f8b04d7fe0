package app

import (
	"context"
	"sync"

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

// App is the main application orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server

	metadataCache cache.Cache
	gammaClient   *markets.GammaClient
	metadata      *markets.CachedMetadataClient
	index         *markets.Index

	fillRepo     *ledger.Repository
	quoteManager *quotes.Manager
	quoteStream  *quotes.Stream

	portfolio *portfolio.Service
	detector  *arbitrage.Detector
	submitter *execution.Submitter
	storage   storage.Storage

	subscribed   map[string]bool // token IDs with an active quote subscription
	singleMarket string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Options holds application options.
type Options struct {
	SingleMarket string // For debugging: slug of single market to track
}
